// Package server exposes learner profiles over HTTP so the terminal client
// can keep progress on a shared profile store.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/store"
)

// maxProfileBytes bounds a PUT /api/profile body.
const maxProfileBytes = 1 << 20

// Options configures the HTTP handler.
type Options struct {
	Profiles    store.ProfileRepo
	Content     *curriculum.Catalog
	Auth        *Auth
	CORSOrigins []string
	Logger      *log.Logger
}

// Server serves the profile store API.
type Server struct {
	profiles store.ProfileRepo
	content  *curriculum.Catalog
	auth     *Auth
	origins  []string
	logger   *log.Logger
}

// New returns a Server. Content defaults to the embedded pack.
func New(opts Options) (*Server, error) {
	if opts.Profiles == nil {
		return nil, errors.New("server: profile repo is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("server: auth is required")
	}
	content := opts.Content
	if content == nil {
		c, err := curriculum.Default()
		if err != nil {
			return nil, err
		}
		content = c
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Server{
		profiles: opts.Profiles,
		content:  content,
		auth:     opts.Auth,
		origins:  opts.CORSOrigins,
		logger:   logger,
	}, nil
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Post("/auth/token", tokenHandler(s.auth))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Group(func(pr chi.Router) {
		pr.Use(s.auth.Middleware)
		pr.Get("/api/curriculum", s.getCurriculum)
		pr.Get("/api/profile", s.getProfile)
		pr.Put("/api/profile", s.putProfile)
		pr.With(RequireAdmin).Get("/api/admin/stats", s.getAdminStats)
		pr.With(RequireAdmin).Post("/api/admin/tokens", issueHandler(s.auth))
	})
	return r
}

// CurriculumSection is a section as listed by GET /api/curriculum. Quiz
// answers are never exposed.
type CurriculumSection struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Questions int    `json:"questions"`
}

// CurriculumDay is one day of the listing.
type CurriculumDay struct {
	ID       curriculum.DayID    `json:"id"`
	Title    string              `json:"title"`
	Sections []CurriculumSection `json:"sections"`
}

// CurriculumResponse is the body of GET /api/curriculum.
type CurriculumResponse struct {
	Version string          `json:"version"`
	Course  string          `json:"course"`
	Days    []CurriculumDay `json:"days"`
}

func (s *Server) getCurriculum(w http.ResponseWriter, r *http.Request) {
	resp := CurriculumResponse{Version: s.content.Version(), Course: s.content.Course()}
	for _, id := range s.content.Days() {
		sections, err := s.content.Day(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		d := CurriculumDay{ID: id, Title: s.content.DayTitle(id)}
		for _, sec := range sections {
			d.Sections = append(d.Sections, CurriculumSection{
				ID:        sec.ID,
				Title:     sec.Title,
				Questions: len(s.content.Questions(sec.ID)),
			})
		}
		resp.Days = append(resp.Days, d)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).Sub
	p, err := s.profiles.Load(r.Context(), userID)
	if errors.Is(err, profile.ErrNotFound) {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Printf("warning: load profile %s: %v", userID, err)
		http.Error(w, "load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// putProfile stores the document as sent. Gating is the client's job.
func (s *Server) putProfile(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).Sub
	var p profile.LearnerProfile
	if err := json.NewDecoder(io.LimitReader(r.Body, maxProfileBytes)).Decode(&p); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	p.UserID = userID
	p = p.Normalize()
	if err := s.profiles.Save(r.Context(), userID, p); err != nil {
		s.logger.Printf("warning: save profile %s: %v", userID, err)
		http.Error(w, "save profile", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LearnerRow is one learner in the admin stats.
type LearnerRow struct {
	UserID          string    `json:"user_id"`
	Name            string    `json:"name,omitempty"`
	Completed       int       `json:"completed"`
	ProgressPercent int       `json:"progress_percent"`
	Points          int       `json:"points"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AdminStats is the body of GET /api/admin/stats.
type AdminStats struct {
	TotalUsers      int          `json:"total_users"`
	StartedUsers    int          `json:"started_users"`
	AverageProgress float64      `json:"average_progress"`
	Learners        []LearnerRow `json:"learners"`
}

func (s *Server) getAdminStats(w http.ResponseWriter, r *http.Request) {
	list, err := s.profiles.List(r.Context())
	if err != nil {
		s.logger.Printf("warning: list profiles: %v", err)
		http.Error(w, "list profiles", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, Summarize(list, s.content.TotalSections()))
}

// Summarize computes the admin dashboard numbers. The average is completed
// sections over every learner's full course, rounded to one decimal.
func Summarize(list []store.ProfileSummary, totalSections int) AdminStats {
	stats := AdminStats{TotalUsers: len(list), Learners: []LearnerRow{}}
	completed := 0
	for _, ps := range list {
		n := len(ps.Profile.CompletedSections)
		completed += n
		if n > 0 {
			stats.StartedUsers++
		}
		row := LearnerRow{
			UserID:          ps.UserID,
			Completed:       n,
			ProgressPercent: ps.Profile.ProgressPercent(totalSections),
			Points:          ps.Profile.Stats.TotalPoints,
			UpdatedAt:       ps.UpdatedAt,
		}
		if ps.Profile.Onboarding != nil {
			row.Name = ps.Profile.Onboarding.Name
		}
		stats.Learners = append(stats.Learners, row)
	}
	if len(list) > 0 && totalSections > 0 {
		avg := float64(completed) / float64(len(list)*totalSections) * 100
		stats.AverageProgress = math.Round(avg*10) / 10
	}
	return stats
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
