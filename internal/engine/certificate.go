package engine

import (
	"errors"
	"time"

	"github.com/iamsmart/masterclass/internal/gating"
	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/store"
)

// ErrCertificateNotRequested is returned when final feedback arrives without
// a pending certificate request.
var ErrCertificateNotRequested = errors.New("certificate was not requested")

// certificateFlow is the in-memory gate in front of the certificate. It is
// never persisted: every visit asks for final feedback again.
type certificateFlow struct {
	armed  bool
	passed bool
}

// Certificate is the completion certificate.
type Certificate struct {
	LearnerName string
	Course      string
	IssuedOn    time.Time
}

// RequestCertificate checks that every day is complete and returns the final
// feedback prompt that must be answered before the certificate is shown.
func (e *Engine) RequestCertificate() (Prompt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return Prompt{}, ErrNotStarted
	}
	if !e.allDaysCompleteLocked() {
		return Prompt{}, ErrCertificateLocked
	}
	e.cert = certificateFlow{armed: true}
	return Prompt{Kind: PromptFinalFeedback}, nil
}

// CompleteFinalFeedback marks the final feedback as given for this visit.
func (e *Engine) CompleteFinalFeedback(answers map[string]string) error {
	e.mu.Lock()
	if !e.cert.armed {
		e.mu.Unlock()
		return ErrCertificateNotRequested
	}
	e.cert.passed = true
	userID := e.userID
	e.mu.Unlock()

	e.record(store.ProgressEventData{
		UserID: userID,
		Kind:   KindFinalFeedback,
		Detail: encodeDetail(string(PromptFinalFeedback), answers),
	})
	return nil
}

// Certificate returns the certificate once final feedback was given in this
// visit. The first issue date is recorded in the profile and reused.
func (e *Engine) Certificate() (Certificate, error) {
	e.mu.Lock()
	if !e.cert.armed || !e.cert.passed {
		e.mu.Unlock()
		return Certificate{}, ErrFinalFeedbackRequired
	}
	e.cert = certificateFlow{}

	first := !e.profile.HasSurvey(profile.CertificateIssued)
	if first {
		e.replaceLocked(e.profile.WithSurvey(profile.CertificateIssued, nil, e.now()))
	}
	cert := Certificate{
		LearnerName: e.profile.UserID,
		Course:      e.course,
		IssuedOn:    e.profile.Surveys[profile.CertificateIssued].CompletedAt,
	}
	if e.profile.Onboarding != nil && e.profile.Onboarding.Name != "" {
		cert.LearnerName = e.profile.Onboarding.Name
	}
	userID := e.userID
	e.mu.Unlock()

	if first {
		e.record(store.ProgressEventData{UserID: userID, Kind: KindCertificateIssued})
	}
	return cert, nil
}

func (e *Engine) allDaysCompleteLocked() bool {
	completed := e.profile.CompletedSet()
	days := e.content.Days()
	if len(days) == 0 {
		return false
	}
	for _, d := range days {
		sections, err := e.content.Day(d)
		if err != nil || !gating.DayComplete(sections, completed) {
			return false
		}
	}
	return true
}
