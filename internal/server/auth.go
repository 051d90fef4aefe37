package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Roles carried in issued tokens.
const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

const tokenTTL = 7 * 24 * time.Hour

// Claims are the JWT claims understood by the profile store.
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Login failures.
var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrLoginDisabled  = errors.New("learner login is disabled")
)

// Auth issues and verifies HS256 tokens.
type Auth struct {
	hmac      []byte
	admin     string
	adminHash []byte
	devLogin  bool
	now       func() time.Time
}

// AuthOption configures an Auth.
type AuthOption func(*Auth)

// WithAdminPassHash sets the bcrypt hash the admin password is checked
// against. Without it no admin token can be requested over HTTP.
func WithAdminPassHash(hash string) AuthOption {
	return func(a *Auth) { a.adminHash = []byte(hash) }
}

// WithDevLogin lets any learner request a token for their own user ID
// without a password. Development only.
func WithDevLogin(on bool) AuthOption {
	return func(a *Auth) { a.devLogin = on }
}

// NewAuth returns an Auth signing with secret. Tokens issued for adminUser
// carry the admin role.
func NewAuth(secret, adminUser string, opts ...AuthOption) *Auth {
	a := &Auth{hmac: []byte(secret), admin: adminUser, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate checks a token request. The admin must present the password
// matching the configured bcrypt hash. Learners may only self-issue when
// dev login is enabled; otherwise an admin issues their tokens.
func (a *Auth) Authenticate(userID, password string) error {
	if a.admin != "" && userID == a.admin {
		if len(a.adminHash) == 0 || password == "" {
			return ErrBadCredentials
		}
		if bcrypt.CompareHashAndPassword(a.adminHash, []byte(password)) != nil {
			return ErrBadCredentials
		}
		return nil
	}
	if !a.devLogin {
		return ErrLoginDisabled
	}
	return nil
}

// Issue signs a token for userID.
func (a *Auth) Issue(userID string) (string, error) {
	role := RoleLearner
	if a.admin != "" && userID == a.admin {
		role = RoleAdmin
	}
	now := a.now()
	claims := &Claims{
		Sub:  userID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "masterclass",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.hmac)
}

// Parse verifies tokenStr and returns its claims.
func (a *Auth) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Sub == "" {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

type ctxKey string

const ctxKeyClaims ctxKey = "claims"

func withClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

func claimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKeyClaims).(*Claims)
	return c
}

// Middleware rejects requests without a valid bearer token and stores the
// claims in the request context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), c)))
	})
}

// RequireAdmin must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := claimsFrom(r.Context()); c == nil || c.Role != RoleAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// POST /auth/token {"user_id": "...", "password": "..."}
func tokenHandler(a *Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string `json:"user_id"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.UserID = strings.TrimSpace(req.UserID)
		if req.UserID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		switch err := a.Authenticate(req.UserID, req.Password); {
		case errors.Is(err, ErrLoginDisabled):
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		case err != nil:
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		writeToken(w, a, req.UserID)
	}
}

// POST /api/admin/tokens {"user_id": "..."}
//
// Issues a learner token on behalf of an admin.
func issueHandler(a *Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.UserID = strings.TrimSpace(req.UserID)
		if req.UserID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		if a.admin != "" && req.UserID == a.admin {
			http.Error(w, "admin tokens require the admin password", http.StatusForbidden)
			return
		}
		writeToken(w, a, req.UserID)
	}
}

func writeToken(w http.ResponseWriter, a *Auth, userID string) {
	tok, err := a.Issue(userID)
	if err != nil {
		http.Error(w, "issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": tok})
}
