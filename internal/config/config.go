// Package config reads the application configuration from MASTERCLASS_*
// environment variables, optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name read by Load.
const EnvPrefix = "MASTERCLASS_"

// Config holds the settings shared by the terminal client and the HTTP
// profile store.
type Config struct {
	DBDriver    string // sqlite | postgres
	DBDSN       string // empty: default sqlite file path
	ContentPath string // empty: embedded content pack

	HTTPAddr      string
	JWTSecret     string
	AdminUser     string
	AdminPassHash string // bcrypt; empty disables admin login
	DevLogin      bool   // learners may self-issue tokens without a password
	CORSOrigins   []string

	RemoteURL   string // non-empty: profiles are kept on a remote profile store
	RemoteToken string

	UserID string
	Hints  bool
}

// DefaultJWTSecret is only suitable for local development.
const DefaultJWTSecret = "dev-secret-change-me"

// Load reads the optional .env file (MASTERCLASS_ENV_FILE, default ".env")
// and then the environment. Variables already set in the environment win
// over the file.
func Load() (Config, error) {
	path := os.Getenv(EnvPrefix + "ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment.
func FromEnv() Config {
	return Config{
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		ContentPath:   envOr("CONTENT", ""),
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		JWTSecret:     envOr("JWT_SECRET", DefaultJWTSecret),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", ""),
		DevLogin:      envBool("DEV_LOGIN", false),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		RemoteURL:     strings.TrimSuffix(envOr("REMOTE_URL", ""), "/"),
		RemoteToken:   envOr("REMOTE_TOKEN", ""),
		UserID:        envOr("USER", defaultUser()),
		Hints:         envBool("HINTS", true),
	}
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "learner"
}

func envOr(k, def string) string {
	v := os.Getenv(EnvPrefix + k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(EnvPrefix + k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
