package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

const envPrefix = "MASTERCLASS_"

// Config selects and configures a provider.
type Config struct {
	Provider  string
	Anthropic ProviderConfig
	OpenAI    ProviderConfig // BaseURL allows any OpenAI-compatible endpoint.
	Gemini    ProviderConfig
	Retry     RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// ProviderConfig is the per-provider credential and model.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig controls exponential backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig uses small, fast models; hints are short.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderAnthropic,
		Anthropic: ProviderConfig{Model: "claude-haiku"},
		OpenAI:    ProviderConfig{Model: "gpt-4o-mini"},
		Gemini:    ProviderConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 20 * time.Second,
	}
}

// ConfigFromEnv overlays MASTERCLASS_LLM_PROVIDER and the
// MASTERCLASS_<PROVIDER>_{API_KEY,MODEL,BASE_URL} variables on the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if p := os.Getenv(envPrefix + "LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}
	overlay(&cfg.Anthropic, "ANTHROPIC")
	overlay(&cfg.OpenAI, "OPENAI")
	overlay(&cfg.Gemini, "GEMINI")
	return cfg
}

func overlay(pc *ProviderConfig, name string) {
	if v := os.Getenv(envPrefix + name + "_API_KEY"); v != "" {
		pc.APIKey = v
	}
	if v := os.Getenv(envPrefix + name + "_MODEL"); v != "" {
		pc.Model = v
	}
	if v := os.Getenv(envPrefix + name + "_BASE_URL"); v != "" {
		pc.BaseURL = v
	}
}

// DiscoverConfig falls back to the vendors' standard key variables, in the
// order Anthropic, OpenAI, Gemini. ok is false when none is set.
func DiscoverConfig() (cfg Config, ok bool) {
	cfg = DefaultConfig()
	switch {
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider, cfg.Anthropic.APIKey = ProviderAnthropic, os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider, cfg.OpenAI.APIKey = ProviderOpenAI, os.Getenv("OPENAI_API_KEY")
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider, cfg.Gemini.APIKey = ProviderGemini, os.Getenv("GEMINI_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// Validate checks the selected provider has a key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s%s_API_KEY is required for the %s provider", envPrefix, strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}
