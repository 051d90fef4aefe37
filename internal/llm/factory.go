package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/iamsmart/masterclass/internal/store"
)

// New builds the configured provider. Calls flow
// timeout -> retry -> logging -> SDK, so every attempt is recorded.
// events may be nil to skip recording.
func New(ctx context.Context, cfg Config, events store.EventRepo, logger *log.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropic(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAI(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGemini(ctx, cfg.Gemini)
	case ProviderMock:
		base = NewMock()
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", cfg.Provider, err)
	}

	p := base
	if events != nil {
		p = WithLogging(p, cfg.Provider, events, logger)
	}
	p = WithRetry(p, cfg.Retry)
	return WithTimeout(p, cfg.Timeout), nil
}

// NewFromEnv uses ConfigFromEnv when MASTERCLASS_LLM_PROVIDER is set and
// DiscoverConfig otherwise.
func NewFromEnv(ctx context.Context, events store.EventRepo, logger *log.Logger) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, err
		}
		cfg = discovered
	}
	return New(ctx, cfg, events, logger)
}
