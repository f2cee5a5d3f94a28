package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/tbourn/go-booking-backend/internal/config"
	"github.com/tbourn/go-booking-backend/internal/observability"
)

// New builds the configured Generator. Each API key becomes one client and
// the clients are wrapped in a Rotating. With no keys it returns
// Unconfigured so the service still starts and answers with the fallback.
// The returned close function releases provider connections.
func New(ctx context.Context, cfg config.GeneratorConfig) (Generator, func() error, error) {
	noop := func() error { return nil }
	if len(cfg.APIKeys) == 0 {
		return Unconfigured{}, noop, nil
	}

	opts := Options{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: float32(cfg.Temperature),
	}

	var (
		names   []string
		gens    []Generator
		closers []func() error
	)
	for i, key := range cfg.APIKeys {
		var g Generator
		switch cfg.Provider {
		case "openai", "":
			g = NewOpenAI(key, cfg.BaseURL, opts)
		case "anthropic":
			g = NewAnthropic(key, opts)
		case "gemini":
			gm, err := NewGemini(ctx, key, opts)
			if err != nil {
				for _, c := range closers {
					_ = c()
				}
				return nil, noop, fmt.Errorf("gemini client %d: %w", i+1, err)
			}
			closers = append(closers, gm.Close)
			g = gm
		default:
			return nil, noop, fmt.Errorf("unknown generator provider %q", cfg.Provider)
		}
		names = append(names, fmt.Sprintf("%s-%d", providerName(cfg.Provider), i+1))
		gens = append(gens, WithTimeout(g, cfg.Timeout))
	}

	r := NewRotating(names, gens...)
	r.OnResult = func(name string, err error) {
		observability.GeneratorRequests.WithLabelValues(name, observability.Outcome(err)).Inc()
	}
	closeAll := func() error {
		var first error
		for _, c := range closers {
			if err := c(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	return r, closeAll, nil
}

func providerName(p string) string {
	if p == "" {
		return "openai"
	}
	return p
}

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout bounds every call to g by d. A non-positive d returns g.
func WithTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 {
		return g
	}
	return timeoutGenerator{next: g, timeout: d}
}

func (t timeoutGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Generate(ctx, messages)
}
