package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
	ProviderVADER  = "vader"
)

// ErrUnknownProvider is returned when the configured provider name is not recognised.
var ErrUnknownProvider = errors.New("unknown analysis provider")

// ProviderConfig selects and configures the analysis backend.
type ProviderConfig struct {
	Name   string
	Google GoogleConfig
	OpenAI OpenAIConfig
}

// NewProvider builds the provider named in cfg. The returned close function
// releases any connection held by the provider and is never nil.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, func() error, error) {
	noop := func() error { return nil }

	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == "" {
		name = ProviderGoogle
	}

	switch name {
	case ProviderGoogle:
		g, err := NewGoogle(ctx, cfg.Google)
		if err != nil {
			return nil, noop, fmt.Errorf("google language client: %w", err)
		}
		return g, g.Close, nil
	case ProviderOpenAI:
		o, err := NewOpenAI(cfg.OpenAI)
		if err != nil {
			return nil, noop, fmt.Errorf("openai client: %w", err)
		}
		return o, noop, nil
	case ProviderVADER:
		return NewVADER(), noop, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Name)
	}
}
