package textgen

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by NewFromOptions.
const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Options selects and configures a backend.
type Options struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
	Burst     int
}

// NewFromOptions builds the configured backend. It returns (nil, nil) when
// the provider is "none" or empty, or when a keyed provider has no API key:
// the service is simply unavailable and callers answer locally.
func NewFromOptions(ctx context.Context, opts Options) (Generator, error) {
	var gen Generator

	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderNone:
		return nil, nil

	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, nil
		}
		cfg := DefaultOpenAIConfig(opts.APIKey)
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		if opts.Model != "" {
			cfg.Model = opts.Model
		}
		if opts.Timeout > 0 {
			cfg.Timeout = opts.Timeout
		}
		gen = NewOpenAIClient(cfg)

	case ProviderGemini:
		if opts.APIKey == "" {
			return nil, nil
		}
		g, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:  opts.APIKey,
			Model:   opts.Model,
			BaseURL: opts.BaseURL,
			Timeout: opts.Timeout,
		})
		if err != nil {
			return nil, err
		}
		gen = g

	case ProviderOllama:
		cfg := DefaultOllamaConfig()
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		if opts.Model != "" {
			cfg.Model = opts.Model
		}
		if opts.Timeout > 0 {
			cfg.Timeout = opts.Timeout
		}
		gen = NewOllamaClient(cfg)

	default:
		return nil, fmt.Errorf("unknown text generation provider %q", opts.Provider)
	}

	if opts.RateLimit > 0 {
		gen = NewLimited(gen, opts.RateLimit, opts.Burst)
	}
	return gen, nil
}
