// Package llm wraps the generative model providers used to personalize programs.
// Every call is a single schema-constrained request; retries are the caller's call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/movement-program/internal/logger"
)

// ErrNotConfigured is returned by New when no provider or credential is set.
var ErrNotConfigured = errors.New("llm provider not configured")

// Client generates one JSON document conforming to schema.
type Client interface {
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) ([]byte, error)
	Provider() string
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string        // OpenAI only; empty means the public endpoint
	Timeout  time.Duration // HTTP client timeout; the caller's context usually expires first
}

// New builds the configured provider client.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" || provider == "none" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, log), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
