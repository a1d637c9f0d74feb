package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client is a single-shot completion client for a reasoning service. The
// service is treated as unreliable: replies may be non-JSON, truncated, or
// rate-limited, and callers are expected to validate everything they parse
// out of the returned text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request describes one completion call.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Config configures a completion provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	APIURL   string
}

// NewClient creates a completion client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIClient(cfg), nil
	case "anthropic":
		return NewAnthropicClient(cfg), nil
	case "ollama":
		return NewOllamaClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
