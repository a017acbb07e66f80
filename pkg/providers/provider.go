// Package providers wraps the LLM backends used for ad classification and
// text rewriting behind one small completion interface.
package providers

import (
	"context"
	"fmt"

	"github.com/tinyland-inc/mirrorclaw/pkg/config"
)

// CompletionRequest is a single system+user prompt exchange. The moderation
// layer never needs tools, streaming or multi-turn history.
type CompletionRequest struct {
	System      string
	User        string
	Model       string
	MaxTokens   int
	Temperature *float64
}

// Provider produces one completion for a request.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// New builds the provider selected by the configuration. "deepseek" is
// served through the OpenAI-compatible client pointed at the DeepSeek API.
func New(cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.APIBase), nil
	case "openai", "deepseek":
		return NewOpenAIProvider(cfg.APIKey, cfg.APIBase), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}
