// Package lovable wires the Lovable AI gateway through the chat-completions
// codec. The gateway fronts several vendors behind one OpenAI-compatible
// endpoint and meters usage in workspace credits, reported over HTTP 402.
package lovable

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm/openai"
)

const defaultBaseURL = "https://ai.gateway.lovable.dev/v1"

// Config holds everything needed to reach the gateway.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	HTTPClient   *http.Client
}

// New creates the Lovable gateway provider on top of the shared codec.
func New(cfg Config, logger zerolog.Logger) (*openai.Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return openai.NewCompatible("lovable", openai.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      baseURL,
		DefaultModel: cfg.DefaultModel,
		ModelAliases: DefaultModels,
		HTTPClient:   cfg.HTTPClient,
	}, logger)
}
