// Package openrouter wires the OpenRouter aggregator through the
// chat-completions codec. OpenRouter speaks the OpenAI wire format but routes
// to many upstream models and bills per-request credits, so HTTP 402 shows up
// in normal operation when credits run out.
package openrouter

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm/openai"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Config holds everything needed to reach OpenRouter.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	// SiteURL and AppName populate the attribution headers OpenRouter uses
	// for its rankings page. Both are optional.
	SiteURL    string
	AppName    string
	HTTPClient *http.Client
}

// New creates the OpenRouter provider on top of the shared codec.
func New(cfg Config, logger zerolog.Logger) (*openai.Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	headers := map[string]string{}
	if cfg.SiteURL != "" {
		headers["HTTP-Referer"] = cfg.SiteURL
	}
	if cfg.AppName != "" {
		headers["X-Title"] = cfg.AppName
	}
	return openai.NewCompatible("openrouter", openai.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      baseURL,
		DefaultModel: cfg.DefaultModel,
		ExtraHeaders: headers,
		ModelAliases: DefaultModels,
		HTTPClient:   cfg.HTTPClient,
	}, logger)
}
