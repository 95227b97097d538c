package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config holds everything needed to reach an OpenAI-compatible endpoint.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	ExtraHeaders map[string]string
	// ModelAliases maps friendly model names to this backend's wire ids.
	ModelAliases map[string]string
	HTTPClient   *http.Client
}

// Provider implements llm.Provider for the OpenAI-compatible family.
type Provider struct {
	name       string
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates the provider for the official OpenAI API.
func New(cfg Config, logger zerolog.Logger) (*Provider, error) {
	return NewCompatible("openai", cfg, logger)
}

// NewCompatible creates a provider for any backend speaking the
// chat-completions wire format under its own name and endpoint.
func NewCompatible(name string, cfg Config, logger zerolog.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: api key is required", name)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ModelAliases == nil {
		cfg.ModelAliases = DefaultModels
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Provider{
		name:       name,
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "llm").Str("provider", name).Logger(),
	}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return p.name }

// ResolveModel translates a friendly model name through the alias table and
// falls back to the configured default.
func (p *Provider) ResolveModel(model string) (string, error) {
	if model == "" {
		model = p.cfg.DefaultModel
	}
	if model == "" {
		return "", fmt.Errorf("%s: model is required", p.name)
	}
	if wire, ok := p.cfg.ModelAliases[model]; ok {
		return wire, nil
	}
	return model, nil
}

// Chat implements llm.Provider.
func (p *Provider) Chat(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	model, err := p.ResolveModel(req.Model)
	if err != nil {
		return nil, err
	}
	body, err := FormatRequest(req, model)
	if err != nil {
		return nil, err
	}

	raw, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = raw.Body.Close() }()

	payload, err := io.ReadAll(raw.Body)
	if err != nil {
		return nil, llm.NewBackendError(p.name, raw.StatusCode, "reading response body", err)
	}
	var wire openai.ChatCompletionResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, llm.NewBackendError(p.name, raw.StatusCode, "parsing response body", err)
	}
	return ParseResponse(p.name, &wire)
}

// Stream implements llm.Provider.
func (p *Provider) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	model, err := p.ResolveModel(req.Model)
	if err != nil {
		return nil, err
	}
	body, err := FormatRequest(req, model)
	if err != nil {
		return nil, err
	}
	body.Stream = true
	body.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	raw, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}
	return newChatStream(p.name, model, raw.Body), nil
}

// post issues the HTTP call and maps any non-2xx status onto the typed error
// taxonomy before a caller ever sees the body.
func (p *Provider) post(ctx context.Context, body openai.ChatCompletionRequest) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding request: %w", p.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", p.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	for k, v := range p.cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, llm.NewAborted(ctx.Err())
		}
		return nil, llm.NewBackendError(p.name, 0, "sending request", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		payload, _ := io.ReadAll(resp.Body)
		return nil, p.statusError(resp, payload)
	}
	return resp, nil
}

func (p *Provider) statusError(resp *http.Response, payload []byte) error {
	msg := parseErrorMessage(payload)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	mapped := llm.ErrorFromStatus(p.name, resp.StatusCode, msg)
	if mapped.Type == llm.ErrorTypeRateLimited {
		if after := retryAfter(resp.Header); after > 0 {
			mapped.RetryAfter = &after
		}
	}
	p.logger.Warn().Int("status", resp.StatusCode).Str("message", msg).Msg("backend returned error status")
	return mapped
}

func retryAfter(h http.Header) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// parseErrorMessage extracts the backend's error message from the standard
// {"error": {"message": ...}} envelope.
func parseErrorMessage(payload []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return string(payload)
	}
	return envelope.Error.Message
}
