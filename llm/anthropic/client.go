package anthropic

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

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
)

// Config holds everything needed to reach the Messages API.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	ExtraHeaders map[string]string
	HTTPClient   *http.Client
}

// Provider implements llm.Provider for the Anthropic family.
type Provider struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates the Anthropic provider.
func New(cfg Config, logger zerolog.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Provider{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "llm").Str("provider", "anthropic").Logger(),
	}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return "anthropic" }

// ResolveModel translates a friendly model name through the alias table.
func (p *Provider) ResolveModel(model string) (string, error) {
	if model == "" {
		model = p.cfg.DefaultModel
	}
	if model == "" {
		return "", fmt.Errorf("anthropic: model is required")
	}
	if wire, ok := DefaultModels[model]; ok {
		return string(wire), nil
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

	resp, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.NewBackendError("anthropic", resp.StatusCode, "reading response body", err)
	}
	var wire messagesResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, llm.NewBackendError("anthropic", resp.StatusCode, "parsing response body", err)
	}
	return ParseResponse("anthropic", &wire)
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

	resp, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}
	return newMessageStream(model, resp.Body), nil
}

func (p *Provider) post(ctx context.Context, body *messagesRequest) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("anthropic: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/messages", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("anthropic: creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	for k, v := range p.cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, llm.NewAborted(ctx.Err())
		}
		return nil, llm.NewBackendError("anthropic", 0, "sending request", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		payload, _ := io.ReadAll(resp.Body)
		return nil, p.statusError(resp, payload)
	}
	return resp, nil
}

func (p *Provider) statusError(resp *http.Response, payload []byte) error {
	msg := http.StatusText(resp.StatusCode)
	var envelope errorResponse
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	mapped := llm.ErrorFromStatus("anthropic", resp.StatusCode, msg)
	if mapped.Type == llm.ErrorTypeRateLimited {
		if raw := resp.Header.Get("retry-after"); raw != "" {
			if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
				after := time.Duration(secs) * time.Second
				mapped.RetryAfter = &after
			}
		}
	}
	p.logger.Warn().Int("status", resp.StatusCode).Str("message", msg).Msg("backend returned error status")
	return mapped
}
