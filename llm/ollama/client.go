package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

const defaultHost = "http://localhost:11434"

// Config holds everything needed to reach an Ollama server. No API key, the
// server is assumed local or network-trusted.
type Config struct {
	Host         string
	DefaultModel string
	HTTPClient   *http.Client
}

// Provider implements llm.Provider for Ollama.
type Provider struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates the Ollama provider.
func New(cfg Config, logger zerolog.Logger) (*Provider, error) {
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Provider{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "llm").Str("provider", "ollama").Logger(),
	}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return "ollama" }

// ResolveModel falls back to the configured default model.
func (p *Provider) ResolveModel(model string) (string, error) {
	if model == "" {
		model = p.cfg.DefaultModel
	}
	if model == "" {
		return "", fmt.Errorf("ollama: model is required")
	}
	return model, nil
}

// Chat implements llm.Provider.
func (p *Provider) Chat(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	model, err := p.ResolveModel(req.Model)
	if err != nil {
		return nil, err
	}
	body, err := FormatRequest(req, model, false)
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
		return nil, llm.NewBackendError("ollama", resp.StatusCode, "reading response body", err)
	}
	var wire api.ChatResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, llm.NewBackendError("ollama", resp.StatusCode, "parsing response body", err)
	}
	return ParseResponse(model, &wire)
}

// Stream implements llm.Provider. Ollama streams newline-delimited JSON
// rather than SSE frames.
func (p *Provider) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	model, err := p.ResolveModel(req.Model)
	if err != nil {
		return nil, err
	}
	body, err := FormatRequest(req, model, true)
	if err != nil {
		return nil, err
	}

	resp, err := p.post(ctx, body)
	if err != nil {
		return nil, err
	}
	return newChatStream(model, resp.Body), nil
}

func (p *Provider) post(ctx context.Context, body *api.ChatRequest) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.Host+"/api/chat", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("ollama: creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, llm.NewAborted(ctx.Err())
		}
		return nil, llm.NewBackendError("ollama", 0, "sending request", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		payload, _ := io.ReadAll(resp.Body)
		return nil, p.statusError(resp.StatusCode, payload)
	}
	return resp, nil
}

func (p *Provider) statusError(status int, payload []byte) error {
	msg := http.StatusText(status)
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Error != "" {
		msg = envelope.Error
	}
	p.logger.Warn().Int("status", status).Str("message", msg).Msg("backend returned error status")
	return llm.ErrorFromStatus("ollama", status, msg)
}
