package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4"

// Config holds everything needed to reach a Workers AI account.
type Config struct {
	APIToken     string
	AccountID    string
	BaseURL      string
	DefaultModel string
	ModelAliases map[string]string
	HTTPClient   *http.Client
}

// Provider implements llm.Provider for Workers AI.
type Provider struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates the Workers AI provider.
func New(cfg Config, logger zerolog.Logger) (*Provider, error) {
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("cloudflare: api token is required")
	}
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("cloudflare: account id is required")
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
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "llm").Str("provider", "cloudflare").Logger(),
	}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return "cloudflare" }

// ResolveModel translates a friendly model name onto the @cf/ catalog id.
func (p *Provider) ResolveModel(model string) (string, error) {
	if model == "" {
		model = p.cfg.DefaultModel
	}
	if model == "" {
		return "", fmt.Errorf("cloudflare: model is required")
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
	body, err := FormatRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.post(ctx, model, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.NewBackendError("cloudflare", resp.StatusCode, "reading response body", err)
	}
	var envelope runEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, llm.NewBackendError("cloudflare", resp.StatusCode, "parsing response body", err)
	}
	if !envelope.Success {
		return nil, llm.NewBackendError("cloudflare", resp.StatusCode, envelopeMessage(envelope.Errors), nil)
	}
	return ParseResponse(model, &envelope.Result)
}

// Stream implements llm.Provider.
func (p *Provider) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	model, err := p.ResolveModel(req.Model)
	if err != nil {
		return nil, err
	}
	body, err := FormatRequest(req)
	if err != nil {
		return nil, err
	}
	body.Stream = true

	resp, err := p.post(ctx, model, body)
	if err != nil {
		return nil, err
	}
	return newRunStream(model, resp.Body), nil
}

func (p *Provider) post(ctx context.Context, model string, body *runRequest) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("cloudflare: encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", p.cfg.BaseURL, p.cfg.AccountID, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("cloudflare: creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIToken)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, llm.NewAborted(ctx.Err())
		}
		return nil, llm.NewBackendError("cloudflare", 0, "sending request", err)
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
	var envelope runEnvelope
	if err := json.Unmarshal(payload, &envelope); err == nil && len(envelope.Errors) > 0 {
		msg = envelopeMessage(envelope.Errors)
	}
	p.logger.Warn().Int("status", status).Str("message", msg).Msg("backend returned error status")
	return llm.ErrorFromStatus("cloudflare", status, msg)
}

func envelopeMessage(errs []apiError) string {
	if len(errs) == 0 {
		return "request failed"
	}
	return fmt.Sprintf("%s (code %d)", errs[0].Message, errs[0].Code)
}
