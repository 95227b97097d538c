// Package gateway dispatches canonical chat requests to configured provider
// adapters, applying the request cache, per-call timeouts, latency and usage
// accounting, and observability hooks.
package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/dadabin81/cloud-ai-forge-sub003/cache"
	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// Options configures a Gateway.
type Options struct {
	// Providers maps provider ids to adapters.
	Providers map[string]llm.Provider
	// DefaultProvider serves requests that name no provider.
	DefaultProvider string
	// Cache may be nil, which behaves as a disabled cache.
	Cache *cache.Cache
	// Timeout bounds each backend call. Zero means no gateway-imposed bound.
	Timeout time.Duration
	Hooks   Hooks
	Logger  zerolog.Logger
}

// Gateway is the dispatcher. Safe for concurrent use; the only mutable state
// is the cache and the metrics counters.
type Gateway struct {
	providers       map[string]llm.Provider
	defaultProvider string
	cache           *cache.Cache
	timeout         time.Duration
	hooks           Hooks
	metrics         Metrics
	logger          zerolog.Logger
}

// New builds a gateway from options.
func New(opts Options) *Gateway {
	providers := opts.Providers
	if providers == nil {
		providers = map[string]llm.Provider{}
	}
	g := &Gateway{
		providers:       providers,
		defaultProvider: opts.DefaultProvider,
		cache:           opts.Cache,
		timeout:         opts.Timeout,
		hooks:           opts.Hooks,
		logger:          opts.Logger.With().Str("component", "gateway").Logger(),
	}
	g.logger.Info().
		Strs("providers", lo.Keys(providers)).
		Str("default", opts.DefaultProvider).
		Msg("Gateway initialized")
	return g
}

// Providers returns the configured provider ids.
func (g *Gateway) Providers() []string {
	return lo.Keys(g.providers)
}

// Metrics returns a snapshot of the dispatch counters.
func (g *Gateway) Metrics() MetricsSnapshot {
	return g.metrics.Snapshot()
}

// ClearCache drops every cached response.
func (g *Gateway) ClearCache() {
	if g.cache != nil {
		g.cache.Clear()
	}
}

// resolve picks the provider for a request: the request's own provider id
// when set, otherwise the configured default.
func (g *Gateway) resolve(req *llm.Request) (llm.Provider, string, error) {
	name := req.Provider
	if name == "" {
		name = g.defaultProvider
	}
	p, ok := g.providers[name]
	if !ok {
		g.metrics.recordError()
		return nil, name, llm.NewProviderNotConfigured(name)
	}
	return p, name, nil
}

// Chat issues one chat request. On a cache hit no network call is made and
// the response carries Cached=true.
func (g *Gateway) Chat(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		g.metrics.recordError()
		return nil, llm.NewAborted(err)
	}
	p, name, err := g.resolve(req)
	if err != nil {
		return nil, err
	}
	keyed := req.Clone()
	keyed.Provider = name

	fingerprint := cache.Fingerprint(keyed)
	if g.cache != nil {
		if hit, ok := g.cache.Get(fingerprint); ok {
			g.metrics.recordHit()
			g.logger.Debug().Str("provider", name).Str("fingerprint", fingerprint).Msg("Cache hit")
			return hit, nil
		}
	}

	spanID := uuid.NewString()
	g.hooks.start(g.logger, StartEvent{
		SpanID:   spanID,
		Provider: name,
		Model:    req.Model,
		Messages: keyed.Messages,
	})

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := p.Chat(callCtx, keyed)
	latency := time.Since(started)

	if err != nil {
		g.metrics.recordError()
		g.hooks.end(g.logger, EndEvent{
			SpanID:   spanID,
			Provider: name,
			Model:    req.Model,
			Messages: keyed.Messages,
			Err:      err,
			Latency:  latency,
		})
		return nil, err
	}

	resp.LatencyMs = latency.Milliseconds()
	resp.Cached = false
	if g.cache != nil {
		g.cache.Put(fingerprint, resp, 0)
	}
	g.metrics.recordSuccess(latency, resp.Usage)
	g.hooks.end(g.logger, EndEvent{
		SpanID:   spanID,
		Provider: name,
		Model:    req.Model,
		Messages: keyed.Messages,
		Response: resp,
		Latency:  latency,
	})
	g.logger.Debug().
		Str("provider", name).
		Str("model", resp.Model).
		Int64("latency_ms", resp.LatencyMs).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("Chat completed")
	return resp, nil
}

// StreamChat issues one streaming chat request. Latency covers full stream
// consumption; the terminal response is cached once the stream completes.
func (g *Gateway) StreamChat(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	if err := ctx.Err(); err != nil {
		g.metrics.recordError()
		return nil, llm.NewAborted(err)
	}
	p, name, err := g.resolve(req)
	if err != nil {
		return nil, err
	}
	keyed := req.Clone()
	keyed.Provider = name

	fingerprint := cache.Fingerprint(keyed)
	if g.cache != nil {
		if hit, ok := g.cache.Get(fingerprint); ok {
			g.metrics.recordHit()
			return newReplayStream(hit), nil
		}
	}

	spanID := uuid.NewString()
	g.hooks.start(g.logger, StartEvent{
		SpanID:   spanID,
		Provider: name,
		Model:    req.Model,
		Messages: keyed.Messages,
	})

	callCtx := ctx
	var cancel context.CancelFunc = func() {}
	if g.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
	}

	started := time.Now()
	inner, err := p.Stream(callCtx, keyed)
	if err != nil {
		cancel()
		g.metrics.recordError()
		g.hooks.end(g.logger, EndEvent{
			SpanID:   spanID,
			Provider: name,
			Model:    req.Model,
			Messages: keyed.Messages,
			Err:      err,
			Latency:  time.Since(started),
		})
		return nil, err
	}

	return &dispatchStream{
		inner:       inner,
		gateway:     g,
		cancel:      cancel,
		fingerprint: fingerprint,
		spanID:      spanID,
		provider:    name,
		model:       req.Model,
		messages:    keyed.Messages,
		started:     started,
	}, nil
}
