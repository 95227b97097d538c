package gateway

import (
	"time"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// dispatchStream wraps a provider stream to stamp latency, feed the cache,
// and fire the end hook once the stream is fully consumed.
type dispatchStream struct {
	inner       llm.Stream
	gateway     *Gateway
	cancel      func()
	fingerprint string
	spanID      string
	provider    string
	model       string
	messages    []llm.Message
	started     time.Time
	finished    bool
}

// Next implements llm.Stream.
func (s *dispatchStream) Next() bool {
	if s.inner.Next() {
		return true
	}
	s.finish()
	return false
}

func (s *dispatchStream) finish() {
	if s.finished {
		return
	}
	s.finished = true
	s.cancel()
	latency := time.Since(s.started)

	if err := s.inner.Err(); err != nil {
		s.gateway.metrics.recordError()
		s.gateway.hooks.end(s.gateway.logger, EndEvent{
			SpanID:   s.spanID,
			Provider: s.provider,
			Model:    s.model,
			Messages: s.messages,
			Err:      err,
			Latency:  latency,
		})
		return
	}

	resp := s.inner.Response()
	if resp != nil {
		resp.LatencyMs = latency.Milliseconds()
		resp.Cached = false
		if s.gateway.cache != nil {
			s.gateway.cache.Put(s.fingerprint, resp, 0)
		}
		s.gateway.metrics.recordSuccess(latency, resp.Usage)
	}
	s.gateway.hooks.end(s.gateway.logger, EndEvent{
		SpanID:   s.spanID,
		Provider: s.provider,
		Model:    s.model,
		Messages: s.messages,
		Response: resp,
		Latency:  latency,
	})
}

// Token implements llm.Stream.
func (s *dispatchStream) Token() string { return s.inner.Token() }

// Err implements llm.Stream.
func (s *dispatchStream) Err() error { return s.inner.Err() }

// Response implements llm.Stream.
func (s *dispatchStream) Response() *llm.Response { return s.inner.Response() }

// Close implements llm.Stream. Closing an undrained stream still ends the
// span: the end hook fires with an aborted marker and the error is counted.
func (s *dispatchStream) Close() error {
	if !s.finished {
		s.finished = true
		s.cancel()
		latency := time.Since(s.started)
		s.gateway.metrics.recordError()
		s.gateway.hooks.end(s.gateway.logger, EndEvent{
			SpanID:   s.spanID,
			Provider: s.provider,
			Model:    s.model,
			Messages: s.messages,
			Err:      llm.NewAborted(nil),
			Latency:  latency,
		})
	}
	s.cancel()
	return s.inner.Close()
}

// replayStream serves a cache hit through the stream interface: one token
// carrying the full content, then the cached terminal response.
type replayStream struct {
	resp    *llm.Response
	emitted bool
	done    bool
}

func newReplayStream(resp *llm.Response) *replayStream {
	return &replayStream{resp: resp}
}

// Next implements llm.Stream.
func (s *replayStream) Next() bool {
	if s.done || s.emitted {
		s.done = true
		return false
	}
	s.emitted = true
	return s.resp.Content != ""
}

// Token implements llm.Stream.
func (s *replayStream) Token() string { return s.resp.Content }

// Err implements llm.Stream.
func (s *replayStream) Err() error { return nil }

// Response implements llm.Stream.
func (s *replayStream) Response() *llm.Response { return s.resp }

// Close implements llm.Stream.
func (s *replayStream) Close() error {
	s.done = true
	return nil
}

var (
	_ llm.Stream = (*dispatchStream)(nil)
	_ llm.Stream = (*replayStream)(nil)
)
