package gateway

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// StartEvent describes one dispatch about to be issued.
type StartEvent struct {
	SpanID   string
	Provider string
	Model    string
	Messages []llm.Message
}

// EndEvent describes one completed dispatch, successful or not.
type EndEvent struct {
	SpanID   string
	Provider string
	Model    string
	Messages []llm.Message
	Response *llm.Response
	Err      error
	Latency  time.Duration
}

// Hooks are optional observability callbacks invoked synchronously around
// each dispatch. A nil field is skipped. A panicking hook never aborts the
// request.
type Hooks struct {
	OnRequestStart func(StartEvent)
	OnRequestEnd   func(EndEvent)
}

func (h Hooks) start(logger zerolog.Logger, ev StartEvent) {
	if h.OnRequestStart == nil {
		return
	}
	defer recoverHook(logger, "onRequestStart")
	h.OnRequestStart(ev)
}

func (h Hooks) end(logger zerolog.Logger, ev EndEvent) {
	if h.OnRequestEnd == nil {
		return
	}
	defer recoverHook(logger, "onRequestEnd")
	h.OnRequestEnd(ev)
}

func recoverHook(logger zerolog.Logger, name string) {
	if r := recover(); r != nil {
		logger.Error().Str("hook", name).Interface("panic", r).Msg("Observability hook panicked")
	}
}
