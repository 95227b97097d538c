// Package agent runs the multi-step tool-calling loop: dispatch a chat
// request, execute any requested tools, feed results back, and repeat until
// the model produces a final answer or the iteration cap is reached.
package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
	"github.com/dadabin81/cloud-ai-forge-sub003/tools"
)

// DefaultMaxIterations bounds a run when options leave the cap unset.
const DefaultMaxIterations = 10

// Dispatcher issues one chat request. The gateway satisfies this; tests
// substitute fakes.
type Dispatcher interface {
	Chat(ctx context.Context, req *llm.Request) (*llm.Response, error)
}

// SystemPromptFunc resolves a system prompt against caller-supplied context
// values, producing per-invocation personalization without mutating the
// agent.
type SystemPromptFunc func(values map[string]any) string

// Observer is invoked synchronously after each tool execution, before the
// next model call.
type Observer func(toolName string, args map[string]any, result string)

// Options configures an agent.
type Options struct {
	Name     string
	Provider string
	Model    string
	// SystemPrompt is the static system prompt. SystemPromptFunc, when set,
	// takes precedence and is resolved via WithContext.
	SystemPrompt     string
	SystemPromptFunc SystemPromptFunc
	Tools            []tools.Tool
	MaxIterations    int
	Temperature      *float64
	TopP             *float64
	MaxTokens        int
	Observer         Observer
	// Retry enables rate-limit retries around each dispatch. Nil disables
	// retrying entirely.
	Retry  *RetryPolicy
	Logger zerolog.Logger
}

// Agent is an immutable run configuration. One agent may serve many
// concurrent Run calls.
type Agent struct {
	opts       Options
	dispatcher Dispatcher
	registry   *tools.Registry
	// system is the resolved system prompt for this instance.
	system string
	// values is the context bound by WithContext, passed into tool
	// executions.
	values map[string]any
	logger zerolog.Logger
}

// New builds an agent over a dispatcher. Duplicate tool names are an error.
func New(dispatcher Dispatcher, opts Options) (*Agent, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("agent: dispatcher is required")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	logger := opts.Logger.With().Str("component", "agent").Str("agent", opts.Name).Logger()

	registry := tools.NewRegistry(logger)
	for _, t := range opts.Tools {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("agent %s: %w", opts.Name, err)
		}
	}

	system := opts.SystemPrompt
	if opts.SystemPromptFunc != nil {
		system = opts.SystemPromptFunc(nil)
	}
	return &Agent{
		opts:       opts,
		dispatcher: dispatcher,
		registry:   registry,
		system:     system,
		logger:     logger,
	}, nil
}

// WithContext returns a new, independent agent whose system prompt is
// resolved against values and whose tool executions see those values. The
// receiver is not mutated.
func (a *Agent) WithContext(values map[string]any) *Agent {
	derived := *a
	derived.values = values
	if a.opts.SystemPromptFunc != nil {
		derived.system = a.opts.SystemPromptFunc(values)
	}
	return &derived
}

// Tools returns the agent's registered tools in name order.
func (a *Agent) Tools() []tools.Tool {
	return a.registry.List()
}

// toolContext builds the execution context handed to one tool call.
func (a *Agent) toolContext(callID string) *tools.ToolContext {
	return &tools.ToolContext{
		AgentName: a.opts.Name,
		CallID:    callID,
		Values:    a.values,
	}
}

// newRequest assembles the dispatch request for the accumulated history.
func (a *Agent) newRequest(history []llm.Message) *llm.Request {
	req := &llm.Request{
		Provider:    a.opts.Provider,
		Model:       a.opts.Model,
		Messages:    history,
		Temperature: a.opts.Temperature,
		TopP:        a.opts.TopP,
		MaxTokens:   a.opts.MaxTokens,
	}
	for _, t := range a.registry.List() {
		req.Tools = append(req.Tools, llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Schema:      t.Schema,
		})
	}
	return req
}
