// Package tools holds the schema-validated executable functions an agent can
// invoke, and the registry that resolves them by name.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dadabin81/cloud-ai-forge-sub003/schema"
)

// ToolContext carries per-invocation collaborators into a tool execution.
// Fields are fixed rather than a key-value bag; tools that need more state
// should close over it at construction time.
type ToolContext struct {
	// AgentName identifies the agent issuing the call.
	AgentName string
	// CallID is the backend-assigned id of the originating tool call.
	CallID string
	// Values holds caller-supplied context for heterogeneous tools. A lookup
	// by absent key is a programming error, not a recoverable condition.
	Values map[string]any
}

// ExecuteFunc runs a tool against validated, coerced arguments.
type ExecuteFunc func(ctx context.Context, args map[string]any, tc *ToolContext) (any, error)

// Tool is one named executable function. Immutable after creation.
type Tool struct {
	Name        string
	Description string
	Schema      *schema.Schema
	Execute     ExecuteFunc
}

// Spec returns the tool's wire-facing description.
func (t *Tool) Spec() (string, string, *schema.Schema) {
	return t.Name, t.Description, t.Schema
}

// ParseArguments validates raw argument JSON against the tool's schema and
// returns the coerced argument map.
func (t *Tool) ParseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		raw = "{}"
	}
	if t.Schema == nil {
		var args map[string]any
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("tool %s: invalid arguments: %w", t.Name, err)
		}
		return args, nil
	}
	parsed, err := t.Schema.ParseJSON([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", t.Name, err)
	}
	args, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tool %s: arguments must be an object", t.Name)
	}
	return args, nil
}

// New creates a tool with an explicit schema.
func New(name, description string, s *schema.Schema, execute ExecuteFunc) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Schema:      s,
		Execute:     execute,
	}
}

// NewTyped creates a tool whose schema is derived from the In struct's fields
// and whose handler receives decoded arguments instead of a raw map.
func NewTyped[In any](name, description string, fn func(ctx context.Context, in In, tc *ToolContext) (any, error)) (Tool, error) {
	s, err := schema.FromStruct[In]()
	if err != nil {
		return Tool{}, fmt.Errorf("tool %s: deriving schema: %w", name, err)
	}
	execute := func(ctx context.Context, args map[string]any, tc *ToolContext) (any, error) {
		encoded, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("tool %s: encoding arguments: %w", name, err)
		}
		var in In
		if err := json.Unmarshal(encoded, &in); err != nil {
			return nil, fmt.Errorf("tool %s: decoding arguments: %w", name, err)
		}
		return fn(ctx, in, tc)
	}
	return New(name, description, s, execute), nil
}

// MustNewTyped is NewTyped for tools built from static struct types, where a
// schema derivation failure is a programming error.
func MustNewTyped[In any](name, description string, fn func(ctx context.Context, in In, tc *ToolContext) (any, error)) Tool {
	t, err := NewTyped(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}
