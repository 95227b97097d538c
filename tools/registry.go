package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Registry maps tool names to tools. Lookup is exact-match, case-sensitive.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Tool
	logger zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		byName: make(map[string]Tool),
		logger: logger.With().Str("component", "tool_registry").Logger(),
	}
}

// Register adds a tool. Registering an empty name or a duplicate is an error
// so agents never silently shadow one tool with another.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Execute == nil {
		return fmt.Errorf("tool %s: execute function is required", t.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[t.Name]; exists {
		return fmt.Errorf("tool %s: already registered", t.Name)
	}
	r.byName[t.Name] = t
	r.logger.Debug().Str("tool", t.Name).Msg("Registered tool")
	return nil
}

// Lookup resolves a tool by exact name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// List returns every registered tool in name order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.byName))
	for _, t := range r.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
