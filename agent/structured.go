package agent

import (
	"context"
	"strings"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
	"github.com/dadabin81/cloud-ai-forge-sub003/schema"
)

// RunStructured executes the loop, then extracts and validates a JSON payload
// from the final answer. A fenced code block is stripped when present,
// otherwise the whole content is treated as JSON. A parse or validation
// failure is a typed structured-output error; no partial value is returned.
func (a *Agent) RunStructured(ctx context.Context, input string, s *schema.Schema) (*RunResult, error) {
	result, err := a.Run(ctx, input)
	if err != nil {
		return nil, err
	}

	payload := ExtractJSON(result.Output)
	if s == nil {
		return nil, llm.NewStructuredOutputError("no schema supplied", nil)
	}
	parsed, err := s.ParseJSON([]byte(payload))
	if err != nil {
		return nil, llm.NewStructuredOutputError("model output failed schema validation", err)
	}
	result.Structured = parsed
	return result, nil
}

// ExtractJSON strips a Markdown code fence from content if one wraps it.
// ```json and bare ``` fences are both recognized; without a fence the
// trimmed content is returned as-is.
func ExtractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	inner := strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(inner, "\n"); idx >= 0 {
		// Drop the language tag line (for example "json").
		inner = inner[idx+1:]
	} else {
		inner = strings.TrimPrefix(inner, "json")
	}
	if idx := strings.LastIndex(inner, "```"); idx >= 0 {
		inner = inner[:idx]
	}
	return strings.TrimSpace(inner)
}
