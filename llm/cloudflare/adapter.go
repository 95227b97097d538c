// Package cloudflare implements the Workers AI backend. Requests run through
// the account-scoped REST endpoint and responses arrive wrapped in the
// success/errors envelope.
package cloudflare

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// FormatRequest maps a canonical request onto the Workers AI run body.
// System-role messages move to the top-level system field, last one wins.
func FormatRequest(req *llm.Request) (*runRequest, error) {
	out := &runRequest{
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			out.System = msg.Content
		case llm.RoleUser, llm.RoleAssistant, llm.RoleTool:
			out.Messages = append(out.Messages, message{
				Role:    string(msg.Role),
				Content: msg.Content,
			})
		default:
			return nil, fmt.Errorf("cloudflare: unsupported role %q", msg.Role)
		}
	}

	for _, spec := range req.Tools {
		def := toolDef{Name: spec.Name, Description: spec.Description}
		if spec.Schema != nil {
			def.Parameters = spec.Schema.JSON()
		}
		out.Tools = append(out.Tools, def)
	}
	if req.ResponseSchema != nil {
		out.ResponseFmt = &responseFormat{Type: "json_schema", Schema: req.ResponseSchema}
	}
	return out, nil
}

// ParseResponse maps an unwrapped run result onto the canonical response.
// Workers AI does not assign tool-call ids, so the adapter mints them.
func ParseResponse(model string, result *runResult) (*llm.Response, error) {
	resp := &llm.Response{
		ID:           "cf_" + uuid.NewString(),
		Provider:     "cloudflare",
		Model:        model,
		Content:      result.Response,
		FinishReason: llm.FinishStop,
	}
	if result.Usage != nil {
		resp.Usage = fromWireUsage(*result.Usage)
	}
	for _, tc := range result.ToolCalls {
		args := string(tc.Arguments)
		if args == "" {
			args = "{}"
		}
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:           "call_" + uuid.NewString(),
			Name:         tc.Name,
			RawArguments: args,
		})
	}
	if len(resp.ToolCalls) > 0 {
		resp.FinishReason = llm.FinishToolCalls
	}
	return resp, nil
}

func fromWireUsage(u wireUsage) llm.Usage {
	out := llm.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
	if out.TotalTokens == 0 {
		out.TotalTokens = out.PromptTokens + out.CompletionTokens
	}
	return out
}
