// Package ollama implements the local Ollama backend. The api package's
// request and response types are used as wire DTOs over this module's own
// transport so error mapping and stream decoding stay uniform across
// providers.
package ollama

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
	"github.com/dadabin81/cloud-ai-forge-sub003/schema"
)

// FormatRequest maps a canonical request onto the /api/chat body. System
// messages stay inline; Ollama accepts them as ordinary chat turns.
func FormatRequest(req *llm.Request, model string, stream bool) (*api.ChatRequest, error) {
	out := &api.ChatRequest{
		Model:  model,
		Stream: &stream,
	}

	for _, msg := range req.Messages {
		wire := api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		for _, tc := range msg.ToolCalls {
			call, err := toWireToolCall(tc)
			if err != nil {
				return nil, err
			}
			wire.ToolCalls = append(wire.ToolCalls, call)
		}
		out.Messages = append(out.Messages, wire)
	}

	for _, spec := range req.Tools {
		out.Tools = append(out.Tools, toWireTool(spec))
	}

	opts := map[string]any{}
	if req.Temperature != nil {
		opts["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		opts["top_p"] = *req.TopP
	}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if len(opts) > 0 {
		out.Options = opts
	}
	if req.ResponseSchema != nil {
		out.Format = req.ResponseSchema
	}
	return out, nil
}

// toWireToolCall re-encodes a prior assistant tool call. Ollama carries
// arguments as a decoded map rather than raw JSON text.
func toWireToolCall(tc llm.ToolCall) (api.ToolCall, error) {
	args := api.ToolCallFunctionArguments{}
	if tc.RawArguments != "" {
		if err := json.Unmarshal([]byte(tc.RawArguments), &args); err != nil {
			return api.ToolCall{}, fmt.Errorf("ollama: tool call %s arguments: %w", tc.Name, err)
		}
	}
	return api.ToolCall{
		Function: api.ToolCallFunction{
			Name:      tc.Name,
			Arguments: args,
		},
	}, nil
}

func toWireTool(spec llm.ToolSpec) api.Tool {
	fn := api.ToolFunction{
		Name:        spec.Name,
		Description: spec.Description,
	}
	if spec.Schema != nil {
		fn.Parameters = toWireParameters(spec.Schema)
	}
	return api.Tool{Type: "function", Function: fn}
}

func toWireParameters(s *schema.Schema) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{
		Type:       string(s.Type),
		Required:   s.Required,
		Properties: map[string]api.ToolProperty{},
	}
	for name, prop := range s.Properties {
		wire := api.ToolProperty{
			Type:        api.PropertyType{string(prop.Type)},
			Description: prop.Description,
		}
		for _, v := range prop.Enum {
			wire.Enum = append(wire.Enum, v)
		}
		params.Properties[name] = wire
	}
	return params
}

// ParseResponse maps a terminal chat response onto the canonical form.
// Ollama does not assign tool-call ids, so the adapter mints them.
func ParseResponse(model string, wire *api.ChatResponse) (*llm.Response, error) {
	resp := &llm.Response{
		ID:       "ollama_" + uuid.NewString(),
		Provider: "ollama",
		Model:    model,
		Content:  wire.Message.Content,
		Usage: llm.Usage{
			PromptTokens:     wire.Metrics.PromptEvalCount,
			CompletionTokens: wire.Metrics.EvalCount,
			TotalTokens:      wire.Metrics.PromptEvalCount + wire.Metrics.EvalCount,
		},
		FinishReason: fromDoneReason(wire.DoneReason),
	}
	for _, tc := range wire.Message.ToolCalls {
		raw, err := json.Marshal(tc.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("ollama: encoding tool call arguments: %w", err)
		}
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:           "call_" + uuid.NewString(),
			Name:         tc.Function.Name,
			RawArguments: string(raw),
		})
	}
	if len(resp.ToolCalls) > 0 && resp.FinishReason == llm.FinishStop {
		resp.FinishReason = llm.FinishToolCalls
	}
	return resp, nil
}

func fromDoneReason(reason string) llm.FinishReason {
	switch reason {
	case "", "stop":
		return llm.FinishStop
	case "length":
		return llm.FinishLength
	default:
		return llm.FinishStop
	}
}
