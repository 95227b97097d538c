// Package anthropic implements the Anthropic Messages API backend family.
// Unlike the OpenAI-compatible family, the system prompt travels as a
// top-level field and tool results are user-role content blocks.
package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

const defaultMaxTokens = 4096

// FormatRequest maps a canonical request onto the Messages API wire body.
// System-role messages are extracted from the array into the top-level
// system field; when several are present the last one wins.
func FormatRequest(req *llm.Request, model string) (*messagesRequest, error) {
	out := &messagesRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = defaultMaxTokens
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			// Last system message wins; never emitted twice.
			out.System = msg.Content
		case llm.RoleUser:
			out.Messages = append(out.Messages, message{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: msg.Content}},
			})
		case llm.RoleAssistant:
			wire := message{Role: "assistant"}
			if msg.Content != "" {
				wire.Content = append(wire.Content, contentBlock{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				wire.Content = append(wire.Content, contentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: rawArgs(tc.RawArguments),
				})
			}
			out.Messages = append(out.Messages, wire)
		case llm.RoleTool:
			out.Messages = append(out.Messages, message{
				Role: "user",
				Content: []contentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content,
				}},
			})
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	for _, spec := range req.Tools {
		out.Tools = append(out.Tools, toolDef{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.Schema.JSON(),
		})
	}
	if len(req.Tools) > 0 {
		out.ToolChoice = formatToolChoice(req.ToolChoice)
	}
	return out, nil
}

func formatToolChoice(choice string) any {
	switch choice {
	case "", "auto":
		return toolChoice{Type: "auto"}
	case "none":
		return toolChoice{Type: "none"}
	case "required":
		return toolChoice{Type: "any"}
	default:
		return toolChoice{Type: "tool", Name: choice}
	}
}

func rawArgs(raw string) json.RawMessage {
	if raw == "" || !json.Valid([]byte(raw)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}

// ParseResponse maps a Messages API response body back onto the canonical
// response. Tool-use blocks keep their backend-assigned ids and the raw
// argument payload unparsed.
func ParseResponse(provider string, wire *messagesResponse) (*llm.Response, error) {
	out := &llm.Response{
		ID:           wire.ID,
		Provider:     provider,
		Model:        wire.Model,
		FinishReason: fromStopReason(wire.StopReason),
		Usage:        fromWireUsage(wire.Usage),
	}
	for _, block := range wire.Content {
		switch block.Type {
		case "text":
			out.Content += block.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:           block.ID,
				Name:         block.Name,
				RawArguments: string(block.Input),
			})
		}
	}
	if len(out.ToolCalls) > 0 && out.FinishReason == llm.FinishStop {
		out.FinishReason = llm.FinishToolCalls
	}
	return out, nil
}

func fromStopReason(reason string) llm.FinishReason {
	switch reason {
	case "max_tokens":
		return llm.FinishLength
	case "tool_use":
		return llm.FinishToolCalls
	case "refusal":
		return llm.FinishContentFilter
	default:
		return llm.FinishStop
	}
}

func fromWireUsage(u wireUsage) llm.Usage {
	return llm.Usage{
		PromptTokens:     u.InputTokens,
		CompletionTokens: u.OutputTokens,
		TotalTokens:      u.InputTokens + u.OutputTokens,
	}
}
