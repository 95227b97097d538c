// Package openai implements the OpenAI-compatible backend family. The wire
// schema is the go-openai request/response types; transport, event framing,
// and error mapping are owned here so compatible gateways (OpenRouter,
// Lovable) can reuse the codec with their own endpoints and model tables.
package openai

import (
	"fmt"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// FormatRequest maps a canonical request onto the chat-completions wire body.
// System messages stay inline; this family accepts them in the message array.
func FormatRequest(req *llm.Request, model string) (openai.ChatCompletionRequest, error) {
	msgs, err := toWireMessages(req.Messages)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	out := openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		out.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		out.TopP = float32(*req.TopP)
	}
	if len(req.Tools) > 0 {
		out.Tools = toWireTools(req.Tools)
		out.ToolChoice = toWireToolChoice(req.ToolChoice)
	}
	if len(req.ResponseSchema) > 0 {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "response",
				Schema: req.ResponseSchema,
			},
		}
	}
	return out, nil
}

func toWireMessages(msgs []llm.Message) ([]openai.ChatCompletionMessage, error) {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		wire := openai.ChatCompletionMessage{Content: msg.Content}
		switch msg.Role {
		case llm.RoleSystem:
			wire.Role = openai.ChatMessageRoleSystem
		case llm.RoleUser:
			wire.Role = openai.ChatMessageRoleUser
		case llm.RoleAssistant:
			wire.Role = openai.ChatMessageRoleAssistant
			wire.ToolCalls = lo.Map(msg.ToolCalls, func(tc llm.ToolCall, _ int) openai.ToolCall {
				return openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.RawArguments,
					},
				}
			})
		case llm.RoleTool:
			wire.Role = openai.ChatMessageRoleTool
			wire.ToolCallID = msg.ToolCallID
			wire.Name = msg.Name
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
		result = append(result, wire)
	}
	return result, nil
}

func toWireTools(specs []llm.ToolSpec) []openai.Tool {
	return lo.Map(specs, func(spec llm.ToolSpec, _ int) openai.Tool {
		return openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Schema,
			},
		}
	})
}

func toWireToolChoice(choice string) any {
	switch choice {
	case "", "auto":
		return "auto"
	case "none", "required":
		return choice
	default:
		// A specific tool name forces that tool.
		return openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: choice},
		}
	}
}

// ParseResponse maps a chat-completions response body back onto the
// canonical response. Absent usage fields stay zero.
func ParseResponse(provider string, resp *openai.ChatCompletionResponse) (*llm.Response, error) {
	if len(resp.Choices) == 0 {
		return nil, llm.NewBackendError(provider, 0, "response contained no choices", nil)
	}
	choice := resp.Choices[0]

	out := &llm.Response{
		ID:           resp.ID,
		Provider:     provider,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		Usage:        fromWireUsage(resp.Usage),
		FinishReason: fromWireFinishReason(choice.FinishReason),
	}
	out.ToolCalls = lo.Map(choice.Message.ToolCalls, func(tc openai.ToolCall, _ int) llm.ToolCall {
		return llm.ToolCall{
			ID:           tc.ID,
			Name:         tc.Function.Name,
			RawArguments: tc.Function.Arguments,
		}
	})
	if len(out.ToolCalls) > 0 && out.FinishReason == llm.FinishStop {
		out.FinishReason = llm.FinishToolCalls
	}
	return out, nil
}

func fromWireUsage(u openai.Usage) llm.Usage {
	usage := llm.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}

func fromWireFinishReason(r openai.FinishReason) llm.FinishReason {
	switch r {
	case openai.FinishReasonLength:
		return llm.FinishLength
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return llm.FinishToolCalls
	case openai.FinishReasonContentFilter:
		return llm.FinishContentFilter
	default:
		return llm.FinishStop
	}
}
