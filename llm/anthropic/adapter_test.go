package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

func TestFormatRequestExtractsSystem(t *testing.T) {
	req := &llm.Request{
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "first rules"),
			llm.NewTextMessage(llm.RoleUser, "hi"),
			llm.NewTextMessage(llm.RoleSystem, "second rules"),
		},
	}

	wire, err := FormatRequest(req, "claude-sonnet-4")
	require.NoError(t, err)

	// Last system message wins and none remain in the array.
	assert.Equal(t, "second rules", wire.System)
	require.Len(t, wire.Messages, 1)
	assert.Equal(t, "user", wire.Messages[0].Role)
}

func TestFormatRequestDefaultsMaxTokens(t *testing.T) {
	wire, err := FormatRequest(&llm.Request{
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
	}, "claude-sonnet-4")
	require.NoError(t, err)
	assert.Equal(t, defaultMaxTokens, wire.MaxTokens)

	wire, err = FormatRequest(&llm.Request{
		MaxTokens: 50,
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
	}, "claude-sonnet-4")
	require.NoError(t, err)
	assert.Equal(t, 50, wire.MaxTokens)
}

func TestFormatRequestToolCallsAndResults(t *testing.T) {
	req := &llm.Request{
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleUser, "weather?"),
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "toolu_1", Name: "weather", RawArguments: `{"city":"Paris"}`},
				},
			},
			llm.NewToolResultMessage("toolu_1", "weather", "sunny"),
		},
	}

	wire, err := FormatRequest(req, "claude-sonnet-4")
	require.NoError(t, err)
	require.Len(t, wire.Messages, 3)

	assistant := wire.Messages[1]
	require.Len(t, assistant.Content, 1)
	assert.Equal(t, "tool_use", assistant.Content[0].Type)
	assert.Equal(t, "toolu_1", assistant.Content[0].ID)
	assert.JSONEq(t, `{"city":"Paris"}`, string(assistant.Content[0].Input))

	// Tool results travel as user-role tool_result blocks.
	result := wire.Messages[2]
	assert.Equal(t, "user", result.Role)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "tool_result", result.Content[0].Type)
	assert.Equal(t, "toolu_1", result.Content[0].ToolUseID)
}

func TestParseResponseTextAndToolUse(t *testing.T) {
	wire := &messagesResponse{
		ID:    "msg_1",
		Model: "claude-sonnet-4",
		Content: []contentBlock{
			{Type: "text", Text: "Let me check."},
			{Type: "tool_use", ID: "toolu_2", Name: "weather", Input: json.RawMessage(`{"city":"Oslo"}`)},
		},
		StopReason: "tool_use",
		Usage:      wireUsage{InputTokens: 11, OutputTokens: 7},
	}

	resp, err := ParseResponse("anthropic", wire)
	require.NoError(t, err)
	assert.Equal(t, "Let me check.", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_2", resp.ToolCalls[0].ID)
	assert.Equal(t, `{"city":"Oslo"}`, resp.ToolCalls[0].RawArguments)
	assert.Equal(t, llm.FinishToolCalls, resp.FinishReason)
	assert.Equal(t, llm.Usage{PromptTokens: 11, CompletionTokens: 7, TotalTokens: 18}, resp.Usage)
}

func TestStopReasonMapping(t *testing.T) {
	tests := []struct {
		reason string
		want   llm.FinishReason
	}{
		{"end_turn", llm.FinishStop},
		{"max_tokens", llm.FinishLength},
		{"tool_use", llm.FinishToolCalls},
		{"refusal", llm.FinishContentFilter},
		{"", llm.FinishStop},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fromStopReason(tt.reason), tt.reason)
	}
}

func TestRoundTripRoleAndContentFidelity(t *testing.T) {
	req := &llm.Request{
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "rules"),
			llm.NewTextMessage(llm.RoleUser, "question"),
		},
	}
	wire, err := FormatRequest(req, "claude-sonnet-4")
	require.NoError(t, err)

	synthetic := &messagesResponse{
		ID:         "msg_rt",
		Content:    []contentBlock{{Type: "text", Text: wire.Messages[0].Content[0].Text}},
		StopReason: "end_turn",
	}
	resp, err := ParseResponse("anthropic", synthetic)
	require.NoError(t, err)
	assert.Equal(t, "question", resp.Content)
}
