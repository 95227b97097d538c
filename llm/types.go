package llm

import (
	"encoding/json"

	"github.com/dadabin81/cloud-ai-forge-sub003/schema"
)

// Role identifies the author of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single turn in a conversation. Order within a conversation is
// semantically significant and must be preserved verbatim by every adapter.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCalls carries the invocations an assistant turn requested, so a
	// follow-up request can echo them back to the backend.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID correlates a tool-role message with the call that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Name is the tool name on tool-role messages.
	Name string `json:"name,omitempty"`
}

// NewTextMessage creates a message with plain text content.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: text}
}

// NewToolResultMessage creates a tool-role message correlated to callID.
func NewToolResultMessage(callID, toolName, result string) Message {
	return Message{
		Role:       RoleTool,
		Content:    result,
		ToolCallID: callID,
		Name:       toolName,
	}
}

// ToolCall is a backend-requested tool invocation. RawArguments is kept in the
// backend's native encoding (JSON text); parsing and validation happen
// downstream in the agent loop.
type ToolCall struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RawArguments string `json:"arguments"`
}

// ToolSpec describes a tool made available to the model.
type ToolSpec struct {
	Name        string
	Description string
	Schema      *schema.Schema
}

// Request is one canonical chat request. It is assembled per call and treated
// as immutable once issued.
type Request struct {
	Provider    string
	Model       string
	Messages    []Message
	Temperature *float64
	TopP        *float64
	MaxTokens   int
	Tools       []ToolSpec
	// ToolChoice is "", "auto", "none", "required", or a tool name.
	ToolChoice string
	// ResponseSchema, when set, asks the backend for JSON output matching the
	// schema. Not all backends honor it; validation happens in the agent.
	ResponseSchema json.RawMessage
}

// Clone returns a copy sharing no mutable slice headers with the original.
func (r *Request) Clone() *Request {
	cp := *r
	cp.Messages = append([]Message(nil), r.Messages...)
	cp.Tools = append([]ToolSpec(nil), r.Tools...)
	return &cp
}

// Usage is token accounting for a single model call. Absent backend fields
// default to zero.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the componentwise sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// FinishReason is the enumerated cause for a model turn ending.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishContentFilter FinishReason = "content_filter"
	FinishError         FinishReason = "error"
)

// Response is the canonical result of one chat request. It is returned by
// value semantics: the dispatcher hands it to the caller and retains no shared
// mutable state.
type Response struct {
	ID           string       `json:"id"`
	Provider     string       `json:"provider"`
	Model        string       `json:"model"`
	Content      string       `json:"content"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	Usage        Usage        `json:"usage"`
	FinishReason FinishReason `json:"finish_reason"`
	LatencyMs    int64        `json:"latency_ms"`
	Cached       bool         `json:"cached"`
}

// Clone returns a deep enough copy for safe cache sharing.
func (r *Response) Clone() *Response {
	cp := *r
	cp.ToolCalls = append([]ToolCall(nil), r.ToolCalls...)
	return &cp
}
