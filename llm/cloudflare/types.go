package cloudflare

import "encoding/json"

// Wire shapes for the Workers AI REST endpoint. Every response is wrapped in
// the account-API envelope with success/errors alongside the result.

type runRequest struct {
	Messages    []message       `json:"messages"`
	System      string          `json:"system,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	Tools       []toolDef       `json:"tools,omitempty"`
	ResponseFmt *responseFormat `json:"response_format,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type responseFormat struct {
	Type   string          `json:"type"`
	Schema json.RawMessage `json:"json_schema,omitempty"`
}

type runEnvelope struct {
	Result  runResult  `json:"result"`
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors"`
}

type runResult struct {
	Response  string         `json:"response"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
	Usage     *wireUsage     `json:"usage,omitempty"`
}

type wireToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// streamChunk is one SSE data payload. Workers AI streams bare text deltas in
// the response field, with usage attached to the final chunk.
type streamChunk struct {
	Response string     `json:"response"`
	Usage    *wireUsage `json:"usage,omitempty"`
}
