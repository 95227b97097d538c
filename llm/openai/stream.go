package openai

import (
	"encoding/json"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// chatStream decodes the chat-completions SSE framing into text tokens and
// assembles the terminal canonical response as chunks arrive.
type chatStream struct {
	provider string
	model    string
	dec      *llm.SSEDecoder
	body     io.Closer

	token string
	err   error
	done  bool

	id      string
	content strings.Builder
	finish  llm.FinishReason
	usage   llm.Usage
	calls   []toolCallAccum
	resp    *llm.Response
}

// toolCallAccum rebuilds one tool call from incremental argument deltas.
type toolCallAccum struct {
	id   string
	name string
	args strings.Builder
}

func newChatStream(provider, model string, body io.ReadCloser) *chatStream {
	return &chatStream{
		provider: provider,
		model:    model,
		dec:      llm.NewSSEDecoder(provider, body),
		body:     body,
		finish:   llm.FinishStop,
	}
}

// Next implements llm.Stream.
func (s *chatStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	for {
		payload, err := s.dec.Next()
		if err == io.EOF {
			s.finalize()
			return false
		}
		if err != nil {
			s.err = err
			return false
		}

		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal(payload, &chunk); err != nil {
			s.err = llm.NewStreamDecodeError(s.provider, "decoding stream chunk", err)
			return false
		}
		if token, emit := s.consume(&chunk); emit {
			s.token = token
			return true
		}
	}
}

// consume folds one chunk into the accumulated state and reports whether it
// carried a text token to surface.
func (s *chatStream) consume(chunk *openai.ChatCompletionStreamResponse) (string, bool) {
	if chunk.ID != "" {
		s.id = chunk.ID
	}
	if chunk.Usage != nil {
		s.usage = fromWireUsage(*chunk.Usage)
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}
	choice := chunk.Choices[0]

	if choice.FinishReason != "" {
		s.finish = fromWireFinishReason(choice.FinishReason)
	}
	for _, tc := range choice.Delta.ToolCalls {
		s.accumulateToolCall(tc)
	}
	if choice.Delta.Content != "" {
		s.content.WriteString(choice.Delta.Content)
		return choice.Delta.Content, true
	}
	return "", false
}

func (s *chatStream) accumulateToolCall(tc openai.ToolCall) {
	idx := len(s.calls) - 1
	if tc.Index != nil {
		idx = *tc.Index
	} else if tc.ID != "" {
		idx = len(s.calls)
	}
	for len(s.calls) <= idx {
		s.calls = append(s.calls, toolCallAccum{})
	}
	if idx < 0 {
		return
	}
	acc := &s.calls[idx]
	if tc.ID != "" {
		acc.id = tc.ID
	}
	if tc.Function.Name != "" {
		acc.name = tc.Function.Name
	}
	acc.args.WriteString(tc.Function.Arguments)
}

func (s *chatStream) finalize() {
	s.done = true
	resp := &llm.Response{
		ID:           s.id,
		Provider:     s.provider,
		Model:        s.model,
		Content:      s.content.String(),
		Usage:        s.usage,
		FinishReason: s.finish,
	}
	for i := range s.calls {
		acc := &s.calls[i]
		if acc.id == "" && acc.name == "" {
			continue
		}
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:           acc.id,
			Name:         acc.name,
			RawArguments: acc.args.String(),
		})
	}
	if len(resp.ToolCalls) > 0 && resp.FinishReason == llm.FinishStop {
		resp.FinishReason = llm.FinishToolCalls
	}
	if resp.Usage.TotalTokens == 0 {
		resp.Usage.TotalTokens = resp.Usage.PromptTokens + resp.Usage.CompletionTokens
	}
	s.resp = resp
}

// Token implements llm.Stream.
func (s *chatStream) Token() string { return s.token }

// Err implements llm.Stream.
func (s *chatStream) Err() error { return s.err }

// Response implements llm.Stream.
func (s *chatStream) Response() *llm.Response { return s.resp }

// Close implements llm.Stream.
func (s *chatStream) Close() error {
	s.done = true
	return s.body.Close()
}

var _ llm.Stream = (*chatStream)(nil)
