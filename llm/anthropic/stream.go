package anthropic

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// messageStream decodes the typed Messages API event stream into text tokens
// and assembles the terminal canonical response as events arrive.
type messageStream struct {
	model string
	dec   *llm.SSEDecoder
	body  io.Closer

	token string
	err   error
	done  bool

	id      string
	content strings.Builder
	finish  llm.FinishReason
	usage   llm.Usage
	blocks  map[int]*blockAccum
	order   []int
	resp    *llm.Response
}

// blockAccum rebuilds one tool_use block from incremental input_json deltas.
type blockAccum struct {
	id   string
	name string
	args strings.Builder
}

func newMessageStream(model string, body io.ReadCloser) *messageStream {
	return &messageStream{
		model:  model,
		dec:    llm.NewSSEDecoder("anthropic", body),
		body:   body,
		finish: llm.FinishStop,
		blocks: map[int]*blockAccum{},
	}
}

// Next implements llm.Stream.
func (s *messageStream) Next() bool {
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

		var event streamEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			s.err = llm.NewStreamDecodeError("anthropic", "decoding stream event", err)
			return false
		}
		token, emit, err := s.consume(&event)
		if err != nil {
			s.err = err
			return false
		}
		if emit {
			s.token = token
			return true
		}
	}
}

// consume folds one event into the accumulated state and reports whether it
// carried a text token to surface.
func (s *messageStream) consume(event *streamEvent) (string, bool, error) {
	switch event.Type {
	case "message_start":
		if event.Message != nil {
			s.id = event.Message.ID
			s.usage = fromWireUsage(event.Message.Usage)
		}
	case "content_block_start":
		if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
			s.blockAt(event.Index).id = event.ContentBlock.ID
			s.blockAt(event.Index).name = event.ContentBlock.Name
		}
	case "content_block_delta":
		if event.Delta == nil {
			break
		}
		switch event.Delta.Type {
		case "text_delta":
			s.content.WriteString(event.Delta.Text)
			return event.Delta.Text, true, nil
		case "input_json_delta":
			s.blockAt(event.Index).args.WriteString(event.Delta.PartialJSON)
		}
	case "message_delta":
		if event.Delta != nil && event.Delta.StopReason != "" {
			s.finish = fromStopReason(event.Delta.StopReason)
		}
		if event.Usage != nil {
			s.usage.CompletionTokens = event.Usage.OutputTokens
			if event.Usage.InputTokens > 0 {
				s.usage.PromptTokens = event.Usage.InputTokens
			}
		}
	case "message_stop":
		s.finalize()
	case "error":
		msg := "stream error event"
		if event.Error != nil {
			msg = event.Error.Message
		}
		return "", false, llm.NewBackendError("anthropic", 0, msg, nil)
	}
	return "", false, nil
}

func (s *messageStream) blockAt(index int) *blockAccum {
	acc, ok := s.blocks[index]
	if !ok {
		acc = &blockAccum{}
		s.blocks[index] = acc
		s.order = append(s.order, index)
	}
	return acc
}

func (s *messageStream) finalize() {
	if s.done {
		return
	}
	s.done = true
	resp := &llm.Response{
		ID:           s.id,
		Provider:     "anthropic",
		Model:        s.model,
		Content:      s.content.String(),
		Usage:        s.usage,
		FinishReason: s.finish,
	}
	for _, idx := range s.order {
		acc := s.blocks[idx]
		if acc.id == "" && acc.name == "" {
			continue
		}
		args := acc.args.String()
		if args == "" {
			args = "{}"
		}
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:           acc.id,
			Name:         acc.name,
			RawArguments: args,
		})
	}
	if len(resp.ToolCalls) > 0 && resp.FinishReason == llm.FinishStop {
		resp.FinishReason = llm.FinishToolCalls
	}
	resp.Usage.TotalTokens = resp.Usage.PromptTokens + resp.Usage.CompletionTokens
	s.resp = resp
}

// Token implements llm.Stream.
func (s *messageStream) Token() string { return s.token }

// Err implements llm.Stream.
func (s *messageStream) Err() error { return s.err }

// Response implements llm.Stream.
func (s *messageStream) Response() *llm.Response { return s.resp }

// Close implements llm.Stream.
func (s *messageStream) Close() error {
	s.done = true
	return s.body.Close()
}

var _ llm.Stream = (*messageStream)(nil)
