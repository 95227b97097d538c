package ollama

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// chatStream decodes the newline-delimited JSON chat stream. The final line
// carries done=true with the run metrics.
type chatStream struct {
	model string
	dec   *llm.NDJSONDecoder
	body  io.Closer

	token string
	err   error
	done  bool

	content strings.Builder
	calls   []api.ToolCall
	usage   llm.Usage
	finish  llm.FinishReason
	resp    *llm.Response
}

func newChatStream(model string, body io.ReadCloser) *chatStream {
	return &chatStream{
		model:  model,
		dec:    llm.NewNDJSONDecoder("ollama", body),
		body:   body,
		finish: llm.FinishStop,
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

		var chunk api.ChatResponse
		if err := json.Unmarshal(payload, &chunk); err != nil {
			s.err = llm.NewStreamDecodeError("ollama", "decoding stream chunk", err)
			return false
		}
		s.calls = append(s.calls, chunk.Message.ToolCalls...)
		if chunk.Done {
			s.usage = llm.Usage{
				PromptTokens:     chunk.Metrics.PromptEvalCount,
				CompletionTokens: chunk.Metrics.EvalCount,
				TotalTokens:      chunk.Metrics.PromptEvalCount + chunk.Metrics.EvalCount,
			}
			s.finish = fromDoneReason(chunk.DoneReason)
		}
		if chunk.Message.Content != "" {
			s.content.WriteString(chunk.Message.Content)
			s.token = chunk.Message.Content
			return true
		}
		if chunk.Done {
			s.finalize()
			return false
		}
	}
}

func (s *chatStream) finalize() {
	if s.done {
		return
	}
	s.done = true
	resp := &llm.Response{
		ID:           "ollama_" + uuid.NewString(),
		Provider:     "ollama",
		Model:        s.model,
		Content:      s.content.String(),
		Usage:        s.usage,
		FinishReason: s.finish,
	}
	for _, tc := range s.calls {
		raw, err := json.Marshal(tc.Function.Arguments)
		if err != nil {
			continue
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
