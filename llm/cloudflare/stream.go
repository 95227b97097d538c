package cloudflare

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// runStream decodes the Workers AI SSE framing. Chunks carry bare text deltas
// with usage attached near the end of the stream.
type runStream struct {
	model string
	dec   *llm.SSEDecoder
	body  io.Closer

	token string
	err   error
	done  bool

	content strings.Builder
	usage   llm.Usage
	resp    *llm.Response
}

func newRunStream(model string, body io.ReadCloser) *runStream {
	return &runStream{
		model: model,
		dec:   llm.NewSSEDecoder("cloudflare", body),
		body:  body,
	}
}

// Next implements llm.Stream.
func (s *runStream) Next() bool {
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

		var chunk streamChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			s.err = llm.NewStreamDecodeError("cloudflare", "decoding stream chunk", err)
			return false
		}
		if chunk.Usage != nil {
			s.usage = fromWireUsage(*chunk.Usage)
		}
		if chunk.Response != "" {
			s.content.WriteString(chunk.Response)
			s.token = chunk.Response
			return true
		}
	}
}

func (s *runStream) finalize() {
	s.done = true
	s.resp = &llm.Response{
		ID:           "cf_" + uuid.NewString(),
		Provider:     "cloudflare",
		Model:        s.model,
		Content:      s.content.String(),
		Usage:        s.usage,
		FinishReason: llm.FinishStop,
	}
}

// Token implements llm.Stream.
func (s *runStream) Token() string { return s.token }

// Err implements llm.Stream.
func (s *runStream) Err() error { return s.err }

// Response implements llm.Stream.
func (s *runStream) Response() *llm.Response { return s.resp }

// Close implements llm.Stream.
func (s *runStream) Close() error {
	s.done = true
	return s.body.Close()
}

var _ llm.Stream = (*runStream)(nil)
