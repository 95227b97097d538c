package llm

import (
	"bytes"
	"encoding/json"
	"io"
)

// maxDecodeRetries bounds how many additional reads a buffered, unparsable
// event payload may survive before the stream fails. Without the bound a
// persistently malformed line would buffer forever.
const maxDecodeRetries = 8

// readChunkSize is the transport read granularity. Network chunks can split a
// JSON object across reads, so decoded lines are retained until complete.
const readChunkSize = 4 * 1024

// SSEDecoder decodes `data: <json>` event framing terminated by a `[DONE]`
// sentinel. Partial lines are retained and retried once more bytes arrive;
// they are never dropped and never abort the stream on their own.
type SSEDecoder struct {
	provider string
	r        io.Reader
	buf      []byte
	pending  []byte
	tries    int
	eof      bool
}

// NewSSEDecoder creates a decoder over the response body. The provider name
// is used in decode errors.
func NewSSEDecoder(provider string, r io.Reader) *SSEDecoder {
	return &SSEDecoder{provider: provider, r: r}
}

// Next returns the next complete JSON event payload. It returns io.EOF after
// the [DONE] sentinel or when the transport closes.
func (d *SSEDecoder) Next() ([]byte, error) {
	for {
		line, ok := d.nextLine()
		if !ok {
			if d.eof {
				return d.flushTail()
			}
			if err := d.fill(); err != nil {
				if err == io.EOF {
					d.eof = true
					continue
				}
				return nil, err
			}
			continue
		}

		payload, ok := dataPayload(line)
		if !ok {
			continue
		}
		if bytes.Equal(payload, []byte("[DONE]")) {
			// A fragment still buffered at the sentinel can never complete;
			// surface it like an incomplete tail at EOF instead of dropping it.
			if len(d.pending) > 0 {
				pending := d.pending
				d.pending = nil
				if json.Valid(pending) {
					return pending, nil
				}
				return nil, NewStreamDecodeError(d.provider, "stream ended with incomplete event payload", nil)
			}
			return nil, io.EOF
		}
		if out, err := d.assemble(payload); err != nil || out != nil {
			return out, err
		}
	}
}

// assemble joins the payload with any pending unparsable fragment and checks
// it for completeness. A still-invalid payload is re-buffered, bounded by
// maxDecodeRetries.
func (d *SSEDecoder) assemble(payload []byte) ([]byte, error) {
	candidate := payload
	if len(d.pending) > 0 {
		candidate = append(append([]byte(nil), d.pending...), payload...)
	}
	if json.Valid(candidate) {
		d.pending = nil
		d.tries = 0
		return candidate, nil
	}
	d.tries++
	if d.tries > maxDecodeRetries {
		return nil, NewStreamDecodeError(d.provider, "event payload never became valid JSON", nil)
	}
	d.pending = candidate
	return nil, nil
}

// flushTail handles a final payload that arrived without a trailing newline.
func (d *SSEDecoder) flushTail() ([]byte, error) {
	line := bytes.TrimRight(d.buf, "\r\n")
	d.buf = nil
	payload, ok := dataPayload(line)
	if !ok {
		if len(d.pending) > 0 {
			pending := d.pending
			d.pending = nil
			if json.Valid(pending) {
				return pending, nil
			}
			return nil, NewStreamDecodeError(d.provider, "stream ended with incomplete event payload", nil)
		}
		return nil, io.EOF
	}
	if bytes.Equal(payload, []byte("[DONE]")) {
		return nil, io.EOF
	}
	candidate := payload
	if len(d.pending) > 0 {
		candidate = append(append([]byte(nil), d.pending...), payload...)
		d.pending = nil
	}
	if json.Valid(candidate) {
		return candidate, nil
	}
	return nil, NewStreamDecodeError(d.provider, "stream ended with incomplete event payload", nil)
}

// nextLine extracts one complete line from the buffer. The trailing partial
// line stays buffered until the next read completes it.
func (d *SSEDecoder) nextLine() ([]byte, bool) {
	idx := bytes.IndexByte(d.buf, '\n')
	if idx < 0 {
		return nil, false
	}
	line := bytes.TrimRight(d.buf[:idx], "\r")
	d.buf = d.buf[idx+1:]
	return line, true
}

func (d *SSEDecoder) fill() error {
	chunk := make([]byte, readChunkSize)
	n, err := d.r.Read(chunk)
	if n > 0 {
		d.buf = append(d.buf, chunk[:n]...)
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	return err
}

// dataPayload strips the `data:` prefix. Comment lines, empty keep-alives and
// other SSE fields are skipped.
func dataPayload(line []byte) ([]byte, bool) {
	if len(line) == 0 || line[0] == ':' {
		return nil, false
	}
	if !bytes.HasPrefix(line, []byte("data:")) {
		return nil, false
	}
	payload := line[len("data:"):]
	if len(payload) > 0 && payload[0] == ' ' {
		payload = payload[1:]
	}
	return payload, true
}

// NDJSONDecoder decodes newline-delimited JSON framing (no `data:` prefix, no
// sentinel) with the same partial-line retention as SSEDecoder. Ollama
// streams this way.
type NDJSONDecoder struct {
	inner SSEDecoder
}

// NewNDJSONDecoder creates a decoder over the response body.
func NewNDJSONDecoder(provider string, r io.Reader) *NDJSONDecoder {
	return &NDJSONDecoder{inner: SSEDecoder{provider: provider, r: r}}
}

// Next returns the next complete JSON object, or io.EOF at end of stream.
func (d *NDJSONDecoder) Next() ([]byte, error) {
	for {
		line, ok := d.inner.nextLine()
		if !ok {
			if d.inner.eof {
				line = bytes.TrimRight(d.inner.buf, "\r\n")
				d.inner.buf = nil
				if len(line) == 0 && len(d.inner.pending) == 0 {
					return nil, io.EOF
				}
				candidate := append(append([]byte(nil), d.inner.pending...), line...)
				d.inner.pending = nil
				if json.Valid(candidate) {
					return candidate, nil
				}
				return nil, NewStreamDecodeError(d.inner.provider, "stream ended with incomplete object", nil)
			}
			if err := d.inner.fill(); err != nil {
				if err == io.EOF {
					d.inner.eof = true
					continue
				}
				return nil, err
			}
			continue
		}
		if len(line) == 0 {
			continue
		}
		if out, err := d.inner.assemble(line); err != nil || out != nil {
			return out, err
		}
	}
}
