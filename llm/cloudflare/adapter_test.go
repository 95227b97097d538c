package cloudflare

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

func TestFormatRequestExtractsSystem(t *testing.T) {
	req := &llm.Request{
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "old rules"),
			llm.NewTextMessage(llm.RoleUser, "hi"),
			llm.NewTextMessage(llm.RoleSystem, "new rules"),
		},
	}

	wire, err := FormatRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "new rules", wire.System)
	require.Len(t, wire.Messages, 1)
	assert.Equal(t, "user", wire.Messages[0].Role)
}

func TestParseResponseMintsToolCallIDs(t *testing.T) {
	result := &runResult{
		Response: "",
		ToolCalls: []wireToolCall{
			{Name: "lookup", Arguments: json.RawMessage(`{"q":"x"}`)},
			{Name: "lookup", Arguments: json.RawMessage(`{"q":"y"}`)},
		},
	}

	resp, err := ParseResponse("@cf/meta/llama-3.1-8b-instruct", result)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 2)
	assert.NotEmpty(t, resp.ToolCalls[0].ID)
	assert.NotEqual(t, resp.ToolCalls[0].ID, resp.ToolCalls[1].ID)
	assert.True(t, strings.HasPrefix(resp.ToolCalls[0].ID, "call_"))
	assert.Equal(t, llm.FinishToolCalls, resp.FinishReason)
}

func TestParseResponseUsageDefaults(t *testing.T) {
	resp, err := ParseResponse("@cf/meta/llama-3.1-8b-instruct", &runResult{Response: "hi"})
	require.NoError(t, err)
	assert.Equal(t, llm.Usage{}, resp.Usage)
	assert.Equal(t, llm.FinishStop, resp.FinishReason)
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	p, err := New(Config{
		APIToken:  "token",
		AccountID: "acct",
		BaseURL:   server.URL,
	}, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func TestChatUnwrapsEnvelope(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acct/ai/run/@cf/meta/llama-3.1-8b-instruct", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"result":{"response":"hello","usage":{"prompt_tokens":4,"completion_tokens":2}},"success":true,"errors":[]}`))
	})

	resp, err := p.Chat(context.Background(), &llm.Request{
		Model:    "llama-3.1-8b",
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 6, resp.Usage.TotalTokens)
	assert.Equal(t, "cloudflare", resp.Provider)
}

func TestChatEnvelopeFailure(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{},"success":false,"errors":[{"code":7009,"message":"model not found"}]}`))
	})

	_, err := p.Chat(context.Background(), &llm.Request{
		Model:    "llama-3.1-8b",
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
	})
	require.Error(t, err)
	assert.True(t, llm.IsBackendError(err))
	assert.Contains(t, err.Error(), "model not found")
}

func TestChatHTTPErrorStatus(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"result":null,"success":false,"errors":[{"code":429,"message":"rate limited"}]}`))
	})

	_, err := p.Chat(context.Background(), &llm.Request{
		Model:    "llama-3.1-8b",
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
	})
	assert.True(t, llm.IsRateLimited(err))
}

func TestStreamTokens(t *testing.T) {
	body := "data: {\"response\":\"hel\"}\n\n" +
		"data: {\"response\":\"lo\",\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":2,\"total_tokens\":5}}\n\n" +
		"data: [DONE]\n\n"
	s := newRunStream("@cf/meta/llama-3.1-8b-instruct", io.NopCloser(strings.NewReader(body)))

	var tokens []string
	for s.Next() {
		tokens = append(tokens, s.Token())
	}
	require.NoError(t, s.Err())
	assert.Equal(t, []string{"hel", "lo"}, tokens)

	resp := s.Response()
	require.NotNil(t, resp)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestModelAliasResolution(t *testing.T) {
	p, err := New(Config{APIToken: "t", AccountID: "a"}, zerolog.Nop())
	require.NoError(t, err)

	model, err := p.ResolveModel("llama-3.1-8b")
	require.NoError(t, err)
	assert.Equal(t, "@cf/meta/llama-3.1-8b-instruct", model)

	model, err = p.ResolveModel("@cf/custom/model")
	require.NoError(t, err)
	assert.Equal(t, "@cf/custom/model", model)
}
