package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

func sampleRequest() *llm.Request {
	temp := 0.5
	return &llm.Request{
		Provider:    "openai",
		Model:       "gpt-4o",
		Temperature: &temp,
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "rules"),
			llm.NewTextMessage(llm.RoleUser, "hi"),
		},
	}
}

func sampleResponse() *llm.Response {
	return &llm.Response{
		ID:      "resp-1",
		Content: "hello",
		Usage:   llm.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint(sampleRequest())
	b := Fingerprint(sampleRequest())
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint(sampleRequest())

	changed := sampleRequest()
	changed.Model = "gpt-4o-mini"
	assert.NotEqual(t, base, Fingerprint(changed))

	changed = sampleRequest()
	changed.Messages[1].Content = "bye"
	assert.NotEqual(t, base, Fingerprint(changed))

	changed = sampleRequest()
	temp := 0.9
	changed.Temperature = &temp
	assert.NotEqual(t, base, Fingerprint(changed))

	changed = sampleRequest()
	changed.Provider = "anthropic"
	assert.NotEqual(t, base, Fingerprint(changed))
}

func TestFingerprintCoversToolWiring(t *testing.T) {
	withTool := func(description string) *llm.Request {
		req := sampleRequest()
		req.Tools = []llm.ToolSpec{{Name: "search", Description: description}}
		return req
	}
	base := Fingerprint(withTool("search the web"))

	// A tool's description goes out on the wire and steers tool selection, so
	// it must separate cache entries.
	assert.NotEqual(t, base, Fingerprint(withTool("search internal docs only")))

	renamed := withTool("search the web")
	renamed.Tools[0].Name = "lookup"
	assert.NotEqual(t, base, Fingerprint(renamed))

	assert.NotEqual(t, base, Fingerprint(sampleRequest()))
}

func TestGetPutRoundTrip(t *testing.T) {
	c, err := New(Config{Enabled: true})
	require.NoError(t, err)

	fp := Fingerprint(sampleRequest())
	_, ok := c.Get(fp)
	assert.False(t, ok)

	c.Put(fp, sampleResponse(), 0)

	hit, ok := c.Get(fp)
	require.True(t, ok)
	assert.True(t, hit.Cached)
	assert.Equal(t, "hello", hit.Content)
	assert.Equal(t, 3, hit.Usage.TotalTokens)
}

func TestGetReturnsCopy(t *testing.T) {
	c, err := New(Config{Enabled: true})
	require.NoError(t, err)

	fp := "fp"
	c.Put(fp, sampleResponse(), 0)

	first, ok := c.Get(fp)
	require.True(t, ok)
	first.Content = "mutated"

	second, ok := c.Get(fp)
	require.True(t, ok)
	assert.Equal(t, "hello", second.Content)
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	c, err := New(Config{Enabled: false})
	require.NoError(t, err)

	c.Put("fp", sampleResponse(), 0)
	_, ok := c.Get("fp")
	assert.False(t, ok)
	assert.False(t, c.Enabled())
}

func TestTTLExpiry(t *testing.T) {
	c, err := New(Config{Enabled: true, TTL: time.Minute})
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("fp", sampleResponse(), 0)
	_, ok := c.Get("fp")
	assert.True(t, ok)

	// Past the TTL the entry is a miss and gets removed.
	now = now.Add(2 * time.Minute)
	_, ok = c.Get("fp")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestPerEntryTTLOverridesDefault(t *testing.T) {
	c, err := New(Config{Enabled: true, TTL: time.Hour})
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("fp", sampleResponse(), time.Second)
	now = now.Add(2 * time.Second)
	_, ok := c.Get("fp")
	assert.False(t, ok)
}

func TestLRUEvictionIndependentOfTTL(t *testing.T) {
	c, err := New(Config{Enabled: true, MaxSize: 2, TTL: time.Hour})
	require.NoError(t, err)

	c.Put("a", sampleResponse(), 0)
	c.Put("b", sampleResponse(), 0)

	// Touch "a" so "b" is the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", sampleResponse(), 0)

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c, err := New(Config{Enabled: true})
	require.NoError(t, err)

	for i := range [5]struct{}{} {
		c.Put(fmt.Sprintf("fp-%d", i), sampleResponse(), 0)
	}
	require.Equal(t, 5, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("fp-0")
	assert.False(t, ok)
}
