package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"LOVABLE_API_KEY", "CLOUDFLARE_API_TOKEN", "CLOUDFLARE_ACCOUNT_ID",
		"OLLAMA_HOST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.DefaultProvider)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 256, cfg.Cache.MaxSize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, 10, cfg.Agent.MaxIterations)
	assert.Equal(t, time.Minute, cfg.ChatTimeout())
	assert.Empty(t, cfg.Providers)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearProviderEnv(t)

	path := writeConfig(t, `
default_provider: anthropic
chat_timeout: 120
cache:
  enabled: true
  ttl_ms: 60000
providers:
  anthropic:
    api_key: sk-file
    default_model: claude-sonnet
  cloudflare:
    api_key: cf-token
    account_id: acct-1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.DefaultProvider)
	assert.Equal(t, 2*time.Minute, cfg.ChatTimeout())
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Minute, cfg.Cache.TTL())
	// Unset sections keep their defaults through the merge.
	assert.Equal(t, 256, cfg.Cache.MaxSize)
	assert.Equal(t, 10, cfg.Agent.MaxIterations)

	require.Contains(t, cfg.Providers, "anthropic")
	assert.Equal(t, "sk-file", cfg.Providers["anthropic"].APIKey)
	assert.Equal(t, "claude-sonnet", cfg.Providers["anthropic"].DefaultModel)
	assert.Equal(t, "acct-1", cfg.Providers["cloudflare"].AccountID)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "providers: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvironmentSuppliesMissingCredentials(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("CLOUDFLARE_API_TOKEN", "cf-env")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct-env")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.Providers["openai"].APIKey)
	assert.Equal(t, "cf-env", cfg.Providers["cloudflare"].APIKey)
	assert.Equal(t, "acct-env", cfg.Providers["cloudflare"].AccountID)
	assert.Equal(t, "http://gpu-box:11434", cfg.Providers["ollama"].Host)
}

func TestFileCredentialsWinOverEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")

	path := writeConfig(t, `
providers:
  openai:
    api_key: sk-file
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.Providers["openai"].APIKey)
}

func TestDefaultPathHonorsOverride(t *testing.T) {
	t.Setenv("GATEWAY_CONFIG_PATH", "/etc/gateway/config.yaml")
	assert.Equal(t, "/etc/gateway/config.yaml", DefaultPath())
}

func TestBuildProvidersWiresConfiguredEntries(t *testing.T) {
	cfg := Defaults()
	cfg.Providers = map[string]*ProviderConfig{
		"openai":     {APIKey: "sk-1"},
		"anthropic":  {APIKey: "sk-2"},
		"cloudflare": {APIKey: "tok", AccountID: "acct"},
		"openrouter": {APIKey: "sk-3", SiteURL: "https://example.com"},
		"lovable":    {APIKey: "sk-4"},
		"ollama":     {Host: "http://localhost:11434"},
	}

	providers, err := BuildProviders(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, providers, 6)
	for name, p := range providers {
		assert.Equal(t, name, p.Name())
	}
}

func TestBuildProvidersUnknownIDIsOpenAICompatible(t *testing.T) {
	cfg := Defaults()
	cfg.Providers = map[string]*ProviderConfig{
		"my-vllm": {APIKey: "sk-local", BaseURL: "http://localhost:8000/v1"},
	}

	providers, err := BuildProviders(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Contains(t, providers, "my-vllm")
	assert.Equal(t, "my-vllm", providers["my-vllm"].Name())
}

func TestBuildProvidersPropagatesConstructionErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Providers = map[string]*ProviderConfig{
		"openai": {}, // no API key
	}

	_, err := BuildProviders(cfg, zerolog.Nop())
	assert.Error(t, err)
}
