// Package config loads gateway configuration from YAML, merging file values
// over built-in defaults and falling back to environment variables for
// credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ProviderConfig is one provider entry. Unused fields are ignored by
// providers that do not need them (AccountID is Cloudflare-only, Host is
// Ollama-only, SiteURL/AppName are OpenRouter attribution).
type ProviderConfig struct {
	APIKey       string            `yaml:"api_key,omitempty"`
	BaseURL      string            `yaml:"base_url,omitempty"`
	DefaultModel string            `yaml:"default_model,omitempty"`
	ExtraHeaders map[string]string `yaml:"extra_headers,omitempty"`
	AccountID    string            `yaml:"account_id,omitempty"`
	Host         string            `yaml:"host,omitempty"`
	SiteURL      string            `yaml:"site_url,omitempty"`
	AppName      string            `yaml:"app_name,omitempty"`
}

// CacheConfig controls the request cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	MaxSize int  `yaml:"max_size,omitempty"`
	TTLMs   int  `yaml:"ttl_ms,omitempty"`
}

// TTL converts the configured milliseconds to a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMs) * time.Millisecond
}

// AgentConfig holds agent-loop defaults.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations,omitempty"`
	// TimeoutSeconds bounds each dispatch issued by an agent run.
	TimeoutSeconds int `yaml:"timeout,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	DefaultProvider string                     `yaml:"default_provider,omitempty"`
	Providers       map[string]*ProviderConfig `yaml:"providers,omitempty"`
	Cache           CacheConfig                `yaml:"cache,omitempty"`
	Agent           AgentConfig                `yaml:"agent,omitempty"`
	// ChatTimeoutSeconds bounds each gateway dispatch. Zero disables the
	// gateway-imposed bound.
	ChatTimeoutSeconds int `yaml:"chat_timeout,omitempty"`
}

// ChatTimeout converts the configured seconds to a duration.
func (c *Config) ChatTimeout() time.Duration {
	return time.Duration(c.ChatTimeoutSeconds) * time.Second
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		DefaultProvider: "openai",
		Providers:       map[string]*ProviderConfig{},
		Cache: CacheConfig{
			Enabled: false,
			MaxSize: 256,
			TTLMs:   300_000,
		},
		Agent: AgentConfig{
			MaxIterations: 10,
		},
		ChatTimeoutSeconds: 60,
	}
}

// DefaultPath returns the config file path, honoring GATEWAY_CONFIG_PATH.
func DefaultPath() string {
	if envPath := os.Getenv("GATEWAY_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./gateway.yaml"
	}
	return filepath.Join(homeDir, ".config", "llm-gateway", "config.yaml")
}

// Load reads path, merges it over the defaults, and applies environment
// fallbacks for credentials. A missing file yields defaults plus env.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	expanded := expandPath(path)
	raw, err := os.ReadFile(expanded) //#nosec 304 -- intentional file read for config
	if err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", expanded, err)
		}
		if err := mergo.Merge(cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config %q: %w", expanded, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %q: %w", expanded, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// envKeys maps provider ids to the environment variable holding their
// credential when the file omits it.
var envKeys = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"lovable":    "LOVABLE_API_KEY",
	"cloudflare": "CLOUDFLARE_API_TOKEN",
}

func (c *Config) applyEnv() {
	for name, envKey := range envKeys {
		key := os.Getenv(envKey)
		if key == "" {
			continue
		}
		entry := c.Providers[name]
		if entry == nil {
			entry = &ProviderConfig{}
			c.Providers[name] = entry
		}
		if entry.APIKey == "" {
			entry.APIKey = key
		}
	}
	if accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID"); accountID != "" {
		if entry := c.Providers["cloudflare"]; entry != nil && entry.AccountID == "" {
			entry.AccountID = accountID
		}
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		entry := c.Providers["ollama"]
		if entry == nil {
			entry = &ProviderConfig{}
			c.Providers["ollama"] = entry
		}
		if entry.Host == "" {
			entry.Host = host
		}
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
