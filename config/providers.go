package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
	llmanthropic "github.com/dadabin81/cloud-ai-forge-sub003/llm/anthropic"
	llmcloudflare "github.com/dadabin81/cloud-ai-forge-sub003/llm/cloudflare"
	llmlovable "github.com/dadabin81/cloud-ai-forge-sub003/llm/lovable"
	llmollama "github.com/dadabin81/cloud-ai-forge-sub003/llm/ollama"
	llmopenai "github.com/dadabin81/cloud-ai-forge-sub003/llm/openai"
	llmopenrouter "github.com/dadabin81/cloud-ai-forge-sub003/llm/openrouter"
)

// BuildProviders constructs an adapter per configured provider entry.
// Unknown provider ids are treated as OpenAI-compatible endpoints under
// their own name, so self-hosted gateways need no code change.
func BuildProviders(cfg *Config, logger zerolog.Logger) (map[string]llm.Provider, error) {
	providers := make(map[string]llm.Provider, len(cfg.Providers))
	for name, entry := range cfg.Providers {
		if entry == nil {
			continue
		}
		p, err := buildProvider(name, entry, logger)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		providers[name] = p
	}
	return providers, nil
}

func buildProvider(name string, entry *ProviderConfig, logger zerolog.Logger) (llm.Provider, error) {
	switch name {
	case "openai":
		return llmopenai.New(llmopenai.Config{
			APIKey:       entry.APIKey,
			BaseURL:      entry.BaseURL,
			DefaultModel: entry.DefaultModel,
			ExtraHeaders: entry.ExtraHeaders,
		}, logger)
	case "anthropic":
		return llmanthropic.New(llmanthropic.Config{
			APIKey:       entry.APIKey,
			BaseURL:      entry.BaseURL,
			DefaultModel: entry.DefaultModel,
			ExtraHeaders: entry.ExtraHeaders,
		}, logger)
	case "cloudflare":
		return llmcloudflare.New(llmcloudflare.Config{
			APIToken:     entry.APIKey,
			AccountID:    entry.AccountID,
			BaseURL:      entry.BaseURL,
			DefaultModel: entry.DefaultModel,
		}, logger)
	case "openrouter":
		return llmopenrouter.New(llmopenrouter.Config{
			APIKey:       entry.APIKey,
			BaseURL:      entry.BaseURL,
			DefaultModel: entry.DefaultModel,
			SiteURL:      entry.SiteURL,
			AppName:      entry.AppName,
		}, logger)
	case "lovable":
		return llmlovable.New(llmlovable.Config{
			APIKey:       entry.APIKey,
			BaseURL:      entry.BaseURL,
			DefaultModel: entry.DefaultModel,
		}, logger)
	case "ollama":
		return llmollama.New(llmollama.Config{
			Host:         entry.Host,
			DefaultModel: entry.DefaultModel,
		}, logger)
	default:
		return llmopenai.NewCompatible(name, llmopenai.Config{
			APIKey:       entry.APIKey,
			BaseURL:      entry.BaseURL,
			DefaultModel: entry.DefaultModel,
			ExtraHeaders: entry.ExtraHeaders,
			ModelAliases: map[string]string{},
		}, logger)
	}
}
