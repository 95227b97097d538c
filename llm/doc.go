// Package llm defines the provider-neutral data model shared by every backend
// adapter: messages, requests, responses, tool calls, usage accounting, the
// typed error taxonomy, and the Provider/Stream interfaces the gateway
// dispatches through. Backend-specific wire formats live in the subpackages
// (openai, anthropic, cloudflare, openrouter, lovable, ollama).
package llm
