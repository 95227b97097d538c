package cloudflare

// DefaultModels maps friendly names onto Workers AI catalog ids. Read-only.
var DefaultModels = map[string]string{
	"llama-3.1-8b":  "@cf/meta/llama-3.1-8b-instruct",
	"llama-3.1-70b": "@cf/meta/llama-3.1-70b-instruct",
	"llama-3.3-70b": "@cf/meta/llama-3.3-70b-instruct-fp8-fast",
	"llama-3-8b":    "@cf/meta/llama-3-8b-instruct",
	"mistral-7b":    "@cf/mistral/mistral-7b-instruct-v0.1",
	"qwen-coder":    "@cf/qwen/qwen2.5-coder-32b-instruct",
	"gemma-7b":      "@cf/google/gemma-7b-it",
}
