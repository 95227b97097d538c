package openrouter

// DefaultModels maps friendly names onto OpenRouter's vendor-prefixed model
// ids. Read-only.
var DefaultModels = map[string]string{
	"gpt-4o":          "openai/gpt-4o",
	"gpt-4o-mini":     "openai/gpt-4o-mini",
	"gpt-5":           "openai/gpt-5",
	"claude-sonnet":   "anthropic/claude-sonnet-4",
	"claude-opus":     "anthropic/claude-opus-4",
	"claude-haiku":    "anthropic/claude-3.5-haiku",
	"gemini-flash":    "google/gemini-2.5-flash",
	"gemini-pro":      "google/gemini-2.5-pro",
	"llama-3.1-70b":   "meta-llama/llama-3.1-70b-instruct",
	"deepseek-chat":   "deepseek/deepseek-chat",
	"mistral-large":   "mistralai/mistral-large",
	"qwen-2.5-coder":  "qwen/qwen-2.5-coder-32b-instruct",
	"auto":            "openrouter/auto",
}
