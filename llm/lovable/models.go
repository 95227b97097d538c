package lovable

// DefaultModels maps friendly names onto the gateway's vendor-prefixed model
// ids. Read-only.
var DefaultModels = map[string]string{
	"gemini-flash":      "google/gemini-2.5-flash",
	"gemini-flash-lite": "google/gemini-2.5-flash-lite",
	"gemini-pro":        "google/gemini-2.5-pro",
	"gpt-5":             "openai/gpt-5",
	"gpt-5-mini":        "openai/gpt-5-mini",
	"gpt-5-nano":        "openai/gpt-5-nano",
}
