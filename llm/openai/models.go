package openai

// DefaultModels maps friendly model names to OpenAI wire ids. Read-only.
var DefaultModels = map[string]string{
	"gpt-5":         "gpt-5",
	"gpt-5-mini":    "gpt-5-mini",
	"gpt-4.1":       "gpt-4.1",
	"gpt-4.1-mini":  "gpt-4.1-mini",
	"gpt-4o":        "gpt-4o",
	"gpt-4o-mini":   "gpt-4o-mini",
	"o3":            "o3",
	"o4-mini":       "o4-mini",
	"gpt-3.5-turbo": "gpt-3.5-turbo-0125",
}
