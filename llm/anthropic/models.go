package anthropic

import anthropic "github.com/anthropics/anthropic-sdk-go"

// DefaultModels maps friendly names onto SDK model identifiers. Read-only.
var DefaultModels = map[string]anthropic.Model{
	"claude-haiku":      anthropic.ModelClaude3_5HaikuLatest,
	"claude-3-5-haiku":  anthropic.ModelClaude3_5HaikuLatest,
	"claude-3-7-sonnet": anthropic.ModelClaude3_7SonnetLatest,
	"claude-sonnet":     anthropic.ModelClaudeSonnet4_0,
	"claude-sonnet-4":   anthropic.ModelClaudeSonnet4_0,
	"claude-opus":       anthropic.ModelClaudeOpus4_0,
	"claude-opus-4":     anthropic.ModelClaudeOpus4_0,
}
