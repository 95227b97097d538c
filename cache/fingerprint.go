package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// fingerprintKey is the canonical projection of a request onto the fields
// that influence the response. Field order is fixed so the serialized form
// is stable across processes.
type fingerprintKey struct {
	Provider    string            `json:"provider"`
	Model       string            `json:"model"`
	Messages    []fingerprintMsg  `json:"messages"`
	Temperature *float64          `json:"temperature,omitempty"`
	TopP        *float64          `json:"top_p,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Tools       []fingerprintTool `json:"tools,omitempty"`
	ToolChoice  string            `json:"tool_choice,omitempty"`
	Schema      json.RawMessage   `json:"schema,omitempty"`
}

type fingerprintMsg struct {
	Role       string   `json:"role"`
	Content    string   `json:"content"`
	ToolCallID string   `json:"tool_call_id,omitempty"`
	Name       string   `json:"name,omitempty"`
	Calls      []string `json:"calls,omitempty"`
}

type fingerprintTool struct {
	Name string `json:"name"`
	// Description is part of the wire body on every backend and steers tool
	// selection, so it must distinguish cache entries.
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty"`
}

// Fingerprint derives the cache key for a request: the hex sha256 of the
// canonical JSON of every response-affecting field.
func Fingerprint(req *llm.Request) string {
	key := fingerprintKey{
		Provider:    req.Provider,
		Model:       req.Model,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		ToolChoice:  req.ToolChoice,
		Schema:      req.ResponseSchema,
	}
	for _, msg := range req.Messages {
		fm := fingerprintMsg{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		}
		for _, tc := range msg.ToolCalls {
			fm.Calls = append(fm.Calls, tc.ID+":"+tc.Name+":"+tc.RawArguments)
		}
		key.Messages = append(key.Messages, fm)
	}
	for _, spec := range req.Tools {
		ft := fingerprintTool{Name: spec.Name, Description: spec.Description}
		if spec.Schema != nil {
			ft.Schema = spec.Schema.JSON()
		}
		key.Tools = append(key.Tools, ft)
	}

	encoded, err := json.Marshal(key)
	if err != nil {
		// Marshal of plain structs and raw JSON cannot fail; keep a
		// deterministic fallback anyway.
		encoded = []byte(req.Provider + "/" + req.Model)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
