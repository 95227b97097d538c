// Package schema converts structural parameter descriptions into a
// normalized JSON-Schema-like document and validates values against it. Tool
// definitions and structured-output parsing both consume it.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Type is the JSON type of a schema node.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeNull    Type = "null"
)

// Schema is the normalized document. It is immutable after creation; the
// same instance may be shared across tools and requests.
type Schema struct {
	Type        Type               `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []any              `json:"enum,omitempty"`

	// AdditionalProperties is carried through unmodified; generated schemas
	// typically set it to false.
	AdditionalProperties json.RawMessage `json:"additionalProperties,omitempty"`
}

// reflector is configured for LLM tool and response schemas. DoNotReference
// inlines all definitions so no backend has to resolve $ref.
var reflector = &jsonschema.Reflector{
	DoNotReference: true,
	Anonymous:      true,
}

// FromStruct generates a normalized schema from a Go struct type using its
// json and jsonschema tags.
func FromStruct[T any]() (*Schema, error) {
	var zero T
	raw, err := json.Marshal(reflector.Reflect(&zero))
	if err != nil {
		return nil, fmt.Errorf("reflecting schema: %w", err)
	}
	return FromJSON(raw)
}

// MustFromStruct is FromStruct panicking on error, for package-level
// definitions.
func MustFromStruct[T any]() *Schema {
	s, err := FromStruct[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// FromJSON normalizes a JSON-Schema document. Unknown keywords are dropped.
func FromJSON(raw []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	if s.Type == "" && s.Properties != nil {
		s.Type = TypeObject
	}
	return &s, nil
}

// FromMap normalizes a loose map-shaped description, the way hand-written
// tool schemas are usually declared.
func FromMap(m map[string]any) (*Schema, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding schema map: %w", err)
	}
	return FromJSON(raw)
}

// JSON renders the normalized document, suitable for a backend wire body.
func (s *Schema) JSON() json.RawMessage {
	raw, err := json.Marshal(s)
	if err != nil {
		// Schema is built from plain JSON-able fields; marshal cannot fail
		// for a normalized document.
		panic(err)
	}
	return raw
}

// Object builds an object schema from named properties.
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Required: required}
}

// String builds a string schema.
func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// Number builds a number schema.
func Number(description string) *Schema {
	return &Schema{Type: TypeNumber, Description: description}
}

// Integer builds an integer schema.
func Integer(description string) *Schema {
	return &Schema{Type: TypeInteger, Description: description}
}

// Boolean builds a boolean schema.
func Boolean(description string) *Schema {
	return &Schema{Type: TypeBoolean, Description: description}
}

// Array builds an array schema.
func Array(items *Schema, description string) *Schema {
	return &Schema{Type: TypeArray, Items: items, Description: description}
}
