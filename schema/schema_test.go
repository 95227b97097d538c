package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherArgs struct {
	Location string `json:"location" jsonschema:"description=City name"`
	Units    string `json:"units,omitempty"`
}

func TestFromStruct(t *testing.T) {
	s, err := FromStruct[weatherArgs]()
	require.NoError(t, err)

	assert.Equal(t, TypeObject, s.Type)
	require.Contains(t, s.Properties, "location")
	require.Contains(t, s.Properties, "units")
	assert.Equal(t, TypeString, s.Properties["location"].Type)
	assert.Equal(t, "City name", s.Properties["location"].Description)
	assert.Contains(t, s.Required, "location")
	assert.NotContains(t, s.Required, "units")
}

func TestFromMap(t *testing.T) {
	s, err := FromMap(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{"type": "integer"},
		},
		"required": []string{"count"},
	})
	require.NoError(t, err)

	assert.Equal(t, TypeObject, s.Type)
	assert.Equal(t, TypeInteger, s.Properties["count"].Type)
	assert.Equal(t, []string{"count"}, s.Required)
}

func TestFromJSONInfersObjectType(t *testing.T) {
	s, err := FromJSON([]byte(`{"properties":{"x":{"type":"string"}}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeObject, s.Type)
}

func TestBuildersAndJSONRoundTrip(t *testing.T) {
	s := Object(map[string]*Schema{
		"name":  String("the name"),
		"tags":  Array(String(""), "labels"),
		"score": Number(""),
	}, "name")

	raw := s.JSON()
	parsed, err := FromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeObject, parsed.Type)
	assert.Equal(t, TypeArray, parsed.Properties["tags"].Type)
	assert.Equal(t, []string{"name"}, parsed.Required)
	assert.True(t, json.Valid(raw))
}

func TestParseJSONValidObject(t *testing.T) {
	s := Object(map[string]*Schema{
		"location": String(""),
		"days":     Integer(""),
	}, "location")

	v, err := s.ParseJSON([]byte(`{"location":"Paris","days":3}`))
	require.NoError(t, err)
	args := v.(map[string]any)
	assert.Equal(t, "Paris", args["location"])
	assert.Equal(t, 3, args["days"])
}

func TestParseMissingRequired(t *testing.T) {
	s := Object(map[string]*Schema{"location": String("")}, "location")

	_, err := s.ParseJSON([]byte(`{"units":"c"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location")
}

func TestParseEmptyRequired(t *testing.T) {
	s := Object(map[string]*Schema{"location": String("")}, "location")

	_, err := s.ParseJSON([]byte(`{"location":""}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestParseUndeclaredParamsPassThrough(t *testing.T) {
	s := Object(map[string]*Schema{"a": String("")})

	v, err := s.ParseJSON([]byte(`{"a":"x","extra":42}`))
	require.NoError(t, err)
	args := v.(map[string]any)
	assert.Equal(t, float64(42), args["extra"])
}

func TestParseCoercions(t *testing.T) {
	s := Object(map[string]*Schema{
		"count":   Integer(""),
		"ratio":   Number(""),
		"enabled": Boolean(""),
		"label":   String(""),
	})

	v, err := s.ParseJSON([]byte(`{"count":"7","ratio":"0.5","enabled":"true","label":12}`))
	require.NoError(t, err)
	args := v.(map[string]any)
	assert.Equal(t, 7, args["count"])
	assert.Equal(t, 0.5, args["ratio"])
	assert.Equal(t, true, args["enabled"])
	assert.Equal(t, "12", args["label"])
}

func TestParseCoercionFailures(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
		raw    string
	}{
		{"bad integer", Object(map[string]*Schema{"n": Integer("")}), `{"n":"seven"}`},
		{"fractional integer", Object(map[string]*Schema{"n": Integer("")}), `{"n":1.5}`},
		{"bad number", Object(map[string]*Schema{"n": Number("")}), `{"n":"abc"}`},
		{"bad boolean", Object(map[string]*Schema{"b": Boolean("")}), `{"b":"maybe"}`},
		{"object for string", Object(map[string]*Schema{"s": String("")}), `{"s":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.schema.ParseJSON([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestParseArrayItems(t *testing.T) {
	s := Object(map[string]*Schema{"nums": Array(Integer(""), "")})

	v, err := s.ParseJSON([]byte(`{"nums":["1",2,3]}`))
	require.NoError(t, err)
	args := v.(map[string]any)
	assert.Equal(t, []any{1, 2, 3}, args["nums"])

	_, err = s.ParseJSON([]byte(`{"nums":"not an array"}`))
	assert.Error(t, err)
}

func TestParseEnum(t *testing.T) {
	unit := String("")
	unit.Enum = []any{"celsius", "fahrenheit"}
	s := Object(map[string]*Schema{"unit": unit})

	_, err := s.ParseJSON([]byte(`{"unit":"celsius"}`))
	assert.NoError(t, err)

	_, err = s.ParseJSON([]byte(`{"unit":"kelvin"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enum")
}

func TestParseEnumNumericTolerance(t *testing.T) {
	level := Integer("")
	level.Enum = []any{1, 2, 3}
	s := Object(map[string]*Schema{"level": level})

	// JSON numbers decode as float64; the enum check must still match.
	_, err := s.ParseJSON([]byte(`{"level":2}`))
	assert.NoError(t, err)
}

func TestParseErrorPathsNameTheField(t *testing.T) {
	s := Object(map[string]*Schema{
		"outer": Object(map[string]*Schema{"inner": Integer("")}),
	})

	_, err := s.ParseJSON([]byte(`{"outer":{"inner":"x"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$.outer.inner")
}

func TestValidateDiscardsValue(t *testing.T) {
	s := Object(map[string]*Schema{"a": String("")}, "a")

	assert.NoError(t, s.Validate(map[string]any{"a": "x"}))
	assert.Error(t, s.Validate(map[string]any{}))
}

func TestParseJSONInvalidInput(t *testing.T) {
	s := Object(map[string]*Schema{"a": String("")})
	_, err := s.ParseJSON([]byte(`{not json`))
	assert.Error(t, err)
}
