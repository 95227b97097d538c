package tools

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadabin81/cloud-ai-forge-sub003/schema"
)

func noopExecute(ctx context.Context, args map[string]any, tc *ToolContext) (any, error) {
	return nil, nil
}

func TestParseArgumentsValidatesAndCoerces(t *testing.T) {
	tool := New("lookup", "", schema.Object(map[string]*schema.Schema{
		"city":  schema.String(""),
		"limit": schema.Integer(""),
	}, "city"), noopExecute)

	args, err := tool.ParseArguments(`{"city":"Oslo","limit":"3"}`)
	require.NoError(t, err)
	assert.Equal(t, "Oslo", args["city"])
	assert.Equal(t, 3, args["limit"])
}

func TestParseArgumentsRejectsMissingRequired(t *testing.T) {
	tool := New("lookup", "", schema.Object(map[string]*schema.Schema{
		"city": schema.String(""),
	}, "city"), noopExecute)

	_, err := tool.ParseArguments(`{}`)
	assert.Error(t, err)
}

func TestParseArgumentsEmptyRawMeansEmptyObject(t *testing.T) {
	tool := New("ping", "", schema.Object(nil), noopExecute)

	args, err := tool.ParseArguments("")
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestParseArgumentsNilSchemaPassesThrough(t *testing.T) {
	tool := New("raw", "", nil, noopExecute)

	args, err := tool.ParseArguments(`{"anything":true}`)
	require.NoError(t, err)
	assert.Equal(t, true, args["anything"])

	_, err = tool.ParseArguments(`not json`)
	assert.Error(t, err)
}

func TestNewTypedDecodesIntoStruct(t *testing.T) {
	type addArgs struct {
		A float64 `json:"a"`
		B float64 `json:"b"`
	}
	var got addArgs
	tool, err := NewTyped("add", "adds two numbers", func(ctx context.Context, in addArgs, tc *ToolContext) (any, error) {
		got = in
		return in.A + in.B, nil
	})
	require.NoError(t, err)
	require.NotNil(t, tool.Schema)

	args, err := tool.ParseArguments(`{"a":2,"b":3}`)
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), args, &ToolContext{CallID: "call_1"})
	require.NoError(t, err)
	assert.Equal(t, float64(5), out)
	assert.Equal(t, addArgs{A: 2, B: 3}, got)
}

func TestRegistryRejectsDuplicatesAndEmptyNames(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	require.NoError(t, r.Register(New("a", "", nil, noopExecute)))
	assert.Error(t, r.Register(New("a", "", nil, noopExecute)))
	assert.Error(t, r.Register(New("", "", nil, noopExecute)))
	assert.Error(t, r.Register(Tool{Name: "b"}))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryLookupIsCaseSensitive(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	require.NoError(t, r.Register(New("get_weather", "", nil, noopExecute)))

	_, ok := r.Lookup("get_weather")
	assert.True(t, ok)
	_, ok = r.Lookup("Get_Weather")
	assert.False(t, ok)
	_, ok = r.Lookup("weather")
	assert.False(t, ok)
}

func TestRegistryListSortsByName(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(New(name, "", nil, noopExecute)))
	}

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "mid", list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
}
