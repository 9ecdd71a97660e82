package toolrelay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noRefInSchemaTree(schemaMap map[string]any) bool {
	found := false
	walkSchema(schemaMap, func(n map[string]any) {
		if _, ok := n["$ref"]; ok {
			found = true
		}
		if _, ok := n["$defs"]; ok {
			found = true
		}
	})
	return !found
}

func TestGenerateSchema_Simple(t *testing.T) {
	type Args struct {
		Location string `json:"location" description:"City name"`
		Unit     string `json:"unit,omitempty" enum:"celsius, fahrenheit"`
	}
	schema, err := generateSchema[Args]()
	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	loc := props["location"].(map[string]any)
	assert.Equal(t, "string", loc["type"])
	assert.Equal(t, "City name", loc["description"])
	unit := props["unit"].(map[string]any)
	assert.Equal(t, []any{"celsius", "fahrenheit"}, unit["enum"])
	assert.Equal(t, []any{"location"}, schema["required"])
}

func TestGenerateSchema_NestedInlined(t *testing.T) {
	type Point struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	type Args struct {
		From Point   `json:"from"`
		Via  []Point `json:"via,omitempty"`
	}
	schema, err := generateSchema[Args]()
	require.NoError(t, err)
	assert.True(t, noRefInSchemaTree(schema))
	assert.NotContains(t, schema, "$schema")
	from := schema["properties"].(map[string]any)["from"].(map[string]any)
	assert.Equal(t, "object", from["type"])
}

func TestGenerateSchema_NotObject(t *testing.T) {
	_, err := generateSchema[int]()
	require.ErrorIs(t, err, errNotObject)
	_, err = generateSchema[[]string]()
	require.ErrorIs(t, err, errNotObject)
}

func TestGenerateSchema_CompiledValidates(t *testing.T) {
	type Args struct {
		N int `json:"n"`
	}
	schema, err := generateSchema[Args]()
	require.NoError(t, err)
	compiled, err := compileRawSchema(schema)
	require.NoError(t, err)
	require.NoError(t, validateAgainstSchema("t", compiled, map[string]any{"n": 3}))
	require.Error(t, validateAgainstSchema("t", compiled, map[string]any{"n": "3"}))
}

func TestParamsSchema(t *testing.T) {
	schema, err := paramsSchema([]Param{
		{Name: "location", Type: "string", Description: "City", Required: true},
		{Name: "unit", Type: "string", Default: "fahrenheit"},
	})
	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []any{"location"}, schema["required"])
	unit := schema["properties"].(map[string]any)["unit"].(map[string]any)
	assert.Equal(t, "fahrenheit", unit["default"])
}

func TestParamsSchema_Empty(t *testing.T) {
	schema, err := paramsSchema(nil)
	require.NoError(t, err)
	assert.NotContains(t, schema, "required")
	assert.Empty(t, schema["properties"])
}

func TestStripSchemaIDs(t *testing.T) {
	schema := map[string]any{
		"$schema": "x",
		"$id":     "y",
		"properties": map[string]any{
			"a": map[string]any{"id": "z", "type": "string"},
		},
		"anyOf": []any{map[string]any{"$id": "w"}},
	}
	stripSchemaIDs(schema)
	assert.NotContains(t, schema, "$schema")
	assert.NotContains(t, schema, "$id")
	assert.Equal(t, map[string]any{"type": "string"}, schema["properties"].(map[string]any)["a"])
	assert.Equal(t, map[string]any{}, schema["anyOf"].([]any)[0])
}

func TestApplyDefaults(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{
			"unit":  map[string]any{"type": "string", "default": "fahrenheit"},
			"days":  map[string]any{"type": "integer", "default": 1},
			"place": map[string]any{"type": "string"},
		},
	}
	in := map[string]any{"days": 3}
	out := applyDefaults(schema, in)
	assert.Equal(t, map[string]any{"unit": "fahrenheit", "days": 3}, out)
	assert.Equal(t, map[string]any{"days": 3}, in)

	assert.Equal(t, map[string]any{"unit": "fahrenheit", "days": 1}, applyDefaults(schema, nil))
	assert.Empty(t, applyDefaults(map[string]any{}, nil))
}

func FuzzValidate(f *testing.F) {
	f.Add("Boston", "celsius")
	f.Add("", "")
	schema, err := generateSchema[weatherArgs]()
	if err != nil {
		f.Fatal(err)
	}
	compiled, err := compileRawSchema(schema)
	if err != nil {
		f.Fatal(err)
	}
	f.Fuzz(func(t *testing.T, loc, unit string) {
		_ = validateAgainstSchema("fetch_weather", compiled, map[string]any{"location": loc, "unit": unit})
	})
}
