package internal

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRow_UnmarshalKeepsKeyOrder(t *testing.T) {
	var r Row
	require.NoError(t, json.Unmarshal([]byte(`{"zeta":1,"alpha":"a","mid":null,"flag":true}`), &r))

	assert.Equal(t, []string{"zeta", "alpha", "mid", "flag"}, r.Keys())
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, "1", r.Cell("zeta"))
	assert.Equal(t, "a", r.Cell("alpha"))
	assert.Equal(t, "null", r.Cell("mid"))
	assert.Equal(t, "true", r.Cell("flag"))
	assert.Equal(t, "", r.Cell("missing"))

	v, ok := r.Get("mid")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestRow_NumbersKeepTheirText(t *testing.T) {
	var r Row
	require.NoError(t, json.Unmarshal([]byte(`{"big":12345678901234567890,"f":2.50}`), &r))
	assert.Equal(t, "12345678901234567890", r.Cell("big"))
	assert.Equal(t, "2.50", r.Cell("f"))
}

func TestRow_UnmarshalRejectsNonObject(t *testing.T) {
	var r Row
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
}

func TestRow_NullDecodesToEmptyRow(t *testing.T) {
	var rows []Row
	require.NoError(t, json.Unmarshal([]byte(`[null,{"a":1},null]`), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, 0, rows[0].Len())
	assert.Equal(t, "1", rows[1].Cell("a"))
	assert.Equal(t, "", rows[2].Cell("a"))

	entry := MessageEntry{Role: RoleBot, Table: rows}
	assert.Equal(t, []string{"a"}, entry.TableColumns())
}

func TestRow_MarshalJSONRoundTripsOrder(t *testing.T) {
	in := `{"b":1,"a":[1,"x"],"c":{"k":"v"}}`
	var r Row
	require.NoError(t, json.Unmarshal([]byte(in), &r))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestRow_MarshalYAMLKeepsOrderAndNumbers(t *testing.T) {
	var r Row
	require.NoError(t, json.Unmarshal([]byte(`{"z":3,"a":1.5,"s":"text"}`), &r))

	out, err := yaml.Marshal(r)
	require.NoError(t, err)
	text := string(out)

	assert.Less(t, strings.Index(text, "z:"), strings.Index(text, "a:"))
	assert.Contains(t, text, "z: 3")
	assert.Contains(t, text, "a: 1.5")
	assert.Contains(t, text, "s: text")
}

func TestRowOf_AndSet(t *testing.T) {
	r := RowOf("name", "Ada", "age", 36)
	r.Set("name", "Grace")
	r.Set("city", "NYC")

	assert.Equal(t, []string{"name", "age", "city"}, r.Keys())
	assert.Equal(t, "Grace", r.Cell("name"))
	assert.Equal(t, "36", r.Cell("age"))

	n := NewRow([]string{"b", "a"}, map[string]any{"a": 1, "b": 2})
	assert.Equal(t, []string{"b", "a"}, n.Keys())
}

func TestRow_CloneIsIndependent(t *testing.T) {
	r := RowOf("nested", map[string]any{"k": "v"})
	c := r.Clone()
	c.Set("extra", 1)
	nested, _ := c.Get("nested")
	nested.(map[string]any)["k"] = "changed"

	assert.Equal(t, 1, r.Len())
	orig, _ := r.Get("nested")
	assert.Equal(t, "v", orig.(map[string]any)["k"])

	keys := r.Keys()
	keys[0] = "mutated"
	assert.Equal(t, "nested", r.Keys()[0])
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"s", "s"},
		{json.Number("42"), "42"},
		{true, "true"},
		{1.25, "1.25"},
		{float64(3), "3"},
		{7, "7"},
		{int64(-2), "-2"},
		{[]any{"a", 1.0}, `["a",1]`},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}
