package internal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret_AllFieldCombinations(t *testing.T) {
	const (
		hasStdout = 1 << iota
		hasTable
		hasColumns
		hasCharts
		hasCode
		hasStderr
	)

	for mask := 0; mask < 64; mask++ {
		p := &ResponsePayload{}
		if mask&hasStdout != 0 {
			p.Stdout = StringPtr("  answer\n")
		}
		if mask&hasTable != 0 {
			p.Table = []Row{RowOf("a", 1)}
		}
		if mask&hasColumns != 0 {
			p.Columns = []string{"a"}
		}
		if mask&hasCharts != 0 {
			p.Charts = []string{"/static/charts/x.png"}
		}
		if mask&hasCode != 0 {
			p.GeneratedCode = StringPtr("result = 1")
		}
		if mask&hasStderr != 0 {
			p.Stderr = StringPtr("warning: x")
		}

		e := Interpret(p)

		assert.Equal(t, RoleBot, e.Role, "mask %06b", mask)
		assert.Nil(t, e.Error, "mask %06b", mask)
		if mask&hasStdout != 0 {
			assert.Equal(t, "answer", e.TextValue(), "mask %06b", mask)
		} else {
			assert.Equal(t, DoneText, e.TextValue(), "mask %06b", mask)
		}
		assert.Equal(t, mask&hasTable != 0, e.Table != nil, "table mask %06b", mask)
		assert.Equal(t, mask&hasColumns != 0, e.Columns != nil, "columns mask %06b", mask)
		assert.Equal(t, mask&hasCharts != 0, e.Charts != nil, "charts mask %06b", mask)
		assert.Equal(t, mask&hasCode != 0, e.Code != nil, "code mask %06b", mask)
		assert.Equal(t, mask&hasStderr != 0, e.Stderr != nil, "stderr mask %06b", mask)
	}
}

func TestInterpret_ErrorPayload(t *testing.T) {
	e := Interpret(&ResponsePayload{Error: StringPtr("bad column")})

	assert.Equal(t, RoleBot, e.Role)
	assert.Equal(t, "Error: bad column", e.TextValue())
	assert.Equal(t, "bad column", e.ErrorValue())
	assert.True(t, e.IsError())
	assert.Nil(t, e.Table)
	assert.Nil(t, e.Code)
}

func TestInterpret_ErrorKeepsDiagnostics(t *testing.T) {
	var p ResponsePayload
	require.NoError(t, json.Unmarshal([]byte(`{
		"ok": false,
		"error": "Generated code was rejected",
		"generated": "import os",
		"stderr": "Traceback ...",
		"stdout": "ignored"
	}`), &p))

	assert.Equal(t, OutcomeFailure, p.Outcome())
	e := Interpret(&p)
	assert.Equal(t, "Error: Generated code was rejected", e.TextValue())
	assert.Equal(t, "import os", e.CodeValue())
	assert.Equal(t, "Traceback ...", e.StderrValue())
}

func TestInterpret_StdoutTableColumns(t *testing.T) {
	var p ResponsePayload
	require.NoError(t, json.Unmarshal([]byte(`{"stdout": "  42\n", "table": [{"a": 1}], "columns": ["a"]}`), &p))

	e := Interpret(&p)
	assert.Equal(t, "42", e.TextValue())
	require.Len(t, e.Table, 1)
	assert.Equal(t, "1", e.Table[0].Cell("a"))
	assert.Equal(t, []string{"a"}, e.Columns)
	assert.Nil(t, e.Error)
	assert.Nil(t, e.Code)
	assert.Nil(t, e.Charts)
	assert.Nil(t, e.Stderr)

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"error"`)
	assert.NotContains(t, string(out), `"charts"`)
}

func TestInterpret_EdgeCases(t *testing.T) {
	t.Run("nil payload", func(t *testing.T) {
		e := Interpret(nil)
		assert.Equal(t, DoneText, e.TextValue())
		assert.False(t, e.IsError())
	})

	t.Run("whitespace stdout", func(t *testing.T) {
		e := Interpret(&ResponsePayload{Stdout: StringPtr(" \n\t")})
		assert.Equal(t, DoneText, e.TextValue())
	})

	t.Run("empty error string is not a failure", func(t *testing.T) {
		p := &ResponsePayload{Stdout: StringPtr("ok"), Error: StringPtr("")}
		assert.Equal(t, OutcomeSuccess, p.Outcome())
		e := Interpret(p)
		assert.False(t, e.IsError())
		assert.Equal(t, "ok", e.TextValue())
	})

	t.Run("generated_code wins over generated", func(t *testing.T) {
		e := Interpret(&ResponsePayload{GeneratedCode: StringPtr("a"), Generated: StringPtr("b")})
		assert.Equal(t, "a", e.CodeValue())
	})

	t.Run("empty lists stay present", func(t *testing.T) {
		e := Interpret(&ResponsePayload{Charts: []string{}})
		assert.NotNil(t, e.Charts)
	})

	t.Run("entry does not alias payload", func(t *testing.T) {
		p := &ResponsePayload{Charts: []string{"/a.png"}, Stdout: StringPtr("x")}
		e := Interpret(p)
		p.Charts[0] = "changed"
		*p.Stdout = "changed"
		assert.Equal(t, "/a.png", e.Charts[0])
		assert.Equal(t, "x", e.TextValue())
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "failure", OutcomeFailure.String())
}
