package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Text(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, "")
	assert.Equal(t, ModeText, r.Mode())
	assert.False(t, IsTerminal(&out))

	r.Header("Columns")
	r.Table([]string{"name", "type"}, [][]any{{"e1", "string"}, {"e2", "integer"}})
	r.Error("boom %d", 1)

	assert.Contains(t, out.String(), "Columns\n")
	assert.Contains(t, out.String(), "│ e1   │ string  │")
	assert.Equal(t, "boom 1\n", errOut.String())
}

func TestRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, ModeJSON)
	require.NoError(t, r.JSON(map[string]int{"groups": 2}))
	assert.JSONEq(t, `{"groups": 2}`, out.String())
}
