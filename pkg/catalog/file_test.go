package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/pkg/types"
)

const testDocument = `
models:
  - name: pm1
    tables:
      - name: g1
        columns:
          - { name: e1, type: string }
          - { name: e2, type: integer }
          - { name: e3, type: boolean, updatable: false }
          - { name: secret, type: varchar, selectable: false }
        keys:
          - { kind: primary, columns: [e1] }
    views:
      - name: v1
        definition: SELECT e1 FROM pm1.g1
        columns:
          - { name: e1, type: string }
    procedures:
      - name: sq3
        params:
          - { name: in1, type: string }
          - { name: in2, type: int, default: "0" }
          - { name: out1, type: long, mode: out }
        results:
          - { name: e1, type: string }
functions:
  - { name: mask, params: [string, integer], returns: string }
`

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	m, err := LoadFile(writeDocument(t, testDocument))
	require.NoError(t, err)

	g, err := m.FindGroup([]string{"g1"})
	require.NoError(t, err)
	require.Len(t, g.Columns, 4)
	assert.Equal(t, types.String, g.Columns[0].Type)
	assert.True(t, g.Columns[0].Selectable)
	assert.False(t, g.Columns[2].Updatable)
	assert.False(t, g.Columns[3].Selectable)
	assert.Equal(t, types.String, g.Columns[3].Type)
	require.Len(t, g.Keys, 1)
	assert.Equal(t, KeyPrimary, g.Keys[0].Kind)

	v, err := m.FindGroup([]string{"v1"})
	require.NoError(t, err)
	assert.Equal(t, KindView, v.Kind)
	assert.False(t, v.Updatable)
	assert.Equal(t, "SELECT e1 FROM pm1.g1", v.Definition)

	p, err := m.FindProcedure([]string{"pm1", "sq3"})
	require.NoError(t, err)
	require.Len(t, p.Params, 3)
	assert.False(t, p.Params[0].HasDefault)
	assert.True(t, p.Params[1].HasDefault)
	assert.Equal(t, types.Integer, p.Params[1].Type)
	assert.Equal(t, ParamOut, p.Params[2].Mode)

	sigs, err := m.Functions("mask")
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, []types.DataType{types.String, types.Integer}, sigs[0].Params)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown type", content: "models:\n  - name: m\n    tables:\n      - name: t\n        columns:\n          - { name: c, type: uuidx }\n"},
		{name: "unknown key kind", content: "models:\n  - name: m\n    tables:\n      - name: t\n        columns: []\n        keys:\n          - { kind: weird, columns: [c] }\n"},
		{name: "duplicate table", content: "models:\n  - name: m\n    tables:\n      - { name: t, columns: [] }\n      - { name: T, columns: [] }\n"},
		{name: "variadic without params", content: "functions:\n  - { name: anyf, variadic: true, returns: string }\n"},
		{name: "constant args past params", content: "functions:\n  - { name: f, params: [string], constant_args: 2, returns: string }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeDocument(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFunctionDoc_Validate(t *testing.T) {
	tests := []struct {
		name   string
		doc    FunctionDoc
		errMsg string
	}{
		{name: "plain", doc: FunctionDoc{Name: "mask", Params: []types.DataType{types.String}, Returns: types.String}},
		{name: "variadic", doc: FunctionDoc{Name: "concatall", Params: []types.DataType{types.String}, Variadic: true, Returns: types.String}},
		{name: "no params", doc: FunctionDoc{Name: "now2", Returns: types.Timestamp}},
		{name: "unnamed", doc: FunctionDoc{Returns: types.String}, errMsg: "name is required"},
		{name: "variadic without params", doc: FunctionDoc{Name: "anyf", Variadic: true, Returns: types.String}, errMsg: "variadic requires at least one parameter"},
		{name: "constant args past params", doc: FunctionDoc{Name: "f", Params: []types.DataType{types.String}, ConstantArgs: 2, Returns: types.String}, errMsg: "constant_args 2 out of range"},
		{name: "negative constant args", doc: FunctionDoc{Name: "f", ConstantArgs: -1, Returns: types.String}, errMsg: "constant_args -1 out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := FromDocument(&Document{Functions: []FunctionDoc{{Name: "anyf", Variadic: true, Returns: types.String}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "functions[0]")
}

func TestDocumentRoundTrip(t *testing.T) {
	m, err := LoadFile(writeDocument(t, testDocument))
	require.NoError(t, err)
	extra, err := m.Functions("mask")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, WriteFile(out, ToDocument(m, extra)))

	again, err := LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, len(m.Groups()), len(again.Groups()))
	assert.Equal(t, len(m.Procedures()), len(again.Procedures()))

	g, err := again.FindGroup([]string{"pm1", "g1"})
	require.NoError(t, err)
	assert.False(t, g.Columns[3].Selectable)
	assert.False(t, g.Columns[2].Updatable)

	p, err := again.FindProcedure([]string{"sq3"})
	require.NoError(t, err)
	assert.True(t, p.Params[1].HasDefault)
	assert.Equal(t, "0", p.Params[1].Default)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, ToDocument(m, nil)))
	assert.Contains(t, buf.String(), "type: string")
	assert.Contains(t, buf.String(), "- name: g1")
}

func TestDecodeDocument(t *testing.T) {
	doc, err := DecodeDocument([]byte(testDocument))
	require.NoError(t, err)
	require.Len(t, doc.Models, 1)
	assert.Equal(t, types.Integer, doc.Models[0].Tables[0].Columns[1].Type)
	assert.Equal(t, []types.DataType{types.String, types.Integer}, doc.Functions[0].Params)

	_, err = DecodeDocument([]byte("models: [unclosed"))
	assert.Error(t, err)
}
