// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/fedsql/internal/cli/output"
)

// CatalogYAML is the catalog written by SetupTestProject.
const CatalogYAML = `models:
  - name: pm1
    tables:
      - name: g1
        columns:
          - { name: e1, type: string }
          - { name: e2, type: integer }
          - { name: e3, type: boolean }
          - { name: e4, type: double }
        keys:
          - { name: g1_pkey, kind: primary, columns: [e2] }
      - name: g2
        columns:
          - { name: e1, type: string }
          - { name: e2, type: integer }
          - { name: e3, type: boolean }
          - { name: e4, type: double }
    procedures:
      - name: sq3
        params:
          - { name: in1, type: string }
          - { name: in2, type: integer }
        results:
          - { name: e1, type: string }
          - { name: e2, type: integer }
  - name: vm1
    views:
      - name: g1
        columns:
          - { name: e1, type: string }
          - { name: e2, type: integer }
        definition: SELECT e1, e2 FROM pm1.g1
    procedures:
      - name: scoped
        virtual: true
        params:
          - { name: in1, type: integer }
        body: |
          BEGIN
            DECLARE integer var1 = in1;
            IF (var1 > 0)
            BEGIN
              DECLARE boolean var1 = TRUE;
              var1 = FALSE;
            END
            var1 = 2;
          END
functions:
  - { name: mask, params: [string], returns: string }
`

// ConfigYAML is the fedsql.yaml written by SetupTestProject.
const ConfigYAML = `catalog:
  file: catalog.yaml
state_path: .fedsql/state.db
`

// SetupTestProject creates a temporary project holding fedsql.yaml and
// catalog.yaml, and returns its directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	WriteFile(t, dir, "catalog.yaml", CatalogYAML)
	WriteFile(t, dir, "fedsql.yaml", ConfigYAML)
	return dir
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a renderer whose output is captured in buffers.
// Buffers are never terminals, so text output carries no styling.
func NewTestRenderer(mode output.Mode) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRenderer(out, errOut, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}
