package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/internal/cli/output"
	"github.com/leapstack-labs/fedsql/internal/cli/testutil"
)

func newTestShell(t *testing.T) (*shell, *testutil.TestRenderer) {
	t.Helper()
	rt, tr := newTestRuntime(t, output.ModeText)
	cat, _, err := rt.LoadCatalog(context.Background())
	require.NoError(t, err)
	return newShell(rt.NewResolver(cat), cat, tr.Renderer), tr
}

func TestShell_MultiLineStatement(t *testing.T) {
	sh, tr := newTestShell(t)
	ctx := context.Background()

	assert.False(t, sh.Feed(ctx, "SELECT e1, e2"))
	assert.Equal(t, replContPrompt, sh.Prompt())
	assert.Empty(t, tr.Output())

	assert.False(t, sh.Feed(ctx, "FROM pm1.g1;"))
	assert.Equal(t, replPrompt, sh.Prompt())
	assert.Contains(t, tr.Output(), "input #1")
	assert.Contains(t, tr.Output(), "e2")
}

func TestShell_TempTablesPersist(t *testing.T) {
	sh, tr := newTestShell(t)
	ctx := context.Background()

	sh.Feed(ctx, "CREATE LOCAL TEMPORARY TABLE #t (a integer, b string);")
	sh.Feed(ctx, "SELECT b FROM #t;")
	assert.Empty(t, tr.ErrorOutput())

	tr.Reset()
	sh.Feed(ctx, ".temps")
	assert.Contains(t, tr.Output(), "#t")
	assert.Contains(t, tr.Output(), "a integer, b string")

	tr.Reset()
	sh.Feed(ctx, ".reset")
	sh.Feed(ctx, "SELECT b FROM #t;")
	assert.Contains(t, tr.ErrorOutput(), "group_not_found")
}

func TestShell_DotCommands(t *testing.T) {
	tests := []struct {
		line    string
		quit    bool
		wantOut string
		wantErr string
	}{
		{line: ".help", wantOut: ".bindings"},
		{line: ".groups", wantOut: "vm1.g1"},
		{line: ".temps", wantOut: "no temp tables"},
		{line: ".bindings", wantOut: "bindings on"},
		{line: ".bogus", wantErr: "Unknown command: .bogus"},
		{line: ".quit", quit: true},
		{line: ".EXIT", quit: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sh, tr := newTestShell(t)
			assert.Equal(t, tt.quit, sh.Feed(context.Background(), tt.line))
			if tt.wantOut != "" {
				assert.Contains(t, tr.Output(), tt.wantOut)
			}
			if tt.wantErr != "" {
				assert.Contains(t, tr.ErrorOutput(), tt.wantErr)
			}
		})
	}
}

func TestShell_BindingsToggle(t *testing.T) {
	sh, tr := newTestShell(t)
	ctx := context.Background()

	sh.Feed(ctx, ".bindings")
	tr.Reset()
	sh.Feed(ctx, "SELECT e1 FROM pm1.g1;")
	assert.Contains(t, tr.Output(), "pm1.g1.e1")
}

func TestNewGroupCompleter(t *testing.T) {
	sh, _ := newTestShell(t)
	pc := newGroupCompleter(sh.cat)
	names := make([]string, 0, len(pc.GetChildren()))
	for _, c := range pc.GetChildren() {
		names = append(names, string(c.GetName()))
	}
	assert.Contains(t, names, "pm1.g1 ")
	assert.Contains(t, names, ".quit ")
}
