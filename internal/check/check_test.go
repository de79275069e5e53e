package check

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/internal/testutil"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/resolver"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

func addView(t *testing.T, m *catalog.Memory, name, def string, cols ...string) {
	t.Helper()
	g := &catalog.Group{Name: catalog.SplitPath(name), Kind: catalog.KindView, Definition: def}
	for _, c := range cols {
		g.Columns = append(g.Columns, catalog.NewColumn(c, types.String))
	}
	require.NoError(t, m.AddGroup(g))
}

func byName(r *Report) map[string]Result {
	out := make(map[string]Result, len(r.Results))
	for _, res := range r.Results {
		out[res.Name] = res
	}
	return out
}

func run(t *testing.T, m *catalog.Memory) *Report {
	t.Helper()
	r := resolver.New(m, resolver.Options{Logger: testutil.NewTestLogger(t)})
	report, err := Run(context.Background(), r, m, Options{Parallel: 2, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return report
}

func TestRun_Catalog(t *testing.T) {
	report := run(t, testutil.NewCatalog(t))
	got := byName(report)
	require.Len(t, got, 4)

	assert.Equal(t, StatusOK, got["vm1.g1"].Status)
	assert.Equal(t, 0, got["vm1.g1"].Level)

	assert.Equal(t, StatusOK, got["vm1.g2"].Status)
	assert.Equal(t, 1, got["vm1.g2"].Level)
	assert.Equal(t, []string{"vm1.g1"}, got["vm1.g2"].DependsOn)

	assert.Equal(t, StatusOK, got["vm1.proc"].Status)
	assert.Equal(t, KindProcedure, got["vm1.proc"].Kind)

	cycle := got["vm1.cycle"]
	assert.Equal(t, StatusFailed, cycle.Status)
	assert.Equal(t, "definition cycle: vm1.cycle -> vm1.cycle", cycle.Message)

	assert.Equal(t, 1, report.Failed())
}

func TestRun_FailuresSkipDependents(t *testing.T) {
	m := testutil.NewCatalog(t)
	addView(t, m, "vm2.bad", "SELECT nope FROM pm1.g1", "nope")
	addView(t, m, "vm2.on_bad", "SELECT nope FROM vm2.bad", "nope")
	addView(t, m, "vm2.on_on_bad", "SELECT nope FROM vm2.on_bad", "nope")
	addView(t, m, "vm2.short", "SELECT e1, e2 FROM pm1.g1", "e1")
	addView(t, m, "vm2.ping", "SELECT e1 FROM vm2.pong", "e1")
	addView(t, m, "vm2.pong", "SELECT e1 FROM vm2.ping", "e1")
	addView(t, m, "vm2.on_ping", "SELECT e1 FROM vm2.ping", "e1")

	got := byName(run(t, m))

	bad := got["vm2.bad"]
	assert.Equal(t, StatusFailed, bad.Status)
	var re *resolver.ResolutionError
	require.ErrorAs(t, bad.Err, &re)
	assert.Equal(t, resolver.ReasonInvalidDefinition, re.Reason)

	assert.Equal(t, StatusSkipped, got["vm2.on_bad"].Status)
	assert.Equal(t, StatusSkipped, got["vm2.on_on_bad"].Status)

	assert.Equal(t, StatusFailed, got["vm2.short"].Status)
	assert.Contains(t, got["vm2.short"].Message, "projects 2 columns, 1 are declared")

	assert.Equal(t, StatusFailed, got["vm2.ping"].Status)
	assert.Equal(t, StatusFailed, got["vm2.pong"].Status)
	assert.Contains(t, got["vm2.ping"].Message, "definition cycle")
	assert.Equal(t, StatusSkipped, got["vm2.on_ping"].Status)

	assert.Equal(t, StatusOK, got["vm1.g2"].Status, "unrelated definitions are still checked")
}

func TestRun_NamesThatNeedQuoting(t *testing.T) {
	m := testutil.NewCatalog(t)
	addView(t, m, "vm3.order", "SELECT e1 FROM pm1.g1", "e1")
	require.NoError(t, m.AddGroup(&catalog.Group{
		Name:       []string{"vm3", "two words"},
		Kind:       catalog.KindView,
		Columns:    []*catalog.Column{catalog.NewColumn("e1", types.String)},
		Definition: "SELECT e1 FROM pm1.g1",
	}))

	got := byName(run(t, m))
	for _, name := range []string{"vm3.order", "vm3.two words"} {
		require.Contains(t, got, name)
		assert.Equal(t, StatusOK, got[name].Status, got[name].Message)
	}
}

func TestRun_Empty(t *testing.T) {
	report := run(t, catalog.NewMemoryWithSystemFunctions())
	assert.Empty(t, report.Results)
	assert.Zero(t, report.Failed())
}

func TestDependencyGraph(t *testing.T) {
	m := testutil.NewCatalog(t)
	g, defs := dependencyGraph(m)
	assert.Len(t, defs, 4)
	assert.Equal(t, []string{"vm1.g1"}, g.Deps("vm1.g2"))
	assert.Empty(t, g.Deps("vm1.g1"), "physical groups are not nodes")
	assert.Equal(t, []string{"vm1.cycle"}, g.Deps("vm1.cycle"))
}
