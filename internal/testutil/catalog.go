package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// standardColumns returns the e1..e4 columns shared by the pm groups.
func standardColumns() []*catalog.Column {
	return []*catalog.Column{
		catalog.NewColumn("e1", types.String),
		catalog.NewColumn("e2", types.Integer),
		catalog.NewColumn("e3", types.Boolean),
		catalog.NewColumn("e4", types.Double),
	}
}

// NewCatalog returns an in-memory catalog with the system functions and a
// small fixed model:
//
//	pm1.g1, pm1.g2, pm2.g1  e1 string, e2 integer, e3 boolean, e4 double
//	pm1.g3                  e1 string, secret (not selectable), e2 (not updatable)
//	pm1.ro                  read-only table with e1 string
//	pm1.codes               code integer, label string
//	vm1.g1                  view over pm1.g1 (e1, e2)
//	vm1.g2                  view over vm1.g1 (e1)
//	vm1.cycle               view defined in terms of itself
//	pm1.sq1()               results e1 string, e2 integer
//	pm1.sq3(in1, in2)       both required, results e1, e2
//	pm1.sq4(in1, in2)       in2 defaults to 0, results e1
//	pm1.dup(in1)            result column also named in1
//	vm1.proc(in1, out1)     virtual procedure with a body
func NewCatalog(t testing.TB) *catalog.Memory {
	t.Helper()
	m := catalog.NewMemoryWithSystemFunctions()

	for _, name := range [][]string{{"pm1", "g1"}, {"pm1", "g2"}, {"pm2", "g1"}} {
		require.NoError(t, m.AddGroup(&catalog.Group{Name: name, Columns: standardColumns(), Updatable: true}))
	}

	secret := catalog.NewColumn("secret", types.String)
	secret.Selectable = false
	fixed := catalog.NewColumn("e2", types.Integer)
	fixed.Updatable = false
	require.NoError(t, m.AddGroup(&catalog.Group{
		Name:      []string{"pm1", "g3"},
		Columns:   []*catalog.Column{catalog.NewColumn("e1", types.String), secret, fixed},
		Updatable: true,
	}))
	require.NoError(t, m.AddGroup(&catalog.Group{
		Name:    []string{"pm1", "ro"},
		Columns: []*catalog.Column{catalog.NewColumn("e1", types.String)},
	}))
	require.NoError(t, m.AddGroup(&catalog.Group{
		Name: []string{"pm1", "codes"},
		Columns: []*catalog.Column{
			catalog.NewColumn("code", types.Integer),
			catalog.NewColumn("label", types.String),
		},
	}))

	views := []*catalog.Group{
		{
			Name:       []string{"vm1", "g1"},
			Columns:    []*catalog.Column{catalog.NewColumn("e1", types.String), catalog.NewColumn("e2", types.Integer)},
			Definition: "SELECT e1, e2 FROM pm1.g1",
		},
		{
			Name:       []string{"vm1", "g2"},
			Columns:    []*catalog.Column{catalog.NewColumn("e1", types.String)},
			Definition: "SELECT e1 FROM vm1.g1 WHERE e2 > 0",
		},
		{
			Name:       []string{"vm1", "cycle"},
			Columns:    []*catalog.Column{catalog.NewColumn("e1", types.String)},
			Definition: "SELECT e1 FROM vm1.cycle",
		},
	}
	for _, v := range views {
		v.Kind = catalog.KindView
		require.NoError(t, m.AddGroup(v))
	}

	results := func(cols ...*catalog.Column) []*catalog.Column { return cols }
	procs := []*catalog.Procedure{
		{
			Name:    []string{"pm1", "sq1"},
			Results: results(catalog.NewColumn("e1", types.String), catalog.NewColumn("e2", types.Integer)),
		},
		{
			Name: []string{"pm1", "sq3"},
			Params: []*catalog.Parameter{
				{Name: "in1", Type: types.String},
				{Name: "in2", Type: types.Integer},
			},
			Results: results(catalog.NewColumn("e1", types.String), catalog.NewColumn("e2", types.Integer)),
		},
		{
			Name: []string{"pm1", "sq4"},
			Params: []*catalog.Parameter{
				{Name: "in1", Type: types.String},
				{Name: "in2", Type: types.Integer, HasDefault: true, Default: "0"},
			},
			Results: results(catalog.NewColumn("e1", types.String)),
		},
		{
			Name:    []string{"pm1", "dup"},
			Params:  []*catalog.Parameter{{Name: "in1", Type: types.String}},
			Results: results(catalog.NewColumn("in1", types.String)),
		},
		{
			Name: []string{"vm1", "proc"},
			Params: []*catalog.Parameter{
				{Name: "in1", Type: types.Integer},
				{Name: "out1", Type: types.String, Mode: catalog.ParamOut},
			},
			Results: results(catalog.NewColumn("e1", types.String)),
			Virtual: true,
			Body: `CREATE VIRTUAL PROCEDURE BEGIN
  DECLARE integer x = in1;
  out1 = 'done';
  SELECT e1 FROM pm1.g1 WHERE e2 = x;
END`,
		},
	}
	for _, p := range procs {
		require.NoError(t, m.AddProcedure(p))
	}
	return m
}
