package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/internal/testutil"
	"github.com/leapstack-labs/fedsql/pkg/adapter"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

func connect(t *testing.T, dsn string, ddl ...string) *Adapter {
	t.Helper()
	ctx := context.Background()
	adp := New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(ctx, adapter.Config{DSN: dsn}))
	t.Cleanup(func() { _ = adp.Close() })
	for _, stmt := range ddl {
		_, err := adp.DB.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	return adp
}

func TestAdapter_Introspect(t *testing.T) {
	adp := connect(t, "",
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, email TEXT NOT NULL, joined DATETIME)`,
		`CREATE UNIQUE INDEX customers_email ON customers (email)`,
		`CREATE TABLE orders (
			id INTEGER NOT NULL,
			line INTEGER NOT NULL,
			customer_id INTEGER REFERENCES customers (id),
			total NUMERIC(10,2),
			note VARCHAR(40),
			PRIMARY KEY (id, line)
		)`,
		`CREATE INDEX orders_total ON orders (total)`,
		`CREATE VIEW big_orders AS SELECT id, total FROM orders WHERE total > 100`,
	)

	m, err := adp.Introspect(context.Background())
	require.NoError(t, err)

	customers, err := m.FindGroup([]string{"main", "customers"})
	require.NoError(t, err)
	require.Len(t, customers.Columns, 3)
	assert.Equal(t, types.Integer, customers.Columns[0].Type)
	assert.False(t, customers.Columns[0].Nullable)
	assert.Equal(t, types.String, customers.Columns[1].Type)
	assert.Equal(t, types.Timestamp, customers.Columns[2].Type)
	assert.True(t, customers.Columns[2].Nullable)

	keys, err := m.Keys(customers)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, catalog.KeyPrimary, keys[0].Kind)
	assert.Equal(t, catalog.KeyUnique, keys[1].Kind)
	assert.Equal(t, []string{"email"}, keys[1].Columns)

	orders, err := m.FindGroup([]string{"orders"})
	require.NoError(t, err)
	assert.Equal(t, types.BigDecimal, orders.Columns[3].Type)
	assert.Equal(t, types.String, orders.Columns[4].Type)

	keys, err = m.Keys(orders)
	require.NoError(t, err)
	kinds := map[catalog.KeyKind][]string{}
	for _, k := range keys {
		kinds[k.Kind] = k.Columns
	}
	assert.Equal(t, []string{"id", "line"}, kinds[catalog.KeyPrimary])
	assert.Equal(t, []string{"total"}, kinds[catalog.KeyIndex])
	assert.Equal(t, []string{"customer_id"}, kinds[catalog.KeyForeign])

	view, err := m.FindGroup([]string{"big_orders"})
	require.NoError(t, err)
	assert.False(t, view.Updatable)
	assert.Len(t, view.Columns, 2)
}

func TestAdapter_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.db")
	connect(t, path, `CREATE TABLE t (a TEXT)`)

	adp := connect(t, path)
	m, err := adp.Introspect(context.Background())
	require.NoError(t, err)
	_, err = m.FindGroup([]string{"main", "t"})
	require.NoError(t, err)
}

func TestAdapter_UnknownSchema(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, adapter.Config{Schemas: []string{"nope"}}))
	defer func() { _ = adp.Close() }()

	_, err := adp.Introspect(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list tables in nope")
}

func TestAdapter_NotConnected(t *testing.T) {
	_, err := New(nil).Introspect(context.Background())
	require.ErrorIs(t, err, adapter.ErrNotConnected)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"main"`, quoteIdent("main"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}
