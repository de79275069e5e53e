package adapter

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		expectErr bool
	}{
		{
			name:      "close with nil DB",
			setupDB:   false,
			expectErr: false,
		},
		{
			name:      "close with open DB",
			setupDB:   true,
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			err := base.Close()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_IsConnected(t *testing.T) {
	base := &BaseSQLAdapter{}
	assert.False(t, base.IsConnected())

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	base.DB = db
	assert.True(t, base.IsConnected())
}

func TestBaseSQLAdapter_Schemas(t *testing.T) {
	base := &BaseSQLAdapter{}
	assert.Equal(t, []string{"public"}, base.Schemas("public"))

	base.Cfg.Schemas = []string{"sales", "hr"}
	assert.Equal(t, []string{"sales", "hr"}, base.Schemas("public"))
}

func columnRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"table_schema", "table_name", "column_name", "data_type", "is_nullable", "ordinal_position", "table_type"}).
		AddRow("sales", "orders", "id", "integer", "NO", 1, "BASE TABLE").
		AddRow("sales", "orders", "customer", "character varying", "YES", 2, "BASE TABLE").
		AddRow("sales", "orders", "total", "numeric(10,2)", "YES", 3, "BASE TABLE").
		AddRow("sales", "recent", "id", "integer", "YES", 1, "VIEW")
}

func keyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"table_schema", "table_name", "constraint_name", "constraint_type", "column_name"}).
		AddRow("sales", "orders", "orders_pkey", "PRIMARY KEY", "id").
		AddRow("sales", "orders", "orders_ref", "UNIQUE", "customer").
		AddRow("sales", "orders", "orders_ref", "UNIQUE", "total")
}

func TestBaseSQLAdapter_IntrospectInformationSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM information_schema.columns c`).
		WithArgs("sales").
		WillReturnRows(columnRows())
	mock.ExpectQuery(`FROM information_schema.table_constraints tc`).
		WithArgs("sales").
		WillReturnRows(keyRows())

	base := &BaseSQLAdapter{DB: db, Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }}
	m, err := base.IntrospectInformationSchema(context.Background(), []string{"sales"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	orders, err := m.FindGroup([]string{"orders"})
	require.NoError(t, err)
	assert.Equal(t, "sales.orders", orders.FullName())
	assert.True(t, orders.Updatable)
	require.Len(t, orders.Columns, 3)
	assert.Equal(t, types.Integer, orders.Columns[0].Type)
	assert.False(t, orders.Columns[0].Nullable)
	assert.Equal(t, types.String, orders.Columns[1].Type)
	assert.Equal(t, types.BigDecimal, orders.Columns[2].Type)

	keys, err := m.Keys(orders)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, catalog.KeyPrimary, keys[0].Kind)
	assert.Equal(t, catalog.KeyUnique, keys[1].Kind)
	assert.Equal(t, []string{"customer", "total"}, keys[1].Columns)

	recent, err := m.FindGroup([]string{"sales", "recent"})
	require.NoError(t, err)
	assert.False(t, recent.Updatable)
	assert.False(t, recent.Columns[0].Updatable)
	assert.Equal(t, catalog.KindTable, recent.Kind)

	fns, err := m.Functions("concat")
	require.NoError(t, err)
	assert.NotEmpty(t, fns, "introspected catalogs carry the system functions")
}

func TestBaseSQLAdapter_IntrospectErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		errMsg    string
	}{
		{
			name:   "without connection",
			errMsg: "database connection not established",
		},
		{
			name:    "column query fails",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("information_schema.columns").WillReturnError(assert.AnError)
			},
			errMsg: "failed to query column metadata",
		},
		{
			name:    "key query fails",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("information_schema.columns").WillReturnRows(columnRows())
				mock.ExpectQuery("information_schema.table_constraints").WillReturnError(assert.AnError)
			},
			errMsg: "failed to query key metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}
			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()
				tt.setupMock(mock)
				base.DB = db
			}

			_, err := base.IntrospectInformationSchema(context.Background(), []string{"main"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
