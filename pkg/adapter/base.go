package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
)

// ErrNotConnected is returned by operations that need an open connection.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close and information_schema introspection.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger

	// Placeholder renders the n-th (1-based) bind parameter. Nil means '?'.
	Placeholder func(n int) string
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Schemas returns the configured schemas, or def when none are configured.
func (b *BaseSQLAdapter) Schemas(def string) []string {
	if len(b.Cfg.Schemas) > 0 {
		return b.Cfg.Schemas
	}
	return []string{def}
}

// placeholders renders n bind parameters separated by commas.
func (b *BaseSQLAdapter) placeholders(n int) string {
	out := make([]string, n)
	for i := range out {
		if b.Placeholder != nil {
			out[i] = b.Placeholder(i + 1)
		} else {
			out[i] = "?"
		}
	}
	return strings.Join(out, ", ")
}

// IntrospectInformationSchema reads the columns and key constraints of
// schemas through information_schema. Views are imported as read-only
// groups; their definitions are in the source dialect and are not
// expanded.
func (b *BaseSQLAdapter) IntrospectInformationSchema(ctx context.Context, schemas []string) (*catalog.Memory, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	args := make([]any, len(schemas))
	for i, s := range schemas {
		args[i] = s
	}
	in := b.placeholders(len(schemas))
	builder := NewBuilder()

	//nolint:gosec // placeholders come from the adapter, not from input
	columns := fmt.Sprintf(`
		SELECT
			c.table_schema,
			c.table_name,
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.ordinal_position,
			t.table_type
		FROM information_schema.columns c
		JOIN information_schema.tables t
			ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema IN (%s)
		ORDER BY c.table_schema, c.table_name, c.ordinal_position
	`, in)
	rows, err := b.DB.QueryContext(ctx, columns, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	for rows.Next() {
		var schema, table, column, dataType, nullable, tableType string
		var position int
		if err := rows.Scan(&schema, &table, &column, &dataType, &nullable, &position, &tableType); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		builder.AddColumn(schema, table, ColumnInfo{
			Name:       column,
			NativeType: dataType,
			Nullable:   nullable == "YES",
			Position:   position,
		}, strings.EqualFold(tableType, "VIEW"))
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	_ = rows.Close()

	//nolint:gosec // placeholders come from the adapter, not from input
	keys := fmt.Sprintf(`
		SELECT
			tc.table_schema,
			tc.table_name,
			tc.constraint_name,
			tc.constraint_type,
			kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
			AND kcu.table_name = tc.table_name
		WHERE tc.table_schema IN (%s)
		ORDER BY tc.table_schema, tc.table_name, tc.constraint_name, kcu.ordinal_position
	`, in)
	rows, err = b.DB.QueryContext(ctx, keys, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query key metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var schema, table, name, kind, column string
		if err := rows.Scan(&schema, &table, &name, &kind, &column); err != nil {
			return nil, fmt.Errorf("failed to scan key metadata: %w", err)
		}
		builder.AddKeyColumn(schema, table, name, kind, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key metadata: %w", err)
	}

	if b.Logger != nil {
		b.Logger.Debug("introspected schemas", "schemas", schemas, "groups", builder.Len())
	}
	return builder.Build()
}
