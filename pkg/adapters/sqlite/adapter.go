// Package sqlite provides a SQLite introspection adapter.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/leapstack-labs/fedsql/pkg/adapter"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
)

// Adapter implements the adapter.Adapter interface for SQLite.
// SQLite has no information_schema, so introspection walks sqlite_master
// and the table_info, index_list and foreign_key_list pragmas.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
}

// DefaultSchema implements adapter.Adapter.
func (a *Adapter) DefaultSchema() string {
	return "main"
}

// Connect opens the SQLite database at cfg.DSN.
// An empty DSN opens an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.DSN
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Every pooled connection to :memory: would see its own empty database.
	if strings.Contains(path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

type object struct {
	schema string
	name   string
	view   bool
}

// Introspect implements adapter.Adapter.
func (a *Adapter) Introspect(ctx context.Context) (*catalog.Memory, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	var objects []object
	for _, schema := range a.Schemas(a.DefaultSchema()) {
		found, err := a.listObjects(ctx, schema)
		if err != nil {
			return nil, err
		}
		objects = append(objects, found...)
	}

	builder := adapter.NewBuilder()
	for _, obj := range objects {
		if err := a.addColumns(ctx, builder, obj); err != nil {
			return nil, err
		}
		if obj.view {
			continue
		}
		if err := a.addIndexes(ctx, builder, obj); err != nil {
			return nil, err
		}
		if err := a.addForeignKeys(ctx, builder, obj); err != nil {
			return nil, err
		}
	}

	a.Logger.Debug("introspected sqlite", slog.Int("groups", builder.Len()))
	return builder.Build()
}

func (a *Adapter) listObjects(ctx context.Context, schema string) ([]object, error) {
	//nolint:gosec // schema names come from configuration
	query := fmt.Sprintf(`
		SELECT name, type
		FROM %s.sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%%'
		ORDER BY name
	`, quoteIdent(schema))
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", schema, err)
	}
	defer func() { _ = rows.Close() }()

	var out []object
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan table list: %w", err)
		}
		out = append(out, object{schema: schema, name: name, view: kind == "view"})
	}
	return out, rows.Err()
}

func (a *Adapter) addColumns(ctx context.Context, builder *adapter.Builder, obj object) error {
	rows, err := a.DB.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", pk FROM pragma_table_info(?, ?) ORDER BY cid`,
		obj.name, obj.schema)
	if err != nil {
		return fmt.Errorf("failed to query columns of %s: %w", obj.name, err)
	}
	defer func() { _ = rows.Close() }()

	type pkColumn struct {
		seq  int
		name string
	}
	var pk []pkColumn
	for rows.Next() {
		var cid, notNull, pkSeq int
		var name, nativeType string
		if err := rows.Scan(&cid, &name, &nativeType, &notNull, &pkSeq); err != nil {
			return fmt.Errorf("failed to scan columns of %s: %w", obj.name, err)
		}
		builder.AddColumn(obj.schema, obj.name, adapter.ColumnInfo{
			Name:       name,
			NativeType: nativeType,
			Nullable:   notNull == 0 && pkSeq == 0,
			Position:   cid + 1,
		}, obj.view)
		if pkSeq > 0 {
			pk = append(pk, pkColumn{seq: pkSeq, name: name})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating columns of %s: %w", obj.name, err)
	}

	sort.Slice(pk, func(i, j int) bool { return pk[i].seq < pk[j].seq })
	for _, c := range pk {
		builder.AddKeyColumn(obj.schema, obj.name, obj.name+"_pkey", "PRIMARY KEY", c.name)
	}
	return nil
}

func (a *Adapter) addIndexes(ctx context.Context, builder *adapter.Builder, obj object) error {
	rows, err := a.DB.QueryContext(ctx,
		`SELECT name, "unique", origin FROM pragma_index_list(?, ?) ORDER BY name`,
		obj.name, obj.schema)
	if err != nil {
		return fmt.Errorf("failed to query indexes of %s: %w", obj.name, err)
	}
	type index struct {
		name   string
		unique bool
	}
	var indexes []index
	for rows.Next() {
		var name, origin string
		var unique int
		if err := rows.Scan(&name, &unique, &origin); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan indexes of %s: %w", obj.name, err)
		}
		// Primary keys already come from table_info.
		if origin == "pk" {
			continue
		}
		indexes = append(indexes, index{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("error iterating indexes of %s: %w", obj.name, err)
	}
	_ = rows.Close()

	for _, idx := range indexes {
		kind := "INDEX"
		if idx.unique {
			kind = "UNIQUE"
		}
		cols, err := a.indexColumns(ctx, obj.schema, idx.name)
		if err != nil {
			return err
		}
		for _, col := range cols {
			builder.AddKeyColumn(obj.schema, obj.name, idx.name, kind, col)
		}
	}
	return nil
}

func (a *Adapter) indexColumns(ctx context.Context, schema, index string) ([]string, error) {
	rows, err := a.DB.QueryContext(ctx,
		`SELECT name FROM pragma_index_info(?, ?) ORDER BY seqno`, index, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query index %s: %w", index, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan index %s: %w", index, err)
		}
		// Expression indexes report a NULL column name.
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}

func (a *Adapter) addForeignKeys(ctx context.Context, builder *adapter.Builder, obj object) error {
	rows, err := a.DB.QueryContext(ctx,
		`SELECT id, "table", "from" FROM pragma_foreign_key_list(?, ?) ORDER BY id, seq`,
		obj.name, obj.schema)
	if err != nil {
		return fmt.Errorf("failed to query foreign keys of %s: %w", obj.name, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int
		var target, column string
		if err := rows.Scan(&id, &target, &column); err != nil {
			return fmt.Errorf("failed to scan foreign keys of %s: %w", obj.name, err)
		}
		builder.AddKeyColumn(obj.schema, obj.name, fmt.Sprintf("%s_%s_fkey_%d", obj.name, target, id), "FOREIGN KEY", column)
	}
	return rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
