// Package postgres provides a PostgreSQL introspection adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/leapstack-labs/fedsql/pkg/adapter"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			Logger:      logger,
			Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		},
	}
}

// DefaultSchema implements adapter.Adapter.
func (a *Adapter) DefaultSchema() string {
	return "public"
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Options["host"]), slog.String("database", cfg.Options["database"]))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Introspect implements adapter.Adapter.
func (a *Adapter) Introspect(ctx context.Context) (*catalog.Memory, error) {
	return a.IntrospectInformationSchema(ctx, a.Schemas(a.DefaultSchema()))
}

// buildPostgresDSN returns cfg.DSN when set, otherwise a key=value
// connection string built from the host, port, database, user, password
// and sslmode options.
func buildPostgresDSN(cfg adapter.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	opts := map[string]string{
		"host":    "localhost",
		"port":    "5432",
		"sslmode": "disable",
	}
	for k, v := range cfg.Options {
		if k == "database" {
			k = "dbname"
		}
		if k == "username" {
			k = "user"
		}
		opts[k] = v
	}

	// host, port, dbname and sslmode lead; the rest follow by name.
	order := []string{"host", "port", "dbname", "sslmode"}
	var rest []string
	for k := range opts {
		switch k {
		case "host", "port", "dbname", "sslmode":
		default:
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	dsn := ""
	for _, k := range append(order, rest...) {
		v, ok := opts[k]
		if !ok {
			continue
		}
		if dsn != "" {
			dsn += " "
		}
		dsn += k + "=" + v
	}
	return dsn
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
