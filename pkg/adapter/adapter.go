// Package adapter provides the contract for reading catalog metadata out of
// a live database.
//
// An adapter connects to a source database and introspects its schemas
// into a catalog.Memory the resolver can bind against. Concrete adapters
// live in pkg/adapters subdirectories and register themselves by driver
// name in their init functions.
package adapter

import (
	"context"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
)

// Config describes a source database.
type Config struct {
	// Driver selects the registered adapter (postgres, duckdb, sqlite).
	Driver string `koanf:"driver"`

	// DSN is the driver connection string or database path.
	DSN string `koanf:"dsn"`

	// Schemas limits introspection. Empty means the adapter's default
	// schema.
	Schemas []string `koanf:"schemas"`

	// Options carries driver-specific settings.
	Options map[string]string `koanf:"options"`
}

// Adapter defines the interface every introspection adapter implements.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Introspect reads the tables, views, columns and keys of the
	// configured schemas. Each schema becomes a model of the catalog.
	Introspect(ctx context.Context) (*catalog.Memory, error)

	// DefaultSchema is introspected when Config.Schemas is empty.
	DefaultSchema() string
}
