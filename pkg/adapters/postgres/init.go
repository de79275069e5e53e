// Package postgres provides a PostgreSQL introspection adapter.
//
// This file registers the PostgreSQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/fedsql/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/fedsql/pkg/adapter"
)

func init() {
	adapter.Register(adapter.Registration{
		Name:    "postgres",
		Aliases: []string{"postgresql", "pgx"},
		Summary: "PostgreSQL via pgx and information_schema",
		New:     func(logger *slog.Logger) adapter.Adapter { return New(logger) },
	})
}
