// Package sqlite provides a SQLite introspection adapter.
//
// This file registers the SQLite adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/fedsql/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/fedsql/pkg/adapter"
)

func init() {
	adapter.Register(adapter.Registration{
		Name:    "sqlite",
		Aliases: []string{"sqlite3"},
		Summary: "SQLite files via sqlite_master and pragmas",
		New:     func(logger *slog.Logger) adapter.Adapter { return New(logger) },
	})
}
