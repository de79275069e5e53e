// Package duckdb provides a DuckDB introspection adapter.
//
// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/fedsql/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/fedsql/pkg/adapter"
)

func init() {
	adapter.Register(adapter.Registration{
		Name:    "duckdb",
		Summary: "DuckDB databases via information_schema",
		New:     func(logger *slog.Logger) adapter.Adapter { return New(logger) },
	})
}
