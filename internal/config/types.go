// Package config loads fedsql configuration from defaults, a fedsql.yaml
// file, FEDSQL_ environment variables and command-line flags.
package config

import (
	"github.com/leapstack-labs/fedsql/pkg/adapter"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
)

// Config holds all configuration options.
type Config struct {
	Catalog   CatalogConfig         `koanf:"catalog"`
	StatePath string                `koanf:"state_path"`
	Functions []catalog.FunctionDoc `koanf:"functions"`
	Resolver  ResolverConfig        `koanf:"resolver"`
	Log       LogConfig             `koanf:"log"`
	Output    string                `koanf:"output"`
	Parallel  int                   `koanf:"parallel"`
	Serve     ServeConfig           `koanf:"serve"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was read, if any.
	ConfigFile string `koanf:"-"`
}

// CatalogConfig selects where metadata comes from. When more than one is
// set, File wins over Snapshot and Snapshot wins over Source.
type CatalogConfig struct {
	File     string         `koanf:"file"`
	Snapshot string         `koanf:"snapshot"`
	Source   adapter.Config `koanf:"source"`
}

// SourceKind names the configured catalog source.
type SourceKind string

// Catalog source kinds.
const (
	SourceNone     SourceKind = ""
	SourceFile     SourceKind = "file"
	SourceSnapshot SourceKind = "snapshot"
	SourceDatabase SourceKind = "database"
)

// Kind reports which catalog source is in effect.
func (c CatalogConfig) Kind() SourceKind {
	switch {
	case c.File != "":
		return SourceFile
	case c.Snapshot != "":
		return SourceSnapshot
	case c.Source.Driver != "":
		return SourceDatabase
	default:
		return SourceNone
	}
}

// ResolverConfig tunes the resolver.
type ResolverConfig struct {
	MaxViewDepth int `koanf:"max_view_depth"`
}

// ServeConfig configures the HTTP API started by fedsql serve.
type ServeConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Signatures returns the configured user-defined functions.
func (c *Config) Signatures() []*catalog.Signature {
	out := make([]*catalog.Signature, len(c.Functions))
	for i, f := range c.Functions {
		out[i] = f.Signature()
	}
	return out
}
