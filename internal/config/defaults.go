package config

// Default configuration values.
const (
	ConfigFileName    = "fedsql.yaml"
	ConfigFileNameAlt = "fedsql.yml"
	EnvPrefix         = "FEDSQL_"

	DefaultStateFile    = ".fedsql/state.db"
	DefaultOutput       = "text"
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
	DefaultMaxViewDepth = 32
	DefaultParallel     = 4
	DefaultServeAddr    = "127.0.0.1:8787"
)

func defaults() map[string]any {
	return map[string]any{
		"state_path":              DefaultStateFile,
		"output":                  DefaultOutput,
		"log.level":               DefaultLogLevel,
		"log.format":              DefaultLogFormat,
		"resolver.max_view_depth": DefaultMaxViewDepth,
		"parallel":                DefaultParallel,
		"serve.addr":              DefaultServeAddr,
	}
}
