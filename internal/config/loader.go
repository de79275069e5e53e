package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names onto config keys where they differ.
var flagKeys = map[string]string{
	"catalog":        "catalog.file",
	"snapshot":       "catalog.snapshot",
	"driver":         "catalog.source.driver",
	"dsn":            "catalog.source.dsn",
	"schemas":        "catalog.source.schemas",
	"state":          "state_path",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"max-view-depth": "resolver.max_view_depth",
}

// envKeys restores underscores that belong to a key name after
// FEDSQL_RESOLVER_MAX_VIEW_DEPTH style variables are split on '_'.
var envKeys = strings.NewReplacer(
	"state.path", "state_path",
	"max.view.depth", "max_view_depth",
)

// envKey transforms FEDSQL_CATALOG_SOURCE_DSN into catalog.source.dsn.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return envKeys.Replace(strings.ReplaceAll(key, "_", "."))
}

// configExistsIn returns the config file in dir, or "".
func configExistsIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a fedsql config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if path := configExistsIn(dir); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, already absolute, or :memory:.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// Load loads configuration from defaults, the config file, environment
// variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
//
// When cfgFile is empty, fedsql.yaml (or fedsql.yml) is searched for
// upward from the working directory. Relative paths in the file resolve
// against the file's directory; paths given as flags resolve against the
// working directory.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	projectRoot := cwd
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment variables (FEDSQL_ prefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Paths set so far are relative to the project root; flag paths are not.
	fileCatalog := resolvePathRelativeTo(k.String("catalog.file"), projectRoot)
	statePath := resolvePathRelativeTo(k.String("state_path"), projectRoot)

	// 4. Flags (only those explicitly set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
		if f := flags.Lookup("catalog"); f != nil && f.Changed {
			fileCatalog, _ = filepath.Abs(f.Value.String())
		}
		if f := flags.Lookup("state"); f != nil && f.Changed {
			statePath, _ = filepath.Abs(f.Value.String())
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, catalog.UnmarshalConf(&cfg)); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = cfgFile
	cfg.Catalog.File = fileCatalog
	cfg.StatePath = statePath
	cfg.Catalog.Source.DSN = expandEnvVars(cfg.Catalog.Source.DSN)
	for name, v := range cfg.Catalog.Source.Options {
		cfg.Catalog.Source.Options[name] = expandEnvVars(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
