package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/pkg/types"
)

const testConfig = `
catalog:
  file: metadata/catalog.yaml
  source:
    driver: postgres
    dsn: postgres://app:${FEDSQL_TEST_PASSWORD}@db/warehouse
    schemas: [sales, hr]
functions:
  - { name: mask, params: [string, integer], returns: string }
resolver:
  max_view_depth: 8
log:
  level: debug
output: json
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("catalog", "", "")
	flags.String("state", "", "")
	flags.String("driver", "", "")
	flags.StringSlice("schemas", nil, "")
	flags.String("output", "", "")
	flags.String("log-level", "", "")
	flags.Int("parallel", 0, "")
	flags.Int("max-view-depth", 0, "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultMaxViewDepth, cfg.Resolver.MaxViewDepth)
	assert.Equal(t, DefaultParallel, cfg.Parallel)
	assert.Equal(t, DefaultServeAddr, cfg.Serve.Addr)
	assert.Equal(t, SourceNone, cfg.Catalog.Kind())
	assert.Empty(t, cfg.ConfigFile)
	assert.True(t, filepath.IsAbs(cfg.StatePath))
	assert.Equal(t, DefaultStateFile, filepath.ToSlash(mustRel(t, cfg.ProjectRoot, cfg.StatePath)))
}

func mustRel(t *testing.T, base, target string) string {
	t.Helper()
	rel, err := filepath.Rel(base, target)
	require.NoError(t, err)
	return rel
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, testConfig)
	t.Setenv("FEDSQL_TEST_PASSWORD", "s3cret")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, filepath.Join(dir, "metadata", "catalog.yaml"), cfg.Catalog.File)
	assert.Equal(t, SourceFile, cfg.Catalog.Kind())
	assert.Equal(t, "postgres", cfg.Catalog.Source.Driver)
	assert.Equal(t, "postgres://app:s3cret@db/warehouse", cfg.Catalog.Source.DSN)
	assert.Equal(t, []string{"sales", "hr"}, cfg.Catalog.Source.Schemas)
	assert.Equal(t, 8, cfg.Resolver.MaxViewDepth)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Output)

	sigs := cfg.Signatures()
	require.Len(t, sigs, 1)
	assert.Equal(t, "mask", sigs[0].Name)
	assert.Equal(t, []types.DataType{types.String, types.Integer}, sigs[0].Params)
	assert.Equal(t, types.String, sigs[0].Returns)
}

func TestLoad_FoundUpward(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "output: json\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.ConfigFile)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "output: json\nparallel: 2\nlog:\n  level: info\n")

	t.Setenv("FEDSQL_PARALLEL", "6")
	t.Setenv("FEDSQL_LOG_LEVEL", "error")
	t.Setenv("FEDSQL_RESOLVER_MAX_VIEW_DEPTH", "3")
	t.Setenv("FEDSQL_CATALOG_SOURCE_DRIVER", "sqlite")
	t.Setenv("FEDSQL_SERVE_ADDR", ":9000")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--output", "text", "--driver", "duckdb", "--schemas", "main,aux"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Output, "flag beats file")
	assert.Equal(t, 6, cfg.Parallel, "env beats file")
	assert.Equal(t, "error", cfg.Log.Level, "env beats file")
	assert.Equal(t, 3, cfg.Resolver.MaxViewDepth)
	assert.Equal(t, "duckdb", cfg.Catalog.Source.Driver, "flag beats env")
	assert.Equal(t, []string{"main", "aux"}, cfg.Catalog.Source.Schemas)
	assert.Equal(t, SourceDatabase, cfg.Catalog.Kind())
	assert.Equal(t, ":9000", cfg.Serve.Addr)
}

func TestLoad_FlagPathsResolveAgainstWorkingDir(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "catalog:\n  file: from-file.yaml\n")
	work := t.TempDir()
	t.Chdir(work)

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--catalog", "cat.yaml", "--state", "s.db"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	workAbs, err := filepath.Abs(".")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workAbs, "cat.yaml"), cfg.Catalog.File)
	assert.Equal(t, filepath.Join(workAbs, "s.db"), cfg.StatePath)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "bad output", content: "output: xml\n", errMsg: "output must be one of"},
		{name: "bad log level", content: "log:\n  level: loud\n", errMsg: "log.level must be one of"},
		{name: "bad log format", content: "log:\n  format: xml\n", errMsg: "log.format must be one of"},
		{name: "negative parallel", content: "parallel: -1\n", errMsg: "parallel must not be negative"},
		{name: "negative depth", content: "resolver:\n  max_view_depth: -2\n", errMsg: "max_view_depth"},
		{name: "empty serve addr", content: "serve:\n  addr: \"\"\n", errMsg: "serve.addr must not be empty"},
		{name: "unnamed function", content: "functions:\n  - { returns: string }\n", errMsg: "functions[0]: name is required"},
		{name: "variadic function without params", content: "functions:\n  - { name: anyf, variadic: true, returns: string }\n", errMsg: "functions[0]: function anyf: variadic requires at least one parameter"},
		{name: "bad type name", content: "functions:\n  - { name: f, returns: nope }\n", errMsg: "unable to decode config"},
		{name: "malformed yaml", content: "output: [\n", errMsg: "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"FEDSQL_OUTPUT", "output"},
		{"FEDSQL_STATE_PATH", "state_path"},
		{"FEDSQL_CATALOG_SOURCE_DSN", "catalog.source.dsn"},
		{"FEDSQL_RESOLVER_MAX_VIEW_DEPTH", "resolver.max_view_depth"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, envKey(tt.in), tt.in)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FEDSQL_TEST_HOST", "db.internal")
	assert.Equal(t, "host=db.internal", expandEnvVars("host=${FEDSQL_TEST_HOST}"))
	assert.Equal(t, "${FEDSQL_TEST_UNSET_VAR}", expandEnvVars("${FEDSQL_TEST_UNSET_VAR}"))
}
