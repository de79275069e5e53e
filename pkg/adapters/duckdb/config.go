package duckdb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific connection options, decoded from
// adapter.Config.Options.
type Params struct {
	// Extensions is a comma-separated list to install and load (e.g. "json,httpfs").
	Extensions string `mapstructure:"extensions"`

	// Settings are applied with SET at session level (e.g. threads, memory_limit).
	Settings map[string]string `mapstructure:",remain"`
}

// ParseParams decodes connection options into Params.
func ParseParams(options map[string]string) (*Params, error) {
	p := &Params{}
	if len(options) == 0 {
		return p, nil
	}
	if err := mapstructure.Decode(options, p); err != nil {
		return nil, fmt.Errorf("failed to decode duckdb options: %w", err)
	}
	return p, nil
}

// ExtensionList returns the configured extensions, trimmed and without blanks.
func (p *Params) ExtensionList() []string {
	var out []string
	for _, ext := range strings.Split(p.Extensions, ",") {
		if ext = strings.TrimSpace(ext); ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// Statements renders the setup statements for p: INSTALL and LOAD for each
// extension, then one SET per setting in name order.
func (p *Params) Statements() []string {
	var stmts []string
	for _, ext := range p.ExtensionList() {
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}
	names := make([]string, 0, len(p.Settings))
	for name := range p.Settings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := strings.ReplaceAll(p.Settings[name], "'", "''")
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", name, value))
	}
	return stmts
}
