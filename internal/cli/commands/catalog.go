package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/fedsql/internal/check"
	"github.com/leapstack-labs/fedsql/internal/cli/output"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
)

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect, export and snapshot the catalog",
		Long: `Inspect the configured catalog, export it as YAML, or save it as a
snapshot in the local state database so it can be used without a
connection to the source.`,
	}

	cmd.AddCommand(newCatalogShowCommand())
	cmd.AddCommand(newCatalogDumpCommand())
	cmd.AddCommand(newCatalogCheckCommand())
	cmd.AddCommand(newSnapshotCommand())
	return cmd
}

type groupSummary struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Columns   int      `json:"columns"`
	Keys      []string `json:"keys,omitempty"`
	Updatable bool     `json:"updatable"`
}

type procedureSummary struct {
	Name    string `json:"name"`
	Params  int    `json:"params"`
	Results int    `json:"results"`
	Virtual bool   `json:"virtual,omitempty"`
}

func describeKey(k *catalog.Key) string {
	return fmt.Sprintf("%s(%s)", k.Kind, strings.Join(k.Columns, ", "))
}

func newCatalogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "List groups and procedures, or describe one",
		Example: `  fedsql catalog show
  fedsql catalog show pm1.g1
  fedsql catalog show sq3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt := GetRuntime(ctx)
			m, desc, err := rt.LoadCatalog(ctx)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return showObject(rt.Renderer, m, args[0])
			}
			return showCatalog(rt.Renderer, m, desc)
		},
	}
}

// summarize lists every group and procedure of m.
func summarize(m *catalog.Memory) ([]groupSummary, []procedureSummary) {
	var groups []groupSummary
	for _, g := range m.Groups() {
		s := groupSummary{Name: g.FullName(), Kind: g.Kind.String(), Columns: len(g.Columns), Updatable: g.Updatable}
		for _, k := range g.Keys {
			s.Keys = append(s.Keys, describeKey(k))
		}
		groups = append(groups, s)
	}
	var procs []procedureSummary
	for _, p := range m.Procedures() {
		procs = append(procs, procedureSummary{Name: p.FullName(), Params: len(p.Params), Results: len(p.Results), Virtual: p.Virtual})
	}
	return groups, procs
}

func showCatalog(r *output.Renderer, m *catalog.Memory, desc string) error {
	groups, procs := summarize(m)

	if r.Mode() == output.ModeJSON {
		return r.JSON(map[string]any{"source": desc, "groups": groups, "procedures": procs})
	}

	r.Header("Catalog: %s", desc)
	rows := make([][]any, len(groups))
	for i, g := range groups {
		rows[i] = []any{g.Name, g.Kind, g.Columns, strings.Join(g.Keys, "; "), yesNo(g.Updatable)}
	}
	r.Table([]string{"group", "kind", "columns", "keys", "updatable"}, rows)
	if len(procs) > 0 {
		rows = make([][]any, len(procs))
		for i, p := range procs {
			rows[i] = []any{p.Name, p.Params, p.Results, yesNo(p.Virtual)}
		}
		r.Table([]string{"procedure", "params", "results", "virtual"}, rows)
	}
	return nil
}

func showObject(r *output.Renderer, m *catalog.Memory, name string) error {
	path := catalog.SplitPath(name)
	g, gerr := m.FindGroup(path)
	if gerr == nil {
		return showGroup(r, m, g)
	}
	p, perr := m.FindProcedure(path)
	if perr == nil {
		return showProcedure(r, p)
	}
	return gerr
}

func showGroup(r *output.Renderer, m *catalog.Memory, g *catalog.Group) error {
	keys, err := m.Keys(g)
	if err != nil {
		return err
	}
	if r.Mode() == output.ModeJSON {
		doc := catalog.ToDocument(singleGroup(g), nil)
		return r.JSON(doc.Models[0])
	}

	r.Header("%s %s", g.Kind, g.FullName())
	rows := make([][]any, len(g.Columns))
	for i, c := range g.Columns {
		rows[i] = []any{c.Name, c.Type.String(), yesNo(c.Nullable), yesNo(c.Selectable), yesNo(c.Updatable)}
	}
	r.Table([]string{"column", "type", "nullable", "selectable", "updatable"}, rows)
	if len(keys) > 0 {
		rows = make([][]any, len(keys))
		for i, k := range keys {
			rows[i] = []any{k.Name, k.Kind.String(), strings.Join(k.Columns, ", "), catalog.JoinPath(k.References)}
		}
		r.Table([]string{"key", "kind", "columns", "references"}, rows)
	}
	if g.Definition != "" {
		r.Muted("%s", g.Definition)
	}
	return nil
}

func singleGroup(g *catalog.Group) *catalog.Memory {
	m := catalog.NewMemory()
	_ = m.AddGroup(g)
	return m
}

func showProcedure(r *output.Renderer, p *catalog.Procedure) error {
	if r.Mode() == output.ModeJSON {
		m := catalog.NewMemory()
		_ = m.AddProcedure(p)
		return r.JSON(catalog.ToDocument(m, nil).Models[0])
	}

	kind := "procedure"
	if p.Virtual {
		kind = "virtual procedure"
	}
	r.Header("%s %s", kind, p.FullName())
	rows := make([][]any, len(p.Params))
	for i, prm := range p.Params {
		def := ""
		if prm.HasDefault {
			def = prm.Default
		}
		rows[i] = []any{prm.Name, prm.Type.String(), prm.Mode.String(), def}
	}
	r.Table([]string{"parameter", "type", "mode", "default"}, rows)
	if len(p.Results) > 0 {
		rows = make([][]any, len(p.Results))
		for i, c := range p.Results {
			rows[i] = []any{c.Name, c.Type.String()}
		}
		r.Table([]string{"result", "type"}, rows)
	}
	if p.Body != "" {
		r.Muted("%s", p.Body)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newCatalogDumpCommand() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the catalog as a YAML catalog file",
		Long: `Write the configured catalog, including user-defined functions from
the configuration, in the catalog file format accepted by catalog.file.`,
		Example: `  fedsql catalog dump --driver postgres --dsn "$PG_URL" -f catalog.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt := GetRuntime(ctx)
			m, _, err := rt.LoadCatalog(ctx)
			if err != nil {
				return err
			}
			doc := catalog.ToDocument(m, m.UserSignatures())
			if outFile == "" {
				return catalog.Encode(cmd.OutOrStdout(), doc)
			}
			if err := catalog.WriteFile(outFile, doc); err != nil {
				return err
			}
			rt.Renderer.Success("Wrote %d group(s) to %s", len(m.Groups()), outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "file", "f", "", "Write to a file instead of stdout")
	return cmd
}

func newCatalogCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Resolve every view definition and virtual procedure",
		Long: `Resolve every view definition and virtual procedure body of the
catalog in dependency order. Definitions in a cycle fail, and definitions
that depend on a failed one are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt := GetRuntime(ctx)
			m, desc, err := rt.LoadCatalog(ctx)
			if err != nil {
				return err
			}
			report, err := check.Run(ctx, rt.NewResolver(m), m, check.Options{Parallel: rt.Config.Parallel, Logger: rt.Logger})
			if err != nil {
				return err
			}

			r := rt.Renderer
			if r.Mode() == output.ModeJSON {
				if err := r.JSON(report); err != nil {
					return err
				}
			} else {
				r.Header("Checking %s", desc)
				rows := make([][]any, len(report.Results))
				for i, res := range report.Results {
					rows[i] = []any{res.Name, res.Kind, res.Level, string(res.Status), res.Message}
				}
				r.Table([]string{"name", "kind", "level", "status", "message"}, rows)
			}

			failed := report.Failed()
			if failed > 0 {
				return fmt.Errorf("%d of %d definition(s) did not check", failed, len(report.Results))
			}
			if r.Mode() != output.ModeJSON {
				r.Success("%d definition(s) ok", len(report.Results))
			}
			return nil
		},
	}
}

func newSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage catalog snapshots in the state database",
	}
	cmd.AddCommand(newSnapshotSaveCommand())
	cmd.AddCommand(newSnapshotListCommand())
	cmd.AddCommand(newSnapshotDeleteCommand())
	cmd.AddCommand(newSnapshotPruneCommand())
	return cmd
}

func newSnapshotSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "save <name>",
		Short:   "Save the configured catalog as a named snapshot",
		Example: `  fedsql catalog snapshot save warehouse --driver postgres --dsn "$PG_URL"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt := GetRuntime(ctx)
			m, desc, err := rt.LoadCatalog(ctx)
			if err != nil {
				return err
			}
			store, err := rt.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snap, err := store.Save(ctx, args[0], desc, m, m.UserSignatures())
			if err != nil {
				return err
			}
			if rt.Renderer.Mode() == output.ModeJSON {
				return rt.Renderer.JSON(snap)
			}
			rt.Renderer.Success("Saved snapshot %s (%s): %d group(s), %d procedure(s)", snap.Name, snap.ID, snap.Groups, snap.Procedures)
			return nil
		},
	}
}

func newSnapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt := GetRuntime(ctx)
			store, err := rt.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snaps, err := store.List(ctx)
			if err != nil {
				return err
			}
			if rt.Renderer.Mode() == output.ModeJSON {
				return rt.Renderer.JSON(snaps)
			}
			if len(snaps) == 0 {
				rt.Renderer.Muted("No snapshots in %s", store.Path())
				return nil
			}
			rows := make([][]any, len(snaps))
			for i, s := range snaps {
				rows[i] = []any{s.Name, s.ID, s.Source, s.Groups, s.Procedures, s.CreatedAt.Local().Format(time.DateTime)}
			}
			rt.Renderer.Table([]string{"name", "id", "source", "groups", "procedures", "created"}, rows)
			return nil
		},
	}
}

func newSnapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name|id>",
		Short: "Delete a snapshot by id, or every snapshot with a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt := GetRuntime(ctx)
			store, err := rt.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			rt.Renderer.Success("Deleted %s", args[0])
			return nil
		},
	}
}

func newSnapshotPruneCommand() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Keep only the newest snapshots of each name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt := GetRuntime(ctx)
			store, err := rt.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.Prune(ctx, keep)
			if err != nil {
				return err
			}
			rt.Renderer.Success("Removed %d snapshot(s)", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 3, "Snapshots to keep per name")
	return cmd
}

