package commands

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ResolveOptions holds options for the resolve command.
type ResolveOptions struct {
	Expr      string
	Procedure string
	Bindings  bool
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	opts := &ResolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve [file...]",
		Short: "Resolve SQL statements against the catalog",
		Long: `Parse and resolve SQL statements against the configured catalog.

Every column reference is bound to a group and element, functions are
matched to signatures and implicit conversions are inserted. Statements in
one file share temp tables; files are resolved concurrently. Use "-" to
read from stdin.`,
		Example: `  fedsql resolve queries.sql
  fedsql resolve -e "SELECT e1, e2 FROM pm1.g1" --bindings
  fedsql resolve --procedure vm1.proc
  cat batch.sql | fedsql resolve - -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Expr, "expr", "e", "", "SQL text to resolve instead of files")
	cmd.Flags().StringVar(&opts.Procedure, "procedure", "", "Resolve the body of a virtual procedure")
	cmd.Flags().BoolVarP(&opts.Bindings, "bindings", "b", false, "Show the binding of every column reference")

	return cmd
}

func runResolve(cmd *cobra.Command, args []string, opts *ResolveOptions) error {
	ctx := cmd.Context()
	rt := GetRuntime(ctx)

	if opts.Expr == "" && opts.Procedure == "" && len(args) == 0 {
		return errors.New("nothing to resolve: pass files, --expr or --procedure")
	}

	cat, _, err := rt.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	r := rt.NewResolver(cat)
	ro := resolveOptions{Bindings: opts.Bindings}

	var results []statementResult
	if opts.Procedure != "" {
		results = append(results, resolveProcedure(r, opts.Procedure, ro))
	}
	if opts.Expr != "" {
		res, err := resolveScript(ctx, r, "expr", opts.Expr, ro)
		if err != nil {
			return err
		}
		results = append(results, res...)
	}

	perFile := make([][]statementResult, len(args))
	eg, egctx := errgroup.WithContext(ctx)
	if rt.Config.Parallel > 0 {
		eg.SetLimit(rt.Config.Parallel)
	}
	for i, path := range args {
		eg.Go(func() error {
			text, err := readSource(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			res, err := resolveScript(egctx, r, path, text, ro)
			if err != nil {
				return err
			}
			perFile[i] = res
			rt.Logger.Debug("resolved file", slog.String("file", path), slog.Int("statements", len(res)))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	for _, res := range perFile {
		results = append(results, res...)
	}

	return renderResults(rt.Renderer, results)
}
