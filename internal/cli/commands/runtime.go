// Package commands implements the fedsql subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/fedsql/internal/cli/output"
	"github.com/leapstack-labs/fedsql/internal/config"
	"github.com/leapstack-labs/fedsql/internal/state"
	"github.com/leapstack-labs/fedsql/pkg/adapter"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/resolver"
)

// Runtime carries what the root command prepared for a subcommand.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// runtimeKey is used to store the runtime in context.
type runtimeKey struct{}

// WithRuntime returns ctx carrying rt.
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// GetRuntime retrieves the runtime from the command context. Without one it
// returns defaults writing to stdout and stderr.
func GetRuntime(ctx context.Context) *Runtime {
	if ctx != nil {
		if rt, ok := ctx.Value(runtimeKey{}).(*Runtime); ok {
			return rt
		}
	}
	return &Runtime{
		Config: &config.Config{
			Output:    config.DefaultOutput,
			Parallel:  config.DefaultParallel,
			StatePath: config.DefaultStateFile,
			Resolver:  config.ResolverConfig{MaxViewDepth: config.DefaultMaxViewDepth},
			Serve:     config.ServeConfig{Addr: config.DefaultServeAddr},
		},
		Logger:   slog.New(slog.DiscardHandler),
		Renderer: output.NewRenderer(os.Stdout, os.Stderr, output.ModeText),
	}
}

// ErrNoCatalog is returned when no catalog source is configured.
var ErrNoCatalog = errors.New("no catalog configured\nHint: set catalog.file, catalog.snapshot or catalog.source in fedsql.yaml, or pass --catalog")

// LoadCatalog builds the catalog the configuration points at and adds the
// configured user-defined functions to it. The returned description names
// the source for display.
func (rt *Runtime) LoadCatalog(ctx context.Context) (*catalog.Memory, string, error) {
	cfg := rt.Config
	var (
		m    *catalog.Memory
		desc string
		err  error
	)
	switch cfg.Catalog.Kind() {
	case config.SourceFile:
		m, err = catalog.LoadFile(cfg.Catalog.File)
		desc = cfg.Catalog.File
	case config.SourceSnapshot:
		m, desc, err = rt.loadSnapshot(ctx, cfg.Catalog.Snapshot)
	case config.SourceDatabase:
		m, err = rt.Introspect(ctx)
		desc = cfg.Catalog.Source.Driver
	default:
		return nil, "", ErrNoCatalog
	}
	if err != nil {
		return nil, "", err
	}
	for _, sig := range cfg.Signatures() {
		m.AddFunction(sig)
	}
	rt.Logger.Debug("loaded catalog", slog.String("source", desc), slog.Int("groups", len(m.Groups())))
	return m, desc, nil
}

func (rt *Runtime) loadSnapshot(ctx context.Context, ref string) (*catalog.Memory, string, error) {
	store, err := rt.OpenStore(ctx)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = store.Close() }()

	m, snap, err := store.Load(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	return m, fmt.Sprintf("snapshot %s (%s)", snap.Name, snap.ID), nil
}

// Introspect connects to the configured source database and reads its
// catalog.
func (rt *Runtime) Introspect(ctx context.Context) (*catalog.Memory, error) {
	src := rt.Config.Catalog.Source
	adp, err := adapter.NewAdapter(src, rt.Logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, src); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", src.Driver, err)
	}
	defer func() { _ = adp.Close() }()

	m, err := adp.Introspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect %s: %w", src.Driver, err)
	}
	return m, nil
}

// OpenStore opens the snapshot store at the configured state path.
func (rt *Runtime) OpenStore(ctx context.Context) (*state.Store, error) {
	path := rt.Config.StatePath
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	return state.Open(ctx, path, rt.Logger)
}

// NewResolver creates a resolver over cat configured from the runtime.
func (rt *Runtime) NewResolver(cat catalog.Catalog) *resolver.Resolver {
	return resolver.New(cat, resolver.Options{
		Logger:       rt.Logger,
		MaxViewDepth: rt.Config.Resolver.MaxViewDepth,
	})
}
