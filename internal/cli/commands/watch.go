package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/fedsql/internal/config"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
)

const watchDebounce = 100 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var bindings bool
	cmd := &cobra.Command{
		Use:   "watch <file...>",
		Short: "Re-resolve SQL files whenever they or the catalog change",
		Long: `Resolve the given files, then watch them and the catalog file and
resolve again after every change. Stop with Ctrl+C.`,
		Example: `  fedsql watch queries/*.sql --bindings`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, args, resolveOptions{Bindings: bindings})
		},
	}
	cmd.Flags().BoolVarP(&bindings, "bindings", "b", false, "Show the binding of every column reference")
	return cmd
}

// watcher re-resolves a fixed set of files against a catalog that is
// reloaded when its file changes.
type watcher struct {
	rt    *Runtime
	cmd   *cobra.Command
	files []string
	opts  resolveOptions

	mu  sync.Mutex
	cat *catalog.Memory
}

func runWatch(ctx context.Context, cmd *cobra.Command, files []string, opts resolveOptions) error {
	rt := GetRuntime(ctx)
	for _, f := range files {
		if f == "-" {
			return errors.New("watch cannot read from stdin")
		}
	}

	w := &watcher{rt: rt, cmd: cmd, files: files, opts: opts}
	if err := w.pass(ctx, true); err != nil {
		rt.Renderer.Error("%v", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	watched := w.watchedPaths()
	dirs := make(map[string]bool)
	for p := range watched {
		dirs[filepath.Dir(p)] = true
	}
	// Directories rather than files, so editors that replace files on save
	// keep being observed.
	for d := range dirs {
		if err := fsw.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}

	rt.Renderer.Muted("Watching %d file(s). Press Ctrl+C to stop.", len(watched))
	watchLoop(ctx, fsw.Events, fsw.Errors, watchDebounce, rt.Logger, func(name string) (bool, bool) {
		abs, err := filepath.Abs(name)
		if err != nil {
			return false, false
		}
		isCatalog, ok := watched[abs]
		return ok, isCatalog
	}, func(reloadCatalog bool) {
		if err := w.pass(ctx, reloadCatalog); err != nil {
			rt.Renderer.Error("%v", err)
		}
	})
	return nil
}

// watchedPaths maps each absolute path to whether it is the catalog file.
func (w *watcher) watchedPaths() map[string]bool {
	out := make(map[string]bool)
	for _, f := range w.files {
		if abs, err := filepath.Abs(f); err == nil {
			out[abs] = false
		}
	}
	if w.rt.Config.Catalog.Kind() == config.SourceFile {
		if abs, err := filepath.Abs(w.rt.Config.Catalog.File); err == nil {
			out[abs] = true
		}
	}
	return out
}

// pass resolves every file once, reloading the catalog first when asked or
// when none is loaded yet.
func (w *watcher) pass(ctx context.Context, reloadCatalog bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if reloadCatalog || w.cat == nil {
		cat, _, err := w.rt.LoadCatalog(ctx)
		if err != nil {
			return err
		}
		w.cat = cat
	}
	r := w.rt.NewResolver(w.cat)

	var results []statementResult
	for _, path := range w.files {
		text, err := readSource(w.cmd.InOrStdin(), path)
		if err != nil {
			return err
		}
		res, err := resolveScript(ctx, r, path, text, w.opts)
		if err != nil {
			return err
		}
		results = append(results, res...)
	}
	// Failed statements are already reported.
	_ = renderResults(w.rt.Renderer, results)
	return nil
}

// watchLoop debounces file events until ctx is done. match reports whether
// a path is relevant and whether it is the catalog; onChange runs after
// delay without further relevant events.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	delay time.Duration,
	logger *slog.Logger,
	match func(name string) (relevant, isCatalog bool),
	onChange func(reloadCatalog bool),
) {
	var (
		mu            sync.Mutex
		timer         *time.Timer
		reloadCatalog bool
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			relevant, isCatalog := match(event.Name)
			if !relevant {
				continue
			}
			logger.Debug("change detected", slog.String("file", event.Name))

			mu.Lock()
			reloadCatalog = reloadCatalog || isCatalog
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, func() {
				mu.Lock()
				reload := reloadCatalog
				reloadCatalog = false
				mu.Unlock()
				onChange(reload)
			})
			mu.Unlock()
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
