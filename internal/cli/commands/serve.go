package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/fedsql/internal/check"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
)

// maxRequestBody bounds the size of a resolve request.
const maxRequestBody = 1 << 20

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolution over an HTTP JSON API",
		Long: `Load the catalog once and serve it over HTTP.

Endpoints:
  GET  /healthz          liveness
  GET  /catalog          groups and procedures
  GET  /catalog/{name}   one group or procedure
  POST /catalog/check    resolve every view and virtual procedure
  POST /catalog/reload   reload the catalog from its source
  POST /resolve          resolve {"sql": "..."} or {"procedure": "..."}`,
		Example: `  fedsql serve --addr :8787
  curl -s localhost:8787/resolve -d '{"sql": "SELECT e1 FROM pm1.g1"}'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt := GetRuntime(ctx)
			if !cmd.Flags().Changed("addr") {
				addr = rt.Config.Serve.Addr
			}
			s := &server{rt: rt}
			if err := s.reload(ctx); err != nil {
				return err
			}
			return s.serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (default from serve.addr)")
	return cmd
}

// server holds the catalog served over HTTP. The catalog is replaced as a
// whole on reload; requests in flight keep the one they started with.
type server struct {
	rt *Runtime

	mu       sync.RWMutex
	cat      *catalog.Memory
	desc     string
	loadedAt time.Time
}

func (s *server) reload(ctx context.Context) error {
	m, desc, err := s.rt.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cat, s.desc, s.loadedAt = m, desc, time.Now()
	s.mu.Unlock()
	return nil
}

func (s *server) current() (*catalog.Memory, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat, s.desc
}

func (s *server) loaded() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *server) serve(ctx context.Context, addr string) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.rt.Logger.Info("serving", slog.String("addr", addr))
		s.rt.Renderer.Success("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.rt.Logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		s.logRequests,
		middleware.Recoverer,
		middleware.Compress(5, "application/json"),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", s.handleCatalog)
		r.Get("/{name}", s.handleObject)
		r.Post("/check", s.handleCheck)
		r.Post("/reload", s.handleReload)
	})
	r.Post("/resolve", s.handleResolve)
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.rt.Logger.Debug("request",
				slog.String("id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("elapsed", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": describeError(err)})
}

func (s *server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	m, desc := s.current()
	groups, procs := summarize(m)
	writeJSON(w, http.StatusOK, map[string]any{"source": desc, "loaded_at": s.loaded(), "groups": groups, "procedures": procs})
}

func (s *server) handleObject(w http.ResponseWriter, r *http.Request) {
	m, _ := s.current()
	path := catalog.SplitPath(chi.URLParam(r, "name"))
	g, gerr := m.FindGroup(path)
	if gerr == nil {
		writeJSON(w, http.StatusOK, catalog.ToDocument(singleGroup(g), nil).Models[0])
		return
	}
	if p, err := m.FindProcedure(path); err == nil {
		single := catalog.NewMemory()
		_ = single.AddProcedure(p)
		writeJSON(w, http.StatusOK, catalog.ToDocument(single, nil).Models[0])
		return
	}
	status := http.StatusNotFound
	var ae *catalog.AmbiguousError
	if errors.As(gerr, &ae) {
		status = http.StatusConflict
	}
	writeError(w, status, gerr)
}

func (s *server) handleCheck(w http.ResponseWriter, r *http.Request) {
	m, _ := s.current()
	report, err := check.Run(r.Context(), s.rt.NewResolver(m), m, check.Options{Parallel: s.rt.Config.Parallel, Logger: s.rt.Logger})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	m, desc := s.current()
	writeJSON(w, http.StatusOK, map[string]any{"source": desc, "groups": len(m.Groups()), "procedures": len(m.Procedures()), "loaded_at": s.loaded()})
}

type resolveRequest struct {
	SQL       string `json:"sql"`
	Procedure string `json:"procedure"`
	Bindings  bool   `json:"bindings"`
}

type resolveResponse struct {
	Results []statementResult `json:"results"`
	Failed  int               `json:"failed"`
}

func (s *server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if (req.SQL == "") == (req.Procedure == "") {
		writeError(w, http.StatusBadRequest, errors.New("exactly one of sql or procedure is required"))
		return
	}

	m, _ := s.current()
	res := s.rt.NewResolver(m)
	opts := resolveOptions{Bindings: req.Bindings}
	var results []statementResult
	if req.Procedure != "" {
		results = []statementResult{resolveProcedure(res, req.Procedure, opts)}
	} else {
		var err error
		results, err = resolveScript(r.Context(), res, "request", req.SQL, opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resolveResponse{Results: results, Failed: countFailed(results)})
}
