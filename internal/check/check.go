// Package check validates the virtual definitions of a catalog: every view
// definition and virtual procedure body is resolved, in dependency order,
// so a broken definition is reported once and its dependents are skipped.
package check

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/fedsql/internal/dag"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/parser"
	"github.com/leapstack-labs/fedsql/pkg/resolver"
)

// Status is the outcome for one definition.
type Status string

// Statuses.
const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Kinds of checked definitions.
const (
	KindView      = "view"
	KindProcedure = "procedure"
)

// Result is the outcome for one definition.
type Result struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Status    Status   `json:"status"`
	Level     int      `json:"level"`
	DependsOn []string `json:"depends_on,omitempty"`
	Message   string   `json:"message,omitempty"`
	Err       error    `json:"-"`
}

// Report holds one result per definition, in name order.
type Report struct {
	Results []Result `json:"results"`
}

// Failed returns how many definitions failed or were skipped.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status != StatusOK {
			n++
		}
	}
	return n
}

// Options configures Run.
type Options struct {
	// Parallel bounds the definitions resolved at once. Zero means no limit.
	Parallel int
	Logger   *slog.Logger
}

type definition struct {
	name  string
	kind  string
	group *catalog.Group
	proc  *catalog.Procedure
}

// dependencyGraph returns the dependency graph of the views and virtual
// procedures in cat, keyed by folded name. Definitions that do not parse
// have no dependencies.
func dependencyGraph(cat *catalog.Memory) (*dag.Graph, map[string]definition) {
	g := dag.New()
	defs := make(map[string]definition)
	for _, grp := range cat.Groups() {
		if grp.Kind != catalog.KindView {
			continue
		}
		name := catalog.Fold(grp.FullName())
		defs[name] = definition{name: grp.FullName(), kind: KindView, group: grp}
		g.Add(name)
	}
	for _, p := range cat.Procedures() {
		if !p.Virtual {
			continue
		}
		name := catalog.Fold(p.FullName())
		defs[name] = definition{name: p.FullName(), kind: KindProcedure, proc: p}
		g.Add(name)
	}

	for id, d := range defs {
		for _, dep := range references(cat, d) {
			if g.Has(dep) {
				_ = g.DependsOn(id, dep)
			}
		}
	}
	return g, defs
}

// references lists the folded names of the groups and procedures a
// definition reads.
func references(cat *catalog.Memory, d definition) []string {
	var root core.Node
	switch d.kind {
	case KindView:
		q, err := parser.ParseQuery(d.group.Definition)
		if err != nil {
			return nil
		}
		root = q
	case KindProcedure:
		stmt, err := parser.Parse(d.proc.Body)
		if err != nil {
			return nil
		}
		root = stmt
	}

	var out []string
	core.Walk(root, func(n core.Node) bool {
		switch t := n.(type) {
		case *core.TableName:
			if t.IsTemp() {
				return true
			}
			if g, err := cat.FindGroup(t.Parts); err == nil {
				out = append(out, catalog.Fold(g.FullName()))
			}
		case *core.Exec:
			if p, err := cat.FindProcedure(t.Name); err == nil {
				out = append(out, catalog.Fold(p.FullName()))
			}
		}
		return true
	})
	return out
}

// Run resolves every view definition and virtual procedure body of cat.
// Definitions in a cycle fail, and definitions depending on a failed one
// are skipped without being resolved.
func Run(ctx context.Context, r *resolver.Resolver, cat *catalog.Memory, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	g, defs := dependencyGraph(cat)
	results := make(map[string]*Result, len(defs))
	for id, d := range defs {
		results[id] = &Result{Name: d.name, Kind: d.kind, DependsOn: displayNames(defs, g.Deps(id))}
	}

	fail := func(id string, status Status, msg string, err error) {
		res := results[id]
		res.Status = status
		res.Message = msg
		res.Err = err
	}
	skipDownstream := func(ids ...string) {
		for _, d := range g.Downstream(ids...) {
			if results[d].Status == "" {
				fail(d, StatusSkipped, "depends on a failed definition", nil)
			}
		}
	}

	// Cycles fail as a whole; the rest of the graph is still checked.
	for cycle := g.Cycle(); cycle != nil; cycle = g.Cycle() {
		err := &dag.CycleError{Path: displayNames(defs, cycle)}
		members := cycle[:len(cycle)-1]
		for _, id := range members {
			fail(id, StatusFailed, err.Error(), err)
		}
		skipDownstream(members...)
		g.Remove(slices.Concat(members, g.Downstream(members...))...)
	}

	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	for li, level := range levels {
		eg, egctx := errgroup.WithContext(ctx)
		if opts.Parallel > 0 {
			eg.SetLimit(opts.Parallel)
		}
		for _, id := range level {
			mu.Lock()
			res := results[id]
			res.Level = li
			skip := res.Status != ""
			mu.Unlock()
			if skip {
				continue
			}
			eg.Go(func() error {
				if err := egctx.Err(); err != nil {
					return err
				}
				err := resolveDefinition(r, defs[id])
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					fail(id, StatusFailed, err.Error(), err)
					skipDownstream(id)
					logger.Debug("definition failed", slog.String("name", defs[id].name), slog.String("error", err.Error()))
					return nil
				}
				res.Status = StatusOK
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	report := &Report{}
	for _, id := range slices.Sorted(maps.Keys(results)) {
		report.Results = append(report.Results, *results[id])
	}
	logger.Debug("checked definitions", slog.Int("count", len(report.Results)), slog.Int("failed", report.Failed()))
	return report, nil
}

func resolveDefinition(r *resolver.Resolver, d definition) error {
	if d.kind == KindProcedure {
		_, err := r.ResolveProcedure(d.proc.Name)
		return err
	}
	// Selecting from the view expands and checks its definition.
	q := &core.Select{
		Items: []*core.SelectItem{{Star: true}},
		From:  []core.TableRef{&core.TableName{Parts: slices.Clone(d.group.Name)}},
	}
	return r.Resolve(q, nil)
}

func displayNames(defs map[string]definition, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if d, ok := defs[id]; ok {
			out[i] = d.name
		} else {
			out[i] = id
		}
	}
	return out
}
