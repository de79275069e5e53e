package resolver

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/parser"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// DefaultMaxViewDepth bounds nested view expansion when Options leaves it
// unset.
const DefaultMaxViewDepth = 32

// Options configures a Resolver.
type Options struct {
	// Logger receives debug traces of each resolution. Nil discards them.
	Logger *slog.Logger
	// MaxViewDepth bounds nested view expansion.
	MaxViewDepth int
}

// Environment seeds a resolution with out-of-band context.
type Environment struct {
	// PseudoGroups maps a group name to its columns. INPUT and CHANGING
	// are qualified-only and read-only; other names are visible to bare
	// references.
	PseudoGroups map[string][]*catalog.Column

	// UpdateTarget names the virtual group an update procedure runs for.
	// Its updatable columns become INPUT, with a parallel boolean column
	// per name in CHANGING.
	UpdateTarget []string

	// Session carries temp tables across statements.
	Session *Session
}

// Resolver binds statements against a catalog. It holds no per-statement
// state and is safe for concurrent use.
type Resolver struct {
	catalog      catalog.Catalog
	lattice      *types.Lattice
	logger       *slog.Logger
	maxViewDepth int
}

// New creates a Resolver over cat.
func New(cat catalog.Catalog, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	depth := opts.MaxViewDepth
	if depth <= 0 {
		depth = DefaultMaxViewDepth
	}
	return &Resolver{
		catalog:      cat,
		lattice:      types.Default(),
		logger:       logger,
		maxViewDepth: depth,
	}
}

// Catalog returns the catalog the resolver binds against.
func (r *Resolver) Catalog() catalog.Catalog {
	return r.catalog
}

// resolution is the private state of one Resolve call.
type resolution struct {
	*Resolver
	logger *slog.Logger
	arena  scopeArena
	temps  *tempStore

	// views is the stack of views being expanded, by folded name.
	views     []string
	viewCache map[string]core.QueryCommand

	loops int

	// defining is the folded name of the temp table whose defining
	// statement is being resolved.
	defining string
}

func (r *Resolver) newResolution(session *Session) *resolution {
	return &resolution{
		Resolver:  r,
		logger:    r.logger.With("resolution_id", uuid.NewString()),
		temps:     newTempStore(session),
		viewCache: make(map[string]core.QueryCommand),
	}
}

// Resolve binds stmt in place: every group reference gets a GroupSymbol,
// every column reference an ElementSymbol and a type, every function call
// a signature, and implicit conversions are inserted where argument types
// differ from the chosen signature. Resolving an already resolved statement
// leaves its bindings unchanged.
func (r *Resolver) Resolve(stmt core.Stmt, env *Environment) error {
	if env == nil {
		env = &Environment{}
	}
	rs := r.newResolution(env.Session)
	start := time.Now()
	rs.logger.Debug("resolving statement", "statement", fmt.Sprintf("%T", stmt))

	seeds, err := rs.environmentGroups(env)
	if err != nil {
		return err
	}
	root := rs.seedScope(seeds)
	if err := rs.resolveStatement(root, stmt); err != nil {
		rs.logger.Debug("resolution failed", "error", err)
		return err
	}
	rs.temps.commit()
	rs.logger.Debug("statement resolved", "duration", time.Since(start))
	return nil
}

// ResolveProcedure parses and resolves the body of a virtual procedure.
// The procedure's parameters are visible by bare name and qualified by the
// procedure name.
func (r *Resolver) ResolveProcedure(path []string) (*core.Block, error) {
	proc, err := r.catalog.FindProcedure(path)
	if err != nil {
		return nil, procedureLookupError(nil, path, err)
	}
	if proc.Body == "" {
		return nil, newError(nil, ReasonInvalidDefinition, ErrInvalidDefinition, proc.FullName(), "procedure has no body")
	}
	stmt, err := parser.Parse(proc.Body)
	if err != nil {
		return nil, newError(nil, ReasonInvalidDefinition, ErrInvalidDefinition, proc.FullName(), err)
	}
	var body *core.Block
	switch s := stmt.(type) {
	case *core.CreateProcedure:
		body = s.Body
	case *core.Block:
		body = s
	default:
		return nil, newError(stmt, ReasonInvalidDefinition, ErrInvalidDefinition, proc.FullName(), "body is not a block")
	}

	params := &core.GroupSymbol{
		Name:       proc.FullName(),
		Path:       proc.Name,
		Definition: proc.FullName(),
		Kind:       core.GroupProcedure,
		Procedure:  proc,
	}
	for _, p := range proc.Params {
		if p.Mode == catalog.ParamReturn {
			continue
		}
		e := params.AddColumn(p.Name, p.Type)
		e.Updatable = p.Mode != catalog.ParamIn
	}

	rs := r.newResolution(nil)
	rs.logger.Debug("resolving procedure", "procedure", proc.FullName())
	if err := rs.resolveBlock(rs.seedScope([]*core.GroupSymbol{params}), body, true); err != nil {
		return nil, err
	}
	return body, nil
}

// environmentGroups builds the pseudo-groups supplied by env.
func (rs *resolution) environmentGroups(env *Environment) ([]*core.GroupSymbol, error) {
	var out []*core.GroupSymbol
	if len(env.UpdateTarget) > 0 {
		g, err := rs.catalog.FindGroup(env.UpdateTarget)
		if err != nil {
			return nil, groupLookupError(nil, env.UpdateTarget, err)
		}
		cols, err := rs.catalog.Columns(g)
		if err != nil {
			return nil, err
		}
		input := pseudoGroup("INPUT", core.GroupInput)
		changing := pseudoGroup("CHANGING", core.GroupChanging)
		for _, c := range cols {
			if !c.Updatable {
				continue
			}
			e := input.AddColumn(c.Name, c.Type)
			e.Column = c
			changing.AddColumn(c.Name, types.Boolean)
		}
		out = append(out, input, changing)
	}

	names := make([]string, 0, len(env.PseudoGroups))
	for name := range env.PseudoGroups {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		var g *core.GroupSymbol
		switch catalog.Fold(name) {
		case catalog.Fold("INPUT"):
			g = pseudoGroup(name, core.GroupInput)
		case catalog.Fold("CHANGING"):
			g = pseudoGroup(name, core.GroupChanging)
		default:
			g = &core.GroupSymbol{Name: name, Path: catalog.SplitPath(name), Definition: name, Kind: core.GroupProcedure}
		}
		for _, c := range env.PseudoGroups[name] {
			e := g.AddColumn(c.Name, c.Type)
			e.Column = c
		}
		out = append(out, g)
	}
	return out, nil
}

func pseudoGroup(name string, kind core.GroupKind) *core.GroupSymbol {
	return &core.GroupSymbol{
		Name:          name,
		Path:          []string{name},
		Definition:    name,
		Kind:          kind,
		QualifiedOnly: true,
		ReadOnly:      true,
	}
}

// seedScope creates the outermost scope of a resolution holding the
// pseudo-groups. Groups that fail to bind are duplicates by name and are
// skipped.
func (rs *resolution) seedScope(seeds []*core.GroupSymbol) scopeID {
	root := rs.arena.push(noScope, scopeBlock)
	for _, g := range seeds {
		if err := rs.arena.bindGroup(root, g, nil); err != nil {
			rs.logger.Debug("skipping duplicate pseudo-group", "group", g.Name)
		}
	}
	return root
}

// resolveStatement dispatches on the statement variant.
//
//nolint:gocyclo // one case per statement type
func (rs *resolution) resolveStatement(sc scopeID, stmt core.Stmt) error {
	switch s := stmt.(type) {
	case core.QueryCommand:
		return rs.resolveQuery(sc, s)
	case *core.Insert:
		return rs.resolveInsert(sc, s)
	case *core.Update:
		return rs.resolveUpdate(sc, s)
	case *core.Delete:
		return rs.resolveDelete(sc, s)
	case *core.CreateTemp:
		return rs.resolveCreateTemp(s)
	case *core.DropTemp:
		return rs.resolveDropTemp(s)
	case *core.CreateProcedure:
		return rs.resolveBlock(sc, s.Body, true)
	case *core.Block:
		return rs.resolveBlock(sc, s, rs.arena.get(sc).parent == noScope)
	case *core.Declare:
		return rs.resolveDeclare(sc, s)
	case *core.Assign:
		return rs.resolveAssign(sc, s)
	case *core.If:
		return rs.resolveIf(sc, s)
	case *core.Loop:
		return rs.resolveLoop(sc, s)
	case *core.While:
		return rs.resolveWhile(sc, s)
	case *core.Break:
		return rs.resolveLoopControl(s, "BREAK")
	case *core.Continue:
		return rs.resolveLoopControl(s, "CONTINUE")
	case *core.Raise:
		expr, err := rs.resolveExpr(sc, s.Expr)
		s.Expr = expr
		return err
	case *core.ExecString:
		return rs.resolveExecString(sc, s)
	}
	return newError(stmt, ReasonInvalidDefinition, ErrUnsupportedStatement, stmt)
}
