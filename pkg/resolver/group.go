package resolver

import (
	"errors"
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
)

// resolveFrom binds every FROM entry into the query scope sc.
func (rs *resolution) resolveFrom(sc scopeID, refs []core.TableRef) error {
	for _, ref := range refs {
		if err := rs.resolveTableRef(sc, ref); err != nil {
			return err
		}
	}
	return nil
}

func (rs *resolution) resolveTableRef(sc scopeID, ref core.TableRef) error {
	switch t := ref.(type) {
	case *core.TableName:
		g, err := rs.groupForName(t)
		if err != nil {
			return err
		}
		return rs.bind(sc, t, g, func() { t.Group = g })
	case *core.DerivedTable:
		return rs.resolveDerived(sc, t)
	case *core.ProcTable:
		return rs.resolveProcTable(sc, t)
	case *core.JoinExpr:
		if err := rs.resolveTableRef(sc, t.Left); err != nil {
			return err
		}
		if err := rs.resolveTableRef(sc, t.Right); err != nil {
			return err
		}
		if t.On == nil {
			return nil
		}
		on, err := rs.resolveCriteria(sc, t.On)
		t.On = on
		return err
	}
	return nil
}

func (rs *resolution) bind(sc scopeID, node core.Node, g *core.GroupSymbol, set func()) error {
	if err := rs.arena.bindGroup(sc, g, node); err != nil {
		return err
	}
	set()
	rs.logger.Debug("bound group", "group", g.Name, "kind", g.Kind.String())
	return nil
}

// groupForName resolves a named group: a temp table for #names, else a
// catalog table or view. The symbol's path is the alias when one is given,
// which hides the qualified name within the scope.
func (rs *resolution) groupForName(t *core.TableName) (*core.GroupSymbol, error) {
	if t.IsTemp() {
		temp := rs.temps.lookup(t.Parts[0])
		if temp == nil {
			return nil, newError(t, ReasonGroupNotFound, ErrGroupNotFound, t.Name())
		}
		return aliasGroup(temp, t.Alias), nil
	}

	g, err := rs.catalog.FindGroup(t.Parts)
	if err != nil {
		return nil, groupLookupError(t, t.Parts, err)
	}
	sym, err := rs.catalogGroup(g, t.Alias, t)
	if err != nil {
		return nil, err
	}
	if g.Kind == catalog.KindView {
		sym.Kind = core.GroupView
		if sym.Transformation, err = rs.expandView(g, t); err != nil {
			return nil, err
		}
	}
	return sym, nil
}

// catalogGroup builds a fresh symbol for a catalog group.
func (rs *resolution) catalogGroup(g *catalog.Group, alias string, node core.Node) (*core.GroupSymbol, error) {
	cols, err := rs.catalog.Columns(g)
	if err != nil {
		return nil, err
	}
	sym := &core.GroupSymbol{
		Name:       g.FullName(),
		Path:       g.Name,
		Definition: g.FullName(),
		Kind:       core.GroupTable,
		Group:      g,
		Source:     node,
	}
	if alias != "" {
		sym.Name, sym.Alias, sym.Path = alias, alias, []string{alias}
	}
	for _, c := range cols {
		e := sym.AddColumn(c.Name, c.Type)
		e.Column = c
		e.Selectable = c.Selectable
		e.Updatable = c.Updatable && g.Updatable
	}
	return sym, nil
}

// aliasGroup copies a temp table definition into a new symbol so its
// elements are owned by the reference, under the alias if one is given.
func aliasGroup(def *core.GroupSymbol, alias string) *core.GroupSymbol {
	sym := &core.GroupSymbol{
		Name:       def.Name,
		Path:       def.Path,
		Definition: def.Definition,
		Kind:       def.Kind,
		Source:     def.Source,
	}
	if alias != "" {
		sym.Name, sym.Alias, sym.Path = alias, alias, []string{alias}
	}
	for _, c := range def.Columns {
		e := sym.AddColumn(c.Name, c.Type)
		e.Updatable = c.Updatable
	}
	return sym
}

// resolveDerived resolves a FROM subquery. Its scope encloses only the
// outer queries, not the sibling FROM entries.
func (rs *resolution) resolveDerived(sc scopeID, t *core.DerivedTable) error {
	if err := rs.resolveQuery(rs.arena.get(sc).parent, t.Query); err != nil {
		return err
	}
	if err := checkUniqueNames(t.Alias, t.Query.Projected(), t); err != nil {
		return err
	}
	g := &core.GroupSymbol{
		Name:           t.Alias,
		Path:           []string{t.Alias},
		Definition:     t.Alias,
		Alias:          t.Alias,
		Kind:           core.GroupDerived,
		Transformation: t.Query,
		Source:         t,
	}
	for _, c := range t.Query.Projected() {
		e := g.AddColumn(c.Name, c.Type)
		e.Updatable = false
	}
	return rs.bind(sc, t, g, func() { t.Group = g })
}

// resolveProcTable binds a procedure used as a row source. The wrapped
// (EXEC ...) form exposes the result columns; a procedure named directly
// exposes its parameters and results together, which requires every name
// to be unique.
func (rs *resolution) resolveProcTable(sc scopeID, t *core.ProcTable) error {
	if err := rs.resolveExec(rs.arena.get(sc).parent, t.Exec); err != nil {
		return err
	}
	proc := t.Exec.Procedure
	g := &core.GroupSymbol{
		Name:       proc.FullName(),
		Path:       proc.Name,
		Definition: proc.FullName(),
		Kind:       core.GroupProcedure,
		Procedure:  proc,
		Source:     t,
	}
	if t.Alias != "" {
		g.Name, g.Alias, g.Path = t.Alias, t.Alias, []string{t.Alias}
	}
	if !t.Wrapped {
		seen := make(map[string]bool)
		var dups []string
		add := func(name string) {
			key := catalog.Fold(name)
			if seen[key] {
				dups = append(dups, name)
			}
			seen[key] = true
		}
		for _, p := range proc.Params {
			if p.Mode != catalog.ParamReturn {
				add(p.Name)
				g.AddColumn(p.Name, p.Type).Updatable = false
			}
		}
		for _, c := range proc.Results {
			add(c.Name)
		}
		if len(dups) > 0 {
			return newError(t, ReasonProcedureShape, ErrProcedureShape, proc.FullName(), strings.Join(dups, ", "))
		}
	}
	for _, c := range t.Exec.Projected() {
		e := g.AddColumn(c.Name, c.Type)
		e.Column = c.Column
		e.Updatable = false
	}
	return rs.bind(sc, t, g, func() { t.Group = g })
}

// checkUniqueNames rejects a projection that would define a named row
// source with two columns of the same name.
func checkUniqueNames(group string, cols []*core.ElementSymbol, node core.Node) error {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		key := catalog.Fold(c.Name)
		if seen[key] {
			return newError(node, ReasonDuplicateColumn, ErrDuplicateColumn, group, c.Name)
		}
		seen[key] = true
	}
	return nil
}

func groupLookupError(node core.Node, path []string, err error) error {
	var nf *catalog.NotFoundError
	var amb *catalog.AmbiguousError
	switch {
	case errors.As(err, &nf):
		return newError(node, ReasonGroupNotFound, ErrGroupNotFound, catalog.JoinPath(path))
	case errors.As(err, &amb):
		return newError(node, ReasonGroupAmbiguous, ErrGroupAmbiguous, catalog.JoinPath(path), strings.Join(amb.Matches, ", "))
	}
	return err
}

func procedureLookupError(node core.Node, path []string, err error) error {
	var nf *catalog.NotFoundError
	var amb *catalog.AmbiguousError
	switch {
	case errors.As(err, &nf):
		return newError(node, ReasonProcedureNotFound, ErrProcedureNotFound, catalog.JoinPath(path))
	case errors.As(err, &amb):
		return newError(node, ReasonProcedureAmbiguous, ErrProcedureAmbiguous, catalog.JoinPath(path), strings.Join(amb.Matches, ", "))
	}
	return err
}
