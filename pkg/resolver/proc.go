package resolver

import (
	"errors"
	"slices"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// resolveBlock opens a block scope under sc and resolves its statements.
// The outermost block of a procedure implicitly declares ROWCOUNT.
func (rs *resolution) resolveBlock(sc scopeID, b *core.Block, rowCount bool) error {
	id := rs.arena.push(sc, scopeBlock)
	if rowCount {
		if _, err := rs.arena.bindVariable(id, RowCountVariable, types.Integer, b); err != nil {
			return err
		}
	}
	return rs.resolveStatements(id, b)
}

// resolveStatements resolves the statements of b in the block scope id.
// The block's variables are recorded as its temporary metadata.
func (rs *resolution) resolveStatements(id scopeID, b *core.Block) error {
	b.AddTemp(catalog.Fold(VariablesGroup), rs.arena.get(id).variables)
	for _, stmt := range b.Stmts {
		if err := rs.resolveStatement(id, stmt); err != nil {
			return err
		}
	}
	return nil
}

// resolveDeclare declares a variable in the current block. The initializer
// is resolved before the variable is visible, so it may refer to a
// variable of the same name in an enclosing block.
func (rs *resolution) resolveDeclare(sc scopeID, d *core.Declare) error {
	if q := d.Name.Qualifier(); len(q) > 0 && !(len(q) == 1 && catalog.EqualName(q[0], VariablesGroup)) {
		return newError(d.Name, ReasonNotAssignable, ErrNotAssignable, catalog.JoinPath(d.Name.Parts))
	}
	name := d.Name.Name()
	if d.Init != nil {
		init, err := rs.resolveExpr(sc, d.Init)
		if err != nil {
			return err
		}
		converted, res := rs.coerce(init, d.Type)
		if res != coerceOK {
			return rs.assignError(name, init, d.Type, res)
		}
		d.Init = converted
	}
	e, err := rs.arena.bindVariable(sc, name, d.Type, d.Name)
	if err != nil {
		return err
	}
	d.Name.Element = e
	d.Name.Correlated = false
	d.Name.SetType(d.Type)
	rs.logger.Debug("declared variable", "variable", name, "type", d.Type.String())
	return nil
}

// resolveAssign binds an assignment. The target must be a declared
// variable or an output parameter of the procedure.
func (rs *resolution) resolveAssign(sc scopeID, a *core.Assign) error {
	if err := rs.resolveColumnRef(sc, a.Target); err != nil {
		var re *ResolutionError
		if errors.As(err, &re) && re.Reason == ReasonElementNotFound {
			return newError(a.Target, ReasonNotAssignable, ErrNotAssignable, catalog.JoinPath(a.Target.Parts))
		}
		return err
	}
	e := a.Target.Element
	switch {
	case e.IsVariable():
	case e.Group != nil && e.Group.ReadOnly:
		return newError(a.Target, ReasonNotAssignable, ErrReadOnly, catalog.JoinPath(a.Target.Parts), e.Group.Name)
	case e.Group != nil && e.Group.Kind == core.GroupProcedure && e.Updatable:
	default:
		return newError(a.Target, ReasonNotAssignable, ErrNotAssignable, catalog.JoinPath(a.Target.Parts))
	}

	value, err := rs.resolveExpr(sc, a.Value)
	if err != nil {
		return err
	}
	converted, res := rs.coerce(value, e.Type)
	if res != coerceOK {
		return rs.assignError(e.QualifiedName(), value, e.Type, res)
	}
	a.Value = converted
	return nil
}

func (rs *resolution) resolveIf(sc scopeID, s *core.If) error {
	var err error
	if s.Cond, err = rs.resolveCriteria(sc, s.Cond); err != nil {
		return err
	}
	if err := rs.resolveBlock(sc, s.Then, false); err != nil {
		return err
	}
	if s.Else == nil {
		return nil
	}
	if b, ok := s.Else.(*core.Block); ok {
		return rs.resolveBlock(sc, b, false)
	}
	return rs.resolveStatement(sc, s.Else)
}

// resolveLoop binds LOOP ON (query) AS cursor. The cursor is a read-only
// group over the query's projection, visible in the loop body. A nested
// loop cannot reuse the cursor name of an enclosing loop.
func (rs *resolution) resolveLoop(sc scopeID, l *core.Loop) error {
	if slices.ContainsFunc(rs.arena.cursors(sc), func(c string) bool { return catalog.EqualName(c, l.Cursor) }) {
		return newError(l, ReasonCursorReused, ErrCursorReused, l.Cursor)
	}
	if err := rs.resolveQuery(sc, l.Query); err != nil {
		return err
	}

	cursor := &core.GroupSymbol{
		Name:       l.Cursor,
		Path:       []string{l.Cursor},
		Definition: l.Cursor,
		Kind:       core.GroupCursor,
		Source:     l,
		ReadOnly:   true,
	}
	for _, c := range l.Query.Projected() {
		e := cursor.AddColumn(c.Name, c.Type)
		e.Column = c.Column
		e.Updatable = false
	}

	id := rs.arena.push(sc, scopeBlock)
	rs.arena.get(id).cursor = l.Cursor
	if err := rs.arena.bindGroup(id, cursor, l); err != nil {
		return err
	}
	l.Group = cursor
	l.AddTemp(catalog.Fold(l.Cursor), cursor)

	rs.loops++
	defer func() { rs.loops-- }()
	return rs.resolveStatements(id, l.Body)
}

func (rs *resolution) resolveWhile(sc scopeID, w *core.While) error {
	var err error
	if w.Cond, err = rs.resolveCriteria(sc, w.Cond); err != nil {
		return err
	}
	rs.loops++
	defer func() { rs.loops-- }()
	return rs.resolveBlock(sc, w.Body, false)
}

func (rs *resolution) resolveLoopControl(s core.Stmt, keyword string) error {
	if rs.loops == 0 {
		return newError(s, ReasonLoopControl, ErrLoopControl, keyword)
	}
	return nil
}

// resolveExecString binds dynamic SQL. The statement text must be a
// string; its result shape is given by the AS clause, and INTO fills or
// defines a temp table with that shape. The SQL itself is resolved when it
// is executed.
func (rs *resolution) resolveExecString(sc scopeID, x *core.ExecString) error {
	expr, err := rs.resolveExpr(sc, x.Expr)
	if err != nil {
		return err
	}
	converted, res := rs.coerce(expr, types.String)
	if res != coerceOK {
		return rs.coerceError(expr, types.String, res)
	}
	x.Expr = converted

	seen := make(map[string]bool, len(x.Using))
	for _, arg := range x.Using {
		key := catalog.Fold(arg.Name)
		if seen[key] {
			return newError(x, ReasonParameter, ErrDuplicateArgument, arg.Name, "EXECUTE STRING")
		}
		seen[key] = true
		if arg.Value, err = rs.resolveExpr(sc, arg.Value); err != nil {
			return err
		}
	}

	x.Columns = make([]*core.ElementSymbol, len(x.As))
	for i, c := range x.As {
		x.Columns[i] = &core.ElementSymbol{Name: c.Name, Type: c.Type, Selectable: true}
	}
	if err := checkUniqueNames("EXECUTE STRING", x.Columns, x); err != nil {
		return err
	}

	if x.Into == nil {
		return nil
	}
	if len(x.As) == 0 {
		return newError(x.Into, ReasonInvalidDefinition, ErrInvalidDefinition, "EXECUTE STRING", "INTO requires an AS clause")
	}
	if x.Into.IsTemp() {
		return rs.defineTemp(x, x.Into, x.Columns, nil)
	}
	target, err := rs.targetGroup(x.Into)
	if err != nil {
		return err
	}
	return rs.checkColumnShape(x.Into, target, x.Columns)
}
