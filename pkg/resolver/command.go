package resolver

import (
	"slices"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// resolveExec binds a procedure call. Arguments are either all positional,
// in the order of the input parameters, or all named. Each argument is
// converted to its parameter type, and every input parameter without a
// default must be supplied.
func (rs *resolution) resolveExec(sc scopeID, e *core.Exec) error {
	proc, err := rs.catalog.FindProcedure(e.Name)
	if err != nil {
		return procedureLookupError(e, e.Name, err)
	}
	e.Procedure = proc
	e.Bound = make([]core.Expr, len(proc.Params))

	var inputs []int
	for i, p := range proc.Params {
		if p.Mode.IsInput() {
			inputs = append(inputs, i)
		}
	}
	named := e.HasNamedArgs()
	if !named && len(e.Args) > len(inputs) {
		return newError(e, ReasonParameter, ErrTooManyArguments, proc.FullName(), len(inputs), len(e.Args))
	}

	for i, arg := range e.Args {
		if (arg.Name != "") != named {
			return newError(e, ReasonParameter, ErrMixedArguments, proc.FullName())
		}
		idx := -1
		if arg.Name != "" {
			idx = slices.IndexFunc(proc.Params, func(p *catalog.Parameter) bool {
				return catalog.EqualName(p.Name, arg.Name) && p.Mode.IsInput()
			})
			if idx < 0 {
				return newError(e, ReasonParameter, ErrUnknownParameter, proc.FullName(), arg.Name)
			}
			if e.Bound[idx] != nil {
				return newError(e, ReasonParameter, ErrDuplicateArgument, proc.Params[idx].Name, proc.FullName())
			}
		} else {
			idx = inputs[i]
		}

		p := proc.Params[idx]
		value, err := rs.resolveExpr(sc, arg.Value)
		if err != nil {
			return err
		}
		converted, res := rs.coerce(value, p.Type)
		if res != coerceOK {
			return rs.assignError(proc.FullName()+"."+p.Name, value, p.Type, res)
		}
		arg.Value = converted
		arg.Param = p
		e.Bound[idx] = converted
	}

	for _, idx := range inputs {
		p := proc.Params[idx]
		if e.Bound[idx] == nil && !p.HasDefault {
			return newError(e, ReasonParameter, ErrMissingParameter, p.Name, proc.FullName())
		}
	}

	e.Columns = make([]*core.ElementSymbol, len(proc.Results))
	for i, c := range proc.Results {
		e.Columns[i] = &core.ElementSymbol{Name: c.Name, Type: c.Type, Column: c, Selectable: true}
	}
	rs.logger.Debug("bound procedure", "procedure", proc.FullName(), "arguments", len(e.Args))
	return nil
}

// targetGroup binds the group a command writes to.
func (rs *resolution) targetGroup(t *core.TableName) (*core.GroupSymbol, error) {
	if t.IsTemp() {
		temp := rs.temps.lookup(t.Parts[0])
		if temp == nil {
			return nil, newError(t, ReasonGroupNotFound, ErrGroupNotFound, t.Name())
		}
		t.Group = aliasGroup(temp, t.Alias)
		return t.Group, nil
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
	}
	t.Group = sym
	return sym, nil
}

// targetColumn binds a column named by a command against its target group.
// The column must be updatable.
func targetColumn(target *core.GroupSymbol, ref *core.ColumnRef) error {
	e := target.Column(ref.Name())
	if e == nil || (len(ref.Qualifier()) > 0 && !catalog.HasSuffix(target.Path, ref.Qualifier())) {
		return newError(ref, ReasonElementNotFound, ErrElementNotFound, catalog.JoinPath(ref.Parts))
	}
	if !e.Updatable {
		return newError(ref, ReasonNotUpdatable, ErrNotUpdatable, e.QualifiedName())
	}
	ref.Element = e
	ref.Correlated = false
	ref.SetType(e.Type)
	return nil
}

// resolveInsert binds an INSERT. Inserting into a temp table that does not
// exist yet defines it with the named columns and the types of the values.
func (rs *resolution) resolveInsert(sc scopeID, s *core.Insert) error {
	if s.Table.IsTemp() {
		if existing := rs.temps.lookup(s.Table.Parts[0]); existing == nil || existing.Source == s {
			return rs.resolveImplicitInsert(sc, s)
		}
	}

	target, err := rs.targetGroup(s.Table)
	if err != nil {
		return err
	}
	cols := make([]*core.ElementSymbol, 0, len(s.Columns))
	if len(s.Columns) == 0 {
		for _, e := range target.Columns {
			if !e.Updatable {
				return newError(s.Table, ReasonNotUpdatable, ErrNotUpdatable, e.QualifiedName())
			}
			cols = append(cols, e)
		}
	}
	for _, ref := range s.Columns {
		if err := targetColumn(target, ref); err != nil {
			return err
		}
		if slices.Contains(cols, ref.Element) {
			return newError(ref, ReasonDuplicateColumn, ErrDuplicateColumn, target.Name, ref.Name())
		}
		cols = append(cols, ref.Element)
	}

	if s.Query != nil {
		if err := rs.resolveQuery(sc, s.Query); err != nil {
			return err
		}
		if n := len(s.Query.Projected()); n != len(cols) {
			return newError(s, ReasonArity, ErrInsertArity, target.Name, len(cols), n)
		}
		return rs.checkRowShape(s, target.Name, cols, s.Query)
	}

	if len(s.Values) != len(cols) {
		return newError(s, ReasonArity, ErrInsertArity, target.Name, len(cols), len(s.Values))
	}
	for i, v := range s.Values {
		value, err := rs.resolveExpr(sc, v)
		if err != nil {
			return err
		}
		converted, res := rs.coerce(value, cols[i].Type)
		if res != coerceOK {
			return rs.assignError(cols[i].QualifiedName(), value, cols[i].Type, res)
		}
		s.Values[i] = converted
	}
	return nil
}

// resolveImplicitInsert defines a temp table from the column list of an
// INSERT and the types of its values or query.
func (rs *resolution) resolveImplicitInsert(sc scopeID, s *core.Insert) error {
	name := s.Table.Parts[0]
	outer := rs.defining
	rs.defining = catalog.Fold(name)
	defer func() { rs.defining = outer }()

	var valueTypes []types.DataType
	if s.Query != nil {
		if err := rs.resolveQuery(sc, s.Query); err != nil {
			return err
		}
		for _, c := range s.Query.Projected() {
			valueTypes = append(valueTypes, c.Type)
		}
	} else {
		for i, v := range s.Values {
			value, err := rs.resolveExpr(sc, v)
			if err != nil {
				return err
			}
			s.Values[i] = value
			valueTypes = append(valueTypes, value.Type())
		}
	}

	var cols []*core.ElementSymbol
	switch {
	case len(s.Columns) > 0:
		if len(s.Columns) != len(valueTypes) {
			return newError(s, ReasonArity, ErrInsertArity, name, len(s.Columns), len(valueTypes))
		}
		for i, ref := range s.Columns {
			cols = append(cols, &core.ElementSymbol{Name: ref.Name(), Type: valueTypes[i]})
		}
	case s.Query != nil:
		cols = s.Query.Projected()
	default:
		return newError(s.Table, ReasonGroupNotFound, ErrGroupNotFound, name)
	}

	if err := rs.defineTemp(s, s.Table, cols, nil); err != nil {
		return err
	}
	g := s.Table.Group
	for i, ref := range s.Columns {
		if err := targetColumn(g, ref); err != nil {
			return err
		}
		if s.Query == nil {
			s.Values[i] = convertArg(s.Values[i], g.Columns[i].Type)
		}
	}
	if s.Query == nil && len(s.Columns) == 0 {
		for i := range s.Values {
			s.Values[i] = convertArg(s.Values[i], g.Columns[i].Type)
		}
	}
	return nil
}

// commandScope opens a query scope holding only the target of an UPDATE
// or DELETE, so its criteria and values can refer to the target's columns.
func (rs *resolution) commandScope(sc scopeID, t *core.TableName) (scopeID, *core.GroupSymbol, error) {
	target, err := rs.targetGroup(t)
	if err != nil {
		return noScope, nil, err
	}
	q := rs.arena.push(sc, scopeQuery)
	if err := rs.arena.bindGroup(q, target, t); err != nil {
		return noScope, nil, err
	}
	return q, target, nil
}

func (rs *resolution) resolveUpdate(sc scopeID, s *core.Update) error {
	q, target, err := rs.commandScope(sc, s.Table)
	if err != nil {
		return err
	}
	seen := make(map[*core.ElementSymbol]bool, len(s.Set))
	for _, set := range s.Set {
		if err := targetColumn(target, set.Column); err != nil {
			return err
		}
		if seen[set.Column.Element] {
			return newError(set.Column, ReasonDuplicateColumn, ErrDuplicateColumn, target.Name, set.Column.Name())
		}
		seen[set.Column.Element] = true

		value, err := rs.resolveExpr(q, set.Value)
		if err != nil {
			return err
		}
		t := set.Column.Element.Type
		converted, res := rs.coerce(value, t)
		if res != coerceOK {
			return rs.assignError(set.Column.Element.QualifiedName(), value, t, res)
		}
		set.Value = converted
	}
	if s.Where != nil {
		if s.Where, err = rs.resolveCriteria(q, s.Where); err != nil {
			return err
		}
	}
	return nil
}

func (rs *resolution) resolveDelete(sc scopeID, s *core.Delete) error {
	q, target, err := rs.commandScope(sc, s.Table)
	if err != nil {
		return err
	}
	if target.Group != nil && !target.Group.Updatable {
		return newError(s.Table, ReasonNotUpdatable, ErrNotUpdatable, target.Name)
	}
	if s.Where != nil {
		if s.Where, err = rs.resolveCriteria(q, s.Where); err != nil {
			return err
		}
	}
	return nil
}

// resolveCreateTemp defines an explicit temp table. Its shape is fixed for
// later statements.
func (rs *resolution) resolveCreateTemp(s *core.CreateTemp) error {
	name := s.Table.Parts[0]
	if existing := rs.temps.lookup(name); existing != nil && existing.Source != s {
		return newError(s.Table, ReasonTempExists, ErrTempExists, name)
	}
	g := &core.GroupSymbol{
		Name:       name,
		Path:       []string{name},
		Definition: name,
		Kind:       core.GroupTemp,
		Source:     s,
	}
	for _, c := range s.Columns {
		if g.Column(c.Name) != nil {
			return newError(s.Table, ReasonDuplicateColumn, ErrDuplicateColumn, name, c.Name)
		}
		g.AddColumn(c.Name, c.Type)
	}
	rs.temps.add(g)
	s.AddTemp(catalog.Fold(name), g)
	s.Table.Group = g
	rs.logger.Debug("created temp table", "table", name, "columns", len(g.Columns))
	return nil
}

func (rs *resolution) resolveDropTemp(s *core.DropTemp) error {
	name := s.Table.Parts[0]
	g := rs.temps.lookup(name)
	if g == nil {
		return newError(s.Table, ReasonGroupNotFound, ErrGroupNotFound, name)
	}
	s.Table.Group = g
	rs.temps.drop(name)
	rs.logger.Debug("dropped temp table", "table", name)
	return nil
}
