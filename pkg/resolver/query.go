package resolver

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/format"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// resolveQuery resolves a query command whose scope encloses parent.
// Output columns that are untyped NULLs become strings.
func (rs *resolution) resolveQuery(parent scopeID, q core.QueryCommand) error {
	if err := rs.resolveQueryCommand(parent, q); err != nil {
		return err
	}
	for i, c := range q.Projected() {
		if c.Type == types.Null {
			if err := rs.convertProjection(q, i, types.String); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveQueryCommand resolves q leaving NULL output columns untyped, so a
// set operation can type them from sibling branches.
func (rs *resolution) resolveQueryCommand(parent scopeID, q core.QueryCommand) error {
	switch query := q.(type) {
	case *core.Select:
		return rs.resolveSelect(parent, query)
	case *core.SetQuery:
		return rs.resolveSetQuery(parent, query)
	case *core.Exec:
		return rs.resolveExec(parent, query)
	}
	return newError(q, ReasonInvalidDefinition, ErrUnsupportedStatement, q)
}

func (rs *resolution) resolveSelect(parent scopeID, s *core.Select) error {
	sc := rs.arena.push(parent, scopeQuery)
	rs.arena.get(sc).query = s
	s.Correlated = nil

	// The target of SELECT ... INTO is being defined by this statement.
	outer := rs.defining
	if s.Into != nil && s.Into.IsTemp() {
		rs.defining = catalog.Fold(s.Into.Parts[0])
	}
	defer func() { rs.defining = outer }()

	if err := rs.resolveFrom(sc, s.From); err != nil {
		return err
	}
	if err := rs.resolveProjection(sc, s); err != nil {
		return err
	}

	var err error
	if s.Where != nil {
		if s.Where, err = rs.resolveCriteria(sc, s.Where); err != nil {
			return err
		}
	}
	for i, e := range s.GroupBy {
		if s.GroupBy[i], err = rs.resolveExpr(sc, e); err != nil {
			return err
		}
	}
	if s.Having != nil {
		if s.Having, err = rs.resolveCriteria(sc, s.Having); err != nil {
			return err
		}
	}
	if err := rs.resolveSelectOrdering(sc, s); err != nil {
		return err
	}
	if err := rs.resolveLimit(sc, s.Limit); err != nil {
		return err
	}
	if s.Into != nil {
		return rs.resolveInto(s)
	}
	return nil
}

// resolveProjection resolves the select list and computes the projected
// columns. Unnamed expressions are named exprN after their position.
func (rs *resolution) resolveProjection(sc scopeID, s *core.Select) error {
	s.Columns = nil
	for i, item := range s.Items {
		if item.Star {
			if err := rs.expandStar(sc, item); err != nil {
				return err
			}
			for _, ref := range item.Expanded {
				s.Columns = append(s.Columns, projectedElement(ref.Element.Name, ref.Element))
			}
			continue
		}

		expr, err := rs.resolveExpr(sc, item.Expr)
		if err != nil {
			return err
		}
		item.Expr = expr

		name := item.Alias
		var source *core.ElementSymbol
		if ref, ok := core.StripImplicit(expr).(*core.ColumnRef); ok {
			source = ref.Element
			if name == "" {
				name = ref.Name()
			}
		}
		if name == "" {
			name = "expr" + strconv.Itoa(i+1)
		}
		col := projectedElement(name, source)
		col.Type = expr.Type()
		s.Columns = append(s.Columns, col)
	}
	return nil
}

// projectedElement creates an output column of a query. It keeps the
// catalog column of a direct column reference.
func projectedElement(name string, source *core.ElementSymbol) *core.ElementSymbol {
	e := &core.ElementSymbol{Name: name, Selectable: true}
	if source != nil {
		e.Type = source.Type
		e.Column = source.Column
		e.Updatable = source.Updatable
	}
	return e
}

// resolveSelectOrdering binds ORDER BY items: projected names and aliases
// first, then positions, then expressions over the FROM groups. An
// unrelated sort key is rejected under DISTINCT.
func (rs *resolution) resolveSelectOrdering(sc scopeID, s *core.Select) error {
	for _, item := range s.OrderBy {
		pos, ok, err := projectedPosition(item, s.Columns)
		if err != nil {
			return err
		}
		if ok {
			item.Position = pos
			continue
		}

		expr, err := rs.resolveExpr(sc, item.Expr)
		if err != nil {
			return err
		}
		item.Expr = expr
		item.Position = -1
		if ref, ok := expr.(*core.ColumnRef); ok {
			for i, it := range s.Items {
				if !it.Star && sameElement(it.Expr, ref.Element) {
					item.Position = columnIndex(s, i)
					break
				}
			}
		}
		if item.Position < 0 && s.Distinct {
			return newError(item, ReasonOrderByNotFound, ErrOrderByUnrelated, format.String(item.Expr))
		}
	}
	return nil
}

// projectedPosition matches an ORDER BY item against the projection by
// integer position or by unqualified output name. The matched item's
// expression is bound to the output column.
func projectedPosition(item *core.OrderByItem, cols []*core.ElementSymbol) (int, bool, error) {
	switch x := item.Expr.(type) {
	case *core.Literal:
		if x.Kind != core.LiteralNumber {
			return 0, false, nil
		}
		n, err := strconv.Atoi(x.Value)
		if err != nil || n < 1 || n > len(cols) {
			return 0, false, newError(item, ReasonOrderByNotFound, ErrOrderByPosition, n, len(cols))
		}
		x.SetType(types.Integer)
		return n - 1, true, nil
	case *core.ColumnRef:
		if len(x.Parts) != 1 {
			return 0, false, nil
		}
		pos := -1
		for i, c := range cols {
			if catalog.EqualName(c.Name, x.Name()) {
				if pos >= 0 {
					return 0, false, newError(item, ReasonOrderByNotFound, ErrOrderByAmbiguous, x.Name())
				}
				pos = i
			}
		}
		if pos < 0 {
			return 0, false, nil
		}
		x.Element = cols[pos]
		x.Correlated = false
		x.SetType(cols[pos].Type)
		return pos, true, nil
	}
	return 0, false, nil
}

func sameElement(e core.Expr, element *core.ElementSymbol) bool {
	ref, ok := core.StripImplicit(e).(*core.ColumnRef)
	return ok && ref.Element == element
}

// columnIndex maps a select item index to its first projected column.
func columnIndex(s *core.Select, item int) int {
	n := 0
	for i := 0; i < item; i++ {
		if s.Items[i].Star {
			n += len(s.Items[i].Expanded)
		} else {
			n++
		}
	}
	return n
}

// resolveLimit requires integer row counts.
func (rs *resolution) resolveLimit(sc scopeID, limit *core.Limit) error {
	if limit == nil {
		return nil
	}
	for _, side := range []*core.Expr{&limit.Count, &limit.Offset} {
		if *side == nil {
			continue
		}
		e, err := rs.resolveExpr(sc, *side)
		if err != nil {
			return err
		}
		converted, res := rs.coerce(e, types.Integer)
		if res != coerceOK {
			return rs.coerceError(e, types.Integer, res)
		}
		*side = converted
	}
	return nil
}

// resolveInto defines or fills the temp table named by SELECT ... INTO.
func (rs *resolution) resolveInto(s *core.Select) error {
	if !s.Into.IsTemp() {
		target, err := rs.targetGroup(s.Into)
		if err != nil {
			return err
		}
		return rs.checkRowShape(s.Into, target.Name, target.Columns, s)
	}
	return rs.defineTemp(s, s.Into, s.Columns, s)
}

// defineTemp creates the temp table named by t with the shape of cols. When
// the table already exists, its shape is fixed and source must be
// compatible with it column for column. Re-resolving the statement that
// created a table is a no-op.
func (rs *resolution) defineTemp(stmt core.Stmt, t *core.TableName, cols []*core.ElementSymbol, source core.QueryCommand) error {
	name := t.Parts[0]
	if err := checkUniqueNames(name, cols, t); err != nil {
		return err
	}
	if existing := rs.temps.lookup(name); existing != nil && existing.Source != stmt {
		t.Group = existing
		if source != nil {
			return rs.checkRowShape(t, existing.Name, existing.Columns, source)
		}
		return rs.checkColumnShape(t, existing, cols)
	}

	g := &core.GroupSymbol{
		Name:       name,
		Path:       []string{name},
		Definition: name,
		Kind:       core.GroupTemp,
		Source:     stmt,
	}
	for _, c := range cols {
		ct := c.Type
		if ct == types.Null {
			ct = types.String
		}
		g.AddColumn(c.Name, ct)
	}
	rs.temps.add(g)
	stmt.Metadata().AddTemp(catalog.Fold(name), g)
	t.Group = g
	rs.logger.Debug("created temp table", "table", name, "columns", len(g.Columns))
	return nil
}

// checkRowShape requires a query to project one implicitly convertible
// column per target column, converting select items where needed.
func (rs *resolution) checkRowShape(node core.Node, group string, targets []*core.ElementSymbol, q core.QueryCommand) error {
	cols := q.Projected()
	if len(cols) != len(targets) {
		return newError(node, ReasonArity, ErrRowShape, group, len(targets), len(cols))
	}
	for i, c := range cols {
		want := targets[i].Type
		if c.Type == want {
			continue
		}
		if c.Type != types.Null && !rs.lattice.IsImplicit(c.Type, want) {
			return newError(node, ReasonNoConversion, ErrAssignType, targets[i].QualifiedName(), want, c.Name)
		}
		if err := rs.convertProjection(q, i, want); err != nil {
			return err
		}
	}
	return nil
}

func (rs *resolution) checkColumnShape(node core.Node, target *core.GroupSymbol, cols []*core.ElementSymbol) error {
	if len(cols) != len(target.Columns) {
		return newError(node, ReasonArity, ErrRowShape, target.Name, len(target.Columns), len(cols))
	}
	for i, c := range cols {
		want := target.Columns[i].Type
		if c.Type != want && c.Type != types.Null && !rs.lattice.IsImplicit(c.Type, want) {
			return newError(node, ReasonNoConversion, ErrAssignType, target.Columns[i].QualifiedName(), want, c.Name)
		}
	}
	return nil
}

// convertProjection converts output column i of q to t, wrapping the select
// item of every branch that produces it.
func (rs *resolution) convertProjection(q core.QueryCommand, i int, t types.DataType) error {
	switch query := q.(type) {
	case *core.Select:
		if item := itemForColumn(query, i); item != nil {
			item.Expr = convertArg(item.Expr, t)
		}
		query.Columns[i].Type = t
	case *core.SetQuery:
		for _, b := range query.Branches() {
			if err := rs.convertProjection(b, i, t); err != nil {
				return err
			}
		}
		query.Columns[i].Type = t
	case *core.Exec:
		return newError(q, ReasonNoConversion, ErrNoConversion, fmt.Sprintf("column %d", i+1), query.Columns[i].Type, t)
	}
	return nil
}

// itemForColumn returns the expression item producing output column i. A
// star item covering the column is first replaced by one item per expanded
// reference, so the column has an expression of its own to convert.
func itemForColumn(s *core.Select, i int) *core.SelectItem {
	n := 0
	for k, item := range s.Items {
		if !item.Star {
			if n == i {
				return item
			}
			n++
			continue
		}
		if i < n+len(item.Expanded) {
			items := make([]*core.SelectItem, len(item.Expanded))
			for j, ref := range item.Expanded {
				items[j] = &core.SelectItem{Expr: ref}
				items[j].Start, items[j].Stop = item.Start, item.Stop
			}
			s.Items = slices.Replace(s.Items, k, k+1, items...)
			return items[i-n]
		}
		n += len(item.Expanded)
	}
	return nil
}
