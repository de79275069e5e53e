package resolver

import (
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/format"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// setBranch is one leaf query of a set operation and the operator joining
// it to the branches on its left.
type setBranch struct {
	query core.QueryCommand
	op    core.SetOp
}

// setBranches flattens a left-deep chain of set operations. Parenthesized
// or ordered set queries are kept whole, like core.SetQuery.Branches.
func setBranches(s *core.SetQuery) []setBranch {
	var out []setBranch
	var walk func(q core.QueryCommand, op core.SetOp)
	walk = func(q core.QueryCommand, op core.SetOp) {
		if sq, ok := q.(*core.SetQuery); ok && !sq.Paren && sq.OrderBy == nil && sq.Limit == nil {
			walk(sq.Left, op)
			walk(sq.Right, sq.Op)
			return
		}
		out = append(out, setBranch{query: q, op: op})
	}
	walk(s.Left, s.Op)
	walk(s.Right, s.Op)
	return out
}

// resolveSetQuery resolves every branch independently, then reconciles
// their projections column by column: all branches must project the same
// number of columns and each column takes the closest common type of the
// branches, which are converted to it. A branch projecting an untyped NULL
// takes its type from the others.
func (rs *resolution) resolveSetQuery(parent scopeID, s *core.SetQuery) error {
	branches := setBranches(s)
	for _, b := range branches {
		if err := rs.resolveQueryCommand(parent, b.query); err != nil {
			return err
		}
	}

	first := branches[0].query.Projected()
	for i, b := range branches[1:] {
		if n := len(b.query.Projected()); n != len(first) {
			return newError(b.query, ReasonSetArity, ErrSetArity, b.op, i+2, n, len(first))
		}
	}

	targets := make([]types.DataType, len(first))
	for col := range targets {
		t := types.Null
		for i, b := range branches {
			ct := b.query.Projected()[col].Type
			switch {
			case ct == types.Null || ct == t:
				continue
			case t == types.Null:
				t = ct
				continue
			}
			common, ok := rs.lattice.CommonType(t, ct)
			if !ok {
				return newError(b.query, ReasonSetType, ErrSetType, b.op, col+1, i+1, ct, t)
			}
			t = common
		}
		if t == types.Null {
			t = types.String
		}
		targets[col] = t
	}

	for _, b := range branches {
		ordering, limit := b.query.Ordering()
		for col, c := range b.query.Projected() {
			if c.Type == targets[col] {
				continue
			}
			if c.Type != types.Null && (limit != nil || sortsOn(ordering, col)) {
				return newError(b.query, ReasonSetType, ErrSetOrderConversion, col+1, b.op, c.Type, targets[col])
			}
			if err := rs.convertProjection(b.query, col, targets[col]); err != nil {
				return err
			}
		}
	}

	s.Columns = make([]*core.ElementSymbol, len(first))
	for i, c := range first {
		s.Columns[i] = projectedElement(c.Name, nil)
		s.Columns[i].Type = targets[i]
	}

	for _, item := range s.OrderBy {
		pos, ok, err := projectedPosition(item, s.Columns)
		if err != nil {
			return err
		}
		if !ok {
			return newError(item, ReasonOrderByNotFound, ErrOrderByNotFound, format.String(item.Expr))
		}
		item.Position = pos
	}
	if err := rs.resolveLimit(parent, s.Limit); err != nil {
		return err
	}
	rs.logger.Debug("reconciled set operation", "op", string(s.Op), "branches", len(branches), "columns", len(s.Columns))
	return nil
}

// sortsOn reports whether an ORDER BY sorts on projected column col.
func sortsOn(ordering []*core.OrderByItem, col int) bool {
	for _, item := range ordering {
		if item.Position == col {
			return true
		}
	}
	return false
}
