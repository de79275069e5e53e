package resolver

import (
	"errors"
	"fmt"
	"slices"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/parser"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// expandView parses and resolves the definition of a view. Each view is
// expanded once per resolution. The definition is resolved in a fresh
// scope chain: it cannot see the groups or variables of the statement that
// references it.
func (rs *resolution) expandView(g *catalog.Group, node core.Node) (core.QueryCommand, error) {
	name := g.FullName()
	key := catalog.Fold(name)
	if q, ok := rs.viewCache[key]; ok {
		return q, nil
	}
	if slices.Contains(rs.views, key) {
		return nil, newError(node, ReasonViewDepth, ErrViewCycle, name)
	}
	if len(rs.views) >= rs.maxViewDepth {
		return nil, newError(node, ReasonViewDepth, ErrViewDepth, name, rs.maxViewDepth)
	}
	if g.Definition == "" {
		return nil, newError(node, ReasonInvalidDefinition, ErrInvalidDefinition, name, "view has no definition")
	}
	q, err := parser.ParseQuery(g.Definition)
	if err != nil {
		return nil, newError(node, ReasonInvalidDefinition, ErrInvalidDefinition, name, err)
	}

	rs.views = append(rs.views, key)
	outer := rs.defining
	rs.defining = ""
	defer func() {
		rs.views = rs.views[:len(rs.views)-1]
		rs.defining = outer
	}()

	rs.logger.Debug("expanding view", "view", name, "depth", len(rs.views))
	if err := rs.resolveQueryCommand(rs.arena.push(noScope, scopeBlock), q); err != nil {
		var re *ResolutionError
		if errors.As(err, &re) && re.Reason == ReasonViewDepth {
			return nil, err
		}
		return nil, newError(node, ReasonInvalidDefinition, ErrInvalidDefinition, name, err)
	}

	cols, err := rs.catalog.Columns(g)
	if err != nil {
		return nil, err
	}
	if n := len(q.Projected()); n != len(cols) {
		return nil, newError(node, ReasonInvalidDefinition, ErrInvalidDefinition, name,
			fmt.Sprintf("the query projects %d columns, %d are declared", n, len(cols)))
	}
	// Projected columns take the declared types.
	for i, c := range q.Projected() {
		want := cols[i].Type
		if c.Type == want {
			continue
		}
		if c.Type != types.Null && !rs.lattice.IsImplicit(c.Type, want) {
			return nil, newError(node, ReasonInvalidDefinition, ErrInvalidDefinition, name,
				fmt.Sprintf("column %s is %s, declared %s", cols[i].Name, c.Type, want))
		}
		if err := rs.convertProjection(q, i, want); err != nil {
			return nil, newError(node, ReasonInvalidDefinition, ErrInvalidDefinition, name, err)
		}
	}
	rs.viewCache[key] = q
	return q, nil
}
