package resolver

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
)

// resolveColumnRef binds a column or variable reference. The scope chain is
// searched outward from sc; the first scope with a match decides. A match
// in an enclosing query scope is a correlated reference and is recorded on
// every query the search crossed.
func (rs *resolution) resolveColumnRef(sc scopeID, ref *core.ColumnRef) error {
	name, qualifier := ref.Name(), ref.Qualifier()
	ref.Correlated = false

	var crossed []*core.Select
	for id := sc; id != noScope; id = rs.arena.get(id).parent {
		s := rs.arena.get(id)
		matches, groups := s.findElement(qualifier, name)

		switch {
		case len(matches) > 1:
			owners := make([]*core.GroupSymbol, len(matches))
			for i, m := range matches {
				owners[i] = m.group
			}
			return newError(ref, ReasonElementAmbiguous, ErrElementAmbiguous, strings.Join(ref.Parts, "."), groupNames(owners))
		case len(matches) == 1:
			m := matches[0]
			if s.kind == scopeQuery && !m.element.Selectable {
				return newError(ref, ReasonElementNotFound, ErrNotSelectable, m.element.QualifiedName())
			}
			if s.kind == scopeQuery && len(crossed) > 0 {
				ref.Correlated = true
				for _, q := range crossed {
					q.AddCorrelated(m.element)
				}
			}
			ref.Element = m.element
			ref.SetType(m.element.Type)
			return nil
		}

		// A qualifier that names a group of this scope is decisive, except
		// for VARIABLES which every block declares anew.
		if len(groups) > 0 && !slices.ContainsFunc(groups, func(g *core.GroupSymbol) bool {
			return g.Kind == core.GroupVariables
		}) {
			return newError(ref, ReasonElementNotFound, ErrElementNotFound, strings.Join(ref.Parts, "."))
		}
		if s.kind == scopeQuery && s.query != nil {
			crossed = append(crossed, s.query)
		}
	}

	if len(qualifier) == 1 && rs.defining != "" && catalog.Fold(qualifier[0]) == rs.defining {
		return newError(ref, ReasonUnknownGroupContext, ErrUnknownGroupContext, qualifier[0], name)
	}
	return newError(ref, ReasonElementNotFound, ErrElementNotFound, strings.Join(ref.Parts, "."))
}

// expandStar expands * or group.* against the groups of the query scope
// sc, skipping columns the catalog marks non-selectable.
func (rs *resolution) expandStar(sc scopeID, item *core.SelectItem) error {
	groups := rs.arena.get(sc).groups
	if len(item.Qualifier) > 0 {
		groups = matchGroups(groups, item.Qualifier)
		qualifier := catalog.JoinPath(item.Qualifier)
		switch {
		case len(groups) == 0:
			return newError(item, ReasonUnknownGroupContext, ErrStarGroup, qualifier, qualifier)
		case len(groups) > 1:
			return newError(item, ReasonGroupAmbiguous, ErrGroupAmbiguous, qualifier, groupNames(groups))
		}
	}

	item.Expanded = nil
	for _, g := range groups {
		for _, e := range g.Columns {
			if !e.Selectable {
				continue
			}
			parts := append(slices.Clone(g.Path), e.Name)
			ref := &core.ColumnRef{Parts: parts, Element: e}
			ref.Start, ref.Stop = item.Pos(), item.End()
			ref.SetType(e.Type)
			item.Expanded = append(item.Expanded, ref)
		}
	}
	return nil
}
