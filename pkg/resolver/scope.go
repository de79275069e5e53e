package resolver

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// VariablesGroup is the canonical qualifier of declared variables.
const VariablesGroup = "VARIABLES"

// RowCountVariable is implicitly declared in the outermost block of a
// procedure.
const RowCountVariable = "ROWCOUNT"

type scopeKind int

const (
	// scopeQuery holds the FROM groups of one query block.
	scopeQuery scopeKind = iota
	// scopeBlock holds variables, cursors and pseudo-groups of a
	// procedure block.
	scopeBlock
)

type scopeID int

const noScope scopeID = -1

// scope is one record of the arena. Parent links are indexes, so nested
// queries can walk outward for correlated references without owning their
// parents.
type scope struct {
	parent scopeID
	kind   scopeKind
	groups []*core.GroupSymbol

	// query owns a query scope and records its correlated references.
	query *core.Select

	// variables is the VARIABLES group of a block scope.
	variables *core.GroupSymbol

	// cursor is the loop cursor bound by this block scope, if any.
	cursor string
}

// scopeArena allocates the scopes of one resolution.
type scopeArena struct {
	scopes []scope
}

func (a *scopeArena) get(id scopeID) *scope {
	return &a.scopes[id]
}

// push adds a scope whose enclosing scope is parent.
func (a *scopeArena) push(parent scopeID, kind scopeKind) scopeID {
	s := scope{parent: parent, kind: kind}
	if kind == scopeBlock {
		s.variables = &core.GroupSymbol{
			Name:       VariablesGroup,
			Path:       []string{VariablesGroup},
			Definition: VariablesGroup,
			Kind:       core.GroupVariables,
		}
		s.groups = append(s.groups, s.variables)
	}
	a.scopes = append(a.scopes, s)
	return scopeID(len(a.scopes) - 1)
}

// bindGroup adds g to the scope. A group whose effective name is already
// bound in the same scope is rejected, even when the underlying objects
// differ.
func (a *scopeArena) bindGroup(id scopeID, g *core.GroupSymbol, node core.Node) error {
	s := a.get(id)
	name := catalog.Fold(g.Name)
	for _, existing := range s.groups {
		if existing.Kind == core.GroupVariables {
			continue
		}
		if catalog.Fold(existing.Name) == name {
			return newError(node, ReasonDuplicateGroup, ErrDuplicateGroup, g.Name)
		}
	}
	s.groups = append(s.groups, g)
	return nil
}

// lookupGroup returns the unique group of a single scope matched by a
// possibly partial qualifier.
func (a *scopeArena) lookupGroup(id scopeID, path []string, node core.Node) (*core.GroupSymbol, error) {
	matches := matchGroups(a.get(id).groups, path)
	switch len(matches) {
	case 0:
		return nil, newError(node, ReasonGroupNotFound, ErrGroupNotFound, catalog.JoinPath(path))
	case 1:
		return matches[0], nil
	}
	return nil, newError(node, ReasonGroupAmbiguous, ErrGroupAmbiguous, catalog.JoinPath(path), groupNames(matches))
}

// bindVariable declares a variable in the VARIABLES group of a block
// scope. Redeclaring a name in the same block fails; shadowing a name of an
// enclosing block does not.
func (a *scopeArena) bindVariable(id scopeID, name string, t types.DataType, node core.Node) (*core.ElementSymbol, error) {
	vars := a.get(id).variables
	if vars.Column(name) != nil {
		return nil, newError(node, ReasonVariableRedeclared, ErrVariableRedeclared, name)
	}
	return vars.AddColumn(name, t), nil
}

// lookupVariable searches the block scopes from id outward. Query scopes
// are skipped.
func (a *scopeArena) lookupVariable(id scopeID, name string) *core.ElementSymbol {
	for ; id != noScope; id = a.get(id).parent {
		s := a.get(id)
		if s.kind != scopeBlock {
			continue
		}
		if v := s.variables.Column(name); v != nil {
			return v
		}
	}
	return nil
}

// enclosingQuery returns the nearest query scope at or above id.
func (a *scopeArena) enclosingQuery(id scopeID) scopeID {
	for ; id != noScope; id = a.get(id).parent {
		if a.get(id).kind == scopeQuery {
			return id
		}
	}
	return noScope
}

// cursors lists the loop cursor names bound from id outward.
func (a *scopeArena) cursors(id scopeID) []string {
	var out []string
	for ; id != noScope; id = a.get(id).parent {
		if c := a.get(id).cursor; c != "" {
			out = append(out, c)
		}
	}
	return out
}

// elementMatch is one candidate binding for a column reference.
type elementMatch struct {
	group   *core.GroupSymbol
	element *core.ElementSymbol
}

// findElement matches a reference against the groups of a single scope.
// groupMatched reports whether some group matched a non-empty qualifier,
// whether or not it owns the element.
func (s *scope) findElement(qualifier []string, name string) (matches []elementMatch, groupMatched []*core.GroupSymbol) {
	for _, g := range s.groups {
		if len(qualifier) == 0 {
			if g.QualifiedOnly {
				continue
			}
		} else {
			if !catalog.HasSuffix(g.Path, qualifier) {
				continue
			}
			groupMatched = append(groupMatched, g)
		}
		if e := g.Column(name); e != nil {
			matches = append(matches, elementMatch{group: g, element: e})
		}
	}
	return matches, groupMatched
}

func matchGroups(groups []*core.GroupSymbol, path []string) []*core.GroupSymbol {
	return catalog.MatchSuffix(groups, path, func(g *core.GroupSymbol) []string { return g.Path })
}

func groupNames(groups []*core.GroupSymbol) string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
