package resolver

import (
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// Binding describes how one column reference of a resolved statement was
// bound.
type Binding struct {
	Reference  string         `json:"reference"`
	Element    string         `json:"element"`
	Group      string         `json:"group,omitempty"`
	GroupKind  string         `json:"group_kind,omitempty"`
	Definition string         `json:"definition,omitempty"`
	Type       types.DataType `json:"type"`
	Correlated bool           `json:"correlated,omitempty"`
	Pos        token.Position `json:"pos"`
}

// Bindings lists the bindings of every column reference under stmt in
// source order, including the columns stars expanded to. Unbound
// references are skipped.
func Bindings(stmt core.Stmt) []Binding {
	var out []Binding
	for _, ref := range core.ColumnRefs(stmt) {
		e := ref.Element
		if e == nil {
			continue
		}
		b := Binding{
			Reference:  strings.Join(ref.Parts, "."),
			Element:    e.QualifiedName(),
			Type:       ref.Type(),
			Correlated: ref.Correlated,
			Pos:        ref.Pos(),
		}
		if e.Group != nil {
			b.Group = e.Group.Name
			b.GroupKind = e.Group.Kind.String()
			b.Definition = e.Group.Definition
		}
		out = append(out, b)
	}
	return out
}
