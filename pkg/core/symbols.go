package core

import (
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// GroupKind classifies what a bound group refers to.
type GroupKind int

// Group kinds.
const (
	GroupTable GroupKind = iota
	GroupView
	GroupTemp
	GroupDerived
	GroupProcedure
	GroupInput
	GroupChanging
	GroupVariables
	GroupCursor
)

var groupKindNames = map[GroupKind]string{
	GroupTable:     "table",
	GroupView:      "view",
	GroupTemp:      "temp",
	GroupDerived:   "derived",
	GroupProcedure: "procedure",
	GroupInput:     "input",
	GroupChanging:  "changing",
	GroupVariables: "variables",
	GroupCursor:    "cursor",
}

func (k GroupKind) String() string {
	return groupKindNames[k]
}

// IsPseudo reports whether the group is synthesized for procedure-language
// statements rather than named in a FROM clause.
func (k GroupKind) IsPseudo() bool {
	return k == GroupInput || k == GroupChanging || k == GroupVariables
}

// GroupSymbol is a bound row source. Two symbols are distinct even when
// they refer to the same catalog object; identity is the AST node that
// introduced the symbol.
type GroupSymbol struct {
	// Name is the effective name: the alias if present, else Definition.
	Name string
	// Path is the qualified name matched by qualifiers in this scope.
	Path []string
	// Definition is the qualified name of the underlying object.
	Definition string
	Alias      string
	Kind       GroupKind

	Group     *catalog.Group
	Procedure *catalog.Procedure
	Columns   []*ElementSymbol

	// Transformation is the resolved definition of a view.
	Transformation QueryCommand

	// Source is the node that introduced the symbol.
	Source Node

	// QualifiedOnly groups are not searched for bare element names.
	QualifiedOnly bool
	// ReadOnly groups reject assignment to their elements.
	ReadOnly bool
}

// Column returns the named element, or nil.
func (g *GroupSymbol) Column(name string) *ElementSymbol {
	folded := catalog.Fold(name)
	for _, c := range g.Columns {
		if catalog.Fold(c.Name) == folded {
			return c
		}
	}
	return nil
}

// AddColumn appends a new element owned by the group.
func (g *GroupSymbol) AddColumn(name string, t types.DataType) *ElementSymbol {
	e := &ElementSymbol{Name: name, Type: t, Group: g, Selectable: true, Updatable: true}
	g.Columns = append(g.Columns, e)
	return e
}

func (g *GroupSymbol) String() string {
	if g.Alias != "" {
		return g.Definition + " AS " + g.Alias
	}
	return g.Name
}

// ElementSymbol is a bound column, variable or projected output column.
// Projected columns of a query have no owning group.
type ElementSymbol struct {
	Name       string
	Type       types.DataType
	Group      *GroupSymbol
	Column     *catalog.Column
	Selectable bool
	Updatable  bool
}

// QualifiedName renders group.name, or name for ungrouped elements.
func (e *ElementSymbol) QualifiedName() string {
	if e.Group == nil {
		return e.Name
	}
	return e.Group.Name + "." + e.Name
}

// IsVariable reports whether the element is a procedure variable.
func (e *ElementSymbol) IsVariable() bool {
	return e.Group != nil && e.Group.Kind == GroupVariables
}

// QualifiedPath splits a dotted effective name into a path. Quoted names
// keep embedded dots only when created with an explicit path.
func QualifiedPath(name string) []string {
	return strings.Split(name, ".")
}
