// Package catalog defines the read-only metadata catalog consumed by the
// resolver, and an in-memory implementation of it.
//
// Names are matched case-insensitively on whole dot-separated segments. A
// partially qualified path matches every object whose fully qualified name
// ends with it; more than one match is an AmbiguousError.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/types"
)

// Catalog is the metadata facade. Implementations must be safe for
// concurrent reads.
type Catalog interface {
	// FindGroup returns the unique table or view whose qualified name ends
	// with path.
	FindGroup(path []string) (*Group, error)

	// Columns returns a group's columns in positional order.
	Columns(g *Group) ([]*Column, error)

	// Keys returns the key and relationship metadata of a group.
	Keys(g *Group) ([]*Key, error)

	// FindProcedure returns the unique procedure whose qualified name ends
	// with path.
	FindProcedure(path []string) (*Procedure, error)

	// Functions returns every signature registered under name. An unknown
	// name yields an empty slice, not an error.
	Functions(name string) ([]*Signature, error)
}

// GroupKind distinguishes physical tables from views.
type GroupKind int

// Group kinds.
const (
	KindTable GroupKind = iota
	KindView
)

func (k GroupKind) String() string {
	if k == KindView {
		return "view"
	}
	return "table"
}

// Group is a table or view.
type Group struct {
	Name       []string
	Kind       GroupKind
	Columns    []*Column
	Keys       []*Key
	Definition string // view transformation, SQL text
	Updatable  bool
}

// FullName returns the dotted qualified name.
func (g *Group) FullName() string {
	return strings.Join(g.Name, ".")
}

// Column returns the named column, or nil.
func (g *Group) Column(name string) *Column {
	folded := Fold(name)
	for _, c := range g.Columns {
		if Fold(c.Name) == folded {
			return c
		}
	}
	return nil
}

// Column is a group column.
type Column struct {
	Name       string
	Type       types.DataType
	Selectable bool
	Updatable  bool
	Nullable   bool
	Position   int
}

// NewColumn returns a selectable, updatable, nullable column.
func NewColumn(name string, t types.DataType) *Column {
	return &Column{Name: name, Type: t, Selectable: true, Updatable: true, Nullable: true}
}

// KeyKind classifies key metadata.
type KeyKind int

// Key kinds.
const (
	KeyPrimary KeyKind = iota
	KeyUnique
	KeyForeign
	KeyIndex
)

var keyKindNames = map[KeyKind]string{
	KeyPrimary: "primary",
	KeyUnique:  "unique",
	KeyForeign: "foreign",
	KeyIndex:   "index",
}

func (k KeyKind) String() string {
	return keyKindNames[k]
}

// ParseKeyKind parses a key kind name.
func ParseKeyKind(s string) (KeyKind, error) {
	for k, n := range keyKindNames {
		if strings.EqualFold(n, s) {
			return k, nil
		}
	}
	return KeyIndex, fmt.Errorf("unknown key kind %q", s)
}

// Key is primary, unique, foreign or index metadata. References names the
// referenced group of a foreign key.
type Key struct {
	Name       string
	Kind       KeyKind
	Columns    []string
	References []string
}

// ParamMode is the direction of a procedure parameter.
type ParamMode int

// Parameter modes.
const (
	ParamIn ParamMode = iota
	ParamOut
	ParamInOut
	ParamReturn
)

var paramModeNames = map[ParamMode]string{
	ParamIn:     "in",
	ParamOut:    "out",
	ParamInOut:  "inout",
	ParamReturn: "return",
}

func (m ParamMode) String() string {
	return paramModeNames[m]
}

// ParseParamMode parses a parameter mode name; empty means in.
func ParseParamMode(s string) (ParamMode, error) {
	if s == "" {
		return ParamIn, nil
	}
	for m, n := range paramModeNames {
		if strings.EqualFold(n, s) {
			return m, nil
		}
	}
	return ParamIn, fmt.Errorf("unknown parameter mode %q", s)
}

// IsInput reports whether the parameter receives a value from the caller.
func (m ParamMode) IsInput() bool {
	return m == ParamIn || m == ParamInOut
}

// Parameter is a procedure parameter. A parameter with a default is
// optional.
type Parameter struct {
	Name       string
	Type       types.DataType
	Mode       ParamMode
	HasDefault bool
	Default    string
}

// Procedure is a stored or virtual procedure.
type Procedure struct {
	Name    []string
	Params  []*Parameter
	Results []*Column
	Virtual bool
	Body    string // virtual procedure body, SQL text
}

// FullName returns the dotted qualified name.
func (p *Procedure) FullName() string {
	return strings.Join(p.Name, ".")
}

// Param returns the named parameter, or nil.
func (p *Procedure) Param(name string) *Parameter {
	folded := Fold(name)
	for _, prm := range p.Params {
		if Fold(prm.Name) == folded {
			return prm
		}
	}
	return nil
}

// Signature is a function catalog entry. A variadic signature repeats its
// last parameter zero or more times. The first ConstantArgs arguments must
// be literals.
type Signature struct {
	Name         string
	Params       []types.DataType
	Variadic     bool
	Returns      types.DataType
	ConstantArgs int
	Aggregate    bool
}

// Equal reports whether o declares the same function as s.
func (s *Signature) Equal(o *Signature) bool {
	return EqualName(s.Name, o.Name) &&
		slices.Equal(s.Params, o.Params) &&
		s.Variadic == o.Variadic &&
		s.Returns == o.Returns &&
		s.ConstantArgs == o.ConstantArgs &&
		s.Aggregate == o.Aggregate
}

// Accepts reports whether the signature can take n arguments. A variadic
// signature without parameters accepts nothing.
func (s *Signature) Accepts(n int) bool {
	if s.Variadic {
		if len(s.Params) == 0 {
			return false
		}
		return n >= len(s.Params)-1
	}
	return n == len(s.Params)
}

// ParamType returns the declared type of argument i, expanding a variadic
// tail.
func (s *Signature) ParamType(i int) types.DataType {
	if i >= len(s.Params) {
		return s.Params[len(s.Params)-1]
	}
	return s.Params[i]
}

func (s *Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	if s.Variadic && len(parts) > 0 {
		parts[len(parts)-1] += "..."
	}
	return fmt.Sprintf("%s(%s) returns %s", s.Name, strings.Join(parts, ", "), s.Returns)
}
