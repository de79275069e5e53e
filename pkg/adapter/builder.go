package adapter

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// ColumnInfo is one introspected column.
type ColumnInfo struct {
	Name       string
	NativeType string
	Nullable   bool
	Position   int
}

type builderTable struct {
	schema, name string
	view         bool
	columns      []*catalog.Column
	keys         []*catalog.Key
}

// Builder accumulates introspected rows into a catalog. Groups keep the
// order in which they are first seen.
type Builder struct {
	tables []*builderTable
	index  map[string]*builderTable
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]*builderTable)}
}

func (b *Builder) table(schema, name string) *builderTable {
	key := catalog.Fold(schema) + "." + catalog.Fold(name)
	t, ok := b.index[key]
	if !ok {
		t = &builderTable{schema: schema, name: name}
		b.index[key] = t
		b.tables = append(b.tables, t)
	}
	return t
}

// Len returns the number of groups seen so far.
func (b *Builder) Len() int {
	return len(b.tables)
}

// AddColumn records a column of schema.table. Columns of views are
// neither updatable nor part of an updatable group.
func (b *Builder) AddColumn(schema, table string, info ColumnInfo, view bool) {
	t := b.table(schema, table)
	t.view = t.view || view
	c := catalog.NewColumn(info.Name, types.FromNative(info.NativeType))
	c.Nullable = info.Nullable
	c.Position = info.Position
	c.Updatable = !view
	t.columns = append(t.columns, c)
}

// AddKeyColumn appends column to the named constraint of schema.table.
// The constraint type uses information_schema spelling (PRIMARY KEY,
// UNIQUE, FOREIGN KEY); anything else is recorded as an index.
func (b *Builder) AddKeyColumn(schema, table, constraint, constraintType, column string) {
	t := b.table(schema, table)
	for _, k := range t.keys {
		if k.Name == constraint {
			k.Columns = append(k.Columns, column)
			return
		}
	}
	t.keys = append(t.keys, &catalog.Key{
		Name:    constraint,
		Kind:    keyKind(constraintType),
		Columns: []string{column},
	})
}

func keyKind(constraintType string) catalog.KeyKind {
	switch strings.ToUpper(strings.TrimSpace(constraintType)) {
	case "PRIMARY KEY":
		return catalog.KeyPrimary
	case "UNIQUE":
		return catalog.KeyUnique
	case "FOREIGN KEY":
		return catalog.KeyForeign
	default:
		return catalog.KeyIndex
	}
}

// Build returns a catalog seeded with the system functions holding every
// group that has at least one column.
func (b *Builder) Build() (*catalog.Memory, error) {
	m := catalog.NewMemoryWithSystemFunctions()
	for _, t := range b.tables {
		if len(t.columns) == 0 {
			continue
		}
		g := &catalog.Group{
			Name:      []string{t.schema, t.name},
			Columns:   t.columns,
			Keys:      t.keys,
			Updatable: !t.view,
		}
		if err := m.AddGroup(g); err != nil {
			return nil, fmt.Errorf("failed to add %s.%s: %w", t.schema, t.name, err)
		}
	}
	return m, nil
}
