package catalog

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Memory is an in-memory Catalog. Writes are expected during setup; reads
// may run concurrently with each other and with writes.
type Memory struct {
	mu         sync.RWMutex
	groups     map[string][]*Group     // folded last segment -> groups
	procedures map[string][]*Procedure // folded last segment -> procedures
	functions  map[string][]*Signature // folded name -> signatures
}

// NewMemory returns an empty catalog.
func NewMemory() *Memory {
	return &Memory{
		groups:     make(map[string][]*Group),
		procedures: make(map[string][]*Procedure),
		functions:  make(map[string][]*Signature),
	}
}

// NewMemoryWithSystemFunctions returns an empty catalog seeded with the
// built-in function library.
func NewMemoryWithSystemFunctions() *Memory {
	m := NewMemory()
	for _, sig := range SystemFunctions() {
		m.AddFunction(sig)
	}
	return m
}

func lastSegment(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return Fold(path[len(path)-1])
}

// AddGroup registers a table or view. Column positions are assigned in
// order. Registering a second group with the same qualified name is an
// error.
func (m *Memory) AddGroup(g *Group) error {
	if len(g.Name) == 0 {
		return fmt.Errorf("group has no name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := lastSegment(g.Name)
	for _, existing := range m.groups[key] {
		if len(existing.Name) == len(g.Name) && HasSuffix(existing.Name, g.Name) {
			return fmt.Errorf("group %s already defined", g.FullName())
		}
	}
	for i, c := range g.Columns {
		c.Position = i + 1
	}
	m.groups[key] = append(m.groups[key], g)
	return nil
}

// AddProcedure registers a procedure.
func (m *Memory) AddProcedure(p *Procedure) error {
	if len(p.Name) == 0 {
		return fmt.Errorf("procedure has no name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := lastSegment(p.Name)
	for _, existing := range m.procedures[key] {
		if len(existing.Name) == len(p.Name) && HasSuffix(existing.Name, p.Name) {
			return fmt.Errorf("procedure %s already defined", p.FullName())
		}
	}
	for i, c := range p.Results {
		c.Position = i + 1
	}
	m.procedures[key] = append(m.procedures[key], p)
	return nil
}

// AddFunction registers a function signature. Adding a signature equal to
// a registered one has no effect.
func (m *Memory) AddFunction(sig *Signature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := Fold(sig.Name)
	if slices.ContainsFunc(m.functions[key], sig.Equal) {
		return
	}
	m.functions[key] = append(m.functions[key], sig)
}

// FindGroup implements Catalog.
func (m *Memory) FindGroup(path []string) (*Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := MatchSuffix(m.groups[lastSegment(path)], path, func(g *Group) []string { return g.Name })
	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Kind: "group", Name: JoinPath(path)}
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, g := range matches {
		names[i] = g.FullName()
	}
	sort.Strings(names)
	return nil, &AmbiguousError{Kind: "group", Name: JoinPath(path), Matches: names}
}

// Columns implements Catalog.
func (m *Memory) Columns(g *Group) ([]*Column, error) {
	return g.Columns, nil
}

// Keys implements Catalog.
func (m *Memory) Keys(g *Group) ([]*Key, error) {
	return g.Keys, nil
}

// FindProcedure implements Catalog.
func (m *Memory) FindProcedure(path []string) (*Procedure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := MatchSuffix(m.procedures[lastSegment(path)], path, func(p *Procedure) []string { return p.Name })
	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Kind: "procedure", Name: JoinPath(path)}
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, p := range matches {
		names[i] = p.FullName()
	}
	sort.Strings(names)
	return nil, &AmbiguousError{Kind: "procedure", Name: JoinPath(path), Matches: names}
}

// Functions implements Catalog.
func (m *Memory) Functions(name string) ([]*Signature, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sigs := m.functions[Fold(name)]
	out := make([]*Signature, len(sigs))
	copy(out, sigs)
	return out, nil
}

// Groups returns every registered group sorted by qualified name.
func (m *Memory) Groups() []*Group {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Group
	for _, gs := range m.groups {
		out = append(out, gs...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	return out
}

// Procedures returns every registered procedure sorted by qualified name.
func (m *Memory) Procedures() []*Procedure {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Procedure
	for _, ps := range m.procedures {
		out = append(out, ps...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	return out
}

// FunctionNames returns every registered function name, sorted.
func (m *Memory) FunctionNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.functions))
	for _, sigs := range m.functions {
		if len(sigs) > 0 {
			out = append(out, sigs[0].Name)
		}
	}
	sort.Strings(out)
	return out
}

// Signatures returns every registered signature for user-defined and
// built-in functions, grouped by name order.
func (m *Memory) Signatures() []*Signature {
	var out []*Signature
	for _, name := range m.FunctionNames() {
		sigs, _ := m.Functions(name)
		out = append(out, sigs...)
	}
	return out
}

// UserSignatures returns the registered signatures that are not part of
// the system function library.
func (m *Memory) UserSignatures() []*Signature {
	system := SystemFunctions()
	var out []*Signature
	for _, s := range m.Signatures() {
		if !slices.ContainsFunc(system, s.Equal) {
			out = append(out, s)
		}
	}
	return out
}
