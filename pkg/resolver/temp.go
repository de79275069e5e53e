package resolver

import (
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
)

// Session keeps temp tables across statements. A table created by a
// statement becomes visible to later statements once that statement has
// resolved successfully; DROP TABLE removes it. A Session is safe for
// concurrent use, but statements sharing a session should be resolved in
// order.
type Session struct {
	mu     sync.RWMutex
	tables map[string]*core.GroupSymbol
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{tables: make(map[string]*core.GroupSymbol)}
}

// TempTable returns the named temp table, or nil.
func (s *Session) TempTable(name string) *core.GroupSymbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[catalog.Fold(name)]
}

// TempTables returns every temp table sorted by name.
func (s *Session) TempTables() []*core.GroupSymbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.GroupSymbol, 0, len(s.tables))
	for _, g := range s.tables {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b *core.GroupSymbol) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (s *Session) apply(t *tempStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range t.dropped {
		delete(s.tables, key)
	}
	for key, g := range t.tables {
		s.tables[key] = g
	}
}

// tempStore holds the temp tables visible to one resolution: the session's
// tables overlaid with those created and dropped by the statement.
type tempStore struct {
	session *Session
	tables  map[string]*core.GroupSymbol
	dropped map[string]bool
}

func newTempStore(session *Session) *tempStore {
	return &tempStore{
		session: session,
		tables:  make(map[string]*core.GroupSymbol),
		dropped: make(map[string]bool),
	}
}

func (t *tempStore) lookup(name string) *core.GroupSymbol {
	key := catalog.Fold(name)
	if g, ok := t.tables[key]; ok {
		return g
	}
	if t.dropped[key] || t.session == nil {
		return nil
	}
	return t.session.TempTable(name)
}

func (t *tempStore) add(g *core.GroupSymbol) {
	key := catalog.Fold(g.Name)
	t.tables[key] = g
	delete(t.dropped, key)
}

func (t *tempStore) drop(name string) {
	key := catalog.Fold(name)
	delete(t.tables, key)
	t.dropped[key] = true
}

// commit publishes the statement's temp tables to the session.
func (t *tempStore) commit() {
	if t.session != nil {
		t.session.apply(t)
	}
}
