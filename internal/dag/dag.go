// Package dag is a dependency graph over named catalog definitions such as
// views and virtual procedures. It supports cycle detection, grouping into
// levels that can be processed concurrently, and downstream impact.
package dag

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// CycleError reports definitions that depend on themselves. Path starts
// and ends with the same name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "definition cycle: " + strings.Join(e.Path, " -> ")
}

// Graph records which definitions each definition depends on.
type Graph struct {
	nodes      map[string]bool
	deps       map[string][]string // id -> what it reads
	dependents map[string][]string // id -> what reads it
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]bool),
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

// Add adds a node. Adding an existing node has no effect.
func (g *Graph) Add(id string) {
	g.nodes[id] = true
}

// Has reports whether id is a node.
func (g *Graph) Has(id string) bool {
	return g.nodes[id]
}

// DependsOn records that id reads dep. Both must have been added. A node
// may depend on itself; that is reported as a cycle.
func (g *Graph) DependsOn(id, dep string) error {
	if !g.nodes[id] {
		return fmt.Errorf("node %q does not exist", id)
	}
	if !g.nodes[dep] {
		return fmt.Errorf("node %q does not exist", dep)
	}
	if !slices.Contains(g.deps[id], dep) {
		g.deps[id] = append(g.deps[id], dep)
		g.dependents[dep] = append(g.dependents[dep], id)
	}
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Deps returns the direct dependencies of id, sorted.
func (g *Graph) Deps(id string) []string {
	return sorted(g.deps[id])
}

// Dependents returns the nodes that directly depend on id, sorted.
func (g *Graph) Dependents(id string) []string {
	return sorted(g.dependents[id])
}

// Nodes returns every node, sorted.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cycle returns one dependency cycle, or nil when the graph is acyclic.
// Nodes are visited in name order, so the result is deterministic.
func (g *Graph) Cycle() []string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = onStack
		stack = append(stack, id)
		for _, dep := range g.Deps(id) {
			switch state[dep] {
			case onStack:
				start := slices.Index(stack, dep)
				cycle = append(slices.Clone(stack[start:]), dep)
				return true
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range g.Nodes() {
		if state[id] == unvisited && visit(id) {
			return cycle
		}
	}
	return nil
}

// Levels groups nodes so that every node comes after all of its
// dependencies. Level 0 holds nodes with no dependencies; nodes within a
// level do not depend on each other.
func (g *Graph) Levels() ([][]string, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	level := make(map[string]int, len(g.nodes))
	var depth func(id string) int
	depth = func(id string) int {
		if l, ok := level[id]; ok {
			return l
		}
		l := 0
		for _, dep := range g.deps[id] {
			l = max(l, depth(dep)+1)
		}
		level[id] = l
		return l
	}

	var levels [][]string
	for _, id := range g.Nodes() {
		l := depth(id)
		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], id)
	}
	return levels, nil
}

// Downstream returns every node that transitively depends on any of ids,
// excluding ids themselves, sorted.
func (g *Graph) Downstream(ids ...string) []string {
	seen := make(map[string]bool)
	var mark func(id string)
	mark = func(id string) {
		for _, d := range g.dependents[id] {
			if !seen[d] {
				seen[d] = true
				mark(d)
			}
		}
	}
	for _, id := range ids {
		mark(id)
	}
	for _, id := range ids {
		delete(seen, id)
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Upstream returns every node that id transitively depends on, sorted.
func (g *Graph) Upstream(id string) []string {
	seen := make(map[string]bool)
	var mark func(n string)
	mark = func(n string) {
		for _, d := range g.deps[n] {
			if !seen[d] {
				seen[d] = true
				mark(d)
			}
		}
	}
	mark(id)
	delete(seen, id)
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Remove deletes nodes and every edge touching them.
func (g *Graph) Remove(ids ...string) {
	for _, id := range ids {
		for _, dep := range g.deps[id] {
			g.dependents[dep] = slices.DeleteFunc(g.dependents[dep], func(s string) bool { return s == id })
		}
		for _, d := range g.dependents[id] {
			g.deps[d] = slices.DeleteFunc(g.deps[d], func(s string) bool { return s == id })
		}
		delete(g.nodes, id)
		delete(g.deps, id)
		delete(g.dependents, id)
	}
}

func sorted(ids []string) []string {
	out := slices.Clone(ids)
	sort.Strings(out)
	return out
}
