// Package graph is the dependency graph engine: it builds a validated
// DAG from a work-item snapshot and computes critical paths,
// bottlenecks, topological levels, and ready/blocked partitions.
package graph

import (
	"sort"

	"github.com/jkendrick/stint/internal/item"
)

// Build constructs a Graph from a snapshot and validates it.
// Validation order: self-dependencies, dangling references, cycles.
// Any failure aborts construction; analysis never runs on an invalid
// graph.
func Build(snap *item.Snapshot) (*Graph, error) {
	g := &Graph{
		items:    make(map[string]*item.WorkItem, snap.Len()),
		order:    make([]string, 0, snap.Len()),
		orderIdx: make(map[string]int, snap.Len()),
		Adj:      make(map[string][]string),
		RevAdj:   make(map[string][]string),
	}

	for _, id := range snap.Order {
		it := snap.Items[id]
		if it == nil {
			continue
		}
		g.orderIdx[id] = len(g.order)
		g.order = append(g.order, id)
		g.items[id] = it
	}

	// Edges: dependency -> dependent. Deduped so a repeated entry in a
	// dependency list doesn't double an edge.
	edgeSet := make(map[[2]string]bool)
	for _, id := range g.order {
		for _, dep := range g.items[id].Dependencies {
			if dep == id {
				return nil, &SelfDependencyError{ItemID: id}
			}
			if _, ok := g.items[dep]; !ok {
				return nil, &DanglingDependencyError{ItemID: id, Missing: dep}
			}
			key := [2]string{dep, id}
			if edgeSet[key] {
				continue
			}
			edgeSet[key] = true
			g.Adj[dep] = append(g.Adj[dep], id)
			g.RevAdj[id] = append(g.RevAdj[id], dep)
		}
	}

	// Deterministic adjacency ordering regardless of input dep order.
	for k := range g.Adj {
		g.sortByInsertion(g.Adj[k])
	}
	for k := range g.RevAdj {
		g.sortByInsertion(g.RevAdj[k])
	}

	for _, id := range g.order {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	if cycle := g.detectCycle(); cycle != nil {
		return nil, &CycleError{Chain: cycle}
	}

	return g, nil
}

// sortByInsertion orders ids by snapshot insertion position.
func (g *Graph) sortByInsertion(ids []string) {
	sort.Slice(ids, func(a, b int) bool {
		return g.orderIdx[ids[a]] < g.orderIdx[ids[b]]
	})
}

// detectCycle returns the cycle chain if one exists, or nil. DFS with
// three-color marking: white (unvisited), gray (on stack), black
// (done). Hitting a gray node closes a cycle; the chain is rebuilt from
// the parent map and returned starting and ending at the repeated id.
func (g *Graph) detectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.items))
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				chain := []string{next}
				for cur := node; cur != next; cur = parent[cur] {
					chain = append(chain, cur)
				}
				chain = append(chain, next)
				// Reverse into dependency order: next ... next.
				for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
					chain[i], chain[j] = chain[j], chain[i]
				}
				return chain
			}
			if color[next] == white {
				parent[next] = node
				if chain := dfs(next); chain != nil {
					return chain
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range g.order {
		if color[id] == white {
			if chain := dfs(id); chain != nil {
				return chain
			}
		}
	}
	return nil
}

// Focus returns the direct neighborhood of id: the item, what it
// requires, and what it unlocks. Returns NotFoundError for unknown ids;
// an item with no neighbors returns an empty (non-error) neighborhood.
func (g *Graph) Focus(id string) (*Neighborhood, error) {
	it, ok := g.items[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	n := &Neighborhood{Item: it}
	for _, dep := range g.RevAdj[id] {
		n.Dependencies = append(n.Dependencies, g.items[dep])
	}
	for _, dependent := range g.Adj[id] {
		n.Dependents = append(n.Dependents, g.items[dependent])
	}
	return n, nil
}

// Filter returns a subgraph containing only items matching pred.
// Dependencies on filtered-out items are removed from the subgraph and
// recorded as excluded: they count as satisfied for readiness but are
// reported alongside the item so the narrowed view stays honest.
func (g *Graph) Filter(pred func(*item.WorkItem) bool) (*Graph, error) {
	kept := make(map[string]bool, len(g.items))
	for _, id := range g.order {
		if pred(g.items[id]) {
			kept[id] = true
		}
	}

	var items []*item.WorkItem
	excluded := make(map[string][]string)
	for _, id := range g.order {
		if !kept[id] {
			continue
		}
		it := *g.items[id]
		var deps []string
		for _, dep := range it.Dependencies {
			if kept[dep] {
				deps = append(deps, dep)
			} else {
				excluded[id] = append(excluded[id], dep)
			}
		}
		it.Dependencies = deps
		items = append(items, &it)
	}

	sub, err := Build(item.NewSnapshot(items))
	if err != nil {
		return nil, err
	}
	sub.excluded = excluded
	return sub, nil
}
