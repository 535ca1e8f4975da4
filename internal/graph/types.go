package graph

import "github.com/jkendrick/stint/internal/item"

// Graph is a validated directed acyclic graph of work items. An edge
// A -> B means B depends on A (A must complete before B can start).
// Graphs are rebuilt from a store snapshot on every analysis; nothing
// here is persisted or mutated after Build returns.
type Graph struct {
	items    map[string]*item.WorkItem
	order    []string       // snapshot insertion order, the tie-break source
	orderIdx map[string]int // id -> position in order

	Adj    map[string][]string // id -> ids it unlocks (dependents)
	RevAdj map[string][]string // id -> ids it requires (dependencies)
	Roots  []string            // no dependencies within the graph
	Leaves []string            // unlock nothing within the graph

	// excluded maps an id to dependencies that were removed by a
	// filter. They are treated as satisfied for readiness but surfaced
	// so a filtered view never silently hides an edge.
	excluded map[string][]string
}

// Item returns the work item for id, or nil.
func (g *Graph) Item(id string) *item.WorkItem {
	return g.items[id]
}

// Count returns the number of items in the graph.
func (g *Graph) Count() int {
	return len(g.items)
}

// IDs returns all item ids in snapshot insertion order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// ExcludedDeps returns dependencies of id that a filter removed from
// the graph, or nil for unfiltered graphs.
func (g *Graph) ExcludedDeps(id string) []string {
	return g.excluded[id]
}

// Bottleneck is a work item whose completion transitively unblocks
// BlockedCount other items.
type Bottleneck struct {
	ID           string
	BlockedCount int
}

// BlockedItem is a not-yet-startable item together with the specific
// dependencies holding it back.
type BlockedItem struct {
	ID    string
	Unmet []string // dependency ids with status != completed
}

// Partitions groups the graph's items by workability. Slices hold ids
// in snapshot insertion order.
type Partitions struct {
	Ready      []string
	Blocked    []BlockedItem
	InProgress []string
	Completed  []string

	// Warnings surfaces inconsistencies such as an in-progress item
	// whose dependency regressed to an unfinished status.
	Warnings []string
}

// Neighborhood is the focus view for a single item: the item itself,
// what it requires, and what it unlocks.
type Neighborhood struct {
	Item         *item.WorkItem
	Dependencies []*item.WorkItem
	Dependents   []*item.WorkItem
}
