package graph

import "sort"

// CriticalPath returns the longest dependency chain in the graph,
// ordered from the earliest prerequisite to the final item. Every item
// counts as one unit of work; there is no duration field. Ties are
// broken by preferring the chain whose head appears earliest in
// snapshot insertion order, then the earliest tail. An empty graph
// returns an empty path.
func (g *Graph) CriticalPath() []string {
	if len(g.order) == 0 {
		return nil
	}

	// longest[id] = number of items on the longest chain ending at id.
	// bestPred[id] = predecessor chosen for that chain; among equally
	// long predecessors the earliest-inserted wins.
	longest := make(map[string]int, len(g.items))
	bestPred := make(map[string]string, len(g.items))

	var walk func(id string) int
	walk = func(id string) int {
		if l, ok := longest[id]; ok {
			return l
		}
		best := 0
		pred := ""
		for _, dep := range g.RevAdj[id] {
			if l := walk(dep); l > best {
				best = l
				pred = dep
			}
		}
		longest[id] = best + 1
		if pred != "" {
			bestPred[id] = pred
		}
		return best + 1
	}

	chain := func(end string) []string {
		var rev []string
		for cur := end; cur != ""; cur = bestPred[cur] {
			rev = append(rev, cur)
			if _, ok := bestPred[cur]; !ok {
				break
			}
		}
		for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
			rev[i], rev[j] = rev[j], rev[i]
		}
		return rev
	}

	// Candidate chain ends are the leaves; every longest chain ends at
	// one. Leaves are already in insertion order.
	var best []string
	bestHead := -1
	for _, end := range g.Leaves {
		l := walk(end)
		if best != nil && l < len(best) {
			continue
		}
		c := chain(end)
		head := g.orderIdx[c[0]]
		if best == nil || len(c) > len(best) || (len(c) == len(best) && head < bestHead) {
			best = c
			bestHead = head
		}
	}
	return best
}

// BlockedCounts returns, for every item, the number of other items that
// transitively require it. An item blocking one dependent that itself
// blocks five more scores six, not one.
func (g *Graph) BlockedCounts() map[string]int {
	counts := make(map[string]int, len(g.items))
	for _, id := range g.order {
		seen := map[string]bool{id: true}
		stack := append([]string(nil), g.Adj[id]...)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[cur] {
				continue
			}
			seen[cur] = true
			counts[id]++
			stack = append(stack, g.Adj[cur]...)
		}
	}
	return counts
}

// Bottlenecks returns items whose completion transitively unblocks at
// least two others, ranked by blocked count descending, then priority,
// then id.
func (g *Graph) Bottlenecks() []Bottleneck {
	counts := g.BlockedCounts()

	var out []Bottleneck
	for _, id := range g.order {
		if counts[id] >= 2 {
			out = append(out, Bottleneck{ID: id, BlockedCount: counts[id]})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].BlockedCount != out[b].BlockedCount {
			return out[a].BlockedCount > out[b].BlockedCount
		}
		pa := g.items[out[a].ID].Priority.Rank()
		pb := g.items[out[b].ID].Priority.Rank()
		if pa != pb {
			return pa < pb
		}
		return out[a].ID < out[b].ID
	})
	return out
}

// Levels groups items by topological level: level 0 holds items with no
// dependencies, level n items whose deepest dependency chain has n
// predecessors. Within a level, ids keep insertion order.
func (g *Graph) Levels() [][]string {
	if len(g.order) == 0 {
		return nil
	}

	level := make(map[string]int, len(g.items))
	var depth func(id string) int
	depth = func(id string) int {
		if l, ok := level[id]; ok {
			return l
		}
		max := -1
		for _, dep := range g.RevAdj[id] {
			if d := depth(dep); d > max {
				max = d
			}
		}
		level[id] = max + 1
		return max + 1
	}

	maxLevel := 0
	for _, id := range g.order {
		if d := depth(id); d > maxLevel {
			maxLevel = d
		}
	}

	groups := make([][]string, maxLevel+1)
	for _, id := range g.order {
		groups[level[id]] = append(groups[level[id]], id)
	}
	return groups
}
