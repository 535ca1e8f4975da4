// Package recommend picks the single best next work item from the
// graph engine's ready set.
package recommend

import (
	"fmt"

	"github.com/jkendrick/stint/internal/graph"
)

// Reason explains why no recommendation was made.
type Reason string

const (
	ReasonNone       Reason = ""            // a recommendation exists
	ReasonBlocked    Reason = "blocked"     // work exists but nothing is ready
	ReasonAllDone    Reason = "all_done"    // every item is completed
	ReasonEmptyStore Reason = "empty_store" // no work items at all
)

// Recommendation is the outcome of Next.
type Recommendation struct {
	ID     string // empty when Reason != ReasonNone
	Reason Reason
	Detail string // human-readable explanation
}

// Next selects the highest-priority ready item; ties go to the item
// that transitively unblocks the most work, then to the earliest
// inserted. The function is pure with respect to the graph: identical
// snapshots always produce the identical pick.
func Next(g *graph.Graph) Recommendation {
	parts := g.Partition()

	if len(parts.Ready) == 0 {
		return noneReason(g, parts)
	}

	counts := g.BlockedCounts()

	// Ready is already in insertion order, so the first candidate that
	// survives the comparisons is the deterministic winner.
	best := parts.Ready[0]
	for _, id := range parts.Ready[1:] {
		br := g.Item(best).Priority.Rank()
		ir := g.Item(id).Priority.Rank()
		switch {
		case ir < br:
			best = id
		case ir == br && counts[id] > counts[best]:
			best = id
		}
	}

	detail := fmt.Sprintf("%s: %s", best, g.Item(best).Title)
	if counts[best] > 0 {
		detail += fmt.Sprintf(" (unblocks %d items)", counts[best])
	}
	return Recommendation{ID: best, Detail: detail}
}

func noneReason(g *graph.Graph, parts *graph.Partitions) Recommendation {
	switch {
	case len(parts.Blocked) > 0:
		// Name the blocker holding the most work back, not the blocked
		// item: rank the unmet dependencies by how much they
		// transitively block.
		counts := g.BlockedCounts()
		blocker := make(map[string]bool)
		for _, b := range parts.Blocked {
			for _, dep := range b.Unmet {
				blocker[dep] = true
			}
		}
		worst := ""
		for _, id := range g.IDs() {
			if !blocker[id] {
				continue
			}
			if worst == "" || counts[id] > counts[worst] {
				worst = id
			}
		}
		return Recommendation{
			Reason: ReasonBlocked,
			Detail: fmt.Sprintf("nothing is ready; %s blocks the most work (%d items waiting on it)",
				worst, counts[worst]),
		}

	case g.Count() > 0 && len(parts.Completed) == g.Count():
		return Recommendation{Reason: ReasonAllDone, Detail: "all work items are completed"}

	case g.Count() == 0:
		return Recommendation{Reason: ReasonEmptyStore, Detail: "no work items exist"}

	default:
		// Everything remaining is in progress.
		return Recommendation{Reason: ReasonBlocked, Detail: "all remaining items are already in progress"}
	}
}
