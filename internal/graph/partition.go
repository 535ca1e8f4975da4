package graph

import (
	"fmt"

	"github.com/jkendrick/stint/internal/item"
)

// Partition splits the graph's items into ready, blocked, in-progress,
// and completed sets.
//
// An item is ready when it has not started and every dependency still
// present in the graph is completed; dependencies a filter removed are
// treated as satisfied (see ExcludedDeps). Blocked items carry the
// specific unmet dependency ids. In-progress items are reported as-is
// even when a dependency regressed underneath them; that inconsistency
// becomes a warning, never a silent omission.
func (g *Graph) Partition() *Partitions {
	p := &Partitions{}

	for _, id := range g.order {
		it := g.items[id]
		switch it.Status {
		case item.StatusCompleted:
			p.Completed = append(p.Completed, id)

		case item.StatusInProgress:
			p.InProgress = append(p.InProgress, id)
			if unmet := g.unmetDeps(id); len(unmet) > 0 {
				p.Warnings = append(p.Warnings,
					fmt.Sprintf("%s is in progress but dependencies are unfinished: %v", id, unmet))
			}

		default: // not_started, or an explicit blocked override
			unmet := g.unmetDeps(id)
			if len(unmet) == 0 && it.Status != item.StatusBlocked {
				p.Ready = append(p.Ready, id)
			} else {
				p.Blocked = append(p.Blocked, BlockedItem{ID: id, Unmet: unmet})
			}
		}
	}

	return p
}

// unmetDeps returns the in-graph dependencies of id whose status is not
// completed, in insertion order.
func (g *Graph) unmetDeps(id string) []string {
	var unmet []string
	for _, dep := range g.RevAdj[id] {
		if g.items[dep].Status != item.StatusCompleted {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}
