package recommend

import (
	"strings"
	"testing"

	"github.com/jkendrick/stint/internal/graph"
	"github.com/jkendrick/stint/internal/item"
)

func buildGraph(t *testing.T, items ...*item.WorkItem) *graph.Graph {
	t.Helper()
	g, err := graph.Build(item.NewSnapshot(items))
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func wi(id string, status item.Status, pri item.Priority, deps ...string) *item.WorkItem {
	return &item.WorkItem{
		ID:           id,
		Title:        "Item " + id,
		Type:         item.TypeFeature,
		Status:       status,
		Priority:     pri,
		Dependencies: deps,
	}
}

func TestNext_HighestPriorityWins(t *testing.T) {
	g := buildGraph(t,
		wi("low", item.StatusNotStarted, item.PriorityLow),
		wi("crit", item.StatusNotStarted, item.PriorityCritical),
	)

	rec := Next(g)
	if rec.ID != "crit" {
		t.Errorf("expected crit, got %+v", rec)
	}
}

func TestNext_ImpactBreaksPriorityTie(t *testing.T) {
	// p and q are both high priority and ready; p transitively
	// unblocks two items, q none.
	g := buildGraph(t,
		wi("q", item.StatusNotStarted, item.PriorityHigh),
		wi("p", item.StatusNotStarted, item.PriorityHigh),
		wi("mid", item.StatusNotStarted, item.PriorityMedium, "p"),
		wi("end", item.StatusNotStarted, item.PriorityMedium, "mid"),
	)

	rec := Next(g)
	if rec.ID != "p" {
		t.Errorf("expected p (unblocks 2), got %+v", rec)
	}
}

func TestNext_InsertionOrderIsFinalTieBreak(t *testing.T) {
	g := buildGraph(t,
		wi("first", item.StatusNotStarted, item.PriorityMedium),
		wi("second", item.StatusNotStarted, item.PriorityMedium),
	)

	rec := Next(g)
	if rec.ID != "first" {
		t.Errorf("expected first, got %+v", rec)
	}
}

func TestNext_Deterministic(t *testing.T) {
	items := []*item.WorkItem{
		wi("a", item.StatusNotStarted, item.PriorityHigh),
		wi("b", item.StatusNotStarted, item.PriorityHigh),
		wi("c", item.StatusNotStarted, item.PriorityMedium, "a"),
	}

	first := Next(buildGraph(t, items...))
	for i := 0; i < 10; i++ {
		if got := Next(buildGraph(t, items...)); got != first {
			t.Fatalf("non-deterministic recommendation: %+v vs %+v", got, first)
		}
	}
}

func TestNext_BlockedReason(t *testing.T) {
	g := buildGraph(t,
		wi("base", item.StatusInProgress, item.PriorityHigh),
		wi("dep1", item.StatusNotStarted, item.PriorityMedium, "base"),
		wi("dep2", item.StatusNotStarted, item.PriorityMedium, "dep1"),
	)

	rec := Next(g)
	if rec.ID != "" || rec.Reason != ReasonBlocked {
		t.Errorf("expected blocked reason, got %+v", rec)
	}
	// base transitively blocks dep1 and dep2; dep1 only blocks dep2.
	// The detail must name the blocker, not a blocked item.
	if !strings.Contains(rec.Detail, "base blocks the most work") {
		t.Errorf("expected base named as the top blocker, got %q", rec.Detail)
	}
	if !strings.Contains(rec.Detail, "2 items waiting") {
		t.Errorf("expected base's transitive count, got %q", rec.Detail)
	}
}

func TestNext_BlockedReasonNamesDeepestBlocker(t *testing.T) {
	// mid is both blocked (by root) and a blocker (of leaf); root still
	// holds the most work back.
	g := buildGraph(t,
		wi("root", item.StatusInProgress, item.PriorityMedium),
		wi("mid", item.StatusNotStarted, item.PriorityMedium, "root"),
		wi("leaf1", item.StatusNotStarted, item.PriorityMedium, "mid"),
		wi("leaf2", item.StatusNotStarted, item.PriorityMedium, "mid"),
	)

	rec := Next(g)
	if rec.Reason != ReasonBlocked {
		t.Fatalf("expected blocked reason, got %+v", rec)
	}
	if !strings.Contains(rec.Detail, "root blocks the most work") {
		t.Errorf("expected root named as the top blocker, got %q", rec.Detail)
	}
}

func TestNext_AllDone(t *testing.T) {
	g := buildGraph(t,
		wi("a", item.StatusCompleted, item.PriorityHigh),
		wi("b", item.StatusCompleted, item.PriorityLow, "a"),
	)

	rec := Next(g)
	if rec.Reason != ReasonAllDone {
		t.Errorf("expected all_done, got %+v", rec)
	}
}

func TestNext_EmptyStore(t *testing.T) {
	rec := Next(buildGraph(t))
	if rec.Reason != ReasonEmptyStore {
		t.Errorf("expected empty_store, got %+v", rec)
	}
}
