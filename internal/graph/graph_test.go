package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jkendrick/stint/internal/item"
)

func snap(items ...*item.WorkItem) *item.Snapshot {
	return item.NewSnapshot(items)
}

func wi(id string, status item.Status, deps ...string) *item.WorkItem {
	return &item.WorkItem{
		ID:           id,
		Title:        "Item " + id,
		Type:         item.TypeFeature,
		Status:       status,
		Priority:     item.PriorityMedium,
		Dependencies: deps,
	}
}

func mustBuild(t *testing.T, s *item.Snapshot) *Graph {
	t.Helper()
	g, err := Build(s)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func TestBuild_SimpleDAG(t *testing.T) {
	// a -> b -> d
	// a -> c -> d
	g := mustBuild(t, snap(
		wi("a", item.StatusNotStarted),
		wi("b", item.StatusNotStarted, "a"),
		wi("c", item.StatusNotStarted, "a"),
		wi("d", item.StatusNotStarted, "b", "c"),
	))

	if g.Count() != 4 {
		t.Errorf("expected 4 items, got %d", g.Count())
	}
	if len(g.Roots) != 1 || g.Roots[0] != "a" {
		t.Errorf("expected roots=[a], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != "d" {
		t.Errorf("expected leaves=[d], got %v", g.Leaves)
	}
	if adj := g.Adj["a"]; !reflect.DeepEqual(adj, []string{"b", "c"}) {
		t.Errorf("expected a to unlock [b c], got %v", adj)
	}
	if rev := g.RevAdj["d"]; !reflect.DeepEqual(rev, []string{"b", "c"}) {
		t.Errorf("expected d to require [b c], got %v", rev)
	}
}

func TestBuild_Empty(t *testing.T) {
	g := mustBuild(t, snap())
	if g.Count() != 0 {
		t.Errorf("expected empty graph, got %d items", g.Count())
	}
	if path := g.CriticalPath(); len(path) != 0 {
		t.Errorf("expected empty critical path, got %v", path)
	}
}

func TestBuild_SelfDependency(t *testing.T) {
	_, err := Build(snap(wi("a", item.StatusNotStarted, "a")))
	var selfErr *SelfDependencyError
	if !errors.As(err, &selfErr) {
		t.Fatalf("expected SelfDependencyError, got %v", err)
	}
	if selfErr.ItemID != "a" {
		t.Errorf("expected offending item a, got %s", selfErr.ItemID)
	}
}

func TestBuild_DanglingDependency(t *testing.T) {
	_, err := Build(snap(wi("m", item.StatusNotStarted, "ghost")))
	var dangling *DanglingDependencyError
	if !errors.As(err, &dangling) {
		t.Fatalf("expected DanglingDependencyError, got %v", err)
	}
	if dangling.ItemID != "m" || dangling.Missing != "ghost" {
		t.Errorf("expected m -> ghost, got %s -> %s", dangling.ItemID, dangling.Missing)
	}
}

func TestBuild_CycleDetection(t *testing.T) {
	// x depends on z, z on y, y on x: a three-item cycle.
	_, err := Build(snap(
		wi("x", item.StatusNotStarted, "z"),
		wi("y", item.StatusNotStarted, "x"),
		wi("z", item.StatusNotStarted, "y"),
	))
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}

	chain := cycleErr.Chain
	if len(chain) != 4 {
		t.Fatalf("expected chain of 4 ids (closing repeat), got %v", chain)
	}
	if chain[0] != chain[len(chain)-1] {
		t.Errorf("expected chain to return to its start, got %v", chain)
	}
	seen := map[string]bool{}
	for _, id := range chain[:len(chain)-1] {
		seen[id] = true
	}
	for _, id := range []string{"x", "y", "z"} {
		if !seen[id] {
			t.Errorf("expected %s in cycle chain %v", id, chain)
		}
	}
}

// The reported chain must follow real edges: each consecutive pair
// (a, b) must satisfy "b depends on a".
func TestBuild_CycleChainFollowsEdges(t *testing.T) {
	items := []*item.WorkItem{
		wi("p", item.StatusNotStarted),
		wi("q", item.StatusNotStarted, "p", "t"),
		wi("r", item.StatusNotStarted, "q"),
		wi("s", item.StatusNotStarted, "r"),
		wi("t", item.StatusNotStarted, "s"),
	}
	_, err := Build(snap(items...))
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}

	deps := map[string]map[string]bool{}
	for _, it := range items {
		deps[it.ID] = map[string]bool{}
		for _, d := range it.Dependencies {
			deps[it.ID][d] = true
		}
	}
	chain := cycleErr.Chain
	for i := 0; i+1 < len(chain); i++ {
		if !deps[chain[i+1]][chain[i]] {
			t.Errorf("chain step %s -> %s is not a real edge (chain %v)", chain[i], chain[i+1], chain)
		}
	}
}

func TestCriticalPath_LinearChain(t *testing.T) {
	g := mustBuild(t, snap(
		wi("x", item.StatusNotStarted),
		wi("y", item.StatusNotStarted, "x"),
		wi("z", item.StatusNotStarted, "y"),
	))

	path := g.CriticalPath()
	if !reflect.DeepEqual(path, []string{"x", "y", "z"}) {
		t.Errorf("expected [x y z], got %v", path)
	}
}

func TestCriticalPath_Diamond(t *testing.T) {
	g := mustBuild(t, snap(
		wi("a", item.StatusNotStarted),
		wi("b", item.StatusNotStarted, "a"),
		wi("c", item.StatusNotStarted, "a"),
		wi("d", item.StatusNotStarted, "b", "c"),
	))

	path := g.CriticalPath()
	if len(path) != 3 {
		t.Fatalf("expected path length 3, got %v", path)
	}
	// b and c tie; b was inserted first.
	if !reflect.DeepEqual(path, []string{"a", "b", "d"}) {
		t.Errorf("expected tie-break to pick [a b d], got %v", path)
	}
}

func TestCriticalPath_EdgesAreReal(t *testing.T) {
	g := mustBuild(t, snap(
		wi("a", item.StatusNotStarted),
		wi("b", item.StatusNotStarted),
		wi("c", item.StatusNotStarted, "a"),
		wi("d", item.StatusNotStarted, "c", "b"),
		wi("e", item.StatusNotStarted, "d"),
	))

	path := g.CriticalPath()
	if len(path) > g.Count() {
		t.Fatalf("path longer than node count: %v", path)
	}
	for i := 0; i+1 < len(path); i++ {
		it := g.Item(path[i+1])
		found := false
		for _, dep := range it.Dependencies {
			if dep == path[i] {
				found = true
			}
		}
		if !found {
			t.Errorf("%s does not depend on %s (path %v)", path[i+1], path[i], path)
		}
	}
}

func TestCriticalPath_Deterministic(t *testing.T) {
	s := snap(
		wi("a", item.StatusNotStarted),
		wi("b", item.StatusNotStarted),
		wi("c", item.StatusNotStarted, "a"),
		wi("d", item.StatusNotStarted, "b"),
	)
	g := mustBuild(t, s)

	first := g.CriticalPath()
	for i := 0; i < 10; i++ {
		g2 := mustBuild(t, s)
		if got := g2.CriticalPath(); !reflect.DeepEqual(got, first) {
			t.Fatalf("non-deterministic critical path: %v vs %v", got, first)
		}
	}
}

func TestBottlenecks_TransitiveClosure(t *testing.T) {
	// w unlocks a, b, c directly; nothing else.
	g := mustBuild(t, snap(
		wi("w", item.StatusNotStarted),
		wi("a", item.StatusNotStarted, "w"),
		wi("b", item.StatusNotStarted, "w"),
		wi("c", item.StatusNotStarted, "w"),
	))

	bns := g.Bottlenecks()
	if len(bns) != 1 {
		t.Fatalf("expected only w reported, got %v", bns)
	}
	if bns[0].ID != "w" || bns[0].BlockedCount != 3 {
		t.Errorf("expected w with blocked_count 3, got %+v", bns[0])
	}
}

func TestBottlenecks_CountsIndirect(t *testing.T) {
	// root -> mid -> {l1, l2}: root transitively blocks 3, mid blocks 2.
	g := mustBuild(t, snap(
		wi("root", item.StatusNotStarted),
		wi("mid", item.StatusNotStarted, "root"),
		wi("l1", item.StatusNotStarted, "mid"),
		wi("l2", item.StatusNotStarted, "mid"),
	))

	counts := g.BlockedCounts()
	if counts["root"] != 3 {
		t.Errorf("expected root to block 3 transitively, got %d", counts["root"])
	}
	if counts["mid"] != 2 {
		t.Errorf("expected mid to block 2, got %d", counts["mid"])
	}
	if counts["l1"] != 0 || counts["l2"] != 0 {
		t.Errorf("expected leaves to block 0, got l1=%d l2=%d", counts["l1"], counts["l2"])
	}

	bns := g.Bottlenecks()
	if len(bns) != 2 || bns[0].ID != "root" || bns[1].ID != "mid" {
		t.Errorf("expected [root mid] ranked by count, got %v", bns)
	}
}

func TestBottlenecks_ThresholdAndTieBreaks(t *testing.T) {
	// Two bottlenecks with equal counts; the critical-priority one wins.
	a := wi("a2", item.StatusNotStarted)
	b := wi("a1", item.StatusNotStarted)
	b.Priority = item.PriorityCritical
	g := mustBuild(t, snap(
		a, b,
		wi("c", item.StatusNotStarted, "a2"),
		wi("d", item.StatusNotStarted, "c"),
		wi("e", item.StatusNotStarted, "a1"),
		wi("f", item.StatusNotStarted, "e"),
	))

	bns := g.Bottlenecks()
	// a1, a2, c, e each block >= 2? c blocks only d (1), e blocks only f (1).
	if len(bns) != 2 {
		t.Fatalf("expected 2 bottlenecks, got %v", bns)
	}
	if bns[0].ID != "a1" {
		t.Errorf("expected critical-priority a1 first, got %v", bns)
	}
	if bns[1].ID != "a2" {
		t.Errorf("expected a2 second, got %v", bns)
	}
}

func TestPartition_ScenarioChain(t *testing.T) {
	// x -> y -> z, all not started.
	g := mustBuild(t, snap(
		wi("x", item.StatusNotStarted),
		wi("y", item.StatusNotStarted, "x"),
		wi("z", item.StatusNotStarted, "y"),
	))

	p := g.Partition()
	if !reflect.DeepEqual(p.Ready, []string{"x"}) {
		t.Errorf("expected ready=[x], got %v", p.Ready)
	}
	if len(p.Blocked) != 2 {
		t.Fatalf("expected 2 blocked, got %v", p.Blocked)
	}
	if p.Blocked[0].ID != "y" || !reflect.DeepEqual(p.Blocked[0].Unmet, []string{"x"}) {
		t.Errorf("expected y unmet [x], got %+v", p.Blocked[0])
	}
	if p.Blocked[1].ID != "z" || !reflect.DeepEqual(p.Blocked[1].Unmet, []string{"y"}) {
		t.Errorf("expected z unmet [y], got %+v", p.Blocked[1])
	}
}

func TestPartition_CompletedDepsUnlock(t *testing.T) {
	g := mustBuild(t, snap(
		wi("a", item.StatusCompleted),
		wi("b", item.StatusNotStarted, "a"),
		wi("c", item.StatusInProgress),
	))

	p := g.Partition()
	if !reflect.DeepEqual(p.Ready, []string{"b"}) {
		t.Errorf("expected ready=[b], got %v", p.Ready)
	}
	if !reflect.DeepEqual(p.Completed, []string{"a"}) {
		t.Errorf("expected completed=[a], got %v", p.Completed)
	}
	if !reflect.DeepEqual(p.InProgress, []string{"c"}) {
		t.Errorf("expected in_progress=[c], got %v", p.InProgress)
	}
}

func TestPartition_InProgressRegressionWarns(t *testing.T) {
	g := mustBuild(t, snap(
		wi("a", item.StatusNotStarted),
		wi("b", item.StatusInProgress, "a"),
	))

	p := g.Partition()
	if !reflect.DeepEqual(p.InProgress, []string{"b"}) {
		t.Errorf("expected b reported in progress, got %v", p.InProgress)
	}
	if len(p.Warnings) != 1 {
		t.Errorf("expected a regression warning, got %v", p.Warnings)
	}
}

func TestPartition_ExplicitBlockedOverride(t *testing.T) {
	g := mustBuild(t, snap(
		wi("a", item.StatusCompleted),
		wi("b", item.StatusBlocked, "a"),
	))

	p := g.Partition()
	if len(p.Ready) != 0 {
		t.Errorf("manually blocked item should not be ready, got %v", p.Ready)
	}
	if len(p.Blocked) != 1 || p.Blocked[0].ID != "b" {
		t.Errorf("expected b blocked, got %v", p.Blocked)
	}
}

func TestFocus(t *testing.T) {
	g := mustBuild(t, snap(
		wi("a", item.StatusNotStarted),
		wi("b", item.StatusNotStarted, "a"),
		wi("c", item.StatusNotStarted, "b"),
	))

	n, err := g.Focus("b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Item.ID != "b" {
		t.Errorf("expected focus item b, got %s", n.Item.ID)
	}
	if len(n.Dependencies) != 1 || n.Dependencies[0].ID != "a" {
		t.Errorf("expected dependency a, got %v", n.Dependencies)
	}
	if len(n.Dependents) != 1 || n.Dependents[0].ID != "c" {
		t.Errorf("expected dependent c, got %v", n.Dependents)
	}
}

func TestFocus_NotFound(t *testing.T) {
	g := mustBuild(t, snap(wi("a", item.StatusNotStarted)))

	_, err := g.Focus("nope")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.ID != "nope" {
		t.Errorf("expected id nope, got %s", nf.ID)
	}
}

func TestFocus_NoNeighborsIsNotAnError(t *testing.T) {
	g := mustBuild(t, snap(wi("solo", item.StatusNotStarted)))

	n, err := g.Focus("solo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.Dependencies) != 0 || len(n.Dependents) != 0 {
		t.Errorf("expected empty neighborhood, got %+v", n)
	}
}

func TestFilter_ExcludedDepsTreatedSatisfied(t *testing.T) {
	done := wi("infra", item.StatusNotStarted)
	done.Milestone = "m1"
	a := wi("api", item.StatusNotStarted, "infra")
	a.Milestone = "m2"

	g := mustBuild(t, snap(done, a))

	sub, err := g.Filter(func(it *item.WorkItem) bool { return it.Milestone == "m2" })
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	if sub.Count() != 1 {
		t.Fatalf("expected 1 item in subgraph, got %d", sub.Count())
	}
	// infra was filtered out: api becomes ready, but the excluded edge
	// is still reported.
	p := sub.Partition()
	if !reflect.DeepEqual(p.Ready, []string{"api"}) {
		t.Errorf("expected api ready in filtered view, got %+v", p)
	}
	if excl := sub.ExcludedDeps("api"); !reflect.DeepEqual(excl, []string{"infra"}) {
		t.Errorf("expected excluded dep [infra], got %v", excl)
	}
}

func TestFilter_AnalysisOnSubgraphOnly(t *testing.T) {
	a := wi("a", item.StatusNotStarted)
	b := wi("b", item.StatusNotStarted, "a")
	c := wi("c", item.StatusNotStarted, "b")
	c.Type = item.TypeBug

	g := mustBuild(t, snap(a, b, c))

	sub, err := g.Filter(func(it *item.WorkItem) bool { return it.Type == item.TypeFeature })
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	path := sub.CriticalPath()
	if !reflect.DeepEqual(path, []string{"a", "b"}) {
		t.Errorf("expected filtered critical path [a b], got %v", path)
	}
}

func TestLevels(t *testing.T) {
	g := mustBuild(t, snap(
		wi("a", item.StatusNotStarted),
		wi("b", item.StatusNotStarted),
		wi("c", item.StatusNotStarted, "a"),
		wi("d", item.StatusNotStarted, "c", "b"),
	))

	levels := g.Levels()
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %v", levels)
	}
	if !reflect.DeepEqual(levels[0], []string{"a", "b"}) {
		t.Errorf("expected level 0 [a b], got %v", levels[0])
	}
	if !reflect.DeepEqual(levels[1], []string{"c"}) {
		t.Errorf("expected level 1 [c], got %v", levels[1])
	}
	if !reflect.DeepEqual(levels[2], []string{"d"}) {
		t.Errorf("expected level 2 [d], got %v", levels[2])
	}
}

func TestBottlenecks_Deterministic(t *testing.T) {
	s := snap(
		wi("a", item.StatusNotStarted),
		wi("b", item.StatusNotStarted, "a"),
		wi("c", item.StatusNotStarted, "a"),
		wi("d", item.StatusNotStarted, "b"),
		wi("e", item.StatusNotStarted, "c"),
	)
	g := mustBuild(t, s)

	first := g.Bottlenecks()
	for i := 0; i < 10; i++ {
		if got := mustBuild(t, s).Bottlenecks(); !reflect.DeepEqual(got, first) {
			t.Fatalf("non-deterministic bottlenecks: %v vs %v", got, first)
		}
	}
}

func TestBuild_DuplicateDepsDeduped(t *testing.T) {
	g := mustBuild(t, snap(
		wi("a", item.StatusNotStarted),
		wi("b", item.StatusNotStarted, "a", "a"),
	))

	if len(g.RevAdj["b"]) != 1 {
		t.Errorf("expected deduped edge, got %v", g.RevAdj["b"])
	}
	counts := g.BlockedCounts()
	if counts["a"] != 1 {
		t.Errorf("expected a to block 1, got %d", counts["a"])
	}
}
