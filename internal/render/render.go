// Package render projects a computed dependency graph into terminal
// text, Graphviz DOT, and rendered images. It is a pure projection: the
// critical path, bottlenecks, and partitions are taken from the engine
// and never recomputed here.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jkendrick/stint/internal/graph"
	"github.com/jkendrick/stint/internal/ui"
)

// View bundles the engine outputs a renderer needs. Build one with
// NewView so every format works from the same analysis.
type View struct {
	Graph        *graph.Graph
	CriticalPath []string
	Bottlenecks  []graph.Bottleneck
	Parts        *graph.Partitions
}

// NewView runs the engine's analyses once and captures the results.
func NewView(g *graph.Graph) *View {
	return &View{
		Graph:        g,
		CriticalPath: g.CriticalPath(),
		Bottlenecks:  g.Bottlenecks(),
		Parts:        g.Partition(),
	}
}

func (v *View) onCriticalPath(id string) bool {
	for _, p := range v.CriticalPath {
		if p == id {
			return true
		}
	}
	return false
}

// Text writes a human-readable rendering: items grouped by topological
// level with status glyphs, blocked-on detail, and a trailing summary.
func Text(w io.Writer, v *View) {
	g := v.Graph

	fmt.Fprintf(w, "%s\n", ui.BoldCyan("Work Item Graph"))
	fmt.Fprintf(w, "%s\n\n", ui.Cyan("═══════════════"))

	if g.Count() == 0 {
		fmt.Fprintf(w, "  %s\n", ui.Dim("no work items"))
		return
	}

	unmet := make(map[string][]string, len(v.Parts.Blocked))
	for _, b := range v.Parts.Blocked {
		unmet[b.ID] = b.Unmet
	}

	for levelIdx, level := range g.Levels() {
		fmt.Fprintf(w, "%s %s %d %s\n", ui.Cyan("──"), ui.BoldWhite("Level"), levelIdx, ui.Cyan("──────────────────────"))
		for _, id := range level {
			it := g.Item(id)

			crit := " "
			if v.onCriticalPath(id) {
				crit = ui.BoldYellow("⚡")
			}

			title := it.Title
			if r := []rune(title); len(r) > 44 {
				title = string(r[:41]) + "..."
			}

			fmt.Fprintf(w, "  %s %s %s [%s] %s\n",
				ui.StatusGlyph(it.Status), crit, ui.ID(id), ui.PriorityBadge(it.Priority), title)

			if deps := unmet[id]; len(deps) > 0 {
				fmt.Fprintf(w, "      %s %s\n", ui.Dim("waiting on:"), ui.Dim(strings.Join(deps, ", ")))
			}
			if excl := g.ExcludedDeps(id); len(excl) > 0 {
				fmt.Fprintf(w, "      %s %s\n", ui.Dim("outside filter:"), ui.Dim(strings.Join(excl, ", ")))
			}
		}
		fmt.Fprintln(w)
	}

	for _, warn := range v.Parts.Warnings {
		fmt.Fprintf(w, "%s %s\n", ui.Yellow("warning:"), warn)
	}

	fmt.Fprintf(w, "%s\n", ui.Cyan("───────────────"))
	fmt.Fprintf(w, "Items:         %d (%d ready, %d blocked, %d in progress, %d done)\n",
		g.Count(), len(v.Parts.Ready), len(v.Parts.Blocked), len(v.Parts.InProgress), len(v.Parts.Completed))
	if len(v.CriticalPath) > 0 {
		fmt.Fprintf(w, "Critical path: %s (%d items)\n",
			ui.BoldYellow(strings.Join(v.CriticalPath, " → ")), len(v.CriticalPath))
	}
	if len(v.Bottlenecks) > 0 {
		top := v.Bottlenecks[0]
		fmt.Fprintf(w, "Top bottleneck: %s (unblocks %d items)\n", ui.ID(top.ID), top.BlockedCount)
	}
}

// DOT writes a Graphviz description of the graph. Critical-path nodes
// and edges carry bold red styling taken from the engine's computed
// set.
func DOT(w io.Writer, v *View) {
	g := v.Graph

	fmt.Fprintln(w, "digraph stint {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	bottleneck := make(map[string]bool, len(v.Bottlenecks))
	for _, b := range v.Bottlenecks {
		bottleneck[b.ID] = true
	}

	for _, id := range g.IDs() {
		it := g.Item(id)
		label := fmt.Sprintf("%s\\n%s", id, it.Title)
		attrs := fmt.Sprintf(`label="%s"`, label)
		if v.onCriticalPath(id) {
			attrs += `, style="rounded,bold", color=red`
		}
		if bottleneck[id] {
			attrs += `, peripheries=2`
		}
		fmt.Fprintf(w, "  %q [%s];\n", id, attrs)
	}

	fmt.Fprintln(w)

	critEdge := make(map[[2]string]bool)
	for i := 0; i+1 < len(v.CriticalPath); i++ {
		critEdge[[2]string{v.CriticalPath[i], v.CriticalPath[i+1]}] = true
	}

	for _, from := range g.IDs() {
		for _, to := range g.Adj[from] {
			style := ""
			if critEdge[[2]string{from, to}] {
				style = ` [color=red, penwidth=2]`
			}
			fmt.Fprintf(w, "  %q -> %q%s;\n", from, to, style)
		}
	}

	fmt.Fprintln(w, "}")
}
