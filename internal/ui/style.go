// Package ui holds terminal styling shared by the CLI and renderers.
// Color output degrades to plain text automatically when stdout is not
// a terminal or NO_COLOR is set.
package ui

import (
	"github.com/fatih/color"

	"github.com/jkendrick/stint/internal/item"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// StatusGlyph returns a colored glyph for a work-item status.
func StatusGlyph(s item.Status) string {
	switch s {
	case item.StatusCompleted:
		return Green("✓")
	case item.StatusInProgress:
		return Cyan("●")
	case item.StatusBlocked:
		return Red("⊘")
	default:
		return Dim("◌")
	}
}

// PriorityBadge returns a short colored label for a priority.
func PriorityBadge(p item.Priority) string {
	switch p {
	case item.PriorityCritical:
		return BoldRed("CRIT")
	case item.PriorityHigh:
		return Yellow("HIGH")
	case item.PriorityMedium:
		return Cyan("MED ")
	default:
		return Dim("LOW ")
	}
}

// idColors is a palette of distinct bold colors for differentiating ids.
var idColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

func idColorIndex(id string) int {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(idColors)))
}

// ID returns the id styled with a stable per-id color.
func ID(id string) string {
	return idColors[idColorIndex(id)](id)
}
