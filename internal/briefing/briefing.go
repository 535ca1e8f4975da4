// Package briefing renders a work-item briefing for an AI coding
// assistant: the item itself plus the dependency context an assistant
// needs to start without re-deriving project state.
package briefing

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/jkendrick/stint/internal/graph"
	"github.com/jkendrick/stint/internal/item"
)

const defaultTemplate = `You are starting a work session on {{.ID}}: {{.Title}}

## Work Item
- Type: {{.Type}}
- Priority: {{.Priority}}
{{- if .Milestone}}
- Milestone: {{.Milestone}}
{{- end}}

## Dependency Context
{{- if .Dependencies}}
This item requires:
{{- range .Dependencies}}
- {{.ID}} ({{.Status}}): {{.Title}}
{{- end}}
{{- else}}
This item has no dependencies.
{{- end}}
{{- if .Unlocks}}

Completing it unlocks:
{{- range .Unlocks}}
- {{.ID}}: {{.Title}}
{{- end}}
{{- end}}
{{- if .OnCriticalPath}}

This item is on the CRITICAL PATH: it gates the longest remaining chain of work.
{{- end}}

## Instructions
1. Implement the work described above.
2. Write or update tests as needed.
3. Before closing the session, all blocking quality gates must pass (stint session close).
4. If you get blocked, record the blocker and stop rather than guessing.
`

// DepLine is one dependency or dependent rendered into the briefing.
type DepLine struct {
	ID     string
	Title  string
	Status item.Status
}

// Data is what the briefing template renders.
type Data struct {
	ID             string
	Title          string
	Type           item.Type
	Priority       item.Priority
	Milestone      string
	Dependencies   []DepLine
	Unlocks        []DepLine
	OnCriticalPath bool
}

// Collect assembles briefing data for id from the graph. The critical
// path is taken from the engine, never recomputed here.
func Collect(g *graph.Graph, id string, criticalPath []string) (*Data, error) {
	n, err := g.Focus(id)
	if err != nil {
		return nil, err
	}

	d := &Data{
		ID:        n.Item.ID,
		Title:     n.Item.Title,
		Type:      n.Item.Type,
		Priority:  n.Item.Priority,
		Milestone: n.Item.Milestone,
	}
	for _, dep := range n.Dependencies {
		d.Dependencies = append(d.Dependencies, DepLine{ID: dep.ID, Title: dep.Title, Status: dep.Status})
	}
	for _, dependent := range n.Dependents {
		d.Unlocks = append(d.Unlocks, DepLine{ID: dependent.ID, Title: dependent.Title, Status: dependent.Status})
	}
	for _, p := range criticalPath {
		if p == id {
			d.OnCriticalPath = true
		}
	}
	return d, nil
}

// Render produces the briefing text using either a custom template file
// or the built-in default.
func Render(data *Data, templatePath string) (string, error) {
	tmplStr := defaultTemplate
	if templatePath != "" {
		content, err := os.ReadFile(templatePath)
		if err != nil {
			return "", fmt.Errorf("read briefing template: %w", err)
		}
		tmplStr = string(content)
	}

	tmpl, err := template.New("briefing").Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parse briefing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render briefing: %w", err)
	}
	return buf.String(), nil
}
