// Package assist calls Claude to propose dependency edges between work
// items based on their titles and types. Proposals are validated
// against the graph engine before anything is written.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jkendrick/stint/internal/graph"
	"github.com/jkendrick/stint/internal/item"
)

// ItemSummary is the minimal item info sent to Claude.
type ItemSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Type     string `json:"type"`
}

// Edge is a single proposed dependency.
type Edge struct {
	DependentID  string `json:"dependent_id"`  // item that must wait
	DependencyID string `json:"dependency_id"` // item that must finish first
	Reason       string `json:"reason"`
}

// Proposal holds the full response from Claude.
type Proposal struct {
	Edges   []Edge `json:"edges"`
	Summary string `json:"summary"`
}

// Client wraps the Anthropic SDK.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewClient creates a Claude client. apiKey defaults to
// ANTHROPIC_API_KEY; model defaults to Claude Sonnet.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(option.WithAPIKey(apiKey))

	m := anthropic.ModelClaudeSonnet4_5
	if model != "" {
		m = anthropic.Model(model)
	}
	return &Client{inner: inner, model: m}, nil
}

const inferPrompt = `You are an expert software project planner. Given a list of work items, infer dependency edges between them.

Rules:
- Only add a dependency when there is a strong causal reason (item B cannot start until item A is complete).
- Prefer fewer edges; do not add transitive or speculative dependencies.
- Do not create cycles.
- Only use ids from the provided list, and never make an item depend on itself.

Return ONLY a JSON object with this exact structure, no markdown fences:
{
  "edges": [
    {"dependent_id": "<item that must wait>", "dependency_id": "<item that must finish first>", "reason": "<short explanation>"}
  ],
  "summary": "<one paragraph summary of the dependency structure>"
}

Here are the work items:
`

// InferDependencies asks Claude for proposed edges.
func (c *Client) InferDependencies(ctx context.Context, items []ItemSummary) (*Proposal, error) {
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(inferPrompt + string(payload))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	text = stripJSONFences(text)

	var proposal Proposal
	if err := json.Unmarshal([]byte(text), &proposal); err != nil {
		return nil, fmt.Errorf("parse claude response: %w\nraw: %s", err, text)
	}
	return &proposal, nil
}

// Skip records a proposed edge that validation rejected.
type Skip struct {
	Edge   Edge
	Reason string
}

// Validate filters proposed edges against the current snapshot: unknown
// ids, self-dependencies, and edges that would close a cycle are
// skipped. Edges are tried in proposal order, each against the snapshot
// plus the edges accepted so far, so the accepted set always builds a
// valid graph.
func Validate(snap *item.Snapshot, proposal *Proposal) (accepted []Edge, skipped []Skip) {
	working := make([]*item.WorkItem, 0, snap.Len())
	for _, id := range snap.Order {
		c := *snap.Items[id]
		c.Dependencies = append([]string(nil), c.Dependencies...)
		working = append(working, &c)
	}
	byID := make(map[string]*item.WorkItem, len(working))
	for _, it := range working {
		byID[it.ID] = it
	}

	for _, e := range proposal.Edges {
		dependent, ok := byID[e.DependentID]
		if !ok {
			skipped = append(skipped, Skip{Edge: e, Reason: fmt.Sprintf("unknown dependent id %s", e.DependentID)})
			continue
		}
		if _, ok := byID[e.DependencyID]; !ok {
			skipped = append(skipped, Skip{Edge: e, Reason: fmt.Sprintf("unknown dependency id %s", e.DependencyID)})
			continue
		}
		if e.DependentID == e.DependencyID {
			skipped = append(skipped, Skip{Edge: e, Reason: "self-dependency"})
			continue
		}

		dependent.Dependencies = append(dependent.Dependencies, e.DependencyID)
		if _, err := graph.Build(item.NewSnapshot(working)); err != nil {
			dependent.Dependencies = dependent.Dependencies[:len(dependent.Dependencies)-1]
			skipped = append(skipped, Skip{Edge: e, Reason: fmt.Sprintf("rejected: %v", err)})
			continue
		}
		accepted = append(accepted, e)
	}
	return accepted, skipped
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
