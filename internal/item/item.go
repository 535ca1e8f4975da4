// Package item defines the work-item data model shared by the store,
// the dependency graph engine, and the CLI.
package item

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a work item.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	// StatusBlocked is normally derived by the graph engine from unmet
	// dependencies, but the store accepts it as a manual override.
	StatusBlocked Status = "blocked"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusBlocked:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q (valid: not_started, in_progress, completed, blocked)", s)
}

// Priority orders work items for recommendation.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ParsePriority validates a priority string.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q (valid: critical, high, medium, low)", s)
}

// Rank returns a sortable rank for the priority; lower is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Type categorizes a work item.
type Type string

const (
	TypeFeature         Type = "feature"
	TypeBug             Type = "bug"
	TypeRefactor        Type = "refactor"
	TypeSecurity        Type = "security"
	TypeIntegrationTest Type = "integration_test"
	TypeDeployment      Type = "deployment"
)

// ParseType validates a work-item type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeFeature, TypeBug, TypeRefactor, TypeSecurity, TypeIntegrationTest, TypeDeployment:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown type %q (valid: feature, bug, refactor, security, integration_test, deployment)", s)
}

// WorkItem is a single tracked unit of work.
type WorkItem struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	Title        string    `json:"title"`
	Status       Status    `json:"status"`
	Priority     Priority  `json:"priority"`
	Dependencies []string  `json:"dependencies,omitempty"`
	Milestone    string    `json:"milestone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Snapshot is an immutable view of the work-item store at a point in
// time. Order preserves insertion order and is the tie-break source for
// critical-path and recommendation determinism.
type Snapshot struct {
	Items map[string]*WorkItem
	Order []string
}

// NewSnapshot builds a Snapshot from items in the given order. Items
// whose ID is absent from the map are skipped.
func NewSnapshot(items []*WorkItem) *Snapshot {
	s := &Snapshot{Items: make(map[string]*WorkItem, len(items))}
	for _, it := range items {
		if _, dup := s.Items[it.ID]; dup {
			continue
		}
		s.Items[it.ID] = it
		s.Order = append(s.Order, it.ID)
	}
	return s
}

// Get returns the item for id, or nil.
func (s *Snapshot) Get(id string) *WorkItem {
	return s.Items[id]
}

// Len returns the number of items in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Items)
}
