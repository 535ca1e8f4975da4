package graph

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle. Chain lists the ids forming
// the cycle in dependency order, starting and ending at the same id.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Chain, " -> "))
}

// DanglingDependencyError reports a dependency reference to an id that
// does not exist in the snapshot.
type DanglingDependencyError struct {
	ItemID  string
	Missing string
}

func (e *DanglingDependencyError) Error() string {
	return fmt.Sprintf("item %s depends on %s, which does not exist", e.ItemID, e.Missing)
}

// SelfDependencyError reports an item that lists itself as a dependency.
type SelfDependencyError struct {
	ItemID string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("item %s depends on itself", e.ItemID)
}

// NotFoundError reports a lookup for an id absent from the graph.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("work item %s not found", e.ID)
}
