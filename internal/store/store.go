// Package store owns the canonical work-item collection, persisted as
// an ordered JSON array so snapshot insertion order survives restarts.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jkendrick/stint/internal/graph"
	"github.com/jkendrick/stint/internal/item"
)

const (
	// Dir is the per-project state directory.
	Dir      = ".stint"
	itemFile = "items.json"
)

// Store is the file-backed work-item collection. It is the only writer
// of persisted item state; the graph engine consumes read-only
// snapshots.
type Store struct {
	root  string
	items []*item.WorkItem
	index map[string]*item.WorkItem
}

// Path returns the items file location under root.
func Path(root string) string {
	return filepath.Join(root, Dir, itemFile)
}

// Open loads the store at root, creating an empty one if no items file
// exists yet.
func Open(root string) (*Store, error) {
	s := &Store{root: root, index: make(map[string]*item.WorkItem)}

	data, err := os.ReadFile(Path(root))
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	if err := json.Unmarshal(data, &s.items); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	for _, it := range s.items {
		if _, dup := s.index[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %s in %s", it.ID, Path(root))
		}
		s.index[it.ID] = it
	}
	return s, nil
}

// Save persists all items atomically: write to a temp file in the same
// directory, then rename over the target.
func (s *Store) Save() error {
	dir := filepath.Join(s.root, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".items-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmpName, Path(s.root))
}

// Add appends a new item. The resulting collection must still build a
// valid graph; an item introducing a dangling reference or cycle is
// rejected and the store is left unchanged.
func (s *Store) Add(it *item.WorkItem) error {
	if it.ID == "" {
		return fmt.Errorf("item id must not be empty")
	}
	if _, exists := s.index[it.ID]; exists {
		return fmt.Errorf("item %s already exists", it.ID)
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}

	candidate := append(append([]*item.WorkItem(nil), s.items...), it)
	if _, err := graph.Build(item.NewSnapshot(candidate)); err != nil {
		return err
	}

	s.items = candidate
	s.index[it.ID] = it
	return s.Save()
}

// Get returns the item for id, or a NotFoundError.
func (s *Store) Get(id string) (*item.WorkItem, error) {
	it, ok := s.index[id]
	if !ok {
		return nil, &graph.NotFoundError{ID: id}
	}
	return it, nil
}

// SetStatus updates an item's status and persists.
func (s *Store) SetStatus(id string, status item.Status) error {
	it, err := s.Get(id)
	if err != nil {
		return err
	}
	it.Status = status
	return s.Save()
}

// AddDependency records that id requires dep. The edge is validated
// against the whole graph first, so a cycle or unknown reference never
// reaches disk.
func (s *Store) AddDependency(id, dep string) error {
	it, err := s.Get(id)
	if err != nil {
		return err
	}
	for _, existing := range it.Dependencies {
		if existing == dep {
			return nil // already recorded
		}
	}

	withEdge := *it
	withEdge.Dependencies = append(append([]string(nil), it.Dependencies...), dep)

	candidate := make([]*item.WorkItem, len(s.items))
	for i, cur := range s.items {
		if cur.ID == id {
			candidate[i] = &withEdge
		} else {
			candidate[i] = cur
		}
	}
	if _, err := graph.Build(item.NewSnapshot(candidate)); err != nil {
		return err
	}

	it.Dependencies = withEdge.Dependencies
	return s.Save()
}

// List returns all items in insertion order.
func (s *Store) List() []*item.WorkItem {
	out := make([]*item.WorkItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items.
func (s *Store) Len() int {
	return len(s.items)
}

// Snapshot returns an immutable view for the graph engine. Items are
// copied so engine callers can never mutate store state.
func (s *Store) Snapshot() *item.Snapshot {
	copies := make([]*item.WorkItem, len(s.items))
	for i, it := range s.items {
		c := *it
		c.Dependencies = append([]string(nil), it.Dependencies...)
		copies[i] = &c
	}
	return item.NewSnapshot(copies)
}
