// Package learning captures lessons from work sessions into an
// append-only log, with keyword-based categorization and simple
// token-containment dedupe. Near-duplicates bump the existing entry's
// seen count instead of piling up.
package learning

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const learningFile = "learnings.json"

// containmentThreshold is the token-overlap score above which a new
// learning is treated as a repeat of an existing one.
const containmentThreshold = 0.8

// Category buckets a learning.
type Category string

const (
	CategoryTesting      Category = "testing"
	CategoryTooling      Category = "tooling"
	CategoryArchitecture Category = "architecture"
	CategoryDebugging    Category = "debugging"
	CategoryProcess      Category = "process"
	CategoryGeneral      Category = "general"
)

// categoryKeywords drives Categorize. First category whose keyword
// matches wins, checked in a fixed order for determinism.
var categoryKeywords = []struct {
	category Category
	words    []string
}{
	{CategoryTesting, []string{"test", "coverage", "mock", "fixture", "assert", "flaky"}},
	{CategoryDebugging, []string{"debug", "panic", "crash", "race", "deadlock", "leak", "stack trace"}},
	{CategoryTooling, []string{"lint", "build", "ci", "compile", "tool", "makefile", "pipeline"}},
	{CategoryArchitecture, []string{"interface", "coupling", "dependency", "layer", "module", "design", "api"}},
	{CategoryProcess, []string{"review", "merge", "branch", "commit", "workflow", "session"}},
}

// Learning is one captured lesson.
type Learning struct {
	Text      string    `json:"text"`
	Category  Category  `json:"category"`
	ItemID    string    `json:"item_id,omitempty"`
	SeenCount int       `json:"seen_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Log is the file-backed learning collection.
type Log struct {
	path    string
	entries []*Learning
}

// Open loads the learning log at root, creating an empty one if absent.
func Open(root string) (*Log, error) {
	l := &Log{path: filepath.Join(root, ".stint", learningFile)}

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read learnings: %w", err)
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, fmt.Errorf("parse learnings: %w", err)
	}
	return l, nil
}

// Categorize assigns a category from keyword matches, falling back to
// general.
func Categorize(text string) Category {
	lower := strings.ToLower(text)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				return ck.category
			}
		}
	}
	return CategoryGeneral
}

// Add records a learning. If an existing entry contains essentially the
// same tokens, its seen count is bumped instead; the returned bool
// reports whether a new entry was created.
func (l *Log) Add(text, itemID string) (*Learning, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false, fmt.Errorf("learning text must not be empty")
	}

	for _, existing := range l.entries {
		if containment(text, existing.Text) >= containmentThreshold {
			existing.SeenCount++
			existing.UpdatedAt = time.Now()
			if err := l.save(); err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
	}

	now := time.Now()
	entry := &Learning{
		Text:      text,
		Category:  Categorize(text),
		ItemID:    itemID,
		SeenCount: 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.entries = append(l.entries, entry)
	if err := l.save(); err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// List returns all learnings, optionally narrowed to one category.
func (l *Log) List(category Category) []*Learning {
	if category == "" {
		out := make([]*Learning, len(l.entries))
		copy(out, l.entries)
		return out
	}
	var out []*Learning
	for _, e := range l.entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of distinct learnings.
func (l *Log) Len() int {
	return len(l.entries)
}

func (l *Log) save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal learnings: %w", err)
	}
	return os.WriteFile(l.path, data, 0644)
}

// containment scores token overlap between two texts relative to the
// smaller one: 1.0 means one text's tokens are fully contained in the
// other's.
func containment(a, b string) float64 {
	ta := tokens(a)
	tb := tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	small, large := ta, tb
	if len(tb) < len(ta) {
		small, large = tb, ta
	}

	overlap := 0
	for tok := range small {
		if large[tok] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(small))
}

func tokens(s string) map[string]bool {
	out := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ".,;:!?()[]\"'")
		if len(f) > 2 { // skip stopword-sized noise
			out[f] = true
		}
	}
	return out
}
