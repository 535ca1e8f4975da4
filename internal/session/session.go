// Package session tracks the active work session: which item is being
// worked on, on what branch, and how its closing quality-gate run went.
// One session is active at a time; closed sessions are appended to a
// history file.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jkendrick/stint/internal/gates"
)

const (
	sessionFile = "session.json"
	historyFile = "history.json"
)

// Status of a session.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
	StatusFailed Status = "failed" // close attempted, blocking gates failed
)

// Session is the persistent record of one work session.
type Session struct {
	ItemID     string        `json:"item_id"`
	Branch     string        `json:"branch,omitempty"`
	Status     Status        `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	ClosedAt   *time.Time    `json:"closed_at,omitempty"`
	GateReport *gates.Report `json:"gate_report,omitempty"`

	mu   sync.Mutex
	path string
}

func sessionPath(root string) string {
	return filepath.Join(root, ".stint", sessionFile)
}

func historyPath(root string) string {
	return filepath.Join(root, ".stint", historyFile)
}

// Start creates and persists a new active session for itemID. Starting
// while another session is active is an error; close it first.
func Start(root, itemID, branch string) (*Session, error) {
	if Exists(root) {
		cur, err := Load(root)
		if err == nil && cur.Status == StatusActive {
			return nil, fmt.Errorf("session for %s is already active; close it first", cur.ItemID)
		}
	}

	if err := os.MkdirAll(filepath.Join(root, ".stint"), 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	s := &Session{
		ItemID:    itemID,
		Branch:    branch,
		Status:    StatusActive,
		StartedAt: time.Now(),
		path:      sessionPath(root),
	}
	if err := s.Save(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the current session from disk.
func Load(root string) (*Session, error) {
	data, err := os.ReadFile(sessionPath(root))
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	s.path = sessionPath(root)
	return &s, nil
}

// Exists reports whether a session file is present.
func Exists(root string) bool {
	_, err := os.Stat(sessionPath(root))
	return err == nil
}

// Save persists the session.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// Close records the gate report and final status, persists, and
// appends the session to history. passed selects StatusClosed or
// StatusFailed; a failed close leaves the session file in place so the
// user can fix the gates and retry.
func (s *Session) Close(root string, report *gates.Report) error {
	now := time.Now()
	s.GateReport = report
	s.ClosedAt = &now
	if report.Passed() {
		s.Status = StatusClosed
	} else {
		s.Status = StatusFailed
	}
	if err := s.Save(); err != nil {
		return err
	}

	if s.Status != StatusClosed {
		return nil
	}

	if err := appendHistory(root, s); err != nil {
		return fmt.Errorf("archive session: %w", err)
	}
	return os.Remove(s.path)
}

func appendHistory(root string, s *Session) error {
	var history []*Session
	if data, err := os.ReadFile(historyPath(root)); err == nil {
		// A corrupt history file should not block closing; start over.
		_ = json.Unmarshal(data, &history)
	}
	history = append(history, s)

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(historyPath(root), data, 0644)
}

// History returns all closed sessions, oldest first.
func History(root string) ([]*Session, error) {
	data, err := os.ReadFile(historyPath(root))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var history []*Session
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return history, nil
}
