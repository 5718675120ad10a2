// Package server exposes the most recently persisted catalog over HTTP.
package server

import (
	"sync"
	"time"
)

// Snapshot describes the catalog files currently on disk.
type Snapshot struct {
	CSVPath  string    `json:"-"`
	JSONPath string    `json:"-"`
	Rows     int       `json:"rows"`
	Invalid  int       `json:"invalid"`
	BuiltAt  time.Time `json:"built_at"`
}

// State tracks the latest catalog snapshot. A zero State reports not ready
// until the first Set.
type State struct {
	mu      sync.RWMutex
	current Snapshot
	ready   bool
}

// Set records a freshly persisted catalog.
func (s *State) Set(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap
	s.ready = true
}

// Snapshot returns the latest catalog and whether one exists yet.
func (s *State) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.ready
}
