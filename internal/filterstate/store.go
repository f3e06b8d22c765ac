// Package filterstate keeps session-scoped, per-repository filter criteria.
// The store is in-memory and process-local; cross-process persistence is a
// caller's concern, served by the export/import snapshots.
package filterstate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rkellner/gitline/internal/model"
)

// State is one repository's persisted filter configuration plus auxiliary
// UI fields that carry no filtering logic.
type State struct {
	Criteria  model.FilterCriteria `json:"criteria" yaml:"criteria"`
	ViewMode  string               `json:"view_mode,omitempty" yaml:"view_mode,omitempty"`
	Collapsed []string             `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
	UpdatedAt time.Time            `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Store maps repository paths to filter states. Absent or malformed input
// never raises; lookups degrade to the empty state.
type Store struct {
	mu     sync.RWMutex
	states map[string]State
	log    *slog.Logger
	now    func() time.Time
}

// NewStore creates an empty filter state store.
func NewStore() *Store {
	return &Store{
		states: make(map[string]State),
		log:    slog.Default(),
		now:    time.Now,
	}
}

// Get returns the stored state for a path, or the zero state. A nil-ish path
// (empty string) returns the zero state rather than erroring.
func (s *Store) Get(path string) State {
	if path == "" {
		return State{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[path]
}

// Set wholesale-replaces the state for a path. Empty paths are ignored.
func (s *Store) Set(path string, criteria model.FilterCriteria) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[path]
	st.Criteria = criteria
	st.UpdatedAt = s.now()
	s.states[path] = st
}

// Update shallow-merges the partial criteria into the stored state: only
// active fields of the partial change; everything else keeps its prior value.
func (s *Store) Update(path string, partial model.FilterCriteria) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[path]
	st.Criteria = st.Criteria.Merge(partial)
	st.UpdatedAt = s.now()
	s.states[path] = st
}

// Reset puts the path back to the empty state (no filters, show all).
func (s *Store) Reset(path string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, path)
}

// HasActiveFilters reports whether any recognized field is defined, including
// a defined-but-empty list, which encodes "exclude all" and counts as active.
func (s *Store) HasActiveFilters(path string) bool {
	return !s.Get(path).Criteria.IsZero()
}

// Export snapshots every stored state as JSON.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.states)
}

// Import restores states from a JSON snapshot. Malformed per-repository
// entries are skipped individually with a logged warning; only a blob that
// is not a JSON object at all fails the import.
func (s *Store) Import(blob []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return fmt.Errorf("decode filter states: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for path, entry := range raw {
		var st State
		if err := json.Unmarshal(entry, &st); err != nil {
			s.log.Warn("skipping malformed filter state", "path", path, "error", err)
			continue
		}
		if path == "" {
			continue
		}
		s.states[path] = st
	}
	return nil
}

// ExportYAML snapshots every stored state as YAML. YAML does not round-trip
// the nil-vs-empty list distinction reliably; JSON export is the canonical
// snapshot format, YAML is a human-editable convenience.
func (s *Store) ExportYAML() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return yaml.Marshal(s.states)
}

// ImportYAML restores states from a YAML snapshot with the same per-entry
// tolerance as Import.
func (s *Store) ImportYAML(blob []byte) error {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(blob, &raw); err != nil {
		return fmt.Errorf("decode filter states: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for path, node := range raw {
		var st State
		if err := node.Decode(&st); err != nil {
			s.log.Warn("skipping malformed filter state", "path", path, "error", err)
			continue
		}
		if path == "" {
			continue
		}
		s.states[path] = st
	}
	return nil
}

// Paths returns the repository paths with stored state.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.states))
	for p := range s.states {
		out = append(out, p)
	}
	return out
}
