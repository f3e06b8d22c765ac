package model

import (
	"sort"
	"strings"
	"time"
)

// EventType classifies a normalized timeline event
type EventType string

const (
	TypeCommit        EventType = "commit"
	TypeMerge         EventType = "merge"
	TypeBranchCreated EventType = "branch-created"
	TypeTag           EventType = "tag"
	TypeRelease       EventType = "release"
)

// Author identifies who produced an event
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Impact summarizes the size of a change, when the provider reports one
type Impact struct {
	FilesChanged int `json:"files_changed"`
	Insertions   int `json:"insertions"`
	Deletions    int `json:"deletions"`
}

// Hint carries an optional visualization hint for consumers
type Hint struct {
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// Event is the provider-agnostic representation of one history item.
// IDs are unique within a provider namespace; CanonicalID is stable across
// re-extraction of the same underlying item, so re-fetching never changes it.
type Event struct {
	ID            string            `json:"id"`
	CanonicalID   string            `json:"canonical_id"`
	ProviderID    string            `json:"provider_id"`
	Type          EventType         `json:"type"`
	Timestamp     time.Time         `json:"timestamp"`
	Author        Author            `json:"author"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Branches      []string          `json:"branches"`
	PrimaryBranch string            `json:"primary_branch"`
	ParentIDs     []string          `json:"parent_ids,omitempty"`
	ChildIDs      []string          `json:"child_ids,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Impact        *Impact           `json:"impact,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Hint          *Hint             `json:"hint,omitempty"`
}

// ElidedPrefix marks a parent reference whose target commit was excluded by a
// history-depth bound. The reference is kept, never dropped, so consumers can
// distinguish a truncation boundary from a dangling edge.
const ElidedPrefix = "elided:"

// ElidedParentID returns the sentinel parent reference for a hash excluded by
// truncation.
func ElidedParentID(hash string) string {
	return ElidedPrefix + hash
}

// IsElidedParent reports whether a parent reference points past the truncation
// boundary.
func IsElidedParent(id string) bool {
	return strings.HasPrefix(id, ElidedPrefix)
}

// MetadataList splits a comma-separated metadata value into its entries.
func (e Event) MetadataList(key string) []string {
	raw, ok := e.Metadata[key]
	if !ok || raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SortEvents orders events non-decreasing by timestamp, ties broken by the
// provider-native ID so repeated extractions produce identical orderings.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].ID < events[j].ID
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
