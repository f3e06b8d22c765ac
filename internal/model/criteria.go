package model

import "time"

// TimeSpan bounds a date-range filter. A zero Since or Until leaves that end
// open.
type TimeSpan struct {
	Since time.Time `json:"since,omitempty" yaml:"since,omitempty"`
	Until time.Time `json:"until,omitempty" yaml:"until,omitempty"`
}

// FilterCriteria holds the per-dimension filters applied to a timeline.
//
// Slice fields follow a strict nil-vs-empty rule: a nil slice means the
// dimension is inactive and every value passes; a non-nil empty slice means
// the user deselected every option and nothing passes. JSON round-trips
// preserve the distinction (nil encodes as null, empty as []), so none of the
// slice fields use omitempty.
type FilterCriteria struct {
	EventTypes []string  `json:"event_types" yaml:"event_types"`
	Branches   []string  `json:"branches" yaml:"branches"`
	Authors    []string  `json:"authors" yaml:"authors"`
	Providers  []string  `json:"providers" yaml:"providers"`
	Tags       []string  `json:"tags" yaml:"tags"`
	Labels     []string  `json:"labels" yaml:"labels"`
	Search     string    `json:"search,omitempty" yaml:"search,omitempty"`
	DateRange  *TimeSpan `json:"date_range,omitempty" yaml:"date_range,omitempty"`
}

// IsZero reports whether no dimension is active, including defined-but-empty
// lists (an empty list is an active "exclude all" filter, not an absent one).
func (c FilterCriteria) IsZero() bool {
	return c.EventTypes == nil &&
		c.Branches == nil &&
		c.Authors == nil &&
		c.Providers == nil &&
		c.Tags == nil &&
		c.Labels == nil &&
		c.Search == "" &&
		c.DateRange == nil
}

// Merge returns a copy of c with every active field of partial replacing the
// corresponding field of c. Inactive (nil / zero) fields of partial leave c's
// values untouched.
func (c FilterCriteria) Merge(partial FilterCriteria) FilterCriteria {
	out := c
	if partial.EventTypes != nil {
		out.EventTypes = partial.EventTypes
	}
	if partial.Branches != nil {
		out.Branches = partial.Branches
	}
	if partial.Authors != nil {
		out.Authors = partial.Authors
	}
	if partial.Providers != nil {
		out.Providers = partial.Providers
	}
	if partial.Tags != nil {
		out.Tags = partial.Tags
	}
	if partial.Labels != nil {
		out.Labels = partial.Labels
	}
	if partial.Search != "" {
		out.Search = partial.Search
	}
	if partial.DateRange != nil {
		out.DateRange = partial.DateRange
	}
	return out
}

// FilterOptions is the universe of values available for each filterable
// dimension, always derived from the unfiltered event set
type FilterOptions struct {
	EventTypes []string `json:"event_types"`
	Branches   []string `json:"branches"`
	Authors    []string `json:"authors"`
	Providers  []string `json:"providers"`
	Tags       []string `json:"tags"`
}
