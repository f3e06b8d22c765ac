package model

import (
	"sort"
	"strings"
)

// Matches reports whether an event passes the given criteria. Dimensions
// combine with AND semantics: the event must satisfy every active dimension
// simultaneously. A nil slice leaves its dimension inactive; an empty non-nil
// slice excludes everything.
func Matches(e Event, c FilterCriteria) bool {
	if c.EventTypes != nil && !containsString(c.EventTypes, string(e.Type)) {
		return false
	}
	if c.Branches != nil && !intersects(e.Branches, c.Branches) {
		return false
	}
	if c.Authors != nil && !matchesAuthor(e.Author, c.Authors) {
		return false
	}
	if c.Providers != nil && !containsString(c.Providers, e.ProviderID) {
		return false
	}
	if c.Tags != nil && !intersects(e.Tags, c.Tags) {
		return false
	}
	if c.Labels != nil && !intersects(e.MetadataList("labels"), c.Labels) {
		return false
	}
	if c.Search != "" && !matchesSearch(e, c.Search) {
		return false
	}
	if c.DateRange != nil {
		if !c.DateRange.Since.IsZero() && e.Timestamp.Before(c.DateRange.Since) {
			return false
		}
		if !c.DateRange.Until.IsZero() && e.Timestamp.After(c.DateRange.Until) {
			return false
		}
	}
	return true
}

// Filter returns the events passing the criteria, preserving input order.
func Filter(events []Event, c FilterCriteria) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if Matches(e, c) {
			out = append(out, e)
		}
	}
	return out
}

// DeriveFilterOptions computes the universe of available filter values from an
// event set. Callers must pass the unfiltered set so option lists never shrink
// because a filter is active.
func DeriveFilterOptions(events []Event) FilterOptions {
	types := map[string]struct{}{}
	branches := map[string]struct{}{}
	authors := map[string]struct{}{}
	providers := map[string]struct{}{}
	tags := map[string]struct{}{}

	for _, e := range events {
		types[string(e.Type)] = struct{}{}
		for _, b := range e.Branches {
			branches[b] = struct{}{}
		}
		if e.Author.Name != "" {
			authors[e.Author.Name] = struct{}{}
		}
		if e.ProviderID != "" {
			providers[e.ProviderID] = struct{}{}
		}
		for _, t := range e.Tags {
			tags[t] = struct{}{}
		}
	}

	return FilterOptions{
		EventTypes: sortedKeys(types),
		Branches:   sortedKeys(branches),
		Authors:    sortedKeys(authors),
		Providers:  sortedKeys(providers),
		Tags:       sortedKeys(tags),
	}
}

func matchesAuthor(a Author, wanted []string) bool {
	for _, w := range wanted {
		if w == a.Name || w == a.Email || w == a.ID {
			return true
		}
	}
	return false
}

func matchesSearch(e Event, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.Description), q) ||
		strings.Contains(strings.ToLower(e.Author.Name), q)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
