package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestIsZero(t *testing.T) {
	tests := []struct {
		name     string
		criteria FilterCriteria
		want     bool
	}{
		{"zero value", FilterCriteria{}, true},
		{"populated list", FilterCriteria{Branches: []string{"main"}}, false},
		{"empty non-nil list is active", FilterCriteria{EventTypes: []string{}}, false},
		{"search only", FilterCriteria{Search: "fix"}, false},
		{"date range only", FilterCriteria{DateRange: &TimeSpan{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.criteria.IsZero(); got != tt.want {
				t.Errorf("IsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeOnlyReplacesActiveFields(t *testing.T) {
	base := FilterCriteria{
		EventTypes: []string{"commit"},
		Branches:   []string{"main"},
		Search:     "parser",
	}

	merged := base.Merge(FilterCriteria{Branches: []string{"feature/x"}})

	if !reflect.DeepEqual(merged.EventTypes, []string{"commit"}) {
		t.Errorf("event types should be untouched, got %v", merged.EventTypes)
	}
	if !reflect.DeepEqual(merged.Branches, []string{"feature/x"}) {
		t.Errorf("branches should be replaced, got %v", merged.Branches)
	}
	if merged.Search != "parser" {
		t.Errorf("search should be untouched, got %q", merged.Search)
	}
}

func TestMergeEmptyListReplaces(t *testing.T) {
	base := FilterCriteria{EventTypes: []string{"commit"}}

	// An empty non-nil list is an active value ("exclude all") and must
	// replace the prior list during a partial merge.
	merged := base.Merge(FilterCriteria{EventTypes: []string{}})

	if merged.EventTypes == nil || len(merged.EventTypes) != 0 {
		t.Errorf("expected defined-but-empty list, got %#v", merged.EventTypes)
	}
}

func TestCriteriaJSONRoundTripPreservesNilVersusEmpty(t *testing.T) {
	original := FilterCriteria{
		EventTypes: []string{},       // exclude all
		Branches:   nil,              // inactive
		Authors:    []string{"Bob"},  // keep Bob
	}

	blob, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded FilterCriteria
	if err := json.Unmarshal(blob, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.EventTypes == nil || len(decoded.EventTypes) != 0 {
		t.Errorf("empty list lost in round trip: %#v", decoded.EventTypes)
	}
	if decoded.Branches != nil {
		t.Errorf("nil list became %#v in round trip", decoded.Branches)
	}
	if !reflect.DeepEqual(decoded.Authors, []string{"Bob"}) {
		t.Errorf("authors lost in round trip: %#v", decoded.Authors)
	}
}
