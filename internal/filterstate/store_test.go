package filterstate

import (
	"reflect"
	"testing"

	"github.com/rkellner/gitline/internal/model"
)

func TestGetEmptyPath(t *testing.T) {
	s := NewStore()
	st := s.Get("")
	if !st.Criteria.IsZero() {
		t.Errorf("empty path should yield the zero state, got %+v", st)
	}
}

func TestGetUnknownPath(t *testing.T) {
	s := NewStore()
	st := s.Get("/never/seen")
	if !st.Criteria.IsZero() {
		t.Errorf("unknown path should yield the zero state, got %+v", st)
	}
}

func TestSetAndGet(t *testing.T) {
	s := NewStore()
	criteria := model.FilterCriteria{Branches: []string{"main"}}
	s.Set("/repo", criteria)

	got := s.Get("/repo")
	if !reflect.DeepEqual(got.Criteria.Branches, []string{"main"}) {
		t.Errorf("got %+v", got.Criteria)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("Set should stamp UpdatedAt")
	}
}

func TestSetIgnoresEmptyPath(t *testing.T) {
	s := NewStore()
	s.Set("", model.FilterCriteria{Branches: []string{"main"}})
	if len(s.Paths()) != 0 {
		t.Error("empty path must not be stored")
	}
}

func TestUpdateMergesPartially(t *testing.T) {
	s := NewStore()
	s.Set("/repo", model.FilterCriteria{
		Branches: []string{"main"},
		Search:   "parser",
	})

	s.Update("/repo", model.FilterCriteria{Authors: []string{"Alice"}})

	got := s.Get("/repo").Criteria
	if !reflect.DeepEqual(got.Branches, []string{"main"}) {
		t.Errorf("branches should survive the merge, got %v", got.Branches)
	}
	if got.Search != "parser" {
		t.Errorf("search should survive the merge, got %q", got.Search)
	}
	if !reflect.DeepEqual(got.Authors, []string{"Alice"}) {
		t.Errorf("authors should be set, got %v", got.Authors)
	}
}

func TestReset(t *testing.T) {
	s := NewStore()
	s.Set("/repo", model.FilterCriteria{Branches: []string{"main"}})
	s.Reset("/repo")

	if s.HasActiveFilters("/repo") {
		t.Error("reset should clear all filters")
	}
}

func TestHasActiveFiltersCountsEmptyList(t *testing.T) {
	s := NewStore()
	if s.HasActiveFilters("/repo") {
		t.Error("fresh path should have no active filters")
	}

	// A defined-but-empty list means "exclude all" and is an active filter.
	s.Set("/repo", model.FilterCriteria{EventTypes: []string{}})
	if !s.HasActiveFilters("/repo") {
		t.Error("defined-but-empty list should count as active")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := NewStore()
	s.Set("/repo-a", model.FilterCriteria{
		EventTypes: []string{}, // exclude all, must survive the round trip
		Branches:   []string{"main"},
	})
	s.Set("/repo-b", model.FilterCriteria{Search: "fix"})

	blob, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	restored := NewStore()
	if err := restored.Import(blob); err != nil {
		t.Fatalf("import: %v", err)
	}

	a := restored.Get("/repo-a").Criteria
	if a.EventTypes == nil || len(a.EventTypes) != 0 {
		t.Errorf("empty list lost in round trip: %#v", a.EventTypes)
	}
	if !reflect.DeepEqual(a.Branches, []string{"main"}) {
		t.Errorf("branches lost in round trip: %#v", a.Branches)
	}
	if restored.Get("/repo-b").Criteria.Search != "fix" {
		t.Error("second state lost in round trip")
	}
}

func TestImportSkipsMalformedEntries(t *testing.T) {
	s := NewStore()
	blob := []byte(`{
		"/good": {"criteria": {"branches": ["main"]}},
		"/bad": "not an object"
	}`)

	if err := s.Import(blob); err != nil {
		t.Fatalf("import should tolerate malformed entries: %v", err)
	}
	if !reflect.DeepEqual(s.Get("/good").Criteria.Branches, []string{"main"}) {
		t.Error("good entry should be imported")
	}
	if s.HasActiveFilters("/bad") {
		t.Error("malformed entry should be skipped")
	}
}

func TestImportRejectsNonObjectBlob(t *testing.T) {
	s := NewStore()
	if err := s.Import([]byte(`[1, 2, 3]`)); err == nil {
		t.Error("non-object blob should fail the import")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	s := NewStore()
	s.Set("/repo", model.FilterCriteria{
		Branches: []string{"main"},
		Search:   "parser",
	})

	blob, err := s.ExportYAML()
	if err != nil {
		t.Fatalf("export yaml: %v", err)
	}

	restored := NewStore()
	if err := restored.ImportYAML(blob); err != nil {
		t.Fatalf("import yaml: %v", err)
	}
	got := restored.Get("/repo").Criteria
	if !reflect.DeepEqual(got.Branches, []string{"main"}) || got.Search != "parser" {
		t.Errorf("yaml round trip lost data: %+v", got)
	}
}
