package extract

import (
	"errors"
	"strings"
	"testing"
)

const (
	hashA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	hashC = "cccccccccccccccccccccccccccccccccccccccc"
)

func record(fields ...string) string {
	return strings.Join(fields, "\x00")
}

func TestParseLogSingleRecord(t *testing.T) {
	out := "\x01" + record(
		hashA, "", "Alice", "alice@example.com",
		"2024-03-01T12:00:00Z", "Add parser", "Longer body text", "3\t1\tparse.go\n",
	)

	records, errs := parseLog(out)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.hash != hashA {
		t.Errorf("hash = %q", rec.hash)
	}
	if len(rec.parents) != 0 {
		t.Errorf("root commit should have no parents, got %v", rec.parents)
	}
	if rec.author.Name != "Alice" || rec.author.Email != "alice@example.com" {
		t.Errorf("author = %+v", rec.author)
	}
	if rec.subject != "Add parser" || rec.body != "Longer body text" {
		t.Errorf("subject/body = %q / %q", rec.subject, rec.body)
	}
	if rec.impact == nil || rec.impact.Insertions != 3 || rec.impact.Deletions != 1 || rec.impact.FilesChanged != 1 {
		t.Errorf("impact = %+v", rec.impact)
	}
}

func TestParseLogMultilineBody(t *testing.T) {
	body := "First line.\n\nSecond paragraph with\nembedded newlines."
	out := "\x01" + record(
		hashA, "", "Alice", "alice@example.com",
		"2024-03-01T12:00:00Z", "Subject", body, "",
	)

	records, errs := parseLog(out)
	if len(errs) != 0 || len(records) != 1 {
		t.Fatalf("records=%d errs=%v", len(records), errs)
	}
	if records[0].body != body {
		t.Errorf("body mangled: %q", records[0].body)
	}
}

func TestParseLogMergeParents(t *testing.T) {
	out := "\x01" + record(
		hashC, hashA+" "+hashB, "Alice", "alice@example.com",
		"2024-03-01T12:02:00Z", "Merge feature", "", "",
	)

	records, errs := parseLog(out)
	if len(errs) != 0 || len(records) != 1 {
		t.Fatalf("records=%d errs=%v", len(records), errs)
	}
	if len(records[0].parents) != 2 {
		t.Errorf("expected 2 parents, got %v", records[0].parents)
	}
	if records[0].impact != nil {
		t.Errorf("merge without numstat should have nil impact, got %+v", records[0].impact)
	}
}

func TestParseLogSkipsMalformedRecords(t *testing.T) {
	good := record(hashA, "", "Alice", "alice@example.com",
		"2024-03-01T12:00:00Z", "Good", "", "")
	badDate := record(hashB, hashA, "Bob", "bob@example.com",
		"not-a-date", "Bad date", "", "")
	badHash := record("zzzz", "", "Bob", "bob@example.com",
		"2024-03-01T12:01:00Z", "Bad hash", "", "")

	out := "\x01" + good + "\x01" + badDate + "\x01" + badHash

	records, errs := parseLog(out)
	if len(records) != 1 {
		t.Fatalf("expected the good record to survive, got %d", len(records))
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 parse errors, got %d", len(errs))
	}
	var perr *ParseError
	if !errors.As(errs[0], &perr) {
		t.Errorf("expected *ParseError, got %T", errs[0])
	}
}

func TestParseNumstatBinaryFiles(t *testing.T) {
	impact := parseNumstat("-\t-\timage.png\n5\t2\tmain.go\n")
	if impact == nil {
		t.Fatal("expected impact")
	}
	if impact.FilesChanged != 2 {
		t.Errorf("files changed = %d", impact.FilesChanged)
	}
	if impact.Insertions != 5 || impact.Deletions != 2 {
		t.Errorf("insertions/deletions = %d/%d", impact.Insertions, impact.Deletions)
	}
}

func TestParseRefs(t *testing.T) {
	out := strings.Join([]string{
		"refs/heads/main\x00" + hashA + "\x00commit\x00",
		"refs/heads/feature/x\x00" + hashB + "\x00commit\x00",
		"refs/tags/v0.1.0\x00" + hashA + "\x00commit\x00",
		"refs/tags/v1.0.0\x00" + hashC + "\x00tag\x00" + hashB,
	}, "\n")

	refs := parseRefs(out)
	if len(refs) != 4 {
		t.Fatalf("expected 4 refs, got %d", len(refs))
	}

	byName := map[string]refInfo{}
	for _, r := range refs {
		byName[r.name] = r
	}

	if r := byName["main"]; r.isTag || r.target != hashA {
		t.Errorf("main = %+v", r)
	}
	if r := byName["feature/x"]; r.isTag || r.target != hashB {
		t.Errorf("feature/x = %+v", r)
	}
	if r := byName["v0.1.0"]; !r.isTag || r.annotated || r.target != hashA {
		t.Errorf("lightweight tag = %+v", r)
	}
	// Annotated tags resolve to the peeled commit, not the tag object.
	if r := byName["v1.0.0"]; !r.isTag || !r.annotated || r.target != hashB {
		t.Errorf("annotated tag = %+v", r)
	}
}

func TestParseErrorTruncatesRecord(t *testing.T) {
	long := strings.Repeat("x", 200)
	perr := &ParseError{Record: long, Reason: "test"}
	if len(perr.Error()) > 140 {
		t.Errorf("error string should truncate the record, got %d chars", len(perr.Error()))
	}
}

func TestIsHexHash(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{hashA, true},
		{"abc1234", true},
		{"abc12", false},
		{"ABCDEF1234", false},
		{"ghijklm", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isHexHash(tt.in); got != tt.want {
			t.Errorf("isHexHash(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
