package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/rkellner/gitline/internal/model"
)

// logFormat produces NUL-delimited fields with a \x01 record marker so
// subjects and bodies containing newlines cannot break record boundaries.
// Order: hash, parents, author name, author email, author date (ISO8601),
// subject, body. The trailing NUL separates the body from numstat lines.
const logFormat = "%x01%H%x00%P%x00%an%x00%ae%x00%aI%x00%s%x00%b%x00"

// commitRecord is one parsed git log entry, before graph reconstruction
type commitRecord struct {
	hash    string
	parents []string
	author  model.Author
	when    time.Time
	subject string
	body    string
	impact  *model.Impact
}

// refInfo is one parsed for-each-ref entry
type refInfo struct {
	name      string // short name, refs/heads/ or refs/tags/ stripped
	target    string // commit hash the ref ultimately points at
	annotated bool   // true for annotated tags
	isTag     bool
}

// parseLog turns raw git log output into commit records. Malformed records
// are returned as errors alongside whatever parsed cleanly.
func parseLog(out string) ([]commitRecord, []error) {
	var records []commitRecord
	var errs []error

	for _, chunk := range strings.Split(out, "\x01") {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		rec, err := parseRecord(chunk)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}

func parseRecord(chunk string) (commitRecord, error) {
	fields := strings.Split(chunk, "\x00")
	if len(fields) < 7 {
		return commitRecord{}, &ParseError{Record: chunk, Reason: "expected 7 fields"}
	}

	hash := strings.TrimSpace(fields[0])
	if !isHexHash(hash) {
		return commitRecord{}, &ParseError{Record: chunk, Reason: "invalid commit hash"}
	}

	when, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[4]))
	if err != nil {
		return commitRecord{}, &ParseError{Record: chunk, Reason: "invalid author date"}
	}

	rec := commitRecord{
		hash:    hash,
		parents: splitHashes(fields[1]),
		author: model.Author{
			ID:    strings.TrimSpace(fields[3]),
			Name:  strings.TrimSpace(fields[2]),
			Email: strings.TrimSpace(fields[3]),
		},
		when:    when,
		subject: strings.TrimSpace(fields[5]),
		body:    strings.TrimSpace(fields[6]),
	}

	// Anything after the final NUL is numstat output. Merges usually carry
	// no stats, which leaves the impact unset.
	if len(fields) > 7 {
		rec.impact = parseNumstat(fields[7])
	}
	return rec, nil
}

// parseNumstat aggregates "insertions\tdeletions\tpath" lines. Binary files
// report "-" and count toward files changed only.
func parseNumstat(out string) *model.Impact {
	var impact model.Impact
	seen := false
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "\t", 3)
		if len(parts) != 3 {
			continue
		}
		seen = true
		impact.FilesChanged++
		if n, err := strconv.Atoi(parts[0]); err == nil {
			impact.Insertions += n
		}
		if n, err := strconv.Atoi(parts[1]); err == nil {
			impact.Deletions += n
		}
	}
	if !seen {
		return nil
	}
	return &impact
}

// parseRefs turns for-each-ref output into branch and tag entries.
// Expected format per line: refname NUL objectname NUL objecttype NUL *objectname
func parseRefs(out string) []refInfo {
	var refs []refInfo
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "\x00")
		if len(fields) < 4 {
			continue
		}
		full := strings.TrimSpace(fields[0])
		objName := strings.TrimSpace(fields[1])
		objType := strings.TrimSpace(fields[2])
		peeled := strings.TrimSpace(fields[3])

		switch {
		case strings.HasPrefix(full, "refs/heads/"):
			refs = append(refs, refInfo{
				name:   strings.TrimPrefix(full, "refs/heads/"),
				target: objName,
			})
		case strings.HasPrefix(full, "refs/tags/"):
			ref := refInfo{
				name:   strings.TrimPrefix(full, "refs/tags/"),
				target: objName,
				isTag:  true,
			}
			if objType == "tag" && peeled != "" {
				ref.annotated = true
				ref.target = peeled
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

func splitHashes(s string) []string {
	var out []string
	for _, h := range strings.Fields(s) {
		if isHexHash(h) {
			out = append(out, h)
		}
	}
	return out
}

func isHexHash(s string) bool {
	if len(s) < 7 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
