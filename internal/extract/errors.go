package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrRepositoryNotFound means the given path does not exist.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrNotAGitRepository means the path exists but carries no git metadata.
	ErrNotAGitRepository = errors.New("not a git repository")

	// ErrTimeout means a git invocation exceeded the configured deadline.
	ErrTimeout = errors.New("git invocation timed out")

	// ErrNoParsableRecords means every log record failed to parse.
	ErrNoParsableRecords = errors.New("no parsable log records")
)

// ParseError describes one malformed log record. Individual parse errors are
// recovered by skipping the record; extraction fails only when nothing parses.
type ParseError struct {
	Record string
	Reason string
}

func (e *ParseError) Error() string {
	record := e.Record
	if len(record) > 80 {
		record = record[:80] + "..."
	}
	return fmt.Sprintf("malformed log record %q: %s", record, e.Reason)
}
