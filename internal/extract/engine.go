package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rkellner/gitline/internal/model"
)

// Options bounds one extraction run
type Options struct {
	// MaxCommits limits the history walk; 0 means unbounded. Parents of
	// included commits that fall outside the bound become elided references.
	MaxCommits int

	// IncludeAllBranches walks every branch tip instead of just HEAD.
	IncludeAllBranches bool

	// Timeout bounds each git subprocess invocation; 0 means no deadline.
	Timeout time.Duration
}

// DefaultOptions covers typical repositories without unbounded walks.
func DefaultOptions() Options {
	return Options{
		MaxCommits:         2000,
		IncludeAllBranches: true,
		Timeout:            30 * time.Second,
	}
}

// ProgressFunc receives coarse stage notifications during extraction.
type ProgressFunc func(stage string, count int)

// Engine turns one repository's raw git log into a DAG of normalized events.
// It keeps two cache layers: a primary memo keyed by (path, options) and a
// shorter-lived session layer that can be dropped independently.
type Engine struct {
	opts     Options
	log      *slog.Logger
	progress ProgressFunc

	mu      sync.Mutex
	memo    map[string]*model.ExtractionResult
	session map[string]*model.ExtractionResult
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithProgress installs an observer for extraction stage notifications.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// New creates an extraction engine with the given options.
func New(opts Options, optFns ...Option) *Engine {
	e := &Engine{
		opts:    opts,
		log:     slog.Default(),
		memo:    make(map[string]*model.ExtractionResult),
		session: make(map[string]*model.ExtractionResult),
	}
	for _, fn := range optFns {
		fn(e)
	}
	return e
}

// Extract produces one ExtractionResult for the repository at repoPath.
// Repeated calls with unchanged inputs return the memoized result. Events are
// ordered chronologically ascending; downstream components depend on that.
func (e *Engine) Extract(ctx context.Context, repoPath string) (*model.ExtractionResult, error) {
	key := e.cacheKey(repoPath)

	e.mu.Lock()
	if res, ok := e.session[key]; ok {
		e.mu.Unlock()
		return res, nil
	}
	if res, ok := e.memo[key]; ok {
		e.session[key] = res
		e.mu.Unlock()
		return res, nil
	}
	e.mu.Unlock()

	res, err := e.extract(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.memo[key] = res
	e.session[key] = res
	e.mu.Unlock()
	return res, nil
}

// ClearCache drops both cache layers.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.memo = make(map[string]*model.ExtractionResult)
	e.session = make(map[string]*model.ExtractionResult)
}

// ClearSessionCache drops the session layer without touching the primary memo.
func (e *Engine) ClearSessionCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = make(map[string]*model.ExtractionResult)
}

func (e *Engine) extract(ctx context.Context, repoPath string) (*model.ExtractionResult, error) {
	if _, err := os.Stat(repoPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, repoPath)
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	if _, err := runGit(ctx, repoPath, "rev-parse", "--git-dir"); err != nil {
		// A timeout or cancellation says nothing about the path; only a
		// genuine git failure classifies it.
		if errors.Is(err, ErrTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrNotAGitRepository, repoPath)
	}

	refsOut, err := runGit(ctx, repoPath,
		"for-each-ref",
		"--format=%(refname)%00%(objectname)%00%(objecttype)%00%(*objectname)",
		"refs/heads", "refs/tags")
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	refs := parseRefs(refsOut)
	e.report("refs", len(refs))

	if !hasBranches(refs) {
		// Empty repository: no commits to walk.
		return summarize(nil, nil, time.Now()), nil
	}

	logArgs := []string{"log", "--date-order", "--numstat", "--format=" + logFormat}
	if e.opts.IncludeAllBranches {
		logArgs = append(logArgs, "--all")
	} else {
		logArgs = append(logArgs, "HEAD")
	}
	if e.opts.MaxCommits > 0 {
		logArgs = append(logArgs, "--max-count="+strconv.Itoa(e.opts.MaxCommits))
	}

	logOut, err := runGit(ctx, repoPath, logArgs...)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	records, parseErrs := parseLog(logOut)
	for _, perr := range parseErrs {
		e.log.Warn("skipping malformed log record", "repo", repoPath, "error", perr)
	}
	if len(records) == 0 && len(parseErrs) > 0 {
		return nil, fmt.Errorf("%w: %d malformed records", ErrNoParsableRecords, len(parseErrs))
	}
	e.report("log", len(records))

	result := buildResult(records, refs, time.Now())
	e.report("graph", len(result.Events))
	return result, nil
}

func (e *Engine) cacheKey(repoPath string) string {
	return fmt.Sprintf("%s|%d|%t|%s", repoPath, e.opts.MaxCommits, e.opts.IncludeAllBranches, e.opts.Timeout)
}

func (e *Engine) report(stage string, count int) {
	if e.progress != nil {
		e.progress(stage, count)
	}
}

func hasBranches(refs []refInfo) bool {
	for _, r := range refs {
		if !r.isTag {
			return true
		}
	}
	return false
}
