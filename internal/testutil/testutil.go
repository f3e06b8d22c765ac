package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// TempGitRepo creates a temporary git repository for testing
type TempGitRepo struct {
	Path string
	T    *testing.T

	clock time.Time
}

// NewTempGitRepo creates a new temporary git repository with one initial
// commit on the default branch "main". Commit timestamps advance one minute
// per commit so orderings are deterministic.
func NewTempGitRepo(t *testing.T) *TempGitRepo {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "gitline-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	r := &TempGitRepo{
		Path:  tmpDir,
		T:     t,
		clock: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	r.git("init", "--initial-branch=main")
	r.git("config", "user.name", "Test User")
	r.git("config", "user.email", "test@example.com")
	r.git("config", "commit.gpgsign", "false")

	r.CreateFile("README.md", "# Test Repository\n")
	r.Commit("Initial commit")
	return r
}

// NewEmptyGitRepo creates a git repository with no commits.
func NewEmptyGitRepo(t *testing.T) *TempGitRepo {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "gitline-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	r := &TempGitRepo{Path: tmpDir, T: t}
	r.git("init", "--initial-branch=main")
	r.git("config", "user.name", "Test User")
	r.git("config", "user.email", "test@example.com")
	return r
}

// CreateFile creates a file in the repository
func (r *TempGitRepo) CreateFile(name, content string) {
	r.T.Helper()
	path := filepath.Join(r.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		r.T.Fatalf("failed to create file: %v", err)
	}
}

// Commit stages and commits all changes with the next deterministic timestamp
func (r *TempGitRepo) Commit(message string) {
	r.T.Helper()
	r.git("add", ".")
	r.commitStaged(message)
}

// CommitFile writes one file and commits it
func (r *TempGitRepo) CommitFile(name, content, message string) {
	r.T.Helper()
	r.CreateFile(name, content)
	r.Commit(message)
}

// CreateBranch creates a branch at the current HEAD
func (r *TempGitRepo) CreateBranch(name string) {
	r.T.Helper()
	r.git("branch", name)
}

// Checkout switches to a branch
func (r *TempGitRepo) Checkout(name string) {
	r.T.Helper()
	r.git("checkout", "-q", name)
}

// CheckoutNew creates and switches to a new branch
func (r *TempGitRepo) CheckoutNew(name string) {
	r.T.Helper()
	r.git("checkout", "-q", "-b", name)
}

// Merge merges a branch into the current branch with a merge commit
func (r *TempGitRepo) Merge(branch, message string) {
	r.T.Helper()
	env := r.commitEnv()
	cmd := exec.Command("git", "merge", "--no-ff", "-m", message, branch)
	cmd.Dir = r.Path
	cmd.Env = env
	if out, err := cmd.CombinedOutput(); err != nil {
		r.T.Fatalf("failed to merge %s: %v\n%s", branch, err, out)
	}
}

// Tag creates a lightweight tag at HEAD
func (r *TempGitRepo) Tag(name string) {
	r.T.Helper()
	r.git("tag", name)
}

// AnnotatedTag creates an annotated tag at HEAD
func (r *TempGitRepo) AnnotatedTag(name, message string) {
	r.T.Helper()
	env := r.commitEnv()
	cmd := exec.Command("git", "tag", "-a", "-m", message, name)
	cmd.Dir = r.Path
	cmd.Env = env
	if out, err := cmd.CombinedOutput(); err != nil {
		r.T.Fatalf("failed to tag %s: %v\n%s", name, err, out)
	}
}

// Head returns the current commit hash
func (r *TempGitRepo) Head() string {
	r.T.Helper()
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = r.Path
	out, err := cmd.Output()
	if err != nil {
		r.T.Fatalf("failed to read HEAD: %v", err)
	}
	return trimEOL(string(out))
}

func (r *TempGitRepo) commitStaged(message string) {
	r.T.Helper()
	cmd := exec.Command("git", "commit", "-q", "--no-verify", "-m", message)
	cmd.Dir = r.Path
	cmd.Env = r.commitEnv()
	if out, err := cmd.CombinedOutput(); err != nil {
		r.T.Fatalf("failed to commit: %v\n%s", err, out)
	}
}

// commitEnv pins author and committer dates so event orderings are stable
// across runs. Each call advances the clock one minute.
func (r *TempGitRepo) commitEnv() []string {
	r.clock = r.clock.Add(time.Minute)
	stamp := r.clock.Format(time.RFC3339)
	return append(os.Environ(),
		"GIT_AUTHOR_DATE="+stamp,
		"GIT_COMMITTER_DATE="+stamp,
	)
}

func (r *TempGitRepo) git(args ...string) {
	r.T.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	if out, err := cmd.CombinedOutput(); err != nil {
		r.T.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func trimEOL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
