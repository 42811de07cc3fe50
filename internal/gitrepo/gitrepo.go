// Package gitrepo provides a shell-out wrapper around git.
//
// Loremutt delegates all commit resolution, metadata extraction, and patch-id
// computation to the git binary. Every invocation goes through a single
// runner seam so callers are testable without a real repository.
package gitrepo

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Commit holds the metadata loremutt needs from a resolved commit.
type Commit struct {
	AuthorName     string
	AuthorEmail    string
	CommitterName  string
	CommitterEmail string
	Subject        string
}

type runner interface {
	run(dir string, stdin []byte, args ...string) ([]byte, error)
}

// defaultRunner executes real git commands; tests swap it out.
var defaultRunner runner = gitRunner{}

type gitRunner struct{}

func (gitRunner) run(dir string, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			if stderr != "" {
				return nil, fmt.Errorf("git %s: %s", args[0], stderr)
			}
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// Repo is a local git repository that resolved the requested commit.
type Repo struct {
	Dir string
	run runner
}

// Candidates returns the ordered list of repositories to try: the current
// directory first, then the configured fallbacks with ~ expanded.
func Candidates(fallbacks []string) []string {
	dirs := []string{"."}
	home, _ := os.UserHomeDir()
	for _, p := range fallbacks {
		if strings.HasPrefix(p, "~/") && home != "" {
			p = filepath.Join(home, p[2:])
		}
		dirs = append(dirs, p)
	}
	return dirs
}

// Find returns the first candidate repository where rev resolves to a commit
// object.
func Find(candidates []string, rev string) (*Repo, error) {
	for _, dir := range candidates {
		r := &Repo{Dir: dir, run: defaultRunner}
		if r.isCommit(rev) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("commit %q not found in any candidate repository (%s)",
		rev, strings.Join(candidates, ", "))
}

func (r *Repo) isCommit(rev string) bool {
	_, err := r.run.run(r.Dir, nil, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	return err == nil
}

// Metadata extracts author, committer, and subject, one single-commit log
// query per field.
func (r *Repo) Metadata(rev string) (*Commit, error) {
	c := &Commit{}
	fields := []struct {
		format string
		dst    *string
	}{
		{"%an", &c.AuthorName},
		{"%ae", &c.AuthorEmail},
		{"%cn", &c.CommitterName},
		{"%ce", &c.CommitterEmail},
		{"%s", &c.Subject},
	}
	for _, f := range fields {
		out, err := r.run.run(r.Dir, nil, "log", "-1", "--format="+f.format, rev)
		if err != nil {
			return nil, fmt.Errorf("commit metadata for %s: %w", rev, err)
		}
		*f.dst = strings.TrimSpace(string(out))
	}
	return c, nil
}

// PatchID computes the stable content fingerprint of the commit's patch by
// rendering it with diff-tree and hashing it with git patch-id --stable.
// Merge commits and empty patches have no patch-id and are errors.
func (r *Repo) PatchID(rev string) (string, error) {
	if r.isMerge(rev) {
		return "", fmt.Errorf("%s is a merge commit and has no patch-id", rev)
	}
	patch, err := r.run.run(r.Dir, nil, "diff-tree", "-p", rev)
	if err != nil {
		return "", fmt.Errorf("render patch for %s: %w", rev, err)
	}
	out, err := r.run.run(r.Dir, patch, "patch-id", "--stable")
	if err != nil {
		return "", fmt.Errorf("patch-id for %s: %w", rev, err)
	}
	hashed := strings.Fields(string(out))
	if len(hashed) == 0 {
		return "", fmt.Errorf("no patch-id for %s (%s object with an empty patch)", rev, r.objectType(rev))
	}
	return hashed[0], nil
}

// isMerge reports whether rev has a second parent.
func (r *Repo) isMerge(rev string) bool {
	_, err := r.run.run(r.Dir, nil, "rev-parse", "--verify", "--quiet", rev+"^2")
	return err == nil
}

func (r *Repo) objectType(rev string) string {
	out, err := r.run.run(r.Dir, nil, "cat-file", "-t", rev)
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

// Identity returns the caller's git identity for the reader's From header.
// Missing values come back as empty strings; the muttrc generator copes.
func Identity() (name, email string) {
	if out, err := defaultRunner.run(".", nil, "config", "--get", "user.name"); err == nil {
		name = strings.TrimSpace(string(out))
	}
	if out, err := defaultRunner.run(".", nil, "config", "--get", "user.email"); err == nil {
		email = strings.TrimSpace(string(out))
	}
	return name, email
}
