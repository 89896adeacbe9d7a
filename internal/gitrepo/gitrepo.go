// Package gitrepo reads commit evidence out of local git repositories by
// shelling out to the git CLI. A missing repository or a failing git
// invocation degrades to an empty result, never an error: absent evidence
// is a normal state for a day with no commits.
package gitrepo

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Commit is one commit together with its diff stats. Binary files do not
// contribute to Additions, Deletions, or Files.
type Commit struct {
	Hash      string
	ShortHash string
	Author    string
	Timestamp time.Time
	Subject   string
	Additions int
	Deletions int
	Files     []string
}

// FilesCount returns the number of text files touched by the commit.
func (c *Commit) FilesCount() int {
	return len(c.Files)
}

const logFormat = "%H|%h|%an|%aI|%s"

// CommitsForDate returns the repository's commits authored on the given
// date (YYYY-MM-DD), newest first, across all branches. Returns nil when
// the path is not a repository or git is unavailable.
func CommitsForDate(repoPath, date string) []Commit {
	return commitsBetween(repoPath, date+" 00:00:00", date+" 23:59:59")
}

// CommitsInRange returns commits authored in [since, until], newest first.
func CommitsInRange(repoPath string, since, until time.Time) []Commit {
	const layout = "2006-01-02 15:04:05"
	return commitsBetween(repoPath, since.Format(layout), until.Format(layout))
}

func commitsBetween(repoPath, since, until string) []Commit {
	if _, ok := ResolveGitRoot(repoPath); !ok {
		return nil
	}

	cmd := exec.Command("git", "log",
		"--since", since,
		"--until", until,
		"--format="+logFormat,
		"--all")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		log.Printf("Warning: git log failed in %s: %v", repoPath, err)
		return nil
	}

	var commits []Commit
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		commit, err := parseLogLine(line)
		if err != nil {
			log.Printf("Warning: skipping malformed log line in %s: %v", repoPath, err)
			continue
		}
		additions, deletions, files := diffStats(repoPath, commit.Hash)
		commit.Additions = additions
		commit.Deletions = deletions
		commit.Files = files
		commits = append(commits, commit)
	}
	return commits
}

// parseLogLine splits one pipe-delimited log record. The subject is the
// final field and may itself contain pipes.
func parseLogLine(line string) (Commit, error) {
	parts := strings.SplitN(line, "|", 5)
	if len(parts) != 5 {
		return Commit{}, fmt.Errorf("expected 5 fields, got %d", len(parts))
	}
	ts, err := time.Parse(time.RFC3339, parts[3])
	if err != nil {
		return Commit{}, fmt.Errorf("bad author date %q: %w", parts[3], err)
	}
	return Commit{
		Hash:      parts[0],
		ShortHash: parts[1],
		Author:    parts[2],
		Timestamp: ts,
		Subject:   parts[4],
	}, nil
}

// diffStats collects numstat totals for a single commit. Binary entries
// report "-" counts and are skipped entirely.
func diffStats(repoPath, hash string) (additions, deletions int, files []string) {
	cmd := exec.Command("git", "show", "--numstat", "--format=", hash)
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		log.Printf("Warning: git show failed for %s: %v", hash, err)
		return 0, 0, nil
	}

	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		add, del, file, ok := parseNumstatLine(line)
		if !ok {
			continue
		}
		additions += add
		deletions += del
		files = append(files, file)
	}
	return additions, deletions, files
}

func parseNumstatLine(line string) (additions, deletions int, file string, ok bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return 0, 0, "", false
	}
	// Binary files report "-" for both counts.
	if parts[0] == "-" || parts[1] == "-" {
		return 0, 0, "", false
	}
	add, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, "", false
	}
	del, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, "", false
	}
	return add, del, resolveRename(parts[2]), true
}

// resolveRename collapses numstat rename notation to the new path.
// Renames appear either whole ("old.go => new.go") or with a braced
// shared segment ("src/{old => new}/file.go").
func resolveRename(path string) string {
	if open := strings.Index(path, "{"); open >= 0 {
		if end := strings.Index(path[open:], "}"); end >= 0 {
			inner := path[open+1 : open+end]
			if arrow := strings.Index(inner, " => "); arrow >= 0 {
				replaced := path[:open] + inner[arrow+4:] + path[open+end+1:]
				return strings.ReplaceAll(replaced, "//", "/")
			}
		}
	}
	if arrow := strings.Index(path, " => "); arrow >= 0 {
		return path[arrow+4:]
	}
	return path
}

// ResolveGitRoot walks upward from path looking for the repository root.
// A .git entry may be a directory or, in worktrees and submodules, a file.
func ResolveGitRoot(path string) (string, bool) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
