package sources

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/p988744/recap-sub001/internal/estimate"
	"github.com/p988744/recap-sub001/internal/gitrepo"
	"github.com/p988744/recap-sub001/internal/ledger"
	"github.com/p988744/recap-sub001/internal/session"
	"github.com/p988744/recap-sub001/internal/worklog"
)

// ClaudeSource ingests Claude Code session logs from the per-project
// directories under ~/.claude/projects.
type ClaudeSource struct {
	// Root overrides the default projects directory (for testing).
	Root   string
	Ledger *ledger.Ledger
}

func (s *ClaudeSource) Name() string { return ledger.SourceClaude }

func (s *ClaudeSource) root() (string, error) {
	if s.Root != "" {
		return s.Root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// Sync scans every project directory and upserts one work item per
// meaningful session.
func (s *ClaudeSource) Sync(ctx context.Context, req Request) *Result {
	res := &Result{Source: s.Name()}

	root, err := s.root()
	if err != nil {
		res.Err = err
		return res
	}
	res.SourcePath = root

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return res
		}
		res.Err = err
		return res
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res
		}
		if !entry.IsDir() {
			continue
		}

		projectDir := filepath.Join(root, entry.Name())
		projectPath := resolveProjectPath(projectDir, entry.Name())
		if projectPath == "" || projectPath == "/" {
			// A root-level "project" is a catch-all, not real work.
			continue
		}
		if gitRoot, ok := gitrepo.ResolveGitRoot(projectPath); ok {
			projectPath = gitRoot
		}
		res.ProjectsScanned++

		s.syncProject(req, res, projectDir, filepath.Base(projectPath))
	}
	return res
}

func (s *ClaudeSource) syncProject(req Request, res *Result, projectDir, project string) {
	files, err := filepath.Glob(filepath.Join(projectDir, "*.jsonl"))
	if err != nil {
		res.warnf("scan %s: %v", projectDir, err)
		return
	}

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			res.warnf("stat %s: %v", path, err)
			continue
		}
		if req.Date != "" && !worklog.MatchesDate(info.ModTime(), req.Date, req.Location()) {
			res.SessionsSkipped++
			continue
		}

		summary := session.ParseFull(path)
		if summary == nil {
			res.SessionsSkipped++
			continue
		}

		sessionID := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		item := sessionWorkItem(req, s.Name(), project, sessionID, summary)
		outcome, err := s.Ledger.Upsert(item)
		if err != nil {
			res.warnf("upsert session %s: %v", sessionID, err)
			continue
		}
		res.SessionsProcessed++
		switch outcome {
		case ledger.Created:
			res.ItemsCreated++
		case ledger.Updated:
			res.ItemsUpdated++
		}
	}
}

// SessionFiles returns the parsed sessions recorded under projectPath on
// the given date, for worklog composition. Discovery failures yield an
// empty list; composition is best effort.
func (s *ClaudeSource) SessionFiles(date string, loc *time.Location, projectPath string) []worklog.SessionFile {
	root, err := s.root()
	if err != nil {
		return nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var out []worklog.SessionFile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		projectDir := filepath.Join(root, entry.Name())
		resolved := resolveProjectPath(projectDir, entry.Name())
		if !worklog.MatchesProject(resolved, projectPath) {
			continue
		}

		files, err := filepath.Glob(filepath.Join(projectDir, "*.jsonl"))
		if err != nil {
			continue
		}
		for _, path := range files {
			info, err := os.Stat(path)
			if err != nil || !worklog.MatchesDate(info.ModTime(), date, loc) {
				continue
			}
			if summary := session.ParseFull(path); summary != nil {
				out = append(out, worklog.SessionFile{Path: path, Summary: summary})
			}
		}
	}
	return out
}

// sessionWorkItem converts a session summary to ledger evidence.
func sessionWorkItem(req Request, source, project, sessionID string, s *session.Summary) *ledger.WorkItem {
	return &ledger.WorkItem{
		UserID:      req.UserID,
		Title:       buildTitle(project, s),
		Description: buildDescription(s),
		Date:        sessionDate(req, s.FirstTimestamp),
		StartTime:   s.FirstTimestamp,
		EndTime:     s.LastTimestamp,
		Hours:       estimate.SessionHours(s.FirstTimestamp, s.LastTimestamp),
		HoursSource: string(estimate.SourceSession),
		Source:      source,
		SourceID:    sessionID,
		SessionID:   sessionID,
		Project:     project,
		Metadata: map[string]any{
			"message_count": s.MessageCount,
			"cwd":           s.CWD,
		},
	}
}

// sessionDate buckets a session onto a calendar day in the request's
// location. Falls back to the requested date when the timestamp does not
// parse.
func sessionDate(req Request, firstTS string) string {
	if t, err := time.Parse(time.RFC3339, firstTS); err == nil {
		return t.In(req.Location()).Format("2006-01-02")
	}
	return req.Date
}

// resolveProjectPath recovers the real project path for an encoded
// project directory. The sessions index is authoritative when present;
// otherwise the first session's recorded working directory, and as a
// last resort the decoded directory name.
func resolveProjectPath(projectDir, encodedName string) string {
	if data, err := os.ReadFile(filepath.Join(projectDir, "sessions-index.json")); err == nil {
		var index struct {
			ProjectPath string `json:"projectPath"`
		}
		if json.Unmarshal(data, &index) == nil && index.ProjectPath != "" {
			return index.ProjectPath
		}
	}

	if files, err := filepath.Glob(filepath.Join(projectDir, "*.jsonl")); err == nil {
		for _, path := range files {
			if cwd, ok := session.ExtractCWD(path); ok {
				return cwd
			}
		}
	}

	return DecodeProjectDir(encodedName)
}

// DecodeProjectDir reverses the path encoding used for project directory
// names, where every separator becomes a dash ("-Users-foo" for
// "/Users/foo"). Dashes that were part of real path segments are lost in
// the encoding, so this is the least trusted resolution strategy.
func DecodeProjectDir(encoded string) string {
	if encoded == "" {
		return ""
	}
	return strings.ReplaceAll(encoded, "-", "/")
}
