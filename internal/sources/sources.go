// Package sources discovers work evidence and feeds it into the ledger.
// Each source scans one kind of evidence (assistant session logs, local
// git repositories, GitLab); a registry runs them concurrently and
// records per-source sync status.
package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/p988744/recap-sub001/internal/session"
	"github.com/p988744/recap-sub001/internal/storage"
)

// Request scopes one sync run.
type Request struct {
	UserID string
	Date   string // YYYY-MM-DD; empty means no date filter
	Loc    *time.Location
}

// Location returns the bucketing location, defaulting to the local zone.
func (r Request) Location() *time.Location {
	if r.Loc != nil {
		return r.Loc
	}
	return time.Local
}

// Result is the counter set one source reports for a sync run.
type Result struct {
	Source            string
	SourcePath        string
	ProjectsScanned   int
	SessionsProcessed int
	SessionsSkipped   int
	ItemsCreated      int
	ItemsUpdated      int
	Warnings          []string
	Err               error
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Source is one provider of work evidence.
type Source interface {
	Name() string
	Sync(ctx context.Context, req Request) *Result
}

// StatusRecorder persists per-source sync state. Satisfied by the
// storage.WorkItemStore.
type StatusRecorder interface {
	SetSyncStatus(userID, source, sourcePath, status, errMsg string) error
}

// Registry runs a set of sources.
type Registry struct {
	sources []Source
	status  StatusRecorder
}

// NewRegistry creates a registry. status may be nil when sync state is
// not tracked.
func NewRegistry(status StatusRecorder, srcs ...Source) *Registry {
	return &Registry{sources: srcs, status: status}
}

// SyncAll runs every registered source concurrently and returns one
// result per source, in registration order. A failing source never stops
// the others.
func (g *Registry) SyncAll(ctx context.Context, req Request) []*Result {
	results := make([]*Result, len(g.sources))

	eg, ctx := errgroup.WithContext(ctx)
	for i, src := range g.sources {
		i, src := i, src
		eg.Go(func() error {
			g.record(req.UserID, src.Name(), "", storage.SyncRunning, "")
			res := src.Sync(ctx, req)
			if res == nil {
				res = &Result{Source: src.Name()}
			}
			if res.Err != nil {
				g.record(req.UserID, src.Name(), res.SourcePath, storage.SyncError, res.Err.Error())
			} else {
				g.record(req.UserID, src.Name(), res.SourcePath, storage.SyncSuccess, "")
			}
			results[i] = res
			return nil
		})
	}
	// Sources never abort the group; per-source failures live in their
	// results.
	_ = eg.Wait()
	return results
}

func (g *Registry) record(userID, source, sourcePath, status, errMsg string) {
	if g.status == nil {
		return
	}
	if err := g.status.SetSyncStatus(userID, source, sourcePath, status, errMsg); err != nil {
		// Status is advisory; the sync itself already ran.
		return
	}
}

const (
	maxTitleMessage  = 60
	maxDescTools     = 8
	maxDescFiles     = 5
	fallbackActivity = "Development session"
)

// buildTitle renders a work-item title from the project name and the
// session's opening request.
func buildTitle(project string, s *session.Summary) string {
	msg := strings.TrimSpace(s.FirstMessage)
	if msg == "" {
		msg = fallbackActivity
	}
	runes := []rune(msg)
	if len(runes) > maxTitleMessage {
		msg = string(runes[:maxTitleMessage]) + "..."
	}
	if project == "" {
		return msg
	}
	return fmt.Sprintf("[%s] %s", project, msg)
}

// buildDescription renders the evidence digest stored with an item: the
// most used tools and the first files touched.
func buildDescription(s *session.Summary) string {
	var lines []string

	if len(s.ToolUsage) > 0 {
		tools := make([]string, 0, maxDescTools)
		for _, u := range s.ToolUsage {
			if len(tools) == maxDescTools {
				break
			}
			tools = append(tools, fmt.Sprintf("%s(%d)", u.Name, u.Count))
		}
		lines = append(lines, "Tools: "+strings.Join(tools, ", "))
	}

	if len(s.FilesModified) > 0 {
		files := s.FilesModified
		if len(files) > maxDescFiles {
			files = files[:maxDescFiles]
		}
		lines = append(lines, "Files: "+strings.Join(files, ", "))
	}

	return strings.Join(lines, "\n")
}
