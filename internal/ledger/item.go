// Package ledger defines the work-item evidence ledger: canonical item
// identity, duplicate resolution, and the upsert rules that keep
// re-ingestion idempotent while preserving user edits.
package ledger

import (
	"fmt"
	"hash/fnv"
	"time"
)

// Work item sources.
const (
	SourceManual      = "manual"
	SourceClaude      = "claude_code"
	SourceAntigravity = "antigravity"
	SourceGitLab      = "gitlab"
	SourceCommit      = "commit"
	SourceAggregated  = "aggregated"
)

// WorkItem is one unit of evidenced work on a given date.
type WorkItem struct {
	ID             string
	UserID         string
	Title          string
	Description    string
	Date           string // YYYY-MM-DD
	StartTime      string // RFC 3339, empty when not derivable
	EndTime        string
	Hours          float64
	HoursSource    string
	HoursEstimated float64
	Source         string
	SourceID       string
	SessionID      string
	ContentHash    string
	CommitHash     string
	Project        string
	ParentID       string
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PrimaryKey returns the stable identity component of the item: the
// session ID when present, otherwise the source-assigned ID.
func (w *WorkItem) PrimaryKey() string {
	if w.SessionID != "" {
		return w.SessionID
	}
	return w.SourceID
}

// Identity derives the content hash that identifies an item for a user
// across repeated syncs. The same session re-ingested always lands on the
// same hash.
func Identity(userID, primaryKey string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "session:%s:%s", userID, primaryKey)
	return fmt.Sprintf("sess_%x", h.Sum64())
}
