// Package storage persists the work-item ledger in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/p988744/recap-sub001/internal/ledger"
)

// WorkItemStore handles SQLite work-item storage.
type WorkItemStore struct {
	db *sql.DB
}

// NewWorkItemStore opens (creating if needed) the ledger database at dbPath.
func NewWorkItemStore(dbPath string) (*WorkItemStore, error) {
	// Expand ~ in path
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &WorkItemStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// migrate creates the necessary tables
func (s *WorkItemStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS work_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			date TEXT NOT NULL,
			start_time TEXT,
			end_time TEXT,
			hours REAL NOT NULL DEFAULT 0,
			hours_source TEXT,
			hours_estimated REAL,
			source TEXT NOT NULL,
			source_id TEXT,
			session_id TEXT,
			content_hash TEXT NOT NULL,
			commit_hash TEXT,
			project TEXT,
			parent_id TEXT,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (parent_id) REFERENCES work_items(id),
			UNIQUE (user_id, content_hash)
		);

		CREATE TABLE IF NOT EXISTS sync_status (
			user_id TEXT NOT NULL,
			source TEXT NOT NULL,
			source_path TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'idle',
			error TEXT,
			last_synced_at DATETIME,
			PRIMARY KEY (user_id, source, source_path)
		);

		CREATE INDEX IF NOT EXISTS idx_work_items_user_date ON work_items(user_id, date);
		CREATE INDEX IF NOT EXISTS idx_work_items_session ON work_items(session_id);
		CREATE INDEX IF NOT EXISTS idx_work_items_commit ON work_items(user_id, commit_hash);
		CREATE INDEX IF NOT EXISTS idx_work_items_source ON work_items(user_id, source, source_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *WorkItemStore) Close() error {
	return s.db.Close()
}

const workItemColumns = `id, user_id, title, description, date, start_time, end_time,
	hours, hours_source, hours_estimated, source, source_id, session_id,
	content_hash, commit_hash, project, parent_id, metadata, created_at, updated_at`

func scanWorkItem(row interface{ Scan(...any) error }) (*ledger.WorkItem, error) {
	var item ledger.WorkItem
	var metaJSON sql.NullString
	var description, startTime, endTime, hoursSource, sourceID, sessionID, commitHash, project, parentID sql.NullString
	var hoursEstimated sql.NullFloat64

	err := row.Scan(&item.ID, &item.UserID, &item.Title, &description, &item.Date,
		&startTime, &endTime, &item.Hours, &hoursSource, &hoursEstimated,
		&item.Source, &sourceID, &sessionID, &item.ContentHash, &commitHash,
		&project, &parentID, &metaJSON, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.Description = description.String
	item.StartTime = startTime.String
	item.EndTime = endTime.String
	item.HoursSource = hoursSource.String
	item.HoursEstimated = hoursEstimated.Float64
	item.SourceID = sourceID.String
	item.SessionID = sessionID.String
	item.CommitHash = commitHash.String
	item.Project = project.String
	item.ParentID = parentID.String
	if metaJSON.Valid && metaJSON.String != "" {
		json.Unmarshal([]byte(metaJSON.String), &item.Metadata)
	}

	return &item, nil
}

func (s *WorkItemStore) getOne(query string, args ...any) (*ledger.WorkItem, error) {
	item, err := scanWorkItem(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetByHash retrieves the item with the given content hash for a user.
func (s *WorkItemStore) GetByHash(userID, contentHash string) (*ledger.WorkItem, error) {
	return s.getOne(`
		SELECT `+workItemColumns+` FROM work_items
		WHERE user_id = ? AND content_hash = ?
	`, userID, contentHash)
}

// GetBySession retrieves the item for a (session, source, user) triple.
func (s *WorkItemStore) GetBySession(sessionID, source, userID string) (*ledger.WorkItem, error) {
	return s.getOne(`
		SELECT `+workItemColumns+` FROM work_items
		WHERE session_id = ? AND source = ? AND user_id = ?
	`, sessionID, source, userID)
}

// GetBySourceID retrieves the item a source recorded under its own identifier.
func (s *WorkItemStore) GetBySourceID(userID, source, sourceID string) (*ledger.WorkItem, error) {
	return s.getOne(`
		SELECT `+workItemColumns+` FROM work_items
		WHERE user_id = ? AND source = ? AND source_id = ?
	`, userID, source, sourceID)
}

// GetByCommitHash retrieves the item recorded for a short commit hash from
// any source. Lets one source recognize a commit another source already
// ingested.
func (s *WorkItemStore) GetByCommitHash(userID, shortHash string) (*ledger.WorkItem, error) {
	return s.getOne(`
		SELECT `+workItemColumns+` FROM work_items
		WHERE user_id = ? AND commit_hash = ?
	`, userID, shortHash)
}

// Insert saves a new work item. Returns ledger.ErrDuplicate when the
// (user, content hash) identity already exists.
func (s *WorkItemStore) Insert(item *ledger.WorkItem) error {
	metaJSON, _ := json.Marshal(item.Metadata)

	_, err := s.db.Exec(`
		INSERT INTO work_items (`+workItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.UserID, item.Title, item.Description, item.Date,
		nullable(item.StartTime), nullable(item.EndTime), item.Hours,
		item.HoursSource, item.HoursEstimated, item.Source, item.SourceID,
		item.SessionID, item.ContentHash, item.CommitHash, item.Project,
		nullable(item.ParentID), string(metaJSON), item.CreatedAt, item.UpdatedAt)

	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return ledger.ErrDuplicate
	}
	return err
}

// Update rewrites an existing work item by ID.
func (s *WorkItemStore) Update(item *ledger.WorkItem) error {
	metaJSON, _ := json.Marshal(item.Metadata)

	_, err := s.db.Exec(`
		UPDATE work_items
		SET title = ?, description = ?, date = ?, start_time = ?, end_time = ?,
			hours = ?, hours_source = ?, hours_estimated = ?, source = ?,
			source_id = ?, session_id = ?, content_hash = ?, commit_hash = ?,
			project = ?, parent_id = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`, item.Title, item.Description, item.Date, nullable(item.StartTime),
		nullable(item.EndTime), item.Hours, item.HoursSource,
		item.HoursEstimated, item.Source, item.SourceID, item.SessionID,
		item.ContentHash, item.CommitHash, item.Project, nullable(item.ParentID),
		string(metaJSON), item.UpdatedAt, item.ID)

	return err
}

// ListByDate retrieves a user's work items for one date, oldest first.
func (s *WorkItemStore) ListByDate(userID, date string) ([]*ledger.WorkItem, error) {
	rows, err := s.db.Query(`
		SELECT `+workItemColumns+` FROM work_items
		WHERE user_id = ? AND date = ?
		ORDER BY created_at ASC, id ASC
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ledger.WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetUserHours pins an item's hours to a user-entered value. Subsequent
// syncs refresh the estimate but leave these hours alone.
func (s *WorkItemStore) SetUserHours(id string, hours float64) error {
	result, err := s.db.Exec(`
		UPDATE work_items
		SET hours = ?, hours_source = 'user_modified', updated_at = ?
		WHERE id = ?
	`, hours, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(result, id)
}

// AttachToParent links a child item under an aggregate item. Aggregation
// is one level deep: the parent must exist, belong to the same user, and
// must not itself have a parent.
func (s *WorkItemStore) AttachToParent(childID, parentID string) error {
	// SQLite only enforces the parent_id FK with foreign_keys=on, so the
	// ancestry checks live here.
	if childID == parentID {
		return errors.New("work item cannot be its own parent: " + childID)
	}
	parent, err := s.getOne(`
		SELECT `+workItemColumns+` FROM work_items WHERE id = ?
	`, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return errors.New("parent work item not found: " + parentID)
	}
	if parent.ParentID != "" {
		return errors.New("parent work item is itself aggregated: " + parentID)
	}

	result, err := s.db.Exec(`
		UPDATE work_items SET parent_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, nullable(parentID), time.Now(), childID, parent.UserID)
	if err != nil {
		return err
	}
	return requireRow(result, childID)
}

func requireRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("work item not found: " + id)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
