package storage

import (
	"database/sql"
	"time"
)

// Sync states for a (user, source, path) triple.
const (
	SyncIdle    = "idle"
	SyncRunning = "syncing"
	SyncSuccess = "success"
	SyncError   = "error"
)

// SyncStatus records the last outcome of syncing one source path.
type SyncStatus struct {
	UserID       string
	Source       string
	SourcePath   string
	Status       string
	Error        string
	LastSyncedAt time.Time
}

// SetSyncStatus upserts the sync state for a source path. An empty errMsg
// clears any previous error.
func (s *WorkItemStore) SetSyncStatus(userID, source, sourcePath, status, errMsg string) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_status (user_id, source, source_path, status, error, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, source, source_path)
		DO UPDATE SET status = excluded.status, error = excluded.error,
			last_synced_at = excluded.last_synced_at
	`, userID, source, sourcePath, status, errMsg, time.Now())
	return err
}

// GetSyncStatus returns the recorded state for a source path, or nil when
// the path has never been synced.
func (s *WorkItemStore) GetSyncStatus(userID, source, sourcePath string) (*SyncStatus, error) {
	row := s.db.QueryRow(`
		SELECT user_id, source, source_path, status, error, last_synced_at
		FROM sync_status
		WHERE user_id = ? AND source = ? AND source_path = ?
	`, userID, source, sourcePath)

	var st SyncStatus
	var errMsg sql.NullString
	var syncedAt sql.NullTime
	err := row.Scan(&st.UserID, &st.Source, &st.SourcePath, &st.Status, &errMsg, &syncedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.Error = errMsg.String
	st.LastSyncedAt = syncedAt.Time
	return &st, nil
}

// ListSyncStatus returns every recorded sync state for a user.
func (s *WorkItemStore) ListSyncStatus(userID string) ([]*SyncStatus, error) {
	rows, err := s.db.Query(`
		SELECT user_id, source, source_path, status, error, last_synced_at
		FROM sync_status WHERE user_id = ?
		ORDER BY source, source_path
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []*SyncStatus
	for rows.Next() {
		var st SyncStatus
		var errMsg sql.NullString
		var syncedAt sql.NullTime
		if err := rows.Scan(&st.UserID, &st.Source, &st.SourcePath, &st.Status, &errMsg, &syncedAt); err != nil {
			return nil, err
		}
		st.Error = errMsg.String
		st.LastSyncedAt = syncedAt.Time
		statuses = append(statuses, &st)
	}
	return statuses, rows.Err()
}
