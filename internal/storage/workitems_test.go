package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/p988744/recap-sub001/internal/ledger"
)

// createTestStore creates a file-backed SQLite database for testing
func createTestStore(t *testing.T) (*WorkItemStore, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "workitems-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewWorkItemStore(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create WorkItemStore: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

// makeTestItem creates a WorkItem with sensible defaults
func makeTestItem(id, userID, sessionID string) *ledger.WorkItem {
	now := time.Now()
	return &ledger.WorkItem{
		ID:             id,
		UserID:         userID,
		Title:          "Test " + id,
		Description:    "Description for " + id,
		Date:           "2026-01-15",
		StartTime:      "2026-01-15T09:00:00Z",
		EndTime:        "2026-01-15T10:30:00Z",
		Hours:          1.5,
		HoursSource:    "session",
		HoursEstimated: 1.5,
		Source:         ledger.SourceClaude,
		SourceID:       "src-" + id,
		SessionID:      sessionID,
		ContentHash:    ledger.Identity(userID, sessionID),
		Project:        "recap",
		Metadata:       map[string]any{"files_count": float64(3)},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestInsertAndGetByHash(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	item := makeTestItem("id-1", "u1", "sess-1")
	if err := store.Insert(item); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.GetByHash("u1", item.ContentHash)
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if got == nil {
		t.Fatal("expected item")
	}
	if got.ID != "id-1" || got.Title != "Test id-1" || got.Hours != 1.5 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.StartTime != "2026-01-15T09:00:00Z" || got.EndTime != "2026-01-15T10:30:00Z" {
		t.Errorf("time bounds = %q..%q", got.StartTime, got.EndTime)
	}
	if got.Metadata["files_count"] != float64(3) {
		t.Errorf("metadata = %v", got.Metadata)
	}

	// A different user must not see it.
	got, err = store.GetByHash("u2", item.ContentHash)
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if got != nil {
		t.Error("hash lookup must be scoped to the user")
	}
}

func TestInsertDuplicateIdentity(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	if err := store.Insert(makeTestItem("id-1", "u1", "sess-1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	dup := makeTestItem("id-2", "u1", "sess-1")
	err := store.Insert(dup)
	if !errors.Is(err, ledger.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	// Same hash for a different user is a distinct identity.
	other := makeTestItem("id-3", "u2", "sess-1")
	other.ContentHash = dup.ContentHash
	if err := store.Insert(other); err != nil {
		t.Errorf("cross-user insert: %v", err)
	}
}

func TestGetBySession(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	item := makeTestItem("id-1", "u1", "sess-1")
	if err := store.Insert(item); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetBySession("sess-1", ledger.SourceClaude, "u1")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if got == nil || got.ID != "id-1" {
		t.Errorf("got %+v", got)
	}

	got, _ = store.GetBySession("sess-1", ledger.SourceGitLab, "u1")
	if got != nil {
		t.Error("source must be part of the lookup key")
	}
}

func TestGetBySourceIDAndCommitHash(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	item := makeTestItem("id-1", "u1", "sess-1")
	item.CommitHash = "abcd1234"
	if err := store.Insert(item); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetBySourceID("u1", ledger.SourceClaude, "src-id-1")
	if err != nil || got == nil || got.ID != "id-1" {
		t.Errorf("GetBySourceID: %+v, %v", got, err)
	}

	got, err = store.GetByCommitHash("u1", "abcd1234")
	if err != nil || got == nil || got.ID != "id-1" {
		t.Errorf("GetByCommitHash: %+v, %v", got, err)
	}

	got, _ = store.GetByCommitHash("u1", "ffff0000")
	if got != nil {
		t.Error("expected no match for unknown hash")
	}
}

func TestUpdate(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	item := makeTestItem("id-1", "u1", "sess-1")
	if err := store.Insert(item); err != nil {
		t.Fatal(err)
	}

	item.Title = "Rewritten title"
	item.Hours = 2.25
	item.HoursSource = "user_modified"
	if err := store.Update(item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := store.GetByHash("u1", item.ContentHash)
	if got.Title != "Rewritten title" || got.Hours != 2.25 || got.HoursSource != "user_modified" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestListByDate(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	a := makeTestItem("id-a", "u1", "sess-a")
	b := makeTestItem("id-b", "u1", "sess-b")
	b.Date = "2026-01-16"
	c := makeTestItem("id-c", "u2", "sess-c")
	for _, item := range []*ledger.WorkItem{a, b, c} {
		if err := store.Insert(item); err != nil {
			t.Fatal(err)
		}
	}

	items, err := store.ListByDate("u1", "2026-01-15")
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(items) != 1 || items[0].ID != "id-a" {
		t.Errorf("got %d items", len(items))
	}
}

func TestSetUserHours(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	item := makeTestItem("id-1", "u1", "sess-1")
	if err := store.Insert(item); err != nil {
		t.Fatal(err)
	}

	if err := store.SetUserHours("id-1", 4.0); err != nil {
		t.Fatalf("SetUserHours: %v", err)
	}
	got, _ := store.GetByHash("u1", item.ContentHash)
	if got.Hours != 4.0 || got.HoursSource != "user_modified" {
		t.Errorf("got %v / %q", got.Hours, got.HoursSource)
	}

	if err := store.SetUserHours("missing", 1.0); err == nil {
		t.Error("expected error for unknown item")
	}
}

func TestAttachToParent(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	parent := makeTestItem("parent-1", "u1", "sess-p")
	parent.Source = ledger.SourceAggregated
	child := makeTestItem("child-1", "u1", "sess-c")
	for _, item := range []*ledger.WorkItem{parent, child} {
		if err := store.Insert(item); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.AttachToParent("child-1", "parent-1"); err != nil {
		t.Fatalf("AttachToParent: %v", err)
	}
	got, _ := store.GetByHash("u1", child.ContentHash)
	if got.ParentID != "parent-1" {
		t.Errorf("parent id = %q", got.ParentID)
	}

	// Aggregation stays one level deep: an already-attached item cannot
	// become a parent, and a missing parent is rejected.
	grandchild := makeTestItem("grand-1", "u1", "sess-g")
	if err := store.Insert(grandchild); err != nil {
		t.Fatal(err)
	}
	if err := store.AttachToParent("grand-1", "child-1"); err == nil {
		t.Error("expected error attaching under an aggregated item")
	}
	if err := store.AttachToParent("grand-1", "no-such-parent"); err == nil {
		t.Error("expected error for missing parent")
	}
	if err := store.AttachToParent("parent-1", "parent-1"); err == nil {
		t.Error("expected error for self-attachment")
	}
}

func TestSyncStatusRoundtrip(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	if err := store.SetSyncStatus("u1", "claude_code", "/home/u/.claude/projects/p", SyncRunning, ""); err != nil {
		t.Fatalf("SetSyncStatus: %v", err)
	}
	if err := store.SetSyncStatus("u1", "claude_code", "/home/u/.claude/projects/p", SyncError, "parse failed"); err != nil {
		t.Fatalf("SetSyncStatus update: %v", err)
	}

	st, err := store.GetSyncStatus("u1", "claude_code", "/home/u/.claude/projects/p")
	if err != nil {
		t.Fatalf("GetSyncStatus: %v", err)
	}
	if st == nil || st.Status != SyncError || st.Error != "parse failed" {
		t.Errorf("got %+v", st)
	}

	st, err = store.GetSyncStatus("u1", "claude_code", "/other")
	if err != nil || st != nil {
		t.Errorf("expected nil for unknown path, got %+v, %v", st, err)
	}

	all, err := store.ListSyncStatus("u1")
	if err != nil || len(all) != 1 {
		t.Errorf("ListSyncStatus: %d, %v", len(all), err)
	}
}
