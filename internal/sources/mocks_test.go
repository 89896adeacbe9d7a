package sources

import (
	"context"
	"sync"
	"time"

	"github.com/p988744/recap-sub001/internal/gitlab"
	"github.com/p988744/recap-sub001/internal/ledger"
)

// memStore is an in-memory ledger.Store for source tests.
type memStore struct {
	items map[string]*ledger.WorkItem
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]*ledger.WorkItem)}
}

func (m *memStore) GetByHash(userID, contentHash string) (*ledger.WorkItem, error) {
	for _, item := range m.items {
		if item.UserID == userID && item.ContentHash == contentHash {
			dup := *item
			return &dup, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetBySession(sessionID, source, userID string) (*ledger.WorkItem, error) {
	for _, item := range m.items {
		if item.SessionID == sessionID && item.Source == source && item.UserID == userID {
			dup := *item
			return &dup, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetBySourceID(userID, source, sourceID string) (*ledger.WorkItem, error) {
	for _, item := range m.items {
		if item.UserID == userID && item.Source == source && item.SourceID == sourceID {
			dup := *item
			return &dup, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetByCommitHash(userID, shortHash string) (*ledger.WorkItem, error) {
	for _, item := range m.items {
		if item.UserID == userID && item.CommitHash == shortHash {
			dup := *item
			return &dup, nil
		}
	}
	return nil, nil
}

func (m *memStore) Insert(item *ledger.WorkItem) error {
	for _, existing := range m.items {
		if existing.UserID == item.UserID && existing.ContentHash == item.ContentHash {
			return ledger.ErrDuplicate
		}
	}
	dup := *item
	m.items[item.ID] = &dup
	return nil
}

func (m *memStore) Update(item *ledger.WorkItem) error {
	dup := *item
	m.items[item.ID] = &dup
	return nil
}

func (m *memStore) ListByDate(userID, date string) ([]*ledger.WorkItem, error) {
	var out []*ledger.WorkItem
	for _, item := range m.items {
		if item.UserID == userID && item.Date == date {
			dup := *item
			out = append(out, &dup)
		}
	}
	return out, nil
}

// stubLister serves canned GitLab commits.
type stubLister struct {
	commits []gitlab.Commit
	err     error
	calls   int
}

func (s *stubLister) ListCommits(_ context.Context, _ string, _, _ time.Time) ([]gitlab.Commit, error) {
	s.calls++
	return s.commits, s.err
}

// stubSource reports a fixed result.
type stubSource struct {
	name string
	res  *Result
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Sync(_ context.Context, _ Request) *Result { return s.res }

// statusLog captures sync-status transitions. Sources run concurrently,
// so appends are guarded.
type statusLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *statusLog) SetSyncStatus(userID, source, sourcePath, status, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, source+":"+status)
	return nil
}
