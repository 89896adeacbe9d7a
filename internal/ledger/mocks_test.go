package ledger

import "fmt"

// mockStore is an in-memory Store for exercising upsert behavior.
type mockStore struct {
	items map[string]*WorkItem // keyed by ID

	insertErr error
	failNext  int // force ErrDuplicate on the next N inserts
	hideHash  int // report no match for the next N hash lookups

	inserts int
	updates int
}

func newMockStore() *mockStore {
	return &mockStore{items: make(map[string]*WorkItem)}
}

func (m *mockStore) GetByHash(userID, contentHash string) (*WorkItem, error) {
	if m.hideHash > 0 {
		m.hideHash--
		return nil, nil
	}
	for _, item := range m.items {
		if item.UserID == userID && item.ContentHash == contentHash {
			return copyItem(item), nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetBySession(sessionID, source, userID string) (*WorkItem, error) {
	for _, item := range m.items {
		if item.SessionID == sessionID && item.Source == source && item.UserID == userID {
			return copyItem(item), nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetBySourceID(userID, source, sourceID string) (*WorkItem, error) {
	for _, item := range m.items {
		if item.UserID == userID && item.Source == source && item.SourceID == sourceID {
			return copyItem(item), nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetByCommitHash(userID, shortHash string) (*WorkItem, error) {
	for _, item := range m.items {
		if item.UserID == userID && item.CommitHash == shortHash {
			return copyItem(item), nil
		}
	}
	return nil, nil
}

func (m *mockStore) Insert(item *WorkItem) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.failNext > 0 {
		m.failNext--
		return ErrDuplicate
	}
	for _, existing := range m.items {
		if existing.UserID == item.UserID && existing.ContentHash == item.ContentHash {
			return ErrDuplicate
		}
	}
	m.inserts++
	m.items[item.ID] = copyItem(item)
	return nil
}

func (m *mockStore) Update(item *WorkItem) error {
	if _, ok := m.items[item.ID]; !ok {
		return fmt.Errorf("no item with id %s", item.ID)
	}
	m.updates++
	m.items[item.ID] = copyItem(item)
	return nil
}

func (m *mockStore) ListByDate(userID, date string) ([]*WorkItem, error) {
	var out []*WorkItem
	for _, item := range m.items {
		if item.UserID == userID && item.Date == date {
			out = append(out, copyItem(item))
		}
	}
	return out, nil
}

// seed plants an item directly, bypassing upsert rules.
func (m *mockStore) seed(item *WorkItem) {
	m.items[item.ID] = copyItem(item)
}

func (m *mockStore) get(id string) *WorkItem {
	return m.items[id]
}

func copyItem(item *WorkItem) *WorkItem {
	dup := *item
	return &dup
}
