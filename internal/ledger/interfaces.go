package ledger

import "errors"

// ErrDuplicate is returned by Store.Insert when another item already
// holds the same (user, content hash) identity. Concurrent syncs of the
// same session race on insert; callers recover by re-reading.
var ErrDuplicate = errors.New("work item already exists")

// Store is the persistence contract the ledger runs against.
type Store interface {
	// GetByHash returns the item with the given content hash for a user,
	// or nil when none exists.
	GetByHash(userID, contentHash string) (*WorkItem, error)

	// GetBySession returns the item matching a (session, source, user)
	// triple, or nil. Used as the fallback lookup when the content hash
	// of an item predates the current hashing scheme.
	GetBySession(sessionID, source, userID string) (*WorkItem, error)

	// GetBySourceID returns the item a source already recorded under its
	// own identifier, or nil.
	GetBySourceID(userID, source, sourceID string) (*WorkItem, error)

	// GetByCommitHash returns the item recorded for a short commit hash,
	// regardless of source, or nil.
	GetByCommitHash(userID, shortHash string) (*WorkItem, error)

	Insert(item *WorkItem) error
	Update(item *WorkItem) error

	ListByDate(userID, date string) ([]*WorkItem, error)
}
