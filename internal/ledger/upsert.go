package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/p988744/recap-sub001/internal/estimate"
)

// Outcome reports what an upsert did with an incoming item.
type Outcome int

const (
	Created Outcome = iota
	Updated
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "skipped"
	}
}

// Ledger applies incoming evidence items against the store.
type Ledger struct {
	store Store
	now   func() time.Time
}

// LedgerDeps holds dependencies for constructing a Ledger.
type LedgerDeps struct {
	Store Store
	Now   func() time.Time
}

// New creates a ledger over the given store.
func New(store Store) *Ledger {
	return NewWithDeps(LedgerDeps{Store: store})
}

// NewWithDeps creates a ledger with explicit dependencies (for testing).
func NewWithDeps(deps LedgerDeps) *Ledger {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: deps.Store, now: now}
}

// resolution is the result of locating an existing item for incoming
// evidence.
type resolution struct {
	existing *WorkItem
	// migrate is set when the item was found through the session fallback
	// and its stored hash must be rewritten to the current scheme.
	migrate bool
}

// resolve finds the stored item the incoming evidence refers to. Exact
// content-hash match wins; items written before the current hashing
// scheme are found through their (session, source, user) triple instead.
func (l *Ledger) resolve(item *WorkItem, contentHash string) (resolution, error) {
	existing, err := l.store.GetByHash(item.UserID, contentHash)
	if err != nil {
		return resolution{}, fmt.Errorf("lookup by hash: %w", err)
	}
	if existing != nil {
		return resolution{existing: existing}, nil
	}

	if item.SessionID == "" {
		return resolution{}, nil
	}
	existing, err = l.store.GetBySession(item.SessionID, item.Source, item.UserID)
	if err != nil {
		return resolution{}, fmt.Errorf("lookup by session: %w", err)
	}
	if existing != nil {
		return resolution{existing: existing, migrate: true}, nil
	}
	return resolution{}, nil
}

// Upsert records incoming evidence, creating or updating the stored item
// it resolves to. An item whose hours the user has edited keeps those
// hours; everything else about it still refreshes from the evidence.
func (l *Ledger) Upsert(item *WorkItem) (Outcome, error) {
	if item.UserID == "" {
		return Skipped, errors.New("work item has no user")
	}
	if item.PrimaryKey() == "" {
		return Skipped, errors.New("work item has no session or source id")
	}

	contentHash := Identity(item.UserID, item.PrimaryKey())

	res, err := l.resolve(item, contentHash)
	if err != nil {
		return Skipped, err
	}
	if res.existing != nil {
		return Updated, l.applyUpdate(res.existing, item, contentHash, res.migrate)
	}

	item.ID = uuid.New().String()
	item.ContentHash = contentHash
	item.HoursEstimated = item.Hours
	// A fresh item cannot carry a user edit.
	if item.HoursSource == string(estimate.SourceUserModified) {
		item.HoursSource = string(estimate.SourceHeuristic)
	}
	item.CreatedAt = l.now()
	item.UpdatedAt = item.CreatedAt

	err = l.store.Insert(item)
	if err == nil {
		return Created, nil
	}
	if !errors.Is(err, ErrDuplicate) {
		return Skipped, fmt.Errorf("insert work item: %w", err)
	}

	// Lost an insert race with a concurrent sync of the same evidence.
	// The winner's row is authoritative; fold into it.
	existing, rerr := l.store.GetByHash(item.UserID, contentHash)
	if rerr != nil || existing == nil {
		return Skipped, fmt.Errorf("insert work item: %w", err)
	}
	return Updated, l.applyUpdate(existing, item, contentHash, false)
}

// applyUpdate refreshes a stored item from incoming evidence. The stored
// row keeps its identity and creation time; user-edited hours are never
// overwritten by a re-estimate. migrate rewrites a stored hash that
// predates the current hashing scheme.
func (l *Ledger) applyUpdate(existing, incoming *WorkItem, contentHash string, migrate bool) error {
	userEdited := existing.HoursSource == string(estimate.SourceUserModified)

	existing.Title = incoming.Title
	existing.Description = incoming.Description
	existing.Date = incoming.Date
	existing.StartTime = incoming.StartTime
	existing.EndTime = incoming.EndTime
	existing.Source = incoming.Source
	existing.SourceID = incoming.SourceID
	existing.SessionID = incoming.SessionID
	existing.CommitHash = incoming.CommitHash
	existing.Project = incoming.Project
	existing.Metadata = incoming.Metadata
	existing.HoursEstimated = incoming.Hours
	if migrate {
		existing.ContentHash = contentHash
	}
	existing.UpdatedAt = l.now()

	if !userEdited {
		existing.Hours = incoming.Hours
		existing.HoursSource = incoming.HoursSource
	}

	if err := l.store.Update(existing); err != nil {
		return fmt.Errorf("update work item: %w", err)
	}
	return nil
}
