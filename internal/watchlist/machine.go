// Package watchlist keeps per-title membership state in sync with the
// remote watchlist store. Edits apply optimistically and roll back to
// the exact prior snapshot if the server rejects them.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

// ─── Types ──────────────────────────────────────────────────────────────────

// State is where an item stands relative to the remote watchlist.
type State int

const (
	StateLoading State = iota // membership not yet resolved
	StateNotAdded
	StateInList
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateNotAdded:
		return "not-added"
	case StateInList:
		return "in-list"
	default:
		return "unknown"
	}
}

// Status is the user's progress on an item. Empty means none recorded.
type Status string

const (
	StatusWant    Status = "want"
	StatusWatched Status = "watched"
)

// Item identifies a title to the watchlist store.
type Item struct {
	MediaID int
	Kind    string // "movie" or "tv"
}

// Key is the map key for this item's entry.
func (it Item) Key() string {
	return it.Kind + ":" + strconv.Itoa(it.MediaID)
}

// Entry is the local view of one item. Status, Rating, and RemoteID are
// meaningful only when State is StateInList. Rating 0 means unrated.
type Entry struct {
	State      State
	Status     Status
	Rating     int
	RemoteID   string
	Busy       bool
	PromptOpen bool // rating prompt showing for this item
}

// RemoteEntry is the server's authoritative record for one item.
type RemoteEntry struct {
	Exists bool   `json:"exists"`
	ID     string `json:"id"`
	Status Status `json:"status"`
	Rating int    `json:"rating"`
}

// Patch is a partial update. Nil fields are left untouched; a pointer
// to the zero value clears the field server-side.
type Patch struct {
	Status *Status `json:"status,omitempty"`
	Rating *int    `json:"rating,omitempty"`
}

// Remote is the slice of the API surface the manager drives.
type Remote interface {
	LookupWatchlist(ctx context.Context, items []Item) (map[string]RemoteEntry, error)
	CreateWatchlistItem(ctx context.Context, item Item, status Status) (RemoteEntry, error)
	UpdateWatchlistItem(ctx context.Context, id string, patch Patch) (RemoteEntry, error)
	DeleteWatchlistItem(ctx context.Context, id string) error
}

// TokenSource reports the current bearer token, empty when the user is
// not logged in.
type TokenSource interface {
	Token() string
}

// ─── Errors ─────────────────────────────────────────────────────────────────

var (
	// ErrBusy means another edit for the same item is still in flight.
	// Callers retry after it settles; nothing is queued.
	ErrBusy = errors.New("watchlist: operation already in progress for this item")

	// ErrNotAuthenticated means no bearer token is available.
	ErrNotAuthenticated = errors.New("watchlist: not logged in")

	// ErrInvalidRating means the rating was out of range or not a
	// finite number. The entry is left unchanged.
	ErrInvalidRating = errors.New("watchlist: rating must be between 1 and 10")

	// ErrNotInList means the edit needs an existing watchlist entry.
	ErrNotInList = errors.New("watchlist: item is not in the watchlist")
)

// ─── Manager ────────────────────────────────────────────────────────────────

// Manager holds one Entry per item key. Edits on the same key are
// mutually exclusive via the Busy flag; different keys proceed
// independently. The internal mutex only guards map and field access,
// never spans a network call.
type Manager struct {
	remote Remote
	tokens TokenSource
	log    zerolog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
}

// NewManager creates a manager with no entries.
func NewManager(remote Remote, tokens TokenSource, log zerolog.Logger) *Manager {
	return &Manager{
		remote:  remote,
		tokens:  tokens,
		log:     log,
		entries: make(map[string]*Entry),
	}
}

// Get returns a snapshot of the entry for key. Unknown keys read as
// StateNotAdded.
func (m *Manager) Get(key string) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		return *e
	}
	return Entry{State: StateNotAdded}
}

// Reset replaces the tracked item set. Keys not in items are dropped;
// new keys start at StateLoading.
func (m *Manager) Reset(items []Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := make(map[string]*Entry, len(items))
	for _, it := range items {
		key := it.Key()
		if e, ok := m.entries[key]; ok {
			next[key] = e
		} else {
			next[key] = &Entry{State: StateLoading}
		}
	}
	m.entries = next
}

// Init resolves membership for items with one batched lookup. On
// lookup failure every unresolved entry degrades to StateNotAdded;
// entries already confirmed in the list keep their state.
func (m *Manager) Init(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	if err := m.authorized(); err != nil {
		return err
	}

	m.mu.Lock()
	for _, it := range items {
		key := it.Key()
		if e, ok := m.entries[key]; ok {
			if e.State != StateInList {
				e.State = StateLoading
			}
		} else {
			m.entries[key] = &Entry{State: StateLoading}
		}
	}
	m.mu.Unlock()

	found, err := m.remote.LookupWatchlist(ctx, items)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		for _, it := range items {
			if e := m.entries[it.Key()]; e != nil && e.State == StateLoading {
				e.State = StateNotAdded
			}
		}
		m.log.Debug().Err(err).Msg("watchlist lookup failed, degrading to not-added")
		return fmt.Errorf("looking up watchlist: %w", err)
	}
	for _, it := range items {
		key := it.Key()
		e := m.entries[key]
		if e == nil {
			continue
		}
		if re, ok := found[key]; ok && re.Exists {
			e.State = StateInList
			e.RemoteID = re.ID
			e.Status = re.Status
			e.Rating = re.Rating
		} else {
			e.State = StateNotAdded
			e.RemoteID = ""
			e.Status = ""
			e.Rating = 0
		}
	}
	return nil
}

// Add puts the item on the watchlist with the given status (StatusWant
// when empty).
func (m *Manager) Add(ctx context.Context, item Item, status Status) error {
	if status == "" {
		status = StatusWant
	}
	snap, err := m.begin(item.Key(), func(e *Entry) {
		e.State = StateInList
		e.Status = status
		e.Rating = 0
	})
	if err != nil {
		return err
	}

	re, err := m.remote.CreateWatchlistItem(ctx, item, status)
	if err != nil {
		m.rollback(item.Key(), snap)
		return fmt.Errorf("adding %q to watchlist: %w", item.Key(), err)
	}
	m.settle(item.Key(), snap, re)
	return nil
}

// SetStatus changes the progress status of an item already in the list.
func (m *Manager) SetStatus(ctx context.Context, item Item, status Status) error {
	snap, err := m.beginInList(item.Key(), func(e *Entry) {
		e.Status = status
		if status != StatusWatched {
			e.PromptOpen = false
		}
	})
	if err != nil {
		return err
	}

	re, err := m.remote.UpdateWatchlistItem(ctx, snap.RemoteID, Patch{Status: &status})
	if err != nil {
		m.rollback(item.Key(), snap)
		return fmt.Errorf("updating status for %q: %w", item.Key(), err)
	}
	m.settle(item.Key(), snap, re)
	return nil
}

// Rate records a 1-10 rating. Fractional input rounds to the nearest
// integer; out-of-range or non-finite values are rejected outright.
func (m *Manager) Rate(ctx context.Context, item Item, rating float64) error {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return ErrInvalidRating
	}
	rounded := int(math.Round(rating))
	if rounded < 1 || rounded > 10 {
		return ErrInvalidRating
	}

	snap, err := m.beginInList(item.Key(), func(e *Entry) {
		e.Rating = rounded
		e.PromptOpen = false
	})
	if err != nil {
		return err
	}

	re, err := m.remote.UpdateWatchlistItem(ctx, snap.RemoteID, Patch{Rating: &rounded})
	if err != nil {
		m.rollback(item.Key(), snap)
		return fmt.Errorf("rating %q: %w", item.Key(), err)
	}
	m.settle(item.Key(), snap, re)
	return nil
}

// ClearRating removes the stored rating and dismisses any prompt.
func (m *Manager) ClearRating(ctx context.Context, item Item) error {
	snap, err := m.beginInList(item.Key(), func(e *Entry) {
		e.Rating = 0
		e.PromptOpen = false
	})
	if err != nil {
		return err
	}

	zero := 0
	re, err := m.remote.UpdateWatchlistItem(ctx, snap.RemoteID, Patch{Rating: &zero})
	if err != nil {
		m.rollback(item.Key(), snap)
		return fmt.Errorf("clearing rating for %q: %w", item.Key(), err)
	}
	m.settle(item.Key(), snap, re)
	return nil
}

// SkipRatingPrompt dismisses the prompt without rating. Local only.
func (m *Manager) SkipRatingPrompt(item Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[item.Key()]; ok {
		e.PromptOpen = false
	}
}

// Remove deletes the item from the watchlist.
func (m *Manager) Remove(ctx context.Context, item Item) error {
	snap, err := m.beginInList(item.Key(), func(e *Entry) {
		*e = Entry{State: StateNotAdded, Busy: true}
	})
	if err != nil {
		return err
	}

	if err := m.remote.DeleteWatchlistItem(ctx, snap.RemoteID); err != nil {
		m.rollback(item.Key(), snap)
		return fmt.Errorf("removing %q from watchlist: %w", item.Key(), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[item.Key()]; ok {
		*e = Entry{State: StateNotAdded}
	}
	return nil
}

// ─── Internal ───────────────────────────────────────────────────────────────

func (m *Manager) authorized() error {
	if m.tokens.Token() == "" {
		return ErrNotAuthenticated
	}
	return nil
}

// begin takes the pre-edit snapshot, applies the optimistic mutation,
// and marks the entry busy. Concurrent edits on the same key are
// rejected, not queued.
func (m *Manager) begin(key string, apply func(*Entry)) (Entry, error) {
	if err := m.authorized(); err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &Entry{State: StateNotAdded}
		m.entries[key] = e
	}
	if e.Busy {
		return Entry{}, ErrBusy
	}
	snap := *e
	apply(e)
	e.Busy = true
	return snap, nil
}

// beginInList is begin restricted to items already on the list.
func (m *Manager) beginInList(key string, apply func(*Entry)) (Entry, error) {
	if err := m.authorized(); err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.State != StateInList {
		return Entry{}, ErrNotInList
	}
	if e.Busy {
		return Entry{}, ErrBusy
	}
	snap := *e
	apply(e)
	e.Busy = true
	return snap, nil
}

// rollback restores the exact pre-edit snapshot.
func (m *Manager) rollback(key string, snap Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		*e = snap
	}
	m.log.Debug().Str("key", key).Msg("watchlist edit rolled back")
}

// settle replaces the optimistic fields with the server's record. The
// rating prompt opens when the edit lands the item on watched with no
// rating yet.
func (m *Manager) settle(key string, snap Entry, re RemoteEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return
	}
	e.Busy = false
	if !re.Exists {
		*e = Entry{State: StateNotAdded}
		return
	}
	e.State = StateInList
	e.RemoteID = re.ID
	e.Status = re.Status
	e.Rating = re.Rating

	wasWatched := snap.State == StateInList && snap.Status == StatusWatched
	switch {
	case e.Status == StatusWatched && e.Rating == 0 && !wasWatched:
		e.PromptOpen = true
	case e.Status != StatusWatched || e.Rating > 0:
		e.PromptOpen = false
	}
}
