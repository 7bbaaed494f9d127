// Package expenses holds the canonical, persisted list of expense records.
//
// Every mutation goes through Store's methods, and every mutation ends by
// writing the whole collection back to the key-value store.
package expenses

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"iexpense/internal/core"
	"iexpense/internal/kv"
	"iexpense/internal/log"
)

// Key is the entry the collection is stored under.
const Key = "Items"

// Listener receives the collection after each mutation.
type Listener func(items []core.Expense)

type Option func(*Store)

// WithKey stores the collection under key instead of Key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger used for storage diagnostics. Without it the
// logger carried by the context passed to New is used.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store owns the ordered collection of expenses.
type Store struct {
	// commitMu serialises mutations through to the write, so snapshots
	// reach the backend in the order the mutations happened.
	commitMu  sync.Mutex
	mu        sync.Mutex
	kv        kv.Store
	key       string
	logger    *log.Logger
	items     []core.Expense
	listeners map[int]Listener
	nextID    int
}

// New creates a store and loads any previously saved collection. A missing
// or undecodable entry leaves the store empty; New never fails.
func New(ctx context.Context, backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:        backend,
		key:       Key,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.FromContext(ctx).WithComponent(log.ComponentStore)
	}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.WarnContext(ctx, "Could not read saved expenses, starting empty",
				log.FieldKey, s.key, log.FieldError, err)
		}
		s.items = []core.Expense{}
		return
	}

	items, err := Decode(data)
	if err != nil {
		s.items = []core.Expense{}
		return
	}
	s.items = items
}

// Items returns a copy of the collection in insertion order.
func (s *Store) Items() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Filter returns the records shown under the selected category tab.
func (s *Store) Filter(selected core.Category) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.FilterByCategory(s.items, selected)
}

// Append adds e at the end of the collection and saves. The store does not
// validate e beyond keeping ids unique: a record whose id is already present
// is ignored. A returned error means the save failed; the record is still
// in memory and will be written by the next successful save.
func (s *Store) Append(ctx context.Context, e core.Expense) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	for _, existing := range s.items {
		if existing.ID == e.ID {
			s.mu.Unlock()
			s.logger.WarnContext(ctx, "Ignoring expense with duplicate id",
				log.FieldOperation, log.OpAppend,
				log.FieldExpenseID, e.ID.String())
			return nil
		}
	}
	s.items = append(s.items, e)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Expense appended",
		log.FieldOperation, log.OpAppend,
		log.FieldExpenseID, e.ID.String(),
		log.FieldCategory, e.Category.String(),
		log.FieldAmount, e.Amount.String())

	return s.commit(ctx)
}

// Remove deletes every record whose id is in ids, keeping the order of the
// rest, and saves. Unknown ids are ignored.
func (s *Store) Remove(ctx context.Context, ids ...uuid.UUID) error {
	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	kept := s.items[:0:0]
	for _, e := range s.items {
		if _, ok := drop[e.ID]; !ok {
			kept = append(kept, e)
		}
	}
	removed := len(s.items) - len(kept)
	s.items = kept
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Expenses removed",
		log.FieldOperation, log.OpDelete,
		"requested", len(ids),
		"removed", removed)

	return s.commit(ctx)
}

// Subscribe registers fn to be called after every mutation. The returned
// func removes the registration. Listeners may read the store but must not
// mutate it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// commit notifies listeners and writes the full collection. Callers hold
// commitMu.
func (s *Store) commit(ctx context.Context) error {
	s.mu.Lock()
	snapshot := append([]core.Expense(nil), s.items...)
	listeners := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(append([]core.Expense(nil), snapshot...))
	}
	return s.save(ctx, snapshot)
}

func (s *Store) save(ctx context.Context, items []core.Expense) error {
	data, err := Encode(items)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save expenses",
			log.FieldKey, s.key, log.FieldCount, len(items), log.FieldError, err)
		return fmt.Errorf("save expenses: %w", err)
	}
	return nil
}
