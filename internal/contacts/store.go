package contacts

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/handset/internal/store"
)

// Store persists contacts.
type Store interface {
	// FindDuplicate returns the first stored contact that c matches, or
	// ok=false when there is none.
	FindDuplicate(ctx context.Context, c Contact) (Contact, bool, error)

	// Create inserts a new contact. The ID must be set.
	Create(ctx context.Context, c Contact) error

	// Update replaces a stored contact. Returns store.ErrContactNotFound if
	// the ID is unknown.
	Update(ctx context.Context, c Contact) error

	// Get returns the contact with the given ID.
	Get(ctx context.Context, id uuid.UUID) (Contact, error)

	// Count returns the number of stored contacts.
	Count(ctx context.Context) (int, error)
}

// MemoryStore is an in-process Store. Insertion order is kept so duplicate
// lookups are deterministic.
type MemoryStore struct {
	mu    sync.RWMutex
	order []uuid.UUID
	byID  map[uuid.UUID]Contact
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[uuid.UUID]Contact)}
}

func (m *MemoryStore) FindDuplicate(ctx context.Context, c Contact) (Contact, bool, error) {
	if err := ctx.Err(); err != nil {
		return Contact{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		existing := m.byID[id]
		if existing.Matches(&c) {
			return clone(existing), true, nil
		}
	}
	return Contact{}, false, nil
}

func (m *MemoryStore) Create(ctx context.Context, c Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, ErrContactIDEmpty)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[c.ID]; ok {
		return store.ErrContactExists
	}
	m.byID[c.ID] = clone(c)
	m.order = append(m.order, c.ID)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, c Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[c.ID]; !ok {
		return store.ErrContactNotFound
	}
	m.byID[c.ID] = clone(c)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (Contact, error) {
	if err := ctx.Err(); err != nil {
		return Contact{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.byID[id]
	if !ok {
		return Contact{}, store.ErrContactNotFound
	}
	return clone(c), nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID), nil
}

func clone(c Contact) Contact {
	c.Tel = slices.Clone(c.Tel)
	c.Email = slices.Clone(c.Email)
	return c
}
