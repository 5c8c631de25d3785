package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ImportResult describes what happened to one imported record.
type ImportResult struct {
	Contact Contact
	// Merged is true when the record was folded into an existing contact.
	Merged bool
}

// Service imports contacts into a Store, merging duplicates.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	// mu serialises lookup-then-write so two records matching each other are
	// not both created.
	mu sync.Mutex
}

// NewService creates a Service over the given store.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With("component", "contacts_service"),
		now:    time.Now,
	}
}

// Import stores c, merging it into an existing contact when one matches.
func (s *Service) Import(ctx context.Context, c Contact) (ImportResult, error) {
	if err := c.Validate(); err != nil {
		return ImportResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, found, err := s.store.FindDuplicate(ctx, c)
	if err != nil {
		return ImportResult{}, fmt.Errorf("find duplicate: %w", err)
	}

	if found {
		merged := Merge(existing, c)
		merged.UpdatedAt = s.now().UTC()
		if err := s.store.Update(ctx, merged); err != nil {
			return ImportResult{}, fmt.Errorf("update contact %s: %w", merged.ID, err)
		}
		s.logger.Debug("merged imported contact", "contact_id", merged.ID)
		return ImportResult{Contact: merged, Merged: true}, nil
	}

	c.ID = uuid.New()
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Create(ctx, c); err != nil {
		return ImportResult{}, fmt.Errorf("create contact: %w", err)
	}
	s.logger.Debug("created imported contact", "contact_id", c.ID)
	return ImportResult{Contact: c}, nil
}

// Count returns the number of stored contacts.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
