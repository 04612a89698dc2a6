// Package cache provides in-process read-through decorators over repositories.
// Caches here are a latency optimization for a single instance only: every
// write invalidates the cached key, and nothing may rely on them for
// consistency across instances.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/upfrom/backend/internal/domain"
)

type eventCache struct {
	inner domain.EventRepository

	mu      sync.Mutex
	entries map[string]*domain.Event
}

// NewEventCache wraps an EventRepository with per-ID row memoization.
// Reads hit the cache; every write to an event clears its entry.
func NewEventCache(inner domain.EventRepository) domain.EventRepository {
	return &eventCache{
		inner:   inner,
		entries: make(map[string]*domain.Event),
	}
}

func (c *eventCache) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if ok {
		return e, nil
	}
	e, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[id] = e
	c.mu.Unlock()
	return e, nil
}

func (c *eventCache) invalidate(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

func (c *eventCache) Create(ctx context.Context, e *domain.Event) error {
	if err := c.inner.Create(ctx, e); err != nil {
		return err
	}
	c.invalidate(e.ID)
	return nil
}

func (c *eventCache) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	c.invalidate(eventID)
	return c.inner.Update(ctx, eventID, upd)
}

func (c *eventCache) SetCancelled(ctx context.Context, eventID string, cancelled bool) (*domain.Event, error) {
	c.invalidate(eventID)
	return c.inner.SetCancelled(ctx, eventID, cancelled)
}

func (c *eventCache) SetImageURL(ctx context.Context, eventID string, imageURL *string) (*domain.Event, error) {
	c.invalidate(eventID)
	return c.inner.SetImageURL(ctx, eventID, imageURL)
}

// List queries always pass through; only single-row reads are memoized.

func (c *eventCache) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	return c.inner.ListByOwnerID(ctx, ownerID)
}

func (c *eventCache) ListByTeamID(ctx context.Context, teamID string) ([]*domain.Event, error) {
	return c.inner.ListByTeamID(ctx, teamID)
}

func (c *eventCache) ListIDsBetween(ctx context.Context, from, to *time.Time) ([]string, error) {
	return c.inner.ListIDsBetween(ctx, from, to)
}
