package cache

import (
	"context"
	"testing"
	"time"

	"github.com/upfrom/backend/internal/domain"

	"github.com/stretchr/testify/require"
)

// countingEventRepo records how often each method hits the underlying store.
type countingEventRepo struct {
	byID map[string]*domain.Event
	gets int
}

func (f *countingEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.byID[e.ID] = e
	return nil
}

func (f *countingEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.gets++
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *countingEventRepo) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	return e, nil
}

func (f *countingEventRepo) SetCancelled(ctx context.Context, eventID string, cancelled bool) (*domain.Event, error) {
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.IsCancelled = cancelled
	return e, nil
}

func (f *countingEventRepo) SetImageURL(ctx context.Context, eventID string, imageURL *string) (*domain.Event, error) {
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.ImageURL = imageURL
	return e, nil
}

func (f *countingEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	return nil, nil
}

func (f *countingEventRepo) ListByTeamID(ctx context.Context, teamID string) ([]*domain.Event, error) {
	return nil, nil
}

func (f *countingEventRepo) ListIDsBetween(ctx context.Context, from, to *time.Time) ([]string, error) {
	return nil, nil
}

func TestEventCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingEventRepo{byID: map[string]*domain.Event{
		"ev-1": {ID: "ev-1", Title: "Meetup"},
	}}
	repo := NewEventCache(inner)

	for i := 0; i < 3; i++ {
		e, err := repo.GetByID(ctx, "ev-1")
		require.NoError(t, err)
		require.Equal(t, "Meetup", e.Title)
	}
	require.Equal(t, 1, inner.gets, "repeated reads must be served from memory")
}

func TestEventCache_InvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	inner := &countingEventRepo{byID: map[string]*domain.Event{
		"ev-1": {ID: "ev-1", Title: "Meetup"},
	}}
	repo := NewEventCache(inner)

	_, err := repo.GetByID(ctx, "ev-1")
	require.NoError(t, err)

	title := "Renamed"
	_, err = repo.Update(ctx, "ev-1", domain.EventUpdate{Title: &title})
	require.NoError(t, err)

	e, err := repo.GetByID(ctx, "ev-1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", e.Title)
	require.Equal(t, 2, inner.gets, "write must evict the cached row")
}

func TestEventCache_MissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingEventRepo{byID: map[string]*domain.Event{}}
	repo := NewEventCache(inner)

	_, err := repo.GetByID(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetByID(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, 2, inner.gets)
}
