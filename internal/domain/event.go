package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for event state transitions and validation.
var (
	ErrEventStarted      = errors.New("event already started")
	ErrEventCancelled    = errors.New("event is cancelled")
	ErrEventNotCancelled = errors.New("event is not cancelled")
	ErrNoEventImage      = errors.New("event has no image")
)

// Event represents a scheduled gathering owned by a user. TeamID nil means the
// event is visible to all teams and is joinable without an invitation.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Address     string    `json:"address"`
	LocationLat *float64  `json:"location_lat"`
	LocationLng *float64  `json:"location_lng"`
	TeamID      *string   `json:"team_id"`
	OwnerID     string    `json:"owner_id"`
	IsCancelled bool      `json:"is_cancelled"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title, description string, startsAt, endsAt time.Time, address, ownerID string, teamID *string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Address:     address,
		OwnerID:     ownerID,
		TeamID:      teamID,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// HasStarted reports whether the event has started as of now.
// Guest lists and attendance are frozen once an event begins.
func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartsAt)
}

// IsAllTeams reports whether the event is a public "all teams" event.
func (e *Event) IsAllTeams() bool {
	return e.TeamID == nil
}

// EventUpdate is a partial update applied to an event. Nil fields are left
// unchanged. Supplied start/end bounds are validated against each other or
// against the stored bounds before being applied.
type EventUpdate struct {
	Title       *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Address     *string
	LocationLat *float64
	LocationLng *float64
	OwnerID     *string
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, eventID string, upd EventUpdate) (*Event, error)
	SetCancelled(ctx context.Context, eventID string, cancelled bool) (*Event, error)
	SetImageURL(ctx context.Context, eventID string, imageURL *string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	ListByTeamID(ctx context.Context, teamID string) ([]*Event, error)
	// ListIDsBetween returns IDs of events overlapping the given bounds.
	// Nil bounds are unbounded on that side.
	ListIDsBetween(ctx context.Context, from, to *time.Time) ([]string, error)
}

// FileStorage abstracts the object store holding event images.
type FileStorage interface {
	// PresignUpload returns a short-lived URL the client PUTs the object to.
	PresignUpload(ctx context.Context, key string) (uploadURL string, err error)
	// PublicURL returns the canonical URL the object has once uploaded.
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// EventService defines the business logic for event lifecycle operations.
type EventService interface {
	Create(ctx context.Context, event *Event, isOwnerAttending bool) (*Event, error)
	Update(ctx context.Context, eventID string, upd EventUpdate) (*Event, error)
	Cancel(ctx context.Context, eventID string) (*Event, error)
	Restore(ctx context.Context, eventID string) (*Event, error)
	GetByID(ctx context.Context, eventID string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	ListByTeamID(ctx context.Context, teamID string) ([]*Event, error)
	GenerateImageUploadURL(ctx context.Context, eventID string) (uploadURL string, err error)
	CompleteImageUpload(ctx context.Context, eventID string) (*Event, error)
	RemoveImage(ctx context.Context, eventID string) (*Event, error)
}
