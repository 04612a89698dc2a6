package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/upfrom/backend/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	eventUserRepo  domain.EventUserRepository
	userRepo       domain.UserRepository
	storage        domain.FileStorage
	bus            domain.NotificationPublisher
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(eventRepo domain.EventRepository,
	eventUserRepo domain.EventUserRepository,
	userRepo domain.UserRepository,
	storage domain.FileStorage,
	bus domain.NotificationPublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		eventUserRepo:  eventUserRepo,
		userRepo:       userRepo,
		storage:        storage,
		bus:            bus,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// publish is fire-and-forget: a lost notification is logged and never fails
// the operation that triggered it.
func (s *eventService) publish(ctx context.Context, n domain.Notification) {
	if err := s.bus.Publish(ctx, n); err != nil {
		s.logger.Warn("notification publish failed", "kind", n.Kind, "event_id", n.EventID, "err", err)
	}
}

func (s *eventService) Create(ctx context.Context, event *domain.Event, isOwnerAttending bool) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OwnerID == "" {
		return nil, fmt.Errorf("event owner is required: %w", domain.ErrInvalidInput)
	}
	if _, err := s.userRepo.GetByID(ctx, event.OwnerID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("owner %q does not exist: %w", event.OwnerID, domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}
	if event.StartsAt.After(event.EndsAt) {
		return nil, fmt.Errorf("starts_at must precede ends_at: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	if isOwnerAttending {
		accepted := true
		eu := domain.NewEventUser(event.ID, event.OwnerID, &accepted, now, now)
		if err := s.eventUserRepo.Create(ctx, eu); err != nil {
			return nil, fmt.Errorf("create owner invitation: %w", err)
		}
	}

	if event.IsAllTeams() {
		s.publish(ctx, domain.Notification{
			Kind:    domain.NotificationAllTeamsEventCreated,
			EventID: event.ID,
			OwnerID: event.OwnerID,
		})
	}
	return event, nil
}

func (s *eventService) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if upd.OwnerID != nil {
		if _, err := s.userRepo.GetByID(ctx, *upd.OwnerID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, fmt.Errorf("new owner %q does not exist: %w", *upd.OwnerID, domain.ErrUserNotFound)
			}
			return nil, fmt.Errorf("get new owner: %w", err)
		}
	}

	// Start/end bounds are checked new-vs-new when both are supplied, and
	// new-vs-stored when only one of them is.
	switch {
	case upd.StartsAt != nil && upd.EndsAt != nil:
		if upd.StartsAt.After(*upd.EndsAt) {
			return nil, fmt.Errorf("starts_at must precede ends_at: %w", domain.ErrInvalidInput)
		}
	case upd.StartsAt != nil:
		if upd.StartsAt.After(event.EndsAt) {
			return nil, fmt.Errorf("new starts_at must precede existing ends_at: %w", domain.ErrInvalidInput)
		}
	case upd.EndsAt != nil:
		if upd.EndsAt.Before(event.StartsAt) {
			return nil, fmt.Errorf("new ends_at must follow existing starts_at: %w", domain.ErrInvalidInput)
		}
	}

	updated, err := s.eventRepo.Update(ctx, eventID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	if locationChanged(event, updated) {
		s.publish(ctx, domain.Notification{
			Kind:    domain.NotificationEventLocationChanged,
			EventID: updated.ID,
			OwnerID: updated.OwnerID,
			TeamID:  updated.TeamID,
		})
	}
	if !event.StartsAt.Equal(updated.StartsAt) || !event.EndsAt.Equal(updated.EndsAt) {
		oldStarts := event.StartsAt
		newStarts := updated.StartsAt
		s.publish(ctx, domain.Notification{
			Kind:        domain.NotificationEventDateTimeChanged,
			EventID:     updated.ID,
			OwnerID:     updated.OwnerID,
			TeamID:      updated.TeamID,
			OldStartsAt: &oldStarts,
			NewStartsAt: &newStarts,
		})
	}
	return updated, nil
}

func locationChanged(before, after *domain.Event) bool {
	if before.Address != after.Address {
		return true
	}
	return !floatPtrEqual(before.LocationLat, after.LocationLat) || !floatPtrEqual(before.LocationLng, after.LocationLng)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *eventService) Cancel(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.IsCancelled {
		return nil, domain.ErrEventCancelled
	}
	updated, err := s.eventRepo.SetCancelled(ctx, eventID, true)
	if err != nil {
		return nil, fmt.Errorf("cancel event: %w", err)
	}
	s.publish(ctx, domain.Notification{
		Kind:    domain.NotificationEventCancelled,
		EventID: updated.ID,
		OwnerID: updated.OwnerID,
		TeamID:  updated.TeamID,
	})
	return updated, nil
}

// Restore clears the cancellation flag. Unlike Cancel it publishes nothing;
// restores are admin-initiated and intentionally silent.
func (s *eventService) Restore(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsCancelled {
		return nil, domain.ErrEventNotCancelled
	}
	updated, err := s.eventRepo.SetCancelled(ctx, eventID, false)
	if err != nil {
		return nil, fmt.Errorf("restore event: %w", err)
	}
	return updated, nil
}

func (s *eventService) GetByID(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.ListByOwnerID(ctx, ownerID)
}

func (s *eventService) ListByTeamID(ctx context.Context, teamID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.ListByTeamID(ctx, teamID)
}

func eventImageKey(eventID string) string {
	return "events/" + eventID + "/image"
}

func (s *eventService) GenerateImageUploadURL(ctx context.Context, eventID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get event: %w", err)
	}
	uploadURL, err := s.storage.PresignUpload(ctx, eventImageKey(eventID))
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	return uploadURL, nil
}

func (s *eventService) CompleteImageUpload(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	url := s.storage.PublicURL(eventImageKey(eventID))
	updated, err := s.eventRepo.SetImageURL(ctx, eventID, &url)
	if err != nil {
		return nil, fmt.Errorf("set image url: %w", err)
	}
	return updated, nil
}

// RemoveImage clears the image field. A failed object-store delete is logged
// and the field is cleared anyway; metadata and blob converge eventually.
func (s *eventService) RemoveImage(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.ImageURL == nil {
		return nil, domain.ErrNoEventImage
	}
	if err := s.storage.Delete(ctx, eventImageKey(eventID)); err != nil {
		s.logger.Warn("delete event image from storage failed", "event_id", eventID, "err", err)
	}
	updated, err := s.eventRepo.SetImageURL(ctx, eventID, nil)
	if err != nil {
		return nil, fmt.Errorf("clear image url: %w", err)
	}
	return updated, nil
}
