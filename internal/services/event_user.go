package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/upfrom/backend/internal/domain"
)

type eventUserService struct {
	eventRepo      domain.EventRepository
	eventUserRepo  domain.EventUserRepository
	teamRepo       domain.TeamRepository
	teamUserRepo   domain.TeamUserRepository
	orgRepo        domain.OrganizationRepository
	chat           domain.ChatService
	bus            domain.NotificationPublisher
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventUserService(eventRepo domain.EventRepository,
	eventUserRepo domain.EventUserRepository,
	teamRepo domain.TeamRepository,
	teamUserRepo domain.TeamUserRepository,
	orgRepo domain.OrganizationRepository,
	chat domain.ChatService,
	bus domain.NotificationPublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventUserService {
	return &eventUserService{
		eventRepo:      eventRepo,
		eventUserRepo:  eventUserRepo,
		teamRepo:       teamRepo,
		teamUserRepo:   teamUserRepo,
		orgRepo:        orgRepo,
		chat:           chat,
		bus:            bus,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventUserService) publish(ctx context.Context, n domain.Notification) {
	if err := s.bus.Publish(ctx, n); err != nil {
		s.logger.Warn("notification publish failed", "kind", n.Kind, "event_id", n.EventID, "err", err)
	}
}

// SetGuestList is the owner-facing reconciliation; the caller must own the event.
func (s *eventUserService) SetGuestList(ctx context.Context, eventID string, userIDs []string, callerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.setGuests(ctx, eventID, userIDs, &callerID, false)
}

// AdminSetGuestList skips the ownership check and reports the owner as
// included to the notification fan-out, so the owner also hears about
// admin-made changes to their guest list.
func (s *eventUserService) AdminSetGuestList(ctx context.Context, eventID string, userIDs []string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.setGuests(ctx, eventID, userIDs, nil, true)
}

func (s *eventUserService) setGuests(ctx context.Context, eventID string, userIDs []string, callerID *string, isOwnerIncluded bool) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// Guest lists are frozen once the event begins.
	if event.HasStarted(s.now()) {
		return nil, domain.ErrEventStarted
	}
	if callerID != nil && event.OwnerID != *callerID {
		return nil, domain.ErrForbidden
	}
	if event.IsCancelled {
		return nil, domain.ErrEventCancelled
	}
	if event.IsAllTeams() {
		return nil, domain.ErrEventIsPublic
	}

	current, err := s.eventUserRepo.ListUserIDsByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list current guests: %w", err)
	}
	toAdd, toRemove := domain.DiffGuestLists(current, userIDs)
	if len(toAdd) == 0 && len(toRemove) == 0 {
		return event, nil
	}

	if err := s.eventUserRepo.SyncGuests(ctx, eventID, toAdd, toRemove); err != nil {
		return nil, fmt.Errorf("sync guests: %w", err)
	}

	s.publish(ctx, domain.Notification{
		Kind:            domain.NotificationGuestListUpdated,
		EventID:         event.ID,
		OwnerID:         event.OwnerID,
		TeamID:          event.TeamID,
		AddedUserIDs:    toAdd,
		RemovedUserIDs:  toRemove,
		IsOwnerIncluded: isOwnerIncluded,
	})
	s.syncChat(ctx, eventID)
	return event, nil
}

// syncChat mirrors the committed guest list into the chat channel, best-effort.
func (s *eventUserService) syncChat(ctx context.Context, eventID string) {
	members, err := s.eventUserRepo.ListUserIDsByEventID(ctx, eventID)
	if err != nil {
		s.logger.Warn("chat sync skipped: list guests failed", "event_id", eventID, "err", err)
		return
	}
	if err := s.chat.SyncEventChannel(ctx, eventID, members); err != nil {
		s.logger.Warn("chat channel sync failed", "event_id", eventID, "err", err)
	}
}

func (s *eventUserService) UpdateInvitationStatus(ctx context.Context, eventID, userID string, isAttending *bool) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.HasStarted(s.now()) {
		return nil, domain.ErrEventStarted
	}
	if event.IsCancelled {
		return nil, domain.ErrEventCancelled
	}
	if _, err := s.eventUserRepo.UpdateAttendance(ctx, eventID, userID, isAttending); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update attendance: %w", err)
	}
	return event, nil
}

func (s *eventUserService) JoinPublicEvent(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.publicEventForChange(ctx, eventID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	accepted := true
	eu := domain.NewEventUser(eventID, userID, &accepted, now, now)
	if err := s.eventUserRepo.Create(ctx, eu); err != nil {
		if errors.Is(err, domain.ErrAlreadyInvited) {
			return nil, domain.ErrAlreadyInvited
		}
		return nil, fmt.Errorf("join event: %w", err)
	}
	return event, nil
}

// LeavePublicEvent removes the row outright; leaving is not a soft decline.
func (s *eventUserService) LeavePublicEvent(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.publicEventForChange(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.eventUserRepo.Delete(ctx, eventID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("leave event: %w", err)
	}
	return event, nil
}

// publicEventForChange loads the event and enforces the join/leave rules:
// the event must be an "all teams" event, not started, and not cancelled.
func (s *eventUserService) publicEventForChange(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsAllTeams() {
		return nil, domain.ErrEventNotPublic
	}
	if event.HasStarted(s.now()) {
		return nil, domain.ErrEventStarted
	}
	if event.IsCancelled {
		return nil, domain.ErrEventCancelled
	}
	return event, nil
}

func (s *eventUserService) ListEventGuests(ctx context.Context, eventID string) ([]*domain.EventUser, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	guests, err := s.eventUserRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	domain.SortGuestsByAttendance(guests)
	return guests, nil
}

// GetAttendance rolls up invitation responses per user. A nil userIDs slice
// means no user filter; an empty one means the membership filter matched
// nobody and the rollup is empty without touching the store. The same
// distinction applies to a time range that matches no events.
func (s *eventUserService) GetAttendance(ctx context.Context, userIDs []string, rng *domain.TimeRange) ([]*domain.UserAttendance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.attendance(ctx, userIDs, rng)
}

func (s *eventUserService) attendance(ctx context.Context, userIDs []string, rng *domain.TimeRange) ([]*domain.UserAttendance, error) {
	if userIDs != nil && len(userIDs) == 0 {
		return []*domain.UserAttendance{}, nil
	}
	filter := domain.AttendanceFilter{UserIDs: userIDs}
	if rng != nil && (rng.From != nil || rng.To != nil) {
		eventIDs, err := s.eventRepo.ListIDsBetween(ctx, rng.From, rng.To)
		if err != nil {
			return nil, fmt.Errorf("resolve events in range: %w", err)
		}
		if len(eventIDs) == 0 {
			return []*domain.UserAttendance{}, nil
		}
		filter.EventIDs = eventIDs
	}
	out, err := s.eventUserRepo.CountAttendance(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	if out == nil {
		out = []*domain.UserAttendance{}
	}
	return out, nil
}

func (s *eventUserService) GetTeamAttendance(ctx context.Context, teamID string, rng *domain.TimeRange) ([]*domain.UserAttendance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	memberIDs, err := s.teamUserRepo.ListUserIDsByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return s.attendance(ctx, memberIDs, rng)
}

func (s *eventUserService) GetOrganizationAttendance(ctx context.Context, organizationID string, rng *domain.TimeRange) ([]*domain.UserAttendance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.orgRepo.GetByID(ctx, organizationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	memberIDs, err := s.teamUserRepo.ListUserIDsByOrganizationID(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list organization members: %w", err)
	}
	return s.attendance(ctx, memberIDs, rng)
}
