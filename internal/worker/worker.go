// Package worker consumes the notification queue and delivers email to
// affected users. Delivery is entirely downstream of the domain: a failed
// send retries here and never touches domain state.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/upfrom/backend/internal/adapters/bus"
	"github.com/upfrom/backend/internal/domain"
)

// Handler resolves recipients for queued notifications and sends email.
type Handler struct {
	eventRepo     domain.EventRepository
	eventUserRepo domain.EventUserRepository
	userRepo      domain.UserRepository
	email         domain.EmailService
	logger        *slog.Logger
}

func NewHandler(eventRepo domain.EventRepository,
	eventUserRepo domain.EventUserRepository,
	userRepo domain.UserRepository,
	email domain.EmailService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		eventRepo:     eventRepo,
		eventUserRepo: eventUserRepo,
		userRepo:      userRepo,
		email:         email,
		logger:        logger,
	}
}

// NewMux registers the notification handlers on an asynq mux.
func NewMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(string(domain.NotificationGuestListUpdated), h.HandleGuestListUpdated)
	mux.HandleFunc(string(domain.NotificationEventDateTimeChanged), h.HandleEventDateTimeChanged)
	mux.HandleFunc(string(domain.NotificationEventLocationChanged), h.HandleEventLocationChanged)
	mux.HandleFunc(string(domain.NotificationEventCancelled), h.HandleEventCancelled)
	mux.HandleFunc(string(domain.NotificationAllTeamsEventCreated), h.HandleAllTeamsEventCreated)
	return mux
}

func decodeEnvelope(t *asynq.Task) (*bus.Envelope, error) {
	var env bus.Envelope
	if err := json.Unmarshal(t.Payload(), &env); err != nil {
		return nil, fmt.Errorf("decode %s envelope: %w", t.Type(), err)
	}
	return &env, nil
}

// recipients loads the given users, drops disabled accounts, and drops those
// who opted out via the given preference selector.
func (h *Handler) recipients(ctx context.Context, userIDs []string, wants func(*domain.NotificationPreferences) bool) ([]*domain.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	prefs, err := h.userRepo.ListPreferences(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	optedIn := make(map[string]bool, len(prefs))
	for _, p := range prefs {
		optedIn[p.UserID] = wants(p)
	}

	users := make([]*domain.User, 0, len(userIDs))
	for _, id := range userIDs {
		if !optedIn[id] {
			continue
		}
		user, err := h.userRepo.GetByID(ctx, id)
		if err != nil {
			h.logger.Warn("skipping unresolvable recipient", "user_id", id, "err", err)
			continue
		}
		if user.IsDisabled {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

func formatEventDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006 at 3:04 PM MST")
}

// HandleGuestListUpdated emails an invitation to every newly added guest.
// Removed users are not emailed. When the change was admin-made the owner is
// informed too.
func (h *Handler) HandleGuestListUpdated(ctx context.Context, t *asynq.Task) error {
	env, err := decodeEnvelope(t)
	if err != nil {
		return err
	}
	n := env.Notification
	event, err := h.eventRepo.GetByID(ctx, n.EventID)
	if err != nil {
		return fmt.Errorf("get event %s: %w", n.EventID, err)
	}

	ids := n.AddedUserIDs
	if n.IsOwnerIncluded && n.OwnerID != "" {
		ids = append(append([]string{}, ids...), n.OwnerID)
	}
	users, err := h.recipients(ctx, ids, func(p *domain.NotificationPreferences) bool {
		return p.GuestListChanges
	})
	if err != nil {
		return err
	}
	for _, user := range users {
		data := &domain.EventInviteEmailData{
			Email:      user.Email,
			FirstName:  user.FirstName,
			EventTitle: event.Title,
			EventDate:  formatEventDate(event.StartsAt),
			Address:    event.Address,
		}
		if err := h.email.SendEventInvite(ctx, data); err != nil {
			h.logger.Warn("invite email failed", "event_id", event.ID, "user_id", user.ID, "err", err)
		}
	}
	return nil
}

// HandleEventDateTimeChanged emails every current guest the new schedule.
func (h *Handler) HandleEventDateTimeChanged(ctx context.Context, t *asynq.Task) error {
	return h.notifyGuests(ctx, t, func(user *domain.User, event *domain.Event) error {
		return h.email.SendEventDateTimeChanged(ctx, &domain.EventChangeEmailData{
			Email:      user.Email,
			FirstName:  user.FirstName,
			EventTitle: event.Title,
			EventDate:  formatEventDate(event.StartsAt),
		})
	})
}

// HandleEventLocationChanged emails every current guest the new address.
func (h *Handler) HandleEventLocationChanged(ctx context.Context, t *asynq.Task) error {
	return h.notifyGuests(ctx, t, func(user *domain.User, event *domain.Event) error {
		return h.email.SendEventLocationChanged(ctx, &domain.EventInviteEmailData{
			Email:      user.Email,
			FirstName:  user.FirstName,
			EventTitle: event.Title,
			EventDate:  formatEventDate(event.StartsAt),
			Address:    event.Address,
		})
	})
}

// HandleEventCancelled emails every current guest the cancellation.
func (h *Handler) HandleEventCancelled(ctx context.Context, t *asynq.Task) error {
	return h.notifyGuests(ctx, t, func(user *domain.User, event *domain.Event) error {
		return h.email.SendEventCancelled(ctx, &domain.EventChangeEmailData{
			Email:      user.Email,
			FirstName:  user.FirstName,
			EventTitle: event.Title,
			EventDate:  formatEventDate(event.StartsAt),
		})
	})
}

// notifyGuests fans an event-update email out to the event's guest list,
// gated on the event_updates preference.
func (h *Handler) notifyGuests(ctx context.Context, t *asynq.Task, send func(*domain.User, *domain.Event) error) error {
	env, err := decodeEnvelope(t)
	if err != nil {
		return err
	}
	n := env.Notification
	event, err := h.eventRepo.GetByID(ctx, n.EventID)
	if err != nil {
		return fmt.Errorf("get event %s: %w", n.EventID, err)
	}
	guestIDs, err := h.eventUserRepo.ListUserIDsByEventID(ctx, n.EventID)
	if err != nil {
		return fmt.Errorf("list guests of %s: %w", n.EventID, err)
	}
	users, err := h.recipients(ctx, guestIDs, func(p *domain.NotificationPreferences) bool {
		return p.EventUpdates
	})
	if err != nil {
		return err
	}
	for _, user := range users {
		if err := send(user, event); err != nil {
			h.logger.Warn("event update email failed", "kind", n.Kind, "event_id", event.ID, "user_id", user.ID, "err", err)
		}
	}
	return nil
}

// HandleAllTeamsEventCreated records the fan-out. New public events reach
// users through the app's push channel, not email; push delivery lives
// outside this service.
func (h *Handler) HandleAllTeamsEventCreated(ctx context.Context, t *asynq.Task) error {
	env, err := decodeEnvelope(t)
	if err != nil {
		return err
	}
	h.logger.Info("all teams event created", "event_id", env.Notification.EventID, "message_id", env.MessageID)
	return nil
}
