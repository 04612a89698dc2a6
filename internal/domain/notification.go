package domain

import (
	"context"
	"time"
)

// NotificationKind identifies a domain event published to the notification bus.
type NotificationKind string

const (
	NotificationAllTeamsEventCreated NotificationKind = "event.created.all_teams"
	NotificationEventDateTimeChanged NotificationKind = "event.updated.datetime"
	NotificationEventLocationChanged NotificationKind = "event.updated.location"
	NotificationEventCancelled       NotificationKind = "event.cancelled"
	NotificationGuestListUpdated     NotificationKind = "event.guest_list.updated"
)

// Notification is the payload published to the bus. It carries enough
// identifiers for a downstream consumer to resolve recipients and message
// content on its own; the domain layer never resolves recipients itself.
type Notification struct {
	Kind            NotificationKind `json:"kind"`
	EventID         string           `json:"event_id"`
	OwnerID         string           `json:"owner_id,omitempty"`
	TeamID          *string          `json:"team_id,omitempty"`
	AddedUserIDs    []string         `json:"added_user_ids,omitempty"`
	RemovedUserIDs  []string         `json:"removed_user_ids,omitempty"`
	IsOwnerIncluded bool             `json:"is_owner_included,omitempty"`
	OldStartsAt     *time.Time       `json:"old_starts_at,omitempty"`
	NewStartsAt     *time.Time       `json:"new_starts_at,omitempty"`
}

// NotificationPublisher is a fire-and-forget bus. Services call Publish after
// the triggering state change has committed and log failures without ever
// propagating them; a lost notification never rolls back domain state.
type NotificationPublisher interface {
	Publish(ctx context.Context, n Notification) error
}
