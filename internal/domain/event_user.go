package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for invitation operations.
var (
	// ErrAlreadyInvited is returned when inserting a duplicate (event, user) invitation.
	ErrAlreadyInvited = errors.New("user already invited")
	// ErrEventIsPublic is returned when setting an explicit guest list on an
	// "all teams" event, which has no invite list.
	ErrEventIsPublic = errors.New("event is not team-scoped")
	// ErrEventNotPublic is returned when joining or leaving a team-scoped
	// event through the public join path.
	ErrEventNotPublic = errors.New("event is team-scoped")
)

// EventUser is an invitation edge between an event and a user. IsAttending is
// a tri-state: true accepted, false declined, nil pending.
// swagger:model EventUser
type EventUser struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	IsAttending *bool     `json:"is_attending"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEventUser returns a new pending EventUser for the given pair.
func NewEventUser(eventID, userID string, isAttending *bool, createdAt, updatedAt time.Time) *EventUser {
	return &EventUser{
		EventID:     eventID,
		UserID:      userID,
		IsAttending: isAttending,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// DiffGuestLists computes the reconciliation between the current invitee set
// and the desired one: toAdd = desired \ current, toRemove = current \ desired.
// Users present in both sets are untouched so their attendance answer survives
// re-invitations. Duplicates within either input are collapsed; relative order
// of the first occurrences is preserved.
func DiffGuestLists(current, desired []string) (toAdd, toRemove []string) {
	currentSet := make(map[string]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	desiredSet := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		if _, dup := desiredSet[id]; dup {
			continue
		}
		desiredSet[id] = struct{}{}
		if _, ok := currentSet[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	seen := make(map[string]struct{}, len(current))
	for _, id := range current {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := desiredSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}

// attendanceRank orders accepted before declined before pending.
func attendanceRank(isAttending *bool) int {
	switch {
	case isAttending == nil:
		return 2
	case *isAttending:
		return 0
	default:
		return 1
	}
}

// SortGuestsByAttendance sorts invitations in place: accepted first, then
// declined, then pending. Entries with equal status keep no particular order
// beyond the grouping.
func SortGuestsByAttendance(guests []*EventUser) {
	// Insertion sort keeps this dependency-free; guest lists are small.
	for i := 1; i < len(guests); i++ {
		for j := i; j > 0 && attendanceRank(guests[j].IsAttending) < attendanceRank(guests[j-1].IsAttending); j-- {
			guests[j], guests[j-1] = guests[j-1], guests[j]
		}
	}
}

// UserAttendance is a per-user rollup of invitation responses across a set of events.
// swagger:model UserAttendance
type UserAttendance struct {
	UserID   string `json:"user_id"`
	Accepted int    `json:"accepted"`
	Declined int    `json:"declined"`
	Pending  int    `json:"pending"`
	Total    int    `json:"total"`
}

// AttendanceFilter narrows an attendance rollup. Nil UserIDs or EventIDs means
// no filter on that axis; an empty non-nil slice means the filter matched
// nothing and the rollup is empty by definition.
type AttendanceFilter struct {
	UserIDs  []string
	EventIDs []string
}

// TimeRange bounds an attendance query to events overlapping the range.
// Nil bounds are unbounded on that side.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// EventUserRepository defines storage operations for event invitations.
type EventUserRepository interface {
	// Create inserts a new invitation. Returns ErrAlreadyInvited when the
	// (event, user) pair already exists.
	Create(ctx context.Context, eu *EventUser) error
	Get(ctx context.Context, eventID, userID string) (*EventUser, error)
	ListByEventID(ctx context.Context, eventID string) ([]*EventUser, error)
	ListUserIDsByEventID(ctx context.Context, eventID string) ([]string, error)
	// UpdateAttendance overwrites the tri-state for an existing pair.
	// Returns ErrNotFound when the pair does not exist.
	UpdateAttendance(ctx context.Context, eventID, userID string, isAttending *bool) (*EventUser, error)
	Delete(ctx context.Context, eventID, userID string) error
	// SyncGuests removes and inserts invitations as one transaction so
	// callers observe either the old or the new guest list.
	SyncGuests(ctx context.Context, eventID string, addUserIDs, removeUserIDs []string) error
	CountAttendance(ctx context.Context, filter AttendanceFilter) ([]*UserAttendance, error)
}

// EventUserService defines the guest-list and attendance business logic.
type EventUserService interface {
	// SetGuestList reconciles the invitee set of a team-scoped event.
	// Only the event owner may call it; overlap keeps its attendance answer.
	SetGuestList(ctx context.Context, eventID string, userIDs []string, callerID string) (*Event, error)
	// AdminSetGuestList is the admin variant: same rules minus the ownership check.
	AdminSetGuestList(ctx context.Context, eventID string, userIDs []string) (*Event, error)
	UpdateInvitationStatus(ctx context.Context, eventID, userID string, isAttending *bool) (*Event, error)
	JoinPublicEvent(ctx context.Context, eventID, userID string) (*Event, error)
	LeavePublicEvent(ctx context.Context, eventID, userID string) (*Event, error)
	ListEventGuests(ctx context.Context, eventID string) ([]*EventUser, error)
	GetAttendance(ctx context.Context, userIDs []string, rng *TimeRange) ([]*UserAttendance, error)
	GetTeamAttendance(ctx context.Context, teamID string, rng *TimeRange) ([]*UserAttendance, error)
	GetOrganizationAttendance(ctx context.Context, organizationID string, rng *TimeRange) ([]*UserAttendance, error)
}
