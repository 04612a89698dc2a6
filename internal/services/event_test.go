package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/upfrom/backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID   map[string]*domain.Event
	nextID int
	err    error // if set, Create returns this error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.StartsAt != nil {
		e.StartsAt = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		e.EndsAt = *upd.EndsAt
	}
	if upd.Address != nil {
		e.Address = *upd.Address
	}
	if upd.LocationLat != nil {
		e.LocationLat = upd.LocationLat
	}
	if upd.LocationLng != nil {
		e.LocationLng = upd.LocationLng
	}
	if upd.OwnerID != nil {
		e.OwnerID = *upd.OwnerID
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEventRepo) SetCancelled(ctx context.Context, eventID string, cancelled bool) (*domain.Event, error) {
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.IsCancelled = cancelled
	copied := *e
	return &copied, nil
}

func (f *fakeEventRepo) SetImageURL(ctx context.Context, eventID string, imageURL *string) (*domain.Event, error) {
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.ImageURL = imageURL
	copied := *e
	return &copied, nil
}

func (f *fakeEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListByTeamID(ctx context.Context, teamID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.TeamID != nil && *e.TeamID == teamID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListIDsBetween(ctx context.Context, from, to *time.Time) ([]string, error) {
	ids := make([]string, 0)
	for id, e := range f.byID {
		if from != nil && e.EndsAt.Before(*from) {
			continue
		}
		if to != nil && e.StartsAt.After(*to) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// fakeEventUserRepo is an in-memory EventUserRepository for tests.
type fakeEventUserRepo struct {
	rows    map[string]*domain.EventUser // key: eventID+"|"+userID
	order   []string                     // insertion order of keys
	syncErr error
}

func newFakeEventUserRepo() *fakeEventUserRepo {
	return &fakeEventUserRepo{rows: make(map[string]*domain.EventUser)}
}

func euKey(eventID, userID string) string { return eventID + "|" + userID }

func (f *fakeEventUserRepo) Create(ctx context.Context, eu *domain.EventUser) error {
	key := euKey(eu.EventID, eu.UserID)
	if _, ok := f.rows[key]; ok {
		return domain.ErrAlreadyInvited
	}
	f.rows[key] = eu
	f.order = append(f.order, key)
	return nil
}

func (f *fakeEventUserRepo) Get(ctx context.Context, eventID, userID string) (*domain.EventUser, error) {
	if eu, ok := f.rows[euKey(eventID, userID)]; ok {
		return eu, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventUserRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventUser, error) {
	out := make([]*domain.EventUser, 0)
	for _, key := range f.order {
		eu, ok := f.rows[key]
		if ok && eu.EventID == eventID {
			out = append(out, eu)
		}
	}
	return out, nil
}

func (f *fakeEventUserRepo) ListUserIDsByEventID(ctx context.Context, eventID string) ([]string, error) {
	guests, _ := f.ListByEventID(ctx, eventID)
	ids := make([]string, 0, len(guests))
	for _, eu := range guests {
		ids = append(ids, eu.UserID)
	}
	return ids, nil
}

func (f *fakeEventUserRepo) UpdateAttendance(ctx context.Context, eventID, userID string, isAttending *bool) (*domain.EventUser, error) {
	eu, ok := f.rows[euKey(eventID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	eu.IsAttending = isAttending
	return eu, nil
}

func (f *fakeEventUserRepo) Delete(ctx context.Context, eventID, userID string) error {
	key := euKey(eventID, userID)
	if _, ok := f.rows[key]; !ok {
		return domain.ErrNotFound
	}
	delete(f.rows, key)
	return nil
}

func (f *fakeEventUserRepo) SyncGuests(ctx context.Context, eventID string, addUserIDs, removeUserIDs []string) error {
	if f.syncErr != nil {
		return f.syncErr
	}
	for _, id := range removeUserIDs {
		delete(f.rows, euKey(eventID, id))
	}
	for _, id := range addUserIDs {
		key := euKey(eventID, id)
		if _, ok := f.rows[key]; ok {
			return domain.ErrAlreadyInvited
		}
		f.rows[key] = &domain.EventUser{EventID: eventID, UserID: id}
		f.order = append(f.order, key)
	}
	return nil
}

func (f *fakeEventUserRepo) CountAttendance(ctx context.Context, filter domain.AttendanceFilter) ([]*domain.UserAttendance, error) {
	allowUser := func(id string) bool {
		if filter.UserIDs == nil {
			return true
		}
		for _, u := range filter.UserIDs {
			if u == id {
				return true
			}
		}
		return false
	}
	allowEvent := func(id string) bool {
		if filter.EventIDs == nil {
			return true
		}
		for _, e := range filter.EventIDs {
			if e == id {
				return true
			}
		}
		return false
	}
	byUser := make(map[string]*domain.UserAttendance)
	var order []string
	for _, key := range f.order {
		eu, ok := f.rows[key]
		if !ok || !allowUser(eu.UserID) || !allowEvent(eu.EventID) {
			continue
		}
		ua, ok := byUser[eu.UserID]
		if !ok {
			ua = &domain.UserAttendance{UserID: eu.UserID}
			byUser[eu.UserID] = ua
			order = append(order, eu.UserID)
		}
		switch {
		case eu.IsAttending == nil:
			ua.Pending++
		case *eu.IsAttending:
			ua.Accepted++
		default:
			ua.Declined++
		}
		ua.Total++
	}
	out := make([]*domain.UserAttendance, 0, len(order))
	for _, id := range order {
		out = append(out, byUser[id])
	}
	return out, nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	byID  map[string]*domain.User
	prefs map[string]*domain.NotificationPreferences
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	f := &fakeUserRepo{
		byID:  make(map[string]*domain.User),
		prefs: make(map[string]*domain.NotificationPreferences),
	}
	for _, id := range ids {
		f.byID[id] = &domain.User{ID: id, Email: id + "@example.com"}
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetCredentials(ctx context.Context, email string) (string, string, string, error) {
	return "", "", "", domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetPreferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	if p, ok := f.prefs[userID]; ok {
		return p, nil
	}
	return &domain.NotificationPreferences{UserID: userID, NewEvents: true, EventUpdates: true, GuestListChanges: true, ChatMessages: true}, nil
}

func (f *fakeUserRepo) ListPreferences(ctx context.Context, userIDs []string) ([]*domain.NotificationPreferences, error) {
	out := make([]*domain.NotificationPreferences, 0, len(userIDs))
	for _, id := range userIDs {
		p, _ := f.GetPreferences(ctx, id)
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeUserRepo) SetPreferences(ctx context.Context, p *domain.NotificationPreferences) error {
	f.prefs[p.UserID] = p
	return nil
}

// fakePublisher records published notifications.
type fakePublisher struct {
	published []domain.Notification
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, n domain.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, n)
	return nil
}

func (f *fakePublisher) kinds() []domain.NotificationKind {
	var out []domain.NotificationKind
	for _, n := range f.published {
		out = append(out, n.Kind)
	}
	return out
}

// fakeStorage records object-store interactions.
type fakeStorage struct {
	presigned []string
	deleted   []string
	deleteErr error
}

func (f *fakeStorage) PresignUpload(ctx context.Context, key string) (string, error) {
	f.presigned = append(f.presigned, key)
	return "https://upload.test/" + key, nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type eventFixture struct {
	svc       domain.EventService
	events    *fakeEventRepo
	guests    *fakeEventUserRepo
	users     *fakeUserRepo
	storage   *fakeStorage
	publisher *fakePublisher
}

func newEventFixture(userIDs ...string) *eventFixture {
	f := &eventFixture{
		events:    newFakeEventRepo(),
		guests:    newFakeEventUserRepo(),
		users:     newFakeUserRepo(userIDs...),
		storage:   &fakeStorage{},
		publisher: &fakePublisher{},
	}
	f.svc = NewEventService(f.events, f.guests, f.users, f.storage, f.publisher, testLogger(), 5*time.Second)
	f.svc.(*eventService).now = func() time.Time { return fixedNow }
	return f
}

func strPtr(s string) *string       { return &s }
func timePtr(t time.Time) *time.Time { return &t }
func boolPtr(b bool) *bool           { return &b }

var (
	fixedNow  = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	baseStart = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	baseEnd   = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

func seedEvent(f *fakeEventRepo, id, ownerID string, teamID *string) *domain.Event {
	e := &domain.Event{
		ID:       id,
		Title:    "Seeded",
		StartsAt: baseStart,
		EndsAt:   baseEnd,
		OwnerID:  ownerID,
		TeamID:   teamID,
	}
	f.byID[id] = e
	return e
}

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("owner must exist", func(t *testing.T) {
		f := newEventFixture()
		e := domain.NewEvent("Meetup", "", baseStart, baseEnd, "HQ", "ghost", nil, time.Time{}, time.Time{})
		_, err := f.svc.Create(ctx, e, false)
		require.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.Empty(t, f.events.byID)
	})

	t.Run("starts_at after ends_at is rejected", func(t *testing.T) {
		f := newEventFixture("user-1")
		e := domain.NewEvent("Meetup", "", baseEnd, baseStart, "HQ", "user-1", nil, time.Time{}, time.Time{})
		_, err := f.svc.Create(ctx, e, false)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("owner attending creates an accepted invitation", func(t *testing.T) {
		f := newEventFixture("user-1")
		teamID := "team-1"
		e := domain.NewEvent("Meetup", "", baseStart, baseEnd, "HQ", "user-1", &teamID, time.Time{}, time.Time{})
		created, err := f.svc.Create(ctx, e, true)
		require.NoError(t, err)
		require.NotNil(t, created.TeamID)
		assert.Equal(t, "team-1", *created.TeamID)

		eu, err := f.guests.Get(ctx, created.ID, "user-1")
		require.NoError(t, err)
		require.NotNil(t, eu.IsAttending)
		assert.True(t, *eu.IsAttending)
		// Team-scoped creation publishes nothing.
		assert.Empty(t, f.publisher.published)
	})

	t.Run("all teams event publishes creation notice", func(t *testing.T) {
		f := newEventFixture("user-1")
		e := domain.NewEvent("Open house", "", baseStart, baseEnd, "HQ", "user-1", nil, time.Time{}, time.Time{})
		_, err := f.svc.Create(ctx, e, false)
		require.NoError(t, err)
		require.Len(t, f.publisher.published, 1)
		assert.Equal(t, domain.NotificationAllTeamsEventCreated, f.publisher.published[0].Kind)
	})

	t.Run("publish failure does not fail creation", func(t *testing.T) {
		f := newEventFixture("user-1")
		f.publisher.err = errors.New("bus down")
		e := domain.NewEvent("Open house", "", baseStart, baseEnd, "HQ", "user-1", nil, time.Time{}, time.Time{})
		created, err := f.svc.Create(ctx, e, false)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
	})
}

func TestEventService_Update_Bounds(t *testing.T) {
	ctx := context.Background()

	t.Run("new start after existing end fails", func(t *testing.T) {
		f := newEventFixture("user-1")
		seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))
		_, err := f.svc.Update(ctx, "ev-1", domain.EventUpdate{StartsAt: timePtr(baseEnd.Add(time.Hour))})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("new start before existing end succeeds and notifies", func(t *testing.T) {
		f := newEventFixture("user-1")
		seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))
		newStart := baseStart.Add(30 * time.Minute)
		updated, err := f.svc.Update(ctx, "ev-1", domain.EventUpdate{StartsAt: timePtr(newStart)})
		require.NoError(t, err)
		assert.True(t, updated.StartsAt.Equal(newStart))
		require.Len(t, f.publisher.published, 1)
		n := f.publisher.published[0]
		assert.Equal(t, domain.NotificationEventDateTimeChanged, n.Kind)
		require.NotNil(t, n.OldStartsAt)
		assert.True(t, n.OldStartsAt.Equal(baseStart))
	})

	t.Run("new end before existing start fails", func(t *testing.T) {
		f := newEventFixture("user-1")
		seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))
		_, err := f.svc.Update(ctx, "ev-1", domain.EventUpdate{EndsAt: timePtr(baseStart.Add(-time.Hour))})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("both new bounds are validated against each other", func(t *testing.T) {
		f := newEventFixture("user-1")
		seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))
		_, err := f.svc.Update(ctx, "ev-1", domain.EventUpdate{
			StartsAt: timePtr(baseEnd.Add(2 * time.Hour)),
			EndsAt:   timePtr(baseEnd.Add(time.Hour)),
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown new owner fails", func(t *testing.T) {
		f := newEventFixture("user-1")
		seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))
		_, err := f.svc.Update(ctx, "ev-1", domain.EventUpdate{OwnerID: strPtr("ghost")})
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("notification failure does not fail the update", func(t *testing.T) {
		f := newEventFixture("user-1")
		seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))
		f.publisher.err = errors.New("bus down")
		_, err := f.svc.Update(ctx, "ev-1", domain.EventUpdate{StartsAt: timePtr(baseStart.Add(time.Minute))})
		require.NoError(t, err)
	})
}

func TestEventService_Update_LocationNotice(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture("user-1")
	seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))

	_, err := f.svc.Update(ctx, "ev-1", domain.EventUpdate{Address: strPtr("New venue")})
	require.NoError(t, err)
	require.Equal(t, []domain.NotificationKind{domain.NotificationEventLocationChanged}, f.publisher.kinds())

	// Updating the title alone publishes nothing.
	f.publisher.published = nil
	_, err = f.svc.Update(ctx, "ev-1", domain.EventUpdate{Title: strPtr("Renamed")})
	require.NoError(t, err)
	assert.Empty(t, f.publisher.published)
}

func TestEventService_CancelRestore(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture("user-1")
	seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))

	cancelled, err := f.svc.Cancel(ctx, "ev-1")
	require.NoError(t, err)
	assert.True(t, cancelled.IsCancelled)
	require.Equal(t, []domain.NotificationKind{domain.NotificationEventCancelled}, f.publisher.kinds())

	_, err = f.svc.Cancel(ctx, "ev-1")
	require.ErrorIs(t, err, domain.ErrEventCancelled)

	restored, err := f.svc.Restore(ctx, "ev-1")
	require.NoError(t, err)
	assert.False(t, restored.IsCancelled)
	// Restore is silent: still only the cancellation notice.
	require.Len(t, f.publisher.published, 1)

	_, err = f.svc.Restore(ctx, "ev-1")
	require.ErrorIs(t, err, domain.ErrEventNotCancelled)
}

func TestEventService_ImageLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("upload url then complete records canonical url", func(t *testing.T) {
		f := newEventFixture("user-1")
		seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))

		uploadURL, err := f.svc.GenerateImageUploadURL(ctx, "ev-1")
		require.NoError(t, err)
		assert.Equal(t, "https://upload.test/events/ev-1/image", uploadURL)

		updated, err := f.svc.CompleteImageUpload(ctx, "ev-1")
		require.NoError(t, err)
		require.NotNil(t, updated.ImageURL)
		assert.Equal(t, "https://cdn.test/events/ev-1/image", *updated.ImageURL)
	})

	t.Run("remove requires an existing image", func(t *testing.T) {
		f := newEventFixture("user-1")
		seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))
		_, err := f.svc.RemoveImage(ctx, "ev-1")
		require.ErrorIs(t, err, domain.ErrNoEventImage)
	})

	t.Run("storage failure still clears the image field", func(t *testing.T) {
		f := newEventFixture("user-1")
		e := seedEvent(f.events, "ev-1", "user-1", strPtr("team-1"))
		e.ImageURL = strPtr("https://cdn.test/events/ev-1/image")
		f.storage.deleteErr = errors.New("s3 down")

		updated, err := f.svc.RemoveImage(ctx, "ev-1")
		require.NoError(t, err)
		assert.Nil(t, updated.ImageURL)
		assert.Equal(t, []string{"events/ev-1/image"}, f.storage.deleted)
	})
}
