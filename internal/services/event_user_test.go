package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/upfrom/backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTeamRepo struct {
	byID map[string]*domain.Team
}

func newFakeTeamRepo(ids ...string) *fakeTeamRepo {
	f := &fakeTeamRepo{byID: make(map[string]*domain.Team)}
	for _, id := range ids {
		f.byID[id] = &domain.Team{ID: id, Name: id}
	}
	return f
}

func (f *fakeTeamRepo) Create(ctx context.Context, team *domain.Team) error {
	f.byID[team.ID] = team
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTeamRepo) ListByOrganizationID(ctx context.Context, organizationID string) ([]*domain.Team, error) {
	return nil, nil
}

func (f *fakeTeamRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Team, error) {
	return nil, nil
}

type fakeTeamUserRepo struct {
	byTeam map[string][]string
	byOrg  map[string][]string
}

func newFakeTeamUserRepo() *fakeTeamUserRepo {
	return &fakeTeamUserRepo{
		byTeam: make(map[string][]string),
		byOrg:  make(map[string][]string),
	}
}

func (f *fakeTeamUserRepo) Add(ctx context.Context, teamID, userID, role string) error {
	f.byTeam[teamID] = append(f.byTeam[teamID], userID)
	return nil
}

func (f *fakeTeamUserRepo) Remove(ctx context.Context, teamID, userID string) error {
	return nil
}

func (f *fakeTeamUserRepo) ListUserIDsByTeamID(ctx context.Context, teamID string) ([]string, error) {
	ids := make([]string, 0)
	return append(ids, f.byTeam[teamID]...), nil
}

func (f *fakeTeamUserRepo) ListUserIDsByOrganizationID(ctx context.Context, organizationID string) ([]string, error) {
	ids := make([]string, 0)
	return append(ids, f.byOrg[organizationID]...), nil
}

type fakeOrgRepo struct {
	byID map[string]*domain.Organization
}

func newFakeOrgRepo(ids ...string) *fakeOrgRepo {
	f := &fakeOrgRepo{byID: make(map[string]*domain.Organization)}
	for _, id := range ids {
		f.byID[id] = &domain.Organization{ID: id, Name: id}
	}
	return f
}

func (f *fakeOrgRepo) Create(ctx context.Context, org *domain.Organization) error {
	f.byID[org.ID] = org
	return nil
}

func (f *fakeOrgRepo) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	if o, ok := f.byID[id]; ok {
		return o, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeOrgRepo) List(ctx context.Context) ([]*domain.Organization, error) {
	return nil, nil
}

type fakeChat struct {
	synced map[string][]string
	err    error
}

func (f *fakeChat) SyncEventChannel(ctx context.Context, eventID string, memberIDs []string) error {
	if f.err != nil {
		return f.err
	}
	if f.synced == nil {
		f.synced = make(map[string][]string)
	}
	f.synced[eventID] = memberIDs
	return nil
}

type guestFixture struct {
	svc       domain.EventUserService
	events    *fakeEventRepo
	guests    *fakeEventUserRepo
	teams     *fakeTeamRepo
	teamUsers *fakeTeamUserRepo
	orgs      *fakeOrgRepo
	chat      *fakeChat
	publisher *fakePublisher
}

func newGuestFixture() *guestFixture {
	f := &guestFixture{
		events:    newFakeEventRepo(),
		guests:    newFakeEventUserRepo(),
		teams:     newFakeTeamRepo("team-1"),
		teamUsers: newFakeTeamUserRepo(),
		orgs:      newFakeOrgRepo("org-1"),
		chat:      &fakeChat{},
		publisher: &fakePublisher{},
	}
	f.svc = NewEventUserService(f.events, f.guests, f.teams, f.teamUsers, f.orgs, f.chat, f.publisher, testLogger(), 5*time.Second)
	f.svc.(*eventUserService).now = func() time.Time { return fixedNow }
	return f
}

func (f *guestFixture) invite(eventID, userID string, isAttending *bool) {
	f.guests.rows[euKey(eventID, userID)] = &domain.EventUser{EventID: eventID, UserID: userID, IsAttending: isAttending}
	f.guests.order = append(f.guests.order, euKey(eventID, userID))
}

func TestEventUserService_SetGuestList_Preconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown event", func(t *testing.T) {
		f := newGuestFixture()
		_, err := f.svc.SetGuestList(ctx, "nope", []string{"user-1"}, "owner-1")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("started event locks the guest list", func(t *testing.T) {
		f := newGuestFixture()
		e := seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		e.StartsAt = fixedNow.Add(-time.Hour)
		_, err := f.svc.SetGuestList(ctx, "ev-1", []string{"user-1"}, "owner-1")
		require.ErrorIs(t, err, domain.ErrEventStarted)
	})

	t.Run("an event starting exactly now is started", func(t *testing.T) {
		f := newGuestFixture()
		e := seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		e.StartsAt = fixedNow
		_, err := f.svc.SetGuestList(ctx, "ev-1", []string{"user-1"}, "owner-1")
		require.ErrorIs(t, err, domain.ErrEventStarted)
	})

	t.Run("non owner is rejected", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		_, err := f.svc.SetGuestList(ctx, "ev-1", []string{"user-1"}, "somebody-else")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("cancelled event is rejected", func(t *testing.T) {
		f := newGuestFixture()
		e := seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		e.IsCancelled = true
		_, err := f.svc.SetGuestList(ctx, "ev-1", []string{"user-1"}, "owner-1")
		require.ErrorIs(t, err, domain.ErrEventCancelled)
	})

	t.Run("all teams event has no curated guest list", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", nil)
		_, err := f.svc.SetGuestList(ctx, "ev-1", []string{"user-1"}, "owner-1")
		require.ErrorIs(t, err, domain.ErrEventIsPublic)
	})
}

func TestEventUserService_SetGuestList_Reconciles(t *testing.T) {
	ctx := context.Background()
	f := newGuestFixture()
	seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))

	// Current list: A accepted, B declined, C pending.
	f.invite("ev-1", "user-a", boolPtr(true))
	f.invite("ev-1", "user-b", boolPtr(false))
	f.invite("ev-1", "user-c", nil)

	// Desired list drops A, keeps B and C, adds D.
	_, err := f.svc.SetGuestList(ctx, "ev-1", []string{"user-b", "user-c", "user-d"}, "owner-1")
	require.NoError(t, err)

	_, err = f.guests.Get(ctx, "ev-1", "user-a")
	require.ErrorIs(t, err, domain.ErrNotFound)

	// Responses of the kept guests survive untouched.
	b, err := f.guests.Get(ctx, "ev-1", "user-b")
	require.NoError(t, err)
	require.NotNil(t, b.IsAttending)
	assert.False(t, *b.IsAttending)

	c, err := f.guests.Get(ctx, "ev-1", "user-c")
	require.NoError(t, err)
	assert.Nil(t, c.IsAttending)

	d, err := f.guests.Get(ctx, "ev-1", "user-d")
	require.NoError(t, err)
	assert.Nil(t, d.IsAttending)

	require.Len(t, f.publisher.published, 1)
	n := f.publisher.published[0]
	assert.Equal(t, domain.NotificationGuestListUpdated, n.Kind)
	assert.Equal(t, []string{"user-d"}, n.AddedUserIDs)
	assert.Equal(t, []string{"user-a"}, n.RemovedUserIDs)
	assert.False(t, n.IsOwnerIncluded)

	// The chat channel mirrors the committed list.
	assert.ElementsMatch(t, []string{"user-b", "user-c", "user-d"}, f.chat.synced["ev-1"])
}

func TestEventUserService_SetGuestList_NoChange(t *testing.T) {
	ctx := context.Background()
	f := newGuestFixture()
	seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
	f.invite("ev-1", "user-a", boolPtr(true))
	f.invite("ev-1", "user-b", nil)

	// Same membership in a different order is a no-op.
	_, err := f.svc.SetGuestList(ctx, "ev-1", []string{"user-b", "user-a"}, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, f.publisher.published)
	assert.Empty(t, f.chat.synced)
}

func TestEventUserService_SetGuestList_ClearsAll(t *testing.T) {
	ctx := context.Background()
	f := newGuestFixture()
	seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
	f.invite("ev-1", "user-a", boolPtr(true))
	f.invite("ev-1", "user-b", boolPtr(false))

	_, err := f.svc.SetGuestList(ctx, "ev-1", []string{}, "owner-1")
	require.NoError(t, err)

	remaining, err := f.guests.ListUserIDsByEventID(ctx, "ev-1")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	require.Len(t, f.publisher.published, 1)
	assert.Empty(t, f.publisher.published[0].AddedUserIDs)
	assert.ElementsMatch(t, []string{"user-a", "user-b"}, f.publisher.published[0].RemovedUserIDs)
}

func TestEventUserService_AdminSetGuestList(t *testing.T) {
	ctx := context.Background()
	f := newGuestFixture()
	seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))

	// No ownership check on the admin path.
	_, err := f.svc.AdminSetGuestList(ctx, "ev-1", []string{"user-a"})
	require.NoError(t, err)

	require.Len(t, f.publisher.published, 1)
	assert.True(t, f.publisher.published[0].IsOwnerIncluded)
}

func TestEventUserService_SetGuestList_SideEffectFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("sync failure fails the operation", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		f.guests.syncErr = errors.New("db down")
		_, err := f.svc.SetGuestList(ctx, "ev-1", []string{"user-a"}, "owner-1")
		require.Error(t, err)
		assert.Empty(t, f.publisher.published)
	})

	t.Run("publish and chat failures do not", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		f.publisher.err = errors.New("bus down")
		f.chat.err = errors.New("chat down")
		_, err := f.svc.SetGuestList(ctx, "ev-1", []string{"user-a"}, "owner-1")
		require.NoError(t, err)

		_, err = f.guests.Get(ctx, "ev-1", "user-a")
		require.NoError(t, err)
	})
}

func TestEventUserService_UpdateInvitationStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites a previous response", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		f.invite("ev-1", "user-a", boolPtr(true))

		_, err := f.svc.UpdateInvitationStatus(ctx, "ev-1", "user-a", boolPtr(false))
		require.NoError(t, err)
		eu, err := f.guests.Get(ctx, "ev-1", "user-a")
		require.NoError(t, err)
		require.NotNil(t, eu.IsAttending)
		assert.False(t, *eu.IsAttending)

		// Back to pending.
		_, err = f.svc.UpdateInvitationStatus(ctx, "ev-1", "user-a", nil)
		require.NoError(t, err)
		eu, err = f.guests.Get(ctx, "ev-1", "user-a")
		require.NoError(t, err)
		assert.Nil(t, eu.IsAttending)
	})

	t.Run("uninvited user", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		_, err := f.svc.UpdateInvitationStatus(ctx, "ev-1", "stranger", boolPtr(true))
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("started event", func(t *testing.T) {
		f := newGuestFixture()
		e := seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		e.StartsAt = fixedNow.Add(-time.Minute)
		f.invite("ev-1", "user-a", nil)
		_, err := f.svc.UpdateInvitationStatus(ctx, "ev-1", "user-a", boolPtr(true))
		require.ErrorIs(t, err, domain.ErrEventStarted)
	})

	t.Run("cancelled event", func(t *testing.T) {
		f := newGuestFixture()
		e := seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		e.IsCancelled = true
		f.invite("ev-1", "user-a", nil)
		_, err := f.svc.UpdateInvitationStatus(ctx, "ev-1", "user-a", boolPtr(true))
		require.ErrorIs(t, err, domain.ErrEventCancelled)
	})
}

func TestEventUserService_JoinLeavePublicEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("join records an accepted row", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", nil)
		_, err := f.svc.JoinPublicEvent(ctx, "ev-1", "user-a")
		require.NoError(t, err)
		eu, err := f.guests.Get(ctx, "ev-1", "user-a")
		require.NoError(t, err)
		require.NotNil(t, eu.IsAttending)
		assert.True(t, *eu.IsAttending)
	})

	t.Run("joining twice", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", nil)
		_, err := f.svc.JoinPublicEvent(ctx, "ev-1", "user-a")
		require.NoError(t, err)
		_, err = f.svc.JoinPublicEvent(ctx, "ev-1", "user-a")
		require.ErrorIs(t, err, domain.ErrAlreadyInvited)
	})

	t.Run("team scoped event cannot be joined or left", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		_, err := f.svc.JoinPublicEvent(ctx, "ev-1", "user-a")
		require.ErrorIs(t, err, domain.ErrEventNotPublic)
		_, err = f.svc.LeavePublicEvent(ctx, "ev-1", "user-a")
		require.ErrorIs(t, err, domain.ErrEventNotPublic)
	})

	t.Run("leave deletes the row", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", nil)
		f.invite("ev-1", "user-a", boolPtr(true))
		_, err := f.svc.LeavePublicEvent(ctx, "ev-1", "user-a")
		require.NoError(t, err)
		_, err = f.guests.Get(ctx, "ev-1", "user-a")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("leaving without joining", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", nil)
		_, err := f.svc.LeavePublicEvent(ctx, "ev-1", "user-a")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("started public event is closed", func(t *testing.T) {
		f := newGuestFixture()
		e := seedEvent(f.events, "ev-1", "owner-1", nil)
		e.StartsAt = fixedNow.Add(-time.Minute)
		_, err := f.svc.JoinPublicEvent(ctx, "ev-1", "user-a")
		require.ErrorIs(t, err, domain.ErrEventStarted)
	})
}

func TestEventUserService_ListEventGuests_Sorted(t *testing.T) {
	ctx := context.Background()
	f := newGuestFixture()
	seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
	f.invite("ev-1", "user-pending", nil)
	f.invite("ev-1", "user-declined", boolPtr(false))
	f.invite("ev-1", "user-accepted", boolPtr(true))

	guests, err := f.svc.ListEventGuests(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, guests, 3)
	assert.Equal(t, "user-accepted", guests[0].UserID)
	assert.Equal(t, "user-declined", guests[1].UserID)
	assert.Equal(t, "user-pending", guests[2].UserID)
}

func TestEventUserService_GetAttendance(t *testing.T) {
	ctx := context.Background()

	seed := func() *guestFixture {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		late := seedEvent(f.events, "ev-2", "owner-1", strPtr("team-1"))
		late.StartsAt = baseStart.AddDate(0, 1, 0)
		late.EndsAt = baseEnd.AddDate(0, 1, 0)
		f.invite("ev-1", "user-a", boolPtr(true))
		f.invite("ev-1", "user-b", boolPtr(false))
		f.invite("ev-2", "user-a", nil)
		return f
	}

	t.Run("nil filter counts everything", func(t *testing.T) {
		f := seed()
		out, err := f.svc.GetAttendance(ctx, nil, nil)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, &domain.UserAttendance{UserID: "user-a", Accepted: 1, Pending: 1, Total: 2}, out[0])
		assert.Equal(t, &domain.UserAttendance{UserID: "user-b", Declined: 1, Total: 1}, out[1])
	})

	t.Run("explicit empty filter matches nobody", func(t *testing.T) {
		f := seed()
		out, err := f.svc.GetAttendance(ctx, []string{}, nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("time range narrows to overlapping events", func(t *testing.T) {
		f := seed()
		rng := &domain.TimeRange{From: timePtr(baseStart.Add(-time.Hour)), To: timePtr(baseEnd.Add(time.Hour))}
		out, err := f.svc.GetAttendance(ctx, nil, rng)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, &domain.UserAttendance{UserID: "user-a", Accepted: 1, Total: 1}, out[0])
	})

	t.Run("range matching no events is empty", func(t *testing.T) {
		f := seed()
		rng := &domain.TimeRange{From: timePtr(baseStart.AddDate(1, 0, 0))}
		out, err := f.svc.GetAttendance(ctx, nil, rng)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestEventUserService_ScopedAttendance(t *testing.T) {
	ctx := context.Background()

	t.Run("team rollup covers members only", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		f.invite("ev-1", "user-a", boolPtr(true))
		f.invite("ev-1", "outsider", boolPtr(true))
		f.teamUsers.byTeam["team-1"] = []string{"user-a"}

		out, err := f.svc.GetTeamAttendance(ctx, "team-1", nil)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "user-a", out[0].UserID)
	})

	t.Run("team with no members is empty", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		f.invite("ev-1", "user-a", boolPtr(true))

		out, err := f.svc.GetTeamAttendance(ctx, "team-1", nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("unknown team", func(t *testing.T) {
		f := newGuestFixture()
		_, err := f.svc.GetTeamAttendance(ctx, "nope", nil)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("organization rollup", func(t *testing.T) {
		f := newGuestFixture()
		seedEvent(f.events, "ev-1", "owner-1", strPtr("team-1"))
		f.invite("ev-1", "user-a", nil)
		f.teamUsers.byOrg["org-1"] = []string{"user-a"}

		out, err := f.svc.GetOrganizationAttendance(ctx, "org-1", nil)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, &domain.UserAttendance{UserID: "user-a", Pending: 1, Total: 1}, out[0])
	})

	t.Run("unknown organization", func(t *testing.T) {
		f := newGuestFixture()
		_, err := f.svc.GetOrganizationAttendance(ctx, "nope", nil)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
