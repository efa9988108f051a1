// AngelaMos | 2026
// store_test.go

package userdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/venuedesk/internal/api"
	"github.com/carterperez-dev/venuedesk/internal/apitest"
	"github.com/carterperez-dev/venuedesk/internal/config"
	"github.com/carterperez-dev/venuedesk/internal/core"
	"github.com/carterperez-dev/venuedesk/internal/permission"
	"github.com/carterperez-dev/venuedesk/internal/session"
	"github.com/carterperez-dev/venuedesk/internal/storage"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) UserData(ctx context.Context, token string) (*api.UserData, error) {
	args := m.Called(ctx, token)
	if d := args.Get(0); d != nil {
		return d.(*api.UserData), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBackend) VenueData(ctx context.Context, token, venueID string) (*api.UserData, error) {
	args := m.Called(ctx, token, venueID)
	if d := args.Get(0); d != nil {
		return d.(*api.UserData), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBackend) SetVenueStatus(ctx context.Context, token, venueID string, open bool) (*api.Venue, error) {
	args := m.Called(ctx, token, venueID, open)
	if v := args.Get(0); v != nil {
		return v.(*api.Venue), args.Error(1)
	}
	return nil, args.Error(1)
}

type fakeSession struct {
	token   string
	subject *permission.Subject
}

func (f *fakeSession) IsAuthenticated() bool { return f.token != "" }
func (f *fakeSession) Token() string { return f.token }
func (f *fakeSession) Subject() *permission.Subject {
	if f.subject == nil {
		return nil
	}
	c := *f.subject
	return &c
}

func signedIn(role permission.Role) *fakeSession {
	return &fakeSession{
		token: "tok",
		subject: &permission.Subject{
			ID: "u-1", Role: role, WorkspaceID: "ws-1", VenueID: "v-1",
		},
	}
}

func harbor() *api.UserData {
	return &api.UserData{
		User:         api.User{ID: "u-1", Email: "me@venue.test", Role: "admin", WorkspaceID: "ws-1", VenueID: "v-1"},
		Venue:        &api.Venue{ID: "v-1", Name: "Harbor", IsActive: true},
		Workspace:    &api.Workspace{ID: "ws-1", Name: "Group"},
		Statistics:   &api.Statistics{OrdersToday: 3},
		MenuItems:    []api.MenuItem{{ID: "m-1", Name: "Tea"}},
		Tables:       []api.Table{{ID: "t-1", Number: 1}},
		RecentOrders: []api.Order{{ID: "o-1"}},
		Permissions:  []string{"can_manage_menu"},
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("unauthenticated clears without fetching", func(t *testing.T) {
		be := new(mockBackend)
		sess := signedIn(permission.RoleAdmin)
		be.On("UserData", ctx, "tok").Return(harbor(), nil).Once()
		s := NewStore(be, sess, nil)

		s.Load(ctx)
		require.True(t, s.HasData())

		sess.token = ""
		s.Load(ctx)
		assert.False(t, s.HasData())
		assert.NoError(t, s.Err())
		be.AssertNumberOfCalls(t, "UserData", 1)
	})

	t.Run("success exposes projections", func(t *testing.T) {
		be := new(mockBackend)
		be.On("UserData", ctx, "tok").Return(harbor(), nil)
		s := NewStore(be, signedIn(permission.RoleAdmin), nil)

		changes := 0
		s.OnChange(func() { changes++ })
		s.Load(ctx)

		assert.Equal(t, 1, changes)
		assert.Equal(t, "Harbor", s.Venue().Name)
		assert.Equal(t, "Group", s.Workspace().Name)
		assert.Equal(t, 3, s.Statistics().OrdersToday)
		assert.Len(t, s.MenuItems(), 1)
		assert.Len(t, s.Tables(), 1)
		assert.Len(t, s.RecentOrders(), 1)
		assert.Empty(t, s.Users())
		assert.True(t, s.IsAdmin())
		assert.False(t, s.IsSuperAdmin())
		assert.True(t, s.HasPermission(permission.CanManageMenuBackend))
		assert.False(t, s.HasPermission(permission.CanManageTablesBackend))
	})

	t.Run("failure nulls data and keeps the classified error", func(t *testing.T) {
		be := new(mockBackend)
		be.On("UserData", ctx, "tok").Return(harbor(), nil).Once()
		be.On("UserData", ctx, "tok").Return(nil, &api.Error{Status: 502}).Once()
		s := NewStore(be, signedIn(permission.RoleAdmin), nil)

		s.Load(ctx)
		require.True(t, s.HasData())

		s.Refresh(ctx)
		assert.False(t, s.HasData())
		assert.ErrorIs(t, s.Err(), core.ErrDataLoad)
		assert.NotErrorIs(t, s.Err(), core.ErrVenueNotAssigned)
		assert.Equal(t, "Failed to load account data. Please try again later.", s.StatusMessage())
	})

	t.Run("late result after clear is dropped", func(t *testing.T) {
		be := new(mockBackend)
		var s *Store
		be.On("UserData", ctx, "tok").Run(func(mock.Arguments) { s.Clear() }).Return(harbor(), nil)
		s = NewStore(be, signedIn(permission.RoleAdmin), nil)

		s.Load(ctx)
		assert.False(t, s.HasData())
	})
}

func TestGettersWithoutData(t *testing.T) {
	s := NewStore(new(mockBackend), &fakeSession{}, nil)

	assert.Nil(t, s.User())
	assert.Nil(t, s.Venue())
	assert.Nil(t, s.Workspace())
	assert.Nil(t, s.Statistics())
	assert.NotNil(t, s.MenuItems())
	assert.Empty(t, s.MenuItems())
	assert.Empty(t, s.Tables())
	assert.Empty(t, s.RecentOrders())
	assert.Empty(t, s.Users())
	assert.Nil(t, s.Subject())
	assert.False(t, s.IsAdmin())
	assert.False(t, s.HasPermission(permission.MenuView))
	assert.Equal(t, "", s.StatusMessage())
}

func TestSwitchVenue(t *testing.T) {
	ctx := context.Background()

	t.Run("admin is refused before any request", func(t *testing.T) {
		be := new(mockBackend)
		s := NewStore(be, signedIn(permission.RoleAdmin), nil)

		err := s.SwitchVenue(ctx, "v-2")
		assert.ErrorIs(t, err, core.ErrPermissionDenied)
		be.AssertNotCalled(t, "VenueData", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("signed out is refused", func(t *testing.T) {
		be := new(mockBackend)
		s := NewStore(be, &fakeSession{}, nil)
		assert.ErrorIs(t, s.SwitchVenue(ctx, "v-2"), core.ErrPermissionDenied)
	})

	t.Run("superadmin keeps identity and takes venue-scoped data", func(t *testing.T) {
		be := new(mockBackend)
		sess := signedIn(permission.RoleSuperAdmin)
		own := harbor()
		own.User.Role = "superadmin"
		be.On("UserData", ctx, "tok").Return(own, nil)
		be.On("VenueData", ctx, "tok", "v-2").Return(&api.UserData{
			User:        api.User{ID: "u-other", Email: "other@venue.test", Role: "admin", WorkspaceID: "ws-9", VenueID: "v-2"},
			Venue:       &api.Venue{ID: "v-2", Name: "Garden"},
			Workspace:   &api.Workspace{ID: "ws-9", Name: "Other"},
			Statistics:  &api.Statistics{OrdersToday: 9},
			MenuItems:   []api.MenuItem{{ID: "m-9"}, {ID: "m-10"}},
			Users:       []api.User{{ID: "u-other"}},
			Permissions: []string{"full_access"},
		}, nil)

		s := NewStore(be, sess, nil)
		s.Load(ctx)
		require.NoError(t, s.SwitchVenue(ctx, "v-2"))

		u := s.User()
		assert.Equal(t, "u-1", u.ID)
		assert.Equal(t, "superadmin", u.Role)
		assert.Equal(t, "ws-1", u.WorkspaceID)
		assert.Equal(t, "v-2", u.VenueID)
		assert.Equal(t, "Group", s.Workspace().Name)

		assert.Equal(t, "Garden", s.Venue().Name)
		assert.Equal(t, 9, s.Statistics().OrdersToday)
		assert.Len(t, s.MenuItems(), 2)
		assert.Empty(t, s.Tables())
		assert.Len(t, s.Users(), 1)
		assert.False(t, s.HasPermission(permission.FullAccessBackend))
		assert.Equal(t, "v-2", s.SwitchedVenue())

		s.Load(ctx)
		assert.Equal(t, "", s.SwitchedVenue())
		assert.Equal(t, "Harbor", s.Venue().Name)
	})

	t.Run("concurrent reload supersedes the switch", func(t *testing.T) {
		be := new(mockBackend)
		be.On("UserData", ctx, "tok").Return(harbor(), nil)
		s := NewStore(be, signedIn(permission.RoleSuperAdmin), nil)
		s.Load(ctx)

		be.On("VenueData", ctx, "tok", "v-2").
			Run(func(mock.Arguments) { s.Load(ctx) }).
			Return(&api.UserData{Venue: &api.Venue{ID: "v-2", Name: "Garden"}}, nil)

		err := s.SwitchVenue(ctx, "v-2")
		assert.ErrorIs(t, err, core.ErrStaleData)
		assert.NotErrorIs(t, err, core.ErrSessionInvalid)
		assert.Equal(t, "Harbor", s.Venue().Name)
		assert.Empty(t, s.SwitchedVenue())
	})

	t.Run("token change mid-switch invalidates it", func(t *testing.T) {
		be := new(mockBackend)
		be.On("UserData", ctx, "tok").Return(harbor(), nil)
		sess := signedIn(permission.RoleSuperAdmin)
		s := NewStore(be, sess, nil)
		s.Load(ctx)

		be.On("VenueData", ctx, "tok", "v-2").
			Run(func(mock.Arguments) { sess.token = "tok-2" }).
			Return(&api.UserData{Venue: &api.Venue{ID: "v-2", Name: "Garden"}}, nil)

		err := s.SwitchVenue(ctx, "v-2")
		assert.ErrorIs(t, err, core.ErrSessionInvalid)
		assert.Equal(t, "Harbor", s.Venue().Name)
	})

	t.Run("backend failure leaves data untouched", func(t *testing.T) {
		be := new(mockBackend)
		be.On("UserData", ctx, "tok").Return(harbor(), nil)
		be.On("VenueData", ctx, "tok", "v-404").Return(nil, &api.Error{Status: 404})
		s := NewStore(be, signedIn(permission.RoleSuperAdmin), nil)
		s.Load(ctx)

		err := s.SwitchVenue(ctx, "v-404")
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.Equal(t, "Harbor", s.Venue().Name)
	})
}

func TestSetVenueStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("operator is refused", func(t *testing.T) {
		be := new(mockBackend)
		op := harbor()
		op.User.Role = "operator"
		op.Permissions = nil
		be.On("UserData", ctx, "tok").Return(op, nil)
		s := NewStore(be, signedIn(permission.RoleOperator), nil)
		s.Load(ctx)

		assert.ErrorIs(t, s.SetVenueStatus(ctx, true), core.ErrPermissionDenied)
		be.AssertNotCalled(t, "SetVenueStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no data is refused", func(t *testing.T) {
		s := NewStore(new(mockBackend), signedIn(permission.RoleAdmin), nil)
		assert.ErrorIs(t, s.SetVenueStatus(ctx, true), core.ErrPermissionDenied)
	})

	t.Run("admin toggles then the cache is reloaded", func(t *testing.T) {
		be := new(mockBackend)
		closed := harbor()
		open := harbor()
		open.Venue.IsOpen = true

		be.On("UserData", ctx, "tok").Return(closed, nil).Once()
		be.On("SetVenueStatus", ctx, "tok", "v-1", true).Return(&api.Venue{ID: "v-1", IsOpen: true}, nil).Once()
		be.On("UserData", ctx, "tok").Return(open, nil).Once()

		s := NewStore(be, signedIn(permission.RoleAdmin), nil)
		s.Load(ctx)
		require.False(t, s.Venue().IsOpen)

		require.NoError(t, s.SetVenueStatus(ctx, true))
		assert.True(t, s.Venue().IsOpen)
		be.AssertExpectations(t)
	})

	t.Run("backend rejection is returned", func(t *testing.T) {
		be := new(mockBackend)
		be.On("UserData", ctx, "tok").Return(harbor(), nil)
		be.On("SetVenueStatus", ctx, "tok", "v-1", false).Return(nil, errors.New("timeout"))
		s := NewStore(be, signedIn(permission.RoleAdmin), nil)
		s.Load(ctx)

		assert.Error(t, s.SetVenueStatus(ctx, false))
		be.AssertNumberOfCalls(t, "UserData", 1)
	})
}

func TestNoVenueScenario(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed()
	client, err := api.New(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	ctx := context.Background()
	sess := session.NewStore(client, storage.NewMemory(), session.Options{})
	_, err = sess.Login(ctx, apitest.Newcomer.Email, apitest.Password)
	require.NoError(t, err)

	s := NewStore(client, sess, nil)
	s.Load(ctx)

	assert.False(t, s.HasData())
	assert.ErrorIs(t, s.Err(), core.ErrVenueNotAssigned)

	a := s.Assignment()
	assert.True(t, a.RequiresVenueAssignment)
	assert.False(t, a.CanBypassVenueCheck)
	assert.False(t, a.HasVenueAssigned)
	assert.Empty(t, a.VenueID)

	msg := s.StatusMessage()
	assert.Equal(t, core.UserMessage(core.ErrVenueNotAssigned), msg)
	assert.NotEqual(t, core.UserMessage(core.ErrDataLoad), msg)
}
