// AngelaMos | 2026
// store_test.go

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/venuedesk/internal/api"
	"github.com/carterperez-dev/venuedesk/internal/apitest"
	"github.com/carterperez-dev/venuedesk/internal/clock"
	"github.com/carterperez-dev/venuedesk/internal/config"
	"github.com/carterperez-dev/venuedesk/internal/core"
	"github.com/carterperez-dev/venuedesk/internal/permission"
	"github.com/carterperez-dev/venuedesk/internal/storage"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*api.LoginResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBackend) CurrentUser(ctx context.Context, token string) (*api.User, error) {
	args := m.Called(ctx, token)
	if u := args.Get(0); u != nil {
		return u.(*api.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBackend) UpdateProfile(ctx context.Context, token string, req api.UpdateProfileRequest) (*api.User, error) {
	args := m.Called(ctx, token, req)
	if u := args.Get(0); u != nil {
		return u.(*api.User), args.Error(1)
	}
	return nil, args.Error(1)
}

var admin = api.User{ID: "u-1", Email: "a@venue.test", Name: "Ada", Role: "admin", WorkspaceID: "ws-1", VenueID: "v-1"}

var hmacKey = []byte("0123456789abcdef0123456789abcdef")

// jwtWithExpiry signs with a key the store never sees; only exp matters.
func jwtWithExpiry(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().Subject("u-1").Expiration(exp).Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), hmacKey))
	require.NoError(t, err)
	return string(signed)
}

func assertLoggedOut(t *testing.T, s *Store, mem storage.Store) {
	t.Helper()
	assert.Nil(t, s.Current())
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.Subject())
	for _, key := range storage.SessionKeys {
		_, ok := mem.Get(key)
		assert.False(t, ok, key)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists token and user", func(t *testing.T) {
		be := new(mockBackend)
		mem := storage.NewMemory()
		s := NewStore(be, mem, Options{})

		be.On("Login", ctx, api.LoginRequest{Email: admin.Email, Password: "pw-12345678"}).
			Return(&api.LoginResponse{AccessToken: "tok-1", User: admin}, nil)

		var seen []*Session
		s.OnChange(func(sess *Session) { seen = append(seen, sess) })

		sess, err := s.Login(ctx, admin.Email, "pw-12345678")
		require.NoError(t, err)
		assert.Equal(t, "u-1", sess.UserID)
		assert.Equal(t, permission.RoleAdmin, sess.Role)
		assert.True(t, sess.Authenticated)

		tok, _ := mem.Get(storage.KeyToken)
		assert.Equal(t, "tok-1", tok)
		raw, _ := mem.Get(storage.KeyUser)
		assert.Contains(t, raw, `"id":"u-1"`)
		_, demo := mem.Get(storage.KeyDemoMode)
		assert.False(t, demo)

		require.Len(t, seen, 1)
		assert.Equal(t, "u-1", seen[0].UserID)
		be.AssertExpectations(t)
	})

	t.Run("failure leaves prior session untouched", func(t *testing.T) {
		be := new(mockBackend)
		mem := storage.NewMemory()
		s := NewStore(be, mem, Options{})

		be.On("Login", ctx, mock.MatchedBy(func(r api.LoginRequest) bool { return r.Password == "good-password" })).
			Return(&api.LoginResponse{AccessToken: "tok-1", User: admin}, nil)
		be.On("Login", ctx, mock.MatchedBy(func(r api.LoginRequest) bool { return r.Password != "good-password" })).
			Return(nil, &api.Error{Status: 401, Message: "invalid email or password"})

		_, err := s.Login(ctx, admin.Email, "good-password")
		require.NoError(t, err)

		_, err = s.Login(ctx, "other@venue.test", "bad-password")
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrAuth)
		assert.True(t, api.IsUnauthorized(err))

		assert.Equal(t, "u-1", s.Current().UserID)
		tok, _ := mem.Get(storage.KeyToken)
		assert.Equal(t, "tok-1", tok)
	})

	t.Run("demo mode sets the flag", func(t *testing.T) {
		be := new(mockBackend)
		mem := storage.NewMemory()
		s := NewStore(be, mem, Options{DemoMode: true})

		be.On("Login", ctx, mock.Anything).Return(&api.LoginResponse{AccessToken: "demo", User: admin}, nil)

		sess, err := s.Login(ctx, admin.Email, "pw-12345678")
		require.NoError(t, err)
		assert.True(t, sess.Demo)
		flag, _ := mem.Get(storage.KeyDemoMode)
		assert.Equal(t, "true", flag)
	})
}

func TestLogoutIsIdempotent(t *testing.T) {
	be := new(mockBackend)
	mem := storage.NewMemory()
	s := NewStore(be, mem, Options{})
	be.On("Login", mock.Anything, mock.Anything).Return(&api.LoginResponse{AccessToken: "tok", User: admin}, nil)

	_, err := s.Login(context.Background(), admin.Email, "pw-12345678")
	require.NoError(t, err)

	calls := 0
	s.OnChange(func(*Session) { calls++ })

	s.Logout()
	assertLoggedOut(t, s, mem)
	once := mem.Len()

	s.Logout()
	assertLoggedOut(t, s, mem)
	assert.Equal(t, once, mem.Len())
	assert.Equal(t, 1, calls)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	seed := func(mem storage.Store, token, user string) {
		if token != "" {
			require.NoError(t, mem.Set(storage.KeyToken, token))
		}
		if user != "" {
			require.NoError(t, mem.Set(storage.KeyUser, user))
		}
	}

	t.Run("missing keys is a clean logout", func(t *testing.T) {
		mem := storage.NewMemory()
		s := NewStore(new(mockBackend), mem, Options{})
		require.NoError(t, s.Restore(ctx))
		assertLoggedOut(t, s, mem)
	})

	t.Run("malformed stored user is a clean logout", func(t *testing.T) {
		be := new(mockBackend)
		mem := storage.NewMemory()
		seed(mem, "tok", "{not json")
		s := NewStore(be, mem, Options{})

		require.NoError(t, s.Restore(ctx))
		assertLoggedOut(t, s, mem)
		be.AssertNotCalled(t, "CurrentUser", mock.Anything, mock.Anything)
	})

	t.Run("demo flag trusts the cached user", func(t *testing.T) {
		be := new(mockBackend)
		mem := storage.NewMemory()
		seed(mem, "demo-token", `{"id":"u-1","role":"admin"}`)
		require.NoError(t, mem.Set(storage.KeyDemoMode, "true"))
		s := NewStore(be, mem, Options{})

		require.NoError(t, s.Restore(ctx))
		assert.True(t, s.IsAuthenticated())
		assert.True(t, s.Current().Demo)
		be.AssertNotCalled(t, "CurrentUser", mock.Anything, mock.Anything)
	})

	t.Run("expired jwt is wiped without a network call", func(t *testing.T) {
		be := new(mockBackend)
		mem := storage.NewMemory()
		seed(mem, jwtWithExpiry(t, now.Add(-time.Minute)), `{"id":"u-1","role":"admin"}`)
		s := NewStore(be, mem, Options{Clock: clock.Fake(now)})

		err := s.Restore(ctx)
		assert.ErrorIs(t, err, core.ErrSessionInvalid)
		assert.ErrorIs(t, err, core.ErrTokenExpired)
		assertLoggedOut(t, s, mem)
		be.AssertNotCalled(t, "CurrentUser", mock.Anything, mock.Anything)
	})

	t.Run("rejected token clears every key", func(t *testing.T) {
		be := new(mockBackend)
		mem := storage.NewMemory()
		token := jwtWithExpiry(t, now.Add(time.Hour))
		seed(mem, token, `{"id":"u-1","role":"admin"}`)
		be.On("CurrentUser", ctx, token).Return(nil, &api.Error{Status: 401})
		s := NewStore(be, mem, Options{Clock: clock.Fake(now)})

		err := s.Restore(ctx)
		assert.ErrorIs(t, err, core.ErrSessionInvalid)
		assertLoggedOut(t, s, mem)
	})

	t.Run("transient failure also fails closed", func(t *testing.T) {
		be := new(mockBackend)
		mem := storage.NewMemory()
		seed(mem, "opaque", `{"id":"u-1","role":"admin"}`)
		be.On("CurrentUser", ctx, "opaque").Return(nil, errors.New("connection refused"))
		s := NewStore(be, mem, Options{})

		assert.ErrorIs(t, s.Restore(ctx), core.ErrSessionInvalid)
		assertLoggedOut(t, s, mem)
	})

	t.Run("verified token adopts the fresh user", func(t *testing.T) {
		be := new(mockBackend)
		mem := storage.NewMemory()
		seed(mem, "opaque", `{"id":"u-1","role":"operator"}`)
		promoted := admin
		be.On("CurrentUser", ctx, "opaque").Return(&promoted, nil)
		s := NewStore(be, mem, Options{})

		require.NoError(t, s.Restore(ctx))
		assert.Equal(t, permission.RoleAdmin, s.Role())
		raw, _ := mem.Get(storage.KeyUser)
		assert.Contains(t, raw, `"role":"admin"`)
	})
}

func TestLoginThenRestoreRoundTrip(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed()
	client, err := api.New(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	mem := storage.NewMemory()
	ctx := context.Background()

	first := NewStore(client, mem, Options{})
	sess, err := first.Login(ctx, apitest.Manager.Email, apitest.Password)
	require.NoError(t, err)

	exp, ok := first.ExpiresAt()
	assert.True(t, ok)
	assert.True(t, exp.After(time.Now()))

	reloaded := NewStore(client, mem, Options{})
	require.NoError(t, reloaded.Restore(ctx))

	got := reloaded.Current()
	require.NotNil(t, got)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.Role, got.Role)
	assert.Equal(t, sess.Token, got.Token)
	assert.Equal(t, 1, srv.Calls(apitest.RouteLogin))
	assert.Equal(t, 1, srv.Calls(apitest.RouteMe))

	srv.Revoke(apitest.Manager.ID)
	again := NewStore(client, mem, Options{})
	assert.ErrorIs(t, again.Restore(ctx), core.ErrSessionInvalid)
	assertLoggedOut(t, again, mem)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	be := new(mockBackend)
	mem := storage.NewMemory()
	s := NewStore(be, mem, Options{})

	name := "Ada L."
	req := api.UpdateProfileRequest{Name: &name}

	_, err := s.UpdateUser(ctx, req)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	be.On("Login", ctx, mock.Anything).Return(&api.LoginResponse{AccessToken: "tok", User: admin}, nil)
	_, err = s.Login(ctx, admin.Email, "pw-12345678")
	require.NoError(t, err)

	t.Run("failure leaves state untouched", func(t *testing.T) {
		be.On("UpdateProfile", ctx, "tok", req).Return(nil, &api.Error{Status: 500}).Once()
		_, err := s.UpdateUser(ctx, req)
		require.Error(t, err)
		assert.Equal(t, "Ada", s.Current().Name)
	})

	t.Run("success overwrites memory and storage", func(t *testing.T) {
		updated := admin
		updated.Name = name
		be.On("UpdateProfile", ctx, "tok", req).Return(&updated, nil).Once()

		u, err := s.UpdateUser(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, name, u.Name)
		assert.Equal(t, name, s.Current().Name)
		raw, _ := mem.Get(storage.KeyUser)
		assert.Contains(t, raw, name)
	})
}

func TestRefreshUser(t *testing.T) {
	ctx := context.Background()
	be := new(mockBackend)
	mem := storage.NewMemory()
	s := NewStore(be, mem, Options{})

	assert.ErrorIs(t, s.RefreshUser(ctx), core.ErrSessionInvalid)

	be.On("Login", ctx, mock.Anything).Return(&api.LoginResponse{AccessToken: "tok", User: admin}, nil)
	_, err := s.Login(ctx, admin.Email, "pw-12345678")
	require.NoError(t, err)

	moved := admin
	moved.VenueID = "v-2"
	be.On("CurrentUser", ctx, "tok").Return(&moved, nil).Once()
	require.NoError(t, s.RefreshUser(ctx))
	assert.Equal(t, "v-2", s.Current().VenueID)

	be.On("CurrentUser", ctx, "tok").Return(nil, &api.Error{Status: 503}).Once()
	err = s.RefreshUser(ctx)
	assert.ErrorIs(t, err, core.ErrSessionInvalid)
	assertLoggedOut(t, s, mem)
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, tokenExpired("opaque-session-id", now))
	assert.False(t, tokenExpired(jwtWithExpiry(t, now.Add(time.Second)), now))
	assert.True(t, tokenExpired(jwtWithExpiry(t, now), now))

	noExp, err := jwt.NewBuilder().Subject("x").Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(noExp, jwt.WithKey(jwa.HS256(), hmacKey))
	require.NoError(t, err)
	_, ok := tokenExpiry(string(signed))
	assert.False(t, ok)
}
