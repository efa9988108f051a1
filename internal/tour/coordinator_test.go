// AngelaMos | 2026
// coordinator_test.go

package tour

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
	"github.com/carterperez-dev/venuedesk/internal/clock"
	"github.com/carterperez-dev/venuedesk/internal/config"
	"github.com/carterperez-dev/venuedesk/internal/core"
	"github.com/carterperez-dev/venuedesk/internal/permission"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) TourStatus(ctx context.Context, token string) (*api.TourStatus, error) {
	args := m.Called(ctx, token)
	st, _ := args.Get(0).(*api.TourStatus)
	return st, args.Error(1)
}

func (m *mockBackend) UpdateTourStatus(ctx context.Context, token string, status api.TourStatus) error {
	return m.Called(ctx, token, status).Error(0)
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

var tourCfg = config.TourConfig{Enabled: true, SettleDelay: 500 * time.Millisecond}

func newCoordinator(be Backend) (*Coordinator, *clock.FakeClock) {
	clk := clock.Fake(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	return New(be, staticToken("tok"), tourCfg, Options{Clock: clk}), clk
}

func admin() *api.User {
	return &api.User{ID: "u-1", Role: "admin"}
}

func started(t *testing.T, be *mockBackend, user *api.User) (*Coordinator, *clock.FakeClock) {
	t.Helper()
	ctx := context.Background()
	be.On("TourStatus", ctx, "tok").Return(&api.TourStatus{}, nil).Once()

	c, clk := newCoordinator(be)
	require.NoError(t, c.MaybeStart(ctx, user))
	clk.Advance(tourCfg.SettleDelay)
	require.Equal(t, StatusActive, c.State().Status)
	return c, clk
}

func TestStepsFor(t *testing.T) {
	assert.Equal(t, superAdminSteps, StepsFor(permission.RoleSuperAdmin))
	assert.Equal(t, adminSteps, StepsFor(permission.RoleAdmin))
	assert.Equal(t, operatorSteps, StepsFor(permission.RoleOperator))
	assert.Equal(t, adminSteps, StepsFor("owner"))

	steps := StepsFor(permission.RoleAdmin)
	steps[0].Title = "changed"
	assert.Equal(t, "Welcome", adminSteps[0].Title)
}

func TestMaybeStart(t *testing.T) {
	ctx := context.Background()

	t.Run("starts after settle delay", func(t *testing.T) {
		be := new(mockBackend)
		be.On("TourStatus", ctx, "tok").Return(&api.TourStatus{}, nil).Once()
		c, clk := newCoordinator(be)

		require.NoError(t, c.MaybeStart(ctx, admin()))
		assert.Equal(t, StatusNotStarted, c.State().Status)
		assert.Equal(t, 1, clk.PendingCount())

		clk.Advance(400 * time.Millisecond)
		assert.Equal(t, StatusNotStarted, c.State().Status)

		clk.Advance(100 * time.Millisecond)
		st := c.State()
		assert.Equal(t, StatusActive, st.Status)
		assert.Equal(t, 0, st.StepIndex)
		assert.Equal(t, len(adminSteps), st.Total)
		require.NotNil(t, st.Step)
		assert.Equal(t, "dashboard", st.Step.Target)
		assert.True(t, c.IsTarget("dashboard"))
		assert.False(t, c.IsTarget("menu"))
	})

	t.Run("completed on server", func(t *testing.T) {
		be := new(mockBackend)
		be.On("TourStatus", ctx, "tok").Return(&api.TourStatus{Completed: true}, nil).Once()
		c, clk := newCoordinator(be)

		require.NoError(t, c.MaybeStart(ctx, admin()))
		assert.Equal(t, StatusCompleted, c.State().Status)
		assert.Equal(t, 0, clk.PendingCount())
	})

	t.Run("skipped on server", func(t *testing.T) {
		be := new(mockBackend)
		be.On("TourStatus", ctx, "tok").Return(&api.TourStatus{Skipped: true}, nil).Once()
		c, _ := newCoordinator(be)

		require.NoError(t, c.MaybeStart(ctx, admin()))
		assert.Equal(t, StatusSkipped, c.State().Status)
	})

	t.Run("nil user", func(t *testing.T) {
		be := new(mockBackend)
		c, clk := newCoordinator(be)

		require.NoError(t, c.MaybeStart(ctx, nil))
		assert.Equal(t, 0, clk.PendingCount())
		be.AssertNotCalled(t, "TourStatus", mock.Anything, mock.Anything)
	})

	t.Run("disabled", func(t *testing.T) {
		be := new(mockBackend)
		c := New(be, staticToken("tok"), config.TourConfig{}, Options{Clock: clock.Fake(time.Now())})

		require.NoError(t, c.MaybeStart(ctx, admin()))
		be.AssertNotCalled(t, "TourStatus", mock.Anything, mock.Anything)
	})

	t.Run("status fetch fails", func(t *testing.T) {
		be := new(mockBackend)
		be.On("TourStatus", ctx, "tok").Return(nil, errors.New("offline")).Once()
		c, clk := newCoordinator(be)

		assert.Error(t, c.MaybeStart(ctx, admin()))
		assert.Equal(t, StatusNotStarted, c.State().Status)
		assert.Equal(t, 0, clk.PendingCount())
	})

	t.Run("second call while scheduled", func(t *testing.T) {
		be := new(mockBackend)
		be.On("TourStatus", ctx, "tok").Return(&api.TourStatus{}, nil).Once()
		c, clk := newCoordinator(be)

		require.NoError(t, c.MaybeStart(ctx, admin()))
		require.NoError(t, c.MaybeStart(ctx, admin()))
		assert.Equal(t, 1, clk.PendingCount())
		be.AssertNumberOfCalls(t, "TourStatus", 1)
	})

	t.Run("role picks steps", func(t *testing.T) {
		c, _ := started(t, new(mockBackend), &api.User{ID: "u-2", Role: "operator"})
		assert.Equal(t, len(operatorSteps), c.State().Total)
	})
}

func TestNavigation(t *testing.T) {
	c, _ := started(t, new(mockBackend), admin())

	c.Previous()
	assert.Equal(t, 0, c.State().StepIndex)

	c.Next()
	c.Next()
	assert.Equal(t, 2, c.State().StepIndex)
	assert.True(t, c.IsTarget(adminSteps[2].Target))

	c.Previous()
	assert.Equal(t, 1, c.State().StepIndex)

	for range 10 {
		c.Next()
	}
	st := c.State()
	assert.Equal(t, len(adminSteps)-1, st.StepIndex)
	assert.True(t, st.IsLast())
	assert.Equal(t, StatusActive, st.Status)
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("refused before last step", func(t *testing.T) {
		be := new(mockBackend)
		c, _ := started(t, be, admin())

		err := c.Complete(ctx)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		assert.Equal(t, StatusActive, c.State().Status)
		be.AssertNotCalled(t, "UpdateTourStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("persists from last step", func(t *testing.T) {
		be := new(mockBackend)
		be.On("UpdateTourStatus", ctx, "tok", api.TourStatus{Completed: true}).Return(nil).Once()
		c, _ := started(t, be, admin())
		for range len(adminSteps) - 1 {
			c.Next()
		}

		require.NoError(t, c.Complete(ctx))
		assert.Equal(t, StatusCompleted, c.State().Status)
		assert.Nil(t, c.State().Step)
		assert.False(t, c.IsTarget("users"))
		be.AssertExpectations(t)
	})

	t.Run("refused when not active", func(t *testing.T) {
		c, _ := newCoordinator(new(mockBackend))
		assert.ErrorIs(t, c.Complete(ctx), core.ErrInvalidInput)
	})
}

func TestSkip(t *testing.T) {
	ctx := context.Background()

	t.Run("persists", func(t *testing.T) {
		be := new(mockBackend)
		be.On("UpdateTourStatus", ctx, "tok", api.TourStatus{Skipped: true}).Return(nil).Once()
		c, _ := started(t, be, admin())
		c.Next()

		require.NoError(t, c.Skip(ctx))
		assert.Equal(t, StatusSkipped, c.State().Status)
		be.AssertExpectations(t)
	})

	t.Run("cancels pending start", func(t *testing.T) {
		be := new(mockBackend)
		be.On("TourStatus", ctx, "tok").Return(&api.TourStatus{}, nil).Once()
		be.On("UpdateTourStatus", ctx, "tok", api.TourStatus{Skipped: true}).Return(nil).Once()
		c, clk := newCoordinator(be)
		require.NoError(t, c.MaybeStart(ctx, admin()))

		require.NoError(t, c.Skip(ctx))
		assert.Equal(t, 0, clk.PendingCount())
		clk.Advance(time.Second)
		assert.Equal(t, StatusSkipped, c.State().Status)
	})

	t.Run("keeps local state when save fails", func(t *testing.T) {
		be := new(mockBackend)
		be.On("UpdateTourStatus", ctx, "tok", api.TourStatus{Skipped: true}).Return(errors.New("offline")).Once()
		c, _ := started(t, be, admin())

		assert.Error(t, c.Skip(ctx))
		assert.Equal(t, StatusSkipped, c.State().Status)
	})
}

func TestHandleKey(t *testing.T) {
	ctx := context.Background()

	be := new(mockBackend)
	be.On("UpdateTourStatus", ctx, "tok", api.TourStatus{Completed: true}).Return(nil).Once()
	c, _ := started(t, be, &api.User{ID: "u-3", Role: "operator"})

	require.NoError(t, c.HandleKey(ctx, KeyRight))
	assert.Equal(t, 1, c.State().StepIndex)

	require.NoError(t, c.HandleKey(ctx, KeyLeft))
	assert.Equal(t, 0, c.State().StepIndex)

	require.NoError(t, c.HandleKey(ctx, "tab"))
	assert.Equal(t, 0, c.State().StepIndex)

	require.NoError(t, c.HandleKey(ctx, KeyEnter))
	require.NoError(t, c.HandleKey(ctx, KeyEnter))
	assert.True(t, c.State().IsLast())

	require.NoError(t, c.HandleKey(ctx, KeyEnter))
	assert.Equal(t, StatusCompleted, c.State().Status)

	require.NoError(t, c.HandleKey(ctx, KeyEscape))
	assert.Equal(t, StatusCompleted, c.State().Status)
	be.AssertExpectations(t)
}

func TestEscapeSkips(t *testing.T) {
	ctx := context.Background()
	be := new(mockBackend)
	be.On("UpdateTourStatus", ctx, "tok", api.TourStatus{Skipped: true}).Return(nil).Once()
	c, _ := started(t, be, admin())

	require.NoError(t, c.HandleKey(ctx, KeyEscape))
	assert.Equal(t, StatusSkipped, c.State().Status)
}

func TestCloseCancelsSettleTimer(t *testing.T) {
	ctx := context.Background()
	be := new(mockBackend)
	be.On("TourStatus", ctx, "tok").Return(&api.TourStatus{}, nil).Once()
	c, clk := newCoordinator(be)
	require.NoError(t, c.MaybeStart(ctx, admin()))

	c.Close()
	assert.Equal(t, 0, clk.PendingCount())

	clk.Advance(time.Second)
	assert.Equal(t, StatusNotStarted, c.State().Status)
}

func TestResetAndListeners(t *testing.T) {
	be := new(mockBackend)
	c, _ := started(t, be, admin())

	var seen []Status
	unsubscribe := c.OnChange(func(st State) { seen = append(seen, st.Status) })

	c.Next()
	c.Reset()
	assert.Equal(t, StatusNotStarted, c.State().Status)
	assert.Zero(t, c.State().Total)

	unsubscribe()
	c.Reset()
	assert.Equal(t, []Status{StatusActive, StatusNotStarted}, seen)
}

func TestPersistsAgainstBackend(t *testing.T) {
	ctx := context.Background()
	srv := apitest.New(t)
	srv.Seed()
	client, err := api.New(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	token := srv.Token(t, apitest.Operator.ID, time.Hour)
	clk := clock.Fake(time.Now())
	c := New(client, staticToken(token), tourCfg, Options{Clock: clk})

	require.NoError(t, c.MaybeStart(ctx, &apitest.Operator))
	clk.Advance(tourCfg.SettleDelay)
	require.Equal(t, StatusActive, c.State().Status)

	require.NoError(t, c.HandleKey(ctx, KeyEscape))
	assert.Equal(t, api.TourStatus{Skipped: true}, srv.TourStatus(apitest.Operator.ID))

	again := New(client, staticToken(token), tourCfg, Options{Clock: clk})
	require.NoError(t, again.MaybeStart(ctx, &apitest.Operator))
	assert.Equal(t, StatusSkipped, again.State().Status)
	assert.Equal(t, 0, clk.PendingCount())
}
