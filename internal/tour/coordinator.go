// AngelaMos | 2026
// coordinator.go

// Package tour sequences the first-run walkthrough. Whether a user has
// finished or dismissed it is stored by the backend, so the tour runs once
// per account rather than once per device.
package tour

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/carterperez-dev/venuedesk/internal/api"
	"github.com/carterperez-dev/venuedesk/internal/clock"
	"github.com/carterperez-dev/venuedesk/internal/config"
	"github.com/carterperez-dev/venuedesk/internal/core"
	"github.com/carterperez-dev/venuedesk/internal/permission"
)

type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
)

const (
	KeyEscape = "esc"
	KeyEnter  = "enter"
	KeyRight  = "right"
	KeyLeft   = "left"
)

const defaultSettleDelay = 500 * time.Millisecond

type Backend interface {
	TourStatus(ctx context.Context, token string) (*api.TourStatus, error)
	UpdateTourStatus(ctx context.Context, token string, status api.TourStatus) error
}

type TokenSource interface {
	Token() string
}

type State struct {
	Status    Status
	StepIndex int
	Total     int
	Step      *Step
}

func (s State) IsLast() bool {
	return s.Total > 0 && s.StepIndex == s.Total-1
}

type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger
}

type Coordinator struct {
	backend Backend
	tokens  TokenSource
	clock   clock.Clock
	logger  *slog.Logger
	enabled bool
	settle  time.Duration

	mu        sync.Mutex
	status    Status
	steps     []Step
	index     int
	timer     clock.Timer
	listeners map[int]func(State)
	nextID    int
}

func New(backend Backend, tokens TokenSource, cfg config.TourConfig, opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaultSettleDelay
	}

	return &Coordinator{
		backend:   backend,
		tokens:    tokens,
		clock:     opts.Clock,
		logger:    opts.Logger,
		enabled:   cfg.Enabled,
		settle:    cfg.SettleDelay,
		status:    StatusNotStarted,
		listeners: make(map[int]func(State)),
	}
}

// MaybeStart is a no-op for a nil user, a disabled tour or one already
// under way.
func (c *Coordinator) MaybeStart(ctx context.Context, user *api.User) error {
	if user == nil || !c.enabled {
		return nil
	}

	c.mu.Lock()
	busy := c.status != StatusNotStarted || c.timer != nil
	c.mu.Unlock()
	if busy {
		return nil
	}

	remote, err := c.backend.TourStatus(ctx, c.tokens.Token())
	if err != nil {
		return fmt.Errorf("fetch tour status: %w", err)
	}

	c.mu.Lock()
	if c.status != StatusNotStarted || c.timer != nil {
		c.mu.Unlock()
		return nil
	}

	switch {
	case remote.Completed:
		c.status = StatusCompleted
	case remote.Skipped:
		c.status = StatusSkipped
	default:
		steps := StepsFor(permission.ParseRole(user.Role))
		c.timer = c.clock.AfterFunc(c.settle, func() { c.activate(steps) })
		c.mu.Unlock()
		c.logger.Debug("tour scheduled", "role", user.Role, "steps", len(steps))
		return nil
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

func (c *Coordinator) activate(steps []Step) {
	c.mu.Lock()
	if c.timer == nil || c.status != StatusNotStarted {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.status = StatusActive
	c.steps = steps
	c.index = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Coordinator) Next() {
	c.move(1)
}

func (c *Coordinator) Previous() {
	c.move(-1)
}

func (c *Coordinator) move(delta int) {
	c.mu.Lock()
	if c.status != StatusActive {
		c.mu.Unlock()
		return
	}
	next := c.index + delta
	if next < 0 || next >= len(c.steps) {
		c.mu.Unlock()
		return
	}
	c.index = next
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Skip dismisses the tour for good, including one still waiting to start.
// Local state changes even if persisting fails.
func (c *Coordinator) Skip(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusActive && c.status != StatusNotStarted {
		c.mu.Unlock()
		return nil
	}
	c.stopTimerLocked()
	c.status = StatusSkipped
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return c.persist(ctx, api.TourStatus{Skipped: true})
}

// Complete is only accepted on the last step.
func (c *Coordinator) Complete(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusActive || c.index != len(c.steps)-1 {
		c.mu.Unlock()
		return fmt.Errorf("complete tour: %w: not on the last step", core.ErrInvalidInput)
	}
	c.status = StatusCompleted
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return c.persist(ctx, api.TourStatus{Completed: true})
}

func (c *Coordinator) HandleKey(ctx context.Context, key string) error {
	switch key {
	case KeyEscape:
		if c.State().Status != StatusActive {
			return nil
		}
		return c.Skip(ctx)
	case KeyEnter, KeyRight:
		st := c.State()
		if st.Status != StatusActive {
			return nil
		}
		if st.IsLast() {
			return c.Complete(ctx)
		}
		c.Next()
	case KeyLeft:
		c.Previous()
	}
	return nil
}

func (c *Coordinator) IsTarget(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == StatusActive && c.steps[c.index].Target == id
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.stopTimerLocked()
	changed := c.status != StatusNotStarted
	c.status = StatusNotStarted
	c.steps = nil
	c.index = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.notify(snap)
	}
}

func (c *Coordinator) Close() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()
}

func (c *Coordinator) OnChange(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) persist(ctx context.Context, status api.TourStatus) error {
	if err := c.backend.UpdateTourStatus(ctx, c.tokens.Token(), status); err != nil {
		c.logger.Warn("tour status not saved", "error", err)
		return fmt.Errorf("save tour status: %w", err)
	}
	return nil
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) snapshotLocked() State {
	st := State{
		Status:    c.status,
		StepIndex: c.index,
		Total:     len(c.steps),
	}
	if c.status == StatusActive {
		step := c.steps[c.index]
		st.Step = &step
	}
	return st
}

func (c *Coordinator) notify(st State) {
	c.mu.Lock()
	fns := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
