// AngelaMos | 2026
// coordinator.go

// Package initializer makes sure account data loads after sign-in. Logins
// can race the backend provisioning the user's data, so failed loads are
// retried a bounded number of times with a fixed backoff.
package initializer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/carterperez-dev/venuedesk/internal/clock"
	"github.com/carterperez-dev/venuedesk/internal/config"
	"github.com/carterperez-dev/venuedesk/internal/core"
)

const defaultBackoff = 2 * time.Second

type State string

const (
	StateIdle           State = "idle"
	StateWaitingForAuth State = "waiting-for-auth"
	StateLoading        State = "loading"
	StateLoaded         State = "loaded"
	StateRetrying       State = "retrying"
	StateGivenUp        State = "given-up"
	StateNoVenue        State = "no-venue"
)

// Terminal states stay put until Reset or Retry.
func (s State) Terminal() bool {
	return s == StateGivenUp || s == StateNoVenue
}

type Session interface {
	IsAuthenticated() bool
}

type Data interface {
	Load(ctx context.Context)
	HasData() bool
	Err() error
}

type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger
}

type Coordinator struct {
	session     Session
	data        Data
	clock       clock.Clock
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	attempts  int
	inFlight  bool
	timer     clock.Timer
	closed    bool
	listeners map[int]func(State)
	nextID    int
}

func New(session Session, data Data, cfg config.InitializerConfig, opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		session:     session,
		data:        data,
		clock:       opts.Clock,
		logger:      opts.Logger,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		ctx:         ctx,
		cancel:      cancel,
		state:       StateIdle,
		listeners:   make(map[int]func(State)),
	}
}

// Sync reconciles the machine with the current session and data. It is the
// only event entry point and is safe to call on every change notification.
// A load attempt it starts runs on the calling goroutine.
func (c *Coordinator) Sync() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	prev := c.state

	switch {
	case !c.session.IsAuthenticated():
		c.stopTimerLocked()
		c.attempts = 0
		c.state = StateWaitingForAuth

	case c.data.HasData():
		c.stopTimerLocked()
		c.state = StateLoaded

	case c.inFlight, c.state == StateRetrying, c.state.Terminal():

	default:
		c.attempts = 0
		c.startLocked()
		return
	}

	next := c.state
	c.mu.Unlock()

	if next != prev {
		c.notify(next)
	}
}

func (c *Coordinator) Retry() {
	c.mu.Lock()
	if c.closed || !c.state.Terminal() || !c.session.IsAuthenticated() {
		c.mu.Unlock()
		return
	}
	c.attempts = 0
	c.startLocked()
}

// Reset drops attempts and any terminal state so the next Sync loads from
// scratch. Call it when the signed-in identity changes.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.attempts = 0
	prev := c.state
	c.state = StateIdle
	c.mu.Unlock()

	if prev != StateIdle {
		c.notify(StateIdle)
	}
}

// startLocked is entered with c.mu held and releases it before loading.
func (c *Coordinator) startLocked() {
	c.inFlight = true
	c.attempts++
	c.state = StateLoading
	attempt := c.attempts
	c.mu.Unlock()

	c.notify(StateLoading)
	c.logger.Debug("loading account data", "attempt", attempt)

	c.data.Load(c.ctx)

	c.mu.Lock()
	c.inFlight = false
	if c.closed {
		c.mu.Unlock()
		return
	}

	// A Sync during the load may already have moved the state on.
	prev := c.state

	switch {
	case !c.session.IsAuthenticated():
		c.attempts = 0
		c.state = StateWaitingForAuth

	case c.data.HasData():
		c.state = StateLoaded

	case errors.Is(c.data.Err(), core.ErrVenueNotAssigned):
		c.state = StateNoVenue
		c.logger.Info("account has no venue assigned")

	case c.attempts >= c.maxAttempts:
		c.state = StateGivenUp
		c.logger.Error("giving up on account data",
			"attempts", c.attempts,
			"error", c.data.Err(),
		)

	default:
		c.state = StateRetrying
		c.timer = c.clock.AfterFunc(c.backoff, c.retryFromTimer)
		c.logger.Warn("account data load failed, retrying",
			"attempt", c.attempts,
			"max_attempts", c.maxAttempts,
			"backoff", c.backoff,
			"error", c.data.Err(),
		)
	}

	next := c.state
	c.mu.Unlock()

	if next != prev {
		c.notify(next)
	}
}

func (c *Coordinator) retryFromTimer() {
	c.mu.Lock()
	c.timer = nil
	if c.closed || c.state != StateRetrying {
		c.mu.Unlock()
		return
	}

	if !c.session.IsAuthenticated() || c.data.HasData() {
		c.mu.Unlock()
		c.Sync()
		return
	}

	c.startLocked()
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
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

// Close cancels a pending retry and any load in progress. The coordinator
// ignores all events afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	c.cancel()
}

func (c *Coordinator) notify(state State) {
	c.mu.Lock()
	fns := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
