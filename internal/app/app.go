// AngelaMos | 2026
// app.go

// Package app builds the service graph once and hands it to whatever drives
// the UI. Nothing in the graph is a package-level global.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/carterperez-dev/venuedesk/internal/api"
	"github.com/carterperez-dev/venuedesk/internal/clock"
	"github.com/carterperez-dev/venuedesk/internal/config"
	"github.com/carterperez-dev/venuedesk/internal/core"
	"github.com/carterperez-dev/venuedesk/internal/health"
	"github.com/carterperez-dev/venuedesk/internal/initializer"
	"github.com/carterperez-dev/venuedesk/internal/session"
	"github.com/carterperez-dev/venuedesk/internal/storage"
	"github.com/carterperez-dev/venuedesk/internal/tour"
	"github.com/carterperez-dev/venuedesk/internal/userdata"
)

type Options struct {
	Logger     *slog.Logger
	Clock      clock.Clock
	HTTPClient *http.Client
	// Storage replaces the configured driver, mostly for tests.
	Storage storage.Store
}

type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Client      *api.Client
	Storage     storage.Store
	Session     *session.Store
	Data        *userdata.Store
	Initializer *initializer.Coordinator
	Tour        *tour.Coordinator
	Health      *health.Runner

	telemetry    *core.Telemetry
	closeStorage func() error
	unsubscribe  []func()

	mu        sync.Mutex
	lastToken string
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	logger := opts.Logger

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
		telemetry = nil
	}

	clientOpts := []api.Option{api.WithLogger(logger)}
	if telemetry != nil {
		clientOpts = append(clientOpts, api.WithTracer(telemetry.Tracer))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	client, err := api.New(cfg.API, clientOpts...)
	if err != nil {
		return nil, err
	}

	store := opts.Storage
	closeStorage := func() error { return nil }
	if store == nil {
		store, closeStorage, err = storage.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	sess := session.NewStore(client, store, session.Options{
		DemoMode: cfg.Session.DemoMode,
		Clock:    opts.Clock,
		Logger:   logger,
	})
	data := userdata.NewStore(client, sess, logger)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Client:  client,
		Storage: store,
		Session: sess,
		Data:    data,
		Initializer: initializer.New(sess, data, cfg.Initializer, initializer.Options{
			Clock:  opts.Clock,
			Logger: logger,
		}),
		Tour: tour.New(client, sess, cfg.Tour, tour.Options{
			Clock:  opts.Clock,
			Logger: logger,
		}),
		Health: health.NewRunner(cfg.API.Timeout,
			health.Probe{Name: "backend", Checker: client},
			health.Probe{Name: "storage", Checker: storage.AsPinger(store)},
		),
		telemetry:    telemetry,
		closeStorage: closeStorage,
	}

	a.wire()
	return a, nil
}

// wire subscribes the initializer to both stores. Session changes run
// first so a new identity never sees the previous user's data.
func (a *App) wire() {
	a.unsubscribe = append(a.unsubscribe,
		a.Session.OnChange(a.sessionChanged),
		a.Data.OnChange(a.Initializer.Sync),
		a.Initializer.OnChange(a.initializerChanged),
	)
}

func (a *App) sessionChanged(snap *session.Session) {
	token := ""
	if snap != nil {
		token = snap.Token
	}

	a.mu.Lock()
	switched := token != a.lastToken
	a.lastToken = token
	a.mu.Unlock()

	if switched {
		a.Tour.Reset()
		a.Initializer.Reset()
		a.Data.Clear()
	}
	a.Initializer.Sync()
}

func (a *App) initializerChanged(state initializer.State) {
	if state != initializer.StateLoaded {
		return
	}
	if err := a.Tour.MaybeStart(context.Background(), a.Data.User()); err != nil {
		a.Logger.Warn("tour not started", "error", err)
	}
}

// Start restores a saved session and kicks the initializer. An invalid
// saved session is logged and reported but leaves the app usable.
func (a *App) Start(ctx context.Context) error {
	err := a.Session.Restore(ctx)
	a.Initializer.Sync()

	if err != nil && errors.Is(err, core.ErrSessionInvalid) {
		a.Logger.Info("saved session discarded", "error", err)
	}
	return err
}

func (a *App) Close(ctx context.Context) error {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.Initializer.Close()
	a.Tour.Close()

	var errs []error
	if err := a.closeStorage(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
