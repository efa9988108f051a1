// AngelaMos | 2026
// store.go

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/carterperez-dev/venuedesk/internal/api"
	"github.com/carterperez-dev/venuedesk/internal/clock"
	"github.com/carterperez-dev/venuedesk/internal/core"
	"github.com/carterperez-dev/venuedesk/internal/permission"
	"github.com/carterperez-dev/venuedesk/internal/storage"
)

type AuthBackend interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	CurrentUser(ctx context.Context, token string) (*api.User, error)
	UpdateProfile(ctx context.Context, token string, req api.UpdateProfileRequest) (*api.User, error)
}

// Session is a copy of the authenticated identity. Mutating it has no effect
// on the store.
type Session struct {
	UserID        string
	Email         string
	Name          string
	Role          permission.Role
	WorkspaceID   string
	VenueID       string
	Token         string
	Authenticated bool
	Demo          bool
}

type Options struct {
	// DemoMode marks sessions created by Login as demo sessions, which
	// Restore trusts without asking the backend.
	DemoMode bool
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Store is the only writer of the session. It mirrors token and user into
// durable storage so the session survives restarts.
type Store struct {
	backend AuthBackend
	storage storage.Store
	clock   clock.Clock
	logger  *slog.Logger
	demo    bool

	mu        sync.RWMutex
	token     string
	user      *api.User
	isDemo    bool
	listeners map[int]func(*Session)
	nextID    int
}

func NewStore(backend AuthBackend, store storage.Store, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Store{
		backend:   backend,
		storage:   store,
		clock:     opts.Clock,
		logger:    opts.Logger,
		demo:      opts.DemoMode,
		listeners: make(map[int]func(*Session)),
	}
}

func (s *Store) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := s.backend.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrAuth, err)
	}

	if err := s.persist(resp.AccessToken, &resp.User, s.demo); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrAuth, err)
	}

	s.mu.Lock()
	s.token = resp.AccessToken
	user := resp.User
	s.user = &user
	s.isDemo = s.demo
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("signed in",
		"user_id", user.ID,
		"role", user.Role,
		"token", core.HashToken(resp.AccessToken),
	)
	s.notify(snap)

	return snap, nil
}

// Restore rebuilds the session from durable storage. Missing or unreadable
// keys leave the store logged out without an error. A stored session that
// cannot be verified is wiped and reported as core.ErrSessionInvalid.
func (s *Store) Restore(ctx context.Context) error {
	token, okToken := s.storage.Get(storage.KeyToken)
	rawUser, okUser := s.storage.Get(storage.KeyUser)
	if !okToken || !okUser || token == "" {
		s.clearStored()
		s.setLoggedOut()
		return nil
	}

	var user api.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.ID == "" {
		s.logger.Warn("discarding unreadable stored user", "error", err)
		s.clearStored()
		s.setLoggedOut()
		return nil
	}

	if demo, _ := s.storage.Get(storage.KeyDemoMode); demo == "true" {
		s.set(token, &user, true)
		s.logger.Info("restored demo session", "user_id", user.ID)
		return nil
	}

	if tokenExpired(token, s.clock.Now()) {
		s.clearStored()
		s.setLoggedOut()
		return fmt.Errorf("restore session: %w: %w", core.ErrSessionInvalid, core.ErrTokenExpired)
	}

	fresh, err := s.backend.CurrentUser(ctx, token)
	if err != nil {
		s.clearStored()
		s.setLoggedOut()
		return fmt.Errorf("restore session: %w: %w", core.ErrSessionInvalid, err)
	}

	if err := s.writeUser(fresh); err != nil {
		s.logger.Warn("could not refresh stored user", "error", err)
	}
	s.set(token, fresh, false)
	s.logger.Info("restored session", "user_id", fresh.ID, "role", fresh.Role)

	return nil
}

func (s *Store) Logout() {
	s.clearStored()
	s.setLoggedOut()
}

func (s *Store) UpdateUser(ctx context.Context, req api.UpdateProfileRequest) (*api.User, error) {
	token := s.Token()
	if token == "" {
		return nil, fmt.Errorf("update user: %w", core.ErrUnauthorized)
	}

	updated, err := s.backend.UpdateProfile(ctx, token, req)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.writeUser(updated); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return nil, fmt.Errorf("update user: %w", core.ErrSessionInvalid)
	}
	u := *updated
	s.user = &u
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)

	out := *updated
	return &out, nil
}

// RefreshUser ends the session on any failure.
func (s *Store) RefreshUser(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return fmt.Errorf("refresh user: %w", core.ErrSessionInvalid)
	}

	fresh, err := s.backend.CurrentUser(ctx, token)
	if err != nil {
		s.logger.Warn("session ended: user refresh failed", "error", err)
		s.Logout()
		return fmt.Errorf("refresh user: %w: %w", core.ErrSessionInvalid, err)
	}

	if err := s.writeUser(fresh); err != nil {
		s.logger.Warn("could not refresh stored user", "error", err)
	}

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return fmt.Errorf("refresh user: %w", core.ErrSessionInvalid)
	}
	u := *fresh
	s.user = &u
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Role() permission.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return permission.ParseRole(s.user.Role)
}

func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	u.Permissions = append([]string(nil), s.user.Permissions...)
	return &u
}

func (s *Store) Subject() *permission.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Subject()
}

func (s *Store) ExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	return tokenExpiry(token)
}

func (s *Store) OnChange(fn func(*Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) set(token string, user *api.User, demo bool) {
	s.mu.Lock()
	s.token = token
	u := *user
	s.user = &u
	s.isDemo = demo
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) setLoggedOut() {
	s.mu.Lock()
	changed := s.user != nil || s.token != ""
	s.token = ""
	s.user = nil
	s.isDemo = false
	s.mu.Unlock()

	if changed {
		s.notify(nil)
	}
}

func (s *Store) snapshotLocked() *Session {
	if s.user == nil || s.token == "" {
		return nil
	}
	return &Session{
		UserID:        s.user.ID,
		Email:         s.user.Email,
		Name:          s.user.Name,
		Role:          permission.ParseRole(s.user.Role),
		WorkspaceID:   s.user.WorkspaceID,
		VenueID:       s.user.VenueID,
		Token:         s.token,
		Authenticated: true,
		Demo:          s.isDemo,
	}
}

func (s *Store) notify(snap *Session) {
	s.mu.RLock()
	fns := make([]func(*Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		var arg *Session
		if snap != nil {
			c := *snap
			arg = &c
		}
		fn(arg)
	}
}

// persist writes a new session. On failure the previously stored keys are
// put back.
func (s *Store) persist(token string, user *api.User, demo bool) error {
	prev := make(map[string]string, len(storage.SessionKeys))
	for _, key := range storage.SessionKeys {
		if v, ok := s.storage.Get(key); ok {
			prev[key] = v
		}
	}

	err := s.storage.Set(storage.KeyToken, token)
	if err == nil {
		err = s.writeUser(user)
	}
	if err == nil {
		if demo {
			err = s.storage.Set(storage.KeyDemoMode, "true")
		} else {
			err = s.storage.Remove(storage.KeyDemoMode)
		}
	}
	if err == nil {
		return nil
	}

	for _, key := range storage.SessionKeys {
		if v, ok := prev[key]; ok {
			_ = s.storage.Set(key, v) //nolint:errcheck // best-effort rollback
		} else {
			_ = s.storage.Remove(key) //nolint:errcheck // best-effort rollback
		}
	}
	return fmt.Errorf("persist session: %w", err)
}

func (s *Store) writeUser(user *api.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.storage.Set(storage.KeyUser, string(raw))
}

func (s *Store) clearStored() {
	if err := storage.RemoveAll(s.storage, storage.SessionKeys...); err != nil {
		s.logger.Warn("could not clear stored session", "error", err)
	}
}
