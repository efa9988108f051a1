// AngelaMos | 2026
// store.go

package userdata

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/carterperez-dev/venuedesk/internal/api"
	"github.com/carterperez-dev/venuedesk/internal/core"
	"github.com/carterperez-dev/venuedesk/internal/permission"
)

type DataBackend interface {
	UserData(ctx context.Context, token string) (*api.UserData, error)
	VenueData(ctx context.Context, token, venueID string) (*api.UserData, error)
	SetVenueStatus(ctx context.Context, token, venueID string, open bool) (*api.Venue, error)
}

type SessionReader interface {
	IsAuthenticated() bool
	Token() string
	Subject() *permission.Subject
}

// Store owns the cached account payload. Fetch failures become state (nil
// data plus Err) instead of errors returned to readers.
type Store struct {
	backend DataBackend
	session SessionReader
	logger  *slog.Logger

	mu        sync.RWMutex
	data      *api.UserData
	err       error
	switched  string
	gen       uint64
	listeners map[int]func()
	nextID    int
}

func NewStore(backend DataBackend, session SessionReader, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend:   backend,
		session:   session,
		logger:    logger,
		listeners: make(map[int]func()),
	}
}

// Load drops a result that arrives after a newer Load, a Clear or a change
// of token.
func (s *Store) Load(ctx context.Context) {
	if !s.session.IsAuthenticated() {
		s.Clear()
		return
	}

	token := s.session.Token()
	gen := s.begin()

	data, err := s.backend.UserData(ctx, token)

	s.mu.Lock()
	if s.gen != gen || s.session.Token() != token {
		s.mu.Unlock()
		return
	}
	s.switched = ""
	if err != nil {
		s.data = nil
		s.err = classify(err)
	} else {
		s.data = data
		s.err = nil
	}
	loadErr := s.err
	s.mu.Unlock()

	if loadErr != nil {
		s.logger.Warn("account data unavailable", "error", loadErr)
	}
	s.notify()
}

func (s *Store) Refresh(ctx context.Context) {
	s.Load(ctx)
}

// SwitchVenue keeps the caller's identity, workspace and permissions; only
// the venue pointer and the venue-scoped lists change.
func (s *Store) SwitchVenue(ctx context.Context, venueID string) error {
	self := s.session.Subject()
	if !permission.HasRole(self, permission.RoleSuperAdmin) {
		return fmt.Errorf("switch venue: %w", core.ErrPermissionDenied)
	}
	if venueID == "" {
		return fmt.Errorf("switch venue: empty venue id: %w", core.ErrInvalidInput)
	}

	token := s.session.Token()
	gen := s.begin()

	scoped, err := s.backend.VenueData(ctx, token, venueID)
	if err != nil {
		return fmt.Errorf("switch venue %s: %w", venueID, err)
	}

	s.mu.Lock()
	switch {
	case s.session.Token() != token:
		s.mu.Unlock()
		return fmt.Errorf("switch venue %s: %w", venueID, core.ErrSessionInvalid)
	case s.gen != gen:
		s.mu.Unlock()
		return fmt.Errorf("switch venue %s: %w", venueID, core.ErrStaleData)
	}
	s.data = merge(s.data, scoped, self, venueID)
	s.err = nil
	s.switched = venueID
	s.mu.Unlock()

	s.logger.Info("switched venue", "venue_id", venueID, "user_id", self.ID)
	s.notify()
	return nil
}

// SetVenueStatus opens or closes the cached venue and then reloads, so the
// cache stays the only source of the venue's status.
func (s *Store) SetVenueStatus(ctx context.Context, open bool) error {
	s.mu.RLock()
	subject := s.subjectLocked()
	var venueID string
	if s.data != nil && s.data.Venue != nil {
		venueID = s.data.Venue.ID
	}
	switched := s.switched
	s.mu.RUnlock()

	if !permission.CanManageVenue(subject) {
		return fmt.Errorf("venue status: %w", core.ErrPermissionDenied)
	}
	if venueID == "" {
		return fmt.Errorf("venue status: %w", core.ErrVenueNotAssigned)
	}

	if _, err := s.backend.SetVenueStatus(ctx, s.session.Token(), venueID, open); err != nil {
		return fmt.Errorf("venue status: %w", err)
	}

	s.logger.Info("venue status changed", "venue_id", venueID, "open", open)

	if switched != "" {
		if err := s.SwitchVenue(ctx, switched); err != nil {
			s.logger.Warn("reload after status change failed", "error", err)
		}
		return nil
	}
	s.Load(ctx)
	return nil
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.gen++
	changed := s.data != nil || s.err != nil
	s.data = nil
	s.err = nil
	s.switched = ""
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Store) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data != nil
}

func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) SwitchedVenue() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.switched
}

func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil
	}
	u := s.data.User
	u.Permissions = slices.Clone(u.Permissions)
	return &u
}

func (s *Store) Venue() *api.Venue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil || s.data.Venue == nil {
		return nil
	}
	v := *s.data.Venue
	return &v
}

func (s *Store) Workspace() *api.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil || s.data.Workspace == nil {
		return nil
	}
	w := *s.data.Workspace
	return &w
}

func (s *Store) Statistics() *api.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil || s.data.Statistics == nil {
		return nil
	}
	st := *s.data.Statistics
	return &st
}

func (s *Store) MenuItems() []api.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return []api.MenuItem{}
	}
	return append([]api.MenuItem{}, s.data.MenuItems...)
}

func (s *Store) Tables() []api.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return []api.Table{}
	}
	return append([]api.Table{}, s.data.Tables...)
}

func (s *Store) RecentOrders() []api.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return []api.Order{}
	}
	return append([]api.Order{}, s.data.RecentOrders...)
}

func (s *Store) Users() []api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return []api.User{}
	}
	return append([]api.User{}, s.data.Users...)
}

func (s *Store) Subject() *permission.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjectLocked()
}

func (s *Store) subjectLocked() *permission.Subject {
	if s.data == nil {
		return nil
	}
	return s.data.User.Subject(s.data.Permissions...)
}

func (s *Store) IsSuperAdmin() bool {
	return permission.HasRole(s.Subject(), permission.RoleSuperAdmin)
}

func (s *Store) IsAdmin() bool {
	return permission.HasRole(s.Subject(), permission.RoleAdmin)
}

func (s *Store) IsOperator() bool {
	return permission.HasRole(s.Subject(), permission.RoleOperator)
}

func (s *Store) HasPermission(c permission.Capability) bool {
	return permission.HasPermission(s.Subject(), c)
}

func (s *Store) OnChange(fn func()) func() {
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

func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

func classify(err error) error {
	if api.IsNotFound(err) {
		return fmt.Errorf("%w: %w", core.ErrVenueNotAssigned, err)
	}
	return fmt.Errorf("%w: %w", core.ErrDataLoad, err)
}

func merge(current, scoped *api.UserData, self *permission.Subject, venueID string) *api.UserData {
	out := *scoped

	if current != nil {
		out.User = current.User
		out.User.Permissions = slices.Clone(current.User.Permissions)
		out.Workspace = current.Workspace
		out.Permissions = slices.Clone(current.Permissions)
	} else {
		out.User = api.User{
			ID:          self.ID,
			Role:        string(self.Role),
			WorkspaceID: self.WorkspaceID,
			Permissions: slices.Clone(self.BackendPermissions),
		}
		out.Permissions = nil
	}

	out.User.VenueID = venueID
	return &out
}
