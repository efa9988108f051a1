// AngelaMos | 2026
// guard.go

package userdata

import (
	"errors"

	"github.com/carterperez-dev/venuedesk/internal/api"
	"github.com/carterperez-dev/venuedesk/internal/core"
	"github.com/carterperez-dev/venuedesk/internal/permission"
)

// Assignment says whether the signed-in user has a usable venue. Pages that
// need a venue render the assignment message when RequiresVenueAssignment is
// set instead of checking the venue themselves.
type Assignment struct {
	HasVenueAssigned        bool
	VenueID                 string
	RequiresVenueAssignment bool
	CanBypassVenueCheck     bool
}

func AssignmentFor(role permission.Role, venue *api.Venue) Assignment {
	a := Assignment{
		CanBypassVenueCheck: role == permission.RoleSuperAdmin,
	}
	if venue != nil && venue.ID != "" {
		a.HasVenueAssigned = true
		a.VenueID = venue.ID
	}
	a.RequiresVenueAssignment = !a.HasVenueAssigned && !a.CanBypassVenueCheck
	return a
}

// Assignment is recomputed on every call from the session role and the
// cached venue.
func (s *Store) Assignment() Assignment {
	var role permission.Role
	if self := s.session.Subject(); self != nil {
		role = self.Role
	}
	return AssignmentFor(role, s.Venue())
}

// StatusMessage is the one line consumers show in place of venue-scoped
// content, or "" when there is nothing to report.
func (s *Store) StatusMessage() string {
	a := s.Assignment()
	err := s.Err()

	switch {
	case err != nil && errors.Is(err, core.ErrVenueNotAssigned) && a.CanBypassVenueCheck:
		return ""
	case err != nil:
		return core.UserMessage(err)
	case s.HasData() && a.RequiresVenueAssignment:
		return core.UserMessage(core.ErrVenueNotAssigned)
	}
	return ""
}
