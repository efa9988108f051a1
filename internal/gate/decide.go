// AngelaMos | 2026
// decide.go

// Package gate decides whether a role-gated piece of UI is shown. Denials
// never surface as errors; they render a fallback or nothing at all.
package gate

import (
	"github.com/carterperez-dev/venuedesk/internal/permission"
)

type Decision int

const (
	RenderChildren Decision = iota
	RenderFallback
	RenderNothing
)

func (d Decision) String() string {
	switch d {
	case RenderChildren:
		return "children"
	case RenderFallback:
		return "fallback"
	case RenderNothing:
		return "nothing"
	default:
		return "unknown"
	}
}

// Rule describes who may see a gated section. The role axis and the
// permission axis are ANDed; within each axis an empty list passes.
type Rule struct {
	AllowedRoles   []permission.Role
	Required       []permission.Capability
	RequireAll     bool
	VenueScope     string
	WorkspaceScope string
	Silent         bool
}

func Decide(u *permission.Subject, authenticated bool, r Rule) Decision {
	deny := RenderFallback
	if r.Silent {
		deny = RenderNothing
	}

	if !authenticated || u == nil || !u.Role.Valid() {
		return deny
	}

	if r.WorkspaceScope != "" && r.WorkspaceScope != u.WorkspaceID {
		return deny
	}

	// A user without a venue is the assignment guard's concern, not ours.
	if r.VenueScope != "" && u.VenueID != "" && r.VenueScope != u.VenueID {
		return deny
	}

	if roleAllowed(u, r.AllowedRoles) && permitted(u, r) {
		return RenderChildren
	}
	return deny
}

func roleAllowed(u *permission.Subject, roles []permission.Role) bool {
	if len(roles) == 0 {
		return true
	}
	return permission.HasAnyRole(u, roles...)
}

func permitted(u *permission.Subject, r Rule) bool {
	if len(r.Required) == 0 {
		return true
	}
	if r.RequireAll {
		return permission.HasAllPermissions(u, r.Required...)
	}
	return permission.HasAnyPermission(u, r.Required...)
}

// AdminOnly is the rule for sections restricted to admin-level roles.
func AdminOnly() Rule {
	return Rule{AllowedRoles: []permission.Role{permission.RoleAdmin, permission.RoleSuperAdmin}}
}

// SuperAdminOnly renders nothing for everyone else.
func SuperAdminOnly() Rule {
	return Rule{AllowedRoles: []permission.Role{permission.RoleSuperAdmin}, Silent: true}
}

// Requiring gates on any one of the capabilities.
func Requiring(cs ...permission.Capability) Rule {
	return Rule{Required: cs}
}
