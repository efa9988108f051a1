// AngelaMos | 2026
// steps.go

package tour

import (
	"slices"

	"github.com/carterperez-dev/venuedesk/internal/permission"
)

// Step highlights one UI element. Target is the element id the overlay
// attaches to.
type Step struct {
	Target string
	Title  string
	Body   string
}

var (
	welcomeStep = Step{
		Target: "dashboard",
		Title:  "Welcome",
		Body:   "This is your dashboard. Today's orders and revenue show up here.",
	}

	superAdminSteps = []Step{
		welcomeStep,
		{
			Target: "venue-switcher",
			Title:  "Switch venues",
			Body:   "Pick any venue in the workspace to view its menu, tables and orders.",
		},
		{
			Target: "workspace",
			Title:  "Workspace",
			Body:   "Manage the venues and staff that belong to your organization.",
		},
		{
			Target: "users",
			Title:  "Staff",
			Body:   "Invite administrators and operators and assign them to venues.",
		},
		{
			Target: "analytics",
			Title:  "Analytics",
			Body:   "Compare performance across every venue.",
		},
	}

	adminSteps = []Step{
		welcomeStep,
		{
			Target: "venue-status",
			Title:  "Open and close",
			Body:   "Toggle whether your venue is accepting orders.",
		},
		{
			Target: "menu",
			Title:  "Menu",
			Body:   "Add dishes, set prices and mark items unavailable.",
		},
		{
			Target: "tables",
			Title:  "Tables",
			Body:   "Lay out your floor and track which tables are occupied.",
		},
		{
			Target: "users",
			Title:  "Staff",
			Body:   "Give your operators access to the venue.",
		},
	}

	operatorSteps = []Step{
		welcomeStep,
		{
			Target: "orders",
			Title:  "Orders",
			Body:   "New orders arrive here. Move them along as the kitchen works.",
		},
		{
			Target: "tables",
			Title:  "Tables",
			Body:   "See which tables are free before seating guests.",
		},
	}
)

// StepsFor returns a copy of the role's steps. Unrecognized roles get the
// admin tour.
func StepsFor(role permission.Role) []Step {
	switch role {
	case permission.RoleSuperAdmin:
		return slices.Clone(superAdminSteps)
	case permission.RoleOperator:
		return slices.Clone(operatorSteps)
	default:
		return slices.Clone(adminSteps)
	}
}
