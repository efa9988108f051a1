// AngelaMos | 2026
// sections.go

package console

import (
	"fmt"
	"strings"

	"github.com/carterperez-dev/venuedesk/internal/api"
	"github.com/carterperez-dev/venuedesk/internal/gate"
	"github.com/carterperez-dev/venuedesk/internal/permission"
)

// Section is one panel of the dashboard. IDs double as tour targets.
type Section struct {
	ID         string
	Title      string
	Rule       gate.Rule
	NeedsVenue bool
	// ScopeToWorkspace pins the rule to the loaded workspace.
	ScopeToWorkspace bool
	Render           func(Data) string
}

func withRoles(r gate.Rule, roles ...permission.Role) gate.Rule {
	r.AllowedRoles = roles
	return r
}

// Sections is the dashboard layout in display order.
var Sections = []Section{
	{
		ID:         "dashboard",
		Title:      "Today",
		NeedsVenue: true,
		Render:     renderToday,
	},
	{
		ID:         "venue-status",
		Title:      "Venue status",
		Rule:       gate.Requiring(permission.VenueManageStatus, permission.CanManageVenueBackend),
		NeedsVenue: true,
		Render:     renderVenueStatus,
	},
	{
		ID:         "orders",
		Title:      "Orders",
		Rule:       gate.Requiring(permission.OrdersView, permission.CanManageOrdersBackend),
		NeedsVenue: true,
		Render:     renderOrders,
	},
	{
		ID:         "menu",
		Title:      "Menu",
		Rule:       gate.Requiring(permission.MenuView, permission.CanManageMenuBackend),
		NeedsVenue: true,
		Render:     renderMenu,
	},
	{
		ID:         "tables",
		Title:      "Tables",
		Rule:       gate.Requiring(permission.TablesView, permission.CanManageTablesBackend),
		NeedsVenue: true,
		Render:     renderTables,
	},
	{
		ID:    "users",
		Title: "Staff",
		Rule: withRoles(
			gate.Requiring(permission.UsersView, permission.CanManageUsersBackend),
			permission.RoleAdmin, permission.RoleSuperAdmin,
		),
		Render: renderUsers,
	},
	{
		ID:    "analytics",
		Title: "Analytics",
		Rule: gate.Rule{
			Required: []permission.Capability{permission.AnalyticsView, permission.CanViewAnalyticsBackend},
			Silent:   true,
		},
		NeedsVenue: true,
		Render:     renderAnalytics,
	},
	{
		ID:               "workspace",
		Title:            "Workspace",
		Rule:             gate.SuperAdminOnly(),
		ScopeToWorkspace: true,
		Render:           renderWorkspace,
	},
	{
		ID:     "venue-switcher",
		Title:  "Switch venue",
		Rule:   gate.SuperAdminOnly(),
		Render: renderSwitcher,
	},
}

func renderToday(d Data) string {
	stats := d.Statistics()
	if stats == nil {
		return "No statistics yet."
	}
	return fmt.Sprintf("%d orders today, %.2f revenue, %d/%d tables active",
		stats.OrdersToday, stats.RevenueToday, stats.ActiveTables, stats.TotalTables)
}

func renderVenueStatus(d Data) string {
	v := d.Venue()
	if v == nil {
		return ""
	}
	state := "closed"
	if v.IsOpen {
		state = "open"
	}
	return fmt.Sprintf("%s is %s", v.Name, state)
}

func renderOrders(d Data) string {
	orders := d.RecentOrders()
	if len(orders) == 0 {
		return "No recent orders."
	}
	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("%s  %-10s %8.2f", o.ID, o.Status, o.Total))
	}
	return strings.Join(lines, "\n")
}

func renderMenu(d Data) string {
	items := d.MenuItems()
	if len(items) == 0 {
		return "The menu is empty."
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		mark := ""
		if !it.Available {
			mark = " (unavailable)"
		}
		lines = append(lines, fmt.Sprintf("%-20s %6.2f%s", it.Name, it.Price, mark))
	}
	return strings.Join(lines, "\n")
}

func renderTables(d Data) string {
	tables := d.Tables()
	if len(tables) == 0 {
		return "No tables configured."
	}
	lines := make([]string, 0, len(tables))
	for _, t := range tables {
		lines = append(lines, fmt.Sprintf("#%-3d seats %-2d %s", t.Number, t.Capacity, t.Status))
	}
	return strings.Join(lines, "\n")
}

func renderUsers(d Data) string {
	users := d.Users()
	if len(users) == 0 {
		return "No staff listed."
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, fmt.Sprintf("%s (%s)", u.Name, u.Role))
	}
	return strings.Join(names, "\n")
}

func renderAnalytics(d Data) string {
	stats := d.Statistics()
	if stats == nil {
		return "No statistics yet."
	}
	return fmt.Sprintf("%d orders all time, %d menu items", stats.TotalOrders, stats.MenuItems)
}

func renderWorkspace(d Data) string {
	ws := d.Workspace()
	if ws == nil {
		return "No workspace."
	}
	return ws.Name
}

func renderSwitcher(d Data) string {
	v := d.Venue()
	if v == nil {
		return "Viewing no venue. Use `venuedesk switch-venue <id>`."
	}
	return fmt.Sprintf("Viewing %s. Use `venuedesk switch-venue <id>`.", v.Name)
}

// venueName tolerates a missing venue.
func venueName(v *api.Venue) string {
	if v == nil || v.Name == "" {
		return "no venue"
	}
	return v.Name
}
