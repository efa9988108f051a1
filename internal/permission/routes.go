// AngelaMos | 2026
// routes.go

package permission

import (
	"path"
	"strings"
)

type routeRule struct {
	prefix string
	roles  []Role
	anyOf  []Capability
}

// Longest prefix wins. A rule with neither roles nor capabilities admits any
// recognized role.
var routeTable = []routeRule{
	{prefix: "/dashboard"},
	{prefix: "/profile"},
	{prefix: "/orders", anyOf: []Capability{OrdersView}},
	{prefix: "/menu", anyOf: []Capability{MenuView}},
	{prefix: "/menu/edit", anyOf: []Capability{MenuUpdate, CanManageMenuBackend}},
	{prefix: "/tables", anyOf: []Capability{TablesView}},
	{prefix: "/tables/edit", anyOf: []Capability{TablesUpdate, CanManageTablesBackend}},
	{prefix: "/users", anyOf: []Capability{UsersView, CanManageUsersBackend}},
	{prefix: "/analytics", anyOf: []Capability{AnalyticsView, CanViewAnalyticsBackend}},
	{prefix: "/settings", anyOf: []Capability{SettingsView, CanManageSettingsBackend}},
	{prefix: "/venue", anyOf: []Capability{VenueView}},
	{prefix: "/admin", roles: []Role{RoleAdmin, RoleSuperAdmin}},
	{prefix: "/superadmin", roles: []Role{RoleSuperAdmin}},
	{prefix: "/workspace", anyOf: []Capability{WorkspaceView}},
}

func matchRoute(p string) (routeRule, bool) {
	if p == "" {
		return routeRule{}, false
	}
	clean := path.Clean("/" + strings.TrimSpace(p))

	var best routeRule
	found := false
	for _, rule := range routeTable {
		if clean != rule.prefix && !strings.HasPrefix(clean, rule.prefix+"/") {
			continue
		}
		if !found || len(rule.prefix) > len(best.prefix) {
			best = rule
			found = true
		}
	}
	return best, found
}

// CanAccessRoute denies paths outside the route table.
func CanAccessRoute(u *Subject, routePath string) bool {
	if !known(u) {
		return false
	}

	rule, ok := matchRoute(routePath)
	if !ok {
		return false
	}

	if len(rule.roles) > 0 && !HasAnyRole(u, rule.roles...) {
		return false
	}

	if len(rule.anyOf) > 0 && !HasAnyPermission(u, rule.anyOf...) {
		return false
	}

	return true
}
