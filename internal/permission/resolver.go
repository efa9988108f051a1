// AngelaMos | 2026
// resolver.go

package permission

import (
	"strings"
)

func known(u *Subject) bool {
	return u != nil && u.Role.Valid()
}

func HasRole(u *Subject, role Role) bool {
	if !known(u) {
		return false
	}
	return u.Role == role
}

func HasAnyRole(u *Subject, roles ...Role) bool {
	for _, role := range roles {
		if HasRole(u, role) {
			return true
		}
	}
	return false
}

func HasPermission(u *Subject, c Capability) bool {
	if !known(u) || c == nil {
		return false
	}

	switch p := c.(type) {
	case Permission:
		_, ok := rolePermissions[u.Role][p]
		return ok
	case BackendPermission:
		for _, granted := range u.BackendPermissions {
			if granted == string(p) || granted == string(FullAccessBackend) {
				return true
			}
		}
	}
	return false
}

func HasAnyPermission(u *Subject, cs ...Capability) bool {
	for _, c := range cs {
		if HasPermission(u, c) {
			return true
		}
	}
	return false
}

// HasAllPermissions holds vacuously for a recognized subject and an empty
// list. Nil and unrecognized subjects always fail.
func HasAllPermissions(u *Subject, cs ...Capability) bool {
	if !known(u) {
		return false
	}
	for _, c := range cs {
		if !HasPermission(u, c) {
			return false
		}
	}
	return true
}

func CanPerformAction(u *Subject, resource, action string) bool {
	resource = strings.ToLower(strings.TrimSpace(resource))
	action = strings.ToLower(strings.TrimSpace(action))
	if resource == "" || action == "" {
		return false
	}
	return HasPermission(u, Permission(resource+"."+action))
}

func CanManageMenu(u *Subject) bool {
	return HasAnyPermission(u, MenuUpdate, CanManageMenuBackend)
}

func CanManageTables(u *Subject) bool {
	return HasAnyPermission(u, TablesUpdate, CanManageTablesBackend)
}

func CanManageOrders(u *Subject) bool {
	return HasAnyPermission(u, OrdersUpdate, CanManageOrdersBackend)
}

func CanManageUsers(u *Subject) bool {
	return HasAnyPermission(u, UsersUpdate, CanManageUsersBackend)
}

func CanManageVenue(u *Subject) bool {
	return HasAnyPermission(u, VenueManageStatus, VenueUpdate, CanManageVenueBackend)
}

func CanManageSettings(u *Subject) bool {
	return HasAnyPermission(u, SettingsUpdate, CanManageSettingsBackend)
}

func CanViewAnalytics(u *Subject) bool {
	return HasAnyPermission(u, AnalyticsView, CanViewAnalyticsBackend)
}
