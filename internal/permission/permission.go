// AngelaMos | 2026
// permission.go

package permission

import (
	"strings"
)

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleOperator   Role = "operator"
)

// ParseRole normalizes backend spellings ("SuperAdmin", "super_admin").
// Anything outside the closed set is returned as-is and fails Valid.
func ParseRole(s string) Role {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)

	switch Role(normalized) {
	case RoleSuperAdmin, RoleAdmin, RoleOperator:
		return Role(normalized)
	}
	return Role(s)
}

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleOperator:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Capability is either a Permission from the typed vocabulary, resolved
// through the role table, or a BackendPermission string issued by the
// server for a specific user.
type Capability interface {
	capability() string
}

type Permission string

type BackendPermission string

func (p Permission) capability() string { return string(p) }
func (p BackendPermission) capability() string { return string(p) }

func (p Permission) String() string { return string(p) }
func (p BackendPermission) String() string { return string(p) }

const (
	MenuView   Permission = "menu.view"
	MenuCreate Permission = "menu.create"
	MenuUpdate Permission = "menu.update"
	MenuDelete Permission = "menu.delete"

	TablesView   Permission = "tables.view"
	TablesCreate Permission = "tables.create"
	TablesUpdate Permission = "tables.update"
	TablesDelete Permission = "tables.delete"

	OrdersView   Permission = "orders.view"
	OrdersCreate Permission = "orders.create"
	OrdersUpdate Permission = "orders.update"
	OrdersDelete Permission = "orders.delete"

	VenueView         Permission = "venue.view"
	VenueUpdate       Permission = "venue.update"
	VenueManageStatus Permission = "venue.status"
	VenueSwitch       Permission = "venue.switch"

	UsersView   Permission = "users.view"
	UsersCreate Permission = "users.create"
	UsersUpdate Permission = "users.update"
	UsersDelete Permission = "users.delete"

	AnalyticsView Permission = "analytics.view"

	SettingsView   Permission = "settings.view"
	SettingsUpdate Permission = "settings.update"

	WorkspaceView   Permission = "workspace.view"
	WorkspaceManage Permission = "workspace.manage"
)

const (
	CanManageMenuBackend     BackendPermission = "can_manage_menu"
	CanManageTablesBackend   BackendPermission = "can_manage_tables"
	CanManageOrdersBackend   BackendPermission = "can_manage_orders"
	CanManageUsersBackend    BackendPermission = "can_manage_users"
	CanManageVenueBackend    BackendPermission = "can_manage_venue"
	CanManageSettingsBackend BackendPermission = "can_manage_settings"
	CanViewAnalyticsBackend  BackendPermission = "can_view_analytics"
	FullAccessBackend        BackendPermission = "full_access"
)

var allPermissions = []Permission{
	MenuView, MenuCreate, MenuUpdate, MenuDelete,
	TablesView, TablesCreate, TablesUpdate, TablesDelete,
	OrdersView, OrdersCreate, OrdersUpdate, OrdersDelete,
	VenueView, VenueUpdate, VenueManageStatus, VenueSwitch,
	UsersView, UsersCreate, UsersUpdate, UsersDelete,
	AnalyticsView,
	SettingsView, SettingsUpdate,
	WorkspaceView, WorkspaceManage,
}

var rolePermissions = buildRoleTable()

func buildRoleTable() map[Role]map[Permission]struct{} {
	set := func(perms ...Permission) map[Permission]struct{} {
		m := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			m[p] = struct{}{}
		}
		return m
	}

	return map[Role]map[Permission]struct{}{
		RoleSuperAdmin: set(allPermissions...),
		RoleAdmin: set(
			MenuView, MenuCreate, MenuUpdate, MenuDelete,
			TablesView, TablesCreate, TablesUpdate, TablesDelete,
			OrdersView, OrdersCreate, OrdersUpdate, OrdersDelete,
			VenueView, VenueUpdate, VenueManageStatus,
			UsersView, UsersCreate, UsersUpdate, UsersDelete,
			AnalyticsView,
			SettingsView, SettingsUpdate,
			WorkspaceView,
		),
		RoleOperator: set(
			MenuView,
			TablesView,
			OrdersView, OrdersCreate, OrdersUpdate,
			VenueView,
		),
	}
}

// PermissionsFor returns a copy of the role's typed permission set; unknown
// roles get an empty slice.
func PermissionsFor(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, 0, len(perms))
	for _, p := range allPermissions {
		if _, ok := perms[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Subject is the read-only snapshot of a user every predicate runs against.
type Subject struct {
	ID                 string
	Role               Role
	WorkspaceID        string
	VenueID            string
	BackendPermissions []string
}

func IsAdminLevel(role Role) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}
