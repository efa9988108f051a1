// AngelaMos | 2026
// dto.go

package api

import (
	"time"

	"github.com/carterperez-dev/venuedesk/internal/permission"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"  validate:"omitempty,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,min=5,max=32"`
}

type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Phone       string   `json:"phone,omitempty"`
	Role        string   `json:"role"`
	WorkspaceID string   `json:"workspace_id"`
	VenueID     string   `json:"venue_id,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Subject is the resolver snapshot for this user. extra backend permissions,
// typically UserData.Permissions, are appended to the user's own list.
func (u *User) Subject(extra ...string) *permission.Subject {
	if u == nil {
		return nil
	}

	perms := make([]string, 0, len(u.Permissions)+len(extra))
	perms = append(perms, u.Permissions...)
	perms = append(perms, extra...)

	return &permission.Subject{
		ID:                 u.ID,
		Role:               permission.ParseRole(u.Role),
		WorkspaceID:        u.WorkspaceID,
		VenueID:            u.VenueID,
		BackendPermissions: perms,
	}
}

type Venue struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	WorkspaceID string `json:"workspace_id"`
	IsOpen      bool   `json:"is_open"`
	IsActive    bool   `json:"is_active"`
}

type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Statistics struct {
	TotalOrders  int     `json:"total_orders"`
	OrdersToday  int     `json:"orders_today"`
	RevenueToday float64 `json:"revenue_today"`
	ActiveTables int     `json:"active_tables"`
	TotalTables  int     `json:"total_tables"`
	MenuItems    int     `json:"menu_items"`
}

type MenuItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

type Table struct {
	ID       string `json:"id"`
	Number   int    `json:"number"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
}

type Order struct {
	ID        string    `json:"id"`
	TableID   string    `json:"table_id,omitempty"`
	Status    string    `json:"status"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// UserData is the composite account payload. Venue and Workspace are null
// for users the backend has not attached to either yet.
type UserData struct {
	User         User        `json:"user"`
	Venue        *Venue      `json:"venue"`
	Workspace    *Workspace  `json:"workspace"`
	Statistics   *Statistics `json:"statistics,omitempty"`
	MenuItems    []MenuItem  `json:"menu_items,omitempty"`
	Tables       []Table     `json:"tables,omitempty"`
	RecentOrders []Order     `json:"recent_orders,omitempty"`
	Users        []User      `json:"users,omitempty"`
	Permissions  []string    `json:"permissions,omitempty"`
}

type VenueStatusRequest struct {
	IsOpen bool `json:"is_open"`
}

type TourStatus struct {
	Completed bool `json:"completed"`
	Skipped   bool `json:"skipped"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
