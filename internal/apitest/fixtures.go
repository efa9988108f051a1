// AngelaMos | 2026
// fixtures.go

package apitest

import (
	"time"

	"github.com/carterperez-dev/venuedesk/internal/api"
)

const Password = "correct-horse-battery"

const (
	WorkspaceID = "ws-harbor"
	HarborVenue = "v-harbor"
	GardenVenue = "v-garden"
)

var (
	Owner = api.User{
		ID:          "u-owner",
		Email:       "owner@harbor.test",
		Name:        "Olivia Owner",
		Role:        "superadmin",
		WorkspaceID: WorkspaceID,
	}
	Manager = api.User{
		ID:          "u-manager",
		Email:       "manager@harbor.test",
		Name:        "Max Manager",
		Role:        "admin",
		WorkspaceID: WorkspaceID,
		VenueID:     HarborVenue,
		Permissions: []string{"can_manage_menu"},
	}
	Operator = api.User{
		ID:          "u-server",
		Email:       "server@harbor.test",
		Name:        "Sam Server",
		Role:        "operator",
		WorkspaceID: WorkspaceID,
		VenueID:     HarborVenue,
	}
	Newcomer = api.User{
		ID:          "u-new",
		Email:       "new@harbor.test",
		Name:        "Nia Newcomer",
		Role:        "admin",
		WorkspaceID: WorkspaceID,
	}
)

func harborData(user api.User) *api.UserData {
	return &api.UserData{
		User:      user,
		Venue:     &api.Venue{ID: HarborVenue, Name: "Harbor Cafe", WorkspaceID: WorkspaceID, IsActive: true},
		Workspace: &api.Workspace{ID: WorkspaceID, Name: "Harbor Group"},
		Statistics: &api.Statistics{
			TotalOrders: 120, OrdersToday: 14, RevenueToday: 512.5,
			ActiveTables: 3, TotalTables: 8, MenuItems: 2,
		},
		MenuItems: []api.MenuItem{
			{ID: "m-1", Name: "Flat White", Category: "coffee", Price: 4.2, Available: true},
			{ID: "m-2", Name: "Croissant", Category: "bakery", Price: 3.1, Available: true},
		},
		Tables: []api.Table{
			{ID: "t-1", Number: 1, Capacity: 2, Status: "occupied"},
			{ID: "t-2", Number: 2, Capacity: 4, Status: "free"},
		},
		RecentOrders: []api.Order{
			{ID: "o-1", TableID: "t-1", Status: "served", Total: 8.4, CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		},
		Permissions: user.Permissions,
	}
}

func gardenData() api.UserData {
	return api.UserData{
		User:      api.User{ID: "u-garden-admin", Role: "admin", WorkspaceID: WorkspaceID, VenueID: GardenVenue},
		Venue:     &api.Venue{ID: GardenVenue, Name: "Garden Bistro", WorkspaceID: WorkspaceID, IsOpen: true, IsActive: true},
		Workspace: &api.Workspace{ID: WorkspaceID, Name: "Harbor Group"},
		Statistics: &api.Statistics{
			TotalOrders: 40, OrdersToday: 5, RevenueToday: 210,
			ActiveTables: 1, TotalTables: 6, MenuItems: 1,
		},
		MenuItems: []api.MenuItem{
			{ID: "m-9", Name: "Garden Salad", Category: "mains", Price: 11, Available: true},
		},
		Tables: []api.Table{{ID: "t-9", Number: 9, Capacity: 6, Status: "reserved"}},
	}
}

// Seed registers the standard accounts: an owner with no venue, a manager and
// an operator at the harbor venue, and a newcomer whose user data is 404.
func (s *Server) Seed() {
	ownerData := &api.UserData{
		User:      Owner,
		Workspace: &api.Workspace{ID: WorkspaceID, Name: "Harbor Group"},
	}

	s.AddAccount(Owner, Password, ownerData)
	s.AddAccount(Manager, Password, harborData(Manager))
	s.AddAccount(Operator, Password, harborData(Operator))
	s.AddAccount(Newcomer, Password, nil)

	s.AddVenue(*harborData(api.User{ID: "u-harbor-admin", Role: "admin", WorkspaceID: WorkspaceID, VenueID: HarborVenue}))
	s.AddVenue(gardenData())
}
