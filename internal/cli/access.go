// AngelaMos | 2026
// access.go

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/venuedesk/internal/app"
	"github.com/carterperez-dev/venuedesk/internal/permission"
)

func newCanCommand(rt *runtime) *cobra.Command {
	var route bool

	cmd := &cobra.Command{
		Use:   "can <permission> | <resource> <action> | --route <path>",
		Short: "Check whether the signed-in user holds a permission",
		Long: `Check one capability for the signed-in user and exit non-zero when it is
denied. Dotted names such as menu.create are checked against the role table;
backend grants such as can_manage_menu against the account's permission list.`,
		Example: `  venuedesk can menu.create
  venuedesk can can_manage_tables
  venuedesk can orders update
  venuedesk can --route /settings`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd, true)
			if err != nil {
				return err
			}
			defer rt.close(cmd)

			subject := subjectOf(a)

			var allowed bool
			switch {
			case route:
				allowed = permission.CanAccessRoute(subject, args[0])
			case len(args) == 2:
				allowed = permission.CanPerformAction(subject, args[0], args[1])
			default:
				allowed = permission.HasPermission(subject, parseCapability(args[0]))
			}

			if allowed {
				fmt.Fprintln(cmd.OutOrStdout(), "allowed")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "denied")
			return &ExitError{Code: 1}
		},
	}

	cmd.Flags().BoolVar(&route, "route", false, "treat the argument as a route path")
	return cmd
}

// subjectOf prefers the account payload, which carries backend grants, and
// falls back to the session.
func subjectOf(a *app.App) *permission.Subject {
	if s := a.Data.Subject(); s != nil {
		return s
	}
	return a.Session.Subject()
}

func parseCapability(name string) permission.Capability {
	name = strings.TrimSpace(name)
	if strings.Contains(name, ".") {
		return permission.Permission(strings.ToLower(name))
	}
	return permission.BackendPermission(name)
}
