// AngelaMos | 2026
// venue.go

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSwitchVenueCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "switch-venue <venue-id>",
		Short: "Show another venue's data (superadmin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd, true)
			if err != nil {
				return err
			}
			defer rt.close(cmd)

			if err := requireSession(cmd, a); err != nil {
				return err
			}

			if err := a.Data.SwitchVenue(cmd.Context(), args[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			v := a.Data.Venue()
			if v == nil {
				fmt.Fprintf(out, "Venue %s has no details\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "Viewing %s (%s)\n", venueLabel(v.Name, v.ID), openLabel(v.IsOpen))
			fmt.Fprintf(out, "%d menu items, %d tables, %d recent orders\n",
				len(a.Data.MenuItems()), len(a.Data.Tables()), len(a.Data.RecentOrders()))
			return nil
		},
	}
}

func newVenueCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "venue",
		Short: "Manage the assigned venue",
	}

	cmd.AddCommand(
		newVenueStatusCommand(rt, "open", true),
		newVenueStatusCommand(rt, "close", false),
	)
	return cmd
}

func newVenueStatusCommand(rt *runtime, use string, open bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Mark the venue as %s", openLabel(open)),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd, true)
			if err != nil {
				return err
			}
			defer rt.close(cmd)

			if err := requireSession(cmd, a); err != nil {
				return err
			}

			if err := a.Data.SetVenueStatus(cmd.Context(), open); err != nil {
				return err
			}

			v := a.Data.Venue()
			if v == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Venue marked %s\n", openLabel(open))
				if msg := a.Data.StatusMessage(); msg != "" {
					fmt.Fprintln(cmd.OutOrStdout(), msg)
				}
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", venueLabel(v.Name, v.ID), openLabel(v.IsOpen))
			return nil
		},
	}
}

func venueLabel(name, id string) string {
	if name == "" {
		return id
	}
	return name
}

func openLabel(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}
