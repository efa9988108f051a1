// AngelaMos | 2026
// tour.go

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/venuedesk/internal/tour"
)

func newTourCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tour",
		Short: "Inspect or dismiss the first-run walkthrough",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the walkthrough was completed or skipped",
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

				st, err := a.Client.TourStatus(cmd.Context(), a.Session.Token())
				if err != nil {
					return fmt.Errorf("tour status: %w", err)
				}

				status := tour.StatusNotStarted
				switch {
				case st.Completed:
					status = tour.StatusCompleted
				case st.Skipped:
					status = tour.StatusSkipped
				}
				fmt.Fprintln(cmd.OutOrStdout(), status)

				steps := tour.StepsFor(a.Session.Role())
				fmt.Fprintf(cmd.OutOrStdout(), "%d steps for %s\n", len(steps), a.Session.Role())
				return nil
			},
		},
		&cobra.Command{
			Use:   "skip",
			Short: "Dismiss the walkthrough for this account",
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

				if err := a.Tour.Skip(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.Tour.State().Status)
				return nil
			},
		},
	)

	return cmd
}
