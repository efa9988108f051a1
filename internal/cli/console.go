// AngelaMos | 2026
// console.go

package cli

import (
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/venuedesk/internal/app"
	"github.com/carterperez-dev/venuedesk/internal/console"
	"github.com/carterperez-dev/venuedesk/internal/initializer"
	"github.com/carterperez-dev/venuedesk/internal/session"
	"github.com/carterperez-dev/venuedesk/internal/tour"
)

func newConsoleCommand(rt *runtime) *cobra.Command {
	var inline bool

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the interactive venue dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd, true)
			if err != nil {
				return err
			}
			defer rt.close(cmd)

			return console.Run(cmd.Context(), console.Config{
				Session:   a.Session,
				Data:      a.Data,
				Tour:      a.Tour,
				Subscribe: subscribeAll(a),
				Input:     cmd.InOrStdin(),
				Output:    cmd.OutOrStdout(),
				AltScreen: !inline,
			})
		},
	}

	cmd.Flags().BoolVar(&inline, "inline", false, "render below the prompt instead of full screen")
	return cmd
}

func subscribeAll(a *app.App) console.Subscribe {
	return func(fn func()) func() {
		unsubs := []func(){
			a.Session.OnChange(func(*session.Session) { fn() }),
			a.Data.OnChange(fn),
			a.Initializer.OnChange(func(initializer.State) { fn() }),
			a.Tour.OnChange(func(tour.State) { fn() }),
		}
		return func() {
			for _, u := range unsubs {
				u()
			}
		}
	}
}
