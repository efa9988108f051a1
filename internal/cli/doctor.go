// AngelaMos | 2026
// doctor.go

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newDoctorCommand(rt *runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the backend and session storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd, false)
			if err != nil {
				return err
			}
			defer rt.close(cmd)

			report := a.Health.Run(cmd.Context())
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				for _, c := range report.Checks {
					mark := "ok"
					if !c.Healthy {
						mark = "FAIL"
					}
					fmt.Fprintf(out, "%-8s %-4s %s %s\n", c.Name, mark, c.Latency, c.Message)
				}
				fmt.Fprintln(out, report.Status)
			}

			if !report.Healthy() {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
