// AngelaMos | 2026
// auth.go

package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/venuedesk/internal/initializer"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var email, passwordFile string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		Long: `Sign in with email and password. The password is read from
--password-file, an interactive prompt, or the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), passwordFile)
			if err != nil {
				return err
			}

			a, err := rt.open(cmd, false)
			if err != nil {
				return err
			}
			defer rt.close(cmd)

			sess, err := a.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Signed in as %s (%s)\n", sess.Email, sess.Role)
			if msg := a.Data.StatusMessage(); msg != "" {
				fmt.Fprintln(out, msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "read the password from this file")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd, false)
			if err != nil {
				return err
			}
			defer rt.close(cmd)

			a.Session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

type whoami struct {
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
	Role           string    `json:"role"`
	WorkspaceID    string    `json:"workspace_id,omitempty"`
	VenueID        string    `json:"venue_id,omitempty"`
	VenueName      string    `json:"venue_name,omitempty"`
	Demo           bool      `json:"demo,omitempty"`
	ExpiresAt      time.Time `json:"expires_at,omitzero"`
	DataState      string    `json:"data_state"`
	RequiresVenue  bool      `json:"requires_venue_assignment"`
	CanBypassVenue bool      `json:"can_bypass_venue_check"`
	StatusMessage  string    `json:"status_message,omitempty"`
	Permissions    []string  `json:"permissions,omitempty"`
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and venue assignment",
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

			sess := a.Session.Current()
			assignment := a.Data.Assignment()
			w := whoami{
				UserID:         sess.UserID,
				Email:          sess.Email,
				Name:           sess.Name,
				Role:           sess.Role.String(),
				WorkspaceID:    sess.WorkspaceID,
				VenueID:        assignment.VenueID,
				Demo:           sess.Demo,
				DataState:      string(a.Initializer.State()),
				RequiresVenue:  assignment.RequiresVenueAssignment,
				CanBypassVenue: assignment.CanBypassVenueCheck,
				StatusMessage:  a.Data.StatusMessage(),
			}
			if exp, ok := a.Session.ExpiresAt(); ok {
				w.ExpiresAt = exp
			}
			if v := a.Data.Venue(); v != nil {
				w.VenueName = v.Name
			}
			if u := a.Data.User(); u != nil {
				w.Permissions = u.Permissions
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(w)
			}

			fmt.Fprintf(out, "%s <%s>\n", displayName(w), w.Email)
			fmt.Fprintf(out, "role:      %s\n", w.Role)
			fmt.Fprintf(out, "workspace: %s\n", orDash(w.WorkspaceID))
			fmt.Fprintf(out, "venue:     %s\n", orDash(w.VenueName))
			fmt.Fprintf(out, "data:      %s\n", w.DataState)
			if !w.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "expires:   %s\n", w.ExpiresAt.Local().Format(time.RFC1123))
			}
			if w.StatusMessage != "" {
				fmt.Fprintln(out, w.StatusMessage)
			}
			if a.Initializer.State() == initializer.StateGivenUp {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func displayName(w whoami) string {
	if w.Name != "" {
		return w.Name
	}
	return w.UserID
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
