// AngelaMos | 2026
// root.go

// Package cli is the venuedesk command tree. Each invocation builds the
// service graph, restores the saved session and tears everything down
// before returning.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/venuedesk/internal/app"
	"github.com/carterperez-dev/venuedesk/internal/config"
	"github.com/carterperez-dev/venuedesk/internal/core"
)

// ExitError ends the process with Code without printing anything further.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

type runtime struct {
	configPath string
	logLevel   string
	app        *app.App
}

func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "venuedesk",
		Short: "Staff console for restaurant and cafe venues",
		Long: `venuedesk signs staff in to the venue backend, keeps the session on
disk, and shows the parts of the venue each role is allowed to see.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newCanCommand(rt),
		newSwitchVenueCommand(rt),
		newVenueCommand(rt),
		newTourCommand(rt),
		newConsoleCommand(rt),
		newDoctorCommand(rt),
	)

	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}

	fmt.Fprintln(errOut, "Error:", describe(err))
	return 1
}

// describe prefers the user-facing wording for domain errors.
func describe(err error) string {
	for _, target := range []error{
		core.ErrAuth,
		core.ErrSessionInvalid,
		core.ErrVenueNotAssigned,
		core.ErrPermissionDenied,
		core.ErrStaleData,
		core.ErrDataLoad,
	} {
		if errors.Is(err, target) {
			return core.UserMessage(err)
		}
	}
	return err.Error()
}

// open builds the app for one command. With restore set, the saved session
// is verified and account data is loaded before it returns.
func (rt *runtime) open(cmd *cobra.Command, restore bool) (*app.App, error) {
	ctx := cmd.Context()

	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return nil, err
	}
	if rt.logLevel != "" {
		cfg.Log.Level = rt.logLevel
	}

	logger := setupLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	a, err := app.New(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	rt.app = a

	if restore {
		if err := a.Start(ctx); err != nil && !errors.Is(err, core.ErrSessionInvalid) {
			rt.close(cmd)
			return nil, err
		}
	}

	return a, nil
}

func (rt *runtime) close(cmd *cobra.Command) {
	if rt.app == nil {
		return
	}
	if err := rt.app.Close(context.WithoutCancel(cmd.Context())); err != nil {
		rt.app.Logger.Error("shutdown error", "error", err)
	}
	rt.app = nil
}

// requireSession fails the command when nobody is signed in.
func requireSession(cmd *cobra.Command, a *app.App) error {
	if a.Session.IsAuthenticated() {
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Not signed in. Run `venuedesk login` first.")
	return &ExitError{Code: 1}
}
