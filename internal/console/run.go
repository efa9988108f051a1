// AngelaMos | 2026
// run.go

package console

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Subscribe registers fn to run whenever one of the stores changes and
// returns the matching unsubscribe func.
type Subscribe func(fn func()) func()

type Config struct {
	Session   Session
	Data      Data
	Tour      Tour
	Subscribe Subscribe
	Output    io.Writer
	Input     io.Reader
	AltScreen bool
}

func Run(ctx context.Context, cfg Config) error {
	model := NewModel(ctx, cfg.Session, cfg.Data, cfg.Tour)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}

	program := tea.NewProgram(model, opts...)

	if cfg.Subscribe != nil {
		unsubscribe := cfg.Subscribe(func() { program.Send(RefreshMsg{}) })
		defer unsubscribe()
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}
