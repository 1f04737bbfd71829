package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/desertthunder/linkguard/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive link dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Logging.TUILogPath
	if logPath == "" {
		logPath = "./tmp/linkguard-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.links, r.alerts, r.uploader, r.session, ui.Options{UploadPath: cmd.String("upload")})
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
