package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scanplay/internal/player"
	"github.com/desertthunder/scanplay/internal/shared"
	"github.com/desertthunder/scanplay/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive player terminal.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(os.TempDir(), "scanplay-player.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	fileLogger := shared.NewLogger(logFile)
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	notify, updates := ui.Watch(16)
	ctrl, err := r.newController(cmd, player.Options{
		OnStatus: notify,
		Logger:   shared.WithLogger(fileLogger, "component", "player"),
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	r.bootstrap(ctx, cmd, ctrl, fileLogger)

	model := ui.NewModel(ctx, ctrl, updates)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
