package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/oauthcap/internal/server"
	"github.com/desertthunder/oauthcap/internal/shared"
	"github.com/desertthunder/oauthcap/internal/ui"
	"github.com/urfave/cli/v3"
)

// Watch launches the interactive callback monitor.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	ports, err := r.resolvePorts(cmd.IntSlice("port"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/oauthcap-watch.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	feed, unsubscribe := r.bus.Subscribe(server.CallbackEvent, feedBuffer)
	defer unsubscribe()

	registry := r.newRegistry()
	defer registry.Close()

	if !cmd.Bool("no-record") {
		if err := r.openDatabase(); err != nil {
			r.logger.Warn("history disabled", "error", err)
		} else {
			recorded, stopRecording := r.bus.Subscribe(server.CallbackEvent, feedBuffer)
			defer stopRecording()
			go r.recordFeed(ctx, recorded)
		}
	}

	model := ui.NewModel(registry, ports, feed)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
