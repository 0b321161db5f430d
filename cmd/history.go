package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/oauthcap/internal/formatter"
	"github.com/desertthunder/oauthcap/internal/shared"
	"github.com/urfave/cli/v3"
)

// History prints recorded callbacks in the requested format, or writes them to a file.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	if err := r.openDatabase(); err != nil {
		return err
	}

	criteria := map[string]any{
		"provider":    cmd.String("provider"),
		"port":        cmd.Int("port"),
		"errors_only": cmd.Bool("errors"),
		"limit":       cmd.Int("limit"),
	}
	if since := cmd.Duration("since"); since > 0 {
		criteria["since"] = time.Now().Add(-since)
	}

	records, err := r.repo.List(criteria)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(format, records, path); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		return r.writePlain("✓ Exported %d callbacks to %s\n", len(records), path)
	}

	data, err := formatter.Render(format, records)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// HistoryClear soft-deletes one recorded callback.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: callback id", shared.ErrMissingArgument)
	}

	r.loadConfig(cmd)
	if err := r.openDatabase(); err != nil {
		return err
	}

	if err := r.repo.Delete(id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed callback %s\n", id)
}
