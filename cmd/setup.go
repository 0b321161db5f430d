package main

import (
	"context"
	"os"

	"github.com/desertthunder/oauthcap/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, initializes the database and runs migrations.
//
// It finishes by listing the redirect URIs each provider must have registered.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}
	config := r.loadConfig(cmd)

	r.logger.Info("initializing database", "path", config.Database.Path)
	if err := r.openDatabase(); err != nil {
		return err
	}
	version, err := shared.SchemaVersion(r.db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("Database %s at schema version %d\n", config.Database.Path, version)

	r.writePlainHeader("Redirect URIs")
	names := config.ProviderNames()
	if len(names) == 0 {
		r.writePlain("No providers configured in %s\n", configPath)
	}
	for _, name := range names {
		p := config.Providers[name]
		port := p.RedirectPort
		if port == 0 && len(config.Server.Ports) > 0 {
			port = config.Server.Ports[0]
		}
		if port == 0 {
			r.writePlain("%-12s (no redirect_port)\n", name)
			continue
		}
		r.writePlain("%-12s %s\n", name, config.RedirectURL(name, port))
	}

	r.writePlainln("Next steps:")
	r.writePlain("1. Register the URIs above with each provider and fill in client_id in %s\n", configPath)
	r.writePlain("2. Run 'oauthcap login --provider %s'\n", firstOr(names, "<name>"))
	return nil
}

func firstOr(s []string, fallback string) string {
	if len(s) == 0 {
		return fallback
	}
	return s[0]
}

