// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func portFlag() cli.Flag {
	return &cli.IntSliceFlag{
		Name:    "port",
		Aliases: []string{"p"},
		Usage:   "Port to listen on (repeatable); defaults to [server] ports",
	}
}

// setupCommand writes the config file and prepares the history database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml if missing, initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// serveCommand runs listeners until interrupted
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Listen for OAuth redirects and print each callback as JSON",
		Flags: []cli.Flag{
			configFlag(),
			portFlag(),
			&cli.BoolFlag{
				Name:  "no-record",
				Usage: "Do not store callbacks in the history database",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Serve,
	}
}

// loginCommand runs a complete authorization code flow
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authorize with a configured provider using a loopback redirect",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "provider",
				Usage:    "Provider name from [providers] in config",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override the provider's redirect_port",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the redirect",
				Value: loginTimeout,
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the token as JSON",
			},
		},
		Action: r.Login,
	}
}

// historyCommand lists recorded callbacks
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded callbacks",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Only show callbacks for this provider",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Only show callbacks received on this port",
			},
			&cli.BoolFlag{
				Name:  "errors",
				Usage: "Only show provider error redirects",
			},
			&cli.DurationFlag{
				Name:  "since",
				Usage: "Only show callbacks newer than this duration, e.g. 24h",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of callbacks to show",
				Value: 50,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to file instead of stdout",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Remove a recorded callback by ID",
				Flags: []cli.Flag{configFlag()},
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryClear,
			},
		},
		Action: r.History,
	}
}

// watchCommand launches the live monitor
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Interactive monitor of incoming callbacks",
		Flags: []cli.Flag{
			configFlag(),
			portFlag(),
			&cli.BoolFlag{
				Name:  "no-record",
				Usage: "Do not store callbacks in the history database",
			},
		},
		Action: r.Watch,
	}
}
