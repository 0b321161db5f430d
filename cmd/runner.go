package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/oauthcap/internal/events"
	"github.com/desertthunder/oauthcap/internal/repositories"
	"github.com/desertthunder/oauthcap/internal/server"
	"github.com/desertthunder/oauthcap/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	bus        *events.Bus
	db         *sql.DB
	repo       *repositories.CallbackRepository
	recorder   *repositories.CallbackRecorder
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Bus        *events.Bus
	// DB is an already migrated database. When nil, commands open config.Database.Path on demand.
	DB *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}

	r := &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		bus:        opts.Bus,
	}
	if opts.DB != nil {
		r.useDatabase(opts.DB)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, loginCommand, historyCommand, watchCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before applies root flags ahead of any subcommand.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// SetLogger swaps the logger, e.g. when a full-screen interface owns stderr.
func (r *Runner) SetLogger(l *log.Logger) {
	l.SetLevel(r.logger.GetLevel())
	r.logger = l
}

// Close releases the database handle, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.repo, r.recorder = nil, nil, nil
	return err
}

// loadConfig replaces the runner config with the file named by the command's config flag, when present.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}
	if _, err := os.Stat(path); err != nil {
		return r.config
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using current", "path", path, "error", err)
		return r.config
	}
	r.config = config
	return config
}

// openDatabase opens and migrates the configured database on first use.
func (r *Runner) openDatabase() error {
	if r.db != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.useDatabase(db)
	return nil
}

func (r *Runner) useDatabase(db *sql.DB) {
	r.db = db
	r.repo = repositories.NewCallbackRepository(db)
	r.recorder = repositories.NewCallbackRecorder(r.repo)
}

// serverOptions maps the [listener] config section onto [server.Options].
func (r *Runner) serverOptions() server.Options {
	l := r.config.Listener
	return server.Options{
		Host:        r.config.Host(),
		BufferSize:  l.BufferSize,
		IOTimeout:   l.ReadTimeout(),
		AcceptRate:  l.AcceptRate,
		AcceptBurst: l.AcceptBurst,
	}
}

// newRegistry creates a listener registry publishing to the runner's bus.
func (r *Runner) newRegistry() *server.Registry {
	return server.NewRegistry(r.bus, shared.WithLogger(r.logger, "component", "listener"), r.serverOptions())
}

// resolvePorts returns flag ports, falling back to the configured [server] ports.
func (r *Runner) resolvePorts(flagPorts []int) ([]uint16, error) {
	raw := flagPorts
	if len(raw) == 0 {
		raw = r.config.Server.Ports
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no ports given and none configured", shared.ErrMissingArgument)
	}

	ports := make([]uint16, 0, len(raw))
	seen := make(map[uint16]bool, len(raw))
	for _, p := range raw {
		if p <= 0 || p > 65535 {
			return nil, fmt.Errorf("%w: port %d out of range", shared.ErrInvalidFlag, p)
		}
		port := uint16(p)
		if seen[port] {
			continue
		}
		seen[port] = true
		ports = append(ports, port)
	}
	return ports, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// expiry formats a token expiry relative to now.
func expiry(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s (in %s)", t.Format(time.RFC3339), time.Until(t).Round(time.Second))
}
