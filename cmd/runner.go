package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/linkguard/internal/repositories"
	"github.com/desertthunder/linkguard/internal/services"
	"github.com/desertthunder/linkguard/internal/session"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/desertthunder/linkguard/internal/store"
	"github.com/desertthunder/linkguard/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	client   *services.Client
	session  *session.Manager
	links    *store.LinkStore
	alerts   *store.AlertStore
	uploader *tasks.Uploader
	creds    session.CredentialStore
	history  *repositories.UploadHistoryRepository
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Client *services.Client
	// DB backs the credential and upload history tables. Without it the session lives in memory only.
	DB     *sql.DB
	Logger *log.Logger
	Output io.Writer
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
	if opts.Client == nil {
		opts.Client = services.NewClient(services.ClientOpts{
			BaseURL: opts.Config.API.BaseURL,
			Timeout: opts.Config.API.Timeout(),
			Logger:  opts.Logger,
		})
	}

	r := &Runner{
		config: opts.Config,
		client: opts.Client,
		logger: opts.Logger,
		output: opts.Output,
		creds:  session.NewMemoryStore(""),
	}
	if opts.DB != nil {
		r.creds = repositories.NewCredentialRepository(opts.DB)
		r.history = repositories.NewUploadHistoryRepository(opts.DB)
	}

	r.wire()
	return r
}

// wire builds the session, stores and uploader on top of the client using the current logger.
func (r *Runner) wire() {
	r.session = session.NewManager(r.client, r.creds, r.logger)
	r.client.Bind(r.session)

	r.links = store.NewLinkStore(r.client, store.LinkStoreOpts{
		Workers: r.config.Links.DeleteWorkers,
		Rate:    r.config.Links.DeleteRate,
		Logger:  r.logger,
	})
	r.alerts = store.NewAlertStore(r.client, r.logger)

	uploaderOpts := tasks.UploaderOpts{Logger: r.logger}
	if r.history != nil {
		uploaderOpts.History = r.history
	}
	r.uploader = tasks.NewUploader(r.client, r.links, uploaderOpts)

	r.session.Subscribe(func(ev session.Event) {
		if ev.Reason == session.ReasonExpired {
			r.logger.Warn("session expired, run `linkguard auth login` to sign in again")
		}
	})
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, linksCommand, alertsCommand, analyticsCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger and rebuilds the components that hold it. Cached state is discarded.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.wire()
}

// requireSession restores the persisted credential and fails unless it is valid.
func (r *Runner) requireSession(ctx context.Context) error {
	if r.session.Restore(ctx) != session.StatusAuthenticated {
		return fmt.Errorf("%w: run `linkguard auth login` first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
