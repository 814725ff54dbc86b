package main

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shutter/internal/repositories"
	"github.com/desertthunder/shutter/internal/services"
	"github.com/desertthunder/shutter/internal/session"
	"github.com/desertthunder/shutter/internal/shared"
	"github.com/desertthunder/shutter/internal/tasks"
	"github.com/urfave/cli/v3"
)

// listingCacheTTL is how long public carousel and home-video listings are reused.
const listingCacheTTL = time.Minute

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	httpClient *http.Client
	db         *sql.DB
	session    *session.Session
	gallery    services.Gallery
	fills      *repositories.FillEventRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	HTTPClient *http.Client
	// DB backs the session, search history and fill diagnostics; nil keeps them in memory.
	DB *sql.DB
	// Gallery overrides the HTTP gallery client.
	Gallery services.Gallery
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Timeout()}
	}

	r := &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		httpClient: opts.HTTPClient,
		db:         opts.DB,
	}

	var store session.Store
	var history session.History
	if opts.DB != nil {
		store = repositories.NewSettingRepository(opts.DB)
		history = repositories.NewRecentSearchRepository(opts.DB)
		r.fills = repositories.NewFillEventRepository(opts.DB)
	}

	sess, err := session.Open(store, history, opts.Logger)
	if err != nil {
		r.logger.Warn("failed to restore session, continuing logged out", "error", err)
		sess, _ = session.Open(nil, history, opts.Logger)
	}
	r.session = sess

	r.gallery = opts.Gallery
	if r.gallery == nil {
		api := services.NewAPIService(opts.Config.ResolveBaseURL(), opts.HTTPClient, sess)
		r.gallery = services.NewGalleryService(api, listingCacheTTL)
	}
	return r
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, photosCommand, uploadCommand, searchCommand,
		carouselCommand, videosCommand, profileCommand, diagnosticsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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

// watchProgress prints updates from a new progress channel.
//
// Close the channel when the operation returns, then wait on done so the last lines are flushed.
func (r *Runner) watchProgress(size int) (chan tasks.ProgressUpdate, <-chan struct{}) {
	progressCh := make(chan tasks.ProgressUpdate, size)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.UploadFile:
				if update.Percent == 0 {
					r.writePlain("📤 %s\n", update.Message)
				}
			case tasks.FetchPage:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.DownloadImage:
				r.writePlain("🖼  %s\n", update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	return progressCh, done
}

// prompt reads one line from the runner's input after printing label.
func (r *Runner) prompt(label string) (string, error) {
	r.writePlain("%s: ", label)
	line, err := r.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// requireAuth fails early for commands the API only serves to logged in users.
func (r *Runner) requireAuth() error {
	if !r.session.Authenticated() {
		return fmt.Errorf("%w: run 'shutter auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// argID parses the i-th positional argument as a numeric ID.
func argID(cmd *cli.Command, i int, name string) (int, error) {
	raw := strings.TrimSpace(cmd.Args().Get(i))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}
