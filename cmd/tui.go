package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/shared"
	"github.com/desertthunder/shutter/internal/tasks"
	"github.com/desertthunder/shutter/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultTUILog = "./tmp/shutter-tui.log"

// TUI launches the interactive gallery browser.
//
// Files given as arguments, or listed in --manifest, are uploaded before browsing starts.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	opts, err := r.tuiOptions(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logFile := r.config.Log.File
	if logFile == "" {
		logFile = defaultTUILog
	}
	fileLogger, err := shared.NewFileLogger(logFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.config.Log.Level)
	r.SetLogger(fileLogger)
	opts.Logger = fileLogger

	model := ui.NewModel(ctx, r.gallery, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func (r *Runner) tuiOptions(cmd *cli.Command) (ui.Options, error) {
	browse := r.config.Browse
	opts := ui.Options{
		Query:           models.NewQuery(browse.PageSize),
		FillRatio:       browse.FillRatio,
		FillAttempts:    browse.FillAttempts,
		SuggestionLimit: browse.SuggestionLimit,
		Debounce:        r.config.Debounce(),
	}
	if text := strings.TrimSpace(cmd.String("query")); text != "" {
		opts.Query = ui.ParseFilter(text, opts.Query)
	}
	if h := r.session.History(); h != nil {
		opts.History = h
	}
	if r.fills != nil {
		opts.Recorder = r.fills
	}

	if cmd.String("manifest") == "" && cmd.Args().Len() == 0 {
		return opts, nil
	}

	if err := r.requireAuth(); err != nil {
		return opts, err
	}
	paths, metaFor, err := r.uploadPlan(cmd)
	if err != nil {
		return opts, err
	}
	jobs, err := tasks.NewUploadJobs(paths)
	if err != nil {
		return opts, err
	}
	opts.Uploads = jobs
	opts.MetaFor = metaFor
	return opts, nil
}
