package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/shared"
	"github.com/desertthunder/shutter/internal/tasks"
	"github.com/desertthunder/shutter/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// Search records the query in the history and prints the first page of results.
//
// The text accepts the same category:, tag: and # filters as the TUI search box.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	suggester := r.suggester()
	text, ok := suggester.Submit(strings.Join(cmd.Args().Slice(), " "))
	if !ok {
		return fmt.Errorf("%w: search text", shared.ErrMissingArgument)
	}

	q := ui.ParseFilter(text, models.NewQuery(r.config.Browse.PageSize))
	r.logger.Info("searching", "text", q.Text, "category", q.Category, "tag", q.Tag)

	snap, err := tasks.NewListController(r.gallery, q, r.logger).Reload(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(snap.Items, true)
	}
	if snap.Status == models.StatusEmpty {
		return r.writePlain("No photos match %q\n", text)
	}

	r.writePlainHeader(fmt.Sprintf("Results for %q", text))
	for _, p := range snap.Items {
		r.writePlain("%-6d %s", p.ID, photoTitle(p))
		if p.Author != "" {
			r.writePlain(" by %s", p.Author)
		}
		r.writePlain("\n")
	}
	if snap.HasMore {
		r.writePlainln("Showing the first %d; use 'shutter photos list -q' with --pages for more", len(snap.Items))
	}
	return nil
}

// SearchSuggest prints suggestions for partial input: recent searches for blank input, matching titles otherwise.
func (r *Runner) SearchSuggest(ctx context.Context, cmd *cli.Command) error {
	suggester := r.suggester()
	suggestions, err := suggester.Resolve(ctx, suggester.Input(), strings.Join(cmd.Args().Slice(), " "))
	if err != nil {
		return err
	}

	if len(suggestions) == 0 {
		return r.writePlain("No suggestions\n")
	}
	for _, s := range suggestions {
		switch {
		case s.Recent:
			r.writePlain("🕘 %s\n", s.Text)
		case s.PhotoID > 0:
			r.writePlain("🔎 %s (#%d)\n", s.Text, s.PhotoID)
		default:
			r.writePlain("🔎 %s\n", s.Text)
		}
	}
	return nil
}

// SearchHistory lists recent searches, newest first.
func (r *Runner) SearchHistory(ctx context.Context, cmd *cli.Command) error {
	history := r.session.History()
	if history == nil {
		return fmt.Errorf("%w: search history needs a database, run 'shutter setup database'", shared.ErrMissingConfig)
	}

	searches, err := history.Recent(0)
	if err != nil {
		return fmt.Errorf("failed to read search history: %w", err)
	}
	if len(searches) == 0 {
		return r.writePlain("No recent searches\n")
	}

	r.writePlainHeader("Recent searches")
	for i, s := range searches {
		r.writePlain("%2d. %s", i+1, s.Query)
		if !s.SearchedAt.IsZero() {
			r.writePlain("  (%s)", humanize.Time(s.SearchedAt))
		}
		r.writePlain("\n")
	}
	return nil
}

// SearchClear removes every recent search.
func (r *Runner) SearchClear(ctx context.Context, cmd *cli.Command) error {
	history := r.session.History()
	if history == nil {
		return fmt.Errorf("%w: search history needs a database, run 'shutter setup database'", shared.ErrMissingConfig)
	}
	if err := history.Clear(); err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return r.writePlain("✓ Search history cleared\n")
}

func (r *Runner) suggester() *tasks.Suggester {
	var history tasks.SearchHistory
	if h := r.session.History(); h != nil {
		history = h
	}
	return tasks.NewSuggester(r.gallery, history, r.config.Browse.SuggestionLimit, r.config.Debounce(), r.logger)
}
