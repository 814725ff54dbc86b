package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/shutter/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// ProfileShow prints the logged in account and its stats.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	user, err := r.gallery.Me(ctx)
	if err != nil {
		return err
	}
	stats, err := r.gallery.MyStats(ctx)
	if err != nil {
		r.logger.Warn("stats unavailable", "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"user": user, "stats": stats}, true)
	}

	r.writePlainHeader(user.Username)
	if user.Email != "" {
		r.writePlain("Email:     %s\n", user.Email)
	}
	if user.Role != "" {
		r.writePlain("Role:      %s\n", user.Role)
	}
	if user.CreatedAt != "" {
		r.writePlain("Joined:    %s\n", user.CreatedAt)
	}
	if stats != nil {
		r.writePlain("Photos:    %s\n", humanize.Comma(int64(stats.Photos)))
		r.writePlain("Likes:     %s\n", humanize.Comma(int64(stats.Likes)))
		r.writePlain("Favorites: %s\n", humanize.Comma(int64(stats.Favorites)))
	}
	return nil
}

// ProfilePhotos lists the account's own photos.
func (r *Runner) ProfilePhotos(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	photos, err := r.gallery.MyPhotos(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(photos, true)
	}
	if len(photos) == 0 {
		return r.writePlain("You have not uploaded any photos\n")
	}

	r.writePlainHeader(fmt.Sprintf("My photos (%d)", len(photos)))
	for _, p := range photos {
		r.writePlain("%-6d %s  ♥ %s ★ %s\n", p.ID, photoTitle(p), humanize.Comma(int64(p.Likes)), humanize.Comma(int64(p.Favorites)))
	}
	return nil
}

// ProfilePassword changes the account password.
func (r *Runner) ProfilePassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	oldPassword, newPassword := cmd.String("old"), cmd.String("new")
	var err error
	if oldPassword == "" {
		if oldPassword, err = r.prompt("Current password"); err != nil {
			return err
		}
	}
	if newPassword == "" {
		if newPassword, err = r.prompt("New password"); err != nil {
			return err
		}
	}

	if err := r.gallery.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}
	return r.writePlain("✓ Password changed\n")
}

// ProfileUsername renames the account.
func (r *Runner) ProfileUsername(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	name := strings.TrimSpace(cmd.Args().First())
	if name == "" {
		return fmt.Errorf("%w: new username", shared.ErrMissingArgument)
	}

	updated, err := r.gallery.ChangeUsername(ctx, name)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Username is now %s\n", updated)
}

// DiagnosticsFills lists recorded auto-fill events, newest first.
func (r *Runner) DiagnosticsFills(ctx context.Context, cmd *cli.Command) error {
	if r.fills == nil {
		return fmt.Errorf("%w: fill diagnostics need a database, run 'shutter setup database'", shared.ErrMissingConfig)
	}

	events, err := r.fills.List(int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to read fill events: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(events, true)
	}
	if len(events) == 0 {
		return r.writePlain("No fill events recorded\n")
	}

	r.writePlainHeader(fmt.Sprintf("Fill events (%d)", len(events)))
	for _, e := range events {
		r.writePlain("%s  %-14s page %-3d items %-4d", humanize.Time(e.Timestamp), e.Reason, e.Page, e.Count)
		if e.Query != "" {
			r.writePlain(" q=%q", e.Query)
		}
		r.writePlain("\n")
	}
	return nil
}
