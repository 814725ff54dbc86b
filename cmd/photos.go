package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/shared"
	"github.com/desertthunder/shutter/internal/tasks"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// PhotosList prints one or more pages of photos matching the filter flags.
func (r *Runner) PhotosList(ctx context.Context, cmd *cli.Command) error {
	q := r.queryFromFlags(cmd)
	pages := max(int(cmd.Int("pages")), 1)

	r.logger.Info("listing photos", "filter", q.Text, "category", q.Category, "tag", q.Tag, "pages", pages)

	list := tasks.NewListController(r.gallery, q, r.logger)
	snap, err := list.Reload(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	for loaded := 1; loaded < pages && snap.HasMore; loaded++ {
		if snap, err = list.LoadMore(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(snap.Items, true)
	}

	if snap.Status == models.StatusEmpty {
		return r.writePlain("No photos found\n")
	}

	r.writePlainHeader(fmt.Sprintf("Photos (%d)", len(snap.Items)))
	for _, p := range snap.Items {
		r.writePlain("%-6d %s", p.ID, photoTitle(p))
		if p.Author != "" {
			r.writePlain(" by %s", p.Author)
		}
		if p.Category != "" {
			r.writePlain(" [%s]", p.Category)
		}
		r.writePlain("  ♥ %s ★ %s\n", humanize.Comma(int64(p.Likes)), humanize.Comma(int64(p.Favorites)))
	}
	if snap.HasMore {
		r.writePlainln("More photos available; use --pages %d", pages+1)
	}
	return nil
}

// PhotosShow prints a photo with its metadata and comments.
func (r *Runner) PhotosShow(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "photo id")
	if err != nil {
		return err
	}

	detail, err := r.gallery.GetPhoto(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(detail, true)
	}

	r.writePlainHeader(photoTitle(detail.Photo))
	rows := [][2]string{
		{"ID", fmt.Sprint(detail.ID)},
		{"Author", detail.Author},
		{"Category", detail.Category},
		{"Tags", strings.Join(detail.Tags, ", ")},
		{"Camera", detail.Camera},
		{"Settings", detail.Settings},
		{"Created", detail.CreatedAt},
		{"Image", detail.ImageURL},
	}
	for _, row := range rows {
		if row[1] != "" {
			r.writePlain("%-10s %s\n", row[0]+":", row[1])
		}
	}
	r.writePlain("%-10s %s%s\n", "Likes:", humanize.Comma(int64(detail.Likes)), mark(detail.LikedByMe))
	r.writePlain("%-10s %s%s\n", "Favorites:", humanize.Comma(int64(detail.Favorites)), mark(detail.FavoritedByMe))

	if detail.Description != "" {
		r.writePlainln("%s", detail.Description)
	}

	if len(detail.Comments) > 0 {
		r.writePlainln("Comments (%d)", len(detail.Comments))
		for _, c := range detail.Comments {
			r.writePlain("  %s", c.Username)
			if c.CreatedAt != "" {
				r.writePlain(" · %s", c.CreatedAt)
			}
			r.writePlain("\n    %s\n", c.Content)
		}
	}
	return nil
}

// PhotosOpen opens the full-size image in the default browser.
func (r *Runner) PhotosOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "photo id")
	if err != nil {
		return err
	}

	detail, err := r.gallery.GetPhoto(ctx, id)
	if err != nil {
		return err
	}
	if detail.ImageURL == "" {
		return fmt.Errorf("%w: photo %d has no image", shared.ErrPhotoNotFound, id)
	}

	if err := shared.OpenBrowser(detail.ImageURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		return r.writePlain("Open this URL: %s\n", detail.ImageURL)
	}
	return r.writePlain("✓ Opened %s\n", detail.ImageURL)
}

// PhotosLike toggles the like on a photo.
func (r *Runner) PhotosLike(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "photo id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	res, err := r.gallery.LikePhoto(ctx, id)
	if err != nil {
		return err
	}
	if res.Liked {
		return r.writePlain("♥ Liked photo %d (%s likes)\n", id, humanize.Comma(int64(res.Likes)))
	}
	return r.writePlain("♡ Unliked photo %d (%s likes)\n", id, humanize.Comma(int64(res.Likes)))
}

// PhotosFavorite toggles the favorite on a photo.
func (r *Runner) PhotosFavorite(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "photo id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	res, err := r.gallery.FavoritePhoto(ctx, id)
	if err != nil {
		return err
	}
	if res.Favorited {
		return r.writePlain("★ Favorited photo %d (%s favorites)\n", id, humanize.Comma(int64(res.Favorites)))
	}
	return r.writePlain("☆ Unfavorited photo %d (%s favorites)\n", id, humanize.Comma(int64(res.Favorites)))
}

// PhotosComment posts the remaining arguments as a comment.
func (r *Runner) PhotosComment(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "photo id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	args := cmd.Args().Slice()
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return fmt.Errorf("%w: comment text", shared.ErrMissingArgument)
	}

	comment, err := r.gallery.CommentPhoto(ctx, id, text)
	if err != nil {
		return err
	}
	r.logger.Info("comment posted", "photo", id, "comment", comment.ID)
	return r.writePlain("✓ Commented on photo %d\n", id)
}

// PhotosEdit updates the metadata fields given as flags and keeps the rest.
func (r *Runner) PhotosEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "photo id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	detail, err := r.gallery.GetPhoto(ctx, id)
	if err != nil {
		return err
	}

	meta, changed := applyMetadataFlags(cmd, detail.Metadata())
	if !changed {
		return fmt.Errorf("%w: nothing to change; pass at least one of --title, --description, --camera, --settings, --category, --tags", shared.ErrMissingArgument)
	}

	if err := r.gallery.UpdatePhoto(ctx, id, meta); err != nil {
		return err
	}
	return r.writePlain("✓ Updated photo %d\n", id)
}

// PhotosDelete deletes a photo after confirmation.
func (r *Runner) PhotosDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "photo id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		answer, err := r.prompt(fmt.Sprintf("Delete photo %d? [y/N]", id))
		if err != nil {
			return err
		}
		if a := strings.ToLower(answer); a != "y" && a != "yes" {
			return r.writePlain("Aborted\n")
		}
	}

	if err := r.gallery.DeletePhoto(ctx, id); err != nil {
		return err
	}
	r.logger.Info("photo deleted", "id", id)
	return r.writePlain("✓ Deleted photo %d\n", id)
}

// PhotosExport writes every photo matching the filters to a file, optionally with images.
func (r *Runner) PhotosExport(ctx context.Context, cmd *cli.Command) error {
	q := r.queryFromFlags(cmd)

	format := strings.ToLower(cmd.String("format"))
	switch format {
	case "json", "csv", "markdown", "md", "txt":
	default:
		return fmt.Errorf("%w: unsupported format %q (use json, csv, markdown or txt)", shared.ErrInvalidArgument, format)
	}

	opts := tasks.ExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		Images:     cmd.Bool("images"),
		MaxPages:   int(cmd.Int("max-pages")),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate-limit"),
		Client:     r.httpClient,
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = r.config.Export.Workers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = r.config.Export.RateLimit
	}

	r.logger.Info("exporting photos", "format", format, "images", opts.Images, "workers", opts.NumWorkers)

	progressCh, done := r.watchProgress(50)
	result, err := tasks.NewExporter(r.gallery, r.logger).Export(ctx, q, opts, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("✓ Export complete")
	r.writePlain("File:     %s\n", result.File)
	r.writePlain("Photos:   %d (%d pages)\n", len(result.Photos), result.Pages)
	if opts.Images && result.Manifest != nil {
		r.writePlain("Images:   %d downloaded", result.Manifest.Downloaded)
		if result.Manifest.TotalBytes != "" {
			r.writePlain(" (%s)", result.Manifest.TotalBytes)
		}
		r.writePlain("\n")
		if n := len(result.Manifest.Failures); n > 0 {
			r.writePlain("Failed:   %d, see %s\n", n, result.ManifestPath)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	return nil
}

// queryFromFlags builds a page-1 query from the filter flags.
func (r *Runner) queryFromFlags(cmd *cli.Command) models.Query {
	size := int(cmd.Int("page-size"))
	if size <= 0 {
		size = r.config.Browse.PageSize
	}
	q := models.NewQuery(size)
	q.Text = strings.TrimSpace(cmd.String("query"))
	q.Category = strings.TrimSpace(cmd.String("category"))
	q.Tag = strings.TrimSpace(cmd.String("tag"))
	return q
}

// applyMetadataFlags overlays the metadata flags that were set on base.
func applyMetadataFlags(cmd *cli.Command, base models.PhotoMetadata) (models.PhotoMetadata, bool) {
	changed := false
	for name, field := range map[string]*string{
		"title":       &base.Title,
		"description": &base.Description,
		"camera":      &base.Camera,
		"settings":    &base.Settings,
		"category":    &base.Category,
		"tags":        &base.Tags,
	} {
		if cmd.IsSet(name) {
			*field = strings.TrimSpace(cmd.String(name))
			changed = true
		}
	}
	if changed {
		base.Tags = strings.Join(shared.SplitTags(base.Tags), ",")
	}
	return base, changed
}

func photoTitle(p models.Photo) string {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Sprintf("Untitled #%d", p.ID)
	}
	return p.Title
}

func mark(on bool) string {
	if on {
		return " (you)"
	}
	return ""
}
