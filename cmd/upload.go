package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/services"
	"github.com/desertthunder/shutter/internal/shared"
	"github.com/desertthunder/shutter/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Upload sends the given files, or those listed in a manifest, one at a time.
//
// The first failure stops the batch; files already sent stay uploaded.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	paths, metaFor, err := r.uploadPlan(cmd)
	if err != nil {
		return err
	}

	jobs, err := tasks.NewUploadJobs(paths)
	if err != nil {
		return err
	}

	r.logger.Info("starting upload", "files", len(jobs))

	send := func(ctx context.Context, job models.UploadJob, progress services.ProgressFunc) (*models.UploadResult, error) {
		return r.gallery.UploadPhoto(ctx, job.File, metaFor(job.File), progress)
	}

	asJSON := cmd.Bool("json")
	var summary tasks.UploadSummary
	if asJSON {
		summary = tasks.NewUploadTracker(r.logger).Run(ctx, jobs, send, nil)
	} else {
		progressCh, done := r.watchProgress(100)
		summary = tasks.NewUploadTracker(r.logger).Run(ctx, jobs, send, progressCh)
		close(progressCh)
		<-done
	}

	created := uploadedPhotos(summary, metaFor)
	if asJSON {
		if err := r.writeJSON(created, true); err != nil {
			return err
		}
	} else {
		for _, p := range created {
			r.writePlain("✓ #%-6d %s\n", p.ID, p.Title)
		}
	}

	if summary.Failed != nil {
		return fmt.Errorf("%w: %s (%d of %d files uploaded)", shared.ErrUploadFailed, summary.Message, summary.Completed, len(jobs))
	}
	return nil
}

// createdPhoto is one photo created by an upload, as printed by the upload command.
type createdPhoto struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	File     string `json:"file"`
	ImageURL string `json:"image_url,omitempty"`
	ThumbURL string `json:"thumb_url,omitempty"`
}

// uploadedPhotos pairs each created photo with the file it came from.
// The title is the one sent with the file, or the file name when none was given.
func uploadedPhotos(summary tasks.UploadSummary, metaFor func(string) models.PhotoMetadata) []createdPhoto {
	created := []createdPhoto{}
	for _, job := range summary.Jobs {
		if job.Result == nil {
			continue
		}
		title := strings.TrimSpace(metaFor(job.File).Title)
		if title == "" {
			title = filepath.Base(job.File)
		}
		for _, item := range job.Result.Items {
			created = append(created, createdPhoto{
				ID:       item.ID,
				Title:    title,
				File:     job.File,
				ImageURL: item.ImageURL,
				ThumbURL: item.ThumbURL,
			})
		}
	}
	return created
}

// uploadPlan resolves the files to send and the metadata for each.
//
// With a manifest, entries take their own fields over the manifest defaults,
// and metadata flags override both.
func (r *Runner) uploadPlan(cmd *cli.Command) ([]string, func(string) models.PhotoMetadata, error) {
	args := cmd.Args().Slice()

	if path := strings.TrimSpace(cmd.String("manifest")); path != "" {
		if len(args) > 0 {
			return nil, nil, fmt.Errorf("%w: pass files or --manifest, not both", shared.ErrInvalidArgument)
		}
		manifest, err := tasks.LoadManifest(path)
		if err != nil {
			return nil, nil, err
		}
		metaFor := func(file string) models.PhotoMetadata {
			meta, _ := applyMetadataFlags(cmd, manifest.Metadata(file))
			return meta
		}
		return manifest.Paths(), metaFor, nil
	}

	if len(args) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one file or --manifest", shared.ErrMissingArgument)
	}
	meta, _ := applyMetadataFlags(cmd, models.PhotoMetadata{})
	return args, func(string) models.PhotoMetadata { return meta }, nil
}
