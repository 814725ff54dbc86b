package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/services"
	"github.com/desertthunder/shutter/internal/shared"
	"github.com/desertthunder/shutter/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CarouselList prints the carousel in display order.
func (r *Runner) CarouselList(ctx context.Context, cmd *cli.Command) error {
	var items []models.CarouselItem
	var err error
	if cmd.Bool("admin") {
		if err := r.requireAuth(); err != nil {
			return err
		}
		items, err = r.gallery.AdminCarousel(ctx)
	} else {
		items, err = r.gallery.Carousel(ctx)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}
	if len(items) == 0 {
		return r.writePlain("Carousel is empty\n")
	}

	r.writePlainHeader(fmt.Sprintf("Carousel (%d/%d)", len(items), r.carouselLimit()))
	for i, item := range items {
		title := item.Title
		if title == "" {
			title = item.ImageURL
		}
		r.writePlain("%d. [%d] %s\n", i+1, item.ID, title)
	}
	return nil
}

// CarouselAdd uploads images one at a time into the free carousel slots.
//
// Files beyond the free slots are skipped with a warning.
func (r *Runner) CarouselAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one image file", shared.ErrMissingArgument)
	}

	current, err := r.gallery.AdminCarousel(ctx)
	if err != nil {
		return err
	}

	limit := r.carouselLimit()
	accepted, err := tasks.CarouselSlots(len(current), limit, paths)
	if err != nil {
		return err
	}
	if skipped := len(paths) - len(accepted); skipped > 0 {
		r.logger.Warn("carousel limit reached, skipping files", "limit", limit, "skipped", skipped)
		r.writePlain("⚠ Only %d of %d files fit (limit %d)\n", len(accepted), len(paths), limit)
	}

	jobs, err := tasks.NewUploadJobs(accepted)
	if err != nil {
		return err
	}

	send := func(ctx context.Context, job models.UploadJob, progress services.ProgressFunc) (*models.UploadResult, error) {
		item, err := r.gallery.AddCarouselImage(ctx, job.File, progress)
		if err != nil || item == nil {
			return nil, err
		}
		return &models.UploadResult{Items: []models.UploadedPhoto{*item}}, nil
	}

	progressCh, done := r.watchProgress(100)
	summary := tasks.NewUploadTracker(r.logger).Run(ctx, jobs, send, progressCh)
	close(progressCh)
	<-done

	for _, item := range summary.Uploaded() {
		r.writePlain("✓ Added carousel item #%d\n", item.ID)
	}
	if summary.Failed != nil {
		return fmt.Errorf("%w: %s", shared.ErrUploadFailed, summary.Message)
	}
	return nil
}

// CarouselReplace swaps the image behind an existing item.
func (r *Runner) CarouselReplace(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "item id")
	if err != nil {
		return err
	}
	path := cmd.Args().Get(1)
	if path == "" {
		return fmt.Errorf("%w: image file", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	if _, err := r.gallery.ReplaceCarouselImage(ctx, id, path, nil); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrUploadFailed, tasks.UploadMessage(err))
	}
	return r.writePlain("✓ Replaced carousel item %d\n", id)
}

// CarouselSort sets the display order to the given IDs.
func (r *Runner) CarouselSort(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: item ids in display order", shared.ErrMissingArgument)
	}

	ids := make([]int, 0, len(args))
	seen := make(map[int]bool, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id <= 0 {
			return fmt.Errorf("%w: item id must be a positive number, got %q", shared.ErrInvalidArgument, a)
		}
		if seen[id] {
			return fmt.Errorf("%w: item %d listed twice", shared.ErrInvalidArgument, id)
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if err := r.requireAuth(); err != nil {
		return err
	}
	if err := r.gallery.SortCarousel(ctx, ids); err != nil {
		return err
	}
	return r.writePlain("✓ Carousel order saved\n")
}

// CarouselDelete removes an item.
func (r *Runner) CarouselDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "item id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}
	if err := r.gallery.DeleteCarouselItem(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed carousel item %d\n", id)
}

func (r *Runner) carouselLimit() int {
	if r.config.Upload.MaxCarousel > 0 {
		return r.config.Upload.MaxCarousel
	}
	return 9
}

// VideosList prints the home page videos.
func (r *Runner) VideosList(ctx context.Context, cmd *cli.Command) error {
	var videos []models.HomeVideo
	var err error
	if cmd.Bool("admin") {
		if err := r.requireAuth(); err != nil {
			return err
		}
		videos, err = r.gallery.AdminHomeVideos(ctx)
	} else {
		videos, err = r.gallery.HomeVideos(ctx)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(videos, true)
	}
	if len(videos) == 0 {
		return r.writePlain("No home videos\n")
	}

	r.writePlainHeader(fmt.Sprintf("Home videos (%d)", len(videos)))
	for _, v := range videos {
		r.writePlain("[%d] %s\n    %s\n", v.ID, v.Title, v.VideoURL)
	}
	return nil
}

// VideosAdd uploads videos one at a time.
func (r *Runner) VideosAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one video file", shared.ErrMissingArgument)
	}

	jobs, err := tasks.NewUploadJobs(paths)
	if err != nil {
		return err
	}

	send := func(ctx context.Context, job models.UploadJob, progress services.ProgressFunc) (*models.UploadResult, error) {
		return nil, r.gallery.AddHomeVideo(ctx, job.File, progress)
	}

	progressCh, done := r.watchProgress(100)
	summary := tasks.NewUploadTracker(r.logger).Run(ctx, jobs, send, progressCh)
	close(progressCh)
	<-done

	if summary.Failed != nil {
		return fmt.Errorf("%w: %s", shared.ErrUploadFailed, summary.Message)
	}
	return nil
}

// VideosDelete removes a home video.
func (r *Runner) VideosDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, 0, "video id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}
	if err := r.gallery.DeleteHomeVideo(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed video %d\n", id)
}
