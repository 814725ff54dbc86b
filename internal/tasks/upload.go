package tasks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/services"
	"github.com/desertthunder/shutter/internal/shared"
)

// UploadFallbackMessage is reported when a failure carries no better message.
const UploadFallbackMessage = "upload failed"

// UploadFunc sends one job, reporting bytes sent through progress.
// The result may be nil when the endpoint returns no body.
type UploadFunc func(ctx context.Context, job models.UploadJob, progress services.ProgressFunc) (*models.UploadResult, error)

// UploadSummary is the outcome of a batch.
type UploadSummary struct {
	Jobs      []models.UploadJob
	Completed int
	// Failed is the job that aborted the batch, if any.
	Failed  *models.UploadJob
	Message string
	Err     error
}

// NewUploadJobs builds jobs for paths, resolving sizes and file URLs for previews.
func NewUploadJobs(paths []string) ([]models.UploadJob, error) {
	jobs := make([]models.UploadJob, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", shared.ErrInvalidArgument, p)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", shared.ErrInvalidArgument, p)
		}
		jobs = append(jobs, models.UploadJob{
			ID:         shared.GenerateID(),
			File:       abs,
			PreviewURL: "file://" + filepath.ToSlash(abs),
			Size:       info.Size(),
		})
	}
	return jobs, nil
}

// UploadMessage picks the most specific message for an upload failure:
// server detail, server error field, transport message, then the fallback.
func UploadMessage(err error) string {
	if msg, ok := services.ServerMessage(err); ok {
		return msg
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return UploadFallbackMessage
}

// UploadTracker runs upload batches one file at a time.
//
// Progress covers the current file only and restarts at 0 for each file. The
// first failure stops the batch; files sent before it stay uploaded.
type UploadTracker struct {
	logger *log.Logger

	mu      sync.Mutex
	current int
	percent int
}

// NewUploadTracker creates an [UploadTracker].
func NewUploadTracker(logger *log.Logger) *UploadTracker {
	return &UploadTracker{logger: logger, current: -1}
}

// Progress returns the index of the file being sent and its percentage; index is -1 when idle.
func (t *UploadTracker) Progress() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.percent
}

func (t *UploadTracker) set(index, percent int) {
	t.mu.Lock()
	t.current, t.percent = index, percent
	t.mu.Unlock()
}

// Run sends jobs in order with send.
func (t *UploadTracker) Run(ctx context.Context, jobs []models.UploadJob, send UploadFunc, progress chan<- ProgressUpdate) UploadSummary {
	summary := UploadSummary{Jobs: jobs}
	total := len(jobs)
	defer t.set(-1, 0)

	for i := range jobs {
		job := &summary.Jobs[i]
		name := filepath.Base(job.File)

		t.set(i, 0)
		job.Progress = 0
		sendProgress(progress, uploadStartUpdate(i+1, total, name, job.Size))

		var result *models.UploadResult
		err := ctx.Err()
		if err == nil {
			result, err = send(ctx, *job, func(sent, size int64) {
				pct := percentOf(sent, size)
				job.Progress = pct
				t.set(i, pct)
				sendProgress(progress, uploadProgressUpdate(i+1, total, name, pct))
			})
		}

		if err != nil {
			summary.Failed = job
			summary.Err = err
			summary.Message = UploadMessage(err)
			if errors.Is(err, context.Canceled) {
				summary.Message = "upload canceled"
			}
			if t.logger != nil {
				t.logger.Error("upload failed", "file", name, "index", i+1, "error", err)
			}
			sendProgress(progress, uploadFailedUpdate(i+1, total, name, summary.Message))
			return summary
		}

		job.Progress = 100
		job.Result = result
		t.set(i, 100)
		summary.Completed++
		if t.logger != nil {
			t.logger.Info("uploaded", "file", name, "size", job.Size)
		}
	}

	sendProgress(progress, uploadCompletedUpdate(summary.Completed, total))
	return summary
}

// Uploaded returns the photos created by the jobs that completed, in order.
func (s UploadSummary) Uploaded() []models.UploadedPhoto {
	var photos []models.UploadedPhoto
	for _, job := range s.Jobs {
		if job.Result != nil {
			photos = append(photos, job.Result.Items...)
		}
	}
	return photos
}

func percentOf(sent, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(sent) / float64(total) * 100))
	return min(max(pct, 0), 100)
}

// CarouselSlots trims paths to the room left in a carousel that already holds
// current of limit items. A full carousel returns [shared.ErrCarouselFull].
func CarouselSlots(current, limit int, paths []string) ([]string, error) {
	free := limit - current
	if free <= 0 {
		return nil, fmt.Errorf("%w: %d of %d slots used", shared.ErrCarouselFull, current, limit)
	}
	if len(paths) > free {
		return paths[:free], nil
	}
	return paths, nil
}
