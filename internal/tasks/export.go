package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shutter/internal/formatter"
	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/services"
	"github.com/desertthunder/shutter/internal/shared"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// ManifestFile is written next to every export.
const ManifestFile = "export_manifest.json"

// ExportOpts configures [Exporter.Export].
type ExportOpts struct {
	Format     string  // json, csv, markdown, txt
	OutputDir  string  // default: photos_export_{epoch}
	Images     bool    // download full-size images into OutputDir/images
	MaxPages   int     // 0 means all pages
	NumWorkers int     // concurrent downloads (default: 5, max 10)
	RateLimit  float64 // downloads per second (default: 5)
	Client     *http.Client
}

// ExportResult is the outcome of an export.
type ExportResult struct {
	Photos       []models.Photo
	Pages        int
	File         string
	ManifestPath string
	Manifest     *formatter.ExportManifest
}

type downloadJob struct {
	photo models.Photo
}

type downloadResult struct {
	photo models.Photo
	path  string
	size  int
	err   error
}

// Exporter pages through a query and writes the photos to disk.
type Exporter struct {
	lister services.PhotoLister
	logger *log.Logger
}

// NewExporter creates an [Exporter].
func NewExporter(lister services.PhotoLister, logger *log.Logger) *Exporter {
	return &Exporter{lister: lister, logger: logger}
}

// Export loads every page of q, optionally downloads the images with a
// rate-limited worker pool and writes the listing plus a manifest.
//
// Individual download failures are recorded in the manifest and do not fail the export.
func (e *Exporter) Export(ctx context.Context, q models.Query, opts ExportOpts, prog chan<- ProgressUpdate) (*ExportResult, error) {
	if e.lister == nil {
		return nil, fmt.Errorf("%w: gallery not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("photos_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	photos, pages, err := e.collect(ctx, q, opts.MaxPages, prog)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{Photos: photos, Pages: pages}
	manifest := &formatter.ExportManifest{
		Format:      formatter.FormatExtension(opts.Format),
		Filter:      formatter.DescribeQuery(q),
		TotalPhotos: len(photos),
		Pages:       pages,
		Files:       []string{},
	}

	var images map[int]string
	if opts.Images {
		images = e.downloadAll(ctx, photos, opts, manifest, prog)
	}

	export := formatter.NewPhotoExport(q, photos)
	path, err := formatter.WriteExport(export, opts.Format, opts.OutputDir, images)
	if err != nil {
		return nil, err
	}
	result.File = path
	manifest.Files = append([]string{filepath.Base(path)}, manifest.Files...)
	sendProgress(prog, ProgressUpdate{
		Phase:   ExportPhotos,
		Step:    len(photos),
		Total:   len(photos),
		Percent: 100,
		Message: fmt.Sprintf("✓ Exported %d photos to %s", len(photos), path),
	})

	manifestPath := filepath.Join(opts.OutputDir, ManifestFile)
	result.Manifest = manifest
	if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// collect pages through q with a [ListController] until the server runs out of photos.
func (e *Exporter) collect(ctx context.Context, q models.Query, maxPages int, prog chan<- ProgressUpdate) ([]models.Photo, int, error) {
	list := NewListController(e.lister, q, e.logger)

	snap, err := list.Reload(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch page 1: %w", err)
	}
	pages := 1
	sendProgress(prog, fetchPageUpdate(pages, len(snap.Items)))

	for snap.HasMore && (maxPages <= 0 || pages < maxPages) {
		if err := ctx.Err(); err != nil {
			return nil, pages, err
		}
		next := snap.NextPage
		snap, err = list.LoadMore(ctx)
		if err != nil {
			return nil, pages, fmt.Errorf("failed to fetch page %d: %w", next, err)
		}
		pages++
		sendProgress(prog, fetchPageUpdate(pages, len(snap.Items)))
	}
	return snap.Items, pages, nil
}

// downloadAll fetches images into OutputDir/images and returns the relative paths by photo ID.
func (e *Exporter) downloadAll(
	ctx context.Context,
	photos []models.Photo,
	opts ExportOpts,
	manifest *formatter.ExportManifest,
	prog chan<- ProgressUpdate,
) map[int]string {
	images := make(map[int]string, len(photos))
	dir := filepath.Join(opts.OutputDir, "images")
	if err := os.MkdirAll(dir, 0755); err != nil {
		manifest.Failures = append(manifest.Failures, formatter.DownloadFailure{Error: err.Error()})
		return images
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan downloadJob, len(photos))
	results := make(chan downloadResult, len(photos))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.downloadWorker(ctx, &wg, dir, opts.Client, jobs, results)
	}

	go func() {
		defer close(jobs)
		for _, p := range photos {
			if p.ImageURL == "" {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- downloadJob{photo: p}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var total uint64
	completed := 0
	for res := range results {
		completed++
		if res.err != nil {
			manifest.Failures = append(manifest.Failures, formatter.DownloadFailure{
				PhotoID: res.photo.ID,
				URL:     res.photo.ImageURL,
				Error:   res.err.Error(),
			})
			if e.logger != nil {
				e.logger.Warn("image download failed", "id", res.photo.ID, "error", res.err)
			}
			sendProgress(prog, downloadFailedUpdate(completed, len(photos), res.photo.Title, res.err))
			continue
		}

		rel := filepath.ToSlash(filepath.Join("images", filepath.Base(res.path)))
		images[res.photo.ID] = rel
		manifest.Files = append(manifest.Files, rel)
		manifest.Downloaded++
		total += uint64(res.size)
		sendProgress(prog, downloadCompletedUpdate(completed, len(photos), res.photo.Title))
	}

	if total > 0 {
		manifest.TotalBytes = humanize.Bytes(total)
	}
	return images
}

func (e *Exporter) downloadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	dir string,
	client *http.Client,
	jobs <-chan downloadJob,
	results chan<- downloadResult,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- downloadResult{photo: job.photo, err: ctx.Err()}
			continue
		default:
		}

		results <- downloadImage(ctx, client, dir, job.photo)
	}
}

func downloadImage(ctx context.Context, client *http.Client, dir string, p models.Photo) downloadResult {
	data, err := formatter.DownloadImage(ctx, client, p.ImageURL)
	if err != nil {
		return downloadResult{photo: p, err: err}
	}
	if len(data) == 0 {
		return downloadResult{photo: p, err: errors.New("empty image")}
	}

	path := filepath.Join(dir, formatter.ImageFilename(p))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return downloadResult{photo: p, err: fmt.Errorf("failed to save image: %w", err)}
	}
	return downloadResult{photo: p, path: path, size: len(data)}
}
