package tasks

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Percent int    // Progress of the current step, 0-100
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	UploadFile Phase = iota
	UploadDone
	FetchPage
	ExportPhotos
	DownloadImage
)

func (p Phase) String() string {
	switch p {
	case UploadFile:
		return "upload_file"
	case UploadDone:
		return "upload_done"
	case FetchPage:
		return "fetch_page"
	case ExportPhotos:
		return "export_photos"
	case DownloadImage:
		return "download_image"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func uploadStartUpdate(step, total int, name string, size int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading %s (%s)...", step, total, name, humanize.Bytes(uint64(size))),
	}
}

func uploadProgressUpdate(step, total int, name string, percent int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFile,
		Step:    step,
		Total:   total,
		Percent: percent,
		Message: fmt.Sprintf("[%d/%d] %s %d%%", step, total, name, percent),
	}
}

func uploadFailedUpdate(step, total int, name, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, name, message),
	}
}

func uploadCompletedUpdate(done, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadDone,
		Step:    done,
		Total:   total,
		Percent: 100,
		Message: fmt.Sprintf("✓ Uploaded %d of %s", done, english.Plural(total, "file", "")),
	}
}

func fetchPageUpdate(page, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    page,
		Message: fmt.Sprintf("Fetched page %d (%d photos so far)", page, count),
	}
}

func downloadCompletedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadImage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, title),
	}
}

func downloadFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadImage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}
