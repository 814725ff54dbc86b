package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/shared"
)

const (
	DefaultFillRatio    = 0.9
	DefaultFillAttempts = 3

	// FillReasonBlank marks a load cycle that ended with the viewport still under-filled.
	FillReasonBlank = "blank_persist"
)

// Viewport describes how many list items the presentation layer can show at once.
type Viewport struct {
	Capacity int
}

// UnderFilled reports whether count items cover less than ratio of the viewport.
func (v Viewport) UnderFilled(count int, ratio float64) bool {
	if v.Capacity <= 0 {
		return false
	}
	return float64(count) < ratio*float64(v.Capacity)
}

// FillRecorder persists auto-fill diagnostics.
type FillRecorder interface {
	Record(e *models.FillEvent) error
}

// FillResult summarizes one auto-fill cycle.
type FillResult struct {
	Attempts int
	Event    *models.FillEvent
	Snapshot Snapshot
}

// AutoFiller loads further pages while the list does not fill the viewport.
type AutoFiller struct {
	list        *ListController
	ratio       float64
	maxAttempts int
	recorder    FillRecorder
	logger      *log.Logger
	now         func() time.Time
}

// NewAutoFiller creates an [AutoFiller]; non-positive ratio or attempts fall back to 0.9 and 3.
func NewAutoFiller(list *ListController, ratio float64, attempts int, recorder FillRecorder, logger *log.Logger) *AutoFiller {
	if ratio <= 0 {
		ratio = DefaultFillRatio
	}
	if attempts <= 0 {
		attempts = DefaultFillAttempts
	}
	return &AutoFiller{list: list, ratio: ratio, maxAttempts: attempts, recorder: recorder, logger: logger, now: time.Now}
}

// Fill runs one load cycle after a completed fetch.
//
// While the list is under-filled, has more pages and fewer than the attempt cap
// have been made, it issues LoadMore. Running out of pages stops immediately.
// Exhausting the attempts with the viewport still under-filled records a
// [models.FillEvent]; that is a diagnostic, not an error.
func (a *AutoFiller) Fill(ctx context.Context, vp Viewport) (FillResult, error) {
	var res FillResult
	for {
		snap := a.list.Snapshot()
		res.Snapshot = snap

		if snap.Loading || snap.Status == models.StatusError {
			return res, nil
		}
		if !vp.UnderFilled(len(snap.Items), a.ratio) || !snap.HasMore {
			return res, nil
		}
		if res.Attempts >= a.maxAttempts {
			res.Event = a.record(snap)
			return res, nil
		}

		res.Attempts++
		snap, err := a.list.LoadMore(ctx)
		res.Snapshot = snap
		if err != nil {
			return res, err
		}
	}
}

func (a *AutoFiller) record(snap Snapshot) *models.FillEvent {
	e := &models.FillEvent{
		ID:        shared.GenerateID(),
		Timestamp: a.now(),
		Reason:    FillReasonBlank,
		Page:      snap.NextPage,
		Count:     len(snap.Items),
		Query:     snap.Query.Text,
	}

	if a.logger != nil {
		a.logger.Warn("viewport still under-filled", "type", e.Reason, "page", e.Page, "count", e.Count)
	}
	if a.recorder != nil {
		if err := a.recorder.Record(e); err != nil && a.logger != nil {
			a.logger.Error("failed to record fill event", "error", err)
		}
	}
	return e
}

// Sentinel fires one LoadMore each time the end of the list comes into view.
type Sentinel struct {
	list *ListController

	mu     sync.Mutex
	inView bool
}

// NewSentinel watches list.
func NewSentinel(list *ListController) *Sentinel {
	return &Sentinel{list: list}
}

// Observe records the sentinel's visibility and reports whether a LoadMore should be issued.
//
// Only a transition from hidden to visible fires, and only when [ListController.CanLoadMore] holds.
func (s *Sentinel) Observe(visible bool) bool {
	s.mu.Lock()
	entered := visible && !s.inView
	s.inView = visible
	s.mu.Unlock()

	return entered && s.list.CanLoadMore()
}

// Visible is [Sentinel.Observe] followed by the LoadMore it calls for.
func (s *Sentinel) Visible(ctx context.Context, visible bool) (bool, error) {
	if !s.Observe(visible) {
		return false, nil
	}
	_, err := s.list.LoadMore(ctx)
	return true, err
}
