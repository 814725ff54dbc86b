package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/services"
	"github.com/desertthunder/shutter/internal/shared"
	tu "github.com/desertthunder/shutter/internal/testing"
)

type mockHistory struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (m *mockHistory) Add(query string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append([]string{query}, m.queries...)
	return nil
}

func (m *mockHistory) Recent(limit int) ([]models.RecentSearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []models.RecentSearch{}
	for i, q := range m.queries {
		if limit > 0 && i == limit {
			break
		}
		out = append(out, models.RecentSearch{Query: q})
	}
	return out, nil
}

type mockRecorder struct {
	events []*models.FillEvent
}

func (m *mockRecorder) Record(e *models.FillEvent) error {
	m.events = append(m.events, e)
	return nil
}

// pagedGallery serves pages of the given sizes, then empty pages.
func pagedGallery(sizes ...int) *tu.MockGallery {
	return &tu.MockGallery{
		ListFunc: func(ctx context.Context, q models.Query) ([]models.Photo, error) {
			if q.Page > len(sizes) {
				return []models.Photo{}, nil
			}
			start := 1
			for _, n := range sizes[:q.Page-1] {
				start += n
			}
			return tu.Photos(start, sizes[q.Page-1]), nil
		},
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		loading bool
		failed  bool
		items   []models.Photo
		want    models.ViewStatus
	}{
		{"nothing fetched", false, false, nil, models.StatusIdle},
		{"loading wins", true, true, tu.Photos(1, 3), models.StatusLoading},
		{"error over items", false, true, tu.Photos(1, 3), models.StatusError},
		{"empty", false, false, []models.Photo{}, models.StatusEmpty},
		{"success", false, false, tu.Photos(1, 1), models.StatusSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.loading, tt.failed, tt.items); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestListController(t *testing.T) {
	ctx := context.Background()

	t.Run("Pagination", func(t *testing.T) {
		gallery := pagedGallery(30, 12)
		c := NewListController(gallery, models.NewQuery(30), nil)

		if s := c.Snapshot(); s.Status != models.StatusIdle {
			t.Errorf("expected idle before first fetch, got %s", s.Status)
		}

		snap, err := c.Reload(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(snap.Items) != 30 || !snap.HasMore || snap.NextPage != 2 {
			t.Errorf("unexpected first page %d items, hasMore=%v, next=%d", len(snap.Items), snap.HasMore, snap.NextPage)
		}

		snap, err = c.LoadMore(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(snap.Items) != 42 || snap.HasMore {
			t.Errorf("expected 42 items and no more pages, got %d (hasMore=%v)", len(snap.Items), snap.HasMore)
		}
		if snap.Items[30].ID != 31 {
			t.Errorf("expected page 2 appended in order, got id %d", snap.Items[30].ID)
		}

		c.LoadMore(ctx)
		if calls := len(gallery.Calls()); calls != 2 {
			t.Errorf("expected LoadMore to stop after the last page, got %d calls", calls)
		}
	})

	t.Run("Query Change Resets To Page 1", func(t *testing.T) {
		gallery := pagedGallery(30, 30)
		c := NewListController(gallery, models.NewQuery(30), nil)
		c.Reload(ctx)
		c.LoadMore(ctx)

		snap, err := c.SetCategory(ctx, "pets")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(snap.Items) != 30 || snap.NextPage != 2 {
			t.Errorf("expected the list replaced by page 1, got %d items next=%d", len(snap.Items), snap.NextPage)
		}

		calls := gallery.Calls()
		last := calls[len(calls)-1]
		if last.Page != 1 || last.Category != "pets" {
			t.Errorf("expected page 1 with category pets, got %+v", last)
		}
	})

	t.Run("Same Filter Is A No-op", func(t *testing.T) {
		gallery := pagedGallery(30)
		c := NewListController(gallery, models.Query{Text: "cat", PageSize: 30}, nil)
		c.Reload(ctx)

		c.SetText(ctx, "cat")
		if calls := len(gallery.Calls()); calls != 1 {
			t.Errorf("expected no refetch for an unchanged query, got %d calls", calls)
		}
	})

	t.Run("Stale Response Is Dropped", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		gallery := &tu.MockGallery{
			ListFunc: func(ctx context.Context, q models.Query) ([]models.Photo, error) {
				if q.Text == "old" {
					close(started)
					<-release
					return tu.Photos(100, 5), nil
				}
				return tu.Photos(1, 2), nil
			},
		}
		c := NewListController(gallery, models.NewQuery(30), nil)

		errs := make(chan error, 1)
		go func() {
			_, err := c.SetText(ctx, "old")
			errs <- err
		}()
		<-started

		snap, err := c.SetText(ctx, "new")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(release)

		if err := <-errs; !errors.Is(err, shared.ErrSuperseded) {
			t.Errorf("expected ErrSuperseded for the old query, got %v", err)
		}

		snap = c.Snapshot()
		if len(snap.Items) != 2 || snap.Items[0].ID != 1 || snap.Query.Text != "new" {
			t.Errorf("expected only the new query's results, got %+v", snap.Items)
		}
		if snap.Loading {
			t.Error("expected loading to be cleared")
		}
	})

	t.Run("Canceled Fetch Is Not An Error", func(t *testing.T) {
		gallery := &tu.MockGallery{
			ListFunc: func(ctx context.Context, q models.Query) ([]models.Photo, error) {
				return nil, context.Canceled
			},
		}
		c := NewListController(gallery, models.NewQuery(30), nil)

		snap, err := c.Reload(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if snap.Status == models.StatusError || snap.Message != "" {
			t.Errorf("expected no error status, got %s %q", snap.Status, snap.Message)
		}
	})

	t.Run("Failure Keeps Items", func(t *testing.T) {
		gallery := &tu.MockGallery{
			ListFunc: func(ctx context.Context, q models.Query) ([]models.Photo, error) {
				if q.Page == 2 {
					return nil, fmt.Errorf("%w: boom", shared.ErrAPIRequest)
				}
				return tu.Photos(1, 30), nil
			},
		}
		c := NewListController(gallery, models.NewQuery(30), nil)
		c.Reload(ctx)

		snap, err := c.LoadMore(ctx)
		if err == nil {
			t.Fatal("expected error")
		}
		if snap.Status != models.StatusError || snap.Message != LoadErrorMessage {
			t.Errorf("expected error status with generic message, got %s %q", snap.Status, snap.Message)
		}
		if len(snap.Items) != 30 {
			t.Errorf("expected accumulated items kept, got %d", len(snap.Items))
		}
		if c.CanLoadMore() {
			t.Error("expected no load more until reload after a failure")
		}
	})

	t.Run("Failed Query Change Does Not Append To Old List", func(t *testing.T) {
		failB := true
		gallery := &tu.MockGallery{
			ListFunc: func(ctx context.Context, q models.Query) ([]models.Photo, error) {
				if q.Text == "b" {
					if failB {
						return nil, fmt.Errorf("%w: boom", shared.ErrAPIRequest)
					}
					return tu.Photos(100, 1), nil
				}
				return tu.Photos(q.Page*10, 2), nil
			},
		}
		c := NewListController(gallery, models.NewQuery(2), nil)
		c.Reload(ctx)
		c.LoadMore(ctx)

		snap, err := c.SetText(ctx, "b")
		if err == nil {
			t.Fatal("expected error")
		}
		if snap.NextPage != 1 {
			t.Errorf("expected pagination reset to page 1, got %d", snap.NextPage)
		}

		failB = false
		snap, err = c.LoadMore(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		calls := gallery.Calls()
		last := calls[len(calls)-1]
		if last.Text != "b" || last.Page != 1 {
			t.Errorf("expected page 1 of the new query, got %+v", last)
		}
		if len(snap.Items) != 1 || snap.Items[0].ID != 100 {
			t.Errorf("expected list replaced by the new query, got %d items", len(snap.Items))
		}
		if snap.NextPage != 2 || snap.HasMore {
			t.Errorf("unexpected pagination next=%d hasMore=%v", snap.NextPage, snap.HasMore)
		}
	})
}

func TestAutoFiller(t *testing.T) {
	ctx := context.Background()

	t.Run("Stops After Three Attempts", func(t *testing.T) {
		gallery := &tu.MockGallery{
			ListFunc: func(ctx context.Context, q models.Query) ([]models.Photo, error) {
				return tu.Photos((q.Page-1)*5+1, 5), nil
			},
		}
		list := NewListController(gallery, models.Query{Text: "tiny", PageSize: 5}, nil)
		list.Reload(ctx)

		recorder := &mockRecorder{}
		res, err := NewAutoFiller(list, 0, 0, recorder, nil).Fill(ctx, Viewport{Capacity: 100})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Attempts != DefaultFillAttempts {
			t.Errorf("expected %d attempts, got %d", DefaultFillAttempts, res.Attempts)
		}
		if calls := len(gallery.Calls()); calls != 4 {
			t.Errorf("expected reload plus 3 loads, got %d calls", calls)
		}
		if res.Event == nil || len(recorder.events) != 1 {
			t.Fatal("expected one fill event")
		}
		e := recorder.events[0]
		if e.Reason != FillReasonBlank || e.Page != 5 || e.Count != 20 || e.Query != "tiny" || e.ID == "" {
			t.Errorf("unexpected event %+v", e)
		}
	})

	t.Run("No More Pages Short-Circuits", func(t *testing.T) {
		gallery := pagedGallery(2)
		list := NewListController(gallery, models.NewQuery(5), nil)
		list.Reload(ctx)

		recorder := &mockRecorder{}
		res, _ := NewAutoFiller(list, 0.9, 3, recorder, nil).Fill(ctx, Viewport{Capacity: 100})
		if res.Attempts != 0 || res.Event != nil || len(recorder.events) != 0 {
			t.Errorf("expected no attempts or events, got %+v", res)
		}
	})

	t.Run("Filled Viewport", func(t *testing.T) {
		gallery := pagedGallery(5, 5)
		list := NewListController(gallery, models.NewQuery(5), nil)
		list.Reload(ctx)

		res, _ := NewAutoFiller(list, 0.9, 3, nil, nil).Fill(ctx, Viewport{Capacity: 5})
		if res.Attempts != 0 {
			t.Errorf("expected no attempts, got %d", res.Attempts)
		}
	})

	t.Run("Fills Until Threshold", func(t *testing.T) {
		gallery := pagedGallery(4, 4, 4, 4)
		list := NewListController(gallery, models.NewQuery(4), nil)
		list.Reload(ctx)

		res, _ := NewAutoFiller(list, 0.9, 3, nil, nil).Fill(ctx, Viewport{Capacity: 10})
		if res.Attempts != 2 || len(res.Snapshot.Items) != 12 || res.Event != nil {
			t.Errorf("expected 2 attempts reaching 12 items, got %d attempts %d items", res.Attempts, len(res.Snapshot.Items))
		}
	})

	t.Run("Viewport", func(t *testing.T) {
		tests := []struct {
			capacity, count int
			want            bool
		}{
			{0, 0, false},
			{10, 8, true},
			{10, 9, false},
			{100, 89, true},
		}
		for _, tt := range tests {
			if got := (Viewport{Capacity: tt.capacity}).UnderFilled(tt.count, 0.9); got != tt.want {
				t.Errorf("capacity %d count %d: expected %v, got %v", tt.capacity, tt.count, tt.want, got)
			}
		}
	})
}

func TestSentinel(t *testing.T) {
	ctx := context.Background()

	t.Run("Fires On Transition Into View", func(t *testing.T) {
		gallery := pagedGallery(5, 5, 5)
		list := NewListController(gallery, models.NewQuery(5), nil)
		list.Reload(ctx)
		s := NewSentinel(list)

		steps := []struct {
			visible bool
			want    bool
		}{
			{false, false},
			{true, true},
			{true, false},
			{false, false},
			{true, true},
		}
		for i, step := range steps {
			if got := s.Observe(step.visible); got != step.want {
				t.Errorf("step %d: expected %v, got %v", i, step.want, got)
			}
		}
	})

	t.Run("Holds While List Failed", func(t *testing.T) {
		fail := false
		gallery := &tu.MockGallery{
			ListFunc: func(ctx context.Context, q models.Query) ([]models.Photo, error) {
				if fail {
					return nil, errors.New("boom")
				}
				return tu.Photos(1, 5), nil
			},
		}
		list := NewListController(gallery, models.NewQuery(5), nil)
		list.Reload(ctx)
		fail = true
		list.LoadMore(ctx)
		s := NewSentinel(list)

		if s.Observe(true) {
			t.Error("expected sentinel to hold while the list shows an error")
		}
		if n := len(gallery.Calls()); n != 2 {
			t.Errorf("expected 2 requests, got %d", n)
		}
	})

	t.Run("Visible Loads More", func(t *testing.T) {
		gallery := pagedGallery(5, 5)
		list := NewListController(gallery, models.NewQuery(5), nil)
		list.Reload(ctx)
		s := NewSentinel(list)

		fired, err := s.Visible(ctx, true)
		if err != nil || !fired {
			t.Fatalf("expected load, got fired=%v err=%v", fired, err)
		}
		if n := len(list.Snapshot().Items); n != 10 {
			t.Errorf("expected 10 items, got %d", n)
		}
	})

	t.Run("Exhausted List", func(t *testing.T) {
		gallery := pagedGallery(2)
		list := NewListController(gallery, models.NewQuery(5), nil)
		list.Reload(ctx)

		if NewSentinel(list).Observe(true) {
			t.Error("expected no load when there are no more pages")
		}
	})
}

func TestSuggester(t *testing.T) {
	ctx := context.Background()

	t.Run("Blank Input Shows Recent Searches", func(t *testing.T) {
		gallery := &tu.MockGallery{}
		history := &mockHistory{queries: []string{"g", "f", "e", "d", "c", "b", "a"}}
		s := NewSuggester(gallery, history, 0, 0, nil)

		out, err := s.Resolve(ctx, s.Input(), "   ")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(out) != DefaultSuggestionLimit || out[0].Text != "g" || !out[0].Recent {
			t.Errorf("unexpected suggestions %+v", out)
		}
		if len(gallery.Calls()) != 0 {
			t.Error("expected no network call for blank input")
		}
	})

	t.Run("Fetches Matching Titles", func(t *testing.T) {
		gallery := &tu.MockGallery{
			ListFunc: func(ctx context.Context, q models.Query) ([]models.Photo, error) {
				return tu.Photos(1, 10), nil
			},
		}
		s := NewSuggester(gallery, nil, 6, 0, nil)

		out, _ := s.Resolve(ctx, s.Input(), " cat ")
		if len(out) != 6 || out[0].PhotoID != 1 {
			t.Errorf("expected 6 title suggestions, got %+v", out)
		}
		q := gallery.Calls()[0]
		if q.Text != "cat" || q.Page != 1 || q.PageSize != 6 {
			t.Errorf("unexpected suggestion query %+v", q)
		}
		if len(s.Suggestions()) != 6 {
			t.Error("expected suggestions to be applied")
		}
	})

	t.Run("Failure Yields Empty List", func(t *testing.T) {
		gallery := &tu.MockGallery{
			ListFunc: func(ctx context.Context, q models.Query) ([]models.Photo, error) {
				return nil, errors.New("offline")
			},
		}
		s := NewSuggester(gallery, nil, 6, 0, nil)

		out, err := s.Resolve(ctx, s.Input(), "cat")
		if err != nil {
			t.Fatalf("expected failure to be swallowed, got %v", err)
		}
		if out == nil || len(out) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", out)
		}
	})

	t.Run("Stale Ticket", func(t *testing.T) {
		s := NewSuggester(&tu.MockGallery{}, nil, 6, 0, nil)
		old := s.Input()
		s.Input()

		if s.Current(old) {
			t.Error("expected old ticket to be stale")
		}
		if _, err := s.Resolve(ctx, old, "x"); !errors.Is(err, shared.ErrSuperseded) {
			t.Errorf("expected ErrSuperseded, got %v", err)
		}
	})

	t.Run("Debounce Keeps Latest Input", func(t *testing.T) {
		gallery := &tu.MockGallery{
			ListFunc: func(ctx context.Context, q models.Query) ([]models.Photo, error) {
				return []models.Photo{{ID: 1, Title: q.Text}}, nil
			},
		}
		s := NewSuggester(gallery, nil, 6, 20*time.Millisecond, nil)

		applied := make(chan []Suggestion, 3)
		for _, text := range []string{"c", "ca", "cat"} {
			s.Debounce(ctx, text, func(out []Suggestion) { applied <- out })
		}

		select {
		case out := <-applied:
			if len(out) != 1 || out[0].Text != "cat" {
				t.Errorf("expected suggestions for cat, got %+v", out)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for suggestions")
		}

		time.Sleep(50 * time.Millisecond)
		if calls := gallery.Calls(); len(calls) != 1 || calls[0].Text != "cat" {
			t.Errorf("expected one fetch for the final input, got %+v", calls)
		}
	})

	t.Run("Submit", func(t *testing.T) {
		history := &mockHistory{}
		s := NewSuggester(&tu.MockGallery{}, history, 6, 0, nil)
		s.Resolve(ctx, s.Input(), "")

		if _, ok := s.Submit("   "); ok {
			t.Error("expected blank submit to be ignored")
		}

		q, ok := s.Submit("  sunsets ")
		if !ok || q != "sunsets" {
			t.Errorf("expected sunsets, got %q (%v)", q, ok)
		}
		if len(history.queries) != 1 || history.queries[0] != "sunsets" {
			t.Errorf("expected history entry, got %v", history.queries)
		}
		if s.Suggestions() != nil {
			t.Error("expected suggestions cleared")
		}
	})
}

func TestUploadTracker(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := []string{
		tu.WriteImage(t, dir, "a.png"),
		tu.WriteImage(t, dir, "b.png"),
		tu.WriteImage(t, dir, "c.png"),
	}

	t.Run("NewUploadJobs", func(t *testing.T) {
		jobs, err := NewUploadJobs(paths)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(jobs) != 3 || jobs[0].Size == 0 || jobs[0].ID == "" {
			t.Errorf("unexpected jobs %+v", jobs)
		}
		if jobs[1].PreviewURL != "file://"+paths[1] {
			t.Errorf("unexpected preview URL %s", jobs[1].PreviewURL)
		}

		if _, err := NewUploadJobs([]string{dir}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected directory rejected, got %v", err)
		}
	})

	t.Run("All Succeed", func(t *testing.T) {
		jobs, _ := NewUploadJobs(paths)
		var resets []int
		send := func(ctx context.Context, job models.UploadJob, progress services.ProgressFunc) (*models.UploadResult, error) {
			resets = append(resets, job.Progress)
			progress(50, 100)
			progress(100, 100)
			return &models.UploadResult{Items: []models.UploadedPhoto{{ID: len(resets)}}}, nil
		}

		updates := make(chan ProgressUpdate, 32)
		tracker := NewUploadTracker(nil)
		summary := tracker.Run(ctx, jobs, send, updates)

		if summary.Completed != 3 || summary.Failed != nil || summary.Err != nil {
			t.Errorf("unexpected summary %+v", summary)
		}
		if uploaded := summary.Uploaded(); len(uploaded) != 3 || uploaded[2].ID != 3 {
			t.Errorf("expected created photos in order, got %+v", uploaded)
		}
		for i, p := range resets {
			if p != 0 {
				t.Errorf("file %d: expected progress reset to 0, got %d", i, p)
			}
		}
		if idx, _ := tracker.Progress(); idx != -1 {
			t.Errorf("expected idle tracker, got index %d", idx)
		}

		close(updates)
		var last ProgressUpdate
		for u := range updates {
			last = u
		}
		if last.Phase != UploadDone || last.Step != 3 {
			t.Errorf("unexpected final update %+v", last)
		}
	})

	t.Run("Failure Aborts Batch", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want string
		}{
			{"server detail", services.NewAPIError(400, []byte(`{"detail":"too large","error":"bad"}`)), "too large"},
			{"server error field", services.NewAPIError(400, []byte(`{"error":"bad file"}`)), "bad file"},
			{"transport", errors.New("connection reset"), "connection reset"},
			{"canceled", context.Canceled, "upload canceled"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				jobs, _ := NewUploadJobs(paths)
				var sent []string
				send := func(ctx context.Context, job models.UploadJob, progress services.ProgressFunc) (*models.UploadResult, error) {
					sent = append(sent, job.File)
					if job.File == jobs[1].File {
						progress(10, 100)
						return nil, tt.err
					}
					progress(100, 100)
					return &models.UploadResult{Items: []models.UploadedPhoto{{ID: 41}}}, nil
				}

				summary := NewUploadTracker(nil).Run(ctx, jobs, send, nil)
				if summary.Completed != 1 {
					t.Errorf("expected 1 completed, got %d", summary.Completed)
				}
				if len(sent) != 2 {
					t.Errorf("expected third file not sent, got %v", sent)
				}
				if summary.Failed == nil || summary.Failed.File != jobs[1].File {
					t.Errorf("expected second file to fail, got %+v", summary.Failed)
				}
				if summary.Message != tt.want {
					t.Errorf("expected message %q, got %q", tt.want, summary.Message)
				}
				if summary.Jobs[0].Progress != 100 {
					t.Errorf("expected first file kept at 100%%, got %d", summary.Jobs[0].Progress)
				}
				if r := summary.Jobs[0].Result; r == nil || len(r.Items) != 1 || r.Items[0].ID != 41 {
					t.Errorf("expected first file's result kept, got %+v", r)
				}
				if summary.Jobs[1].Result != nil {
					t.Errorf("expected no result for the failed file, got %+v", summary.Jobs[1].Result)
				}
			})
		}
	})

	t.Run("UploadMessage Fallback", func(t *testing.T) {
		if got := UploadMessage(nil); got != UploadFallbackMessage {
			t.Errorf("expected fallback, got %q", got)
		}
	})

	t.Run("CarouselSlots", func(t *testing.T) {
		got, err := CarouselSlots(7, 9, []string{"a", "b", "c"})
		if err != nil || len(got) != 2 {
			t.Errorf("expected 2 paths, got %v (%v)", got, err)
		}
		if _, err := CarouselSlots(9, 9, []string{"a"}); !errors.Is(err, shared.ErrCarouselFull) {
			t.Errorf("expected ErrCarouselFull, got %v", err)
		}
	})
}
