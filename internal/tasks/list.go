package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/services"
	"github.com/desertthunder/shutter/internal/shared"
)

// LoadErrorMessage is shown instead of the underlying error when a list fetch fails.
const LoadErrorMessage = "Failed to load photos."

// Snapshot is a consistent copy of a [ListController]'s state.
type Snapshot struct {
	Query   models.Query
	Items   []models.Photo
	Status  models.ViewStatus
	Loading bool
	HasMore bool
	// NextPage is the page the next LoadMore will request.
	NextPage int
	// Message is set when Status is error.
	Message string
}

// ListController owns the photo list for one query and its pagination.
//
// Each fetch runs under its own cancelable context and a generation number.
// Changing the query cancels the in-flight fetch and bumps the generation, so
// a late response from an older query is never applied.
type ListController struct {
	lister services.PhotoLister
	logger *log.Logger

	mu       sync.Mutex
	query    models.Query
	items    []models.Photo
	loading  bool
	failed   bool
	hasMore  bool
	nextPage int
	// stale is set while items belong to a previous query whose replacement has not loaded.
	stale    bool
	gen      uint64
	cancel   context.CancelFunc
}

// NewListController creates a controller for q. Nothing is fetched until [ListController.Reload].
func NewListController(lister services.PhotoLister, q models.Query, logger *log.Logger) *ListController {
	if q.PageSize <= 0 {
		q.PageSize = models.DefaultPageSize
	}
	q.Page = 1
	return &ListController{lister: lister, logger: logger, query: q, hasMore: true, nextPage: 1}
}

// Snapshot returns the current state.
func (c *ListController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *ListController) snapshot() Snapshot {
	s := Snapshot{
		Query:    c.query,
		Items:    c.items,
		Status:   DeriveStatus(c.loading, c.failed, c.items),
		Loading:  c.loading,
		HasMore:  c.hasMore,
		NextPage: c.nextPage,
	}
	if c.stale {
		s.NextPage = 1
	}
	if c.failed {
		s.Message = LoadErrorMessage
	}
	return s
}

// CanLoadMore reports hasMore && !loading && !failed.
//
// After a failure the list waits for an explicit [ListController.Reload].
func (c *ListController) CanLoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore && !c.loading && !c.failed
}

// SetQuery switches to q, resets to page 1 and replaces the list when the fetch completes.
//
// An identical filter with a list already loaded is a no-op.
func (c *ListController) SetQuery(ctx context.Context, q models.Query) (Snapshot, error) {
	c.mu.Lock()
	if q.PageSize <= 0 {
		q.PageSize = c.query.PageSize
	}
	if q.SameFilter(c.query) && q.PageSize == c.query.PageSize && c.items != nil && !c.failed {
		s := c.snapshot()
		c.mu.Unlock()
		return s, nil
	}
	c.query = q.WithPage(1)
	c.stale = true
	c.nextPage = 1
	c.mu.Unlock()
	return c.Reload(ctx)
}

// SetText changes only the free-text filter.
func (c *ListController) SetText(ctx context.Context, text string) (Snapshot, error) {
	q := c.Snapshot().Query
	q.Text = text
	return c.SetQuery(ctx, q)
}

// SetCategory changes only the category filter.
func (c *ListController) SetCategory(ctx context.Context, category string) (Snapshot, error) {
	q := c.Snapshot().Query
	q.Category = category
	return c.SetQuery(ctx, q)
}

// SetTag changes only the tag filter.
func (c *ListController) SetTag(ctx context.Context, tag string) (Snapshot, error) {
	q := c.Snapshot().Query
	q.Tag = tag
	return c.SetQuery(ctx, q)
}

// Reload fetches page 1 of the current query, superseding any in-flight fetch.
func (c *ListController) Reload(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	q := c.query.WithPage(1)
	return c.fetch(ctx, q, true)
}

// LoadMore fetches the next page and appends it.
//
// It does nothing when the list is exhausted or a fetch is already in flight.
// While the items still belong to a previous query, it fetches page 1 and replaces them.
func (c *ListController) LoadMore(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.stale && !c.loading {
		return c.fetch(ctx, c.query.WithPage(1), true)
	}
	if !c.hasMore || c.loading {
		s := c.snapshot()
		c.mu.Unlock()
		return s, nil
	}
	q := c.query.WithPage(c.nextPage)
	return c.fetch(ctx, q, false)
}

// Cancel aborts the in-flight fetch, if any, without applying it.
func (c *ListController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.loading = false
}

// fetch must be called with c.mu held; it releases the lock while the request runs.
func (c *ListController) fetch(ctx context.Context, q models.Query, replace bool) (Snapshot, error) {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true
	c.mu.Unlock()

	photos, err := c.lister.ListPhotos(fetchCtx, q)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return c.snapshot(), shared.ErrSuperseded
	}
	c.cancel = nil
	c.loading = false

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return c.snapshot(), err
		}
		c.failed = true
		if c.logger != nil {
			c.logger.Error("photo list fetch failed", "page", q.Page, "query", q.Text, "error", err)
		}
		return c.snapshot(), err
	}

	if photos == nil {
		photos = []models.Photo{}
	}
	c.failed = false
	if replace {
		c.stale = false
		c.items = photos
	} else {
		c.items = append(append([]models.Photo{}, c.items...), photos...)
	}
	c.hasMore = len(photos) >= q.PageSize
	c.nextPage = q.Page + 1

	if c.logger != nil {
		c.logger.Debug("photo page loaded", "page", q.Page, "count", len(photos), "total", len(c.items), "has_more", c.hasMore)
	}
	return c.snapshot(), nil
}
