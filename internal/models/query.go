package models

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultPageSize is the list page size when none is configured.
const DefaultPageSize = 30

// Query holds the list search/filter parameters and the page to fetch.
type Query struct {
	Text     string
	Category string
	Tag      string
	Page     int
	PageSize int
}

// NewQuery returns a first-page query with the given page size.
func NewQuery(pageSize int) Query {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Query{Page: 1, PageSize: pageSize}
}

// SameFilter reports whether q and o select the same result set (ignoring pagination).
func (q Query) SameFilter(o Query) bool {
	return q.Text == o.Text && q.Category == o.Category && q.Tag == o.Tag
}

// WithPage returns a copy of q targeting page.
func (q Query) WithPage(page int) Query {
	q.Page = page
	return q
}

// Values encodes q as GET /photos parameters. Empty filters are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	if t := strings.TrimSpace(q.Text); t != "" {
		v.Set("q", t)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	return v
}

// ViewStatus is the derived state of a list view.
type ViewStatus string

const (
	StatusIdle    ViewStatus = "idle"
	StatusLoading ViewStatus = "loading"
	StatusError   ViewStatus = "error"
	StatusEmpty   ViewStatus = "empty"
	StatusSuccess ViewStatus = "success"
)

// RecentSearch is one entry of the locally stored search history.
type RecentSearch struct {
	Query      string
	Sequence   int
	SearchedAt time.Time
}

// FillEvent records an auto-fill cycle that ended with the viewport still under-filled.
type FillEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Reason    string    `json:"type"`
	Page      int       `json:"page"`
	Count     int       `json:"count"`
	Query     string    `json:"query,omitempty"`
}

// UploadJob is one file within an upload batch.
type UploadJob struct {
	ID         string
	File       string
	PreviewURL string
	Size       int64
	Progress   int
	// Result is the server's response once the file has been sent.
	Result *UploadResult
}
