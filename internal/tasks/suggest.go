package tasks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/services"
	"github.com/desertthunder/shutter/internal/shared"
)

const (
	DefaultSuggestionLimit = 6
	DefaultDebounce        = 300 * time.Millisecond
)

// Suggestion is one autocomplete entry: a past search or a matching photo title.
type Suggestion struct {
	Text    string
	PhotoID int
	Recent  bool
}

// SearchHistory is the recent-search log the suggester reads and writes.
type SearchHistory interface {
	Add(query string) error
	Recent(limit int) ([]models.RecentSearch, error)
}

// Suggester produces debounced search suggestions.
//
// Every keystroke bumps a generation and cancels the pending timer and fetch.
// Only the input that survives the full delay is resolved, and its result is
// dropped if newer input arrived while it was in flight.
type Suggester struct {
	lister  services.PhotoLister
	history SearchHistory
	limit   int
	delay   time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	current []Suggestion
}

// NewSuggester creates a [Suggester]. history may be nil.
func NewSuggester(lister services.PhotoLister, history SearchHistory, limit int, delay time.Duration, logger *log.Logger) *Suggester {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Suggester{lister: lister, history: history, limit: limit, delay: delay, logger: logger}
}

// Delay returns the debounce delay.
func (s *Suggester) Delay() time.Duration { return s.delay }

// Suggestions returns the last applied suggestions.
func (s *Suggester) Suggestions() []Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Input registers a keystroke and returns its ticket. Any pending timer or fetch is abandoned.
func (s *Suggester) Input() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bump()
}

func (s *Suggester) bump() uint64 {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.gen
}

// Current reports whether ticket is still the latest input.
func (s *Suggester) Current(ticket uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ticket == s.gen
}

// Resolve computes suggestions for text under ticket and applies them if ticket is still current.
//
// Blank text yields recent searches without a network call. Fetch failures
// yield an empty list. A stale ticket returns [shared.ErrSuperseded].
func (s *Suggester) Resolve(ctx context.Context, ticket uint64, text string) ([]Suggestion, error) {
	s.mu.Lock()
	if ticket != s.gen {
		s.mu.Unlock()
		return nil, shared.ErrSuperseded
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	var out []Suggestion
	if trimmed := strings.TrimSpace(text); trimmed == "" {
		out = s.recent()
	} else {
		out = s.search(fetchCtx, trimmed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.gen {
		return nil, shared.ErrSuperseded
	}
	s.cancel = nil
	s.current = out
	return out, nil
}

// Debounce restarts the delay timer for text; apply receives the suggestions of the surviving input.
func (s *Suggester) Debounce(ctx context.Context, text string, apply func([]Suggestion)) {
	s.mu.Lock()
	ticket := s.bump()
	s.timer = time.AfterFunc(s.delay, func() {
		out, err := s.Resolve(ctx, ticket, text)
		if err == nil && apply != nil {
			apply(out)
		}
	})
	s.mu.Unlock()
}

// Submit trims text and, if non-empty, records it in the history and clears suggestions.
//
// It returns the query to navigate to and whether there was one.
func (s *Suggester) Submit(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if s.history != nil {
		if err := s.history.Add(text); err != nil && s.logger != nil {
			s.logger.Warn("failed to save recent search", "error", err)
		}
	}

	s.mu.Lock()
	s.bump()
	s.current = nil
	s.mu.Unlock()
	return text, true
}

func (s *Suggester) recent() []Suggestion {
	if s.history == nil {
		return []Suggestion{}
	}
	searches, err := s.history.Recent(s.limit)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("recent searches unavailable", "error", err)
		}
		return []Suggestion{}
	}

	out := make([]Suggestion, 0, len(searches))
	for _, r := range searches {
		if len(out) == s.limit {
			break
		}
		out = append(out, Suggestion{Text: r.Query, Recent: true})
	}
	return out
}

func (s *Suggester) search(ctx context.Context, text string) []Suggestion {
	q := models.Query{Text: text, Page: 1, PageSize: s.limit}
	photos, err := s.lister.ListPhotos(ctx, q)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("suggestion fetch failed", "query", text, "error", err)
		}
		return []Suggestion{}
	}

	out := make([]Suggestion, 0, s.limit)
	for _, p := range photos {
		if len(out) == s.limit {
			break
		}
		out = append(out, Suggestion{Text: p.Title, PhotoID: p.ID})
	}
	return out
}
