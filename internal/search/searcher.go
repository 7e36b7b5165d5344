package search

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-console/internal/debounce"
)

// Searcher drives a Pager from user input: free-text search is debounced,
// every other filter change applies immediately.
type Searcher struct {
	pager     *Pager
	debouncer *debounce.Debouncer
	logger    *zap.Logger

	mu      sync.Mutex
	text    string
	lastErr error
}

// NewSearcher couples a pager with a debouncer.
func NewSearcher(pager *Pager, debouncer *debounce.Debouncer, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{pager: pager, debouncer: debouncer, logger: logger}
}

// Start loads the first page of the default view.
func (s *Searcher) Start(ctx context.Context) error {
	return s.SetFilter(ctx, Filter{})
}

// SetSearch records typed text and schedules the search once input has
// been quiet for the debounce interval.
func (s *Searcher) SetSearch(ctx context.Context, text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	s.debouncer.Trigger(func() {
		if err := s.apply(ctx); err != nil {
			s.logger.Warn("debounced search failed", zap.Error(err))
		}
	})
}

// ExecuteNow runs the pending search without waiting.
func (s *Searcher) ExecuteNow(ctx context.Context) error {
	s.debouncer.Cancel()
	return s.apply(ctx)
}

// SetFilter replaces the non-text criteria and reloads from page 1. The
// current search text is kept.
func (s *Searcher) SetFilter(ctx context.Context, f Filter) error {
	s.debouncer.Cancel()
	s.mu.Lock()
	f = f.WithSearch(strings.TrimSpace(s.text))
	s.mu.Unlock()
	return s.record(s.pager.Reset(ctx, f))
}

// ClearFilters drops every criterion, search text included.
func (s *Searcher) ClearFilters(ctx context.Context) error {
	s.debouncer.Cancel()
	s.mu.Lock()
	s.text = ""
	s.mu.Unlock()
	return s.record(s.pager.Reset(ctx, Filter{}))
}

// LoadMore fetches the next page for the current filter.
func (s *Searcher) LoadMore(ctx context.Context) error {
	return s.record(s.pager.LoadMore(ctx))
}

// Pager exposes the accumulated results.
func (s *Searcher) Pager() *Pager { return s.pager }

// Err returns the error of the most recent load, if any.
func (s *Searcher) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Searcher) apply(ctx context.Context) error {
	s.mu.Lock()
	text := strings.TrimSpace(s.text)
	s.mu.Unlock()

	current := s.pager.Filter()
	if text == current.Search && s.pager.Page() > 0 {
		return nil
	}
	return s.record(s.pager.Reset(ctx, current.WithSearch(text)))
}

func (s *Searcher) record(err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}
