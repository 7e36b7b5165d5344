package search

import (
	"context"
	"sync"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// FetchFunc loads one page of tickets matching a filter.
type FetchFunc func(ctx context.Context, f Filter, page, limit int) (domain.Page[domain.Ticket], error)

// Pager accumulates "load more" pages for one filter at a time. Changing
// the filter starts over from page 1; pages that arrive for a filter that
// has since been replaced are dropped.
type Pager struct {
	fetch FetchFunc
	limit int

	mu      sync.Mutex
	filter  Filter
	items   []domain.Ticket
	page    int
	total   int
	hasMore bool
	epoch   uint64
}

// NewPager returns a pager that loads limit tickets per page.
func NewPager(fetch FetchFunc, limit int) *Pager {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return &Pager{fetch: fetch, limit: limit}
}

// Reset switches to filter f and loads its first page.
func (p *Pager) Reset(ctx context.Context, f Filter) error {
	p.mu.Lock()
	p.epoch++
	epoch := p.epoch
	p.filter = f
	p.items = nil
	p.page = 0
	p.total = 0
	p.hasMore = false
	p.mu.Unlock()

	return p.load(ctx, epoch, f, 1)
}

// LoadMore appends the next page. It does nothing when the last page has
// been reached.
func (p *Pager) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if p.page > 0 && !p.hasMore {
		p.mu.Unlock()
		return nil
	}
	epoch, f, next := p.epoch, p.filter, p.page+1
	p.mu.Unlock()

	return p.load(ctx, epoch, f, next)
}

func (p *Pager) load(ctx context.Context, epoch uint64, f Filter, page int) error {
	result, err := p.fetch(ctx, f, page, p.limit)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch || page != p.page+1 {
		return nil
	}
	p.items = append(p.items, result.Items...)
	p.page = page
	p.total = result.Total
	p.hasMore = result.HasMore()
	return nil
}

// Items returns every ticket loaded so far for the current filter.
func (p *Pager) Items() []domain.Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Ticket{}, p.items...)
}

// Filter returns the filter the pager is showing.
func (p *Pager) Filter() Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// Page returns the number of pages loaded.
func (p *Pager) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Total returns the backend's total count when it reports one.
func (p *Pager) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// HasMore reports whether LoadMore would fetch another page.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page == 0 || p.hasMore
}
