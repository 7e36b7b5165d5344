package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-console/internal/clock"
	"github.com/spec-kit/helpdesk-console/internal/debounce"
	"github.com/spec-kit/helpdesk-console/internal/domain"
)

type fakeList struct {
	mu      sync.Mutex
	total   int
	calls   []string
	fail    error
	onFetch func()
}

func (l *fakeList) fetch(_ context.Context, f Filter, page, limit int) (domain.Page[domain.Ticket], error) {
	l.mu.Lock()
	l.calls = append(l.calls, f.Query(page, limit).Encode())
	hook, fail := l.onFetch, l.fail
	l.onFetch = nil
	l.mu.Unlock()
	if hook != nil {
		hook()
	}
	if fail != nil {
		return domain.Page[domain.Ticket]{}, fail
	}
	var items []domain.Ticket
	for i := (page-1)*limit + 1; i <= page*limit && i <= l.total; i++ {
		items = append(items, domain.Ticket{ID: fmt.Sprintf("T%d:%s", i, f.Search)})
	}
	return domain.Page[domain.Ticket]{Items: items, Page: page, Limit: limit, Total: l.total}, nil
}

func (l *fakeList) requests() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.calls...)
}

func newSearcher(list *fakeList) (*Searcher, *clock.FakeClock) {
	fake := clock.Fake(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	pager := NewPager(list.fetch, 2)
	return NewSearcher(pager, debounce.New(500*time.Millisecond, debounce.WithClock(fake)), nil), fake
}

func TestPagerLoadMore(t *testing.T) {
	list := &fakeList{total: 5}
	pager := NewPager(list.fetch, 2)
	ctx := context.Background()

	require.NoError(t, pager.Reset(ctx, Filter{}))
	assert.Len(t, pager.Items(), 2)
	assert.True(t, pager.HasMore())

	require.NoError(t, pager.LoadMore(ctx))
	require.NoError(t, pager.LoadMore(ctx))
	assert.Len(t, pager.Items(), 5)
	assert.Equal(t, 3, pager.Page())
	assert.False(t, pager.HasMore())

	require.NoError(t, pager.LoadMore(ctx))
	assert.Len(t, list.requests(), 3, "no request past the last page")
}

func TestPagerResetsOnFilterChange(t *testing.T) {
	list := &fakeList{total: 5}
	pager := NewPager(list.fetch, 2)
	ctx := context.Background()

	require.NoError(t, pager.Reset(ctx, Filter{}))
	require.NoError(t, pager.LoadMore(ctx))
	require.NoError(t, pager.Reset(ctx, Filter{QueueID: "Q1"}))

	assert.Equal(t, 1, pager.Page())
	assert.Len(t, pager.Items(), 2)
	assert.Equal(t, "Q1", pager.Filter().QueueID)
}

func TestPagerDropsSupersededPage(t *testing.T) {
	list := &fakeList{total: 5}
	pager := NewPager(list.fetch, 2)
	ctx := context.Background()
	require.NoError(t, pager.Reset(ctx, Filter{}))

	list.onFetch = func() {
		require.NoError(t, pager.Reset(ctx, Filter{Search: "vpn"}))
	}
	require.NoError(t, pager.LoadMore(ctx))

	items := pager.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "T1:vpn", items[0].ID)
	assert.Equal(t, 1, pager.Page())
}

func TestSearchIsDebounced(t *testing.T) {
	list := &fakeList{total: 1}
	s, fake := newSearcher(list)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	typed := ""
	for _, ch := range "printer" {
		typed += string(ch)
		s.SetSearch(ctx, typed)
		fake.Advance(100 * time.Millisecond)
	}
	assert.Len(t, list.requests(), 1, "only the initial load while typing")

	fake.Advance(500 * time.Millisecond)
	reqs := list.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "limit=2&page=1&search=printer", reqs[1])
}

func TestSearchSameTermIssuesNoRequest(t *testing.T) {
	list := &fakeList{total: 1}
	s, fake := newSearcher(list)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	s.SetSearch(ctx, "printer")
	fake.Advance(time.Second)
	s.SetSearch(ctx, "printe")
	s.SetSearch(ctx, "printer ")
	fake.Advance(time.Second)

	assert.Len(t, list.requests(), 2)
}

func TestExecuteNowSkipsWait(t *testing.T) {
	list := &fakeList{total: 1}
	s, fake := newSearcher(list)
	ctx := context.Background()

	s.SetSearch(ctx, "vpn")
	require.NoError(t, s.ExecuteNow(ctx))
	fake.Advance(time.Second)

	reqs := list.requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0], "search=vpn")
}

func TestSetFilterKeepsTextAndClearResets(t *testing.T) {
	list := &fakeList{total: 3}
	s, _ := newSearcher(list)
	ctx := context.Background()

	s.SetSearch(ctx, "vpn")
	require.NoError(t, s.SetFilter(ctx, Filter{QueueID: "Q1", Statuses: []domain.TicketStatus{domain.TicketStatusOpened}}))
	assert.Equal(t, "vpn", s.Pager().Filter().Search)
	require.NoError(t, s.LoadMore(ctx))

	require.NoError(t, s.ClearFilters(ctx))
	assert.True(t, s.Pager().Filter().IsDefault())
	assert.Equal(t, 1, s.Pager().Page())
	reqs := list.requests()
	assert.Equal(t, "limit=2&page=1", reqs[len(reqs)-1])
}

func TestSearcherRecordsErrors(t *testing.T) {
	boom := errors.New("backend down")
	list := &fakeList{fail: boom}
	s, _ := newSearcher(list)

	assert.ErrorIs(t, s.Start(context.Background()), boom)
	assert.ErrorIs(t, s.Err(), boom)
}
