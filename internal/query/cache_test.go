package query

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newCache() (*Client, *MemoryStore) {
	store := NewMemoryStore(nil)
	return NewClient(store, time.Minute, nil), store
}

func TestFetchCachesResult(t *testing.T) {
	c, _ := newCache()
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]row, error) {
		calls++
		return []row{{ID: "U1", Name: "Ada"}}, nil
	}

	first, err := Fetch(ctx, c, UserListKey("U1", nil), load)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, UserListKey("U1", nil), load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestFetchErrorIsNotCached(t *testing.T) {
	c, store := newCache()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := Fetch(ctx, c, "queues:list:U1", func(context.Context) ([]row, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.Len())
}

func TestFetchDeduplicatesInFlight(t *testing.T) {
	c, _ := newCache()
	ctx := context.Background()
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(context.Context) (row, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return row{ID: "T1"}, nil
	}

	var wg sync.WaitGroup
	results := make([]row, 8)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = Fetch(ctx, c, "tickets:detail:T1:U1", load)
	}()
	<-started
	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Fetch(ctx, c, "tickets:detail:T1:U1", load)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "T1", r.ID)
	}
}

func TestInvalidateDuringFetchSkipsWrite(t *testing.T) {
	c, store := newCache()
	ctx := context.Background()
	key := TicketListKey("U1", url.Values{"status": {"opened"}})

	stale, err := Fetch(ctx, c, key, func(ctx context.Context) ([]row, error) {
		require.NoError(t, c.Invalidate(ctx, TicketMutation("T1")...))
		return []row{{ID: "T1", Name: "before"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "before", stale[0].Name)
	_, ok, _ := store.Get(ctx, key)
	assert.False(t, ok, "stale list must not be cached")

	fresh, err := Fetch(ctx, c, key, func(context.Context) ([]row, error) {
		return []row{{ID: "T1", Name: "after"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "after", fresh[0].Name)
	_, ok, _ = store.Get(ctx, key)
	assert.True(t, ok)
}

// racingStore runs an invalidation right before each write lands.
type racingStore struct {
	*MemoryStore
	before func(ctx context.Context)
}

func (s *racingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.before != nil {
		s.before(ctx)
	}
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

func TestInvalidateBeforeWriteDropsEntry(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore(nil)}
	c := NewClient(store, time.Minute, nil)
	ctx := context.Background()
	key := TicketListKey("U1", nil)

	store.before = func(ctx context.Context) {
		store.before = nil
		require.NoError(t, c.Invalidate(ctx, TicketListPrefix))
	}
	_, err := Fetch(ctx, c, key, func(context.Context) (string, error) { return "stale", nil })
	require.NoError(t, err)
	_, ok, _ := store.Get(ctx, key)
	assert.False(t, ok)

	got, err := Fetch(ctx, c, key, func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestCancelledCallerDoesNotFailJoinedCallers(t *testing.T) {
	c, _ := newCache()
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (row, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return row{}, err
		}
		return row{ID: "T1"}, nil
	}
	key := TicketDetailKey("T1", "U1")

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Fetch(first, c, key, load)
		firstErr <- err
	}()
	<-started

	joined := make(chan row, 1)
	go func() {
		got, _ := Fetch(context.Background(), c, key, load)
		joined <- got
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, "T1", (<-joined).ID)
}

func TestInvalidateUnrelatedPrefixKeepsWrite(t *testing.T) {
	c, store := newCache()
	ctx := context.Background()

	_, err := Fetch(ctx, c, QueueListKey("U1"), func(ctx context.Context) ([]row, error) {
		require.NoError(t, c.Invalidate(ctx, TicketListPrefix))
		return []row{{ID: "Q1"}}, nil
	})
	require.NoError(t, err)
	_, ok, _ := store.Get(ctx, QueueListKey("U1"))
	assert.True(t, ok)
}

func TestInvalidateRemovesEntries(t *testing.T) {
	c, store := newCache()
	ctx := context.Background()
	for _, key := range []string{TicketListKey("U1", nil), TicketDetailKey("T1", "U1"), TicketDetailKey("T2", "U1"), AnalyticsKey("U1", nil)} {
		_, err := Fetch(ctx, c, key, func(context.Context) (row, error) { return row{ID: key}, nil })
		require.NoError(t, err)
	}

	require.NoError(t, c.Invalidate(ctx, TicketMutation("T1")...))

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{TicketDetailKey("T2", "U1")}, keys)
}

func TestPatchRewritesEntries(t *testing.T) {
	c, _ := newCache()
	ctx := context.Background()
	all := []row{{ID: "U1"}, {ID: "U2"}, {ID: "U3"}}
	for _, viewer := range []string{"A1", "A2"} {
		_, err := Fetch(ctx, c, UserListKey(viewer, nil), func(context.Context) ([]row, error) { return all, nil })
		require.NoError(t, err)
	}

	err := Patch(ctx, c, UserListPrefix, func(rows []row) []row {
		kept := rows[:0]
		for _, r := range rows {
			if r.ID != "U2" {
				kept = append(kept, r)
			}
		}
		return kept
	})
	require.NoError(t, err)

	for _, viewer := range []string{"A1", "A2"} {
		got, err := Fetch(ctx, c, UserListKey(viewer, nil), func(context.Context) ([]row, error) {
			t.Fatal("patched entry should be served from cache")
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []row{{ID: "U1"}, {ID: "U3"}}, got)
	}
}

func TestKeysArePerUser(t *testing.T) {
	assert.NotEqual(t, TicketDetailKey("T1", "U1"), TicketDetailKey("T1", "U2"))
	assert.Equal(t, "tickets:list:U1:page=2&search=printer", TicketListKey("U1", url.Values{"search": {"printer"}, "page": {"2"}}))
	assert.Contains(t, TicketMutation("T1"), TicketHistoryPrefix("T1"))
	assert.Len(t, TicketMutation(""), 2)
}
