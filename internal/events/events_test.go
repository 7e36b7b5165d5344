package events

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first")
		return errors.New("first failed")
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		seen = append(seen, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "T1"})
	assert.EqualError(t, err, "first failed")
	assert.Equal(t, []string{"first", "second:T1"}, seen)
}

func TestDispatcherRecoversPanics(t *testing.T) {
	d := NewInMemoryDispatcher()
	ran := false
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error { panic("nil feed") })
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		ran = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketAssigned})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked: nil feed")
	assert.True(t, ran)
}

func TestNoticeFeedRing(t *testing.T) {
	feed := NewNoticeFeed(3)
	for i := 1; i <= 5; i++ {
		feed.Push(Notice{ID: fmt.Sprint(i), UserID: "U1"})
	}
	feed.Push(Notice{ID: "x", UserID: "U2"})

	peeked := feed.Peek("U1")
	require.Len(t, peeked, 3)
	assert.Equal(t, "3", peeked[0].ID)
	assert.Equal(t, "5", peeked[2].ID)

	drained := feed.Drain("U1")
	assert.Equal(t, peeked, drained)
	assert.Empty(t, feed.Drain("U1"))
	assert.Len(t, feed.Peek("U2"), 1)
}

func TestNoticeFeedHandle(t *testing.T) {
	feed := NewNoticeFeed(0)
	d := NewInMemoryDispatcher()
	d.Subscribe(EventNotice, feed.Handle)

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventNotice, Payload: Notice{ID: "n1", UserID: "U1", Level: NoticeSuccess}}))
	assert.Len(t, feed.Peek("U1"), 1)

	assert.Error(t, feed.Handle(context.Background(), Event{Type: EventNotice, Payload: "oops"}))
}

func TestActorFromNilSession(t *testing.T) {
	assert.Equal(t, "anonymous", ActorFrom(nil).UserID)
}

func TestNoticeFeedPrune(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	feed := NewNoticeFeed(10)
	feed.Push(Notice{ID: "old", UserID: "U1", CreatedAt: base.Add(-time.Hour)})
	feed.Push(Notice{ID: "new", UserID: "U1", CreatedAt: base})
	feed.Push(Notice{ID: "stale", UserID: "U2", CreatedAt: base.Add(-2 * time.Hour)})

	assert.Equal(t, 2, feed.Prune(base.Add(-time.Minute)))
	require.Len(t, feed.Peek("U1"), 1)
	assert.Equal(t, "new", feed.Peek("U1")[0].ID)
	assert.Empty(t, feed.Peek("U2"))
	assert.Zero(t, feed.Prune(base.Add(-time.Minute)))
}
