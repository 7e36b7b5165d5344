package events

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultFeedSize is how many notices are kept per user.
const DefaultFeedSize = 50

// NoticeFeed keeps the most recent notices of each user until a surface
// drains them.
type NoticeFeed struct {
	mu    sync.Mutex
	size  int
	users map[string][]Notice
}

// NewNoticeFeed returns a feed holding up to size notices per user.
func NewNoticeFeed(size int) *NoticeFeed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &NoticeFeed{size: size, users: map[string][]Notice{}}
}

// Handle is an EventHandler for EventNotice.
func (f *NoticeFeed) Handle(_ context.Context, event Event) error {
	notice, ok := event.Payload.(Notice)
	if !ok {
		return fmt.Errorf("notice feed: unexpected payload %T", event.Payload)
	}
	f.Push(notice)
	return nil
}

// Push appends a notice, evicting the oldest one when the user's buffer
// is full.
func (f *NoticeFeed) Push(n Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := append(f.users[n.UserID], n)
	if len(list) > f.size {
		list = append([]Notice(nil), list[len(list)-f.size:]...)
	}
	f.users[n.UserID] = list
}

// Peek returns the user's pending notices, oldest first.
func (f *NoticeFeed) Peek(userID string) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notice{}, f.users[userID]...)
}

// Drain returns and forgets the user's pending notices.
func (f *NoticeFeed) Drain(userID string) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.users[userID]
	delete(f.users, userID)
	if list == nil {
		return []Notice{}
	}
	return list
}

// Prune drops notices created before cutoff and returns how many were
// removed.
func (f *NoticeFeed) Prune(cutoff time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for userID, list := range f.users {
		kept := list[:0]
		for _, n := range list {
			if n.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		if len(kept) == 0 {
			delete(f.users, userID)
		} else {
			f.users[userID] = kept
		}
	}
	return removed
}
