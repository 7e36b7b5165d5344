// Package query caches server state under string keys and applies the
// invalidation rules that follow mutations.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL bounds how long an entry is served without a refetch.
const DefaultTTL = time.Minute

// loadTimeout caps a shared load once it no longer follows the caller that
// started it.
const loadTimeout = 30 * time.Second

// Client fronts a Store with request deduplication and invalidation.
type Client struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group

	mu          sync.Mutex
	generation  uint64
	invalidated map[string]uint64
	inflight    map[string]int
}

// NewClient builds a cache client. A non-positive ttl uses DefaultTTL.
func NewClient(store Store, ttl time.Duration, logger *zap.Logger) *Client {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		store:       store,
		ttl:         ttl,
		logger:      logger,
		invalidated: map[string]uint64{},
		inflight:    map[string]int{},
	}
}

// Fetch returns the cached value for key or loads it with fn. Concurrent
// misses for the same key share one call to fn, which runs detached from
// any single caller's cancellation. The loaded value is only cached when
// no invalidation covering key happened while fn ran.
func Fetch[T any](ctx context.Context, c *Client, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	ch := c.group.DoChan(key, func() (any, error) {
		start := c.begin(key)
		defer c.end(key)

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		loaded, err := fn(loadCtx)
		if err != nil {
			return loaded, err
		}
		if c.staleSince(key, start) {
			return loaded, nil
		}
		raw, err := json.Marshal(loaded)
		if err != nil {
			c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
			return loaded, nil
		}
		if err := c.store.Set(loadCtx, key, raw, c.ttl); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			return loaded, nil
		}
		// An invalidation between the check above and Set may have deleted
		// the key before the write landed.
		if c.staleSince(key, start) {
			if err := c.store.Delete(loadCtx, key); err != nil {
				c.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
			}
		}
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, _ := res.Val.(T)
		return typed, nil
	}
}

// Invalidate drops every entry under the given prefixes. Loads already in
// flight for those keys will not write their result, and later Fetch
// calls start a fresh load instead of joining them.
func (c *Client) Invalidate(ctx context.Context, prefixes ...string) error {
	c.mu.Lock()
	c.generation++
	for _, prefix := range prefixes {
		c.invalidated[prefix] = c.generation
		for key := range c.inflight {
			if strings.HasPrefix(key, prefix) {
				c.group.Forget(key)
			}
		}
	}
	c.mu.Unlock()

	var errs []error
	for _, prefix := range prefixes {
		if err := c.store.DeletePrefix(ctx, prefix); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Patch rewrites every cached entry under prefix with fn. Entries that do
// not decode as T are left alone.
func Patch[T any](ctx context.Context, c *Client, prefix string, fn func(T) T) error {
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		var current T
		if err := json.Unmarshal(raw, &current); err != nil {
			continue
		}
		updated, err := json.Marshal(fn(current))
		if err != nil {
			return err
		}
		if err := c.store.Set(ctx, key, updated, c.ttl); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[key]++
	return c.generation
}

func (c *Client) end(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[key]--
	if c.inflight[key] <= 0 {
		delete(c.inflight, key)
	}
	if len(c.inflight) == 0 {
		clear(c.invalidated)
	}
}

func (c *Client) staleSince(key string, start uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for prefix, gen := range c.invalidated {
		if gen > start && strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
