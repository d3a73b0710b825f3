package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type cached struct {
	snap     *Snapshot
	loadedAt time.Time
}

// Cache keeps the current Snapshot and reloads it from a Reader once it is
// older than the TTL. Readers always see a complete snapshot.
type Cache struct {
	reader Reader
	ttl    time.Duration
	now    func() time.Time

	cur atomic.Pointer[cached]
	mu  sync.Mutex // serializes reloads
}

func NewCache(r Reader, ttl time.Duration) *Cache {
	return &Cache{reader: r, ttl: ttl, now: time.Now}
}

// Get returns the cached snapshot, loading a fresh one if the cache is empty
// or expired. If a reload fails and a previous snapshot exists, the stale
// snapshot is returned along with the error.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	if cur := c.cur.Load(); cur != nil && !c.expired(cur) {
		return cur.snap, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.cur.Load()
	if cur != nil && !c.expired(cur) {
		return cur.snap, nil
	}
	snap, err := c.refreshLocked(ctx)
	if err != nil {
		if cur != nil {
			return cur.snap, err
		}
		return nil, err
	}
	return snap, nil
}

// Refresh loads a new snapshot unconditionally.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// Invalidate marks the current snapshot expired; the next Get reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur := c.cur.Load(); cur != nil {
		c.cur.Store(&cached{snap: cur.snap})
	}
}

func (c *Cache) refreshLocked(ctx context.Context) (*Snapshot, error) {
	snap, err := Load(ctx, c.reader)
	if err != nil {
		return nil, err
	}
	c.cur.Store(&cached{snap: snap, loadedAt: c.now()})
	return snap, nil
}

func (c *Cache) expired(e *cached) bool {
	if e.loadedAt.IsZero() {
		return true
	}
	return c.ttl > 0 && c.now().Sub(e.loadedAt) >= c.ttl
}
