package folio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"k8s.io/klog/v2"

	"github.com/tstromberg/folio/pkg/metrics"
)

// LoadFunc produces a fresh photo listing.
type LoadFunc func(ctx context.Context) ([]*Photo, error)

type snapshot struct {
	photos []*Photo
	byID   map[string]*Photo
	expiry time.Time
}

// Cache keeps the photo listing in memory until it expires.
// Concurrent misses share a single load.
type Cache struct {
	load LoadFunc
	ttl  time.Duration
	now  func() time.Time

	mu    sync.Mutex
	snap  *snapshot
	group singleflight.Group
}

// NewCache returns a cache that refreshes through load once ttl has passed.
// now may be nil, in which case time.Now is used.
func NewCache(load LoadFunc, ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{load: load, ttl: ttl, now: now}
}

func (c *Cache) fresh() *snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil && c.now().Before(c.snap.expiry) {
		return c.snap
	}
	return nil
}

// Get returns the current photo listing and whether it was served from memory.
// Load errors are returned to every waiter and are not cached.
func (c *Cache) Get(ctx context.Context) ([]*Photo, bool, error) {
	s, cached, err := c.get(ctx)
	if err != nil {
		return nil, false, err
	}
	return s.photos, cached, nil
}

func (c *Cache) get(ctx context.Context) (*snapshot, bool, error) {
	if s := c.fresh(); s != nil {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return s, true, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	// the load outlives any one caller: a canceled request stops waiting, the scan keeps going
	ch := c.group.DoChan("photos", func() (any, error) {
		// a flight that finished while we were waiting for the lock may have refreshed it
		if s := c.fresh(); s != nil {
			return s, nil
		}

		start := c.now()
		ps, err := c.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		s := &snapshot{
			photos: Dedupe(ps),
			expiry: start.Add(c.ttl),
		}
		s.byID = make(map[string]*Photo, len(s.photos))
		for _, p := range s.photos {
			s.byID[p.ID] = p
		}

		c.mu.Lock()
		c.snap = s
		c.mu.Unlock()

		klog.V(1).Infof("cached %d photos until %s", len(s.photos), s.expiry.Format(time.RFC3339))
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		return r.Val.(*snapshot), false, nil
	}
}

// Lookup returns the photo with the given ID.
func (c *Cache) Lookup(ctx context.Context, id string) (*Photo, error) {
	s, _, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return p, nil
}

// Dedupe drops photos whose ID was already seen, keeping the first occurrence.
func Dedupe(ps []*Photo) []*Photo {
	seen := make(map[string]string, len(ps))
	out := make([]*Photo, 0, len(ps))
	for _, p := range ps {
		if first, ok := seen[p.ID]; ok {
			klog.Warningf("duplicate photo id %q: keeping %s, dropping %s", p.ID, first, p.SourcePath)
			metrics.DuplicatesTotal.WithLabelValues("id").Inc()
			continue
		}
		seen[p.ID] = p.SourcePath
		out = append(out, p)
	}
	return out
}
