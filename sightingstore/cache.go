package sightingstore

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/wildtrack/wildtrack-relay/sightings"
)

type snapshot struct {
	records  []sightings.Record
	loadedAt time.Time
}

// Cache keeps one decoded snapshot of the dataset for a long-lived process.
// A snapshot is never modified once published, so readers share it without
// locking. A snapshot older than MaxAge is reloaded on the next call; a
// non-positive MaxAge loads once. When a reload fails the stale snapshot is
// served. A caller whose context ends while a load is in flight stops
// waiting; the load itself carries on for the other callers.
type Cache struct {
	Store  Store
	MaxAge time.Duration
	Logger zerolog.Logger

	now     func() time.Time
	current atomic.Pointer[snapshot]
	group   singleflight.Group
}

func NewCache(store Store, maxAge time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{
		Store:  store,
		MaxAge: maxAge,
		Logger: logger,
	}
}

func (c *Cache) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Cache) fresh(s *snapshot) bool {
	if s == nil {
		return false
	}
	return c.MaxAge <= 0 || c.clock().Sub(s.loadedAt) < c.MaxAge
}

// Records returns the current snapshot. Callers must not modify the slice.
func (c *Cache) Records(ctx context.Context) ([]sightings.Record, error) {
	current := c.current.Load()
	if c.fresh(current) {
		return current.records, nil
	}

	// the load is shared, so it must outlive any single caller
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("dataset", func() (interface{}, error) {
		// another caller may have refreshed while we waited
		if s := c.current.Load(); c.fresh(s) {
			return s, nil
		}
		data, err := c.Store.Fetch(loadCtx)
		if err != nil {
			return nil, err
		}
		s := &snapshot{
			records:  sightings.Decode(data),
			loadedAt: c.clock(),
		}
		c.current.Store(s)
		c.Logger.Info().Int("records", len(s.records)).Msg("dataset cache refreshed")
		return s, nil
	})

	select {
	case <-ctx.Done():
		if current != nil {
			return current.records, nil
		}
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if current != nil {
				c.Logger.Warn().Err(res.Err).Time("loadedAt", current.loadedAt).Msg("dataset refresh failed, serving stale snapshot")
				return current.records, nil
			}
			return nil, res.Err
		}
		return res.Val.(*snapshot).records, nil
	}
}
