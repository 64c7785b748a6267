// Package cache memoizes spreadsheet tab loads for the lifetime of the process.
package cache

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/aouyang1/go-forecastboard/sheet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastboard_cache_lookups_total",
			Help: "Cache lookups by result",
		},
		[]string{"result"},
	)
	entries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forecastboard_cache_entries",
			Help: "Number of cached spreadsheet tabs",
		},
	)
)

// Key identifies one cached tab. The schema is part of the key since the same tab parsed
// against another schema yields another table.
type Key struct {
	Source sheet.Source
	Schema string
}

func (k Key) String() string {
	return k.Source.String() + "#" + k.Schema
}

// Cache is a sheet.Loader that keeps every successful load until it is invalidated.
// Concurrent misses on the same key share one underlying load; failures are never stored.
// A load that was in flight during an invalidation is returned to its callers but not stored.
type Cache struct {
	loader sheet.Loader

	mutex      sync.RWMutex
	data       map[Key]*sheet.Table
	generation uint64
	group      singleflight.Group

	statsMutex sync.Mutex
	hits       int64
	misses     int64
}

func New(loader sheet.Loader) *Cache {
	return &Cache{
		loader: loader,
		data:   make(map[Key]*sheet.Table),
	}
}

// Load returns the cached table for src and schema, loading it on a miss.
func (c *Cache) Load(ctx context.Context, src sheet.Source, schema sheet.Schema) (*sheet.Table, error) {
	key := Key{Source: src, Schema: schema.Name}

	c.mutex.RLock()
	tbl, exists := c.data[key]
	c.mutex.RUnlock()
	if exists {
		c.recordHit()
		return tbl, nil
	}
	c.recordMiss()

	res, err, shared := c.group.Do(key.String(), func() (interface{}, error) {
		c.mutex.RLock()
		gen := c.generation
		c.mutex.RUnlock()

		tbl, err := c.loader.Load(ctx, src, schema)
		if err != nil {
			return nil, err
		}
		c.mutex.Lock()
		if gen == c.generation {
			c.data[key] = tbl
			entries.Set(float64(len(c.data)))
		}
		c.mutex.Unlock()
		return tbl, nil
	})
	if err != nil {
		slog.Warn("unable to load spreadsheet tab", "key", key.String(), "shared", shared, "error", err.Error())
		return nil, err
	}
	return res.(*sheet.Table), nil
}

// Invalidate drops a single entry, reporting whether it was present.
func (c *Cache) Invalidate(key Key) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, exists := c.data[key]
	delete(c.data, key)
	c.generation++
	c.group.Forget(key.String())
	entries.Set(float64(len(c.data)))
	if exists {
		slog.Info("invalidated cache entry", "key", key.String())
	}
	return exists
}

// InvalidateSource drops every schema cached for src. An empty tab id matches every tab of
// the spreadsheet.
func (c *Cache) InvalidateSource(src sheet.Source) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var removed int
	for key := range c.data {
		if key.Source.SpreadsheetID != src.SpreadsheetID {
			continue
		}
		if src.TabID != "" && key.Source.TabID != src.TabID {
			continue
		}
		delete(c.data, key)
		removed++
	}
	c.generation++
	entries.Set(float64(len(c.data)))
	slog.Info("invalidated cache entries", "source", src.String(), "removed", removed)
	return removed
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[Key]*sheet.Table)
	c.generation++
	entries.Set(0)
	slog.Info("cleared cache")
}

func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Keys returns the cached keys in a stable order.
func (c *Cache) Keys() []Key {
	c.mutex.RLock()
	keys := make([]Key, 0, len(c.data))
	for key := range c.data {
		keys = append(keys, key)
	}
	c.mutex.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Stats returns hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int64) {
	c.statsMutex.Lock()
	defer c.statsMutex.Unlock()
	return c.hits, c.misses
}

func (c *Cache) recordHit() {
	lookups.WithLabelValues("hit").Inc()
	c.statsMutex.Lock()
	c.hits++
	c.statsMutex.Unlock()
}

func (c *Cache) recordMiss() {
	lookups.WithLabelValues("miss").Inc()
	c.statsMutex.Lock()
	c.misses++
	c.statsMutex.Unlock()
}
