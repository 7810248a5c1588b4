package extractor

import (
	"fmt"
	"os"
	"time"

	"github.com/maypok86/otter"
)

const (
	// DefaultCacheCapacity bounds the number of parsed files kept between runs.
	DefaultCacheCapacity = 10000

	// MinCacheCapacity is the smallest capacity that is actually used. Smaller
	// otter caches admit almost nothing, so requests below it are raised.
	MinCacheCapacity = 1000
)

type cacheEntry struct {
	modTime time.Time
	size    int64
	unit    *SourceUnit
}

// ParseCache keeps SourceUnits between watch-mode reruns. An entry is only
// reused while the file's modification time and size are unchanged.
type ParseCache struct {
	cache    otter.Cache[string, cacheEntry]
	capacity int
}

// NewParseCache creates a cache holding at most capacity parsed files.
// Capacities below MinCacheCapacity are raised to it.
func NewParseCache(capacity int) (*ParseCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid parse cache capacity %d", capacity)
	}
	capacity = max(capacity, MinCacheCapacity)

	c, err := otter.MustBuilder[string, cacheEntry](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build parse cache: %w", err)
	}
	return &ParseCache{cache: c, capacity: capacity}, nil
}

// Capacity returns the effective maximum number of cached files.
func (pc *ParseCache) Capacity() int {
	return pc.capacity
}

// Get returns the cached unit for path if info still matches it.
func (pc *ParseCache) Get(path string, info os.FileInfo) (*SourceUnit, bool) {
	entry, ok := pc.cache.Get(path)
	if !ok {
		return nil, false
	}
	if !entry.modTime.Equal(info.ModTime()) || entry.size != info.Size() {
		pc.cache.Delete(path)
		return nil, false
	}
	return entry.unit, true
}

// Put stores unit as the parse of path at the state described by info.
func (pc *ParseCache) Put(path string, info os.FileInfo, unit *SourceUnit) {
	pc.cache.Set(path, cacheEntry{
		modTime: info.ModTime(),
		size:    info.Size(),
		unit:    unit,
	})
}

// Len returns the number of cached units.
func (pc *ParseCache) Len() int {
	return pc.cache.Size()
}

// Close releases the cache.
func (pc *ParseCache) Close() {
	pc.cache.Close()
}
