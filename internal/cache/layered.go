package cache

import (
	"sync/atomic"
	"time"
)

// Stats counts lookups served by each layer of a LayeredCache
type Stats struct {
	MemoryHits int64
	DiskHits   int64
	Misses     int64
}

// LayeredCache puts a MemoryCache in front of a DiskCache. Disk hits are
// copied into memory; writes go to both layers.
type LayeredCache struct {
	memory Cache
	disk   Cache

	memoryHits atomic.Int64
	diskHits   atomic.Int64
	misses     atomic.Int64
}

func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	sweep := max(memoryTTL/2, time.Minute)
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, sweep),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if data, ok := c.memory.Get(key); ok {
		c.memoryHits.Add(1)
		return data, true
	}
	data, ok := c.disk.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.diskHits.Add(1)
	_ = c.memory.Set(key, data, 0)
	return data, true
}

// Set writes memory first; a disk failure is returned but the memory entry
// stays usable for this run
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	_ = c.memory.Set(key, value, 0)
	return c.disk.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}

// Stats returns the lookup counters accumulated so far
func (c *LayeredCache) Stats() Stats {
	return Stats{
		MemoryHits: c.memoryHits.Load(),
		DiskHits:   c.diskHits.Load(),
		Misses:     c.misses.Load(),
	}
}
