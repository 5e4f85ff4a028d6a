// Package cache implements the per-level bounded LRU of fixed-capacity
// tile buffers backing the read cache (component C1): per-entry
// locking, at-most-one concurrent fill per index, and a master mutex that
// serializes only indexing and LRU mutation. Eviction scans from the LRU
// tail and skips any entry whose lock is currently held rather than
// blocking on it.
package cache

import (
	"container/list"
	"fmt"
	"sync"
)

// Entry is one cache slot. Its Buffer is preallocated once, at
// construction, to the cache's per-tile byte size, and is reused for the
// life of the process; only Status and Index change as the slot is
// re-keyed across evictions.
type Entry struct {
	mu     sync.Mutex
	Status Status
	Index  []int
	Buffer []byte

	elem *list.Element // this entry's node in the owning Cache's lru list
}

// Lock acquires the entry's per-entry lock. Acquire already holds it for
// the caller; Lock is for a second holder of the same *Entry (e.g. a
// concurrent reader joining a fill already in progress) to wait its turn.
func (e *Entry) Lock() { e.mu.Lock() }

// Unlock releases the entry's per-entry lock.
func (e *Entry) Unlock() { e.mu.Unlock() }

// Status is an Entry's fill state.
type Status int

const (
	Empty Status = iota
	Filled
)

// Cache is a fixed-capacity, thread-safe LRU keyed by tile index.
type Cache struct {
	mu       sync.Mutex // master mutex: indexing, LRU, free list, counters
	capacity int
	bufSize  int

	byIndex map[string]*Entry
	lru     *list.List // front = most recently used
	free    []*Entry   // unused slots, capacity not yet reached

	hits, misses uint64
}

// New builds a cache of the given capacity (tile slots), each slot sized
// bufSize bytes. capacity must be > 0; normalizing a requested capacity of
// 0 to some minimum is the caller's responsibility, since only the caller
// knows the grid volume.
func New(capacity, bufSize int) *Cache {
	c := &Cache{
		capacity: capacity,
		bufSize:  bufSize,
		byIndex:  make(map[string]*Entry, capacity),
		lru:      list.New(),
	}
	c.free = make([]*Entry, 0, capacity)
	for i := 0; i < capacity; i++ {
		c.free = append(c.free, &Entry{Status: Empty, Buffer: make([]byte, bufSize)})
	}
	return c
}

func key(index []int) string { return fmt.Sprint(index) }

// Acquire returns the entry for index, locked by the caller. If index is
// already resident, it is moved to the LRU front and the hit counter
// increments; the caller must still check e.Status (another goroutine may
// be mid-fill) before trusting e.Buffer. If index is not resident, a fresh
// entry is selected - a free slot if capacity is not yet reached, otherwise
// the oldest unlocked LRU entry - re-keyed with Status=Empty, and the miss
// counter increments. The caller owns the returned entry's lock and must
// call Entry.Unlock (or Cache.Release, equivalently) when done. The second
// return value reports whether index was already resident (a hit) or a
// fresh/evicted entry had to be re-keyed (a miss), for callers that forward
// this to a Metrics collector.
func (c *Cache) Acquire(index []int) (*Entry, bool) {
	k := key(index)

	c.mu.Lock()
	if e, ok := c.byIndex[k]; ok {
		c.lru.MoveToFront(e.elem)
		c.hits++
		c.mu.Unlock()
		e.Lock()
		return e, true
	}
	c.misses++

	var e *Entry
	if n := len(c.free); n > 0 {
		e = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		e = c.evictLocked()
	}
	e.Index = append(e.Index[:0], index...)
	e.Status = Empty
	c.byIndex[k] = e
	e.elem = c.lru.PushFront(e)
	c.mu.Unlock()

	e.Lock()
	return e, false
}

// evictLocked picks an eviction victim from the LRU tail, skipping any
// entry whose per-entry lock is currently held, rather than blocking the
// master mutex on a busy fill. Must be called with c.mu held; removes the
// victim from byIndex and the LRU list before returning it.
func (c *Cache) evictLocked() *Entry {
	for el := c.lru.Back(); el != nil; el = el.Prev() {
		cand := el.Value.(*Entry)
		if cand.mu.TryLock() {
			cand.mu.Unlock()
			delete(c.byIndex, fmt.Sprint(cand.Index))
			c.lru.Remove(el)
			return cand
		}
	}
	// Every resident entry is locked (pathological under extreme
	// concurrency with capacity this small); fall back to the true tail
	// and block for it.
	el := c.lru.Back()
	cand := el.Value.(*Entry)
	cand.mu.Lock()
	cand.mu.Unlock()
	delete(c.byIndex, fmt.Sprint(cand.Index))
	c.lru.Remove(el)
	return cand
}

// Release releases the per-entry lock acquired by Acquire. LRU position is
// unaffected.
func (c *Cache) Release(e *Entry) { e.Unlock() }

// CapacityBytes returns the total bytes backing this cache's slots.
func (c *Cache) CapacityBytes() int { return c.capacity * c.bufSize }

// Stats reports cumulative hit/miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
