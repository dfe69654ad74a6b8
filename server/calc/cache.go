package calc

import (
	"sync"

	"github.com/dm-vev/islandcalc/server/world"
	"github.com/segmentio/fasthash/fnv1a"
)

// Cache holds the last result of scanning every chunk, shared by all
// calculations. Entries are replaced as a whole and never modified, so a
// reader always observes either the old or the new result of a chunk. The
// Cache never evicts entries by itself: whoever changes the contents of a
// chunk is responsible for calling Invalidate.
type Cache struct {
	shards []cacheShard
}

type cacheShard struct {
	mu      sync.RWMutex
	results map[world.ChunkID]*ChunkResult
}

// NewCache returns an empty Cache split into the amount of shards passed. A
// value of 0 or lower selects a default of 64 shards.
func NewCache(shards int) *Cache {
	if shards <= 0 {
		shards = 64
	}
	c := &Cache{shards: make([]cacheShard, shards)}
	for i := range c.shards {
		c.shards[i].results = make(map[world.ChunkID]*ChunkResult)
	}
	return c
}

func (c *Cache) shard(id world.ChunkID) *cacheShard {
	h := fnv1a.HashUint64(uint64(uint32(id.X))<<32 | uint64(uint32(id.Z)))
	h = fnv1a.AddUint64(h, uint64(id.Dim))
	return &c.shards[h%uint64(len(c.shards))]
}

// Get returns the cached result of the chunk passed.
func (c *Cache) Get(id world.ChunkID) (*ChunkResult, bool) {
	s := c.shard(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[id]
	return res, ok
}

// Put stores res as the result of its chunk, replacing any previous result.
func (c *Cache) Put(res *ChunkResult) {
	s := c.shard(res.id)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[res.id] = res
}

// Invalidate removes the result of the chunk passed, forcing the next
// calculation covering it to scan it again.
func (c *Cache) Invalidate(id world.ChunkID) {
	s := c.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, id)
}

// InvalidateDimension removes the results of all chunks in a dimension.
func (c *Cache) InvalidateDimension(dim world.Dimension) {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for id := range s.results {
			if id.Dim == dim {
				delete(s.results, id)
			}
		}
		s.mu.Unlock()
	}
}

// Len returns the amount of chunks with a cached result.
func (c *Cache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		n += len(s.results)
		s.mu.RUnlock()
	}
	return n
}
