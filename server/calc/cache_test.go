package calc

import (
	"testing"

	"github.com/dm-vev/islandcalc/server/world"
)

func TestCache(t *testing.T) {
	c := NewCache(4)
	ids := []world.ChunkID{
		{Dim: world.Overworld, X: 0, Z: 0},
		{Dim: world.Overworld, X: -1, Z: 7},
		{Dim: world.Nether, X: 0, Z: 0},
		{Dim: world.End, X: 1 << 20, Z: -(1 << 20)},
	}
	for i, id := range ids {
		c.Put(&ChunkResult{id: id, digest: uint64(i + 1)})
	}
	if c.Len() != len(ids) {
		t.Fatalf("expected %v entries, got %v", len(ids), c.Len())
	}
	for i, id := range ids {
		res, ok := c.Get(id)
		if !ok || res.Digest() != uint64(i+1) || res.ID() != id {
			t.Fatalf("Get(%v) = %v, %v", id, res, ok)
		}
	}

	c.Put(&ChunkResult{id: ids[0], digest: 100})
	if res, _ := c.Get(ids[0]); res.Digest() != 100 {
		t.Fatalf("expected Put to replace the entry of %v", ids[0])
	}

	c.Invalidate(ids[1])
	if _, ok := c.Get(ids[1]); ok {
		t.Fatalf("expected %v to be invalidated", ids[1])
	}
	c.InvalidateDimension(world.Overworld)
	if c.Len() != 2 {
		t.Fatalf("expected only the nether and end entries to remain, got %v entries", c.Len())
	}
	if _, ok := c.Get(ids[2]); !ok {
		t.Fatalf("expected %v to survive invalidating the overworld", ids[2])
	}
}

func TestNewCacheDefaultShards(t *testing.T) {
	c := NewCache(0)
	if len(c.shards) != 64 {
		t.Fatalf("expected 64 shards, got %v", len(c.shards))
	}
	id := world.ChunkID{Dim: world.End, X: -5, Z: 3}
	c.Put(&ChunkResult{id: id})
	if _, ok := c.Get(id); !ok {
		t.Fatalf("expected %v to be cached", id)
	}
}
