package calc

import (
	"fmt"
	"maps"
	"slices"

	"github.com/brentp/intintmap"
	"github.com/dm-vev/islandcalc/server/key"
	"github.com/dm-vev/islandcalc/server/world"
	"github.com/dm-vev/islandcalc/server/world/chunk"
)

// stackSizeTag is the block entity field holding the amount of spawners
// stacked in one block.
const stackSizeTag = "StackSize"

// SpawnerRef is a spawner found while scanning a chunk, whose type still
// has to be resolved.
type SpawnerRef struct {
	Loc world.Location
	// Hint is the stack size stored with the spawner, or 0 if unknown.
	Hint int64
}

// ChunkResult is the result of scanning a single chunk: the amount of every
// block found in it, excluding spawners, and the spawners that were found.
// A ChunkResult is immutable.
type ChunkResult struct {
	id       world.ChunkID
	digest   uint64
	counts   map[key.Key]int64
	spawners []SpawnerRef
}

// ID returns the chunk the result belongs to.
func (r *ChunkResult) ID() world.ChunkID { return r.id }

// Digest returns the digest of the chunk contents that were scanned.
func (r *ChunkResult) Digest() uint64 { return r.digest }

// Count returns the amount of blocks of type k in the chunk.
func (r *ChunkResult) Count(k key.Key) int64 { return r.counts[k] }

// Counts returns a copy of the block counts of the chunk.
func (r *ChunkResult) Counts() map[key.Key]int64 { return maps.Clone(r.counts) }

// Spawners returns a copy of the spawners found in the chunk.
func (r *ChunkResult) Spawners() []SpawnerRef { return slices.Clone(r.spawners) }

// scanColumn counts the blocks in col. Air is skipped and spawners are
// recorded instead of counted.
func scanColumn(id world.ChunkID, col *chunk.Column) (*ChunkResult, error) {
	if err := col.Validate(); err != nil {
		return nil, fmt.Errorf("scan %v: %w", id, err)
	}
	keys := make([]key.Key, len(col.Palette))
	for i, name := range col.Palette {
		keys[i] = key.Of(name)
	}

	// Block entities indexed by the slot of their block.
	entities := intintmap.New(max(len(col.BlockEntities), 1), 0.6)
	for i, be := range col.BlockEntities {
		if slot := col.Index(int(be.X)&0xf, int(be.Y), int(be.Z)&0xf); slot >= 0 {
			entities.Put(int64(slot), int64(i))
		}
	}

	res := &ChunkResult{id: id, digest: col.Digest, counts: make(map[key.Key]int64)}
	tally := make([]int64, len(col.Palette))
	for slot, idx := range col.Blocks {
		k := keys[idx]
		switch {
		case k.IsAir():
		case k.IsSpawner():
			x, y, z := col.Pos(slot)
			ref := SpawnerRef{Loc: world.Location{
				Dim: id.Dim,
				Pos: world.BlockPos{int(id.X)<<4 | x, y, int(id.Z)<<4 | z},
			}}
			if i, ok := entities.Get(int64(slot)); ok {
				ref.Hint = stackSize(col.BlockEntities[i])
			}
			res.spawners = append(res.spawners, ref)
		default:
			tally[idx]++
		}
	}
	for idx, n := range tally {
		if n > 0 {
			res.counts[keys[idx]] += n
		}
	}
	return res, nil
}

// stackSize returns the stack size stored in a spawner block entity, or 0 if
// it holds none.
func stackSize(be chunk.BlockEntity) int64 {
	switch v := be.Data[stackSizeTag].(type) {
	case int8:
		return int64(v)
	case uint8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
