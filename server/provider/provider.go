// Package provider implements the pluggable sources of spawner and stacked
// block information consulted when calculating the composition of an island.
package provider

import (
	"errors"

	"github.com/dm-vev/islandcalc/server/key"
	"github.com/dm-vev/islandcalc/server/world"
)

// ErrNotReady is returned by a Stackers implementation that cannot answer for
// a chunk yet. Callers may ask again later.
var ErrNotReady = errors.New("stacked blocks not ready")

// Spawners provides the stack size and spawned entity type of spawners. It
// must be safe for concurrent use.
type Spawners interface {
	// Spawner returns the amount of spawners stacked at loc and the entity
	// type they spawn. An empty entityType means the provider does not know
	// the type, in which case the live state of the spawner must be read.
	Spawner(loc world.Location) (count int64, entityType string)
}

// Stack is a single block position that stands in for Amount blocks of the
// same type.
type Stack struct {
	Pos    world.BlockPos
	Key    key.Key
	Amount int64
}

// Stackers provides the stacked blocks present in a chunk. It must be safe
// for concurrent use.
type Stackers interface {
	// StackedBlocks returns all stacks in the chunk passed. ErrNotReady is
	// returned if the stacks of the chunk are not available yet.
	StackedBlocks(id world.ChunkID) ([]Stack, error)
}

// DefaultSpawners is the Spawners implementation used when no spawner
// stacking is in place: every spawner counts once and its type is read from
// the world.
type DefaultSpawners struct{}

// Spawner always returns a count of 1 and an unknown entity type.
func (DefaultSpawners) Spawner(world.Location) (int64, string) {
	return 1, ""
}

// NopStackers is a Stackers implementation that never reports stacks.
type NopStackers struct{}

// StackedBlocks ...
func (NopStackers) StackedBlocks(world.ChunkID) ([]Stack, error) {
	return nil, nil
}

var (
	_ Spawners = DefaultSpawners{}
	_ Stackers = NopStackers{}
)
