// Package chunk implements the read-only contents of a single chunk column as
// handed out by world providers.
package chunk

import (
	"errors"
	"fmt"
)

// LayerSize is the amount of block slots in one horizontal layer of a column.
const LayerSize = 16 * 16

var (
	// ErrMalformed is returned by Validate when a column's contents cannot be
	// interpreted.
	ErrMalformed = errors.New("malformed chunk column")
)

// Column is a snapshot of the contents of a chunk column. A Column handed out
// by a provider must not be modified: it may be shared between goroutines.
type Column struct {
	// MinY is the Y coordinate of the lowest layer in Blocks.
	MinY int32
	// Version is the block state version the Palette was written with, or 0
	// if unknown.
	Version int32
	// Palette holds the names of all blocks used in the column. Blocks index
	// into it.
	Palette []string
	// Blocks holds one palette index per block slot, ordered x first, then z,
	// then y.
	Blocks []int32
	// BlockEntities holds the additional data of blocks that carry it, such as
	// spawners.
	BlockEntities []BlockEntity

	// Digest is a hash of the stored contents of the column, set by providers
	// that are able to compute one. A zero Digest means the contents are
	// unknown and must always be scanned.
	Digest uint64
}

// BlockEntity holds the additional data of a single block.
type BlockEntity struct {
	X    int32
	Y    int32
	Z    int32
	ID   string
	Data map[string]any
}

// Empty returns a column without any blocks.
func Empty() *Column {
	return &Column{}
}

// Layers returns the amount of horizontal layers held by the column.
func (c *Column) Layers() int {
	return len(c.Blocks) / LayerSize
}

// Pos returns the position of the block slot i relative to the chunk's
// origin. The Y value is absolute.
func (c *Column) Pos(i int) (x, y, z int) {
	return i & 0xf, int(c.MinY) + i>>8, (i >> 4) & 0xf
}

// Index returns the block slot of a position relative to the chunk's origin,
// or -1 if the position is outside the column.
func (c *Column) Index(x, y, z int) int {
	y -= int(c.MinY)
	if x < 0 || x > 15 || z < 0 || z > 15 || y < 0 || y >= c.Layers() {
		return -1
	}
	return y<<8 | z<<4 | x
}

// Block returns the name of the block at a position relative to the chunk's
// origin. An empty string is returned for positions outside the column.
func (c *Column) Block(x, y, z int) string {
	i := c.Index(x, y, z)
	if i < 0 {
		return ""
	}
	return c.Palette[c.Blocks[i]]
}

// BlockEntity looks up the block entity at a position relative to the chunk's
// origin.
func (c *Column) BlockEntity(x, y, z int) (BlockEntity, bool) {
	for _, be := range c.BlockEntities {
		if int(be.X)&0xf == x && int(be.Y) == y && int(be.Z)&0xf == z {
			return be, true
		}
	}
	return BlockEntity{}, false
}

// Validate checks that the column can be scanned: the block slots must fill
// whole layers and every slot must reference an entry of the palette.
func (c *Column) Validate() error {
	if len(c.Blocks)%LayerSize != 0 {
		return fmt.Errorf("%w: %v block slots is not a multiple of %v", ErrMalformed, len(c.Blocks), LayerSize)
	}
	if len(c.Blocks) > 0 && len(c.Palette) == 0 {
		return fmt.Errorf("%w: blocks without palette", ErrMalformed)
	}
	for i, idx := range c.Blocks {
		if idx < 0 || int(idx) >= len(c.Palette) {
			return fmt.Errorf("%w: slot %v references palette index %v of %v", ErrMalformed, i, idx, len(c.Palette))
		}
	}
	return nil
}
