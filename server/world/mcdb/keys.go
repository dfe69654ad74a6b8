package mcdb

import (
	"encoding/binary"

	"github.com/dm-vev/islandcalc/server/world"
)

// keyColumn is the tag of the key holding the encoded contents of a column.
const keyColumn = 'c'

// dbKey holds the position and dimension of a chunk column.
type dbKey struct {
	x, z int32
	dim  world.Dimension
}

func index(pos world.ChunkPos, dim world.Dimension) dbKey {
	return dbKey{x: pos[0], z: pos[1], dim: dim}
}

// Key returns the database key of the chunk column with the tag passed.
// Overworld keys leave out the dimension, so that they match the layout of
// keys written by the game.
func (k dbKey) Key(tag byte) []byte {
	if k.dim == world.Overworld {
		b := make([]byte, 9)
		binary.LittleEndian.PutUint32(b, uint32(k.x))
		binary.LittleEndian.PutUint32(b[4:], uint32(k.z))
		b[8] = tag
		return b
	}
	b := make([]byte, 13)
	binary.LittleEndian.PutUint32(b, uint32(k.x))
	binary.LittleEndian.PutUint32(b[4:], uint32(k.z))
	binary.LittleEndian.PutUint32(b[8:], uint32(k.dim))
	b[12] = tag
	return b
}
