package world

import "fmt"

// ChunkPos holds the position of a chunk. The type is provided as a utility
// struct for keeping track of a chunk's position. Chunks do not themselves
// keep track of that.
type ChunkPos [2]int32

// X returns the X coordinate of the chunk position.
func (p ChunkPos) X() int32 {
	return p[0]
}

// Z returns the Z coordinate of the chunk position.
func (p ChunkPos) Z() int32 {
	return p[1]
}

// String implements fmt.Stringer and returns (x, z).
func (p ChunkPos) String() string {
	return fmt.Sprintf("(%v, %v)", p[0], p[1])
}

// BlockPos holds the position of a block in a dimension.
type BlockPos [3]int

// X ...
func (p BlockPos) X() int { return p[0] }

// Y ...
func (p BlockPos) Y() int { return p[1] }

// Z ...
func (p BlockPos) Z() int { return p[2] }

// ChunkPos returns the position of the chunk the block is in.
func (p BlockPos) ChunkPos() ChunkPos {
	return ChunkPos{int32(p[0] >> 4), int32(p[2] >> 4)}
}

// String implements fmt.Stringer and returns (x, y, z).
func (p BlockPos) String() string {
	return fmt.Sprintf("(%v, %v, %v)", p[0], p[1], p[2])
}

// ChunkID identifies one chunk across all dimensions. It is comparable and
// may be used as a map key.
type ChunkID struct {
	Dim  Dimension
	X, Z int32
}

// IDOf returns the ChunkID of a chunk position in a dimension.
func IDOf(dim Dimension, pos ChunkPos) ChunkID {
	return ChunkID{Dim: dim, X: pos[0], Z: pos[1]}
}

// Pos returns the position of the chunk within its dimension.
func (id ChunkID) Pos() ChunkPos {
	return ChunkPos{id.X, id.Z}
}

// String ...
func (id ChunkID) String() string {
	return fmt.Sprintf("%v(%v, %v)", id.Dim, id.X, id.Z)
}

// Location is the position of a block in a specific dimension.
type Location struct {
	Dim Dimension
	Pos BlockPos
}

// Chunk returns the ChunkID of the chunk the location is in.
func (l Location) Chunk() ChunkID {
	return IDOf(l.Dim, l.Pos.ChunkPos())
}

// String ...
func (l Location) String() string {
	return l.Dim.String() + l.Pos.String()
}
