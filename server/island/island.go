// Package island describes the claimed regions of islands and enumerates the
// chunks that they span.
package island

import (
	"math"
	"slices"

	"github.com/dm-vev/islandcalc/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Island is a square region claimed in one or more dimensions, centred around
// the same coordinates in each of them.
type Island struct {
	// ID uniquely identifies the island.
	ID uuid.UUID
	// Owner is the name of the owner of the island. It is informational only.
	Owner string
	// Center is the centre of the island. The Y component is ignored: islands
	// always span the full height of a dimension.
	Center mgl64.Vec3
	// Size is the distance in blocks from the centre to each edge of the
	// claimed square.
	Size int
	// Dimensions lists the dimensions the island claims space in. If empty, the
	// island only exists in the overworld.
	Dimensions []world.Dimension
}

// Region returns the claimed region of the island.
func (is Island) Region() Region {
	dims := is.Dimensions
	if len(dims) == 0 {
		dims = []world.Dimension{world.Overworld}
	}
	cx, cz := int(math.Floor(is.Center[0])), int(math.Floor(is.Center[2]))
	size := max(is.Size, 0)

	r := Region{Bounds: make(map[world.Dimension]Bounds, len(dims))}
	for _, dim := range dims {
		minY, maxY := dim.Range()
		r.Bounds[dim] = Bounds{
			Min: world.BlockPos{cx - size, minY, cz - size},
			Max: world.BlockPos{cx + size, maxY, cz + size},
		}
	}
	return r
}

// Bounds is an inclusive box of block positions.
type Bounds struct {
	Min, Max world.BlockPos
}

// Valid reports whether Min is not greater than Max on the horizontal axes.
func (b Bounds) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[2] <= b.Max[2]
}

// Region is a claimed region, holding the bounds of the claim in every
// dimension that it spans.
type Region struct {
	Bounds map[world.Dimension]Bounds
}

// Chunks returns the positions of all chunks that are fully or partially
// covered by the region, grouped by dimension. The positions of each
// dimension are sorted by X first and Z second and never contain duplicates.
// Dimensions with invalid bounds are left out.
func (r Region) Chunks() map[world.Dimension][]world.ChunkPos {
	m := make(map[world.Dimension][]world.ChunkPos, len(r.Bounds))
	for dim, b := range r.Bounds {
		if !b.Valid() {
			continue
		}
		minPos, maxPos := b.Min.ChunkPos(), b.Max.ChunkPos()
		positions := make([]world.ChunkPos, 0, int(maxPos[0]-minPos[0]+1)*int(maxPos[1]-minPos[1]+1))
		for x := minPos[0]; x <= maxPos[0]; x++ {
			for z := minPos[1]; z <= maxPos[1]; z++ {
				positions = append(positions, world.ChunkPos{x, z})
			}
		}
		m[dim] = positions
	}
	return m
}

// ChunkCount returns the total amount of chunks returned by Chunks.
func (r Region) ChunkCount() int {
	n := 0
	for _, positions := range r.Chunks() {
		n += len(positions)
	}
	return n
}

// Dimensions returns the dimensions of the region in a stable order.
func (r Region) Dimensions() []world.Dimension {
	dims := make([]world.Dimension, 0, len(r.Bounds))
	for dim := range r.Bounds {
		dims = append(dims, dim)
	}
	slices.Sort(dims)
	return dims
}

// Contains reports whether loc lies within the region.
func (r Region) Contains(loc world.Location) bool {
	b, ok := r.Bounds[loc.Dim]
	if !ok {
		return false
	}
	for i := range 3 {
		if loc.Pos[i] < b.Min[i] || loc.Pos[i] > b.Max[i] {
			return false
		}
	}
	return true
}
