package island

import (
	"testing"

	"github.com/dm-vev/islandcalc/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

func TestRegionChunksCoversBoundary(t *testing.T) {
	r := Region{Bounds: map[world.Dimension]Bounds{
		world.Overworld: {Min: world.BlockPos{-1, 0, 15}, Max: world.BlockPos{16, 255, 16}},
	}}
	got := r.Chunks()[world.Overworld]
	want := []world.ChunkPos{{-1, 0}, {-1, 1}, {0, 0}, {0, 1}, {1, 0}, {1, 1}}
	if len(got) != len(want) {
		t.Fatalf("got %v chunks (%v), want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk %v = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRegionChunksNoDuplicates(t *testing.T) {
	is := Island{
		ID:         uuid.New(),
		Center:     mgl64.Vec3{0.5, 100, -0.5},
		Size:       50,
		Dimensions: []world.Dimension{world.Overworld, world.Nether},
	}
	r := is.Region()
	chunks := r.Chunks()
	if len(chunks) != 2 {
		t.Fatalf("expected chunks in 2 dimensions, got %v", len(chunks))
	}
	for dim, positions := range chunks {
		seen := make(map[world.ChunkPos]struct{}, len(positions))
		for _, pos := range positions {
			if _, ok := seen[pos]; ok {
				t.Fatalf("chunk %v listed twice in %v", pos, dim)
			}
			seen[pos] = struct{}{}
		}
		// -50..50 on X and -51..49 on Z both span chunks -4..3.
		if len(positions) != 64 {
			t.Fatalf("expected 64 chunks in %v, got %v", dim, len(positions))
		}
	}
	if n := r.ChunkCount(); n != 128 {
		t.Fatalf("ChunkCount() = %v, want 128", n)
	}
}

func TestIslandRegionDefaults(t *testing.T) {
	r := Island{Center: mgl64.Vec3{8, 0, 8}}.Region()
	dims := r.Dimensions()
	if len(dims) != 1 || dims[0] != world.Overworld {
		t.Fatalf("expected only the overworld, got %v", dims)
	}
	chunks := r.Chunks()[world.Overworld]
	if len(chunks) != 1 || chunks[0] != (world.ChunkPos{0, 0}) {
		t.Fatalf("expected a single chunk at the origin, got %v", chunks)
	}
	if !r.Contains(world.Location{Dim: world.Overworld, Pos: world.BlockPos{8, -64, 8}}) {
		t.Fatalf("expected region to contain its centre at the bottom of the world")
	}
	if r.Contains(world.Location{Dim: world.Nether, Pos: world.BlockPos{8, 0, 8}}) {
		t.Fatalf("expected region not to contain positions in unclaimed dimensions")
	}
}

func TestRegionSkipsInvalidBounds(t *testing.T) {
	r := Region{Bounds: map[world.Dimension]Bounds{
		world.End: {Min: world.BlockPos{10, 0, 0}, Max: world.BlockPos{0, 0, 0}},
	}}
	if chunks := r.Chunks(); len(chunks) != 0 {
		t.Fatalf("expected no chunks for invalid bounds, got %v", chunks)
	}
}
