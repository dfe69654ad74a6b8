package mcdb

import (
	"errors"
	"slices"
	"testing"

	"github.com/dm-vev/islandcalc/server/world"
	"github.com/dm-vev/islandcalc/server/world/chunk"
)

func testColumn(block string, spawner bool) *chunk.Column {
	col := &chunk.Column{
		MinY:    0,
		Palette: []string{"minecraft:air", block},
		Blocks:  make([]int32, chunk.LayerSize*2),
	}
	for i := range chunk.LayerSize {
		col.Blocks[i] = 1
	}
	if spawner {
		col.Palette = append(col.Palette, "minecraft:mob_spawner")
		col.Blocks[chunk.LayerSize] = 2
		col.BlockEntities = []chunk.BlockEntity{{
			X: 0, Y: 1, Z: 0, ID: "MobSpawner",
			Data: map[string]any{"EntityIdentifier": "minecraft:zombie", "StackSize": int32(4)},
		}}
	}
	return col
}

func openTestDB(t *testing.T, conf Config) *DB {
	t.Helper()
	db, err := conf.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func TestStoreAndLoadColumn(t *testing.T) {
	var written []world.ChunkID
	db := openTestDB(t, Config{OnWrite: func(id world.ChunkID) {
		written = append(written, id)
	}})

	id := world.ChunkID{Dim: world.Nether, X: -3, Z: 7}
	if err := db.StoreColumn(id, testColumn("minecraft:netherrack", true)); err != nil {
		t.Fatalf("store column: %v", err)
	}
	if !slices.Equal(written, []world.ChunkID{id}) {
		t.Fatalf("expected OnWrite to be called for %v, got %v", id, written)
	}

	col, err := db.LoadColumn(id.Pos(), id.Dim)
	if err != nil {
		t.Fatalf("load column: %v", err)
	}
	if col.Digest == 0 {
		t.Fatalf("expected loaded column to carry a digest")
	}
	if err := col.Validate(); err != nil {
		t.Fatalf("loaded column invalid: %v", err)
	}
	if got := col.Block(5, 0, 5); got != "minecraft:netherrack" {
		t.Fatalf("block at (5, 0, 5) = %q", got)
	}
	if got := col.Block(0, 1, 0); got != "minecraft:mob_spawner" {
		t.Fatalf("block at (0, 1, 0) = %q", got)
	}
	be, ok := col.BlockEntity(0, 1, 0)
	if !ok || be.ID != "MobSpawner" || be.Data["StackSize"] != int32(4) || be.Data["EntityIdentifier"] != "minecraft:zombie" {
		t.Fatalf("unexpected block entity %+v (found: %v)", be, ok)
	}

	again, err := db.LoadColumn(id.Pos(), id.Dim)
	if err != nil {
		t.Fatalf("load column again: %v", err)
	}
	if again.Digest != col.Digest {
		t.Fatalf("digest changed between loads of unchanged column")
	}

	if _, err := db.LoadColumn(id.Pos(), world.Overworld); !errors.Is(err, world.ErrChunkNotFound) {
		t.Fatalf("expected ErrChunkNotFound in another dimension, got %v", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	db := openTestDB(t, Config{})
	id := world.ChunkID{Dim: world.Overworld, X: 1, Z: 1}
	if err := db.StoreColumn(id, testColumn("minecraft:stone", false)); err != nil {
		t.Fatalf("store column: %v", err)
	}

	snap, err := db.Snapshot()
	if err != nil {
		t.Fatalf("take snapshot: %v", err)
	}
	defer snap.Release()

	if err := db.StoreColumn(id, testColumn("minecraft:dirt", false)); err != nil {
		t.Fatalf("overwrite column: %v", err)
	}

	old, err := snap.LoadColumn(id.Pos(), id.Dim)
	if err != nil {
		t.Fatalf("load from snapshot: %v", err)
	}
	if got := old.Block(0, 0, 0); got != "minecraft:stone" {
		t.Fatalf("snapshot observed write made after it was taken: %q", got)
	}
	cur, err := db.LoadColumn(id.Pos(), id.Dim)
	if err != nil {
		t.Fatalf("load column: %v", err)
	}
	if got := cur.Block(0, 0, 0); got != "minecraft:dirt" {
		t.Fatalf("expected current contents, got %q", got)
	}
	if cur.Digest == old.Digest {
		t.Fatalf("expected digest to change with contents")
	}
}

func TestLoadColumnsLeavesMissingNil(t *testing.T) {
	db := openTestDB(t, Config{})
	if err := db.StoreColumn(world.ChunkID{Dim: world.End, X: 0, Z: 1}, testColumn("minecraft:end_stone", false)); err != nil {
		t.Fatalf("store column: %v", err)
	}
	cols, err := db.LoadColumns(world.End, []world.ChunkPos{{0, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("load columns: %v", err)
	}
	if len(cols) != 2 || cols[0] != nil || cols[1] == nil {
		t.Fatalf("unexpected columns %v", cols)
	}

	if err := db.DeleteColumn(world.ChunkID{Dim: world.End, X: 0, Z: 1}); err != nil {
		t.Fatalf("delete column: %v", err)
	}
	if _, err := db.LoadColumn(world.ChunkPos{0, 1}, world.End); !errors.Is(err, world.ErrChunkNotFound) {
		t.Fatalf("expected deleted column to be gone, got %v", err)
	}
}

func TestVersionedPalette(t *testing.T) {
	db := openTestDB(t, Config{})
	id := world.ChunkID{Dim: world.Overworld, X: 4, Z: -4}
	col := testColumn("minecraft:deepslate", false)
	col.Version = 1 << 30
	if err := db.StoreColumn(id, col); err != nil {
		t.Fatalf("store column: %v", err)
	}
	loaded, err := db.LoadColumn(id.Pos(), id.Dim)
	if err != nil {
		t.Fatalf("load column: %v", err)
	}
	if loaded.Version != col.Version {
		t.Fatalf("expected version %v, got %v", col.Version, loaded.Version)
	}
	if !slices.Equal(loaded.Palette, col.Palette) {
		t.Fatalf("palette of current version changed: %v", loaded.Palette)
	}
}
