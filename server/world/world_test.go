package world

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWorldExecRunsTransactionsInOrder(t *testing.T) {
	w := New()
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Fatalf("failed closing world: %v", err)
		}
	})

	var (
		mu    sync.Mutex
		order []int
	)
	chans := make([]<-chan struct{}, 0, 10)
	for i := range 10 {
		chans = append(chans, w.Exec(func(tx *Tx) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	for _, c := range chans {
		<-c
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("transaction %v ran at position %v", v, i)
		}
	}
}

func TestWorldSpawnedType(t *testing.T) {
	w := New()
	t.Cleanup(func() { _ = w.Close() })

	loc := Location{Dim: Nether, Pos: BlockPos{3, 70, -9}}
	<-w.Exec(func(tx *Tx) {
		tx.SetSpawner(loc, "minecraft:blaze")
	})

	var (
		got     string
		err     error
		missErr error
	)
	<-w.Exec(func(tx *Tx) {
		got, err = w.SpawnedType(tx, loc)
		_, missErr = w.SpawnedType(tx, Location{Dim: Overworld, Pos: loc.Pos})
	})
	if err != nil {
		t.Fatalf("read spawner: %v", err)
	}
	if got != "minecraft:blaze" {
		t.Fatalf("spawned type = %q, want %q", got, "minecraft:blaze")
	}
	if !errors.Is(missErr, ErrNoSpawner) {
		t.Fatalf("expected ErrNoSpawner for other dimension, got %v", missErr)
	}

	<-w.Exec(func(tx *Tx) {
		tx.RemoveSpawner(loc)
		if n := w.SpawnerCount(tx); n != 0 {
			t.Errorf("expected no spawners after removal, got %v", n)
		}
	})
}

func TestTxPanicsAfterTransactionFinished(t *testing.T) {
	w := New()
	t.Cleanup(func() { _ = w.Close() })

	var leaked *Tx
	<-w.Exec(func(tx *Tx) {
		leaked = tx
	})

	defer func() {
		r := recover()
		if r != ClosedTxMessage {
			t.Fatalf("expected closed transaction panic, got %v", r)
		}
	}()
	leaked.World()
}

func TestBlockPosChunkPos(t *testing.T) {
	cases := map[BlockPos]ChunkPos{
		{0, 0, 0}:       {0, 0},
		{15, 64, 15}:    {0, 0},
		{16, 64, -1}:    {1, -1},
		{-17, 0, -16}:   {-2, -1},
		{-1, 100, 4096}: {-1, 256},
	}
	for pos, want := range cases {
		if got := pos.ChunkPos(); got != want {
			t.Fatalf("%v.ChunkPos() = %v, want %v", pos, got, want)
		}
	}
}

func TestParseDimension(t *testing.T) {
	cases := map[string]Dimension{
		"":        Overworld,
		"World":   Overworld,
		"hell":    Nether,
		" NETHER": Nether,
		"the_end": End,
	}
	for name, want := range cases {
		got, ok := ParseDimension(name)
		if !ok || got != want {
			t.Fatalf("ParseDimension(%q) = %v, %v, want %v", name, got, ok, want)
		}
	}
	if _, ok := ParseDimension("moon"); ok {
		t.Fatalf("expected unknown dimension to fail parsing")
	}
}

func TestWorldExecAfterClose(t *testing.T) {
	w := New()
	ran := make(chan struct{})
	queued := w.Exec(func(tx *Tx) { close(ran) })
	if err := w.Close(); err != nil {
		t.Fatalf("failed closing world: %v", err)
	}
	select {
	case <-ran:
	default:
		t.Fatalf("expected transaction queued before Close to run")
	}
	<-queued

	called := false
	select {
	case <-w.Exec(func(tx *Tx) { called = true }):
	case <-time.After(time.Second):
		t.Fatalf("expected Exec on a closed world to return immediately")
	}
	if called {
		t.Fatalf("expected transaction not to run on a closed world")
	}
	if err := w.Run(func(tx *Tx) {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
