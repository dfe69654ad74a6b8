package txguard

import (
	"errors"
	"testing"

	"github.com/dm-vev/islandcalc/server/world"
)

func TestValue(t *testing.T) {
	w := world.New()
	t.Cleanup(func() { _ = w.Close() })

	var (
		got      string
		err      error
		panicErr error
		plainErr error
		leaked   *world.Tx
	)
	<-w.Exec(func(tx *world.Tx) {
		leaked = tx
		got, err = Value(tx, func() (string, error) { return "ok", nil })
		_, panicErr = Value(tx, func() (int, error) { panic("boom") })
		plainErr = Run(tx, func() error { return world.ErrNoSpawner })
	})
	if err != nil || got != "ok" {
		t.Fatalf("Value() = %q, %v", got, err)
	}
	if !errors.Is(panicErr, ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", panicErr)
	}
	if !errors.Is(plainErr, world.ErrNoSpawner) {
		t.Fatalf("expected error of fn to be returned, got %v", plainErr)
	}

	if err := Run(leaked, func() error {
		leaked.World()
		return nil
	}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed for finished transaction, got %v", err)
	}
	if err := Run(nil, func() error { return nil }); !errors.Is(err, ErrNoTx) {
		t.Fatalf("expected ErrNoTx, got %v", err)
	}
}
