package calc

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dm-vev/islandcalc/server/world"
	"github.com/google/uuid"
)

// State is the state of a single calculation.
type State uint32

const (
	// StatePending is the state of a calculation that has not started yet.
	StatePending State = iota
	// StateScanning is the state of a calculation while chunks are loaded and
	// scanned by worker goroutines.
	StateScanning
	// StateBarrier is reached once every chunk finished scanning.
	StateBarrier
	// StateResolving is the state of a calculation while spawners and delayed
	// stacks are resolved from within a world transaction.
	StateResolving
	// StateComplete is the state of a calculation that produced a Result.
	StateComplete
	// StateFailed is the state of a calculation that stopped with an error.
	StateFailed
)

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// String ...
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateScanning:
		return "scanning"
	case StateBarrier:
		return "barrier"
	case StateResolving:
		return "resolving"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", uint32(s))
}

// Phase is the part of a calculation that an Error originated in.
type Phase uint8

const (
	// PhaseLoad covers reading chunks from the world provider.
	PhaseLoad Phase = iota
	// PhaseScan covers counting the contents of loaded chunks.
	PhaseScan
	// PhaseStack covers querying stacked block providers.
	PhaseStack
	// PhaseResolve covers running the world transaction that spawners and
	// delayed stacks are resolved in.
	PhaseResolve
)

// String ...
func (p Phase) String() string {
	switch p {
	case PhaseLoad:
		return "load"
	case PhaseScan:
		return "scan"
	case PhaseStack:
		return "stack"
	case PhaseResolve:
		return "resolve"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Error is the error a failed calculation completes with.
type Error struct {
	Phase Phase
	// Chunk is the chunk that caused the failure. It is the zero ChunkID if
	// the failure is not tied to one chunk.
	Chunk world.ChunkID
	Err   error
}

// Error ...
func (e *Error) Error() string {
	return fmt.Sprintf("calculate island: %v %v: %v", e.Phase, e.Chunk, e.Err)
}

// Unwrap ...
func (e *Error) Unwrap() error {
	return e.Err
}

// Handle refers to a calculation started by Calculator.Calculate. Its methods
// are safe for concurrent use.
type Handle struct {
	id  uuid.UUID
	h   Handler
	log *slog.Logger

	state atomic.Uint32
	done  chan struct{}

	// res and err are written once before done is closed.
	res Result
	err error
}

func newHandle(h Handler, log *slog.Logger) *Handle {
	return &Handle{id: uuid.New(), h: h, log: log, done: make(chan struct{})}
}

// ID returns the unique ID of the calculation.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// State returns the current state of the calculation.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Done returns a channel that is closed once the calculation completed or
// failed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait waits for the calculation to finish and returns its outcome. If ctx is
// done first, ctx.Err() is returned. The calculation itself is not stopped by
// ctx and Wait may be called again later.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.res, h.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// transition moves the calculation from one state to the next. It returns
// false if the calculation was not in state from.
func (h *Handle) transition(from, to State) bool {
	if !h.state.CompareAndSwap(uint32(from), uint32(to)) {
		return false
	}
	h.notify(func() { h.h.HandleState(h.id, from, to) })
	return true
}

// notify passes an event to the Handler of the calculation. A panic in the
// Handler is logged and otherwise ignored.
func (h *Handle) notify(f func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Debug("Calculation handler panicked.", "invocation", h.id, "panic", r)
		}
	}()
	f()
}

// complete finishes the calculation with res. It panics if the calculation was
// not resolving, which means it finished before.
func (h *Handle) complete(res Result) {
	h.res = res
	if !h.transition(StateResolving, StateComplete) {
		panic(fmt.Sprintf("calc: complete calculation %v in state %v", h.id, h.State()))
	}
	close(h.done)
}

// fail finishes the calculation with err.
func (h *Handle) fail(err error) {
	h.err = err
	for {
		cur := h.State()
		if cur.Terminal() {
			panic(fmt.Sprintf("calc: fail calculation %v in state %v", h.id, cur))
		}
		if h.transition(cur, StateFailed) {
			break
		}
	}
	close(h.done)
}
