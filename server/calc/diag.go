package calc

import (
	"log/slog"
	"time"

	"github.com/dm-vev/islandcalc/server/world"
	"github.com/google/uuid"
)

// ProfileCalculate is the profiling category of a full calculation.
const ProfileCalculate = "calculate_island"

// Token identifies one measurement started by a Profiler.
type Token struct {
	Category string
	Start    time.Time
}

// Profiler measures the duration of calculations.
type Profiler interface {
	// Start starts measuring an operation of the category passed.
	Start(category string) Token
	// End finishes the measurement of t.
	End(t Token)
}

// NopProfiler is a Profiler that does not measure anything.
type NopProfiler struct{}

func (NopProfiler) Start(category string) Token { return Token{Category: category} }
func (NopProfiler) End(Token) {}

// LogProfiler is a Profiler that logs the duration of every operation at
// debug level. If Log is nil, slog.Default() is used.
type LogProfiler struct {
	Log *slog.Logger
}

// Start ...
func (p LogProfiler) Start(category string) Token {
	return Token{Category: category, Start: time.Now()}
}

// End ...
func (p LogProfiler) End(t Token) {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	log.Debug("Profiled operation.", "category", t.Category, "duration", time.Since(t.Start))
}

// ChunkEvent describes a chunk that finished scanning during a calculation.
type ChunkEvent struct {
	// Invocation is the ID of the calculation.
	Invocation uuid.UUID
	// Chunk is the chunk that was scanned.
	Chunk world.ChunkID
	// Cached is true if the result of a previous scan was reused.
	Cached bool
	// Spawners is the amount of spawners found in the chunk.
	Spawners int
	// Duration is the time spent loading and scanning the chunk.
	Duration time.Duration
}

// Handler receives diagnostic events of calculations. Handlers are purely
// observational. HandleChunk is called from worker goroutines, concurrently.
type Handler interface {
	// HandleChunk is called when a chunk finished scanning.
	HandleChunk(ev ChunkEvent)
	// HandleState is called when a calculation moves from one state to the
	// next.
	HandleState(id uuid.UUID, from, to State)
}

// NopHandler implements the Handler interface but does not execute any code
// when an event is called.
type NopHandler struct{}

func (NopHandler) HandleChunk(ChunkEvent) {}
func (NopHandler) HandleState(uuid.UUID, State, State) {}

var (
	_ Profiler = NopProfiler{}
	_ Profiler = LogProfiler{}
	_ Handler  = NopHandler{}
)
