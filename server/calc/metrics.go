package calc

import (
	"sync"

	"github.com/dm-vev/islandcalc/server/world"
	"github.com/google/uuid"
)

// Metrics is a Handler that tracks per-chunk counters for observability.
// A nil *Metrics discards all events.
type Metrics struct {
	mu sync.Mutex

	scans  map[world.ChunkID]uint64
	hits   map[world.ChunkID]uint64
	states map[State]uint64
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{
		scans:  make(map[world.ChunkID]uint64),
		hits:   make(map[world.ChunkID]uint64),
		states: make(map[State]uint64),
	}
}

// HandleChunk increments the scan or cache hit counter of the chunk of ev.
func (m *Metrics) HandleChunk(ev ChunkEvent) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if ev.Cached {
		m.hits[ev.Chunk]++
	} else {
		m.scans[ev.Chunk]++
	}
	m.mu.Unlock()
}

// HandleState increments the counter of the state entered.
func (m *Metrics) HandleState(_ uuid.UUID, _, to State) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.states[to]++
	m.mu.Unlock()
}

// Scans returns the amount of times the chunk was scanned.
func (m *Metrics) Scans(id world.ChunkID) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scans[id]
}

// Hits returns the amount of times the cached result of the chunk was used.
func (m *Metrics) Hits(id world.ChunkID) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[id]
}

// Entered returns the amount of calculations that entered state s.
func (m *Metrics) Entered(s State) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[s]
}

// Summary holds the totals of a Metrics registry.
type Summary struct {
	Scans, Hits      uint64
	Complete, Failed uint64
}

// Summary returns the totals of all counters.
func (m *Metrics) Summary() Summary {
	var s Summary
	if m == nil {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.scans {
		s.Scans += n
	}
	for _, n := range m.hits {
		s.Hits += n
	}
	s.Complete, s.Failed = m.states[StateComplete], m.states[StateFailed]
	return s
}

// multiHandler passes events on to all of its Handlers in order.
type multiHandler []Handler

// Handlers returns a Handler that passes every event on to all handlers
// passed. Nil handlers are skipped.
func Handlers(handlers ...Handler) Handler {
	var m multiHandler
	for _, h := range handlers {
		if h != nil {
			m = append(m, h)
		}
	}
	return m
}

func (m multiHandler) HandleChunk(ev ChunkEvent) {
	for _, h := range m {
		h.HandleChunk(ev)
	}
}

func (m multiHandler) HandleState(id uuid.UUID, from, to State) {
	for _, h := range m {
		h.HandleState(id, from, to)
	}
}

var (
	_ Handler = (*Metrics)(nil)
	_ Handler = multiHandler(nil)
)
