package provider

import (
	"cmp"
	"slices"
	"sync"

	"github.com/dm-vev/islandcalc/server/key"
	"github.com/dm-vev/islandcalc/server/world"
)

// Stacks is the built-in registry of stacked blocks. Stacks are placed and
// removed by the server and read by calculations, concurrently.
type Stacks struct {
	mu     sync.RWMutex
	chunks map[world.ChunkID]map[world.BlockPos]Stack
}

// NewStacks returns an empty Stacks registry.
func NewStacks() *Stacks {
	return &Stacks{chunks: make(map[world.ChunkID]map[world.BlockPos]Stack)}
}

// Set stacks amount blocks of type k at loc, replacing any stack already
// there. Setting an amount of 1 or lower removes the stack.
func (s *Stacks) Set(loc world.Location, k key.Key, amount int64) {
	if amount <= 1 {
		s.Remove(loc)
		return
	}
	id := loc.Chunk()

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.chunks[id]
	if !ok {
		m = make(map[world.BlockPos]Stack)
		s.chunks[id] = m
	}
	m[loc.Pos] = Stack{Pos: loc.Pos, Key: k, Amount: amount}
}

// Remove removes the stack at loc, if any.
func (s *Stacks) Remove(loc world.Location) {
	id := loc.Chunk()

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.chunks[id]
	if !ok {
		return
	}
	delete(m, loc.Pos)
	if len(m) == 0 {
		delete(s.chunks, id)
	}
}

// StackedBlocks returns the stacks in the chunk passed, ordered by position.
// It never returns an error.
func (s *Stacks) StackedBlocks(id world.ChunkID) ([]Stack, error) {
	s.mu.RLock()
	m := s.chunks[id]
	stacks := make([]Stack, 0, len(m))
	for _, st := range m {
		stacks = append(stacks, st)
	}
	s.mu.RUnlock()

	slices.SortFunc(stacks, func(a, b Stack) int {
		for i := range 3 {
			if c := cmp.Compare(a.Pos[i], b.Pos[i]); c != 0 {
				return c
			}
		}
		return 0
	})
	return stacks, nil
}

// Len returns the total amount of stacks in the registry.
func (s *Stacks) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.chunks {
		n += len(m)
	}
	return n
}

var _ Stackers = (*Stacks)(nil)
