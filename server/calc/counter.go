package calc

import (
	"iter"
	"maps"
	"math/big"
	"slices"
	"sync"

	"github.com/dm-vev/islandcalc/server/key"
	"golang.org/x/exp/constraints"
)

// Counter accumulates counts per key. Its methods are safe for concurrent
// use. Counts are arbitrary precision and never truncated.
type Counter struct {
	mu     sync.Mutex
	counts map[key.Key]*big.Int
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[key.Key]*big.Int)}
}

// Merge adds delta to the count of k. A key without count starts at zero.
// delta may be negative. The Counter does not retain delta.
func (c *Counter) Merge(k key.Key, delta *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sum := new(big.Int).Set(delta)
	if cur, ok := c.counts[k]; ok {
		sum.Add(sum, cur)
	}
	c.counts[k] = sum
}

// Add adds n to the count of k in c.
func Add[T constraints.Integer](c *Counter, k key.Key, n T) {
	var delta big.Int
	if n < 0 {
		delta.SetInt64(int64(n))
	} else {
		delta.SetUint64(uint64(n))
	}
	c.Merge(k, &delta)
}

// Result returns a snapshot of the current counts of c. Later merges into c
// are not reflected in the Result returned.
func (c *Counter) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[key.Key]*big.Int, len(c.counts))
	for k, n := range c.counts {
		counts[k] = new(big.Int).Set(n)
	}
	return Result{counts: counts}
}

// Result is the read-only outcome of a calculation: the amount of every
// type of content found on an island. The zero Result is empty.
type Result struct {
	counts map[key.Key]*big.Int
}

// Count returns the count of k, or zero if k was never counted. The value
// returned may be modified freely.
func (r Result) Count(k key.Key) *big.Int {
	n, ok := r.counts[k]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(n)
}

// Has reports whether k was counted at all.
func (r Result) Has(k key.Key) bool {
	_, ok := r.counts[k]
	return ok
}

// Len returns the amount of keys counted.
func (r Result) Len() int {
	return len(r.counts)
}

// Keys returns all keys counted, sorted.
func (r Result) Keys() []key.Key {
	return slices.SortedFunc(maps.Keys(r.counts), key.Key.Compare)
}

// All returns an iterator over all keys and their counts, sorted by key.
func (r Result) All() iter.Seq2[key.Key, *big.Int] {
	return func(yield func(key.Key, *big.Int) bool) {
		for _, k := range r.Keys() {
			if !yield(k, new(big.Int).Set(r.counts[k])) {
				return
			}
		}
	}
}

// Map returns a copy of all counts.
func (r Result) Map() map[key.Key]*big.Int {
	m := make(map[key.Key]*big.Int, len(r.counts))
	for k, n := range r.counts {
		m[k] = new(big.Int).Set(n)
	}
	return m
}

// Total returns the sum of all counts.
func (r Result) Total() *big.Int {
	total := new(big.Int)
	for _, n := range r.counts {
		total.Add(total, n)
	}
	return total
}
