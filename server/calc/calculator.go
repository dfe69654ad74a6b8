// Package calc calculates the composition of islands: the amount of every
// type of block and spawner found in the chunks an island spans.
package calc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/dm-vev/islandcalc/server/internal/txguard"
	"github.com/dm-vev/islandcalc/server/island"
	"github.com/dm-vev/islandcalc/server/key"
	"github.com/dm-vev/islandcalc/server/provider"
	"github.com/dm-vev/islandcalc/server/world"
	"github.com/dm-vev/islandcalc/server/world/chunk"
	"golang.org/x/sync/errgroup"
)

// Config holds the settings of a Calculator.
type Config struct {
	// Log is the Logger used for debug output. If nil, slog.Default() is used.
	Log *slog.Logger
	// Provider is the source of chunk contents. If nil, a world.NopProvider is
	// used and every chunk is empty.
	Provider world.Provider
	// Snapshots specifies if every calculation reads its chunks from a single
	// snapshot of Provider. It only has an effect if Provider implements
	// world.SnapshotProvider.
	Snapshots bool
	// World is the World whose transactions spawners are resolved in. World
	// must be set.
	World *world.World
	// Reader reads the live type of spawners. If nil, World is used.
	Reader world.SpawnerReader
	// Spawners provides the stack size and type of spawners. If nil,
	// provider.DefaultSpawners is used.
	Spawners provider.Spawners
	// Stackers are queried for the stacked blocks of every chunk scanned.
	Stackers []provider.Stackers
	// Cache holds the results of chunks scanned before. If nil, a new Cache
	// is created for the Calculator.
	Cache *Cache
	// Workers is the maximum amount of chunks loaded and scanned at the same
	// time. If 0 or lower, runtime.GOMAXPROCS(0) is used.
	Workers int
	// Profiler measures the duration of calculations. If nil, NopProfiler is
	// used.
	Profiler Profiler
	// Handler receives diagnostic events. If nil, NopHandler is used.
	Handler Handler
}

// Calculator calculates the composition of islands. Any amount of
// calculations may run at the same time.
type Calculator struct {
	conf Config
}

// New creates a Calculator using the fields of conf.
func (conf Config) New() *Calculator {
	if conf.World == nil {
		panic("calc: config requires World")
	}
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Provider == nil {
		conf.Provider = world.NopProvider{}
	}
	if conf.Reader == nil {
		conf.Reader = conf.World
	}
	if conf.Spawners == nil {
		conf.Spawners = provider.DefaultSpawners{}
	}
	if conf.Cache == nil {
		conf.Cache = NewCache(0)
	}
	if conf.Workers <= 0 {
		conf.Workers = runtime.GOMAXPROCS(0)
	}
	if conf.Profiler == nil {
		conf.Profiler = NopProfiler{}
	}
	if conf.Handler == nil {
		conf.Handler = NopHandler{}
	}
	return &Calculator{conf: conf}
}

// Cache returns the Cache holding the chunk results of the Calculator.
func (c *Calculator) Cache() *Cache {
	return c.conf.Cache
}

// Calculate starts calculating the composition of region and returns
// immediately. The outcome is obtained through the Handle returned. A
// calculation either completes with the counts of all chunks in region or
// fails as a whole.
func (c *Calculator) Calculate(region island.Region) *Handle {
	h := newHandle(c.conf.Handler, c.conf.Log)
	inv := &invocation{c: c, h: h, counter: NewCounter()}
	go inv.run(region)
	return h
}

// invocation holds the state of one calculation.
type invocation struct {
	c       *Calculator
	h       *Handle
	counter *Counter

	mu       sync.Mutex
	spawners []SpawnerRef
	pending  []pendingStack
}

// pendingStack is a chunk whose stacks were not ready when it was scanned.
type pendingStack struct {
	id world.ChunkID
	// stackers is the index of the provider in Config.Stackers.
	stackers int
}

func (inv *invocation) run(region island.Region) {
	conf := inv.c.conf
	t := conf.Profiler.Start(ProfileCalculate)
	defer conf.Profiler.End(t)

	inv.h.transition(StatePending, StateScanning)
	conf.Log.Debug("Calculating island...", "invocation", inv.h.id, "chunks", region.ChunkCount())

	if err := inv.scan(region); err != nil {
		conf.Log.Debug("Island calculation failed.", "invocation", inv.h.id, "error", err)
		inv.h.fail(err)
		return
	}
	inv.h.transition(StateScanning, StateBarrier)
	inv.h.transition(StateBarrier, StateResolving)
	if err := inv.resolve(); err != nil {
		conf.Log.Debug("Island calculation failed.", "invocation", inv.h.id, "error", err)
		inv.h.fail(err)
		return
	}
	res := inv.counter.Result()
	conf.Log.Debug("Calculated island.", "invocation", inv.h.id, "keys", res.Len(), "spawners", len(inv.spawners))
	inv.h.complete(res)
}

// columnLoader is implemented by both world.Provider and world.Snapshot.
type columnLoader interface {
	LoadColumn(pos world.ChunkPos, dim world.Dimension) (*chunk.Column, error)
}

// scan loads and scans every chunk of region using a pool of worker
// goroutines. It returns once all chunks were processed, or once all running
// workers stopped after the first error.
func (inv *invocation) scan(region island.Region) error {
	conf := inv.c.conf
	chunks := region.Chunks()

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(conf.Workers)

	if sp, ok := conf.Provider.(world.SnapshotProvider); ok && conf.Snapshots {
		snap, err := sp.Snapshot()
		if err != nil {
			return &Error{Phase: PhaseLoad, Err: fmt.Errorf("take snapshot: %w", err)}
		}
		defer snap.Release()
		inv.dispatch(ctx, g, snap, region.Dimensions(), chunks)
		return g.Wait()
	}
	if bp, ok := conf.Provider.(world.BulkProvider); ok {
		for _, dim := range region.Dimensions() {
			if ctx.Err() != nil {
				break
			}
			positions := chunks[dim]
			start := time.Now()
			cols, err := bp.LoadColumns(dim, positions)
			if err != nil {
				g.Go(func() error {
					return &Error{Phase: PhaseLoad, Err: fmt.Errorf("load %v columns of %v: %w", len(positions), dim, err)}
				})
				break
			}
			if len(cols) != len(positions) {
				g.Go(func() error {
					return &Error{Phase: PhaseLoad, Err: fmt.Errorf("load %v columns of %v: got %v columns", len(positions), dim, len(cols))}
				})
				break
			}
			for i, pos := range positions {
				id, col := world.IDOf(dim, pos), cols[i]
				g.Go(func() error {
					if ctx.Err() != nil {
						return nil
					}
					if col == nil {
						col = chunk.Empty()
					}
					return inv.guard(id, func() error { return inv.process(id, col, start) })
				})
			}
		}
		return g.Wait()
	}
	inv.dispatch(ctx, g, conf.Provider, region.Dimensions(), chunks)
	return g.Wait()
}

// dispatch starts one task per chunk that loads the chunk from l and
// processes it.
func (inv *invocation) dispatch(ctx context.Context, g *errgroup.Group, l columnLoader, dims []world.Dimension, chunks map[world.Dimension][]world.ChunkPos) {
	for _, dim := range dims {
		for _, pos := range chunks[dim] {
			id := world.IDOf(dim, pos)
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				return inv.guard(id, func() error {
					start := time.Now()
					col, err := loadColumn(l, id)
					if err != nil {
						return err
					}
					return inv.process(id, col, start)
				})
			})
		}
	}
}

// guard runs f, turning a panic into an Error.
func (inv *invocation) guard(id world.ChunkID, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Phase: PhaseScan, Chunk: id, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return f()
}

// loadColumn loads the column of id from l. Chunks that were never saved are
// returned as empty columns.
func loadColumn(l columnLoader, id world.ChunkID) (*chunk.Column, error) {
	col, err := l.LoadColumn(id.Pos(), id.Dim)
	if errors.Is(err, world.ErrChunkNotFound) || (err == nil && col == nil) {
		return chunk.Empty(), nil
	}
	if err != nil {
		return nil, &Error{Phase: PhaseLoad, Chunk: id, Err: err}
	}
	return col, nil
}

// process merges the contents of a loaded column into the counts of the
// calculation. A cached result is used instead of scanning col if it was
// computed from contents with the same digest.
func (inv *invocation) process(id world.ChunkID, col *chunk.Column, start time.Time) error {
	conf := inv.c.conf

	res, cached := conf.Cache.Get(id)
	if cached && (res.digest == 0 || res.digest != col.Digest) {
		cached = false
	}
	if !cached {
		scanned, err := scanColumn(id, col)
		if err != nil {
			return &Error{Phase: PhaseScan, Chunk: id, Err: err}
		}
		res = scanned
		conf.Cache.Put(res)
	}
	for k, n := range res.counts {
		Add(inv.counter, k, n)
	}

	var pending []pendingStack
	for i, s := range conf.Stackers {
		stacks, err := s.StackedBlocks(id)
		if errors.Is(err, provider.ErrNotReady) {
			pending = append(pending, pendingStack{id: id, stackers: i})
			continue
		} else if err != nil {
			return &Error{Phase: PhaseStack, Chunk: id, Err: err}
		}
		inv.mergeStacks(stacks)
	}

	inv.mu.Lock()
	inv.spawners = append(inv.spawners, res.spawners...)
	inv.pending = append(inv.pending, pending...)
	inv.mu.Unlock()

	ev := ChunkEvent{
		Invocation: inv.h.id,
		Chunk:      id,
		Cached:     cached,
		Spawners:   len(res.spawners),
		Duration:   time.Since(start),
	}
	inv.h.notify(func() { conf.Handler.HandleChunk(ev) })
	return nil
}

// mergeStacks adds the blocks that stacks stand in for. The block a stack is
// placed as was already counted when scanning its chunk.
func (inv *invocation) mergeStacks(stacks []provider.Stack) {
	for _, s := range stacks {
		if s.Amount < 1 {
			continue
		}
		Add(inv.counter, s.Key, s.Amount-1)
	}
}

// resolve resolves the spawners found and retries the stacks that were not
// ready, all within a single transaction of the World.
func (inv *invocation) resolve() error {
	var err error
	if werr := inv.c.conf.World.Run(func(tx *world.Tx) {
		for _, ref := range inv.spawners {
			inv.resolveSpawner(tx, ref)
		}
		err = inv.retryStacks(tx)
	}); werr != nil {
		return &Error{Phase: PhaseResolve, Err: werr}
	}
	return err
}

// resolveSpawner adds the spawner at ref to the counts. A spawner that cannot
// be resolved is left out.
func (inv *invocation) resolveSpawner(tx *world.Tx, ref SpawnerRef) {
	conf := inv.c.conf
	err := txguard.Run(tx, func() error {
		count, entityType := conf.Spawners.Spawner(ref.Loc)
		if entityType == "" {
			live, err := conf.Reader.SpawnedType(tx, ref.Loc)
			if err != nil {
				return err
			}
			entityType = live
			if count <= 0 {
				// The stack may have been registered since the first query.
				var again string
				if count, again = conf.Spawners.Spawner(ref.Loc); again != "" {
					entityType = again
				}
			}
		}
		if count <= 0 {
			count = ref.Hint
		}
		if count > 0 {
			Add(inv.counter, key.OfSpawner(entityType), count)
		}
		return nil
	})
	if err != nil {
		conf.Log.Debug("Skipped unresolvable spawner.", "invocation", inv.h.id, "loc", ref.Loc, "error", err)
	}
}

// retryStacks queries the stacks that were not ready during scanning once
// more. Any error fails the calculation.
func (inv *invocation) retryStacks(tx *world.Tx) error {
	stackers := inv.c.conf.Stackers
	for _, p := range inv.pending {
		err := txguard.Run(tx, func() error {
			stacks, err := stackers[p.stackers].StackedBlocks(p.id)
			if err != nil {
				return err
			}
			inv.mergeStacks(stacks)
			return nil
		})
		if err != nil {
			return &Error{Phase: PhaseStack, Chunk: p.id, Err: err}
		}
	}
	return nil
}
