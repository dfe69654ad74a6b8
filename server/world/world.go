package world

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoSpawner is returned when the live state of a spawner is read at a
// location that does not hold one.
var ErrNoSpawner = errors.New("no spawner at location")

// ErrClosed is returned when a transaction is attempted on a World that was
// closed.
var ErrClosed = errors.New("world closed")

// World owns the live, mutable state of the server that may only be accessed
// from a single goroutine. All access happens through transactions passed to
// Exec, which are run one at a time in the order they were queued. A nil
// *World is not usable.
type World struct {
	conf Config

	queue        chan transaction
	queueClosing chan struct{}
	queueing     sync.WaitGroup

	closeMu sync.RWMutex
	closed  bool

	o sync.Once

	// spawners holds the entity type spawned by every live spawner. It is only
	// accessed from within transactions.
	spawners map[Location]string
}

// Config holds the settings of a World.
type Config struct {
	// Log is the Logger used by the World. If nil, slog.Default() is used.
	Log *slog.Logger
	// QueueSize is the amount of transactions that may be queued before Exec
	// blocks. Defaults to 64.
	QueueSize int
}

// New creates a World using the fields of conf and starts the goroutine that
// runs its transactions.
func (conf Config) New() *World {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.QueueSize <= 0 {
		conf.QueueSize = 64
	}
	w := &World{
		conf:         conf,
		queue:        make(chan transaction, conf.QueueSize),
		queueClosing: make(chan struct{}),
		spawners:     make(map[Location]string),
	}
	w.queueing.Add(1)
	go w.handleTransactions()
	return w
}

// New creates a World with a default Config.
func New() *World {
	var conf Config
	return conf.New()
}

// ExecFunc is a function that performs a synchronised transaction on a World.
type ExecFunc func(tx *Tx)

// Exec performs a synchronised transaction f on a World. Exec returns a channel
// that is closed once the transaction is complete. If the World was closed, f
// is not run and the channel returned is closed immediately.
func (w *World) Exec(f ExecFunc) <-chan struct{} {
	c := make(chan struct{})
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed {
		close(c)
		return c
	}
	w.queue <- normalTransaction{c: c, f: f}
	return c
}

// Run performs a synchronised transaction f on a World and waits for it to
// complete. ErrClosed is returned without running f if the World was closed.
func (w *World) Run(f ExecFunc) error {
	ran := false
	<-w.Exec(func(tx *Tx) {
		ran = true
		f(tx)
	})
	if !ran {
		return ErrClosed
	}
	return nil
}

// handleTransactions continuously reads transactions from the queue and runs
// them. Once the World is closing, transactions still queued are run before
// it returns.
func (w *World) handleTransactions() {
	for {
		select {
		case tx := <-w.queue:
			tx.Run(w)
		case <-w.queueClosing:
			for {
				select {
				case tx := <-w.queue:
					tx.Run(w)
				default:
					w.queueing.Done()
					return
				}
			}
		}
	}
}

// SpawnedType returns the entity type spawned by the live spawner at loc.
// ErrNoSpawner is returned if no spawner exists at the location.
func (w *World) SpawnedType(tx *Tx, loc Location) (string, error) {
	spawners := tx.World().spawners
	t, ok := spawners[loc]
	if !ok {
		return "", fmt.Errorf("read spawner at %v: %w", loc, ErrNoSpawner)
	}
	return t, nil
}

// SpawnerCount returns the amount of live spawners tracked by the World.
func (w *World) SpawnerCount(tx *Tx) int {
	return len(tx.World().spawners)
}

// Close closes the World. Transactions queued before Close are still run,
// while transactions passed to Exec after Close are not.
func (w *World) Close() error {
	w.o.Do(w.close)
	return nil
}

func (w *World) close() {
	<-w.Exec(func(tx *Tx) {
		w.conf.Log.Debug("Closing world...", "spawners", len(w.spawners))
	})
	w.closeMu.Lock()
	w.closed = true
	w.closeMu.Unlock()

	close(w.queueClosing)
	w.queueing.Wait()
}

// SpawnerReader reads the live entity type of a spawner. Implementations are
// only ever called from within a transaction of the World the Tx belongs to.
type SpawnerReader interface {
	SpawnedType(tx *Tx, loc Location) (string, error)
}

var _ SpawnerReader = (*World)(nil)
