package world

// ClosedTxMessage is the panic message used when a Tx is used after the
// transaction it belongs to finished.
const ClosedTxMessage = "world.Tx: use of transaction after transaction finishes is not permitted"

// Tx represents a synchronised transaction performed on a World. Most
// operations on the live state of a World can only be performed through a
// Tx. A Tx is only valid within the ExecFunc it was passed to.
type Tx struct {
	w      *World
	closed bool
}

// World returns the World this Tx belongs to. World panics if the
// transaction already finished.
func (tx *Tx) World() *World {
	if tx.closed {
		panic(ClosedTxMessage)
	}
	return tx.w
}

// SetSpawner places a live spawner of an entity type at loc, replacing any
// spawner already there.
func (tx *Tx) SetSpawner(loc Location, entityType string) {
	tx.World().spawners[loc] = entityType
}

// RemoveSpawner removes the live spawner at loc, if any.
func (tx *Tx) RemoveSpawner(loc Location) {
	delete(tx.World().spawners, loc)
}

func (tx *Tx) close() {
	tx.closed = true
}

// transaction is a type that may be added to the transaction queue of a World.
// Its Run method is called when the transaction is taken out of the queue.
type transaction interface {
	Run(w *World)
}

// normalTransaction is a transaction that runs f and closes c once done.
type normalTransaction struct {
	c chan struct{}
	f ExecFunc
}

// Run creates a *Tx that is used to run f. c is closed once the transaction
// is complete.
func (t normalTransaction) Run(w *World) {
	tx := &Tx{w: w}
	defer close(t.c)
	defer tx.close()
	t.f(tx)
}
