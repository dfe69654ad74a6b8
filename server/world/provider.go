package world

import (
	"errors"

	"github.com/dm-vev/islandcalc/server/world/chunk"
)

// ErrChunkNotFound is returned by a Provider for chunks that were never
// saved. Callers generally treat such chunks as empty.
var ErrChunkNotFound = errors.New("chunk not found")

// Provider represents a value that may provide the contents of chunks. A
// Provider must be safe for concurrent use: chunk contents are read from
// worker goroutines.
type Provider interface {
	// LoadColumn reads a chunk column from the provider. If the column was
	// never saved, ErrChunkNotFound is returned.
	LoadColumn(pos ChunkPos, dim Dimension) (*chunk.Column, error)
	// Close closes the provider, saving any pending data.
	Close() error
}

// SnapshotProvider is a Provider that is able to hand out isolated read-only
// views of its contents. Columns loaded from one Snapshot are consistent with
// each other regardless of writes made after the Snapshot was taken.
type SnapshotProvider interface {
	Provider
	// Snapshot takes a new Snapshot of the provider's current contents.
	Snapshot() (Snapshot, error)
}

// Snapshot is a read-only view of a SnapshotProvider. Its methods are safe
// for concurrent use until Release is called.
type Snapshot interface {
	// LoadColumn reads a chunk column from the snapshot.
	LoadColumn(pos ChunkPos, dim Dimension) (*chunk.Column, error)
	// Release releases the snapshot. It must be called exactly once.
	Release()
}

// BulkProvider is a Provider that loads many columns of a single dimension
// at once more efficiently than column by column.
type BulkProvider interface {
	Provider
	// LoadColumns reads all columns at the positions passed. Columns that were
	// never saved are returned as nil entries.
	LoadColumns(dim Dimension, positions []ChunkPos) ([]*chunk.Column, error)
}

// NopProvider implements a Provider that does not perform any disk I/O. It
// reports every chunk as never saved.
type NopProvider struct{}

var _ Provider = NopProvider{}

func (NopProvider) LoadColumn(ChunkPos, Dimension) (*chunk.Column, error) {
	return nil, ErrChunkNotFound
}
func (NopProvider) Close() error { return nil }
