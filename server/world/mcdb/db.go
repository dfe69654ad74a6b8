// Package mcdb implements a world.Provider that stores chunk columns in a
// LevelDB database.
package mcdb

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/dm-vev/islandcalc/server/world"
	"github.com/dm-vev/islandcalc/server/world/chunk"
	"github.com/klauspost/compress/zstd"
)

// Config holds the optional parameters of a DB.
type Config struct {
	// Log is the Logger used by the DB. If nil, slog.Default() is used.
	Log *slog.Logger
	// LDBOptions holds LevelDB specific default options, such as the block
	// size or compression used in the database.
	LDBOptions *opt.Options
	// OnWrite, if set, is called after a column was written to the database.
	// It is typically used to invalidate data derived from the column.
	OnWrite func(id world.ChunkID)
}

// DB implements a world provider for chunk columns stored in a LevelDB
// database. Its methods are safe for concurrent use.
type DB struct {
	conf Config
	ldb  *leveldb.DB
	dir  string

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open creates a new DB reading and writing from/to files under the path
// passed. If a database does not yet exist at the path, it is created.
func Open(dir string) (*DB, error) {
	var conf Config
	return conf.Open(dir)
}

// Open creates a new DB reading and writing from/to files under the path
// passed using the Config conf.
func (conf Config) Open(dir string) (*DB, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	conf.Log = conf.Log.With("provider", "mcdb")
	if conf.LDBOptions == nil {
		conf.LDBOptions = new(opt.Options)
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	ldb, err := leveldb.OpenFile(dir, conf.LDBOptions)
	if err != nil {
		return nil, fmt.Errorf("open db: leveldb: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = ldb.Close()
		return nil, fmt.Errorf("open db: zstd: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = ldb.Close()
		_ = enc.Close()
		return nil, fmt.Errorf("open db: zstd: %w", err)
	}
	return &DB{conf: conf, ldb: ldb, dir: dir, enc: enc, dec: dec}, nil
}

// LoadColumn reads a chunk column from the database. world.ErrChunkNotFound
// is returned if no column is stored at the position.
func (db *DB) LoadColumn(pos world.ChunkPos, dim world.Dimension) (*chunk.Column, error) {
	return db.load(db.ldb, pos, dim)
}

// LoadColumns reads all columns at the positions passed from one consistent
// view of the database. Missing columns are returned as nil entries.
func (db *DB) LoadColumns(dim world.Dimension, positions []world.ChunkPos) ([]*chunk.Column, error) {
	snap, err := db.ldb.GetSnapshot()
	if err != nil {
		return nil, fmt.Errorf("load columns: %w", err)
	}
	defer snap.Release()

	cols := make([]*chunk.Column, len(positions))
	for i, pos := range positions {
		col, err := db.load(snap, pos, dim)
		if errors.Is(err, world.ErrChunkNotFound) {
			continue
		} else if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}

// Snapshot takes a read-only view of the current contents of the database.
func (db *DB) Snapshot() (world.Snapshot, error) {
	snap, err := db.ldb.GetSnapshot()
	if err != nil {
		return nil, fmt.Errorf("take snapshot: %w", err)
	}
	return &snapshot{db: db, snap: snap}, nil
}

// StoreColumn stores a column at the chunk passed and calls Config.OnWrite.
func (db *DB) StoreColumn(id world.ChunkID, col *chunk.Column) error {
	raw, err := db.encode(col)
	if err != nil {
		return fmt.Errorf("store column %v: %w", id, err)
	}
	if err := db.ldb.Put(index(id.Pos(), id.Dim).Key(keyColumn), raw, nil); err != nil {
		return fmt.Errorf("store column %v: %w", id, err)
	}
	if db.conf.OnWrite != nil {
		db.conf.OnWrite(id)
	}
	return nil
}

// DeleteColumn removes the column at the chunk passed, if any, and calls
// Config.OnWrite.
func (db *DB) DeleteColumn(id world.ChunkID) error {
	if err := db.ldb.Delete(index(id.Pos(), id.Dim).Key(keyColumn), nil); err != nil {
		return fmt.Errorf("delete column %v: %w", id, err)
	}
	if db.conf.OnWrite != nil {
		db.conf.OnWrite(id)
	}
	return nil
}

// Close closes the database.
func (db *DB) Close() error {
	db.conf.Log.Debug("Closing database...", "dir", db.dir)
	db.dec.Close()
	if err := db.enc.Close(); err != nil {
		db.conf.Log.Error("close zstd encoder: " + err.Error())
	}
	return db.ldb.Close()
}

// getter is implemented by both *leveldb.DB and *leveldb.Snapshot.
type getter interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
}

func (db *DB) load(g getter, pos world.ChunkPos, dim world.Dimension) (*chunk.Column, error) {
	raw, err := g.Get(index(pos, dim).Key(keyColumn), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, world.ErrChunkNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load column %v: %w", world.IDOf(dim, pos), err)
	}
	col, err := db.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("load column %v: %w", world.IDOf(dim, pos), err)
	}
	return col, nil
}

// snapshot implements world.Snapshot using a LevelDB snapshot.
type snapshot struct {
	db   *DB
	snap *leveldb.Snapshot
}

func (s *snapshot) LoadColumn(pos world.ChunkPos, dim world.Dimension) (*chunk.Column, error) {
	return s.db.load(s.snap, pos, dim)
}

func (s *snapshot) Release() {
	s.snap.Release()
}

var (
	_ world.SnapshotProvider = (*DB)(nil)
	_ world.BulkProvider     = (*DB)(nil)
)
