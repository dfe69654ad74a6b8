package provider

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dm-vev/islandcalc/server/key"
	"github.com/dm-vev/islandcalc/server/world"
	_ "modernc.org/sqlite"
)

// StackDB is a Spawners and Stackers implementation backed by a SQLite
// database, as written by block and spawner stacking plugins.
type StackDB struct {
	db *sql.DB
}

// OpenStackDB opens the SQLite database at path, creating it and its schema
// if necessary.
func OpenStackDB(path string) (*StackDB, error) {
	if path == "" {
		return nil, errors.New("open stack database: empty path")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open stack database: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open stack database: %w", err)
	}
	// Pragmas only apply to the connection they were run on.
	db.SetMaxOpenConns(1)
	if err := initStackSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init stack database: %w", err)
	}
	return &StackDB{db: db}, nil
}

func initStackSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS stacked_blocks (
			dim INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			chunk_x INTEGER NOT NULL,
			chunk_z INTEGER NOT NULL,
			block TEXT NOT NULL,
			amount INTEGER NOT NULL,
			PRIMARY KEY (dim, x, y, z)
		);`,
		`CREATE INDEX IF NOT EXISTS stacked_blocks_chunk ON stacked_blocks (dim, chunk_x, chunk_z);`,
		`CREATE TABLE IF NOT EXISTS stacked_spawners (
			dim INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			entity TEXT NOT NULL,
			amount INTEGER NOT NULL,
			PRIMARY KEY (dim, x, y, z)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SetBlock stores a stack of amount blocks of type k at loc. An amount of 1
// or lower removes the stack.
func (s *StackDB) SetBlock(loc world.Location, k key.Key, amount int64) error {
	if amount <= 1 {
		_, err := s.db.Exec(`DELETE FROM stacked_blocks WHERE dim = ? AND x = ? AND y = ? AND z = ?`,
			int(loc.Dim), loc.Pos[0], loc.Pos[1], loc.Pos[2])
		if err != nil {
			return fmt.Errorf("remove stacked block at %v: %w", loc, err)
		}
		return nil
	}
	chunk := loc.Pos.ChunkPos()
	_, err := s.db.Exec(`INSERT INTO stacked_blocks (dim, x, y, z, chunk_x, chunk_z, block, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (dim, x, y, z) DO UPDATE SET block = excluded.block, amount = excluded.amount`,
		int(loc.Dim), loc.Pos[0], loc.Pos[1], loc.Pos[2], chunk[0], chunk[1], k.String(), amount)
	if err != nil {
		return fmt.Errorf("store stacked block at %v: %w", loc, err)
	}
	return nil
}

// SetSpawner stores a stack of amount spawners of entityType at loc. An
// empty entityType records the stack size only.
func (s *StackDB) SetSpawner(loc world.Location, entityType string, amount int64) error {
	_, err := s.db.Exec(`INSERT INTO stacked_spawners (dim, x, y, z, entity, amount)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (dim, x, y, z) DO UPDATE SET entity = excluded.entity, amount = excluded.amount`,
		int(loc.Dim), loc.Pos[0], loc.Pos[1], loc.Pos[2], entityType, amount)
	if err != nil {
		return fmt.Errorf("store stacked spawner at %v: %w", loc, err)
	}
	return nil
}

// StackedBlocks returns the stacks stored for a chunk, ordered by position.
func (s *StackDB) StackedBlocks(id world.ChunkID) ([]Stack, error) {
	rows, err := s.db.Query(`SELECT x, y, z, block, amount FROM stacked_blocks
		WHERE dim = ? AND chunk_x = ? AND chunk_z = ? ORDER BY x, y, z`, int(id.Dim), id.X, id.Z)
	if err != nil {
		return nil, fmt.Errorf("query stacked blocks of %v: %w", id, err)
	}
	defer rows.Close()

	var stacks []Stack
	for rows.Next() {
		var (
			st    Stack
			block string
		)
		if err := rows.Scan(&st.Pos[0], &st.Pos[1], &st.Pos[2], &block, &st.Amount); err != nil {
			return nil, fmt.Errorf("scan stacked block of %v: %w", id, err)
		}
		st.Key = key.Parse(block)
		stacks = append(stacks, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query stacked blocks of %v: %w", id, err)
	}
	return stacks, nil
}

// Spawner returns the stack size and entity type stored for the spawner at
// loc. Spawners that are not stored count once with an unknown type, as do
// spawners for which the database cannot be read.
func (s *StackDB) Spawner(loc world.Location) (int64, string) {
	var (
		entity string
		amount int64
	)
	err := s.db.QueryRow(`SELECT entity, amount FROM stacked_spawners WHERE dim = ? AND x = ? AND y = ? AND z = ?`,
		int(loc.Dim), loc.Pos[0], loc.Pos[1], loc.Pos[2]).Scan(&entity, &amount)
	if err != nil {
		return 1, ""
	}
	return amount, entity
}

// Close closes the underlying database.
func (s *StackDB) Close() error {
	return s.db.Close()
}

var (
	_ Spawners = (*StackDB)(nil)
	_ Stackers = (*StackDB)(nil)
)
