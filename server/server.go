// Package server ties the world, the chunk database, the content providers
// and the calculation engine together into a single Server.
package server

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dm-vev/islandcalc/server/calc"
	"github.com/dm-vev/islandcalc/server/island"
	"github.com/dm-vev/islandcalc/server/provider"
	"github.com/dm-vev/islandcalc/server/world"
)

// Server calculates the composition of islands in the world it owns. A Server
// is created by calling Config.New.
type Server struct {
	conf Config

	world   *world.World
	calc    *calc.Calculator
	metrics *calc.Metrics

	once sync.Once
}

// Calculate starts calculating the composition of is. If is does not specify
// any dimensions, the default dimensions of the Server are used.
func (srv *Server) Calculate(is island.Island) *calc.Handle {
	if len(is.Dimensions) == 0 {
		is.Dimensions = slices.Clone(srv.conf.Dimensions)
	}
	srv.conf.Log.Debug("Calculating island.", "island", is.ID, "owner", is.Owner, "size", is.Size)
	return srv.calc.Calculate(is.Region())
}

// InvalidateChunk discards the cached contents of a chunk. It must be called
// whenever the contents of a chunk change through anything but the chunk
// database of the Server, which invalidates chunks by itself.
func (srv *Server) InvalidateChunk(id world.ChunkID) {
	srv.conf.Cache.Invalidate(id)
}

// World returns the World holding the live state of the Server. Spawners
// placed on the server are registered through its transactions.
func (srv *Server) World() *world.World {
	return srv.world
}

// Stacks returns the registry of blocks stacked on the server itself.
func (srv *Server) Stacks() *provider.Stacks {
	return srv.conf.Stacks
}

// Cache returns the cache holding the scanned contents of chunks.
func (srv *Server) Cache() *calc.Cache {
	return srv.conf.Cache
}

// Metrics returns the counters of all calculations run by the Server.
func (srv *Server) Metrics() *calc.Metrics {
	return srv.metrics
}

// Close closes the world and all providers of the Server. Calculations must
// not be started after calling Close.
func (srv *Server) Close() error {
	var err error
	srv.once.Do(func() {
		srv.conf.Log.Debug("Closing server...")
		errs := []error{srv.world.Close()}
		if cerr := srv.conf.WorldProvider.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close world provider: %w", cerr))
		}
		for _, c := range srv.conf.closers {
			if cerr := c.Close(); cerr != nil {
				errs = append(errs, fmt.Errorf("close provider: %w", cerr))
			}
		}
		err = errors.Join(errs...)
	})
	return err
}
