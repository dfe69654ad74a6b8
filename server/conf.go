package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dm-vev/islandcalc/server/calc"
	"github.com/dm-vev/islandcalc/server/provider"
	"github.com/dm-vev/islandcalc/server/world"
	"github.com/dm-vev/islandcalc/server/world/mcdb"
	"github.com/natefinch/atomic"
	"github.com/pelletier/go-toml"
)

// Config contains options for starting a Server.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set to
	// slog.Default().
	Log *slog.Logger
	// WorldProvider is the world.Provider chunks are read from. If left as
	// nil, every chunk is empty.
	WorldProvider world.Provider
	// Snapshots specifies if every calculation reads its chunks from one
	// snapshot of WorldProvider, so that writes made while it runs are not
	// observed.
	Snapshots bool
	// Dimensions are the dimensions islands span if they do not specify any
	// themselves. If empty, islands only span the overworld.
	Dimensions []world.Dimension
	// Spawners provides the stack size and type of spawners. If nil, every
	// spawner counts once and its type is read from the world.
	Spawners provider.Spawners
	// Stackers are queried for the stacked blocks in every chunk calculated.
	// The Stacks registry of the Server is always queried first.
	Stackers []provider.Stackers
	// Stacks is the registry of stacked blocks placed on the server itself. If
	// nil, an empty registry is created.
	Stacks *provider.Stacks
	// Cache holds the results of chunks scanned before. If nil, a new Cache
	// with CacheShards shards is created.
	Cache *calc.Cache
	// CacheShards is the amount of shards of the Cache created if Cache is
	// nil. If 0 or lower, a default is used.
	CacheShards int
	// Workers is the maximum amount of chunks scanned at the same time. If 0
	// or lower, the amount of CPUs available is used.
	Workers int
	// Profile specifies if the duration of every calculation is logged at
	// debug level.
	Profile bool
	// Handler receives diagnostic events of calculations. If nil, events are
	// discarded.
	Handler calc.Handler

	// closers are closed by Server.Close after the WorldProvider.
	closers []io.Closer
}

// New creates a Server using fields of conf. The world of the Server is
// started immediately.
func (conf Config) New() *Server {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.WorldProvider == nil {
		conf.WorldProvider = world.NopProvider{}
	}
	if len(conf.Dimensions) == 0 {
		conf.Dimensions = []world.Dimension{world.Overworld}
	}
	if conf.Spawners == nil {
		conf.Spawners = provider.DefaultSpawners{}
	}
	if conf.Stacks == nil {
		conf.Stacks = provider.NewStacks()
	}
	if conf.Cache == nil {
		conf.Cache = calc.NewCache(conf.CacheShards)
	}
	profiler := calc.Profiler(calc.NopProfiler{})
	if conf.Profile {
		profiler = calc.LogProfiler{Log: conf.Log.With("subsystem", "profile")}
	}

	srv := &Server{conf: conf, metrics: calc.NewMetrics()}
	srv.world = world.Config{Log: conf.Log.With("subsystem", "world")}.New()
	srv.calc = calc.Config{
		Log:       conf.Log.With("subsystem", "calc"),
		Provider:  conf.WorldProvider,
		Snapshots: conf.Snapshots,
		World:     srv.world,
		Spawners:  conf.Spawners,
		Stackers:  append([]provider.Stackers{conf.Stacks}, conf.Stackers...),
		Cache:     conf.Cache,
		Workers:   conf.Workers,
		Profiler:  profiler,
		Handler:   calc.Handlers(srv.metrics, conf.Handler),
	}.New()
	return srv
}

// UserConfig is the user configuration of a Server. UserConfig may be
// serialised and can be converted to a Config by calling UserConfig.Config().
type UserConfig struct {
	World struct {
		// Folder is the folder that the chunk database resides in. If empty,
		// chunks are not read from disk and every chunk is empty.
		Folder string
		// Dimensions are the dimensions islands span by default. Valid values
		// are "overworld", "nether" and "end".
		Dimensions []string
	}
	Calculation struct {
		// Workers is the maximum amount of chunks scanned at the same time.
		// Set to 0 to use the amount of CPUs available.
		Workers int
		// Snapshots controls whether every calculation reads its chunks from a
		// snapshot of the chunk database.
		Snapshots bool
		// CacheShards is the amount of shards the chunk cache is split in. Set
		// to 0 to use a default.
		CacheShards int
		// Profile controls whether the duration of calculations is logged.
		Profile bool
	}
	Providers struct {
		// Spawners is the name of the spawner provider: "default" or
		// "sqlite".
		Spawners string
		// Stackers lists the names of the stacked block providers queried
		// besides the built-in one: "builtin" or "sqlite".
		Stackers []string
		// Database is the path of the SQLite database used by the "sqlite"
		// providers.
		Database string
	}
}

// Config converts a UserConfig to a Config, so that it may be used for creating
// a Server. An error is returned if opening the chunk database or providers
// failed.
func (uc UserConfig) Config(log *slog.Logger) (conf Config, err error) {
	if log == nil {
		log = slog.Default()
	}
	conf = Config{
		Log:         log,
		Snapshots:   uc.Calculation.Snapshots,
		CacheShards: uc.Calculation.CacheShards,
		Workers:     uc.Calculation.Workers,
		Profile:     uc.Calculation.Profile,
		Stacks:      provider.NewStacks(),
	}
	defer func() {
		if err != nil {
			if conf.WorldProvider != nil {
				_ = conf.WorldProvider.Close()
			}
			for _, c := range conf.closers {
				_ = c.Close()
			}
		}
	}()

	for _, name := range uc.World.Dimensions {
		dim, ok := world.ParseDimension(strings.TrimSpace(name))
		if !ok {
			return conf, fmt.Errorf("parse dimension %q: unknown dimension", name)
		}
		conf.Dimensions = append(conf.Dimensions, dim)
	}

	conf.Cache = calc.NewCache(conf.CacheShards)
	if folder := strings.TrimSpace(uc.World.Folder); folder != "" {
		db, err := mcdb.Config{Log: log, OnWrite: conf.Cache.Invalidate}.Open(folder)
		if err != nil {
			return conf, fmt.Errorf("create world provider: %w", err)
		}
		conf.WorldProvider = db
	}

	var stackDB *provider.StackDB
	if uc.usesDatabase() {
		path := strings.TrimSpace(uc.Providers.Database)
		if path == "" {
			return conf, errors.New("open stack database: no database path configured")
		}
		if stackDB, err = provider.OpenStackDB(path); err != nil {
			return conf, fmt.Errorf("open stack database: %w", err)
		}
		conf.closers = append(conf.closers, stackDB)
	}
	// The built-in registry is added by Config.New itself.
	set, err := provider.Select(uc.Providers.Spawners, uc.Providers.Stackers, nil, stackDB)
	if err != nil {
		return conf, fmt.Errorf("select providers: %w", err)
	}
	conf.Spawners, conf.Stackers = set.Spawners, set.Stackers
	return conf, nil
}

// usesDatabase reports if any of the providers selected needs the SQLite
// database.
func (uc UserConfig) usesDatabase() bool {
	if strings.EqualFold(strings.TrimSpace(uc.Providers.Spawners), "sqlite") {
		return true
	}
	for _, name := range uc.Providers.Stackers {
		if strings.EqualFold(strings.TrimSpace(name), "sqlite") {
			return true
		}
	}
	return false
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.World.Folder = "world"
	c.World.Dimensions = []string{"overworld"}
	c.Calculation.Snapshots = true
	c.Providers.Spawners = "default"
	c.Providers.Stackers = []string{}
	c.Providers.Database = "stacks.sqlite"
	return c
}

// LoadUserConfig reads the UserConfig stored in the TOML file at path. Fields
// missing from the file keep their default value. If the file does not exist
// yet, it is created holding the default configuration.
func LoadUserConfig(path string) (UserConfig, error) {
	c := DefaultConfig()
	contents, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return c, fmt.Errorf("read config: %w", err)
		}
		return c, writeUserConfig(path, c)
	}
	if err := toml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func writeUserConfig(path string, c UserConfig) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	encoded, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(encoded)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
