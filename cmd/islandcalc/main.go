// Command islandcalc calculates the composition of an island from the chunk
// database of a server and prints the amount of every type of block and
// spawner found.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dm-vev/islandcalc/server"
	"github.com/dm-vev/islandcalc/server/island"
	"github.com/dm-vev/islandcalc/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	flags := flag.NewFlagSet("islandcalc", flag.ContinueOnError)
	flags.SetOutput(errOut)

	configPath := flags.StringP("config", "c", "config.toml", "Path of the configuration file")
	x := flags.Float64("x", 0, "X coordinate of the island centre")
	z := flags.Float64("z", 0, "Z coordinate of the island centre")
	size := flags.IntP("size", "s", 100, "Distance from the island centre to its edges")
	dims := flags.StringSlice("dimension", nil, "Dimensions the island spans (default from config)")
	debug := flags.Bool("debug", false, "Log debug output")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	uc, err := server.LoadUserConfig(*configPath)
	if err != nil {
		log.Error("Could not load config.", "error", err)
		return 1
	}
	conf, err := uc.Config(log)
	if err != nil {
		log.Error("Could not create server.", "error", err)
		return 1
	}
	srv := conf.New()
	defer func() {
		if err := srv.Close(); err != nil {
			log.Error("Could not close server.", "error", err)
		}
	}()

	is := island.Island{ID: uuid.New(), Center: mgl64.Vec3{*x, 0, *z}, Size: *size}
	for _, name := range *dims {
		dim, ok := world.ParseDimension(name)
		if !ok {
			log.Error("Unknown dimension.", "dimension", name)
			return 2
		}
		is.Dimensions = append(is.Dimensions, dim)
	}

	res, err := srv.Calculate(is).Wait(ctx)
	s := srv.Metrics().Summary()
	log.Debug("Calculation finished.", "scanned", s.Scans, "cached", s.Hits)
	if err != nil {
		log.Error("Could not calculate island.", "error", err)
		return 1
	}
	for k, n := range res.All() {
		fmt.Fprintf(out, "%v\t%v\n", k, n)
	}
	fmt.Fprintf(out, "TOTAL\t%v\n", res.Total())
	return 0
}
