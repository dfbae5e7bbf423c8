package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rcrowley/go-metrics"
	smalloc "github.com/replay/go-small-alloc"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "smalloc-churn",
		Usage: "drive container style allocation churn through the small object allocator",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "ops", Aliases: []string{"n"}, Value: 1000000, Usage: "number of operations"},
			&cli.IntFlag{Name: "live", Aliases: []string{"l"}, Value: 10000, Usage: "maximum number of live blocks"},
			&cli.IntFlag{Name: "max-size", Aliases: []string{"m"}, Value: 256, Usage: "largest requested block size in bytes"},
			&cli.StringFlag{Name: "system", Aliases: []string{"s"}, Value: "heap", Usage: "memory source: heap or mmap"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "random seed"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log allocator events"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) (err error) {
	if c.Int("max-size") <= 0 {
		return fmt.Errorf("max-size must be greater than zero")
	}
	system, err := systemByName(c.String("system"))
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	cfg := smalloc.NewConfig()
	cfg.System = system
	cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	cfg.Registry = metrics.NewRegistry()
	a := smalloc.New(cfg)
	defer func() {
		err = errors.Join(err, a.Close(), closeSystem(system))
	}()

	w := newWorkload(a, c.Int("live"), c.Int("max-size"), c.Int64("seed"))
	start := time.Now()
	if err := w.run(c.Int("ops")); err != nil {
		return err
	}
	elapsed := time.Since(start)
	if err := w.drain(); err != nil {
		return err
	}

	printStats(a.Stats(), c.Int("ops"), elapsed)
	metrics.WriteOnce(cfg.Registry, os.Stdout)
	return nil
}

// systemByName returns the slab capable memory source called name
func systemByName(name string) (smalloc.System, error) {
	switch name {
	case "heap":
		return smalloc.NewHeapSystem(), nil
	case "mmap":
		return smalloc.NewMmapSystem(), nil
	}
	return nil, fmt.Errorf("unknown system %q", name)
}

func closeSystem(system smalloc.System) error {
	if c, ok := system.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func printStats(s smalloc.Stats, ops int, elapsed time.Duration) {
	fmt.Printf("ops=%d elapsed=%s ns/op=%.1f\n", ops, elapsed, float64(elapsed.Nanoseconds())/float64(ops))
	fmt.Printf("heap=%d arena=%d slabs=%d refills=%d splices=%d cannibalized=%d lastresort=%d\n",
		s.HeapSize, s.ArenaFree, s.SystemAllocs, s.Refills, s.Splices, s.Cannibalized, s.LastResortAllocs)
	fmt.Printf("fallback allocs=%d frees=%d\n", s.FallbackAllocs, s.FallbackFrees)
	for i, n := range s.FreeBlocks {
		if n > 0 {
			fmt.Printf("class %3d: %d free\n", smalloc.ClassSize(i), n)
		}
	}
}
