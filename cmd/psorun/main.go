// Command psorun minimizes one of the bench functions with a particle swarm
// and optionally records the run to a sqlite database, a convergence plot
// and a CSV table.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/pso"
	"github.com/rwcarlsen/pso/bench"
	"github.com/rwcarlsen/pso/report"
	"github.com/rwcarlsen/pso/swarm"
	_ "modernc.org/sqlite"
)

var (
	fnName    = flag.String("fn", "Quadratic", "benchmark function to minimize ("+strings.Join(bench.Names(), ", ")+")")
	npar      = flag.Int("n", 20, "number of particles")
	seed      = flag.Int64("seed", -1, "random seed (negative for time based)")
	maxiter   = flag.Int("maxiter", swarm.DefaultMaxIter, "maximum number of iterations")
	rounds    = flag.Int("rounds", swarm.DefaultStopRounds, "consecutive small-improvement iterations before stopping")
	tol       = flag.Float64("tol", swarm.DefaultStopTol, "relative improvement below which an iteration counts as a stopping round")
	chi       = flag.Float64("chi", swarm.DefaultChi, "constriction coefficient")
	phi1      = flag.Float64("phi1", swarm.DefaultPhi1, "cognitive (personal best) weight")
	phi2      = flag.Float64("phi2", swarm.DefaultPhi2, "social (global best) weight")
	constrict = flag.Bool("constrict", false, "derive chi from phi1 and phi2 instead of using -chi")
	dbpath    = flag.String("db", "", "sqlite database to record particle history into")
	plotpath  = flag.String("plot", "", "image file to render the convergence curve to")
	logy      = flag.Bool("logy", false, "plot the convergence curve on a log scale")
	csvpath   = flag.String("csv", "", "file to write the per-particle table to")
	cache     = flag.Bool("cache", false, "memoize objective evaluations")
	verbose   = flag.Bool("v", false, "log every iteration and objective evaluation")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger); err != nil {
		logger.Error("psorun failed", "err", err)
		os.Exit(1)
	}
}

// run does all the work of main so that deferred cleanup happens before
// the process exits on error.
func run(logger *slog.Logger) error {
	fn, err := bench.ByName(*fnName)
	if err != nil {
		return err
	}

	if *seed < 0 {
		*seed = time.Now().UnixNano()
	}
	opts := []swarm.Option{
		swarm.Seed(*seed),
		swarm.Coefficients(*chi, *phi1, *phi2),
		swarm.Logger(logger.With("fn", fn.Name())),
	}
	if *constrict {
		opts = append(opts, swarm.Constricted(*phi1, *phi2))
	}

	s, err := swarm.New(fn.Bounds(), *npar, opts...)
	if err != nil {
		return err
	}

	cfg := swarm.RunConfig{
		MaxIter:    *maxiter,
		StopRounds: *rounds,
		StopTol:    *tol,
		Table:      *csvpath != "",
	}

	if *dbpath != "" {
		db, err := sql.Open("sqlite", *dbpath)
		if err != nil {
			return err
		}
		defer db.Close()
		cfg.Recorders = append(cfg.Recorders, report.NewDB(db))
	}
	if *plotpath != "" {
		cfg.Render = &report.Plot{Path: *plotpath, Title: fn.Name(), LogY: *logy}
	}

	counter := pso.NewObjectiveLogger(pso.Func(fn.Eval), logger)
	var obj pso.Objectiver = counter
	var cached *pso.CacheObjective
	if *cache {
		cached = pso.NewCacheObjective(counter)
		obj = cached
	}

	res, err := s.Run(obj, cfg)
	if err != nil {
		return err
	}

	if *csvpath != "" {
		if err := writeCSV(*csvpath, res); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
	}

	fmt.Println(report.Summarize(res))
	fmt.Printf("    optimum: %v at %v\n", fn.Optima()[0].Val, fn.Optima()[0].Pos())
	fmt.Printf("    %v objective evaluations", counter.Count)
	if cached != nil {
		fmt.Printf(" (%v cache hits)", cached.Hits)
	}
	fmt.Println()
	return nil
}

func writeCSV(path string, res *swarm.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(f, res.Table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
