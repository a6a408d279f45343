package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"PairLab/internal/di"
	"PairLab/internal/domain/models"
	"PairLab/internal/usecase"
	"PairLab/pkg/config"
)

var configPath = flag.String("config", "config/config.yaml", "config file path")

func register(c *subcommands.Commander) {
	c.Register(&statsCmd{}, "pairs")
	c.Register(&seriesCmd{}, "pairs")
	c.Register(&validateCmd{}, "symbols")
	c.Register(&warmCmd{}, "cache")
}

// withToolkit loads the configuration, wires the toolkit and runs fn.
func withToolkit(fn func(*di.Toolkit) error) subcommands.ExitStatus {
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	// stdout carries command output.
	if cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	tk, cleanup, err := di.InitializeToolkit(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()
	if err := fn(tk); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// pairFlags are shared by the commands that take two symbols and a range.
type pairFlags struct {
	a, b       string
	start, end string
}

func (p *pairFlags) set(f *flag.FlagSet) {
	f.StringVar(&p.a, "a", "", "first symbol")
	f.StringVar(&p.b, "b", "", "second symbol")
	f.StringVar(&p.start, "start", "2016-01-04", "inclusive start date (YYYY-MM-DD)")
	f.StringVar(&p.end, "end", "", "inclusive end date (YYYY-MM-DD, defaults to today)")
}

func (p *pairFlags) dates() (models.Date, models.Date, error) {
	if p.a == "" || p.b == "" {
		return models.Date{}, models.Date{}, fmt.Errorf("both -a and -b are required")
	}
	start, err := models.ParseDate(p.start)
	if err != nil {
		return models.Date{}, models.Date{}, fmt.Errorf("parsing -start: %w", err)
	}
	end := models.Today()
	if p.end != "" {
		if end, err = models.ParseDate(p.end); err != nil {
			return models.Date{}, models.Date{}, fmt.Errorf("parsing -end: %w", err)
		}
	}
	return start, end, nil
}

type statsCmd struct{ pairFlags }

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "print cointegration and performance statistics of a pair" }
func (*statsCmd) Usage() string {
	return `pairctl stats -a <symbol> -b <symbol> [-start <date>] [-end <date>]

  Prints the statistics of the pair as JSON.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, end, err := c.dates()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withToolkit(func(tk *di.Toolkit) error {
		res, err := tk.Analyzer.GetPairStatistics(ctx, c.a, c.b, start, end)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	})
}

type seriesCmd struct {
	pairFlags
	out string
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "export the aligned close series of a pair as CSV" }
func (*seriesCmd) Usage() string {
	return `pairctl series -a <symbol> -b <symbol> [-start <date>] [-end <date>] [-o <file>]

  Writes the dates both symbols traded with their adjusted closes and volumes.
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	c.set(f)
	f.StringVar(&c.out, "o", "", "output file (defaults to stdout)")
}

func (c *seriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, end, err := c.dates()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withToolkit(func(tk *di.Toolkit) error {
		aligned, err := tk.Analyzer.GetAlignedSeries(ctx, c.a, c.b, start, end)
		if err != nil {
			return err
		}
		var w io.Writer = os.Stdout
		if c.out != "" {
			f, err := os.Create(c.out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(aligned.Columns()); err != nil {
			return err
		}
		return cw.WriteAll(aligned.Records())
	})
}

type validateCmd struct{}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "check that symbols are known to the market data provider" }
func (*validateCmd) Usage() string {
	return `pairctl validate <symbol>...

  Prints one line per symbol. Exits non-zero when any symbol is unknown.
`
}

func (*validateCmd) SetFlags(*flag.FlagSet) {}

func (*validateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one symbol is required")
		return subcommands.ExitUsageError
	}
	return withToolkit(func(tk *di.Toolkit) error {
		unknown := 0
		for _, s := range f.Args() {
			ok, err := tk.Analyzer.CheckSymbol(ctx, s)
			switch {
			case err != nil:
				unknown++
				fmt.Printf("%s\terror: %v\n", s, err)
			case ok:
				fmt.Printf("%s\tvalid\n", s)
			default:
				unknown++
				fmt.Printf("%s\tunknown\n", s)
			}
		}
		if unknown > 0 {
			return fmt.Errorf("%d of %d symbols failed validation", unknown, f.NArg())
		}
		return nil
	})
}

type warmCmd struct {
	start   string
	workers int
}

func (*warmCmd) Name() string     { return "warm" }
func (*warmCmd) Synopsis() string { return "prefetch series into the cache" }
func (*warmCmd) Usage() string {
	return `pairctl warm [-start <date>] [-workers <n>] [<symbol>...]

  Fetches and caches each symbol's history. Without arguments the configured
  warm-up symbols are used.
`
}

func (c *warmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "earliest date to cache (defaults to warmup.start)")
	f.IntVar(&c.workers, "workers", 0, "parallel fetches (defaults to warmup.workers)")
}

func (c *warmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withToolkit(func(tk *di.Toolkit) error {
		w := tk.Warmup
		if f.NArg() > 0 || c.start != "" || c.workers > 0 {
			var err error
			if w, err = c.scheduler(tk, f.Args()); err != nil {
				return err
			}
		}
		failed := 0
		for _, r := range w.Run(ctx) {
			if r.Err != nil {
				failed++
				fmt.Printf("%s\tfailed: %v\n", r.Symbol, r.Err)
				continue
			}
			fmt.Printf("%s\t%d points\n", r.Symbol, r.Points)
		}
		if failed > 0 {
			return fmt.Errorf("%d symbols failed", failed)
		}
		return nil
	})
}

// scheduler builds a one-off warm-up from the command line overrides.
func (c *warmCmd) scheduler(tk *di.Toolkit, args []string) (*usecase.WarmupScheduler, error) {
	cfg := tk.Config
	names := args
	if len(names) == 0 {
		names = cfg.WarmupSymbols()
	}
	syms := make([]models.Symbol, 0, len(names))
	for _, n := range names {
		s, err := models.NormalizeSymbol(n)
		if err != nil {
			return nil, err
		}
		syms = append(syms, s)
	}
	startStr := c.start
	if startStr == "" {
		startStr = cfg.Warmup.Start
	}
	start, err := models.ParseDate(startStr)
	if err != nil {
		return nil, fmt.Errorf("parsing -start: %w", err)
	}
	workers := c.workers
	if workers <= 0 {
		workers = cfg.Warmup.Workers
	}
	return usecase.NewWarmupScheduler(tk.Store, syms, start, workers, tk.Logger), nil
}
