package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagescore/internal/audit"
	"github.com/nao1215/pagescore/internal/config"
	"github.com/nao1215/pagescore/internal/model"
	"github.com/nao1215/pagescore/internal/netgate"
	"github.com/nao1215/pagescore/internal/pipeline"
	"github.com/nao1215/pagescore/internal/reconcile"
	"github.com/nao1215/pagescore/internal/store"
	"github.com/nao1215/pagescore/internal/targets"
)

// sheetSuffixLayout stamps per-run sheet names. Colons are not allowed in
// sheet names.
const sheetSuffixLayout = "20060102-150405"

// runRequest holds the positional arguments of the run command.
type runRequest struct {
	targetSet  string
	iterations int
	sheet      string
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <target-set> <iterations> <sheet>",
		Short: "Audit a target set repeatedly and record every iteration",
		Long: `Run audits every website of the target set <iterations> times and merges
each iteration into <sheet>.

The target set is a file (one URL or domain per line, or a CSV with a
Website, Domain or URL column) or, when no such file exists, the name of a
stored sheet whose Website column is read. Entries without a scheme get
https:// and duplicates are dropped.

Every iteration appends a column group labelled "<Category> <timestamp>",
adds rows for new websites and rewrites the trailing Average row. Audits
wait for the network when it is down. A pause follows every iteration.

Examples:
  # Three iterations over a list of sites into the "scores" sheet
  pagescore run sites.txt 3 scores

  # Read targets from the Website column of an existing sheet
  pagescore run scores 1 scores

  # Audit performance and SEO with four workers into SQLite
  pagescore run sites.txt 5 weekly --categories performance,seo -n 4 -b sqlite

  # Give up on a dead network after ten minutes
  pagescore run sites.txt 3 scores --max-wait 10m

  # Try a configuration without writing anything
  pagescore run sites.txt 1 scratch --dry-run --delay 0s`,
		Args: cobra.ExactArgs(3),
		RunE: runRunCmd,
	}

	// Analyzer flags
	cmd.Flags().String("analyzer", config.DefaultAnalyzerPath,
		"Analyzer executable")
	cmd.Flags().StringSlice("analyzer-arg", nil,
		"Extra argument passed to the analyzer (repeatable)")
	cmd.Flags().StringSlice("categories", config.DefaultCategories(),
		"Audit categories, one column each")

	// Scheduling flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of concurrent audits")
	cmd.Flags().DurationP("delay", "d", config.DefaultQuiescentDelay,
		"Pause after every iteration")
	cmd.Flags().Bool("sheet-per-run", false,
		"Write the run to a new sheet suffixed with the start time")
	cmd.Flags().Bool("dry-run", false,
		"Keep results in memory only")

	// Connectivity flags
	cmd.Flags().String("probe-address", config.DefaultProbeAddress,
		"host:port dialed to check connectivity")
	cmd.Flags().Duration("probe-timeout", config.DefaultProbeTimeout,
		"Timeout of one connectivity probe")
	cmd.Flags().Duration("poll-interval", config.DefaultPollInterval,
		"Pause between probes while the network is down")
	cmd.Flags().Duration("max-wait", config.DefaultMaxWait,
		"Give up waiting for the network after this long (0 waits forever)")
	cmd.Flags().String("proxy", "",
		"Route connectivity probes through a SOCKS5 proxy (host:port)")

	addStoreFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	req, err := parseRunArgs(args)
	if err != nil {
		return err
	}

	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	// SIGINT/SIGTERM cancel the run; sleeps, waits and analyzer processes
	// observe the context.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runIterations(ctx, cmd.OutOrStdout(), cfg, req, logger)
}

// parseRunArgs validates the positional arguments.
func parseRunArgs(args []string) (runRequest, error) {
	iterations, err := strconv.Atoi(args[1])
	if err != nil || iterations < 1 {
		return runRequest{}, fmt.Errorf("%w: %q", pipeline.ErrInvalidIterations, args[1])
	}
	if err := store.ValidateSheetName(args[2]); err != nil {
		return runRequest{}, err
	}
	return runRequest{targetSet: args[0], iterations: iterations, sheet: args[2]}, nil
}

// buildRunConfig creates a Config from defaults, the config file and the
// flags the user set.
func buildRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getBoolFlag(cmd, "verbose")

	fs := cmd.Flags()
	for _, err := range []error{
		override(fs, "analyzer", &cfg.AnalyzerPath, fs.GetString),
		override(fs, "analyzer-arg", &cfg.AnalyzerArgs, fs.GetStringSlice),
		override(fs, "categories", &cfg.Categories, fs.GetStringSlice),
		override(fs, "concurrency", &cfg.Concurrency, fs.GetInt),
		override(fs, "delay", &cfg.QuiescentDelay, fs.GetDuration),
		override(fs, "sheet-per-run", &cfg.SheetPerRun, fs.GetBool),
		override(fs, "probe-address", &cfg.ProbeAddress, fs.GetString),
		override(fs, "probe-timeout", &cfg.ProbeTimeout, fs.GetDuration),
		override(fs, "poll-interval", &cfg.PollInterval, fs.GetDuration),
		override(fs, "max-wait", &cfg.MaxWait, fs.GetDuration),
		override(fs, "proxy", &cfg.Proxy, fs.GetString),
		applyStoreFlags(cmd, cfg),
		applyReportFlags(cmd, cfg),
	} {
		if err != nil {
			return nil, err
		}
	}

	dryRun, err := fs.GetBool("dry-run")
	if err != nil {
		return nil, err
	}
	if dryRun {
		cfg.Backend = config.BackendMemory
	}
	return cfg, nil
}

// newGate builds the connectivity gate from the network settings.
func newGate(cfg *config.Config, logger *slog.Logger) (*netgate.Gate, error) {
	opts := []netgate.Option{
		netgate.WithProbeTimeout(cfg.ProbeTimeout),
		netgate.WithPollInterval(cfg.PollInterval),
		netgate.WithMaxWait(cfg.MaxWait),
		netgate.WithLogger(logger),
	}
	if cfg.Proxy != "" {
		dialer, err := netgate.NewSOCKS5Dialer(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("failed to create proxy dialer: %w", err)
		}
		opts = append(opts, netgate.WithDialer(dialer))
	}
	return netgate.New(cfg.ProbeAddress, opts...)
}

// runIterations wires the components and runs the loop.
func runIterations(ctx context.Context, out io.Writer, cfg *config.Config, req runRequest, logger *slog.Logger) (err error) {
	categories, err := cfg.ParsedCategories()
	if err != nil {
		return err
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer func() { err = closeAll(err, backend.Close) }()

	loader := targets.NewLoader(targets.NewSheetProvider(backend), targets.WithLogger(logger))
	set, err := loader.Load(ctx, req.targetSet)
	if err != nil {
		return err
	}
	if n := len(set.Skipped); n > 0 {
		fmt.Fprintf(out, "Skipped %d of %d entries in %s (see log for details)\n",
			n, n+len(set.Targets), req.targetSet)
	}

	gate, err := newGate(cfg, logger)
	if err != nil {
		return err
	}

	analyzer := audit.NewExecAnalyzer(cfg.AnalyzerPath, categories, cfg.AnalyzerArgs...)
	logger.Debug("analyzer configured",
		"path", cfg.AnalyzerPath,
		"args", analyzer.Args("<target>"),
	)
	runner := audit.NewRunner(analyzer, categories, audit.WithRunnerLogger(logger))

	var mu sync.Mutex
	batch := pipeline.NewBatchProcessor(runner, gate,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
		pipeline.WithProgress(func(done, total int, entry model.Entry) {
			mu.Lock()
			defer mu.Unlock()
			status := "ok"
			if entry.Result.Failed() {
				status = "failed"
			}
			fmt.Fprintf(out, "  [%d/%d] %s %s\n", done, total, entry.Target, status)
		}),
	)

	reconciler := reconcile.New(backend, reconcile.WithLogger(logger))
	step := pipeline.NewReconcileStep(reconciler, gate, pipeline.WithReconcileLogger(logger))

	writer, closeReport, err := newReportWriter(cfg, out)
	if err != nil {
		return err
	}
	defer func() { err = closeAll(err, closeReport) }()

	sheet := req.sheet
	if cfg.SheetPerRun {
		sheet = req.sheet + "-" + time.Now().Format(sheetSuffixLayout)
	}

	loop := pipeline.NewLoop(batch, step, categories,
		pipeline.WithLoopLogger(logger),
		pipeline.WithQuiescentDelay(cfg.QuiescentDelay),
		pipeline.WithIterationHook(func(r *model.IterationReport) error {
			_, err := writer.WriteIteration(r)
			return err
		}),
	)

	fmt.Fprintf(out, "Auditing %d targets, %d iterations, into sheet %q (run %s, backend %s)\n\n",
		len(set.Targets), req.iterations, sheet, loop.RunID(), cfg.Backend)

	start := time.Now()
	if err := loop.Run(ctx, set.Targets, req.iterations, sheet); err != nil {
		return err
	}
	fmt.Fprintf(out, "Run completed in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
