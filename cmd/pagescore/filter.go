package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagescore/internal/livecheck"
)

// NewFilterCmd creates the filter command.
func NewFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter <input.csv> [output.csv]",
		Short: "Keep only domains that serve a website",
		Long: `Filter reads a CSV of domains (for example a top-1m list with a Domain
column), requests http://<domain> for each row and writes the rows that
answered 200 OK, header included, to the output file or stdout.

The result is a ready-made target set for 'pagescore run'.

Examples:
  # Filter a domain list with the defaults (20 workers, 5s timeout)
  pagescore filter top-1m.csv live.csv

  # Be gentle: 8 workers, at most 10 requests per second
  pagescore filter top-1m.csv live.csv -w 8 -r 10`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runFilterCmd,
	}

	cmd.Flags().IntP("workers", "w", livecheck.DefaultWorkers,
		"Number of concurrent requests")
	cmd.Flags().DurationP("timeout", "t", livecheck.DefaultTimeout,
		"Timeout of one request")
	cmd.Flags().Float64P("rate", "r", 0,
		"Maximum requests per second (0 means unlimited)")

	return cmd
}

// runFilterCmd executes the filter command.
func runFilterCmd(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fs := cmd.Flags()
	for _, err := range []error{
		override(fs, "workers", &cfg.FilterWorkers, fs.GetInt),
		override(fs, "timeout", &cfg.FilterTimeout, fs.GetDuration),
		override(fs, "rate", &cfg.FilterRate, fs.GetFloat64),
	} {
		if err != nil {
			return err
		}
	}
	if err := cfg.ValidateFilter(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	var out io.Writer = cmd.OutOrStdout()
	if len(args) == 2 {
		f, err := os.OpenFile(args[1], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { err = closeAll(err, f.Close) }()
		out = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := cmd.ErrOrStderr()
	var mu sync.Mutex
	checker := livecheck.New(
		livecheck.WithHTTPClient(&http.Client{Timeout: cfg.FilterTimeout}),
		livecheck.WithWorkers(cfg.FilterWorkers),
		livecheck.WithRate(cfg.FilterRate),
		livecheck.WithLogger(logger),
		livecheck.WithProgress(func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if done%100 == 0 || done == total {
				fmt.Fprintf(progress, "checked %d/%d\n", done, total)
			}
		}),
	)

	summary, err := checker.FilterCSV(ctx, in, out)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Kept %d of %d domains\n", summary.Kept, summary.Total)
	return nil
}
