package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nao1215/pagescore/internal/config"
	"github.com/nao1215/pagescore/internal/database"
	"github.com/nao1215/pagescore/internal/report"
	"github.com/nao1215/pagescore/internal/store"
	"github.com/nao1215/pagescore/internal/store/xlsx"
)

// loadConfig builds a Config from defaults and the configuration file.
// If the user explicitly specified a config file path, a missing file is an
// error; otherwise defaults are used silently.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return nil, err
		}
	}
	cfg.ConfigFilePath = path

	found := config.FindConfigFile(path)
	switch {
	case found != "":
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cfg.Apply(file)
	case path != "":
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}
	return cfg, nil
}

// override copies a flag value into dst when the user set the flag.
func override[T any](fs *pflag.FlagSet, name string, dst *T, get func(string) (T, error)) error {
	if !fs.Changed(name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// addStoreFlags registers the flags selecting the result store.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("backend", "b", config.DefaultBackend,
		"Storage backend: xlsx, sqlite or memory")
	cmd.Flags().StringP("folder", "f", "",
		"Folder holding the result sheets (default: XDG data directory)")
}

func applyStoreFlags(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	if err := override(fs, "backend", &cfg.Backend, fs.GetString); err != nil {
		return err
	}
	return override(fs, "folder", &cfg.Folder, fs.GetString)
}

// addReportFlags registers the report format flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON reports (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown reports (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Also write reports to the specified file path (creates directories if needed)")
}

func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	if err := override(fs, "json", &cfg.JSONReport, fs.GetBool); err != nil {
		return err
	}
	if err := override(fs, "markdown", &cfg.MarkdownReport, fs.GetBool); err != nil {
		return err
	}
	return override(fs, "output", &cfg.ReportFile, fs.GetString)
}

// openBackend opens the configured result store.
func openBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemory(), nil
	case config.BackendSQLite:
		db, err := database.Open(cfg.Folder, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	case config.BackendXLSX:
		b, err := xlsx.New(cfg.Folder)
		if err != nil {
			return nil, fmt.Errorf("failed to open spreadsheet folder: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

// formatWriter returns the writer for the configured report format.
func formatWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// newReportWriter returns the writer for reports and a function releasing
// it. Without --output reports go to out in the selected format. With
// --output, out keeps the text report and the file gets the selected format.
func newReportWriter(cfg *config.Config, out io.Writer) (report.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return formatWriter(cfg, out), func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := report.NewMultiWriter(
		report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)),
		formatWriter(cfg, f),
	)
	return w, f.Close, nil
}

// closeAll runs every closer and joins their errors with err.
func closeAll(err error, closers ...func() error) error {
	for _, c := range closers {
		err = errors.Join(err, c())
	}
	return err
}
