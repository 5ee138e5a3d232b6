package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/pagescore/internal/report"
	"github.com/nao1215/pagescore/internal/store"
)

// NewHistoryCmd creates the history command.
// This command prints result sheets recorded by earlier runs.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [sheet]",
		Short: "Show recorded result sheets",
		Long: `History prints a result sheet with every column group recorded so far,
or lists the sheets in the store when no sheet is given.

Examples:
  # List the sheets in the default store
  pagescore history

  # Print the "scores" sheet
  pagescore history scores

  # Print a sheet kept in SQLite as Markdown
  pagescore history scores -b sqlite --markdown

  # Export a sheet as JSON
  pagescore history scores --json -o scores.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false, "List the sheets in the store")
	addStoreFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	if err := applyStoreFlags(cmd, cfg); err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	setupLogger(cmd)

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}

	// Validate arguments before opening the store.
	if !list && len(args) == 1 {
		if err := store.ValidateSheetName(args[0]); err != nil {
			return err
		}
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer func() { err = closeAll(err, backend.Close) }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if list || len(args) == 0 {
		return listSheets(ctx, out, backend)
	}

	writer, closeReport, err := newReportWriter(cfg, out)
	if err != nil {
		return err
	}
	defer func() { err = closeAll(err, closeReport) }()

	return showSheet(ctx, writer, backend, args[0])
}

// listSheets prints every sheet of the store with its last update.
func listSheets(ctx context.Context, out io.Writer, backend store.Backend) error {
	sheets, err := backend.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sheets: %w", err)
	}

	if len(sheets) == 0 {
		fmt.Fprintln(out, "No result sheets found in the store.")
		fmt.Fprintln(out, "\nUse 'pagescore run <target-set> <iterations> <sheet>' to record one.")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Sheet", "Updated"})
	for _, s := range sheets {
		tw.AppendRow(table.Row{s.Name, s.UpdatedAt.Local().Format(timeLayout)})
	}
	tw.Render()

	fmt.Fprintln(out, "\nUse 'pagescore history <sheet>' to print a sheet.")
	return nil
}

// timeLayout formats update times in listings.
const timeLayout = "2006-01-02 15:04:05"

// showSheet prints one sheet through writer.
func showSheet(ctx context.Context, writer report.Writer, backend store.Backend, name string) error {
	sheet, err := backend.Open(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrSheetNotFound) {
			return fmt.Errorf("sheet %q not found (use 'pagescore history --list' to see available sheets): %w", name, err)
		}
		return fmt.Errorf("failed to open sheet %q: %w", name, err)
	}
	defer sheet.Close()

	headers, rows, err := store.Snapshot(ctx, sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", name, err)
	}

	_, err = writer.WriteSheet(report.NewSheet(name, headers, rows))
	return err
}

