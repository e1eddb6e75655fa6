package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"meditate/internal/batch"
	"meditate/internal/catalog"
	"meditate/internal/history"
	"meditate/internal/logging"
	"meditate/internal/preflight"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var start, end int
	var name string
	var jsonOutput bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render meditation tracks for an id range or a single herb name",
		Example: `  meditate render                    # every catalog entry
  meditate render --start 5 --end 8
  meditate render --name 薄荷`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cat, err := ctx.ensureCatalog()
			if err != nil {
				return err
			}

			sel, err := selectionFromFlags(cmd, cat, start, end, name)
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire render lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another render is already running (lock %s)", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !skipPreflight {
				if failed := preflight.Failed(preflight.RunAll(runCtx, cfg)); len(failed) > 0 {
					return preflightError(failed)
				}
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			deps := batch.Dependencies{Observer: newProgressObserver(cmd.ErrOrStderr())}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				logging.WarnWithContext(logger, "render history unavailable", "history_unavailable",
					logging.String("path", cfg.HistoryPath()),
					logging.Error(err),
					logging.String(logging.FieldImpact, "results of this run are not recorded"),
				)
			} else {
				defer store.Close()
				deps.History = store
			}

			summary := batch.New(cfg, cat, deps, logger).Run(runCtx, sel)

			if jsonOutput {
				if err := writeJSON(cmd, newSummaryView(summary)); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
			}
			return summaryError(runCtx, summary)
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "First catalog id to render (default: first entry)")
	cmd.Flags().IntVar(&end, "end", 0, "Last catalog id to render (default: last entry)")
	cmd.Flags().StringVar(&name, "name", "", "Render only the entry with this display name")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run summary as JSON")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory and binary checks")
	cmd.MarkFlagsMutuallyExclusive("name", "start")
	cmd.MarkFlagsMutuallyExclusive("name", "end")
	return cmd
}

// selectionFromFlags resolves the run selection. Unset range bounds fall
// back to the catalog's own bounds.
func selectionFromFlags(cmd *cobra.Command, cat *catalog.Catalog, start, end int, name string) (catalog.Selection, error) {
	if cmd.Flags().Changed("name") {
		if strings.TrimSpace(name) == "" {
			return catalog.Selection{}, errors.New("--name must not be empty")
		}
		return catalog.NameSelection(name), nil
	}
	first, last := cat.Bounds()
	if !cmd.Flags().Changed("start") {
		start = first
	}
	if !cmd.Flags().Changed("end") {
		end = last
	}
	return catalog.RangeSelection(start, end), nil
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed (run `meditate deps` for details): %s", strings.Join(parts, "; "))
}

// summaryError maps a finished run onto the process exit status. A name
// that matched nothing exits cleanly.
func summaryError(ctx context.Context, summary batch.Summary) error {
	if summary.Err != nil {
		return summary.Err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("render interrupted: %w", err)
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d of %d entries failed", summary.Failed, summary.Requested)
	}
	return nil
}
