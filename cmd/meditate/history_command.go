package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"meditate/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var latest bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent render results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			var records []history.Record
			if latest {
				records, err = latestSuccesses(cmd.Context(), store)
			} else {
				records, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				if records == nil {
					records = []history.Record{}
				}
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No renders recorded yet in %s\n", store.Path())
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				detail := filepath.Base(rec.OutputPath)
				if rec.Status != history.StatusSucceeded {
					detail = rec.ErrorKind
				}
				length := rec.MeasuredSeconds
				if length <= 0 {
					length = rec.EstimatedSeconds
				}
				rows = append(rows, []string{
					rec.FinishedAt.Local().Format(time.DateTime),
					fmt.Sprintf("%02d", rec.EntryID),
					rec.EntryName,
					rec.Status,
					formatSeconds(length),
					rec.FadeOutcome,
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Finished", "ID", "Name", "Status", "Length", "Fade", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results to list")
	cmd.Flags().BoolVar(&latest, "latest", false, "Show the newest successful render of each entry")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// latestSuccesses returns the newest successful record per entry, by entry id.
func latestSuccesses(ctx context.Context, store *history.Store) ([]history.Record, error) {
	byEntry, err := store.LastSuccess(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]history.Record, 0, len(byEntry))
	for _, rec := range byEntry {
		records = append(records, rec)
	}
	slices.SortFunc(records, func(a, b history.Record) int { return a.EntryID - b.EntryID })
	return records, nil
}
