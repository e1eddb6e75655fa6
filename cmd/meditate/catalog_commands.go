package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"meditate/internal/catalog"
	"meditate/internal/script"
)

var seasonTitle = cases.Title(language.English)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the herb catalog",
	}

	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))

	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var season string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.ensureCatalog()
			if err != nil {
				return err
			}

			entries := cat.Entries()
			if strings.TrimSpace(season) != "" {
				parsed, err := catalog.ParseSeason(season)
				if err != nil {
					return err
				}
				entries = cat.BySeason(parsed)
			}

			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No catalog entries")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					fmt.Sprintf("%02d", e.ID),
					e.Name,
					e.Slug,
					seasonTitle.String(e.Season.String()),
					e.Effect,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Slug", "Season", "Effect"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&season, "season", "", "Filter by season (spring, summer, autumn, winter)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

type scriptView struct {
	Entry            catalog.Entry    `json:"entry"`
	Segments         []script.Segment `json:"segments"`
	SpeechCharacters int              `json:"speech_characters"`
	PauseSeconds     float64          `json:"pause_seconds"`
	EstimatedSeconds float64          `json:"estimated_seconds"`
	FileName         string           `json:"file_name"`
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id|name|slug>",
		Short: "Show an entry and the script rendered for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cat, err := ctx.ensureCatalog()
			if err != nil {
				return err
			}

			entry, ok := cat.Lookup(args[0])
			if !ok {
				return fmt.Errorf("no catalog entry matches %q", args[0])
			}
			sc, err := script.Build(entry)
			if err != nil {
				return err
			}

			view := scriptView{
				Entry:            entry,
				Segments:         sc.Segments,
				SpeechCharacters: sc.SpeechCharacters(),
				PauseSeconds:     sc.PauseSeconds(),
				EstimatedSeconds: sc.EstimatedDuration(cfg.TTS.SecondsPerChar),
				FileName:         entry.FileName(cfg.Audio.Format),
			}
			if jsonOutput {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader(entry.Label(), colorize)
			lines = append(lines,
				renderStatusLine("Season", statusInfo, seasonTitle.String(entry.Season.String()), colorize),
				renderStatusLine("Effect", statusInfo, entry.Effect, colorize),
				renderStatusLine("Output", statusInfo, view.FileName, colorize),
				renderStatusLine("Estimated length", statusInfo, fmt.Sprintf("%s (%d chars, %s of pauses)",
					formatSeconds(view.EstimatedSeconds), view.SpeechCharacters, formatSeconds(view.PauseSeconds)), colorize),
			)
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			rows := make([][]string, 0, len(sc.Segments))
			for i, seg := range sc.Segments {
				text := seg.Text
				if text == "" {
					text = "(silence)"
				}
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), text, formatPause(seg.Pause)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Narration", "Pause"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func formatPause(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%gs", seconds)
}
