package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mapwatch/internal/store"
)

func newDetectionsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "detections",
		Short:       "Query recorded detections",
		Annotations: looseConfig(),
	}
	cmd.AddCommand(newDetectionsListCommand(ctx))
	cmd.AddCommand(newDetectionsStatsCommand(ctx))
	cmd.AddCommand(newDetectionsLatestCommand(ctx))
	return cmd
}

func withStore(cmd *cobra.Command, ctx *commandContext, fn func(context.Context, store.Store) error) error {
	cfg, err := ctx.looseConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := store.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open detection store: %w", err)
	}
	defer st.Close()
	return fn(cmd.Context(), st)
}

func newDetectionsListCommand(ctx *commandContext) *cobra.Command {
	var filter store.Filter
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List detections, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, ctx, func(c context.Context, st store.Store) error {
				detections, err := st.List(c, filter)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, detections)
				}
				out := cmd.OutOrStdout()
				if len(detections) == 0 {
					fmt.Fprintln(out, "No detections recorded")
					return nil
				}
				printDetections(out, detections)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.Streamer, "streamer", "", "Only show this streamer")
	cmd.Flags().StringVar(&filter.MapLabel, "map", "", "Only show this map label")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "Maximum rows (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}

func newDetectionsStatsCommand(ctx *commandContext) *cobra.Command {
	var filter store.Filter
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize detections by streamer and map",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, ctx, func(c context.Context, st store.Store) error {
				stats, err := st.Stats(c, filter)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, stats)
				}
				printStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.Streamer, "streamer", "", "Only count this streamer")
	cmd.Flags().StringVar(&filter.MapLabel, "map", "", "Only count this map label")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}

func newDetectionsLatestCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent identified map",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, ctx, func(c context.Context, st store.Store) error {
				d, err := st.Latest(c)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, d)
				}
				if d == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No detections recorded")
					return nil
				}
				printDetections(cmd.OutOrStdout(), []store.Detection{*d})
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}

func printDetections(out io.Writer, detections []store.Detection) {
	rows := make([][]string, 0, len(detections))
	for _, d := range detections {
		rows = append(rows, []string{
			strconv.FormatInt(d.ID, 10),
			d.DetectedAt.Local().Format(time.DateTime),
			d.Streamer,
			d.MapLabel,
			strconv.Itoa(d.Score),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Detected", "Streamer", "Map", "Score"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	))
}

func printStats(out io.Writer, stats store.Stats) {
	fmt.Fprintf(out, "Total detections: %d\n", stats.TotalDetections)
	fmt.Fprintf(out, "Unique maps: %d\n", stats.UniqueMaps)
	fmt.Fprintf(out, "Unique streamers: %d\n", stats.UniqueStreamers)
	if len(stats.TopStreamers) > 0 {
		fmt.Fprintln(out, "\nTop streamers")
		fmt.Fprintln(out, renderTable([]string{"Streamer", "Detections"}, countRows(stats.TopStreamers), []columnAlignment{alignLeft, alignRight}))
	}
	if len(stats.MapFrequency) > 0 {
		fmt.Fprintln(out, "\nMap frequency")
		fmt.Fprintln(out, renderTable([]string{"Map", "Detections"}, countRows(stats.MapFrequency), []columnAlignment{alignLeft, alignRight}))
	}
}

func countRows(counts []store.Count) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Count)})
	}
	return rows
}
