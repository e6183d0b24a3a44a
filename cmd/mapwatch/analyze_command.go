package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mapwatch/internal/config"
	"mapwatch/internal/frame"
	"mapwatch/internal/mapdetect"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var top int

	cmd := &cobra.Command{
		Use:         "analyze FRAME",
		Short:       "Run OCR and map scoring on a saved frame",
		Args:        cobra.ExactArgs(1),
		Annotations: looseConfig(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTop(top); err != nil {
				return err
			}
			cfg, err := ctx.looseConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			analyzer, err := newAnalyzer(cfg)
			if err != nil {
				return err
			}
			analysis, err := analyzer.Analyze(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", path, err)
			}
			if jsonOutput {
				return writeJSON(cmd, analysis)
			}
			printAnalysis(cmd.OutOrStdout(), analysis, top)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the analysis as JSON")
	cmd.Flags().IntVar(&top, "top", 5, "Number of ranked matches to show")
	return cmd
}

func printAnalysis(out io.Writer, a frame.Analysis, top int) {
	fmt.Fprintf(out, "Frame: %s (%dx%d)\n", a.FramePath, a.Width, a.Height)
	fmt.Fprintf(out, "Phrases: %d read, %d kept, %d high confidence\n", len(a.Phrases), len(a.Kept), a.HighConfidence)
	if len(a.Kept) > 0 {
		texts := make([]string, 0, len(a.Kept))
		for _, p := range a.Kept {
			texts = append(texts, p.Text)
		}
		fmt.Fprintf(out, "Text: %s\n", strings.Join(texts, " "))
	}
	if a.Gated {
		fmt.Fprintln(out, "Not enough confident text to score")
	}
	printMatches(out, a.Best, a.Top(top))
}

func validateTop(top int) error {
	if top < 1 {
		return fmt.Errorf("--top must be at least 1, got %d", top)
	}
	return nil
}

func printMatches(out io.Writer, best string, matches []mapdetect.ScoredMatch) {
	fmt.Fprintf(out, "Best: %s\n", best)
	rows := make([][]string, 0, len(matches))
	for i, m := range matches {
		rows = append(rows, []string{strconv.Itoa(i + 1), m.Label, strconv.Itoa(m.Score)})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Map", "Score"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
}
