package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mapwatch/internal/mapdetect"
)

func newScoreCommand() *cobra.Command {
	var jsonOutput bool
	var gate bool
	var top int
	var explain bool

	cmd := &cobra.Command{
		Use:   "score TEXT...",
		Short: "Score raw text against the objective catalog",
		Long: "Treats every argument as an OCR phrase read with confidence 100 and prints\n" +
			"the catalog ranking. With --gate the default confidence gate is applied,\n" +
			"so fewer than three phrases yield Unknown Map.",
		Args:        cobra.MinimumNArgs(1),
		Annotations: skipConfig(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTop(top); err != nil {
				return err
			}
			phrases := make([]mapdetect.Phrase, 0, len(args))
			for _, arg := range args {
				if text := strings.TrimSpace(arg); text != "" {
					phrases = append(phrases, mapdetect.Phrase{Text: text, Confidence: 100})
				}
			}
			result := scorePhrases(phrases, gate)
			var entries []mapdetect.EntryScore
			if explain {
				entries = explainPhrases(phrases)
			}
			if jsonOutput {
				if explain {
					return writeJSON(cmd, scoreExplanation{Result: result, Entries: entries})
				}
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tokens: %s\n", strings.Join(result.Tokens, " "))
			printMatches(out, result.Best, result.Top(top))
			if explain {
				fmt.Fprintln(out)
				printExplanation(out, entries)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&gate, "gate", false, "Apply the confidence gate before scoring")
	cmd.Flags().IntVar(&top, "top", 5, "Number of ranked matches to show")
	cmd.Flags().BoolVar(&explain, "explain", false, "Show per-objective word and keyword counts")
	return cmd
}

type scoreExplanation struct {
	mapdetect.Result
	Entries []mapdetect.EntryScore `json:"entries"`
}

// explainPhrases returns the breakdown of every objective sharing at least one token.
func explainPhrases(phrases []mapdetect.Phrase) []mapdetect.EntryScore {
	all := mapdetect.NewScorer(nil).Explain(mapdetect.Normalize(phrases))
	entries := make([]mapdetect.EntryScore, 0, len(all))
	for _, e := range all {
		if e.WordsMatched > 0 {
			entries = append(entries, e)
		}
	}
	return entries
}

func printExplanation(out io.Writer, entries []mapdetect.EntryScore) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No objective shares a token with the input")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		score := "-"
		if e.Qualified {
			score = strconv.Itoa(e.Score)
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Index),
			e.Objective,
			e.Label,
			strconv.Itoa(e.WordsMatched),
			strconv.Itoa(e.HighValue),
			strconv.Itoa(e.SuperHighValue),
			score,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Objective", "Map", "Words", "High", "Super", "Score"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
}

func scorePhrases(phrases []mapdetect.Phrase, gate bool) mapdetect.Result {
	detector := mapdetect.NewDetector(nil, mapdetect.DefaultThresholds())
	if gate {
		return detector.Detect(phrases)
	}
	tokens := mapdetect.Normalize(phrases)
	matches := detector.Scorer().Score(tokens)
	return mapdetect.Result{
		Best:           mapdetect.BestLabel(matches),
		Matches:        matches,
		Kept:           phrases,
		Tokens:         tokens.Sorted(),
		HighConfidence: len(phrases),
	}
}
