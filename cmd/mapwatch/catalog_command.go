package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mapwatch/internal/mapdetect"
)

func newCatalogCommand() *cobra.Command {
	var labelsOnly bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "catalog",
		Short:       "List the known map objectives",
		Annotations: skipConfig(),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := mapdetect.DefaultCatalog()
			out := cmd.OutOrStdout()
			if labelsOnly {
				if jsonOutput {
					return writeJSON(cmd, catalog.Labels())
				}
				for _, label := range catalog.Labels() {
					fmt.Fprintln(out, label)
				}
				return nil
			}
			entries := catalog.Entries()
			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{strconv.Itoa(e.Index), e.Label, e.Objective})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Map", "Objective"}, rows, []columnAlignment{alignRight}))
			fmt.Fprintf(out, "%d objectives across %d maps\n", len(entries), len(catalog.Labels()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&labelsOnly, "labels", false, "Only print the distinct map labels")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}
