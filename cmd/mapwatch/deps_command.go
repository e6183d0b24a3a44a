package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mapwatch/internal/deps"
	"mapwatch/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:         "deps",
		Short:       "Check external binaries and service readiness",
		Annotations: looseConfig(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.looseConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()

			statuses := preflight.CheckSystemDeps(cfg)
			printDependencies(out, statuses)

			var checker preflight.CredentialChecker
			if remote {
				client, err := newTwitchClient(cfg)
				if err != nil {
					return fmt.Errorf("twitch client: %w", err)
				}
				checker = client
			}
			results := preflight.RunAll(cmd.Context(), cfg, checker)
			fmt.Fprintln(out)
			printPreflight(out, results)

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return errors.New("one or more readiness checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also verify the Twitch credentials")
	return cmd
}

func printDependencies(out io.Writer, statuses []deps.Status) {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "ok"
		switch {
		case !s.Available && s.Optional:
			state = "optional"
		case !s.Available:
			state = "missing"
		}
		location := s.Path
		if location == "" {
			location = s.Detail
		}
		rows = append(rows, []string{s.Name, state, location, s.Description})
	}
	fmt.Fprintln(out, renderTable([]string{"Dependency", "Status", "Location", "Purpose"}, rows, nil))
}

func printPreflight(out io.Writer, results []preflight.Result) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Check", "Passed", "Detail"}, rows, nil))
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
