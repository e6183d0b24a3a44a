package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mapwatch/internal/config"
	"mapwatch/internal/daemon"
	"mapwatch/internal/dashboard"
	"mapwatch/internal/logging"
	"mapwatch/internal/poller"
	"mapwatch/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var once bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the roster and record map detections",
		Long: "Polls every roster entry on the configured interval. Streamers live in the\n" +
			"target game get one frame captured and analyzed; the result is stored,\n" +
			"published to enabled sinks and announced via ntfy.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runWatch(cmd, cfg, once, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single poll cycle, print the report and exit")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the --once report as JSON")
	return cmd
}

func runWatch(cmd *cobra.Command, cfg *config.Config, once, jsonOutput bool) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	p, err := buildPipeline(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("build pipeline", logging.Error(err))
		return err
	}
	defer p.Close(logger)

	reportPreflight(signalCtx, cfg, p, logger)

	if once {
		report := p.poller.RunOnce(signalCtx)
		if jsonOutput {
			return writeJSON(cmd, report)
		}
		printCycleReport(cmd.OutOrStdout(), report)
		return nil
	}

	d, err := daemon.New(cfg, p.poller, p.notifier, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return err
	}
	defer d.Stop()

	if cfg.Dashboard.Enabled {
		opts := []dashboard.HandlerOption{dashboard.WithStatus(p.poller)}
		if p.secondaries.Board != nil {
			opts = append(opts, dashboard.WithBoard(p.secondaries.Board))
		}
		srv := dashboard.NewServer(cfg.Dashboard.Bind, dashboard.NewHandler(p.store, cfg.Paths.FramesDir, logger, opts...))
		if err := srv.Start(signalCtx); err != nil {
			logging.WarnWithContext(logger, "dashboard unavailable", "dashboard_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check dashboard.bind or free the port"),
				logging.String(logging.FieldImpact, "detections are recorded but not served over HTTP"),
			)
		}
	}

	<-signalCtx.Done()
	logger.Info("mapwatch shutting down")
	return nil
}

// reportPreflight logs every missing binary and failed readiness check. None
// of them stop the loop: a streamer that cannot be captured is skipped.
func reportPreflight(ctx context.Context, cfg *config.Config, p *pipeline, logger *slog.Logger) {
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if status.Satisfied() {
			continue
		}
		logging.WarnWithContext(logger, "dependency missing", "dependency_missing",
			logging.String("dependency", status.Name),
			logging.String("command", status.Command),
			logging.String("detail", status.Detail),
			logging.String(logging.FieldErrorHint, status.Description),
			logging.String(logging.FieldImpact, "captures or OCR will fail until it is installed"),
		)
	}
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg, p.twitch)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run 'mapwatch deps' for details"),
		)
	}
}

func printCycleReport(out io.Writer, report poller.CycleReport) {
	rows := make([][]string, 0, len(report.Streamers))
	for _, r := range report.Streamers {
		label, score := "", ""
		if r.Detection != nil {
			label = r.Detection.MapLabel
			score = strconv.Itoa(r.Detection.Score)
		}
		rows = append(rows, []string{r.Streamer, string(r.State), string(r.Outcome), label, score, r.Error})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Streamer", "State", "Outcome", "Map", "Score", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Cycle %s: %d checked, %d live in target game, %d detections in %s\n",
		report.ID,
		len(report.Streamers),
		report.CountState(poller.StateLiveTargetGame),
		report.CountOutcome(poller.OutcomeDetected),
		report.Duration().Round(time.Millisecond),
	)
}
