package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mapwatch/internal/config"
	"mapwatch/internal/frame"
	"mapwatch/internal/logging"
	"mapwatch/internal/mapdetect"
	"mapwatch/internal/notifications"
	"mapwatch/internal/poller"
	"mapwatch/internal/services/capture"
	"mapwatch/internal/services/tesseract"
	"mapwatch/internal/services/twitch"
	"mapwatch/internal/sinks"
	"mapwatch/internal/store"
)

// pipeline holds every collaborator the watch loop needs.
type pipeline struct {
	store       store.Store
	secondaries sinks.Secondaries
	fanout      *sinks.Fanout
	twitch      *twitch.Client
	capturer    capture.Capturer
	analyzer    *frame.Analyzer
	notifier    notifications.Service
	poller      *poller.Poller
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func newDetector(cfg *config.Config) (*mapdetect.Detector, error) {
	thresholds := mapdetect.Thresholds{
		Confidence:     cfg.Detection.ConfidenceThreshold,
		HighConfidence: cfg.Detection.HighConfidence,
		MinWords:       cfg.Detection.MinWords,
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("detection thresholds: %w", err)
	}
	return mapdetect.NewDetector(nil, thresholds), nil
}

func newAnalyzer(cfg *config.Config) (*frame.Analyzer, error) {
	detector, err := newDetector(cfg)
	if err != nil {
		return nil, err
	}
	ocr, err := tesseract.New(cfg.OCR.Binary, cfg.OCR.Language, cfg.OCR.PageSegMode, seconds(cfg.OCR.Timeout))
	if err != nil {
		return nil, fmt.Errorf("ocr engine: %w", err)
	}
	region := frame.Region{
		Top:    cfg.Detection.RegionTop,
		Bottom: cfg.Detection.RegionBottom,
		Left:   cfg.Detection.RegionLeft,
		Right:  cfg.Detection.RegionRight,
	}
	return frame.NewAnalyzer(ocr, detector, frame.WithRegion(region), frame.WithUpscale(cfg.OCR.Upscale))
}

func newCapturer(cfg *config.Config) (capture.Capturer, error) {
	if cfg.Capture.Backend == config.CaptureBackendBrowser {
		return capture.NewBrowser(capture.BrowserConfig{
			Binary:            cfg.Capture.BrowserBinary,
			StreamURLTemplate: cfg.Capture.StreamURLTemplate,
			Timeout:           seconds(cfg.Capture.Timeout),
			SettleDelay:       seconds(cfg.Capture.BrowserSettleDelay),
		}), nil
	}
	return capture.NewCLI(capture.CLIConfig{
		StreamlinkBinary:  cfg.Capture.StreamlinkBinary,
		FFmpegBinary:      cfg.Capture.FFmpegBinary,
		StreamURLTemplate: cfg.Capture.StreamURLTemplate,
		Quality:           cfg.Capture.Quality,
		Timeout:           seconds(cfg.Capture.Timeout),
	})
}

func newTwitchClient(cfg *config.Config) (*twitch.Client, error) {
	return twitch.New(cfg.Twitch.APIBaseURL, cfg.Twitch.ClientID, cfg.Twitch.OAuthToken, seconds(cfg.Twitch.RequestTimeout))
}

// buildPipeline wires storage, sinks, collaborators and the poller. The
// caller must Close the returned pipeline.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	p := &pipeline{notifier: notifications.NewService(cfg)}

	var err error
	if p.store, err = store.Open(ctx, cfg); err != nil {
		return nil, fmt.Errorf("open detection store: %w", err)
	}
	p.secondaries = sinks.OpenSecondaries(ctx, cfg, logger)
	p.fanout = sinks.NewFanout(p.store, logger, p.secondaries.Publishers...)
	logger.Info("detection sinks ready",
		logging.String("store", cfg.Storage.Driver),
		logging.Strings("secondary_sinks", p.fanout.Names()),
	)

	if p.twitch, err = newTwitchClient(cfg); err != nil {
		p.Close(logger)
		return nil, fmt.Errorf("twitch client: %w", err)
	}
	if p.capturer, err = newCapturer(cfg); err != nil {
		p.Close(logger)
		return nil, fmt.Errorf("frame capture: %w", err)
	}
	if p.analyzer, err = newAnalyzer(cfg); err != nil {
		p.Close(logger)
		return nil, err
	}

	p.poller, err = poller.New(poller.Options{
		Roster:      cfg.Streamers(),
		TargetGame:  cfg.Twitch.TargetGame,
		FramesDir:   cfg.Paths.FramesDir,
		Interval:    seconds(cfg.Workflow.CheckInterval),
		MaxParallel: cfg.Workflow.MaxParallel,
	}, poller.Deps{
		Oracle:    p.twitch,
		Capturer:  p.capturer,
		Analyzer:  p.analyzer,
		Persister: p.fanout,
		Notifier:  p.notifier,
	}, logger)
	if err != nil {
		p.Close(logger)
		return nil, err
	}
	return p, nil
}

// Close releases the capture backend, the secondary sinks and the store.
func (p *pipeline) Close(logger *slog.Logger) {
	if closer, ok := p.capturer.(capture.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Debug("close capture backend", logging.Error(err))
		}
	}
	if p.fanout != nil {
		if err := p.fanout.Close(); err != nil {
			logger.Debug("close sinks", logging.Error(err))
		}
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			logger.Debug("close detection store", logging.Error(err))
		}
	}
}
