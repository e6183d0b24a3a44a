package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mapwatch/internal/frame"
	"mapwatch/internal/logging"
	"mapwatch/internal/mapdetect"
	"mapwatch/internal/notifications"
	"mapwatch/internal/services"
	"mapwatch/internal/services/capture"
	"mapwatch/internal/services/twitch"
	"mapwatch/internal/sinks"
	"mapwatch/internal/store"
	"mapwatch/internal/textutil"
)

const (
	defaultInterval  = 5 * time.Second
	persistTimeout   = 30 * time.Second
	topMatchesLogged = 3

	fieldRetryable = "retryable"
)

// Analyzer turns a frame on disk into a detection result.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (frame.Analysis, error)
}

// Options are the loop settings.
type Options struct {
	Roster      []string
	TargetGame  string
	FramesDir   string
	Interval    time.Duration
	MaxParallel int
}

// Deps are the collaborators the loop drives.
type Deps struct {
	Oracle    twitch.Oracle
	Capturer  capture.Capturer
	Analyzer  Analyzer
	Persister sinks.Persister
	Notifier  notifications.Service
}

// Option tweaks construction (primarily for tests).
type Option func(*Poller)

// WithClock overrides the time source used for capture timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides cycle id generation.
func WithIDGenerator(gen func() string) Option {
	return func(p *Poller) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// Poller drives the watch loop.
type Poller struct {
	opts   Options
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu     sync.RWMutex
	last   *CycleReport
	cycles int64
}

// New validates options and builds a poller.
func New(opts Options, deps Deps, logger *slog.Logger, extra ...Option) (*Poller, error) {
	roster := make([]string, 0, len(opts.Roster))
	for _, s := range opts.Roster {
		if s = strings.TrimSpace(s); s != "" {
			roster = append(roster, s)
		}
	}
	if len(roster) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "poller", "init", "roster is empty", nil)
	}
	opts.Roster = roster
	if strings.TrimSpace(opts.TargetGame) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "poller", "init", "target game is required", nil)
	}
	if strings.TrimSpace(opts.FramesDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "poller", "init", "frames directory is required", nil)
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	switch {
	case deps.Oracle == nil:
		return nil, errors.New("liveness oracle required")
	case deps.Capturer == nil:
		return nil, errors.New("frame capturer required")
	case deps.Analyzer == nil:
		return nil, errors.New("frame analyzer required")
	case deps.Persister == nil:
		return nil, errors.New("detection persister required")
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}
	p := &Poller{
		opts:   opts,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "poller"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range extra {
		opt(p)
	}
	return p, nil
}

// Roster returns the streamers in polling order.
func (p *Poller) Roster() []string {
	return append([]string(nil), p.opts.Roster...)
}

// LastCycle returns the most recent completed cycle report.
func (p *Poller) LastCycle() (CycleReport, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return CycleReport{}, false
	}
	return *p.last, true
}

// Cycles returns the number of completed cycles.
func (p *Poller) Cycles() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cycles
}

// Run executes cycles until ctx is cancelled. The wait between cycles is the
// configured interval, measured from the end of the previous cycle.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("watch loop started",
		logging.Int("streamers", len(p.opts.Roster)),
		logging.Duration("interval", p.opts.Interval),
		logging.Int("max_parallel", p.opts.MaxParallel),
		logging.String("target_game", p.opts.TargetGame),
	)
	for {
		if ctx.Err() != nil {
			p.logger.Info("watch loop stopped", logging.Int64("cycles", p.Cycles()))
			return nil
		}
		p.RunOnce(ctx)
		select {
		case <-ctx.Done():
			p.logger.Info("watch loop stopped", logging.Int64("cycles", p.Cycles()))
			return nil
		case <-time.After(p.opts.Interval):
		}
	}
}

// RunOnce runs exactly one cycle over the roster and returns its report.
func (p *Poller) RunOnce(ctx context.Context) CycleReport {
	report := CycleReport{ID: p.newID(), StartedAt: p.now().UTC()}
	ctx = services.WithCycleID(ctx, report.ID)

	results := make([]*StreamerReport, len(p.opts.Roster))
	sem := make(chan struct{}, p.opts.MaxParallel)
	var wg sync.WaitGroup

schedule:
	for i, streamer := range p.opts.Roster {
		select {
		case <-ctx.Done():
			report.Cancelled = true
			break schedule
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-sem
			report.Cancelled = true
			break
		}
		wg.Add(1)
		go func(i int, streamer string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.processStreamer(ctx, streamer)
		}(i, streamer)
	}
	wg.Wait()

	for _, r := range results {
		if r != nil {
			report.Streamers = append(report.Streamers, *r)
		}
	}
	report.FinishedAt = p.now().UTC()

	p.mu.Lock()
	p.last = &report
	p.cycles++
	p.mu.Unlock()

	logging.WithContext(ctx, p.logger).Debug("cycle complete",
		logging.Int("checked", len(report.Streamers)),
		logging.Int("live_target_game", report.CountState(StateLiveTargetGame)),
		logging.Int("detections", report.CountOutcome(OutcomeDetected)),
		logging.Duration("duration", report.Duration()),
		logging.Bool("cancelled", report.Cancelled),
	)
	return report
}

func (p *Poller) processStreamer(ctx context.Context, streamer string) *StreamerReport {
	ctx = services.WithStreamer(ctx, streamer)
	logger := logging.WithContext(ctx, p.logger)
	report := &StreamerReport{Streamer: streamer, State: StateOffline, Outcome: OutcomeSkipped}

	status, err := p.deps.Oracle.Stream(services.WithStage(ctx, "liveness"), streamer)
	if err != nil {
		logging.WarnWithContext(logger, "liveness check failed; treating as offline", services.EventType(err),
			logging.Error(err),
			logging.Bool(fieldRetryable, services.Retryable(err)),
			logging.String(logging.FieldErrorHint, "check twitch credentials and connectivity"),
			logging.String(logging.FieldImpact, "streamer skipped this cycle"),
		)
		report.fail(OutcomeOracleFailed, err)
		return report
	}
	report.GameName = status.GameName
	if !status.Live {
		logger.Info("streamer offline")
		return report
	}
	if !status.Playing(p.opts.TargetGame) {
		report.State = StateLiveWrongGame
		logger.Info("streamer live with another game", logging.String("game", status.GameName))
		return report
	}
	report.State = StateLiveTargetGame
	logger.Info("streamer live with target game", logging.String("game", status.GameName))

	// In-flight work is not cut short by shutdown; collaborators bound it.
	work := context.WithoutCancel(ctx)
	p.detect(work, report)
	return report
}

func (p *Poller) detect(ctx context.Context, report *StreamerReport) {
	streamer := report.Streamer
	capturedAt := p.now().UTC()
	framePath := filepath.Join(p.opts.FramesDir, textutil.FrameFileName(streamer, capturedAt))

	captureCtx := services.WithStage(ctx, "capture")
	logger := logging.WithContext(captureCtx, p.logger)
	if err := p.deps.Capturer.Capture(captureCtx, streamer, framePath); err != nil {
		logging.ErrorWithContext(logger, "frame capture failed", services.EventType(err),
			logging.Error(err),
			logging.Bool(fieldRetryable, services.Retryable(err)),
			logging.String(logging.FieldErrorHint, "check streamlink/ffmpeg or browser availability"),
		)
		report.fail(OutcomeCaptureFailed, err)
		p.notify(ctx, notifications.EventCaptureFailed, notifications.Payload{
			"context": "capture", "streamer": streamer, "error": err,
		})
		return
	}
	logger.Debug("frame captured", logging.String("frame", framePath))

	analyzeCtx := services.WithStage(ctx, "analyze")
	logger = logging.WithContext(analyzeCtx, p.logger)
	analysis, err := p.deps.Analyzer.Analyze(analyzeCtx, framePath)
	switch {
	case errors.Is(err, frame.ErrImageRead):
		logging.WarnWithContext(logger, "captured frame unreadable; recording unknown map", services.EventType(err),
			logging.String("frame", framePath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the captured frame"),
			logging.String(logging.FieldImpact, "detection recorded as Unknown Map"),
		)
		analysis.Result = mapdetect.Result{Best: mapdetect.UnknownMap, Matches: mapdetect.Sentinel()}
	case err != nil:
		logging.ErrorWithContext(logger, "frame analysis failed", services.EventType(err),
			logging.String("frame", framePath),
			logging.Error(err),
			logging.Bool(fieldRetryable, services.Retryable(err)),
			logging.String(logging.FieldErrorHint, "check the tesseract installation"),
		)
		report.fail(OutcomeAnalyzeFailed, err)
		return
	}
	report.Matches = analysis.Matches
	logger.Info("frame analyzed",
		logging.Any("phrases", phraseTexts(analysis.Kept)),
		logging.Any("top_matches", analysis.Top(topMatchesLogged)),
		logging.Bool("gated", analysis.Gated),
	)

	detection := &store.Detection{
		Streamer:   streamer,
		DetectedAt: capturedAt,
		MapLabel:   analysis.Best,
		FramePath:  framePath,
		Score:      topScore(analysis.Matches),
	}
	persistCtx, cancel := context.WithTimeout(services.WithStage(ctx, "persist"), persistTimeout)
	defer cancel()
	if err := p.deps.Persister.Persist(persistCtx, detection); err != nil {
		logging.ErrorWithContext(logging.WithContext(persistCtx, p.logger), "detection persist failed", services.EventType(err),
			logging.String("map", detection.MapLabel),
			logging.Error(err),
			logging.Bool(fieldRetryable, services.Retryable(err)),
			logging.String(logging.FieldErrorHint, "check the storage configuration"),
		)
		report.fail(OutcomePersistFailed, err)
		return
	}
	report.Outcome = OutcomeDetected
	report.Detection = detection
	logger.Info("map detected",
		logging.String("map", detection.MapLabel),
		logging.Int("score", detection.Score),
		logging.Int64("detection_id", detection.ID),
	)

	event := notifications.EventMapDetected
	if !detection.Known() {
		event = notifications.EventUnknownMap
	}
	p.notify(ctx, event, notifications.Payload{
		"streamer": streamer, "map": detection.MapLabel, "score": detection.Score,
	})
}

func (p *Poller) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := p.deps.Notifier.Publish(ctx, event, payload); err != nil {
		p.logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}

func phraseTexts(phrases []mapdetect.Phrase) []string {
	out := make([]string, 0, len(phrases))
	for _, ph := range phrases {
		out = append(out, fmt.Sprintf("%s(%d)", ph.Text, ph.Confidence))
	}
	return out
}

func topScore(matches []mapdetect.ScoredMatch) int {
	if len(matches) == 0 {
		return 0
	}
	return matches[0].Score
}
