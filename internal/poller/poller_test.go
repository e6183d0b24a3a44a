package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mapwatch/internal/frame"
	"mapwatch/internal/logging"
	"mapwatch/internal/mapdetect"
	"mapwatch/internal/notifications"
	"mapwatch/internal/services"
	"mapwatch/internal/services/twitch"
	"mapwatch/internal/store"
)

type stubOracle struct {
	mu       sync.Mutex
	statuses map[string]twitch.StreamStatus
	errs     map[string]error
	calls    []string
	onCall   func(login string)
}

func (s *stubOracle) Stream(_ context.Context, login string) (twitch.StreamStatus, error) {
	s.mu.Lock()
	s.calls = append(s.calls, login)
	onCall := s.onCall
	s.mu.Unlock()
	if onCall != nil {
		onCall(login)
	}
	if err := s.errs[login]; err != nil {
		return twitch.StreamStatus{Login: login}, err
	}
	return s.statuses[login], nil
}

type stubCapturer struct {
	mu    sync.Mutex
	errs  map[string]error
	paths []string
	hook  func(ctx context.Context)
}

func (s *stubCapturer) Capture(ctx context.Context, streamer, destPath string) error {
	if s.hook != nil {
		s.hook(ctx)
	}
	s.mu.Lock()
	s.paths = append(s.paths, destPath)
	s.mu.Unlock()
	return s.errs[streamer]
}

type stubAnalyzer struct {
	analysis frame.Analysis
	err      error
}

func (s *stubAnalyzer) Analyze(_ context.Context, path string) (frame.Analysis, error) {
	a := s.analysis
	a.FramePath = path
	return a, s.err
}

type stubPersister struct {
	mu     sync.Mutex
	err    error
	stored []store.Detection
}

func (s *stubPersister) Persist(_ context.Context, d *store.Detection) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = int64(len(s.stored) + 1)
	s.stored = append(s.stored, *d)
	return nil
}

type stubNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

var fixedNow = time.Date(2025, 3, 1, 18, 4, 5, 0, time.UTC)

func live(game string) twitch.StreamStatus {
	return twitch.StreamStatus{Live: true, GameName: game}
}

func identified() frame.Analysis {
	return frame.Analysis{Result: mapdetect.Result{
		Best:    "Royale Palace Bifrost Garden",
		Matches: []mapdetect.ScoredMatch{{Label: "Royale Palace Bifrost Garden", Score: 130}, {Label: "Hellfire Gala Krakoa", Score: 65}},
		Kept:    []mapdetect.Phrase{{Text: "Capture", Confidence: 91}},
	}}
}

type fixture struct {
	oracle    *stubOracle
	capturer  *stubCapturer
	analyzer  *stubAnalyzer
	persister *stubPersister
	notifier  *stubNotifier
	framesDir string
	logger    *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		oracle:    &stubOracle{statuses: map[string]twitch.StreamStatus{}, errs: map[string]error{}},
		capturer:  &stubCapturer{errs: map[string]error{}},
		analyzer:  &stubAnalyzer{analysis: identified()},
		persister: &stubPersister{},
		notifier:  &stubNotifier{},
		framesDir: t.TempDir(),
	}
}

func (f *fixture) poller(t *testing.T, roster []string, parallel int) *Poller {
	t.Helper()
	logger := f.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	p, err := New(Options{
		Roster:      roster,
		TargetGame:  "Marvel Rivals",
		FramesDir:   f.framesDir,
		Interval:    10 * time.Millisecond,
		MaxParallel: parallel,
	}, Deps{
		Oracle:    f.oracle,
		Capturer:  f.capturer,
		Analyzer:  f.analyzer,
		Persister: f.persister,
		Notifier:  f.notifier,
	}, logger, WithClock(func() time.Time { return fixedNow }), WithIDGenerator(func() string { return "cycle-1" }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestRunOnceClassifiesRoster(t *testing.T) {
	f := newFixture(t)
	f.oracle.statuses["offline"] = twitch.StreamStatus{}
	f.oracle.statuses["other"] = live("Overwatch 2")
	f.oracle.statuses["Rivals_Player"] = live("marvel rivals")
	f.oracle.errs["flaky"] = services.Wrap(services.ErrTransient, "twitch", "streams", "503", nil)

	p := f.poller(t, []string{"offline", "other", "Rivals_Player", "flaky"}, 1)
	report := p.RunOnce(context.Background())

	if report.ID != "cycle-1" || len(report.Streamers) != 4 {
		t.Fatalf("unexpected report: %+v", report)
	}
	wantStates := []State{StateOffline, StateLiveWrongGame, StateLiveTargetGame, StateOffline}
	wantOutcomes := []Outcome{OutcomeSkipped, OutcomeSkipped, OutcomeDetected, OutcomeOracleFailed}
	for i, r := range report.Streamers {
		if r.State != wantStates[i] || r.Outcome != wantOutcomes[i] {
			t.Fatalf("streamer %d (%s): state=%s outcome=%s", i, r.Streamer, r.State, r.Outcome)
		}
	}

	if len(f.persister.stored) != 1 {
		t.Fatalf("expected one detection, got %+v", f.persister.stored)
	}
	d := f.persister.stored[0]
	wantPath := filepath.Join(f.framesDir, "rivals_player_2025-03-01_18-04-05.png")
	if d.Streamer != "Rivals_Player" || d.MapLabel != "Royale Palace Bifrost Garden" || d.Score != 130 || d.FramePath != wantPath || !d.DetectedAt.Equal(fixedNow) {
		t.Fatalf("unexpected detection: %+v", d)
	}
	if got := report.Detections(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("report detections = %+v", got)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0] != notifications.EventMapDetected {
		t.Fatalf("notifier events = %v", f.notifier.events)
	}
	if last, ok := p.LastCycle(); !ok || last.ID != "cycle-1" || p.Cycles() != 1 {
		t.Fatalf("last cycle not recorded: %+v", last)
	}
}

func TestCaptureFailureSkipsStreamerOnly(t *testing.T) {
	f := newFixture(t)
	f.oracle.statuses["a"] = live("Marvel Rivals")
	f.oracle.statuses["b"] = live("Marvel Rivals")
	f.capturer.errs["a"] = services.Wrap(services.ErrExternalTool, "capture", "streamlink", "exit 1", nil)

	report := f.poller(t, []string{"a", "b"}, 1).RunOnce(context.Background())

	if report.Streamers[0].Outcome != OutcomeCaptureFailed || !errors.Is(report.Streamers[0].Err, services.ErrExternalTool) {
		t.Fatalf("unexpected first report: %+v", report.Streamers[0])
	}
	if !report.Streamers[0].Retryable {
		t.Fatalf("capture tool failures should be retryable: %+v", report.Streamers[0])
	}
	if report.Streamers[1].Outcome != OutcomeDetected {
		t.Fatalf("second streamer should still be processed: %+v", report.Streamers[1])
	}
	if len(f.persister.stored) != 1 || f.persister.stored[0].Streamer != "b" {
		t.Fatalf("unexpected persisted rows: %+v", f.persister.stored)
	}
	if f.notifier.events[0] != notifications.EventCaptureFailed {
		t.Fatalf("expected capture failure notification, got %v", f.notifier.events)
	}
}

func TestUnreadableFrameStillPersistsUnknownMap(t *testing.T) {
	f := newFixture(t)
	f.oracle.statuses["a"] = live("Marvel Rivals")
	f.analyzer.err = services.Wrap(services.ErrValidation, "frame", "decode", "x", frame.ErrImageRead)
	f.analyzer.analysis = frame.Analysis{}

	report := f.poller(t, []string{"a"}, 1).RunOnce(context.Background())

	if report.Streamers[0].Outcome != OutcomeDetected {
		t.Fatalf("unexpected outcome: %+v", report.Streamers[0])
	}
	if len(f.persister.stored) != 1 {
		t.Fatal("expected unknown detection to be persisted")
	}
	d := f.persister.stored[0]
	if d.MapLabel != mapdetect.UnknownMap || d.Score != 0 {
		t.Fatalf("unexpected detection: %+v", d)
	}
	if f.notifier.events[0] != notifications.EventUnknownMap {
		t.Fatalf("expected unknown map event, got %v", f.notifier.events)
	}
}

func TestAnalyzeFailureDoesNotPersist(t *testing.T) {
	f := newFixture(t)
	f.oracle.statuses["a"] = live("Marvel Rivals")
	f.analyzer.err = services.Wrap(services.ErrExternalTool, "ocr", "tesseract", "missing", nil)

	report := f.poller(t, []string{"a"}, 1).RunOnce(context.Background())
	if report.Streamers[0].Outcome != OutcomeAnalyzeFailed || len(f.persister.stored) != 0 {
		t.Fatalf("unexpected result: %+v stored=%d", report.Streamers[0], len(f.persister.stored))
	}
}

func TestPersistFailureIsReportedAndLoopContinues(t *testing.T) {
	f := newFixture(t)
	f.oracle.statuses["a"] = live("Marvel Rivals")
	f.oracle.statuses["b"] = twitch.StreamStatus{}
	f.persister.err = errors.New("database is locked")

	report := f.poller(t, []string{"a", "b"}, 1).RunOnce(context.Background())
	if report.Streamers[0].Outcome != OutcomePersistFailed || report.Streamers[0].Error == "" {
		t.Fatalf("unexpected first report: %+v", report.Streamers[0])
	}
	if len(report.Streamers) != 2 {
		t.Fatal("persist failure must not stop the cycle")
	}
}

func TestFailureLogsCarryRetryable(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t)
	f.logger = slog.New(slog.NewJSONHandler(&buf, nil))
	f.oracle.errs["a"] = services.Wrap(services.ErrConfiguration, "twitch", "request", "credentials rejected", nil)
	f.oracle.errs["b"] = services.Wrap(services.ErrTransient, "twitch", "request", "status 503", nil)

	report := f.poller(t, []string{"a", "b"}, 1).RunOnce(context.Background())

	if report.Streamers[0].Outcome != OutcomeOracleFailed || report.Streamers[0].Retryable {
		t.Fatalf("configuration failures are not retryable: %+v", report.Streamers[0])
	}
	if report.Streamers[1].Outcome != OutcomeOracleFailed || !report.Streamers[1].Retryable {
		t.Fatalf("transient failures are retryable: %+v", report.Streamers[1])
	}

	var warnings []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if rec["level"] == "WARN" {
			warnings = append(warnings, rec)
		}
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 liveness warnings, got %d: %s", len(warnings), buf.String())
	}
	if warnings[0]["retryable"] != false || warnings[1]["retryable"] != true {
		t.Fatalf("unexpected retryable attrs: %v / %v", warnings[0]["retryable"], warnings[1]["retryable"])
	}
}

func TestRunOnceParallelKeepsRosterOrder(t *testing.T) {
	f := newFixture(t)
	roster := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("s%d", i)
		roster = append(roster, name)
		f.oracle.statuses[name] = live("Marvel Rivals")
	}

	report := f.poller(t, roster, 3).RunOnce(context.Background())
	if len(report.Streamers) != len(roster) {
		t.Fatalf("expected %d reports, got %d", len(roster), len(report.Streamers))
	}
	for i, r := range report.Streamers {
		if r.Streamer != roster[i] {
			t.Fatalf("report %d is %s, want %s", i, r.Streamer, roster[i])
		}
	}
	if len(f.persister.stored) != len(roster) {
		t.Fatalf("expected %d detections, got %d", len(roster), len(f.persister.stored))
	}
}

func TestRunOnceCancelledBeforeStart(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := f.poller(t, []string{"a", "b"}, 1).RunOnce(ctx)
	if !report.Cancelled || len(report.Streamers) != 0 || len(f.oracle.calls) != 0 {
		t.Fatalf("expected no work after cancellation: %+v calls=%v", report, f.oracle.calls)
	}
}

func TestCancellationStopsSchedulingButFinishesInFlightCapture(t *testing.T) {
	f := newFixture(t)
	f.oracle.statuses["a"] = live("Marvel Rivals")
	f.oracle.statuses["b"] = live("Marvel Rivals")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var captureCtxErr error
	f.capturer.hook = func(c context.Context) {
		cancel()
		captureCtxErr = c.Err()
	}

	report := f.poller(t, []string{"a", "b"}, 1).RunOnce(ctx)
	if captureCtxErr != nil {
		t.Fatalf("in-flight capture context was cancelled: %v", captureCtxErr)
	}
	if len(report.Streamers) != 1 || report.Streamers[0].Outcome != OutcomeDetected {
		t.Fatalf("expected only the in-flight streamer to complete: %+v", report.Streamers)
	}
	if !report.Cancelled {
		t.Fatal("expected cycle to be marked cancelled")
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	f.oracle.onCall = func(string) {
		calls++
		if calls == 3 {
			cancel()
		}
	}
	p := f.poller(t, []string{"a"}, 1)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if p.Cycles() != 3 {
		t.Fatalf("expected 3 cycles, got %d", p.Cycles())
	}
}

func TestNewValidatesOptions(t *testing.T) {
	f := newFixture(t)
	deps := Deps{Oracle: f.oracle, Capturer: f.capturer, Analyzer: f.analyzer, Persister: f.persister}
	cases := []struct {
		name string
		opts Options
		deps Deps
	}{
		{"empty roster", Options{Roster: []string{" "}, TargetGame: "x", FramesDir: "/tmp"}, deps},
		{"no game", Options{Roster: []string{"a"}, FramesDir: "/tmp"}, deps},
		{"no frames dir", Options{Roster: []string{"a"}, TargetGame: "x"}, deps},
		{"no oracle", Options{Roster: []string{"a"}, TargetGame: "x", FramesDir: "/tmp"}, Deps{Capturer: f.capturer, Analyzer: f.analyzer, Persister: f.persister}},
	}
	for _, tc := range cases {
		if _, err := New(tc.opts, tc.deps, nil); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
	if _, err := New(Options{Roster: []string{}, TargetGame: "x", FramesDir: "/tmp"}, deps, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("empty roster should be a configuration error, got %v", err)
	}
}
