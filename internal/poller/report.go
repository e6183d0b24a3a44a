package poller

import (
	"time"

	"mapwatch/internal/mapdetect"
	"mapwatch/internal/services"
	"mapwatch/internal/store"
)

// State is the liveness classification of a streamer for one cycle.
type State string

const (
	StateOffline        State = "offline"
	StateLiveWrongGame  State = "live_wrong_game"
	StateLiveTargetGame State = "live_target_game"
)

// Outcome records what the cycle did for a streamer.
type Outcome string

const (
	OutcomeSkipped       Outcome = "skipped"
	OutcomeOracleFailed  Outcome = "oracle_failed"
	OutcomeCaptureFailed Outcome = "capture_failed"
	OutcomeAnalyzeFailed Outcome = "analyze_failed"
	OutcomePersistFailed Outcome = "persist_failed"
	OutcomeDetected      Outcome = "detected"
)

// StreamerReport is the per-streamer result of one cycle.
type StreamerReport struct {
	Streamer  string                  `json:"streamer"`
	State     State                   `json:"state"`
	Outcome   Outcome                 `json:"outcome"`
	GameName  string                  `json:"game_name,omitempty"`
	Detection *store.Detection        `json:"detection,omitempty"`
	Matches   []mapdetect.ScoredMatch `json:"matches,omitempty"`
	Error     string                  `json:"error,omitempty"`
	// Retryable is false for failures the next cycle cannot clear on its own.
	Retryable bool                    `json:"retryable,omitempty"`
	Err       error                   `json:"-"`
}

func (r *StreamerReport) fail(outcome Outcome, err error) {
	r.Outcome = outcome
	r.Err = err
	if err != nil {
		r.Error = err.Error()
		r.Retryable = services.Retryable(err)
	}
}

// CycleReport summarizes one pass over the roster.
type CycleReport struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Streamers  []StreamerReport `json:"streamers"`
	Cancelled  bool             `json:"cancelled,omitempty"`
}

// Duration is the wall-clock length of the cycle.
func (c CycleReport) Duration() time.Duration {
	return c.FinishedAt.Sub(c.StartedAt)
}

// CountState returns how many streamers ended the cycle in state.
func (c CycleReport) CountState(state State) int {
	n := 0
	for _, r := range c.Streamers {
		if r.State == state {
			n++
		}
	}
	return n
}

// CountOutcome returns how many streamers ended the cycle with outcome.
func (c CycleReport) CountOutcome(outcome Outcome) int {
	n := 0
	for _, r := range c.Streamers {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// Detections returns the detections persisted during the cycle.
func (c CycleReport) Detections() []store.Detection {
	var out []store.Detection
	for _, r := range c.Streamers {
		if r.Outcome == OutcomeDetected && r.Detection != nil {
			out = append(out, *r.Detection)
		}
	}
	return out
}
