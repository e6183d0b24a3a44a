package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"mapwatch/internal/logging"
	"mapwatch/internal/services"
	"mapwatch/internal/store"
	"mapwatch/internal/textutil"
)

// DetectionStream is the JetStream stream that captures detection events.
const DetectionStream = "MAPWATCH_DETECTIONS"

// DetectionEvent is the JSON payload published for every detection.
type DetectionEvent struct {
	ID         int64     `json:"id"`
	Streamer   string    `json:"streamer"`
	MapLabel   string    `json:"map"`
	Score      int       `json:"score"`
	Known      bool      `json:"known"`
	DetectedAt time.Time `json:"detected_at"`
	FramePath  string    `json:"frame_path"`
}

// NewDetectionEvent converts a stored detection to its wire form.
func NewDetectionEvent(d store.Detection) DetectionEvent {
	return DetectionEvent{
		ID:         d.ID,
		Streamer:   d.Streamer,
		MapLabel:   d.MapLabel,
		Score:      d.Score,
		Known:      d.Known(),
		DetectedAt: d.DetectedAt.UTC(),
		FramePath:  d.FramePath,
	}
}

type natsPublishFunc func(subject string, data []byte) error

// NATSPublisher publishes detection events on <prefix>.<streamer>.
type NATSPublisher struct {
	prefix  string
	publish natsPublishFunc
	closer  func()
}

// DialNATS connects to url. With jetStream set, the detection stream is
// created when missing and publishes wait for the server ack.
func DialNATS(url, prefix string, jetStream bool, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("mapwatch"))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "sinks", "nats connect", url, err)
	}
	prefix = normalizeSubjectPrefix(prefix)
	p := &NATSPublisher{prefix: prefix, closer: nc.Close}
	if !jetStream {
		p.publish = nc.Publish
		return p, nil
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, services.Wrap(services.ErrConfiguration, "sinks", "jetstream", url, err)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     DetectionStream,
		Subjects: []string{prefix + ".>"},
		Storage:  nats.FileStorage,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		logging.NewComponentLogger(logger, "sinks").Info("jetstream stream not created",
			logging.String("stream", DetectionStream), logging.Error(err))
	}
	p.publish = func(subject string, data []byte) error {
		_, err := js.Publish(subject, data)
		return err
	}
	return p, nil
}

// NewNATSPublisher builds a publisher over an arbitrary publish function.
func NewNATSPublisher(prefix string, publish func(subject string, data []byte) error) *NATSPublisher {
	return &NATSPublisher{prefix: normalizeSubjectPrefix(prefix), publish: publish}
}

func normalizeSubjectPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return "mapwatch.detections"
	}
	return prefix
}

// Name identifies the sink in logs.
func (p *NATSPublisher) Name() string { return "nats" }

// Subject returns the subject a streamer's detections are published on.
func (p *NATSPublisher) Subject(streamer string) string {
	return p.prefix + "." + textutil.SanitizeToken(streamer)
}

// Publish sends d as a JSON DetectionEvent.
func (p *NATSPublisher) Publish(_ context.Context, d store.Detection) error {
	data, err := json.Marshal(NewDetectionEvent(d))
	if err != nil {
		return fmt.Errorf("encode detection event: %w", err)
	}
	if err := p.publish(p.Subject(d.Streamer), data); err != nil {
		return services.Wrap(services.ErrTransient, "sinks", "nats publish", d.Streamer, err)
	}
	return nil
}

// Close drains nothing and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.closer != nil {
		p.closer()
	}
	return nil
}
