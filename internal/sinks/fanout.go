package sinks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mapwatch/internal/logging"
	"mapwatch/internal/services"
	"mapwatch/internal/store"
)

// Persister persists one detection. Fanout satisfies it.
type Persister interface {
	Persist(ctx context.Context, d *store.Detection) error
}

// Publisher is a best-effort secondary destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, d store.Detection) error
	Close() error
}

// Inserter is the part of store.Store the fan-out writes through.
type Inserter interface {
	Insert(ctx context.Context, d *store.Detection) error
}

// Fanout writes to the primary store, then to every secondary publisher.
type Fanout struct {
	primary     Inserter
	secondaries []Publisher
	logger      *slog.Logger
}

// NewFanout builds a fan-out over primary and the given publishers.
func NewFanout(primary Inserter, logger *slog.Logger, secondaries ...Publisher) *Fanout {
	return &Fanout{
		primary:     primary,
		secondaries: secondaries,
		logger:      logging.NewComponentLogger(logger, "sinks"),
	}
}

// Persist inserts d into the primary store and publishes it to the
// secondaries. Only a primary failure is returned.
func (f *Fanout) Persist(ctx context.Context, d *store.Detection) error {
	if f == nil || f.primary == nil {
		return errors.New("no primary store configured")
	}
	if d == nil {
		return errors.New("detection is nil")
	}
	if err := f.primary.Insert(ctx, d); err != nil {
		return fmt.Errorf("persist detection: %w", err)
	}
	for _, pub := range f.secondaries {
		if err := pub.Publish(ctx, *d); err != nil {
			logging.WarnWithContext(f.logger, "secondary sink publish failed", services.EventType(err),
				logging.String("sink", pub.Name()),
				logging.String(logging.FieldStreamer, d.Streamer),
				logging.Int64("detection_id", d.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the "+pub.Name()+" connection settings"),
				logging.String(logging.FieldImpact, "detection stored but not published to "+pub.Name()),
			)
		}
	}
	return nil
}

// Names lists the configured secondary sinks.
func (f *Fanout) Names() []string {
	names := make([]string, 0, len(f.secondaries))
	for _, pub := range f.secondaries {
		names = append(names, pub.Name())
	}
	return names
}

// Close closes every secondary publisher. The primary store is owned by the caller.
func (f *Fanout) Close() error {
	var errs []error
	for _, pub := range f.secondaries {
		if err := pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", pub.Name(), err))
		}
	}
	return errors.Join(errs...)
}
