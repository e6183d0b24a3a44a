package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"mapwatch/internal/config"
	"mapwatch/internal/logging"
	"mapwatch/internal/notifications"
)

const retentionInterval = 24 * time.Hour

// Loop is the background work the daemon runs. It must return once ctx is done.
type Loop interface {
	Run(ctx context.Context) error
}

// Daemon runs the watch loop under a single-instance lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	loop     Loop
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	loopErr error
	started time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running   bool      `json:"running"`
	LockPath  string    `json:"lock_path"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// New constructs a daemon. A nil notifier disables start/stop notifications.
func New(cfg *config.Config, loop Loop, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || loop == nil {
		return nil, errors.New("daemon requires config and loop")
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		loop:     loop,
		notifier: notifier,
		lockPath: cfg.Paths.LockPath,
		lock:     flock.New(cfg.Paths.LockPath),
	}, nil
}

// Start acquires the lock and launches the loop and the retention sweeper.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another mapwatch instance holds %s", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.loopErr = nil
	d.started = time.Now().UTC()
	d.running.Store(true)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if err := d.loop.Run(runCtx); err != nil {
			d.mu.Lock()
			d.loopErr = err
			d.mu.Unlock()
			logging.ErrorWithContext(d.logger, "watch loop exited with error", "loop_failed", logging.Error(err))
		}
	}()
	go func() {
		defer d.wg.Done()
		d.retentionLoop(runCtx)
	}()

	d.logger.Info("mapwatch daemon started", logging.String("lock", d.lockPath))
	d.publish(ctx, notifications.EventDaemonStarted, notifications.Payload{"streamers": len(d.cfg.Streamers())})
	return nil
}

// Stop cancels the loop, waits for in-flight work and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	cancel()
	d.wg.Wait()

	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no instance is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("mapwatch daemon stopped")
	d.publish(context.Background(), notifications.EventDaemonStopped, nil)
}

// Err returns the error the loop exited with, if any.
func (d *Daemon) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loopErr
}

// Status returns a snapshot of the daemon state.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := Status{Running: d.running.Load(), LockPath: d.lockPath}
	if st.Running {
		st.StartedAt = d.started
	}
	return st
}

// CleanupRetention prunes old log files and captured frames and returns how
// many files were removed.
func (d *Daemon) CleanupRetention() int {
	removed := logging.CleanupOldFiles(d.logger, d.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{filepath.Join(d.cfg.Paths.LogDir, logging.LogFileName)},
	})
	removed += logging.CleanupOldFiles(d.logger, d.cfg.Capture.FrameRetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.FramesDir,
		Pattern: "*.png",
	})
	return removed
}

func (d *Daemon) retentionLoop(ctx context.Context) {
	for {
		if n := d.CleanupRetention(); n > 0 {
			d.logger.Info("retention sweep removed files", logging.Int("removed", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retentionInterval):
		}
	}
}

func (d *Daemon) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := d.notifier.Publish(ctx, event, payload); err != nil {
		d.logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}
