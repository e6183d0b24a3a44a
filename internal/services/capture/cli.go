package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Command is one process in the capture pipeline.
type Command struct {
	Binary string
	Args   []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// PipeRunner runs producer with its stdout connected to consumer's stdin.
// It returns once the consumer exits.
type PipeRunner interface {
	Pipe(ctx context.Context, producer, consumer Command) error
}

// CLIOption configures the CLI backend.
type CLIOption func(*CLI)

// WithRunner injects a custom pipe runner (primarily for tests).
func WithRunner(r PipeRunner) CLIOption {
	return func(c *CLI) {
		if r != nil {
			c.runner = r
		}
	}
}

// CLIConfig names the binaries and stream options for the CLI backend.
type CLIConfig struct {
	StreamlinkBinary  string
	FFmpegBinary      string
	StreamURLTemplate string
	Quality           string
	Timeout           time.Duration
}

// CLI captures frames with streamlink piped into ffmpeg.
type CLI struct {
	cfg    CLIConfig
	runner PipeRunner
}

// NewCLI constructs the streamlink/ffmpeg backend.
func NewCLI(cfg CLIConfig, opts ...CLIOption) (*CLI, error) {
	if strings.TrimSpace(cfg.StreamlinkBinary) == "" || strings.TrimSpace(cfg.FFmpegBinary) == "" {
		return nil, errors.New("streamlink and ffmpeg binaries required")
	}
	if cfg.Quality == "" {
		cfg.Quality = "best"
	}
	c := &CLI{cfg: cfg, runner: processRunner{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Commands returns the producer and consumer invocations for one capture.
func (c *CLI) Commands(streamer, outPath string) (Command, Command) {
	producer := Command{
		Binary: c.cfg.StreamlinkBinary,
		Args: []string{
			"--twitch-disable-ads",
			StreamURL(c.cfg.StreamURLTemplate, streamer),
			c.cfg.Quality,
			"--stdout",
		},
	}
	consumer := Command{
		Binary: c.cfg.FFmpegBinary,
		Args: []string{
			"-hide_banner",
			"-loglevel", "error",
			"-y",
			"-i", "pipe:0",
			"-frames:v", "1",
			outPath,
		},
	}
	return producer, consumer
}

// Capture grabs one frame of streamer's live video into destPath.
func (c *CLI) Capture(ctx context.Context, streamer, destPath string) error {
	if err := prepareDest(destPath); err != nil {
		return err
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	tmp := tempPath(destPath)
	producer, consumer := c.Commands(streamer, tmp)
	if err := c.runner.Pipe(ctx, producer, consumer); err != nil {
		_ = os.Remove(tmp)
		return classify(ctx, "streamlink|ffmpeg", err)
	}
	return finalize(tmp, destPath)
}

type processRunner struct{}

// Pipe starts both processes, waits for the consumer and then stops the
// producer, which would otherwise keep streaming.
func (processRunner) Pipe(ctx context.Context, producer, consumer Command) error {
	prodCtx, stopProducer := context.WithCancel(ctx)
	defer stopProducer()

	prod := exec.CommandContext(prodCtx, producer.Binary, producer.Args...) //nolint:gosec
	cons := exec.CommandContext(ctx, consumer.Binary, consumer.Args...)     //nolint:gosec

	pr, pw := io.Pipe()
	prod.Stdout = pw
	cons.Stdin = pr
	prodErr := &tailBuffer{limit: 2048}
	consErr := &tailBuffer{limit: 2048}
	prod.Stderr = prodErr
	cons.Stderr = consErr

	if err := cons.Start(); err != nil {
		return fmt.Errorf("start %s: %w", consumer.Binary, err)
	}
	if err := prod.Start(); err != nil {
		_ = pw.Close()
		_ = cons.Wait()
		return fmt.Errorf("start %s: %w", producer.Binary, err)
	}

	prodDone := make(chan error, 1)
	go func() {
		err := prod.Wait()
		_ = pw.CloseWithError(io.EOF)
		prodDone <- err
	}()

	consWaitErr := cons.Wait()
	_ = pr.Close()
	stopProducer()
	prodWaitErr := <-prodDone

	if consWaitErr != nil {
		if msg := prodErr.String(); msg != "" && prodWaitErr != nil {
			return fmt.Errorf("%s failed: %w (%s: %s)", consumer.Binary, consWaitErr, producer.Binary, msg)
		}
		return fmt.Errorf("%s failed: %w: %s", consumer.Binary, consWaitErr, consErr.String())
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(t.buf.String())
}
