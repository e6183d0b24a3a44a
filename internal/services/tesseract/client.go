package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"mapwatch/internal/mapdetect"
	"mapwatch/internal/services"
)

// Executor abstracts command execution for testability. stdin is fed to the
// process and its stdout is returned.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin io.Reader) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps tesseract CLI interactions.
type Client struct {
	binary      string
	language    string
	pageSegMode int
	timeout     time.Duration
	exec        Executor
}

// New constructs a tesseract client. pageSegMode 6 treats the input as a
// single uniform block of text.
func New(binary, language string, pageSegMode int, timeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("tesseract binary required")
	}
	c := &Client{
		binary:      binary,
		language:    strings.TrimSpace(language),
		pageSegMode: pageSegMode,
		timeout:     timeout,
		exec:        commandExecutor{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Args returns the tesseract command line used for every recognition.
func (c *Client) Args() []string {
	args := []string{"stdin", "stdout", "--psm", strconv.Itoa(c.pageSegMode)}
	if c.language != "" {
		args = append(args, "-l", c.language)
	}
	return append(args, "tsv")
}

// Recognize returns the words tesseract found in img, in reading order.
func (c *Client) Recognize(ctx context.Context, img image.Image) ([]mapdetect.Phrase, error) {
	if img == nil {
		return nil, services.Wrap(services.ErrValidation, "ocr", "encode", "nil image", nil)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, services.Wrap(services.ErrValidation, "ocr", "encode", "png", err)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out, err := c.exec.Run(ctx, c.binary, c.Args(), &buf)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "ocr", "tesseract", "deadline exceeded", err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "tesseract", "", err)
	}
	phrases, err := ParseTSV(out)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "parse tsv", "", err)
	}
	return phrases, nil
}

// ParseTSV converts tesseract TSV output into phrases. The header row locates
// the conf and text columns.
func ParseTSV(data []byte) ([]mapdetect.Phrase, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, nil
	}
	header := strings.Split(lines[0], "\t")
	confIdx, textIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "conf":
			confIdx = i
		case "text":
			textIdx = i
		}
	}
	if confIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("tsv header missing conf/text columns: %q", lines[0])
	}

	var phrases []mapdetect.Phrase
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) <= textIdx || len(cols) <= confIdx {
			continue
		}
		text := strings.TrimSpace(cols[textIdx])
		if text == "" {
			continue
		}
		phrases = append(phrases, mapdetect.Phrase{Text: text, Confidence: parseConfidence(cols[confIdx])})
	}
	return phrases, nil
}

// parseConfidence truncates tesseract's float confidence and clamps it to
// [0,100]. Unparseable values count as 0.
func parseConfidence(raw string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	conf := int(v)
	switch {
	case conf < 0:
		return 0
	case conf > 100:
		return 100
	default:
		return conf
	}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
