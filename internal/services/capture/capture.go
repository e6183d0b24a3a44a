package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mapwatch/internal/services"
)

// Capturer produces a single still image for a live channel.
type Capturer interface {
	Capture(ctx context.Context, streamer, destPath string) error
}

// Closer is implemented by backends that hold long-lived resources.
type Closer interface {
	Close() error
}

// StreamURL renders the channel URL for streamer.
func StreamURL(template, streamer string) string {
	if !strings.Contains(template, "%s") {
		return template
	}
	return fmt.Sprintf(template, strings.TrimSpace(streamer))
}

// tempPath returns a hidden sibling of dest that keeps its extension so
// encoders infer the same output format.
func tempPath(dest string) string {
	dir, base := filepath.Split(dest)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+"."+uuid.NewString()+ext)
}

// finalize checks the temporary frame and moves it into place.
func finalize(tmp, dest string) error {
	info, err := os.Stat(tmp)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrExternalTool, "capture", "finalize", "no frame was written", nil)
		}
		return services.Wrap(services.ErrExternalTool, "capture", "finalize", "stat frame", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrExternalTool, "capture", "finalize", "frame is empty", nil)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrExternalTool, "capture", "finalize", "move frame into place", err)
	}
	return nil
}

func prepareDest(dest string) error {
	if strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, "capture", "prepare", "destination path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "capture", "prepare", "create frame directory", err)
	}
	return nil
}

// classify tags a backend failure, preferring the timeout marker when the
// capture deadline expired.
func classify(ctx context.Context, operation string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "capture", operation, "capture deadline exceeded", err)
	}
	return services.Wrap(services.ErrExternalTool, "capture", operation, "", err)
}
