package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// BrowserConfig configures the headless Chromium backend.
type BrowserConfig struct {
	Binary            string
	StreamURLTemplate string
	Timeout           time.Duration
	// SettleDelay gives the player time to get past pre-roll and overlays.
	SettleDelay time.Duration
	Width       int
	Height      int
}

// LaunchFunc starts a browser process and returns its DevTools control URL
// plus a function that kills the process.
type LaunchFunc func(binary string) (controlURL string, kill func(), err error)

// BrowserOption configures the browser backend.
type BrowserOption func(*Browser)

// WithLauncher replaces the Chromium launcher.
func WithLauncher(fn LaunchFunc) BrowserOption {
	return func(b *Browser) {
		if fn != nil {
			b.launch = fn
		}
	}
}

// Browser captures frames by screenshotting the channel's video element.
// The Chromium process is started on first use and shared until Close.
type Browser struct {
	cfg    BrowserConfig
	launch LaunchFunc

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowser constructs the headless browser backend.
func NewBrowser(cfg BrowserConfig, opts ...BrowserOption) *Browser {
	if cfg.Width <= 0 {
		cfg.Width = 1920
	}
	if cfg.Height <= 0 {
		cfg.Height = 1080
	}
	b := &Browser{cfg: cfg, launch: launchChromium}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func launchChromium(binary string) (string, func(), error) {
	bin := strings.TrimSpace(binary)
	if bin == "" {
		if path, ok := launcher.LookPath(); ok {
			bin = path
		}
	}
	l := launcher.New().
		Headless(true).
		Leakless(false).
		Set("autoplay-policy", "no-user-gesture-required").
		Set("mute-audio").
		Set("disable-gpu").
		Set("no-sandbox")
	if bin != "" {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return "", nil, err
	}
	return controlURL, l.Kill, nil
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}
	controlURL, kill, err := b.launch(b.cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		// Without leakless nothing else reaps the process.
		if kill != nil {
			kill()
		}
		return nil, fmt.Errorf("connect chromium: %w", err)
	}
	b.browser = browser
	return browser, nil
}

// Capture loads the channel page and screenshots the player.
func (b *Browser) Capture(ctx context.Context, streamer, destPath string) error {
	if err := prepareDest(destPath); err != nil {
		return err
	}
	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}
	browser, err := b.connect()
	if err != nil {
		return classify(ctx, "browser", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return classify(ctx, "browser page", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.Width,
		Height:            b.cfg.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return classify(ctx, "browser viewport", err)
	}
	if err := page.Navigate(StreamURL(b.cfg.StreamURLTemplate, streamer)); err != nil {
		return classify(ctx, "browser navigate", err)
	}
	if err := page.WaitLoad(); err != nil {
		return classify(ctx, "browser load", err)
	}
	video, err := page.Element("video")
	if err != nil {
		return classify(ctx, "browser player", err)
	}
	if b.cfg.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return classify(ctx, "browser settle", ctx.Err())
		case <-time.After(b.cfg.SettleDelay):
		}
	}
	data, err := video.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return classify(ctx, "browser screenshot", err)
	}

	tmp := tempPath(destPath)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return classify(ctx, "browser write", err)
	}
	return finalize(tmp, destPath)
}

// Close shuts down the shared Chromium process, if one was started.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close chromium: %w", err)
	}
	return nil
}
