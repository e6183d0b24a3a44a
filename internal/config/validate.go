package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTwitch(); err != nil {
		return err
	}
	if err := c.validateRoster(); err != nil {
		return err
	}
	if err := c.validateTimings(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateSinks(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTwitch() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	if c.Twitch.ClientID == "" {
		return fmt.Errorf("twitch.client_id is required. Set TWITCH_CLIENT_ID env var or edit %s (create with 'mapwatch config init')", defaultPath)
	}
	if c.Twitch.OAuthToken == "" {
		return fmt.Errorf("twitch.oauth_token is required. Set TWITCH_OAUTH_TOKEN env var or edit %s", defaultPath)
	}
	return nil
}

func (c *Config) validateRoster() error {
	if len(c.Roster.Streamers) == 0 {
		return errors.New("roster.streamers must list at least one streamer (or point roster.file at a non-empty roster)")
	}
	return nil
}

func (c *Config) validateTimings() error {
	return ensurePositiveMap(map[string]int{
		"workflow.check_interval":       c.Workflow.CheckInterval,
		"workflow.max_parallel":         c.Workflow.MaxParallel,
		"twitch.request_timeout":        c.Twitch.RequestTimeout,
		"capture.timeout":               c.Capture.Timeout,
		"ocr.timeout":                   c.OCR.Timeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateCapture() error {
	switch c.Capture.Backend {
	case CaptureBackendCLI, CaptureBackendBrowser:
	default:
		return fmt.Errorf("capture.backend must be %q or %q, got %q", CaptureBackendCLI, CaptureBackendBrowser, c.Capture.Backend)
	}
	if !strings.Contains(c.Capture.StreamURLTemplate, "%s") {
		return errors.New("capture.stream_url_template must contain %s for the streamer login")
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return errors.New("ocr.page_seg_mode must be between 0 and 13")
	}
	if c.OCR.Upscale > 8 {
		return errors.New("ocr.upscale must be at most 8")
	}
	return nil
}

func (c *Config) validateDetection() error {
	d := c.Detection
	if d.ConfidenceThreshold < 0 || d.ConfidenceThreshold > 100 {
		return errors.New("detection.confidence_threshold must be between 0 and 100")
	}
	if d.HighConfidence < 0 || d.HighConfidence > 100 {
		return errors.New("detection.high_confidence must be between 0 and 100")
	}
	if d.MinWords < 1 {
		return errors.New("detection.min_words must be >= 1")
	}
	for name, v := range map[string]float64{
		"detection.region_top":    d.RegionTop,
		"detection.region_bottom": d.RegionBottom,
		"detection.region_left":   d.RegionLeft,
		"detection.region_right":  d.RegionRight,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if d.RegionTop >= d.RegionBottom {
		return errors.New("detection.region_top must be less than detection.region_bottom")
	}
	if d.RegionLeft >= d.RegionRight {
		return errors.New("detection.region_left must be less than detection.region_right")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Driver {
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path must be set when storage.driver is sqlite")
		}
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("storage.database_url must be set when storage.driver is postgres (or set MAPWATCH_DATABASE_URL)")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", StorageSQLite, StoragePostgres, c.Storage.Driver)
	}
	return nil
}

func (c *Config) validateSinks() error {
	if c.Redis.Enabled && c.Redis.DB < 0 {
		return errors.New("redis.db must be >= 0")
	}
	if c.Meilisearch.Enabled && c.Meilisearch.Index == "" {
		return errors.New("meilisearch.index must be set when meilisearch.enabled is true")
	}
	return nil
}

// ensurePositiveMap checks keys in sorted order so the reported field is stable.
func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
