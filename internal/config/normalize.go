package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTwitch()
	if err := c.normalizeRoster(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeOCR()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeSinks()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FramesDir) == "" {
		c.Paths.FramesDir = defaultFramesDir
	}
	if c.Paths.FramesDir, err = expandPath(c.Paths.FramesDir); err != nil {
		return fmt.Errorf("paths.frames_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockPath) == "" {
		c.Paths.LockPath = defaultLockPath
	}
	if c.Paths.LockPath, err = expandPath(c.Paths.LockPath); err != nil {
		return fmt.Errorf("paths.lock_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTwitch() {
	c.Twitch.ClientID = strings.TrimSpace(c.Twitch.ClientID)
	if c.Twitch.ClientID == "" {
		if value, ok := os.LookupEnv("TWITCH_CLIENT_ID"); ok {
			c.Twitch.ClientID = strings.TrimSpace(value)
		}
	}
	c.Twitch.OAuthToken = strings.TrimSpace(c.Twitch.OAuthToken)
	if c.Twitch.OAuthToken == "" {
		if value, ok := os.LookupEnv("TWITCH_OAUTH_TOKEN"); ok {
			c.Twitch.OAuthToken = strings.TrimSpace(value)
		}
	}
	c.Twitch.OAuthToken = strings.TrimPrefix(c.Twitch.OAuthToken, "oauth:")
	c.Twitch.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Twitch.APIBaseURL), "/")
	if c.Twitch.APIBaseURL == "" {
		c.Twitch.APIBaseURL = defaultTwitchAPIBaseURL
	}
	c.Twitch.TargetGame = strings.TrimSpace(c.Twitch.TargetGame)
	if c.Twitch.TargetGame == "" {
		c.Twitch.TargetGame = defaultTargetGame
	}
}

func (c *Config) normalizeRoster() error {
	var fromFile []string
	if file := strings.TrimSpace(c.Roster.File); file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("roster.file: %w", err)
		}
		c.Roster.File = expanded
		if fromFile, err = LoadRosterFile(expanded); err != nil {
			return fmt.Errorf("roster.file: %w", err)
		}
	}
	c.Roster.Streamers = mergeRoster(c.Roster.Streamers, fromFile)
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.Backend = strings.ToLower(strings.TrimSpace(c.Capture.Backend))
	if c.Capture.Backend == "" {
		c.Capture.Backend = defaultCaptureBackend
	}
	c.Capture.StreamlinkBinary = strings.TrimSpace(c.Capture.StreamlinkBinary)
	if c.Capture.StreamlinkBinary == "" {
		c.Capture.StreamlinkBinary = defaultStreamlinkBinary
	}
	c.Capture.FFmpegBinary = strings.TrimSpace(c.Capture.FFmpegBinary)
	if c.Capture.FFmpegBinary == "" {
		c.Capture.FFmpegBinary = defaultFFmpegBinary
	}
	c.Capture.StreamURLTemplate = strings.TrimSpace(c.Capture.StreamURLTemplate)
	if c.Capture.StreamURLTemplate == "" {
		c.Capture.StreamURLTemplate = defaultStreamURLTemplate
	}
	c.Capture.Quality = strings.TrimSpace(c.Capture.Quality)
	if c.Capture.Quality == "" {
		c.Capture.Quality = defaultCaptureQuality
	}
	c.Capture.BrowserBinary = strings.TrimSpace(c.Capture.BrowserBinary)
	if c.Capture.BrowserSettleDelay < 0 {
		c.Capture.BrowserSettleDelay = 0
	}
	if c.Capture.FrameRetentionDays < 0 {
		c.Capture.FrameRetentionDays = 0
	}
}

func (c *Config) normalizeOCR() {
	c.OCR.Binary = strings.TrimSpace(c.OCR.Binary)
	if c.OCR.Binary == "" {
		c.OCR.Binary = defaultOCRBinary
	}
	c.OCR.Language = strings.TrimSpace(c.OCR.Language)
	if c.OCR.Language == "" {
		c.OCR.Language = defaultOCRLanguage
	}
	if c.OCR.PageSegMode == 0 {
		c.OCR.PageSegMode = defaultOCRPageSegMode
	}
	if c.OCR.Upscale < 1 {
		c.OCR.Upscale = 1
	}
}

func (c *Config) normalizeStorage() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "", "sqlite3":
		c.Storage.Driver = StorageSQLite
	case "postgresql", "pgx":
		c.Storage.Driver = StoragePostgres
	}
	if strings.TrimSpace(c.Storage.SQLitePath) == "" {
		c.Storage.SQLitePath = defaultSQLitePath
	}
	var err error
	if c.Storage.SQLitePath, err = expandPath(c.Storage.SQLitePath); err != nil {
		return fmt.Errorf("storage.sqlite_path: %w", err)
	}
	c.Storage.DatabaseURL = strings.TrimSpace(c.Storage.DatabaseURL)
	if c.Storage.DatabaseURL == "" {
		if value, ok := os.LookupEnv("MAPWATCH_DATABASE_URL"); ok {
			c.Storage.DatabaseURL = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeSinks() {
	c.Redis.Addr = strings.TrimSpace(c.Redis.Addr)
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	c.Redis.KeyPrefix = strings.Trim(strings.TrimSpace(c.Redis.KeyPrefix), ":")
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = defaultRedisKeyPrefix
	}
	c.NATS.URL = strings.TrimSpace(c.NATS.URL)
	if c.NATS.URL == "" {
		c.NATS.URL = defaultNATSURL
	}
	c.NATS.SubjectPrefix = strings.Trim(strings.TrimSpace(c.NATS.SubjectPrefix), ".")
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = defaultNATSSubjectPrefix
	}
	c.Meilisearch.Host = strings.TrimRight(strings.TrimSpace(c.Meilisearch.Host), "/")
	if c.Meilisearch.Host == "" {
		c.Meilisearch.Host = defaultMeilisearchHost
	}
	c.Meilisearch.APIKey = strings.TrimSpace(c.Meilisearch.APIKey)
	if c.Meilisearch.APIKey == "" {
		if value, ok := os.LookupEnv("MEILI_MASTER_KEY"); ok {
			c.Meilisearch.APIKey = strings.TrimSpace(value)
		}
	}
	c.Meilisearch.Index = strings.TrimSpace(c.Meilisearch.Index)
	if c.Meilisearch.Index == "" {
		c.Meilisearch.Index = defaultMeilisearchIndex
	}
	c.Dashboard.Bind = strings.TrimSpace(c.Dashboard.Bind)
	if c.Dashboard.Bind == "" {
		c.Dashboard.Bind = defaultDashboardBind
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
