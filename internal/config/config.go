package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	FramesDir string `toml:"frames_dir"`
	LogDir    string `toml:"log_dir"`
	LockPath  string `toml:"lock_path"`
}

// Twitch contains Helix API credentials and the target game.
type Twitch struct {
	ClientID       string `toml:"client_id"`
	OAuthToken     string `toml:"oauth_token"`
	APIBaseURL     string `toml:"api_base_url"`
	TargetGame     string `toml:"target_game"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Roster lists the broadcasters to watch. File, when set, points at a YAML
// roster merged after Streamers.
type Roster struct {
	Streamers []string `toml:"streamers"`
	File      string   `toml:"file"`
}

// Capture contains frame grabbing settings.
type Capture struct {
	Backend            string `toml:"backend"`
	StreamlinkBinary   string `toml:"streamlink_binary"`
	FFmpegBinary       string `toml:"ffmpeg_binary"`
	StreamURLTemplate  string `toml:"stream_url_template"`
	Quality            string `toml:"quality"`
	Timeout            int    `toml:"timeout"`
	BrowserBinary      string `toml:"browser_binary"`
	BrowserSettleDelay int    `toml:"browser_settle_delay"`
	FrameRetentionDays int    `toml:"frame_retention_days"`
}

// OCR contains tesseract settings.
type OCR struct {
	Binary      string `toml:"binary"`
	Language    string `toml:"language"`
	PageSegMode int    `toml:"page_seg_mode"`
	Timeout     int    `toml:"timeout"`
	Upscale     int    `toml:"upscale"`
}

// Detection contains the confidence gate and the crop region, expressed as
// fractions of the frame.
type Detection struct {
	ConfidenceThreshold int     `toml:"confidence_threshold"`
	HighConfidence      int     `toml:"high_confidence"`
	MinWords            int     `toml:"min_words"`
	RegionTop           float64 `toml:"region_top"`
	RegionBottom        float64 `toml:"region_bottom"`
	RegionLeft          float64 `toml:"region_left"`
	RegionRight         float64 `toml:"region_right"`
}

// Workflow contains poll loop timing.
type Workflow struct {
	CheckInterval int `toml:"check_interval"`
	MaxParallel   int `toml:"max_parallel"`
}

// Storage selects the primary detection store.
type Storage struct {
	Driver      string `toml:"driver"`
	SQLitePath  string `toml:"sqlite_path"`
	DatabaseURL string `toml:"database_url"`
}

// Redis contains the latest-map board settings.
type Redis struct {
	Enabled   bool   `toml:"enabled"`
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix"`
}

// NATS contains detection event stream settings.
type NATS struct {
	Enabled       bool   `toml:"enabled"`
	URL           string `toml:"url"`
	SubjectPrefix string `toml:"subject_prefix"`
	JetStream     bool   `toml:"jetstream"`
}

// Meilisearch contains search index settings.
type Meilisearch struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	APIKey  string `toml:"api_key"`
	Index   string `toml:"index"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Detections     bool   `toml:"detections"`
	IncludeUnknown bool   `toml:"include_unknown"`
	Errors         bool   `toml:"errors"`
}

// Dashboard contains the read API settings.
type Dashboard struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for mapwatch.
//
// Configuration sections by subsystem:
//   - Paths: data, frame, log and lock locations
//   - Twitch: Helix credentials and the target game title
//   - Roster: broadcasters to watch
//   - Capture: streamlink/ffmpeg or headless browser frame grabbing
//   - OCR: tesseract invocation
//   - Detection: confidence gate and crop region
//   - Workflow: poll interval and fan-out
//   - Storage: sqlite or postgres detection store
//   - Redis, NATS, Meilisearch: optional secondary sinks
//   - Notifications: ntfy push notification settings
//   - Dashboard: read-only HTTP API
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Twitch        Twitch        `toml:"twitch"`
	Roster        Roster        `toml:"roster"`
	Capture       Capture       `toml:"capture"`
	OCR           OCR           `toml:"ocr"`
	Detection     Detection     `toml:"detection"`
	Workflow      Workflow      `toml:"workflow"`
	Storage       Storage       `toml:"storage"`
	Redis         Redis         `toml:"redis"`
	NATS          NATS          `toml:"nats"`
	Meilisearch   Meilisearch   `toml:"meilisearch"`
	Notifications Notifications `toml:"notifications"`
	Dashboard     Dashboard     `toml:"dashboard"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := LoadUnvalidated(path)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return cfg, resolvedPath, exists, nil
}

// LoadUnvalidated parses and normalizes configuration without validating it.
// The config validate command uses it to report every problem itself.
func LoadUnvalidated(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads a .env file next to the config, if any. Variables that are
// already set in the environment win.
func loadDotEnv(dir string) error {
	envPath := filepath.Join(dir, ".env")
	info, err := os.Stat(envPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if info.IsDir() {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load env file %q: %w", envPath, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mapwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.FramesDir, c.Paths.LogDir, filepath.Dir(c.Paths.LockPath)}
	if c.Storage.Driver == StorageSQLite {
		dirs = append(dirs, filepath.Dir(c.Storage.SQLitePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Streamers returns a copy of the effective roster in declaration order.
func (c *Config) Streamers() []string {
	return append([]string(nil), c.Roster.Streamers...)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
