package config

const (
	defaultConfigPath          = "~/.config/mapwatch/config.toml"
	defaultDataDir             = "~/.local/share/mapwatch"
	defaultFramesDir           = "~/.local/share/mapwatch/frames"
	defaultLogDir              = "~/.local/share/mapwatch/logs"
	defaultLockPath            = "~/.local/share/mapwatch/mapwatch.lock"
	defaultSQLitePath          = "~/.local/share/mapwatch/detections.db"
	defaultTwitchAPIBaseURL    = "https://api.twitch.tv/helix"
	defaultTargetGame          = "Marvel Rivals"
	defaultTwitchTimeout       = 10
	defaultCaptureBackend      = CaptureBackendCLI
	defaultStreamlinkBinary    = "streamlink"
	defaultFFmpegBinary        = "ffmpeg"
	defaultStreamURLTemplate   = "https://www.twitch.tv/%s"
	defaultCaptureQuality      = "best"
	defaultCaptureTimeout      = 60
	defaultBrowserSettleDelay  = 8
	defaultFrameRetentionDays  = 14
	defaultOCRBinary           = "tesseract"
	defaultOCRLanguage         = "eng"
	defaultOCRPageSegMode      = 6
	defaultOCRTimeout          = 30
	defaultCheckInterval       = 5
	defaultMaxParallel         = 1
	defaultRedisAddr           = "127.0.0.1:6379"
	defaultRedisKeyPrefix      = "mapwatch"
	defaultNATSURL             = "nats://127.0.0.1:4222"
	defaultNATSSubjectPrefix   = "mapwatch.detections"
	defaultMeilisearchHost     = "http://127.0.0.1:7700"
	defaultMeilisearchIndex    = "detections"
	defaultNotifyTimeout       = 10
	defaultDashboardBind       = "127.0.0.1:7490"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultConfidenceThreshold = 60
	defaultHighConfidence      = 80
	defaultMinWords            = 3
	defaultRegionTop           = 0.032
	defaultRegionBottom        = 0.093
	defaultRegionLeft          = 0.013
	defaultRegionRight         = 0.313
)

// Capture backends.
const (
	CaptureBackendCLI     = "cli"
	CaptureBackendBrowser = "browser"
)

// Storage drivers.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// defaultStreamers is the roster watched when no configuration overrides it.
var defaultStreamers = []string{
	"dongm1n_",
	"doomed_ow",
	"calwya",
	"GURU",
	"Gale",
	"storytimebed",
	"space",
	"m4rchgg",
	"eatinpizzarn",
	"shroud",
	"Impuniti",
	"senorhoff",
	"Kephrii",
	"ange1inac",
	"farpwr",
	"MaleniaMR",
	"FullMetalLamp",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			FramesDir: defaultFramesDir,
			LogDir:    defaultLogDir,
			LockPath:  defaultLockPath,
		},
		Twitch: Twitch{
			APIBaseURL:     defaultTwitchAPIBaseURL,
			TargetGame:     defaultTargetGame,
			RequestTimeout: defaultTwitchTimeout,
		},
		Roster: Roster{
			Streamers: append([]string(nil), defaultStreamers...),
		},
		Capture: Capture{
			Backend:            defaultCaptureBackend,
			StreamlinkBinary:   defaultStreamlinkBinary,
			FFmpegBinary:       defaultFFmpegBinary,
			StreamURLTemplate:  defaultStreamURLTemplate,
			Quality:            defaultCaptureQuality,
			Timeout:            defaultCaptureTimeout,
			BrowserSettleDelay: defaultBrowserSettleDelay,
			FrameRetentionDays: defaultFrameRetentionDays,
		},
		OCR: OCR{
			Binary:      defaultOCRBinary,
			Language:    defaultOCRLanguage,
			PageSegMode: defaultOCRPageSegMode,
			Timeout:     defaultOCRTimeout,
			Upscale:     1,
		},
		Detection: Detection{
			ConfidenceThreshold: defaultConfidenceThreshold,
			HighConfidence:      defaultHighConfidence,
			MinWords:            defaultMinWords,
			RegionTop:           defaultRegionTop,
			RegionBottom:        defaultRegionBottom,
			RegionLeft:          defaultRegionLeft,
			RegionRight:         defaultRegionRight,
		},
		Workflow: Workflow{
			CheckInterval: defaultCheckInterval,
			MaxParallel:   defaultMaxParallel,
		},
		Storage: Storage{
			Driver:     StorageSQLite,
			SQLitePath: defaultSQLitePath,
		},
		Redis: Redis{
			Addr:      defaultRedisAddr,
			KeyPrefix: defaultRedisKeyPrefix,
		},
		NATS: NATS{
			URL:           defaultNATSURL,
			SubjectPrefix: defaultNATSSubjectPrefix,
		},
		Meilisearch: Meilisearch{
			Host:  defaultMeilisearchHost,
			Index: defaultMeilisearchIndex,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Detections:     true,
			Errors:         true,
		},
		Dashboard: Dashboard{
			Bind: defaultDashboardBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
