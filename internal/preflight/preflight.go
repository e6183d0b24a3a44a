package preflight

import (
	"context"

	"mapwatch/internal/config"
)

// minFreeBytes is the free space required under the frames directory.
const minFreeBytes = 512 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CredentialChecker validates remote API credentials.
type CredentialChecker interface {
	CheckCredentials(ctx context.Context) error
}

// RunAll executes all applicable preflight checks for the given config.
// The Twitch check is skipped when twitch is nil.
func RunAll(ctx context.Context, cfg *config.Config, twitch CredentialChecker) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Frames directory", cfg.Paths.FramesDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDiskSpace("Frames disk space", cfg.Paths.FramesDir, minFreeBytes))

	if twitch != nil {
		results = append(results, CheckTwitch(ctx, twitch))
	}

	if cfg.Storage.Driver == config.StoragePostgres {
		results = append(results, CheckEndpoint(ctx, "PostgreSQL", cfg.Storage.DatabaseURL))
	}
	if cfg.Redis.Enabled {
		results = append(results, CheckEndpoint(ctx, "Redis", cfg.Redis.Addr))
	}
	if cfg.NATS.Enabled {
		results = append(results, CheckEndpoint(ctx, "NATS", cfg.NATS.URL))
	}
	if cfg.Meilisearch.Enabled {
		results = append(results, CheckEndpoint(ctx, "Meilisearch", cfg.Meilisearch.Host))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
