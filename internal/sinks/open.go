package sinks

import (
	"context"
	"log/slog"

	"mapwatch/internal/config"
	"mapwatch/internal/logging"
	"mapwatch/internal/services"
)

// Secondaries holds the enabled secondary sinks. Board is nil unless Redis is enabled.
type Secondaries struct {
	Publishers []Publisher
	Board      *RedisBoard
}

// OpenSecondaries connects every secondary sink enabled in cfg. A sink that
// cannot be reached is logged and left out.
func OpenSecondaries(ctx context.Context, cfg *config.Config, logger *slog.Logger) Secondaries {
	logger = logging.NewComponentLogger(logger, "sinks")
	var out Secondaries
	if cfg == nil {
		return out
	}

	if cfg.Redis.Enabled {
		board, err := DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
		if err != nil {
			logging.WarnWithContext(logger, "redis sink disabled", services.EventType(err),
				logging.String("addr", cfg.Redis.Addr),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check redis.addr and that the server is running"),
				logging.String(logging.FieldImpact, "latest-map board will not be updated"),
			)
		} else {
			out.Board = board
			out.Publishers = append(out.Publishers, board)
		}
	}

	if cfg.NATS.Enabled {
		pub, err := DialNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix, cfg.NATS.JetStream, logger)
		if err != nil {
			logging.WarnWithContext(logger, "nats sink disabled", services.EventType(err),
				logging.String("url", cfg.NATS.URL),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check nats.url and that the server is running"),
				logging.String(logging.FieldImpact, "detection events will not be published"),
			)
		} else {
			out.Publishers = append(out.Publishers, pub)
		}
	}

	if cfg.Meilisearch.Enabled {
		out.Publishers = append(out.Publishers,
			NewSearchIndexer(cfg.Meilisearch.Host, cfg.Meilisearch.APIKey, cfg.Meilisearch.Index, logger))
	}

	names := make([]string, 0, len(out.Publishers))
	for _, p := range out.Publishers {
		names = append(names, p.Name())
	}
	logger.Info("secondary sinks ready", logging.Any("sinks", names))
	return out
}
