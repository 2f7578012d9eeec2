package store

import (
	"fmt"

	"github.com/dyluth/ucm/internal/config"
	"github.com/dyluth/ucm/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Open builds the backend selected by cfg.Backend.
func Open(cfg *config.Config, log *logger.Logger) (Store, error) {
	if log == nil {
		log = logger.Nop()
	}

	switch cfg.Backend {
	case config.BackendLocal:
		return NewLocal(cfg.DataDir, log)
	case config.BackendNocoDB:
		return NewNocoDB(cfg.NocoDB, cfg.DataDir, log)
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return NewRedis(opts, cfg.Redis.Namespace, cfg.DataDir, log)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
