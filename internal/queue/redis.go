package queue

import (
	"strings"

	"github.com/hibiken/asynq"

	"github.com/ehisj/CustomerAIAgent/internal/config"
)

// RedisOpt builds the asynq connection option from the same Redis
// settings the rest of the service uses. REDIS_URL may be a full URL or
// a plain host:port.
func RedisOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return asynq.ParseRedisURI(cfg.RedisURL)
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
