package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/config"
)

// OpenRedis connects the cache client. Callers that can live without
// the cache treat a nil client as disabled, so an unreachable Redis is
// an error here rather than a silent fallback.
func OpenRedis(ctx context.Context, rc *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
