package redis

import (
	"context"
	"fmt"
	"time"

	"webchat/config"
	"webchat/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// NewClient connects to the session Redis. It returns nil, nil when Redis is
// disabled, in which case sessions stay in process memory.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,

		// one hash read per authenticated request; a small pool is plenty
		PoolSize:     4,
		MinIdleConns: 1,
		PoolTimeout:  2 * time.Second,

		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,

		ConnMaxIdleTime: 5 * time.Minute,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	logger.WithFields(map[string]any{
		"address": cfg.Address,
		"db":      cfg.DB,
	}).Info("Connected to Redis")
	return client, nil
}
