package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/config"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisErr    error
	redisOnce   sync.Once
)

func GetRedis(cfg *config.Config) (*redis.Client, error) {
	redisOnce.Do(func() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if redisErr = redisClient.Ping(ctx).Err(); redisErr != nil {
			logger.Log.WithError(redisErr).Error("Failed to connect to Redis")
			return
		}
		logger.Log.Info("Connected to Redis")
	})

	return redisClient, redisErr
}

func CloseRedis() error {
	if redisClient != nil {
		return redisClient.Close()
	}
	return nil
}
