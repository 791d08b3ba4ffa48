package config

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings for the session store
type RedisConfig struct {
	Host     string `env:"ECS_REDIS_HOST" env-default:"localhost"`
	Port     uint16 `env:"ECS_REDIS_PORT" env-default:"6379"`
	Password string `env:"ECS_REDIS_PASSWORD" env-default:""`
	DB       int    `env:"ECS_REDIS_DB" env-default:"0"`
}

// ToOptions converts the config to go-redis client options
func (r RedisConfig) ToOptions() *redis.Options {
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", r.Host, r.Port),
		Password: r.Password,
		DB:       r.DB,
	}
}

// NewRedisConfigFromEnv creates a RedisConfig from environment variables
func NewRedisConfigFromEnv() RedisConfig {
	return RedisConfig{
		Host:     GetEnvOrDefault("ECS_REDIS_HOST", "localhost"),
		Port:     GetEnvUint16("ECS_REDIS_PORT", 6379),
		Password: GetEnv("ECS_REDIS_PASSWORD"),
		DB:       GetEnvInt("ECS_REDIS_DB", 0),
	}
}
