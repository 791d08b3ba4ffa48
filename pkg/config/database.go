package config

import (
	"fmt"
)

// DatabaseConfig holds PostgreSQL database configuration
// This is shared across all services to avoid duplication
type DatabaseConfig struct {
	Host     string `env:"ECS_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"ECS_PG_PORT" env-default:"5432"`
	Database string `env:"ECS_PG_DATABASE" env-default:"ecs_db"`
	User     string `env:"ECS_PG_USER" env-default:"ecs"`
	Password string `env:"ECS_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"ECS_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// NewDatabaseConfigFromEnv creates a DatabaseConfig from environment variables
func NewDatabaseConfigFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Host:     GetEnvOrDefault("ECS_PG_HOST", "localhost"),
		Port:     GetEnvUint16("ECS_PG_PORT", 5432),
		Database: GetEnvOrDefault("ECS_PG_DATABASE", "ecs_db"),
		User:     GetEnvOrDefault("ECS_PG_USER", "ecs"),
		Password: GetEnvOrDefault("ECS_PG_PASSWORD", "pwd"),
		Schema:   GetEnvOrDefault("ECS_PG_SCHEMA", "public"),
	}
}
