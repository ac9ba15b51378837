package config

import (
	"fmt"
	"os"
)

// Config holds every environment-driven setting used by the binaries.
type Config struct {
	Bucket   BucketConfiguration
	Database DatabaseConfiguration
	Redis    RedisConfiguration
	Server   ServerConfiguration
}

// Redis configuration struct.
type RedisConfiguration struct {
	Host     string
	Port     string
	Password string
}

// Database configuration struct.
type DatabaseConfiguration struct {
	DSN            string
	Name           string
	MigrationsPath string
}

// Bucket configuration for the job log uploads.
type BucketConfiguration struct {
	AccessKey    string
	AccessSecret string
	Endpoint     string
	LogBucket    string
	Region       string
}

// Server configuration for the HTTP API.
type ServerConfiguration struct {
	Port string
}

// Load the variables from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Bucket: BucketConfiguration{
			AccessKey:    os.Getenv("BUCKET_ACCESS_KEY"),
			AccessSecret: os.Getenv("BUCKET_ACCESS_SECRET"),
			Endpoint:     os.Getenv("BUCKET_ENDPOINT"),
			LogBucket:    os.Getenv("BUCKET_LOG_NAME"),
			Region:       os.Getenv("BUCKET_REGION"),
		},
		Database: DatabaseConfiguration{
			DSN:            os.Getenv("DATABASE_URL"),
			Name:           os.Getenv("DATABASE_NAME"),
			MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		},
		Redis: RedisConfiguration{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     os.Getenv("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Server: ServerConfiguration{
			Port: os.Getenv("SERVER_PORT"),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}

	return cfg, nil
}
