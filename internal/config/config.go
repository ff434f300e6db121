package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	DynamoDB  DynamoDBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogLevel     string
}

type DynamoDBConfig struct {
	Endpoint  string
	Region    string
	TableName string
}

type RedisConfig struct {
	Endpoint string
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecretKey  string
	RefreshSecretKey string
	AccessExpiry     time.Duration
	RefreshExpiry    time.Duration
}

type RateLimitConfig struct {
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			LogLevel:     getEnv("LOG_LEVEL", "info"),
		},
		DynamoDB: DynamoDBConfig{
			Endpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
			Region:    getEnv("DYNAMODB_REGION", "us-east-1"),
			TableName: getEnv("DYNAMODB_TABLE_NAME", "UserbaseTable"),
		},
		Redis: RedisConfig{
			Endpoint: getEnv("REDIS_ENDPOINT", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecretKey:  getEnv("JWT_ACCESS_SECRET_KEY", ""),
			RefreshSecretKey: getEnv("JWT_REFRESH_SECRET_KEY", ""),
			AccessExpiry:     getEnvAsDuration("JWT_ACCESS_EXPIRY", time.Hour),
			RefreshExpiry:    getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			LoginMaxAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 10),
			LoginWindow:      getEnvAsDuration("LOGIN_WINDOW", 15*time.Minute),
		},
	}

	if cfg.JWT.AccessSecretKey == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET_KEY environment variable is required")
	}

	if cfg.JWT.RefreshSecretKey == "" {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET_KEY environment variable is required")
	}

	if len(cfg.JWT.AccessSecretKey) < 32 {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET_KEY must be at least 32 bytes (256 bits)")
	}

	if len(cfg.JWT.RefreshSecretKey) < 32 {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET_KEY must be at least 32 bytes (256 bits)")
	}

	// A shared key would let an access token pass refresh verification.
	if cfg.JWT.AccessSecretKey == cfg.JWT.RefreshSecretKey {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET_KEY and JWT_REFRESH_SECRET_KEY must differ")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
