package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	APIKeys   APIKeyConfig    `json:"api_keys"`
	JWT       JWTConfig       `json:"jwt"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
}

type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Quota applied per API key on the public API
type RateLimitConfig struct {
	Limit         int    `json:"limit"`
	WindowSeconds int    `json:"window_seconds"`
	Algorithm     string `json:"algorithm"` // "fixed_window" or "sliding_window"
}

type APIKeyConfig struct {
	Prefix      string `json:"prefix"`
	SecretBytes int    `json:"secret_bytes"`
}

type JWTConfig struct {
	Secret      string `json:"secret"`
	ExpiryHours int    `json:"expiry_hours"`
}

func Load(path string) (*Config, error) {
	config := defaults()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()

	return config, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		RateLimit: RateLimitConfig{
			Limit:         1000,
			WindowSeconds: 3600,
			Algorithm:     "fixed_window",
		},
		APIKeys: APIKeyConfig{
			Prefix:      "ink_",
			SecretBytes: 32,
		},
		JWT: JWTConfig{
			ExpiryHours: 24,
		},
	}
}

// Secrets come from the environment, never the config file
func (c *Config) applyEnv() {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			c.Redis.DB = n
		}
	}
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}
