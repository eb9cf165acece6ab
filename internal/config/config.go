package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the Reserve server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Schedule ScheduleConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// ScheduleConfig tunes the scheduling engine and tenant resolver.
type ScheduleConfig struct {
	// ModificationNotice is the minimum lead time before a reservation's
	// current start required to modify it.
	ModificationNotice time.Duration
	// TenantCacheTTL bounds staleness of cached tenant resolutions.
	TenantCacheTTL time.Duration
	// LockTimeout caps how long an operation waits for a resource lock.
	LockTimeout time.Duration
	// RateLimitPerMin is the per-tenant request budget.
	RateLimitPerMin int
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value
// is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("RESERVE_PORT", 8080),
			Env:  envString("RESERVE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Schedule: ScheduleConfig{
			ModificationNotice: envDuration("SCHEDULE_MODIFICATION_NOTICE", 24*time.Hour),
			TenantCacheTTL:     envDuration("TENANT_CACHE_TTL", 5*time.Minute),
			LockTimeout:        envDuration("SCHEDULE_LOCK_TIMEOUT", 5*time.Second),
			RateLimitPerMin:    envInt("RATE_LIMIT_PER_MIN", 120),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Schedule.ModificationNotice <= 0 {
		return fmt.Errorf("SCHEDULE_MODIFICATION_NOTICE must be positive, got %s", c.Schedule.ModificationNotice)
	}
	if c.Schedule.TenantCacheTTL <= 0 {
		return fmt.Errorf("TENANT_CACHE_TTL must be positive, got %s", c.Schedule.TenantCacheTTL)
	}
	if c.Schedule.LockTimeout <= 0 {
		return fmt.Errorf("SCHEDULE_LOCK_TIMEOUT must be positive, got %s", c.Schedule.LockTimeout)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
