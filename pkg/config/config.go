// ==============================================================================
// CONFIG PACKAGE - pkg/config/config.go
// ==============================================================================
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Verifier    VerifierConfig
	RiskScoring RiskScoringConfig
	Sweep       SweepConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// VerifierConfig controls the external identity-bureau client. When UseStatic
// is set the service runs against the deterministic in-process verifier.
type VerifierConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UseStatic bool
}

// RiskScoringConfig carries the rule weights and level thresholds as plain
// data so compliance changes never require a logic change.
type RiskScoringConfig struct {
	FullNameWeight  int
	DOBWeight       int
	NINWeight       int
	BVNWeight       int
	EmailWeight     int
	LowThreshold    int
	MediumThreshold int
}

// SweepConfig controls the in-process expiry sweep loop. Interval 0 disables
// it (an external scheduler invoking cmd/sweep is expected instead).
type SweepConfig struct {
	Interval time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      normalizeRedisURL(getEnv("REDIS_URL", "localhost:6379")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "change-this-secret"),
			Expiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),
		},
		Verifier: VerifierConfig{
			BaseURL:   getEnv("VERIFIER_BASE_URL", "http://localhost:9100/api/v1/identity"),
			APIKey:    getEnv("VERIFIER_API_KEY", ""),
			Timeout:   getDurationEnv("VERIFIER_TIMEOUT", 5*time.Second),
			UseStatic: getBoolEnv("VERIFIER_USE_STATIC", false),
		},
		RiskScoring: RiskScoringConfig{
			FullNameWeight:  getIntEnv("RISK_WEIGHT_FULL_NAME", 10),
			DOBWeight:       getIntEnv("RISK_WEIGHT_DOB", 10),
			NINWeight:       getIntEnv("RISK_WEIGHT_NIN", 15),
			BVNWeight:       getIntEnv("RISK_WEIGHT_BVN", 15),
			EmailWeight:     getIntEnv("RISK_WEIGHT_EMAIL", 10),
			LowThreshold:    getIntEnv("RISK_THRESHOLD_LOW", 70),
			MediumThreshold: getIntEnv("RISK_THRESHOLD_MEDIUM", 40),
		},
		Sweep: SweepConfig{
			Interval: getDurationEnv("SWEEP_INTERVAL", 0),
		},
	}
}

// ValidateCore checks the settings every binary needs before starting.
func (c *Config) ValidateCore() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Verifier.Timeout <= 0 {
		return fmt.Errorf("VERIFIER_TIMEOUT must be positive")
	}
	if c.RiskScoring.LowThreshold < c.RiskScoring.MediumThreshold {
		return fmt.Errorf("RISK_THRESHOLD_LOW must not be below RISK_THRESHOLD_MEDIUM")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func normalizeRedisURL(url string) string {
	// Strip redis:// or redis+tls:// scheme if present
	if strings.HasPrefix(url, "redis+tls://") {
		return url[len("redis+tls://"):]
	}
	if strings.HasPrefix(url, "redis://") {
		return url[len("redis://"):]
	}
	return url
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultValue
}
