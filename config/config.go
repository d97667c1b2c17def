package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Device   DeviceConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file path
}

type JWTConfig struct {
	Secret string
	Expiry string
}

// DeviceConfig controls how the backend talks to compute unit AI
// services.
type DeviceConfig struct {
	DefaultPort     string
	PingTimeout     time.Duration
	FetchTimeout    time.Duration
	MonitorInterval time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8001"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "virtue_admin"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "virtue_admin.db"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "jwt-secret-change-in-production"),
			Expiry: getEnv("JWT_EXPIRY", "8h"),
		},
		Device: DeviceConfig{
			DefaultPort:     getEnv("DEVICE_DEFAULT_PORT", "8000"),
			PingTimeout:     getEnvDuration("DEVICE_PING_TIMEOUT", 5*time.Second),
			FetchTimeout:    getEnvDuration("DEVICE_FETCH_TIMEOUT", 10*time.Second),
			MonitorInterval: getEnvDuration("DEVICE_MONITOR_INTERVAL", 30*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
