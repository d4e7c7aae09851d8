package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	TCPPort     string
	WSPort      string
	MetricsPort string
	RedisAddr   string
	RedisDB     int
	ProxyAddr   string
	LogLevel    string

	MaxRecordBytes int
	IdleTimeout    time.Duration
}

func Load() Config {
	return Config{
		TCPPort:        getEnv("TCP_PORT", "8001"),
		WSPort:         getEnv("WS_PORT", "8080"),
		MetricsPort:    getEnv("METRICS_PORT", "9000"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		ProxyAddr:      getEnv("PROXY_ADDR", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MaxRecordBytes: getEnvInt("MAX_RECORD_BYTES", 4096),
		IdleTimeout:    getEnvDuration("READ_IDLE_TIMEOUT", 0),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
