package config

import (
	"os"
	"strconv"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	ServiceName string
	Env         string
	LogFile     string
	LogLevel    zapcore.Level

	MetricsNamespace string

	BusBuffer      int
	BusConcurrency int
}

// Load reads the configuration from the environment. Unset or malformed
// values fall back to the defaults.
func Load() Config {
	return Config{
		ServiceName:      getEnv("SERVICE_NAME", "minishop"),
		Env:              getEnv("ENV", "dev"),
		LogFile:          os.Getenv("LOG_FILE"),
		LogLevel:         getEnvLevel("LOG_LEVEL", zapcore.InfoLevel),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "minishop"),
		BusBuffer:        getEnvInt("BUS_BUFFER", 1024),
		BusConcurrency:   getEnvInt("BUS_CONCURRENCY", 8),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getEnvLevel(key string, def zapcore.Level) zapcore.Level {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	lvl, err := zapcore.ParseLevel(v)
	if err != nil {
		return def
	}
	return lvl
}
