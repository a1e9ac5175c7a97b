// Package config loads service configuration from the environment,
// optionally pre-populated from a local .env file the way
// agentic-shell's cmd/agsh/main.go does with godotenv.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything cmd/server needs to stand up the service.
type Config struct {
	Addr             string // e.g. "127.0.0.1:8080"
	TrafficAPIKey    string // empty disables the live-traffic provider
	AnomalyLogPath   string
	ALNSIterations   int
}

// Load reads configuration from the environment, first loading a
// ".env" file if one is present (errors loading it are not fatal —
// the file is optional in every deployment the teacher pack shows).
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[CONFIG] no .env file loaded: %v", err)
	}

	cfg := Config{
		Addr:           getEnv("OPTIMILE_ADDR", "127.0.0.1:8080"),
		TrafficAPIKey:  os.Getenv("OPTIMILE_TRAFFIC_API_KEY"),
		AnomalyLogPath: getEnv("OPTIMILE_ANOMALY_LOG_PATH", "optimile_anomalies.ndjson"),
		ALNSIterations: getEnvInt("OPTIMILE_ALNS_ITERS", 400),
	}

	log.Printf("[CONFIG] addr=%s anomaly_log=%s alns_iters=%d traffic_provider=%v",
		cfg.Addr, cfg.AnomalyLogPath, cfg.ALNSIterations, cfg.TrafficAPIKey != "")

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[CONFIG] invalid int for %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
