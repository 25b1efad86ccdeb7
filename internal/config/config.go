package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the monitoring pipeline.
type Config struct {
	STT     STTConfig
	CareAPI CareAPIConfig
	Session SessionConfig
	HTTP    HTTPConfig
}

type STTConfig struct {
	BaseURL    string
	BufferSize int
}

type CareAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	AlertTTL     time.Duration
	DrainTimeout time.Duration
	CustomerNo   int
	BranchName   string
}

type HTTPConfig struct {
	ListenAddr string
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() Config {
	cfg := Config{
		STT: STTConfig{
			BaseURL:    envOrDefault("CARELINE_STT_WS_BASE", "http://localhost:8000"),
			BufferSize: envOrDefaultInt("CARELINE_STREAM_BUFFER", 64),
		},
		CareAPI: CareAPIConfig{
			BaseURL: envOrDefault("CARELINE_API_BASE", "http://localhost:8000"),
			Timeout: time.Duration(envOrDefaultInt("CARELINE_API_TIMEOUT_MS", 10000)) * time.Millisecond,
		},
		Session: SessionConfig{
			AlertTTL:     time.Duration(envOrDefaultInt("CARELINE_ALERT_TTL_MS", 5000)) * time.Millisecond,
			DrainTimeout: time.Duration(envOrDefaultInt("CARELINE_DRAIN_TIMEOUT_MS", 4000)) * time.Millisecond,
			CustomerNo:   envOrDefaultInt("CARELINE_CUSTOMER_NO", 1),
			BranchName:   envOrDefault("CARELINE_BRANCH_NAME", "서울지점"),
		},
		HTTP: HTTPConfig{
			ListenAddr: envOrDefault("CARELINE_LISTEN_ADDR", ":8080"),
		},
	}

	if cfg.STT.BufferSize <= 0 {
		cfg.STT.BufferSize = 64
	}
	if cfg.Session.AlertTTL <= 0 {
		cfg.Session.AlertTTL = 5000 * time.Millisecond
	}
	if cfg.Session.DrainTimeout <= 0 {
		cfg.Session.DrainTimeout = 4000 * time.Millisecond
	}
	if cfg.Session.CustomerNo <= 0 {
		cfg.Session.CustomerNo = 1
	}

	return cfg
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
