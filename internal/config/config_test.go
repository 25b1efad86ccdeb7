package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.STT.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected STT base URL: %q", cfg.STT.BaseURL)
	}
	if cfg.STT.BufferSize != 64 {
		t.Fatalf("unexpected stream buffer: %d", cfg.STT.BufferSize)
	}
	if cfg.CareAPI.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected API base URL: %q", cfg.CareAPI.BaseURL)
	}
	if cfg.CareAPI.Timeout != 10*time.Second {
		t.Fatalf("unexpected API timeout: %v", cfg.CareAPI.Timeout)
	}
	if cfg.Session.AlertTTL != 5*time.Second {
		t.Fatalf("unexpected alert TTL: %v", cfg.Session.AlertTTL)
	}
	if cfg.Session.DrainTimeout != 4*time.Second {
		t.Fatalf("unexpected drain timeout: %v", cfg.Session.DrainTimeout)
	}
	if cfg.Session.CustomerNo != 1 {
		t.Fatalf("unexpected customer no: %d", cfg.Session.CustomerNo)
	}
	if cfg.Session.BranchName != "서울지점" {
		t.Fatalf("unexpected branch name: %q", cfg.Session.BranchName)
	}
	if cfg.HTTP.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %q", cfg.HTTP.ListenAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CARELINE_STT_WS_BASE", "https://stt.internal:9443")
	t.Setenv("CARELINE_STREAM_BUFFER", "128")
	t.Setenv("CARELINE_API_BASE", "https://api.internal")
	t.Setenv("CARELINE_API_TIMEOUT_MS", "2500")
	t.Setenv("CARELINE_ALERT_TTL_MS", "3000")
	t.Setenv("CARELINE_DRAIN_TIMEOUT_MS", "1500")
	t.Setenv("CARELINE_CUSTOMER_NO", "42")
	t.Setenv("CARELINE_BRANCH_NAME", "부산지점")
	t.Setenv("CARELINE_LISTEN_ADDR", ":9090")

	cfg := Load()

	if cfg.STT.BaseURL != "https://stt.internal:9443" {
		t.Fatalf("override not applied: %q", cfg.STT.BaseURL)
	}
	if cfg.STT.BufferSize != 128 {
		t.Fatalf("override not applied: %d", cfg.STT.BufferSize)
	}
	if cfg.CareAPI.Timeout != 2500*time.Millisecond {
		t.Fatalf("override not applied: %v", cfg.CareAPI.Timeout)
	}
	if cfg.Session.AlertTTL != 3*time.Second {
		t.Fatalf("override not applied: %v", cfg.Session.AlertTTL)
	}
	if cfg.Session.DrainTimeout != 1500*time.Millisecond {
		t.Fatalf("override not applied: %v", cfg.Session.DrainTimeout)
	}
	if cfg.Session.CustomerNo != 42 {
		t.Fatalf("override not applied: %d", cfg.Session.CustomerNo)
	}
	if cfg.Session.BranchName != "부산지점" {
		t.Fatalf("override not applied: %q", cfg.Session.BranchName)
	}
	if cfg.HTTP.ListenAddr != ":9090" {
		t.Fatalf("override not applied: %q", cfg.HTTP.ListenAddr)
	}
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Setenv("CARELINE_STREAM_BUFFER", "-5")
	t.Setenv("CARELINE_ALERT_TTL_MS", "0")
	t.Setenv("CARELINE_DRAIN_TIMEOUT_MS", "not-a-number")
	t.Setenv("CARELINE_CUSTOMER_NO", "-1")

	cfg := Load()

	if cfg.STT.BufferSize != 64 {
		t.Fatalf("buffer not clamped: %d", cfg.STT.BufferSize)
	}
	if cfg.Session.AlertTTL != 5*time.Second {
		t.Fatalf("alert TTL not clamped: %v", cfg.Session.AlertTTL)
	}
	if cfg.Session.DrainTimeout != 4*time.Second {
		t.Fatalf("drain timeout not clamped: %v", cfg.Session.DrainTimeout)
	}
	if cfg.Session.CustomerNo != 1 {
		t.Fatalf("customer no not clamped: %d", cfg.Session.CustomerNo)
	}
}
