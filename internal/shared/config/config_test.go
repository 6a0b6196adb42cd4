package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "commitment-service")

	cfg := Load()

	if cfg.Env != "local" {
		t.Errorf("Env = %q, want local", cfg.Env)
	}
	if cfg.HTTPPort != "8083" || cfg.MetricsPort != "9099" {
		t.Errorf("ports = %s/%s, want 8083/9099", cfg.HTTPPort, cfg.MetricsPort)
	}
	if cfg.AdminPort != "8183" {
		t.Errorf("AdminPort = %q, want 8183", cfg.AdminPort)
	}
	if !reflect.DeepEqual(cfg.AllowedDurations, []int{7, 30, 90}) {
		t.Errorf("AllowedDurations = %v", cfg.AllowedDurations)
	}
	if cfg.OnTrackThreshold != 75 {
		t.Errorf("OnTrackThreshold = %v, want 75", cfg.OnTrackThreshold)
	}
	if cfg.GatewayTimeout != 2*time.Second {
		t.Errorf("GatewayTimeout = %v, want 2s", cfg.GatewayTimeout)
	}
	if cfg.TopicBetSettled != "bet_settled" {
		t.Errorf("TopicBetSettled = %q", cfg.TopicBetSettled)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "settlement-worker")
	t.Setenv("METRICS_PORT_SETTLEMENT", "9300")
	t.Setenv("ALLOWED_DURATIONS", "14, 60,x,-1")
	t.Setenv("FINDATA_TIMEOUT", "750ms")
	t.Setenv("STORE", "MEMORY")

	cfg := Load()

	if cfg.MetricsPort != "9300" {
		t.Errorf("MetricsPort = %q, want 9300", cfg.MetricsPort)
	}
	if cfg.HTTPPort != "" {
		t.Errorf("HTTPPort = %q, want empty", cfg.HTTPPort)
	}
	if !reflect.DeepEqual(cfg.AllowedDurations, []int{14, 60}) {
		t.Errorf("AllowedDurations = %v, want [14 60]", cfg.AllowedDurations)
	}
	if cfg.FinDataTimeout != 750*time.Millisecond {
		t.Errorf("FinDataTimeout = %v", cfg.FinDataTimeout)
	}
	if cfg.Store != "memory" {
		t.Errorf("Store = %q, want memory", cfg.Store)
	}
}

func TestLoadService_FallbackName(t *testing.T) {
	cfg := LoadService("payment-gateway")
	if cfg.ServiceName != "payment-gateway" || cfg.HTTPPort != "8082" || cfg.MetricsPort != "9098" {
		t.Errorf("cfg = %s %s/%s", cfg.ServiceName, cfg.HTTPPort, cfg.MetricsPort)
	}

	t.Setenv("SERVICE_NAME", "leaderboard-worker")
	cfg = LoadService("payment-gateway")
	if cfg.ServiceName != "leaderboard-worker" || cfg.HTTPPort != "8084" {
		t.Errorf("SERVICE_NAME must win: %s %s", cfg.ServiceName, cfg.HTTPPort)
	}
}
