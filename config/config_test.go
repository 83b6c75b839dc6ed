package config

import "testing"

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.Registry.Bind != "127.0.0.1:7001" {
		t.Fatalf("unexpected default registry bind: %s", d.Registry.Bind)
	}
	if d.Qos.BufferDepth != 1024 {
		t.Fatalf("unexpected default buffer depth: %d", d.Qos.BufferDepth)
	}
}

func TestHeartbeatIntervalDefaultsToTtlOverThree(t *testing.T) {
	c := Config{Publisher: PublisherConfig{TtlSecs: 60}}
	if c.HeartbeatInterval().Seconds() != 20 {
		t.Fatalf("expected 20s heartbeat interval, got %v", c.HeartbeatInterval())
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.ConnectMaxAttempts != 10 {
		t.Fatalf("expected default connect_max_attempts 10, got %d", cfg.Client.ConnectMaxAttempts)
	}
}
