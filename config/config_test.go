package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `server:
  addr: ":9000"
  prom_port: 9100
auth:
  token: "secret"
data:
  dir: "/var/lib/classboard"
weather:
  host: "api.example.com"
  key: "wkey"
notifier:
  enabled: true
  mqtt:
    broker: "tcp://localhost:1883"
    client_id: "classboard"
    qos: 1
metrics:
  sinks:
    - type: "memory"
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"server.addr", cfg.Server.Addr, ":9000"},
		{"server.prom_port", cfg.Server.PromPort, 9100},
		{"auth.token", cfg.Auth.Token, "secret"},
		{"data.dir", cfg.Data.Dir, "/var/lib/classboard"},
		{"data.rules_db default", cfg.Data.RulesDB, filepath.Join("/var/lib/classboard", "autorun.db")},
		{"weather.host", cfg.Weather.Host, "api.example.com"},
		{"notifier.enabled", cfg.Notifier.Enabled, true},
		{"notifier.broker", cfg.Notifier.MQTT.Broker, "tcp://localhost:1883"},
		{"notifier.qos", cfg.Notifier.MQTT.QoS, byte(1)},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "memory", true},
		{"logging.level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadMissingToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing auth token")
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "auth:\n  token: \"secret\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CB_SERVER__ADDR", ":7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("env override ignored: got %s", cfg.Server.Addr)
	}
}
