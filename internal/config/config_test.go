package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
server:
  host: 127.0.0.1
  port: 8080
database:
  host: localhost
  port: 5432
  name: liftplan
  user: liftplan
  password: secret
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "liftplan" {
		t.Errorf("database name = %q, want %q", cfg.Database.Name, "liftplan")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LIFTPLAN_DB_PASSWORD", "from-env")
	t.Setenv("LIFTPLAN_SERVER_PORT", "9999")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("password = %q, want env override", cfg.Database.Password)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want env override 9999", cfg.Server.Port)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{
			name: "missing port without tailscale",
			config: `
database:
  host: localhost
  port: 5432
  name: liftplan
  user: liftplan
`,
		},
		{
			name: "missing database host",
			config: `
server:
  port: 8080
database:
  port: 5432
  name: liftplan
  user: liftplan
`,
		},
		{
			name: "tailscale without hostname",
			config: `
database:
  host: localhost
  port: 5432
  name: liftplan
  user: liftplan
tailscale:
  enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.config)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestTailscaleNoPortOK(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  host: localhost
  port: 5432
  name: liftplan
  user: liftplan
tailscale:
  enabled: true
  hostname: liftplan
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Tailscale.Enabled {
		t.Error("tailscale should be enabled")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "liftplan", User: "app", Password: "pw"}
	want := "postgres://app:pw@db:5432/liftplan?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
