package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testConfigYAML = `app:
  port: 3000
  gin_mode: debug
  base_url: http://localhost:3000
store:
  backend: memory
redis:
  addr: localhost:6379
  db: 1
discord:
  bot_token: file-token
recaptcha:
  site_key: file-site-key
twilio:
  from_number: "+15550000000"
verification:
  code_ttl: 10m
  resend_window: 90s
  phone_secret: file-secret
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("could not write test config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("expected port 3000, got %s", cfg.Port)
	}
	if cfg.StoreBackend != "memory" {
		t.Errorf("expected memory backend, got %s", cfg.StoreBackend)
	}
	if cfg.RedisDB != 1 {
		t.Errorf("expected redis db 1, got %d", cfg.RedisDB)
	}
	if cfg.CodeTTL != 10*time.Minute {
		t.Errorf("expected 10m code TTL, got %s", cfg.CodeTTL)
	}
	if cfg.ResendWindow != 90*time.Second {
		t.Errorf("expected 90s resend window, got %s", cfg.ResendWindow)
	}
	if cfg.PhoneSecret != "file-secret" {
		t.Errorf("expected the file phone secret, got %s", cfg.PhoneSecret)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	path := writeTestConfig(t, testConfigYAML)

	t.Setenv("PORT", "8080")
	t.Setenv("DISCORD_BOT_TOKEN", "env-token")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_DSN", "host=db user=bot dbname=verifybot")
	t.Setenv("PHONE_HASH_SECRET", "env-secret")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("PORT override lost, got %s", cfg.Port)
	}
	if cfg.DiscordToken != "env-token" {
		t.Errorf("DISCORD_BOT_TOKEN override lost, got %s", cfg.DiscordToken)
	}
	if cfg.StoreBackend != "postgres" {
		t.Errorf("STORE_BACKEND override lost, got %s", cfg.StoreBackend)
	}
	if cfg.DSN == "" {
		t.Error("DATABASE_DSN override lost")
	}
	if cfg.PhoneSecret != "env-secret" {
		t.Errorf("PHONE_HASH_SECRET override lost, got %s", cfg.PhoneSecret)
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	path := writeTestConfig(t, "app:\n  port: 3000\nstore:\n  backend: memory\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.CodeTTL != 5*time.Minute {
		t.Errorf("expected the 5m default code TTL, got %s", cfg.CodeTTL)
	}
	if cfg.ResendWindow != 60*time.Second {
		t.Errorf("expected the 60s default resend window, got %s", cfg.ResendWindow)
	}
}

func TestLoadFile_DefaultPort(t *testing.T) {
	path := writeTestConfig(t, "store:\n  backend: memory\n")
	t.Setenv("PORT", "")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("expected port to default to 3000, got %q", cfg.Port)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	bad := writeTestConfig(t, "store:\n  backend: cassandra\n")
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected an error for an unknown store backend")
	}

	badTTL := writeTestConfig(t, "verification:\n  code_ttl: soon\n")
	if _, err := LoadFile(badTTL); err == nil {
		t.Error("expected an error for an unparsable duration")
	}
}
