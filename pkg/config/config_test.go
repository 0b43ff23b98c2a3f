package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warmboot.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Snapshot.Backend != BackendFile {
		t.Errorf("default backend = %q", cfg.Snapshot.Backend)
	}
	if cfg.Snapshot.Path == "" {
		t.Error("default snapshot path empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
snapshot:
  backend: redis
  redis:
    addr: 10.0.0.1:6379
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Snapshot.Backend != BackendRedis {
		t.Errorf("backend = %q, want redis", cfg.Snapshot.Backend)
	}
	if cfg.Snapshot.Redis.Addr != "10.0.0.1:6379" {
		t.Errorf("addr = %q", cfg.Snapshot.Redis.Addr)
	}
	// Unset keys keep their defaults
	if cfg.Snapshot.Redis.Key != "WARM_RESTART|switch_state" {
		t.Errorf("redis key lost its default: %q", cfg.Snapshot.Redis.Key)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log config = %+v", cfg.Log)
	}
}

func TestLoadFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad yaml", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "snapshot: [")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "snapshot:\n  backend: etcd\n")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad log format", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "log:\n  format: xml\n")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestValidateRedisBackend(t *testing.T) {
	cfg := Default()
	cfg.Snapshot.Backend = BackendRedis
	cfg.Snapshot.Redis.Addr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("redis backend without addr should fail validation")
	}
}
