package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stacgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
api:
  base_url: https://catalog.example.com
`

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.API.BaseURL != "https://catalog.example.com" {
		t.Errorf("base_url = %s", cfg.API.BaseURL)
	}
	// Defaults fill in everything else.
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Workers.Count != 8 || cfg.Workers.QueueSize != 64 {
		t.Errorf("workers = %+v", cfg.Workers)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %s", cfg.Database.Driver)
	}
	if len(cfg.Extensions) == 0 || cfg.Extensions[0] != "core" {
		t.Errorf("extensions = %v", cfg.Extensions)
	}
}

func TestLoadFull(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9000
api:
  base_url: https://catalog.example.com
  prefix: /api
cache:
  shared_directive: "public, max-age=120"
  catalogs: [landsat, sentinel]
identity:
  base_url: https://auth.example.com
  realm: stac
  client_id: stacgate
  client_secret: secret
logging:
  level: debug
  format: console
extensions:
  - core
  - transaction
  - pagination.page
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.API.Prefix != "/api" {
		t.Errorf("prefix = %s", cfg.API.Prefix)
	}
	if len(cfg.Cache.Catalogs) != 2 {
		t.Errorf("cache catalogs = %v", cfg.Cache.Catalogs)
	}
	if cfg.Identity.Realm != "stac" {
		t.Errorf("realm = %s", cfg.Identity.Realm)
	}
	if len(cfg.Extensions) != 3 {
		t.Errorf("extensions = %v", cfg.Extensions)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_STAC_BASE", "https://catalog.example.com")
	cfg, err := Load(writeConfig(t, `
api:
  base_url: ${TEST_STAC_BASE}
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.API.BaseURL != "https://catalog.example.com" {
		t.Errorf("base_url = %s", cfg.API.BaseURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("STACGATE_SERVER_PORT", "9999")
	t.Setenv("STACGATE_EXTENSIONS", "core, collection-search")

	cfg, err := Load(writeConfig(t, minimalConfig+`
server:
  port: 8080
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want env override 9999", cfg.Server.Port)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[1] != "collection-search" {
		t.Errorf("extensions = %v", cfg.Extensions)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STACGATE_API_BASE_URL", "https://catalog.example.com")
	t.Setenv("STACGATE_LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.API.BaseURL != "https://catalog.example.com" {
		t.Errorf("base_url = %s", cfg.API.BaseURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %s", cfg.Logging.Level)
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Setenv("STACGATE_API_BASE_URL", "")
	if _, err := LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file and env should fail")
	}

	t.Setenv("STACGATE_API_BASE_URL", "https://catalog.example.com")
	if _, err := LoadWithFallback(""); err != nil {
		t.Errorf("env fallback failed: %v", err)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errSub string
	}{
		{"missing base url", `logging: {level: info}`, "base_url"},
		{"relative base url", `api: {base_url: catalog.example.com}`, "absolute"},
		{"bad prefix", minimalConfig + `  prefix: api`, "prefix"},
		{"identity without realm", minimalConfig + `
identity:
  base_url: https://auth.example.com
  client_id: c
`, "realm"},
		{"unsupported driver", minimalConfig + `
database:
  driver: postgres
`, "driver"},
		{"duplicate extension", minimalConfig + `
extensions: [core, core]
`, "more than once"},
		{"missing core extension", minimalConfig + `
extensions: [transaction]
`, "core"},
		{"bad log level", minimalConfig + `
logging: {level: verbose}
`, "logging.level"},
		{"bad log format", minimalConfig + `
logging: {format: xml}
`, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("err = %v, want mention of %q", err, tt.errSub)
			}
		})
	}
}
