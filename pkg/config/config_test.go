package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Gumroad.BaseURL != "https://app.gumroad.com" {
		t.Errorf("unexpected base URL: %s", cfg.Gumroad.BaseURL)
	}
	if cfg.Gumroad.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected request timeout: %s", cfg.Gumroad.RequestTimeout)
	}
	if cfg.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("unexpected rate limit: %d", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Output.ProductFolderTemplate != "{product_name}" {
		t.Errorf("unexpected folder template: %s", cfg.Output.ProductFolderTemplate)
	}
	if cfg.Output.NameReplacement != "_" {
		t.Errorf("unexpected name replacement: %s", cfg.Output.NameReplacement)
	}
	if cfg.Download.ChunkSize != 4096 {
		t.Errorf("unexpected chunk size: %d", cfg.Download.ChunkSize)
	}
	if cfg.Download.DownloadTimeout != 0 {
		t.Errorf("download timeout should default to unlimited, got %s", cfg.Download.DownloadTimeout)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GUMDL_APP_SESSION", "env-session")
	t.Setenv("GUMDL_GUID", "env-guid")
	t.Setenv("GUMDL_OUTPUT_DIR", "/tmp/env-out")
	t.Setenv("GUMDL_FOLDER_TEMPLATE", "{purchase_at} {product_name}")
	t.Setenv("GUMDL_REQUESTS_PER_MINUTE", "30")
	t.Setenv("GUMDL_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Gumroad.AppSession != "env-session" {
		t.Errorf("app session not loaded: %s", cfg.Gumroad.AppSession)
	}
	if cfg.Gumroad.GUID != "env-guid" {
		t.Errorf("guid not loaded: %s", cfg.Gumroad.GUID)
	}
	if cfg.Output.BaseDirectory != "/tmp/env-out" {
		t.Errorf("output dir not loaded: %s", cfg.Output.BaseDirectory)
	}
	if cfg.Output.ProductFolderTemplate != "{purchase_at} {product_name}" {
		t.Errorf("folder template not loaded: %s", cfg.Output.ProductFolderTemplate)
	}
	if cfg.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("rate limit not loaded: %d", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level not loaded: %s", cfg.Logging.Level)
	}
}

func TestLoadFromEnvIgnoresInvalidRateLimit(t *testing.T) {
	t.Setenv("GUMDL_REQUESTS_PER_MINUTE", "not-a-number")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("invalid env value should keep default, got %d", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `gumroad:
  app_session: file-session
  guid: file-guid
rate_limit:
  requests_per_minute: 10
output:
  base_directory: /tmp/file-out
  cache_file: custom.cache
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Gumroad.AppSession != "file-session" {
		t.Errorf("app session not loaded: %s", cfg.Gumroad.AppSession)
	}
	if cfg.RateLimit.RequestsPerMinute != 10 {
		t.Errorf("rate limit not loaded: %d", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Output.CacheFile != "custom.cache" {
		t.Errorf("cache file not loaded: %s", cfg.Output.CacheFile)
	}
	// Fields the file omits keep their defaults
	if cfg.Gumroad.BaseURL != "https://app.gumroad.com" {
		t.Errorf("base URL should keep default, got %s", cfg.Gumroad.BaseURL)
	}
	if cfg.Output.ProductFolderTemplate != "{product_name}" {
		t.Errorf("folder template should keep default, got %s", cfg.Output.ProductFolderTemplate)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Error("explicit missing config file should be an error")
	}
}

func TestLoadFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("gumroad: [not a mapping"), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err == nil {
		t.Error("malformed config file should be an error")
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gumroad.AppSession = "from-env"

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"app-session":     "from-flag",
		"output":          "/tmp/flag-out",
		"folder-template": "{price} {product_name}",
		"rate-limit":      5,
		"log-level":       "error",
	})

	if cfg.Gumroad.AppSession != "from-flag" {
		t.Errorf("flag should win over earlier source, got %s", cfg.Gumroad.AppSession)
	}
	if cfg.Output.BaseDirectory != "/tmp/flag-out" {
		t.Errorf("output flag not merged: %s", cfg.Output.BaseDirectory)
	}
	if cfg.Output.ProductFolderTemplate != "{price} {product_name}" {
		t.Errorf("template flag not merged: %s", cfg.Output.ProductFolderTemplate)
	}
	if cfg.RateLimit.RequestsPerMinute != 5 {
		t.Errorf("rate limit flag not merged: %d", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("log level flag not merged: %s", cfg.Logging.Level)
	}
}

func TestMergeCommandLineFlagsEmptyIgnored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.BaseDirectory = "/keep/me"

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":     "",
		"rate-limit": 0,
	})

	if cfg.Output.BaseDirectory != "/keep/me" {
		t.Errorf("empty flag should be ignored, got %s", cfg.Output.BaseDirectory)
	}
	if cfg.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("zero rate limit flag should be ignored, got %d", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"missing base URL", func(c *Config) { c.Gumroad.BaseURL = "" }, true},
		{"zero request timeout", func(c *Config) { c.Gumroad.RequestTimeout = 0 }, true},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, true},
		{"missing output dir", func(c *Config) { c.Output.BaseDirectory = "" }, true},
		{"missing folder template", func(c *Config) { c.Output.ProductFolderTemplate = "" }, true},
		{"replacement with disallowed char", func(c *Config) { c.Output.NameReplacement = "/" }, true},
		{"replacement may be empty", func(c *Config) { c.Output.NameReplacement = "" }, false},
		{"missing cache file", func(c *Config) { c.Output.CacheFile = "" }, true},
		{"zero chunk size", func(c *Config) { c.Download.ChunkSize = 0 }, true},
		{"negative retries", func(c *Config) { c.Download.MaxRetries = -1 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"log level case insensitive", func(c *Config) { c.Logging.Level = "DEBUG" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Output.BaseDirectory = "/tmp/saved"
	cfg.RateLimit.RequestsPerMinute = 12

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := DefaultConfig()
	if err := reloaded.LoadFromFile(path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Output.BaseDirectory != "/tmp/saved" {
		t.Errorf("output dir not round-tripped: %s", reloaded.Output.BaseDirectory)
	}
	if reloaded.RateLimit.RequestsPerMinute != 12 {
		t.Errorf("rate limit not round-tripped: %d", reloaded.RateLimit.RequestsPerMinute)
	}
}
