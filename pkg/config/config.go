package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Gumroad downloader
type Config struct {
	// Gumroad session credentials and endpoint
	Gumroad GumroadConfig `yaml:"gumroad" json:"gumroad"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// GumroadConfig holds the session cookies and base endpoint
type GumroadConfig struct {
	AppSession     string        `yaml:"app_session" json:"app_session"`
	GUID           string        `yaml:"guid" json:"guid"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output directory and naming configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`

	// ProductFolderTemplate names the per-product folder. Recognized
	// placeholders: {product_name}, {purchase_at}, {uploaded_at}, {price}.
	ProductFolderTemplate string `yaml:"product_folder_template" json:"product_folder_template"`

	// NameReplacement substitutes filesystem-disallowed characters in
	// creator, product, folder and file names.
	NameReplacement string `yaml:"name_replacement" json:"name_replacement"`

	CacheFile string `yaml:"cache_file" json:"cache_file"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ChunkSize       int           `yaml:"chunk_size" json:"chunk_size"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Gumroad: GumroadConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			BaseURL:        "https://app.gumroad.com",
			RequestTimeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Output: OutputConfig{
			BaseDirectory:         ".",
			ProductFolderTemplate: "{product_name}",
			NameReplacement:       "_",
			CacheFile:             "gumdl.cache",
		},
		Download: DownloadConfig{
			ChunkSize:       4096,
			DownloadTimeout: 0, // streams may legitimately run for a long time
			MaxRetries:      3,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if appSession := os.Getenv("GUMDL_APP_SESSION"); appSession != "" {
		c.Gumroad.AppSession = appSession
	}
	if guid := os.Getenv("GUMDL_GUID"); guid != "" {
		c.Gumroad.GUID = guid
	}
	if userAgent := os.Getenv("GUMDL_USER_AGENT"); userAgent != "" {
		c.Gumroad.UserAgent = userAgent
	}
	if baseURL := os.Getenv("GUMDL_BASE_URL"); baseURL != "" {
		c.Gumroad.BaseURL = baseURL
	}

	if rpm := os.Getenv("GUMDL_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if outputDir := os.Getenv("GUMDL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if tmpl := os.Getenv("GUMDL_FOLDER_TEMPLATE"); tmpl != "" {
		c.Output.ProductFolderTemplate = tmpl
	}

	if logLevel := os.Getenv("GUMDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".gumdl.yaml",
		".gumdl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "gumdl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "gumdl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".gumdl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// disallowedNameChars mirrors paths.SanitizeName; the replacement string must
// not reintroduce any of them or sanitization stops being idempotent.
const disallowedNameChars = `<>:"/\|?*`

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Gumroad.BaseURL == "" {
		errs = append(errs, errors.New("gumroad base URL is required"))
	}
	if c.Gumroad.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.ProductFolderTemplate == "" {
		errs = append(errs, errors.New("product folder template is required"))
	}
	if strings.ContainsAny(c.Output.NameReplacement, disallowedNameChars) {
		errs = append(errs, errors.New("name replacement must not contain filesystem-disallowed characters"))
	}
	if c.Output.CacheFile == "" {
		errs = append(errs, errors.New("cache file path is required"))
	}

	if c.Download.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if c.Download.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if appSession, ok := flags["app-session"].(string); ok && appSession != "" {
		c.Gumroad.AppSession = appSession
	}
	if guid, ok := flags["guid"].(string); ok && guid != "" {
		c.Gumroad.GUID = guid
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if tmpl, ok := flags["folder-template"].(string); ok && tmpl != "" {
		c.Output.ProductFolderTemplate = tmpl
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".gumdl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
