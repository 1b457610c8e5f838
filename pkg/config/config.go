package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the tool reads
const EnvPrefix = "TGBULKDL_"

// Config holds all configuration options for the bulk downloader
type Config struct {
	// Telegram API and gateway settings
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`

	// Durable state location
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Pagination and download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration for gateway calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TelegramConfig holds the API credentials and gateway endpoint
type TelegramConfig struct {
	APIID      int           `yaml:"api_id" json:"api_id"`
	APIHash    string        `yaml:"api_hash" json:"api_hash"`
	GatewayURL string        `yaml:"gateway_url" json:"gateway_url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// StorageConfig points at the SQLite file holding credentials and job state
type StorageConfig struct {
	Path string `yaml:"path" json:"path"`
}

// DownloadConfig holds pagination settings
type DownloadConfig struct {
	PageSize int  `yaml:"page_size" json:"page_size"`
	Progress bool `yaml:"progress" json:"progress"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds backoff settings for transient gateway failures
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			GatewayURL: "http://127.0.0.1:8081",
			Timeout:    60 * time.Second,
		},
		Storage: StorageConfig{
			Path: "",
		},
		Download: DownloadConfig{
			PageSize: 100,
			Progress: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
			BurstSize:         5,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Notifications: NotificationConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     14,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if apiID := os.Getenv(EnvPrefix + "API_ID"); apiID != "" {
		val, err := strconv.Atoi(strings.TrimSpace(apiID))
		if err != nil {
			return fmt.Errorf("invalid %sAPI_ID: %w", EnvPrefix, err)
		}
		c.Telegram.APIID = val
	}
	if apiHash := os.Getenv(EnvPrefix + "API_HASH"); apiHash != "" {
		c.Telegram.APIHash = apiHash
	}
	if gateway := os.Getenv(EnvPrefix + "GATEWAY_URL"); gateway != "" {
		c.Telegram.GatewayURL = gateway
	}

	if path := os.Getenv(EnvPrefix + "STORAGE_PATH"); path != "" {
		c.Storage.Path = path
	}

	if pageSize := os.Getenv(EnvPrefix + "PAGE_SIZE"); pageSize != "" {
		var val int
		fmt.Sscanf(pageSize, "%d", &val)
		if val > 0 {
			c.Download.PageSize = val
		}
	}

	if rpm := os.Getenv(EnvPrefix + "REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if notifEnabled := os.Getenv(EnvPrefix + "NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	if logLevel := os.Getenv(EnvPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv(EnvPrefix + "LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
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

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".tgbulkdl.yaml",
		".tgbulkdl.yml",
		filepath.Join(home, ".config", "tgbulkdl", "config.yaml"),
		filepath.Join(home, ".config", "tgbulkdl", "config.yml"),
		filepath.Join(home, ".tgbulkdl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.APIID < 0 {
		errs = append(errs, errors.New("api id cannot be negative"))
	}
	if c.Telegram.GatewayURL == "" {
		errs = append(errs, errors.New("gateway url is required"))
	}
	if c.Telegram.Timeout <= 0 {
		errs = append(errs, errors.New("gateway timeout must be positive"))
	}

	if c.Download.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Download.PageSize > 100 {
		errs = append(errs, errors.New("page size cannot exceed 100"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		errs = append(errs, errors.New("retry delays must satisfy 0 <= base_delay <= max_delay"))
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
	if gateway, ok := flags["gateway-url"].(string); ok && gateway != "" {
		c.Telegram.GatewayURL = gateway
	}
	if path, ok := flags["storage-path"].(string); ok && path != "" {
		c.Storage.Path = path
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Download.PageSize = pageSize
	}
	if progress, ok := flags["progress"].(bool); ok {
		c.Download.Progress = progress
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
}

// StoragePath returns the configured database path or the platform default
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dataDir, err := DataDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "tgbulkdl.db"), nil
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are not an error
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tgbulkdl.env"))

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

// DataDirectory returns the per-user data directory for the current OS
func DataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "tgbulkdl")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "tgbulkdl")
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "tgbulkdl")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "tgbulkdl")
		}
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
