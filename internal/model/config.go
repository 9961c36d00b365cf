package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the notification REST API.
type APIConfig struct {
	// BaseURL is the root URL of the API (e.g., https://api.foodly.example).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec is the per-request HTTP timeout.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// FeedConfig holds settings for the realtime push feed.
type FeedConfig struct {
	// URL is the websocket endpoint of the feed
	// (e.g., wss://feed.foodly.example/v1).
	URL string `mapstructure:"url" yaml:"url"`

	// HandshakeTimeoutSec bounds the websocket dial.
	HandshakeTimeoutSec int `mapstructure:"handshake_timeout_sec" yaml:"handshake_timeout_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme            string `mapstructure:"theme" yaml:"theme"`
	ToastDurationSec int    `mapstructure:"toast_duration_sec" yaml:"toast_duration_sec"`
	Sound            bool   `mapstructure:"sound" yaml:"sound"`
}

// CacheConfig holds settings for the local notification history cache.
type CacheConfig struct {
	// Path is the SQLite database file. Empty disables the cache.
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// UserID is the authenticated user whose feed is watched.
	UserID string `mapstructure:"user_id" yaml:"user_id"`

	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/ordernotify/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "ordernotify", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			TimeoutSec: 30,
		},
		Feed: FeedConfig{
			HandshakeTimeoutSec: 10,
		},
		Display: DisplayConfig{
			Theme:            "default",
			ToastDurationSec: 5,
			Sound:            true,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("feed.handshake_timeout_sec", 10)
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.toast_duration_sec", 5)
	v.SetDefault("display.sound", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("user_id", cfg.UserID)
	v.Set("api", cfg.API)
	v.Set("feed", cfg.Feed)
	v.Set("display", cfg.Display)
	v.Set("cache", cfg.Cache)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
