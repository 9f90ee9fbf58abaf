// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"musicca/internal/batch"
	"musicca/internal/logger"
)

// Config holds all application configuration.
type Config struct {
	Player      string `toml:"player"`
	Output      string `toml:"output"`
	DownloadDir string `toml:"download_dir"`
	History     bool   `toml:"history"`
	Debug       bool   `toml:"debug"`

	Log        LogConfig        `toml:"log"`
	SoundCloud SoundCloudConfig `toml:"soundcloud"`
	YouTube    YouTubeConfig    `toml:"youtube"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// SoundCloudConfig holds api-v2 credentials. An empty ClientID is
// discovered from the web player.
type SoundCloudConfig struct {
	ClientID   string `toml:"client_id"`
	OAuthToken string `toml:"oauth_token"`
	ChunkSize  int    `toml:"chunk_size"`
}

// YouTubeConfig holds the Data API key used for search.
type YouTubeConfig struct {
	APIKey      string `toml:"api_key"`
	SearchLimit int    `toml:"search_limit"`
}

// Environment variables overriding file values.
const (
	EnvSoundCloudClientID   = "SOUNDCLOUD_CLIENT_ID"
	EnvSoundCloudOAuthToken = "SOUNDCLOUD_OAUTH_TOKEN"
	EnvYouTubeAPIKey        = "YOUTUBE_API_KEY"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Player:      "mpv",
		Output:      "text",
		DownloadDir: "~/Music/musicca",
		History:     true,
		Debug:       false,
		Log: LogConfig{
			Level: "warn",
		},
		SoundCloud: SoundCloudConfig{
			ChunkSize: batch.DefaultChunkSize,
		},
		YouTube: YouTubeConfig{
			SearchLimit: 10,
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "musicca"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "musicca"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file, merges it with defaults and applies
// environment overrides. If the config file doesn't exist, defaults are used.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSoundCloudClientID); v != "" {
		c.SoundCloud.ClientID = v
	}
	if v := os.Getenv(EnvSoundCloudOAuthToken); v != "" {
		c.SoundCloud.OAuthToken = v
	}
	if v := os.Getenv(EnvYouTubeAPIKey); v != "" {
		c.YouTube.APIKey = v
	}
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "ffplay": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, ffplay)", c.Player)
	}

	validOutputs := map[string]bool{
		"text": true, "json": true, "yaml": true,
	}
	if !validOutputs[strings.ToLower(c.Output)] {
		return fmt.Errorf("unsupported output %q (valid: text, json, yaml)", c.Output)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	if c.SoundCloud.ChunkSize < 0 {
		return fmt.Errorf("soundcloud.chunk_size must not be negative, got %d", c.SoundCloud.ChunkSize)
	}

	if c.YouTube.SearchLimit < 0 || c.YouTube.SearchLimit > 50 {
		return fmt.Errorf("youtube.search_limit must be between 0 and 50, got %d", c.YouTube.SearchLimit)
	}

	if c.DownloadDir == "" {
		return fmt.Errorf("download_dir cannot be empty")
	}

	return nil
}

// LogLevel returns the effective log level; debug forces "debug".
func (c *Config) LogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.Log.Level
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// DataDir returns the XDG-compliant data directory.
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "musicca"), nil
}

// HistoryPath returns the path to the history database.
func HistoryPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
