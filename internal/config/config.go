// ABOUTME: Configuration management for postgate with YAML and environment loading.
// ABOUTME: Reads ~/.config/postgate/config.yaml, then .env files, then env overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/2389-research/postgate/internal/models"
)

// DefaultDatabase is the MongoDB database used when none is configured.
const DefaultDatabase = "postgate"

// Config stores postgate configuration.
type Config struct {
	Telegram         TelegramConfig   `yaml:"telegram"`
	Mongo            MongoConfig      `yaml:"mongo"`
	Channels         []models.Channel `yaml:"channels"`
	InstagramProfile string           `yaml:"instagram_profile"`
	MetricsAddr      string           `yaml:"metrics_addr"`
}

// TelegramConfig holds Bot API credentials and the admin identity.
type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	BotUsername string `yaml:"bot_username"`
	AdminChatID int64  `yaml:"admin_chat_id"`
}

// MongoConfig holds the post store connection.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// GetConfigPath returns the config file path. POSTGATE_CONFIG overrides the XDG location.
func GetConfigPath() (string, error) {
	if p := os.Getenv("POSTGATE_CONFIG"); p != "" {
		return ExpandPath(p)
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "postgate", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
	}
	return path, nil
}

// LoadFile reads only the YAML file. Returns an empty config if the file doesn't exist.
func LoadFile() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Load reads the YAML file, loads .env files from the working directory,
// and applies environment overrides.
func Load(logger logrus.FieldLogger) (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}
	LoadEnv(logger)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = DefaultDatabase
	}
	return cfg, nil
}

// LoadEnv loads .env and .env.dev when present. Later files win.
func LoadEnv(logger logrus.FieldLogger) {
	var loaded []string
	for _, file := range []string{".env", ".env.dev"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger != nil && len(loaded) > 0 {
		logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Telegram.BotToken, "BOT_TOKEN")
	setString(&c.Telegram.BotUsername, "BOT_USERNAME")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DATABASE")
	setString(&c.InstagramProfile, "INSTAGRAM_PROFILE")
	setString(&c.MetricsAddr, "METRICS_ADDR")

	if v := strings.TrimSpace(os.Getenv("ADMIN_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ADMIN_CHAT_ID %q: %w", v, err)
		}
		c.Telegram.AdminChatID = id
	}

	if v := strings.TrimSpace(os.Getenv("CHANNEL_USERNAME")); v != "" {
		c.Channels = ParseChannels(v, os.Getenv("CHANNEL_NAMES"))
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// ParseChannels pairs comma-separated usernames with optional comma-separated
// display names. A channel without a name is labelled with its handle.
func ParseChannels(usernames, names string) []models.Channel {
	labels := splitList(names)
	var channels []models.Channel
	for i, u := range splitList(usernames) {
		ch := models.Channel{Username: u}
		if i < len(labels) && labels[i] != "" {
			ch.Name = labels[i]
		} else {
			ch.Name = ch.Handle()
		}
		channels = append(channels, ch)
	}
	return channels
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every required value that is missing.
func (c *Config) Validate() error {
	var missing []string
	if c.Telegram.BotToken == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if c.Mongo.URI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.Telegram.AdminChatID == 0 {
		missing = append(missing, "ADMIN_CHAT_ID")
	}
	if len(c.Channels) == 0 {
		missing = append(missing, "CHANNEL_USERNAME")
	}
	if c.InstagramProfile == "" {
		missing = append(missing, "INSTAGRAM_PROFILE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
