package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DatabaseConfig selects and locates the store
type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // postgres or sqlite
	URL    string `yaml:"url" toml:"url"`
}

// DiscordConfig holds the bot credentials used by the notifier
type DiscordConfig struct {
	Token string `yaml:"token" toml:"token"`
}

// RedisConfig configures the distributed trade lock
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
}

// GameConfig holds the defaults applied to lazily created servers and members
type GameConfig struct {
	ClaimInterval       int    `yaml:"claim_interval" toml:"claim_interval"` // minutes
	TimeToClaim         int    `yaml:"time_to_claim" toml:"time_to_claim"`   // seconds
	RollsPerHour        int    `yaml:"rolls_per_hour" toml:"rolls_per_hour"`
	MaxWish             int    `yaml:"max_wish" toml:"max_wish"`
	TradeTimeoutSeconds int    `yaml:"trade_timeout_seconds" toml:"trade_timeout_seconds"`
	Timezone            string `yaml:"timezone" toml:"timezone"`
}

// DigestConfig schedules the daily claims digest
type DigestConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	Schedule    string `yaml:"schedule" toml:"schedule"` // cron spec with seconds field
	WindowHours int    `yaml:"window_hours" toml:"window_hours"`
}

// LoggerConfig contains logging configuration
type LoggerConfig struct {
	Level    string `yaml:"level" toml:"level"`
	Format   string `yaml:"format" toml:"format"`
	SaveToDB bool   `yaml:"save_to_db" toml:"save_to_db"`
}

// HealthConfig configures the health HTTP server
type HealthConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// Config is the complete configuration of the engine process
type Config struct {
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Discord  DiscordConfig  `yaml:"discord" toml:"discord"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis"`
	Game     GameConfig     `yaml:"game" toml:"game"`
	Digest   DigestConfig   `yaml:"digest" toml:"digest"`
	Logger   LoggerConfig   `yaml:"logger" toml:"logger"`
	Health   HealthConfig   `yaml:"health" toml:"health"`
}

// ConfigManager loads configuration from a directory
type ConfigManager struct {
	dir string
}

// NewConfigManager creates a manager reading perso.yaml / perso.toml from dir
func NewConfigManager(dir string) *ConfigManager {
	return &ConfigManager{dir: dir}
}

// LoadConfig loads the configuration from the default "config" directory
func LoadConfig() (*Config, error) {
	return NewConfigManager("config").Load()
}

// Load builds the configuration. Sources, later ones winning:
//  1. default values
//  2. YAML file (perso.yaml), or TOML file (perso.toml) when there is no YAML
//  3. environment variables (.env is loaded first when present)
func (cm *ConfigManager) Load() (*Config, error) {
	cfg := &Config{}
	cm.setDefaults(cfg)

	if err := cm.loadYAMLConfig(cfg); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := cm.loadTOMLConfig(cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := cm.loadEnvConfig(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadYAMLConfig returns an os.IsNotExist error when the file is absent
func (cm *ConfigManager) loadYAMLConfig(cfg *Config) error {
	yamlPath := filepath.Join(cm.dir, "perso.yaml")
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", yamlPath, err)
	}
	return nil
}

// loadTOMLConfig returns an os.IsNotExist error when the file is absent
func (cm *ConfigManager) loadTOMLConfig(cfg *Config) error {
	tomlPath := filepath.Join(cm.dir, "perso.toml")
	if _, err := os.Stat(tomlPath); err != nil {
		return err
	}

	if _, err := toml.DecodeFile(tomlPath, cfg); err != nil {
		return fmt.Errorf("failed to parse TOML config %s: %w", tomlPath, err)
	}
	return nil
}

// loadEnvConfig overlays environment variables on top of cfg
func (cm *ConfigManager) loadEnvConfig(cfg *Config) error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg.Database.Driver = getEnvString("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.URL = getEnvString("DATABASE_URL", cfg.Database.URL)

	cfg.Discord.Token = getEnvString("DISCORD_TOKEN", cfg.Discord.Token)

	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = getEnvString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Game.ClaimInterval = getEnvInt("PERSO_CLAIM_INTERVAL", cfg.Game.ClaimInterval)
	cfg.Game.TimeToClaim = getEnvInt("PERSO_TIME_TO_CLAIM", cfg.Game.TimeToClaim)
	cfg.Game.RollsPerHour = getEnvInt("PERSO_ROLLS_PER_HOUR", cfg.Game.RollsPerHour)
	cfg.Game.MaxWish = getEnvInt("PERSO_MAX_WISH", cfg.Game.MaxWish)
	cfg.Game.TradeTimeoutSeconds = getEnvInt("PERSO_TRADE_TIMEOUT", cfg.Game.TradeTimeoutSeconds)
	cfg.Game.Timezone = getEnvString("PERSO_TIMEZONE", cfg.Game.Timezone)

	cfg.Digest.Enabled = getEnvBool("DIGEST_ENABLED", cfg.Digest.Enabled)
	cfg.Digest.Schedule = getEnvString("DIGEST_SCHEDULE", cfg.Digest.Schedule)
	cfg.Digest.WindowHours = getEnvInt("DIGEST_WINDOW_HOURS", cfg.Digest.WindowHours)

	cfg.Logger.Level = getEnvString("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = getEnvString("LOG_FORMAT", cfg.Logger.Format)
	cfg.Logger.SaveToDB = getEnvBool("LOG_SAVE_DB", cfg.Logger.SaveToDB)

	cfg.Health.Addr = getEnvString("HEALTH_ADDR", cfg.Health.Addr)
	return nil
}

// setDefaults sets default configuration values
func (cm *ConfigManager) setDefaults(cfg *Config) {
	cfg.Database = DatabaseConfig{Driver: "postgres"}
	cfg.Redis = RedisConfig{Addr: "localhost:6379"}
	cfg.Game = GameConfig{
		ClaimInterval:       180,
		TimeToClaim:         60,
		RollsPerHour:        10,
		MaxWish:             5,
		TradeTimeoutSeconds: 30,
		Timezone:            "Local",
	}
	cfg.Digest = DigestConfig{
		Enabled:     true,
		Schedule:    "0 0 9 * * *",
		WindowHours: 24,
	}
	cfg.Logger = LoggerConfig{
		Level:    "info",
		Format:   "json",
		SaveToDB: true,
	}
	cfg.Health = HealthConfig{Addr: ":8080"}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database url is required for the postgres driver")
		}
	case "sqlite":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite)", c.Database.Driver)
	}

	if c.Game.ClaimInterval <= 0 {
		return fmt.Errorf("game claim_interval must be positive, got %d", c.Game.ClaimInterval)
	}
	if c.Game.TimeToClaim <= 0 {
		return fmt.Errorf("game time_to_claim must be positive, got %d", c.Game.TimeToClaim)
	}
	if c.Game.RollsPerHour <= 0 {
		return fmt.Errorf("game rolls_per_hour must be positive, got %d", c.Game.RollsPerHour)
	}
	if c.Game.MaxWish < 0 {
		return fmt.Errorf("game max_wish must be non-negative, got %d", c.Game.MaxWish)
	}
	if c.Game.TradeTimeoutSeconds <= 0 {
		return fmt.Errorf("game trade_timeout_seconds must be positive, got %d", c.Game.TradeTimeoutSeconds)
	}
	if _, err := c.Game.Location(); err != nil {
		return fmt.Errorf("invalid game timezone %q: %w", c.Game.Timezone, err)
	}

	if c.Digest.Enabled {
		if c.Digest.Schedule == "" {
			return fmt.Errorf("digest schedule cannot be empty when the digest is enabled")
		}
		if c.Digest.WindowHours <= 0 {
			return fmt.Errorf("digest window_hours must be positive, got %d", c.Digest.WindowHours)
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty when redis is enabled")
	}

	if !isValidLogLevel(c.Logger.Level) {
		return fmt.Errorf("invalid logger level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if !isValidLogFormat(c.Logger.Format) {
		return fmt.Errorf("invalid logger format: %s (must be json or text)", c.Logger.Format)
	}
	return nil
}

// Location resolves the configured timezone
func (g GameConfig) Location() (*time.Location, error) {
	if g.Timezone == "" || g.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(g.Timezone)
}

// TradeTimeout returns the trade negotiation window
func (g GameConfig) TradeTimeout() time.Duration {
	return time.Duration(g.TradeTimeoutSeconds) * time.Second
}

// DigestWindow returns the span of claims covered by one digest
func (d DigestConfig) DigestWindow() time.Duration {
	return time.Duration(d.WindowHours) * time.Hour
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func isValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func isValidLogFormat(format string) bool {
	switch strings.ToLower(format) {
	case "json", "text":
		return true
	}
	return false
}
