package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// clearEnv blanks the variables the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_DRIVER", "DATABASE_URL", "DISCORD_TOKEN",
		"REDIS_ENABLED", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"PERSO_CLAIM_INTERVAL", "PERSO_TIME_TO_CLAIM", "PERSO_ROLLS_PER_HOUR",
		"PERSO_MAX_WISH", "PERSO_TRADE_TIMEOUT", "PERSO_TIMEZONE",
		"DIGEST_ENABLED", "DIGEST_SCHEDULE", "DIGEST_WINDOW_HOURS",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_SAVE_DB", "HEALTH_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg, err := NewConfigManager(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 180, cfg.Game.ClaimInterval)
	assert.Equal(t, 60, cfg.Game.TimeToClaim)
	assert.Equal(t, 10, cfg.Game.RollsPerHour)
	assert.Equal(t, 5, cfg.Game.MaxWish)
	assert.Equal(t, 30*time.Second, cfg.Game.TradeTimeout())
	assert.Equal(t, "0 0 9 * * *", cfg.Digest.Schedule)
	assert.Equal(t, 24*time.Hour, cfg.Digest.DigestWindow())
	assert.Equal(t, ":8080", cfg.Health.Addr)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "perso.yaml", `
database:
  driver: sqlite
  url: perso.db
game:
  rolls_per_hour: 3
  timezone: UTC
logger:
  level: debug
`)

	cfg, err := NewConfigManager(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, "perso.db", cfg.Database.URL)
	assert.Equal(t, 3, cfg.Game.RollsPerHour)
	assert.Equal(t, 180, cfg.Game.ClaimInterval, "keys missing from the file keep their default")
	assert.Equal(t, "debug", cfg.Logger.Level)

	loc, err := cfg.Game.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_TOMLWhenNoYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "perso.toml", `
[database]
driver = "sqlite"

[game]
claim_interval = 60
max_wish = 8
`)

	cfg, err := NewConfigManager(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Game.ClaimInterval)
	assert.Equal(t, 8, cfg.Game.MaxWish)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "perso.yaml", "database:\n  driver: sqlite\ngame:\n  rolls_per_hour: 3\n")
	t.Setenv("PERSO_ROLLS_PER_HOUR", "7")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := NewConfigManager(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Game.RollsPerHour)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "perso.yaml", "game: [unclosed")

	_, err := NewConfigManager(dir).Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		(&ConfigManager{}).setDefaults(cfg)
		cfg.Database.URL = "postgres://localhost/perso"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults with url", func(*Config) {}, true},
		{"postgres without url", func(c *Config) { c.Database.URL = "" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, false},
		{"zero claim interval", func(c *Config) { c.Game.ClaimInterval = 0 }, false},
		{"zero rolls", func(c *Config) { c.Game.RollsPerHour = 0 }, false},
		{"negative max wish", func(c *Config) { c.Game.MaxWish = -1 }, false},
		{"bad timezone", func(c *Config) { c.Game.Timezone = "Mars/Olympus" }, false},
		{"digest without schedule", func(c *Config) { c.Digest.Schedule = "" }, false},
		{"digest disabled without schedule", func(c *Config) { c.Digest.Enabled = false; c.Digest.Schedule = "" }, true},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, false},
		{"bad log level", func(c *Config) { c.Logger.Level = "loud" }, false},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
