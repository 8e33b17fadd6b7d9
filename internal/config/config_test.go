package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, dotenv, err := Load()
	require.NoError(t, err)
	assert.False(t, dotenv)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, 5000, cfg.WordFetchLimit)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, -500, cfg.EscalationThreshold)
	assert.True(t, cfg.RestrictedEnabled)
	assert.Empty(t, cfg.RestrictedRoots)
}

func TestLoadList(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RESTRICTED_ROOTS", "бля,сук")

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"бля", "сук"}, cfg.RestrictedRoots)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			StorageDriver:  "json",
			StoragePath:    "x.json",
			WordFetchLimit: 10,
			CacheTTL:       time.Minute,
			PolishChance:   50,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"driver", func(c *Config) { c.StorageDriver = "mongo" }, false},
		{"chance", func(c *Config) { c.RestrictedChance = 101 }, false},
		{"threshold", func(c *Config) { c.EscalationThreshold = -1001 }, false},
		{"openai key", func(c *Config) { c.PolishProvider = "openai" }, false},
		{"negative multiplier", func(c *Config) { c.RestrictedMultiplier = -1 }, false},
		{"ttl", func(c *Config) { c.CacheTTL = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
