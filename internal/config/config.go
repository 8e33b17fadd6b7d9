// /internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MoodMin and MoodMax bound every persisted mood value.
const (
	MoodMin = -1000
	MoodMax = 1000
)

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	DeveloperID  string `env:"DEVELOPER_ID"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"data/moodbot.db"`

	WordFetchLimit int           `env:"WORD_FETCH_LIMIT" envDefault:"5000"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	RestrictedEnabled    bool     `env:"RESTRICTED_ENABLED" envDefault:"true"`
	RestrictedChance     int      `env:"RESTRICTED_CHANCE" envDefault:"30"`
	RestrictedMultiplier float64  `env:"RESTRICTED_MULTIPLIER" envDefault:"1"`
	RestrictedRoots      []string `env:"RESTRICTED_ROOTS" envSeparator:","`

	EscalationThreshold int     `env:"ESCALATION_THRESHOLD" envDefault:"-500"`
	SuccessorBias       float64 `env:"SUCCESSOR_BIAS" envDefault:"0"`
	ReplyChance         int     `env:"REPLY_CHANCE" envDefault:"10"`
	BandsFile           string  `env:"BANDS_FILE"`

	PolishProvider string        `env:"POLISH_PROVIDER" envDefault:"none"`
	PolishChance   int           `env:"POLISH_CHANCE" envDefault:"100"`
	PolishTimeout  time.Duration `env:"POLISH_TIMEOUT" envDefault:"8s"`
	PolishRate     float64       `env:"POLISH_RATE" envDefault:"0.5"`
	OpenAIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel    string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	G4FEngine      string        `env:"G4F_ENGINE" envDefault:"g4f:gpt-oss-120b"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads .env (when present) and the process environment.
// The returned flag tells whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, dotenv, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, dotenv, err
	}
	return &cfg, dotenv, nil
}

// Validate rejects values that cannot work at all.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "sqlite", "json":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %s", c.StorageDriver)
	}
	if c.StoragePath == "" {
		return fmt.Errorf("STORAGE_PATH is empty")
	}
	switch c.PolishProvider {
	case "none", "", "pollinations", "g4f", "openai":
	default:
		return fmt.Errorf("unsupported POLISH_PROVIDER: %s", c.PolishProvider)
	}
	if c.PolishProvider == "openai" && c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for the openai polish provider")
	}
	for name, p := range map[string]int{
		"RESTRICTED_CHANCE": c.RestrictedChance,
		"POLISH_CHANCE":     c.PolishChance,
		"REPLY_CHANCE":      c.ReplyChance,
	} {
		if p < 0 || p > 100 {
			return fmt.Errorf("%s must be within 0..100, got %d", name, p)
		}
	}
	if c.RestrictedMultiplier < 0 {
		return fmt.Errorf("RESTRICTED_MULTIPLIER must not be negative")
	}
	if c.SuccessorBias < 0 || c.SuccessorBias > 1 {
		return fmt.Errorf("SUCCESSOR_BIAS must be within 0..1")
	}
	if c.EscalationThreshold < MoodMin || c.EscalationThreshold > MoodMax {
		return fmt.Errorf("ESCALATION_THRESHOLD must be within %d..%d", MoodMin, MoodMax)
	}
	if c.WordFetchLimit <= 0 {
		return fmt.Errorf("WORD_FETCH_LIMIT must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}
