// Package app assembles the response engine from configuration. Both the bot
// and the operator CLI start from here.
package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/keshon/moodbot/internal/ai"
	"github.com/keshon/moodbot/internal/chance"
	"github.com/keshon/moodbot/internal/config"
	"github.com/keshon/moodbot/internal/karma"
	"github.com/keshon/moodbot/internal/lexicon"
	"github.com/keshon/moodbot/internal/logging"
	"github.com/keshon/moodbot/internal/response"
	"github.com/keshon/moodbot/internal/storage"
)

// App holds the wired engine and owns the store.
type App struct {
	Store    storage.Store
	Cache    *lexicon.Cache
	Karma    *karma.Engine
	Pipeline *response.Pipeline
	Rand     chance.Source
}

// New opens storage and wires every engine component.
func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	bands := karma.DefaultBands()
	if cfg.BandsFile != "" {
		if bands, err = karma.LoadBands(cfg.BandsFile); err != nil {
			store.Close()
			return nil, err
		}
	}

	polisher, err := newPolisher(cfg, logging.Component(log, "polish"))
	if err != nil {
		store.Close()
		return nil, err
	}

	rnd := chance.New()
	cache := lexicon.NewCache(store, lexicon.Options{
		Limit:  cfg.WordFetchLimit,
		TTL:    cfg.CacheTTL,
		Logger: logging.Component(log, "lexicon"),
	})
	engine := karma.NewEngine(store,
		karma.WithBands(bands),
		karma.WithLogger(logging.Component(log, "karma")),
	)

	opts := response.Options{
		Restricted:           lexicon.NewRestricted(cfg.RestrictedRoots),
		RestrictedEnabled:    cfg.RestrictedEnabled,
		RestrictedChance:     cfg.RestrictedChance,
		RestrictedMultiplier: cfg.RestrictedMultiplier,
		SuccessorBias:        cfg.SuccessorBias,
		EscalationThreshold:  cfg.EscalationThreshold,
		PolishChance:         cfg.PolishChance,
	}
	var p response.Polisher
	if polisher != nil {
		p = polisher
	}
	pipeline := response.New(cache, engine, store, p, rnd, opts, logging.Component(log, "response"))

	return &App{Store: store, Cache: cache, Karma: engine, Pipeline: pipeline, Rand: rnd}, nil
}

// newPolisher returns nil when polishing is off.
func newPolisher(cfg *config.Config, log zerolog.Logger) (*ai.Polisher, error) {
	provider, err := ai.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}

	var limiter *ai.AdaptiveLimiter
	if r := rate.Limit(cfg.PolishRate); r > 0 {
		limiter = ai.NewAdaptiveLimiter(r, r/8, r*4, r/10, 0.5)
	}
	log.Info().Str("provider", cfg.PolishProvider).Float64("rate", cfg.PolishRate).Msg("reply polishing enabled")
	return ai.NewPolisher(provider, limiter, cfg.PolishTimeout, log), nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return errors.New("app not initialized")
	}
	return a.Store.Close()
}
