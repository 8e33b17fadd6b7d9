// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/moodbot/internal/app"
	"github.com/keshon/moodbot/internal/config"
	"github.com/keshon/moodbot/internal/discord"
	"github.com/keshon/moodbot/internal/logging"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		boot := logging.New("info", "")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFile)
	if !dotenv {
		log.Info().Msg(".env not found, using process environment")
	}
	if cfg.DiscordToken == "" {
		log.Fatal().Msg("DISCORD_TOKEN is not set")
	}
	log.Info().Str("storage", cfg.StorageDriver).Str("path", cfg.StoragePath).Msg("starting moodbot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start engine")
	}
	defer engine.Close()

	bot := discord.NewBot(cfg, engine.Pipeline, engine.Karma, engine.Rand, logging.Component(log, "discord"))

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("discord bot error")
		}
		cancel()
	}

	log.Info().Msg("discord bot exited cleanly")
}
