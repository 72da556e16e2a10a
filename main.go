package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/auth"
	"github.com/robalobadob/crossword/internal/award"
	"github.com/robalobadob/crossword/internal/config"
	"github.com/robalobadob/crossword/internal/httpserver"
	"github.com/robalobadob/crossword/internal/puzzle"
	"github.com/robalobadob/crossword/internal/session"
	"github.com/robalobadob/crossword/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	setupLogging(cfg)

	board, err := puzzle.Load(cfg.PuzzleFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.PuzzleFile).Msg("failed to load puzzle")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	state, err := store.Open(ctx, store.Options{
		Backend:  cfg.StateBackend,
		Path:     cfg.StatePath(),
		RedisURL: cfg.RedisURL,
		RedisKey: cfg.RedisKey,
	})
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StateBackend).Msg("failed to open state")
	}
	defer state.Close()

	if cfg.Award.Token == "" {
		log.Warn().Msg("AWARD_TOKEN is empty; award calls will be unauthenticated")
	}
	awards := award.NewService(state, award.NewClient(award.WithTimeout(cfg.Award.Timeout)), cfg.Award)

	srv := httpserver.New(httpserver.Deps{
		Board:    board,
		Sessions: session.NewMemoryStore(),
		State:    state,
		Awards:   awards,
		Auth: auth.NewService(state, auth.Options{
			Secret:      cfg.JWTSecret,
			ExpiresDays: cfg.JWTExpiresDays,
			CookieName:  cfg.CookieName,
			Production:  cfg.Production(),
		}),
		ClientOrigin: cfg.ClientOrigin,
	})

	log.Info().
		Str("port", cfg.Port).
		Str("state", cfg.StateBackend).
		Int("clues", len(board.Placements)).
		Msg("starting crossword server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
