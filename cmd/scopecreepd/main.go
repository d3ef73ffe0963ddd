package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/hardhatgames/scopecreep/game"
	"github.com/hardhatgames/scopecreep/server"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type config struct {
	Addr     string `env:"SCOPECREEP_ADDR" envDefault:"0.0.0.0:1235"`
	DataFile string `env:"SCOPECREEP_DATA" envDefault:"data.json"`
	SaveFile string `env:"SCOPECREEP_SAVE" envDefault:"state.json"`
	WebRoot  string `env:"SCOPECREEP_WEB"`
	Penalty  int    `env:"SCOPECREEP_PENALTY"` // overrides the data set's try-again penalty
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatal().Err(err).Msg("bad environment")
	}

	data, err := game.LoadJSON(cfg.DataFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load rule data")
	}
	if cfg.Penalty > 0 {
		data.Settings.TryAgainPenalty = cfg.Penalty
	}
	rules := game.NewRules(data)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	opts := game.Options{Rand: rng}

	var g game.Game
	if f, err := os.Open(cfg.SaveFile); err == nil {
		g, err = game.NewFromSaved(rules, opts, f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("cannot restore state")
		}
		log.Info().Str("file", cfg.SaveFile).Msg("restored state")
	} else {
		g, err = game.New(rules, opts)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot make game")
		}
	}

	srv := server.NewServer(g, server.Options{
		Addr:     cfg.Addr,
		SaveFile: cfg.SaveFile,
		WebRoot:  cfg.WebRoot,
	})

	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt)

	err = srv.Run(ctx)
	log.Info().Err(err).Msg("server return")
	if err != nil && err != context.Canceled {
		os.Exit(1)
	}
}
