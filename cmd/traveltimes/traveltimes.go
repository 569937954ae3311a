package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	statscli "github.com/travigo/traveltimes/pkg/stats/cli"
	traveltimescli "github.com/travigo/traveltimes/pkg/traveltimes/cli"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	// Optional, the environment may already be set
	_ = godotenv.Load()

	if os.Getenv("TRAVELTIMES_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRAVELTIMES_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	// Service dates are in the agencies timezone
	if timezone := os.Getenv("TRAVELTIMES_TIMEZONE"); timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			log.Fatal().Err(err).Str("timezone", timezone).Msg("Unknown timezone")
		}
		time.Local = loc
	}

	app := &cli.App{
		Name:        "traveltimes",
		Description: "Generates expected stop and travel times from historic arrivals, departures and GPS matches",

		Commands: []*cli.Command{
			traveltimescli.RegisterRunCLI(),
			traveltimescli.RegisterWorkerCLI(),
			traveltimescli.RegisterEnqueueCLI(),
			statscli.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
