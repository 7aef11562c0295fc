package main

import (
	"os"

	"github.com/willr196/vergo-db-sub002/internal/server/app"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	log := app.NewLogger()
	application, err := app.New(version, buildDate, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to init server")
		os.Exit(1)
	}
	if err := application.Run(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}
