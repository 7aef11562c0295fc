package app

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/willr196/vergo-db-sub002/internal/server/config"
	"github.com/willr196/vergo-db-sub002/internal/server/httpapi"
	"github.com/willr196/vergo-db-sub002/internal/server/repository/sqlite"
	"github.com/willr196/vergo-db-sub002/internal/server/service"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
)

type App struct {
	version   string
	buildDate string
	log       zerolog.Logger
	server    *http.Server
	repoClose io.Closer
}

func New(version, buildDate string, log zerolog.Logger) (*App, error) {
	cfg := config.Load()
	repo, err := sqlite.New(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	services := service.NewServices(repo, cfg)
	if cfg.SeedJobs {
		seedJobs(repo, log)
	}
	router := httpapi.NewRouter(services, log)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &App{version: version, buildDate: buildDate, log: log, server: server, repoClose: repo}, nil
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() { _ = a.repoClose.Close() }()

	figure.NewFigure("VERGO", "", true).Print()

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error().Err(err).Msg("http server error")
		}
	}()

	a.log.Info().
		Str("version", a.version).
		Str("build_date", a.buildDate).
		Str("addr", a.server.Addr).
		Msg("VERGO dev server listening")

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

// seedJobs inserts a few listings so a fresh dev database has something to
// browse. Fixed ids keep reseeding idempotent.
func seedJobs(repo *sqlite.Repository, log zerolog.Logger) {
	jobs := []models.Job{
		{ID: "seed-forklift", Title: "Forklift Operator", Company: "Harbour Logistics", Location: "Rotterdam", Rate: "€17/h"},
		{ID: "seed-linecook", Title: "Line Cook", Company: "Canteen Group", Location: "Amsterdam", Rate: "€15/h"},
		{ID: "seed-warehouse", Title: "Warehouse Associate", Company: "Northline BV", Location: "Utrecht", Rate: "€14/h"},
	}
	for _, j := range jobs {
		if _, err := repo.CreateJob(context.Background(), j); err != nil {
			log.Warn().Err(err).Str("job", j.ID).Msg("seed job failed")
		}
	}
}

// NewLogger builds the process logger used by the server binaries.
func NewLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}
