package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kontorhq/kontor/internal/assets"
	"github.com/kontorhq/kontor/internal/config"
	"github.com/kontorhq/kontor/internal/db"
	"github.com/kontorhq/kontor/internal/logging"
	"github.com/kontorhq/kontor/internal/pdf"
	"github.com/kontorhq/kontor/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "run database migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.Setup(cfg.Env)

	conn, err := db.ConnectAndMigrate(cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database setup failed")
	}
	if *migrateOnlyFlag {
		log.Info().Msg("migrations completed")
		return
	}

	renderer := pdf.New(cfg.Company, assets.Dir(cfg.AssetsDir), cfg.RenderTimeout)
	handler := server.New(conn, cfg, renderer, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}
}
