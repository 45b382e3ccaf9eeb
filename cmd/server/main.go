package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/handlers"
	"github.com/arnavshah/roster-api-go/pkg/logging"
	"github.com/arnavshah/roster-api-go/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logging.Setup(false)
		l.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Setup(cfg.IsDevelopment())

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not open database")
	}
	if created, err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Error().Err(err).Msg("could not ensure admin user")
	} else if created {
		logger.Info().Str("username", cfg.AdminUsername).Msg("default admin user created")
	}

	h := &handlers.Handler{
		DB:      db,
		Auth:    auth.New(cfg.JWTSecret, cfg.APIMasterSecret),
		Config:  cfg,
		Metrics: metrics.New(prometheus.DefaultRegisterer, "roster"),
		Log:     logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("could not run server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
