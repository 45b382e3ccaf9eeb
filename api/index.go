package handler

import (
	"net/http"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/handlers"
	"github.com/arnavshah/roster-api-go/pkg/logging"
	"github.com/arnavshah/roster-api-go/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var r http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		l := logging.Setup(false)
		l.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Setup(cfg.IsDevelopment())

	db, err := database.Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not open database")
	}
	if _, err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Error().Err(err).Msg("could not ensure admin user")
	}

	gin.SetMode(gin.ReleaseMode)
	r = handlers.NewRouter(&handlers.Handler{
		DB:      db,
		Auth:    auth.New(cfg.JWTSecret, cfg.APIMasterSecret),
		Config:  cfg,
		Metrics: metrics.New(prometheus.DefaultRegisterer, "roster"),
		Log:     logger,
	})
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
