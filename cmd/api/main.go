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

	"github.com/gin-gonic/gin"
	"github.com/richard-senior/nflodds/internal/api"
	"github.com/richard-senior/nflodds/internal/api/handlers"
	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/pkg/util/nflodds"
	"github.com/rs/cors"
)

func main() {
	configFile := flag.String("config", "", "YAML config file")
	flag.Parse()

	logger.SetShowDateTime(true)
	if err := nflodds.Configure(*configFile); err != nil {
		logger.Fatal("Invalid configuration", err)
	}
	if level, err := logger.ParseLevel(nflodds.Config.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// open before serving; requests run concurrently
	dbPath, err := nflodds.GetDbPath()
	if err != nil {
		logger.Fatal("Invalid database path", err)
	}
	if err := nflodds.InitDatabase(dbPath); err != nil {
		logger.Fatal("Failed to open database", err)
	}

	h := handlers.NewNflHandler(nflodds.GetDatasourceInstance(), nflodds.Config.CacheTTL)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	srv := &http.Server{
		Addr:              ":" + nflodds.Config.APIPort,
		Handler:           c.Handler(api.NewRouter(h)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		logger.Info("Starting API server on", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", err)
	}
	nflodds.CloseDatabase()
}
