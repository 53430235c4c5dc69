package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dfskit/roster-engine/internal/api/handlers"
	"github.com/dfskit/roster-engine/internal/cache"
	"github.com/dfskit/roster-engine/internal/config"
	"github.com/dfskit/roster-engine/internal/engine"
	"github.com/dfskit/roster-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	logger.WithService("roster-engine").WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
		"rules_dir":   cfg.RulesDir,
	}).Info("Starting roster engine")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Redis is optional; without it every request is solved fresh.
	var rosterCache *cache.RosterCache
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithService("roster-engine").Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.WithService("roster-engine").Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		rosterCache = cache.New(redisClient, cfg.CacheTTL, structuredLogger)
	}

	eng := engine.New(structuredLogger)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	rosterHandler := handlers.NewRosterHandler(eng, rosterCache, cfg.RulesDir, structuredLogger)
	healthHandler := handlers.NewHealthHandler(rosterCache, structuredLogger)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/optimize", rosterHandler.Optimize)
		apiV1.POST("/rank", rosterHandler.Rank)
		apiV1.GET("/sports", rosterHandler.ListSports)
	}

	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.WithService("roster-engine").WithField("port", cfg.Port).Info("Roster engine started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithService("roster-engine").Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.WithService("roster-engine").Info("Shutting down roster engine...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithService("roster-engine").Fatalf("Roster engine forced to shutdown: %v", err)
	}

	logger.WithService("roster-engine").Info("Roster engine exited")
}
