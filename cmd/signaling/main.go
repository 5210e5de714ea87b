package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/driftchat/call-signaling/config"
	"github.com/driftchat/call-signaling/internal/handlers"
	"github.com/driftchat/call-signaling/internal/middleware"
	"github.com/driftchat/call-signaling/internal/redis"
	"github.com/driftchat/call-signaling/internal/store"
)

const shutdownTimeout = 5 * time.Second

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := config.Load()

	ctx := context.Background()
	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	logger.Info().Msg("redis connection established")

	callStore := store.NewRedis(redisClient)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Global CORS middleware (runs before routing)
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	callHandler := handlers.NewCallHandler(callStore, logger)
	signalHandler := handlers.NewSignalHandler(callStore, logger)

	auth := middleware.JWTAuth(cfg.JWTSecret)

	apiGroup := router.Group("/api")
	{
		// Login endpoint (public)
		apiGroup.POST("/auth/login", handlers.Login(cfg.JWTSecret))

		// Call lifecycle (lookup is public, mutation requires JWT)
		apiGroup.POST("/calls", auth, callHandler.StartCall)
		apiGroup.GET("/calls/:roomId", callHandler.GetCall)
		apiGroup.POST("/calls/:roomId/end", auth, callHandler.EndCall)
		apiGroup.GET("/conversations/:conversationId/call", auth, callHandler.GetActiveCall)

		// Signal exchange (requires JWT)
		apiGroup.POST("/rooms/:roomId/signals", auth, signalHandler.AppendSignal)
		apiGroup.GET("/rooms/:roomId/signals", auth, signalHandler.ListSignals)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting call signaling server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("server stopped")
}
