package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docpoint/docpoint-backend/internal/adapters/events"
	"github.com/docpoint/docpoint-backend/internal/api/handlers"
	"github.com/docpoint/docpoint-backend/internal/api/middleware"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/clients/redis"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/observability"
	"github.com/docpoint/docpoint-backend/pkg/config"
)

// Dedicated server for slot event streams. It runs apart from the API so
// long-lived connections are not subject to the API server's write timeout.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-sse", cfg.Server.Env)

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Redis client")
	}
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	sseHandler := handlers.NewSSEHandler(eventBus)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	mux.HandleFunc("GET /api/stream/doctors/{id}", sseHandler.StreamDoctorUpdates)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// No write timeout: streams stay open until the client leaves
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("stream server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("stream server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("stream server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("error during server shutdown")
	}

	if err := eventBus.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("stream server stopped")
}
