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

	"github.com/docpoint/docpoint-backend/internal/adapters/cache"
	"github.com/docpoint/docpoint-backend/internal/adapters/database"
	"github.com/docpoint/docpoint-backend/internal/adapters/events"
	"github.com/docpoint/docpoint-backend/internal/api/handlers"
	"github.com/docpoint/docpoint-backend/internal/api/middleware"
	"github.com/docpoint/docpoint-backend/internal/api/routes"
	"github.com/docpoint/docpoint-backend/internal/application/services"
	"github.com/docpoint/docpoint-backend/internal/domain/providers"
	"github.com/docpoint/docpoint-backend/internal/domain/repositories"
	"github.com/docpoint/docpoint-backend/internal/domain/scheduling"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/clients/postgres"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/clients/redis"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/notifications"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/observability"
	"github.com/docpoint/docpoint-backend/pkg/config"
	"github.com/docpoint/docpoint-backend/pkg/secrets"
)

func main() {
	// Pull secrets into the environment before reading configuration
	vaultCfg := secrets.LoadVaultConfigFromEnv("")
	if result, err := secrets.ApplyVaultSecrets(context.Background(), vaultCfg); err != nil {
		log.Warn().Err(err).Msg("failed to load secrets from vault")
	} else if result.Enabled {
		log.Info().Int("loaded", result.Loaded).Str("path", result.Path).Msg("vault secrets applied")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Warn().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// The API keeps working without Redis; it only loses caching and live
	// update streams
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	var slotRepo repositories.SlotRepository = database.NewSlotAdapter(pgClient)
	if cacheProvider != nil {
		slotRepo = database.NewCachedSlotAdapter(slotRepo, cacheProvider)
	}
	appointmentRepo := database.NewAppointmentAdapter(pgClient)
	notificationRepo := database.NewNotificationAdapter(pgClient)
	doctorRepo := database.NewDoctorAdapter(pgClient)

	txProvider := database.NewTxProvider(pgClient)
	locks := services.NewSlotLockManager(cfg.Booking.LockWait)
	calendar := scheduling.NewCalendar(cfg.Booking.HorizonDays, cfg.Booking.DayStartHour, cfg.Booking.DayEndHour)
	reconciler := services.NewCapacityReconciler(slotRepo, appointmentRepo)

	bookingService := services.NewBookingService(slotRepo, appointmentRepo, locks, txProvider)
	appointmentService := services.NewAppointmentService(slotRepo, appointmentRepo, locks, txProvider, reconciler)
	availabilityService := services.NewAvailabilityService(calendar, slotRepo, locks)

	if eventBus != nil {
		bookingService.SetEventBus(eventBus)
		appointmentService.SetEventBus(eventBus)
		availabilityService.SetEventBus(eventBus)
		log.Info().Msg("event bus configured")
	}

	// Cross-replica slot cache invalidation rides the event bus
	var cacheInvalidation *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidation = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
			cacheInvalidation = nil
		}
	}

	if cacheProvider != nil {
		warming := services.NewCacheWarmingService(doctorRepo, slotRepo, cfg.Booking.HorizonDays)
		go warming.StartPeriodicWarming(ctx, 5*time.Minute)
	}

	if cfg.Notifications.Enabled {
		sender, err := notifications.NewWebhookSender(&cfg.Notifications)
		if err != nil {
			log.Warn().Err(err).Msg("notifications disabled")
		} else {
			notificationService := services.NewNotificationService(sender, notificationRepo)
			bookingService.SetNotificationService(notificationService)
			appointmentService.SetNotificationService(notificationService)
			log.Info().Msg("webhook notifications configured")
		}
	}

	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	appointmentHandler := handlers.NewAppointmentHandler(bookingService, appointmentService)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	// Slot event streams run in the dedicated sse binary where the server
	// write timeout is disabled; see cmd/sse
	router := routes.NewRouter(
		availabilityHandler,
		appointmentHandler,
		nil,
		&cfg.Auth,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("error during server shutdown")
	}

	if cacheInvalidation != nil {
		cacheInvalidation.Stop()
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
