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
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/wecount/countdown-api/internal/config"
	"github.com/wecount/countdown-api/internal/email"
	"github.com/wecount/countdown-api/internal/handler"
	authHandler "github.com/wecount/countdown-api/internal/handler/auth"
	eventHandler "github.com/wecount/countdown-api/internal/handler/event"
	wallHandler "github.com/wecount/countdown-api/internal/handler/wall"
	"github.com/wecount/countdown-api/internal/middleware"
	"github.com/wecount/countdown-api/internal/repository/postgres"
	"github.com/wecount/countdown-api/internal/router"
	eventService "github.com/wecount/countdown-api/internal/service/event"
	notificationService "github.com/wecount/countdown-api/internal/service/notification"
	trackingService "github.com/wecount/countdown-api/internal/service/tracking"
	userService "github.com/wecount/countdown-api/internal/service/user"
	wallService "github.com/wecount/countdown-api/internal/service/wall"
	"github.com/wecount/countdown-api/internal/store"
	"github.com/wecount/countdown-api/pkg/auth"
	"github.com/wecount/countdown-api/pkg/logger"
	redisBroker "github.com/wecount/countdown-api/pkg/messaging/redis"
	"github.com/wecount/countdown-api/pkg/metrics"
	"github.com/wecount/countdown-api/pkg/security"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{Level: logger.InfoLevel})

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis message broker
	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Open the countdown record store on the broker's connection pool. A
	// store failure is not fatal: trackers keep ticking against an
	// in-memory store and records are rebuilt on the next edit.
	var countdownStore store.Store
	redisStore, err := store.OpenRedis(context.Background(), broker.Client(),
		cfg.Countdown.StoreName, cfg.Countdown.StoreVersion)
	if err != nil {
		log.Error().Err(err).Msg("countdown store unavailable, falling back to memory")
		countdownStore = store.NewMemoryStore()
	} else {
		countdownStore = redisStore
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	wallRepo := postgres.NewWallRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Email is optional; without SMTP config milestone emails are dropped.
	var emailSvc email.Service
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		emailSvc = email.NewNoopService()
	}

	// Initialize services
	m := metrics.New("wecount_api")
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	notificationSvc := notificationService.NewService(
		notificationRepo, userRepo, emailSvc, broker, appLogger, m)
	trackingSvc := trackingService.NewService(
		notificationSvc, countdownStore, broker, appLogger, m,
		trackingService.Config{
			TickInterval:  cfg.Countdown.TickInterval,
			UpdateChannel: cfg.Countdown.UpdateChannel,
		})
	userSvc := userService.NewService(userRepo, hasher, jwtSvc)
	eventSvc := eventService.NewService(eventRepo, trackingSvc, appLogger)
	wallSvc := wallService.NewService(wallRepo, eventRepo, broker, appLogger)

	// Initialize middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	h := handler.NewHandler()
	authH := authHandler.NewHandler(userSvc, notificationSvc)
	eventH := eventHandler.NewHandler(eventSvc, trackingSvc)
	wallH := wallHandler.NewHandler(wallSvc)

	// Setup router
	routerCfg := router.Config{CORS: middleware.DefaultCORSConfig()}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerCfg.RateBurst = cfg.RateLimit.Burst
	}
	r := router.NewRouter(authMiddleware, authH, eventH, wallH, h, routerCfg)
	r.Setup()

	// Resume tracking for countdowns persisted before the last restart.
	resumeTracking(trackingSvc, countdownStore, appLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	appLogger.Info("server started", "port", cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	trackingSvc.StopAll()
	log.Info().Msg("server exited properly")
}

func resumeTracking(svc *trackingService.Service, st store.Store, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := st.GetAll(ctx)
	if err != nil {
		log.Warn("could not load persisted countdowns", "error", err.Error())
		return
	}
	for _, rec := range records {
		if rec.IsFinished {
			continue
		}
		svc.Track(context.Background(), rec.Event)
	}
	if len(records) > 0 {
		log.Info("resumed countdown tracking", "count", len(records))
	}
}
