package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wecount/countdown-api/internal/email"
	"github.com/wecount/countdown-api/internal/repository/postgres"
	notificationService "github.com/wecount/countdown-api/internal/service/notification"
	"github.com/wecount/countdown-api/internal/store"
	"github.com/wecount/countdown-api/pkg/logger"
	redisBroker "github.com/wecount/countdown-api/pkg/messaging/redis"
	"github.com/wecount/countdown-api/pkg/metrics"
	"github.com/wecount/countdown-api/pkg/worker"
)

type Config struct {
	DatabaseURL   string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL      string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"60s"`
	StoreName     string        `envconfig:"STORE_NAME" default:"wecount_countdown"`
	StoreVersion  int           `envconfig:"STORE_VERSION" default:"1"`
	UpdateChannel string        `envconfig:"UPDATE_CHANNEL" default:"countdown.update"`
	MetricsAddr   string        `envconfig:"METRICS_ADDR" default:":8081"`
	SMTPHost      string        `envconfig:"SMTP_HOST"`
	SMTPPort      int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername  string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword  string        `envconfig:"SMTP_PASSWORD"`
	SMTPFrom      string        `envconfig:"SMTP_FROM"`
}

func setupSidecar(addr string, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			appLogger.Error(err, "health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	appLogger := logger.FromZerolog(log.Logger)

	db, err := postgres.NewDBFromURL(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL:        cfg.RedisURL,
		MaxRetries: 3,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	countdownStore, err := store.OpenRedis(context.Background(), broker.Client(),
		cfg.StoreName, cfg.StoreVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open countdown store")
	}

	userRepo := postgres.NewUserRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	var emailSvc email.Service
	if cfg.SMTPHost != "" {
		emailSvc = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		emailSvc = email.NewNoopService()
	}

	m := metrics.New("wecount_worker")
	notificationSvc := notificationService.NewService(
		notificationRepo, userRepo, emailSvc, broker, appLogger, m)

	processor := worker.NewCountdownProcessor(
		countdownStore,
		notificationSvc,
		broker,
		worker.CountdownProcessorConfig{
			PollInterval:  cfg.PollInterval,
			UpdateChannel: cfg.UpdateChannel,
		},
		appLogger,
		m,
	)

	setupSidecar(cfg.MetricsAddr, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("shutting down...")
		cancel()
	}()

	processor.Start(ctx)
}
