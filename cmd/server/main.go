package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mannabook/internal/api"
	"mannabook/internal/audit"
	"mannabook/internal/calendar"
	"mannabook/internal/config"
	"mannabook/internal/daylock"
	"mannabook/internal/events"
	"mannabook/internal/metrics"
	"mannabook/internal/notify"
	"mannabook/internal/payments"
	"mannabook/internal/reconcile"
	"mannabook/internal/slots"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("MANNABOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.Stripe.SecretKey == "" || cfg.Stripe.WebhookSecret == "" {
		logger.Fatal().Msg("set stripe.secret_key and stripe.webhook_secret in config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds, err := cfg.CalendarCredentials()
	if err != nil {
		logger.Fatal().Err(err).Msg("calendar credentials")
	}
	cal, err := calendar.NewGoogleClient(ctx, creds, cfg.Calendar.CalendarID, cfg.Booking.Timezone,
		cfg.Calendar.RequestsPerSecond, cfg.Calendar.RequestBurst, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("calendar client")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("resolve timezone")
	}
	snapshots := calendar.NewSnapshotLoader(cal, loc, cfg.CalendarTimeout())

	var rdb *redis.Client
	var lease *daylock.Lease
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		lease = daylock.NewLease(rdb, 30*time.Second, logger)
	}
	locks := daylock.NewKeyed(lease)

	bus := events.NewBus()
	bus.Subscribe(func(o events.ReconcileOutcome) {
		metrics.IncReconcile(string(o.State))
	})

	if cfg.Audit.Enabled {
		store, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("open audit store")
		}
		defer store.Close()
		bus.Subscribe(func(o events.ReconcileOutcome) {
			ctxRec, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := store.Record(ctxRec, o); err != nil {
				logger.Error().Err(err).Str("order_id", o.OrderID).Msg("audit record failed")
			}
		})

		if cfg.Audit.ExportDir != "" {
			exporter := audit.NewExporter(store, cfg.Audit.ExportDir, cfg.Audit.ExportRetentionDays, logger)
			go exporter.Start(ctx)
		}
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ManagersChatID != 0 {
		alerter, err := notify.NewTelegramAlerter(cfg.Telegram.BotToken, cfg.Telegram.ManagersChatID, logger)
		if err != nil {
			logger.Error().Err(err).Msg("telegram alerter unavailable, continuing without alerts")
		} else {
			bus.Subscribe(alerter.HandleOutcome)
		}
	}

	generator, err := slots.NewGenerator(snapshots, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("slot generator")
	}
	reconciler, err := reconcile.New(cal, snapshots, locks, bus, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("reconciler")
	}

	checkout := payments.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.PublicURL)
	parser := payments.NewWebhookParser(cfg.Stripe.WebhookSecret)

	server, err := api.NewServer(cfg, generator, reconciler, parser, checkout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api server")
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, cal, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("booking server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func startHealthServer(ctx context.Context, port int, cal calendar.CalendarOfRecord, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		now := time.Now()
		if _, err := cal.ListCommitments(ctxPing, now, now.Add(time.Minute)); err != nil {
			http.Error(w, "calendar not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
