package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"webhook-dispatcher/config"
	httpHandler "webhook-dispatcher/internal/adapter/http/handler"
	"webhook-dispatcher/internal/adapter/http/middleware"
	pgStorage "webhook-dispatcher/internal/adapter/storage/postgres"
	redisStorage "webhook-dispatcher/internal/adapter/storage/redis"
	"webhook-dispatcher/internal/adapter/telemetry"
	"webhook-dispatcher/internal/adapter/transport/httpclient"
	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports"
	"webhook-dispatcher/internal/service"
	"webhook-dispatcher/pkg/logger"

	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml or ./config/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Service: "webhook-dispatcher", Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("dispatch_mode", cfg.Scheduler.Mode).
		Msg("Starting webhook dispatcher")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Repositories
	eventRepo := pgStorage.NewEventRepo(pool, cfg.Dispatcher.ClaimLease)
	subscriptionRepo := pgStorage.NewSubscriptionRepo(pool)
	endpointRepo := pgStorage.NewEndpointRepo(pool)
	deliveryRepo := pgStorage.NewDeliveryRepo(pool)
	deadLetterRepo := pgStorage.NewDeadLetterRepo(pool)

	// Telemetry
	var notifySinks []ports.Notifier
	var telemetryProvider *telemetry.Provider
	if cfg.Metrics.Enabled {
		telemetryProvider, err = telemetry.NewPrometheus()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize telemetry")
		}
		metricsNotifier, err := telemetry.NewMetricsNotifier(telemetryProvider.Meter())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to register delivery metrics")
		}
		if err := telemetry.RegisterBacklogGauge(telemetryProvider.Meter(), eventRepo.CountUnprocessed); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backlog gauge")
		}
		notifySinks = append(notifySinks, metricsNotifier)
	}
	if cfg.Notifications.StreamEnabled {
		notifySinks = append(notifySinks, redisStorage.NewNotificationStream(rdb, cfg.Notifications.Stream, cfg.Notifications.MaxLen))
	}
	notifier := service.NewFanoutNotifier(notifySinks...)
	detached := service.NewDetachedRunner(cfg.Delivery.NotifyTimeout, log.With().Str("component", "notify").Logger())

	// Core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key, cfg.AES.RetiredKeys...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set to serve the admin API")
	}
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	signer := service.NewHMACSignatureService(cfg.Delivery.UserAgent, cfg.Delivery.RequireHTTPS)
	transport := httpclient.New(cfg.HTTPClient, cfg.Delivery.UserAgent)

	breaker := service.NewCircuitBreakerService(
		domain.CircuitBreakerConfig{
			FailureThreshold:         cfg.CircuitBreaker.FailureThreshold,
			FailureRateThreshold:     cfg.CircuitBreaker.FailureRateThreshold,
			MinimumRequests:          cfg.CircuitBreaker.MinimumRequests,
			Timeout:                  cfg.CircuitBreaker.Timeout,
			MaxRecoveryRequests:      cfg.CircuitBreaker.MaxRecoveryRequests,
			RecoverySuccessThreshold: cfg.CircuitBreaker.RecoverySuccessThreshold,
			Window:                   cfg.CircuitBreaker.Window,
			StaleAfter:               cfg.CircuitBreaker.StaleAfter,
		},
		log.With().Str("component", "circuit-breaker").Logger(),
		service.WithTransitionHook(service.CircuitNotifyHook(notifier, detached)),
	)

	var subscriptionCache ports.SubscriptionCache
	if cfg.SubscriptionCache.Enabled {
		subscriptionCache = redisStorage.NewSubscriptionCache(rdb, cfg.SubscriptionCache.TTL)
	}
	resolver := service.NewSubscriptionResolver(subscriptionRepo, subscriptionCache, log)

	dlq := service.NewDeadLetterService(
		cfg.DeadLetter.Retention,
		deadLetterRepo,
		deliveryRepo,
		endpointRepo,
		eventRepo,
		notifier,
		detached,
		log.With().Str("component", "dead-letter").Logger(),
	)

	hostname, _ := os.Hostname()
	leaseOwner := fmt.Sprintf("%s:%s", hostname, uuid.NewString())
	deliverySvc := service.NewDeliveryService(
		service.DeliveryConfig{
			DefaultTimeout:    cfg.Delivery.DefaultTimeout,
			MaxBackoffSeconds: cfg.Delivery.MaxBackoffSeconds,
			DefaultRetryPolicy: domain.RetryPolicy{
				MaxAttempts:        cfg.Delivery.DefaultMaxAttempts,
				BaseBackoffSeconds: cfg.Delivery.DefaultBaseBackoff,
				BackoffMultiplier:  cfg.Delivery.DefaultBackoffMultiplier,
			},
			MaxCircuitDeferrals: cfg.Delivery.MaxCircuitDeferrals,
			RetryConcurrency:    cfg.Delivery.RetryConcurrency,
			RetryLeaseTTL:       cfg.Delivery.RetryLeaseTTL,
		},
		service.DeliveryDeps{
			Deliveries: deliveryRepo,
			Endpoints:  endpointRepo,
			Events:     eventRepo,
			Breaker:    breaker,
			DLQ:        dlq,
			Transport:  transport,
			Encryption: encSvc,
			Signer:     signer,
			Limiter:    service.NewEndpointLimiter(),
			Lease:      redisStorage.NewRetryLease(rdb, leaseOwner),
			Notifier:   notifier,
			Detached:   detached,
			Logger:     log.With().Str("component", "delivery").Logger(),
		},
	)

	dispatcher := service.NewDispatcher(
		service.DispatcherConfig{
			Limit:                   cfg.Dispatcher.Limit,
			BatchSize:               cfg.Dispatcher.BatchSize,
			MaxConcurrentBatches:    cfg.Dispatcher.MaxConcurrentBatches,
			MaxConcurrentEvents:     cfg.Dispatcher.MaxConcurrentEvents,
			MaxConcurrentDeliveries: cfg.Dispatcher.MaxConcurrentDeliveries,
			BatchTimeout:            cfg.Dispatcher.BatchTimeout,
			EventTimeout:            cfg.Dispatcher.EventTimeout,
			MarkTimeout:             cfg.Dispatcher.MarkTimeout,
			StreamChunkMin:          cfg.Dispatcher.StreamChunkMin,
			StreamChunkInitial:      cfg.Dispatcher.StreamChunkInitial,
			StreamChunkMax:          cfg.Dispatcher.StreamChunkMax,
			MemoryHighWatermark:     uint64(cfg.Dispatcher.MemoryHighWatermarkMB) << 20,
		},
		eventRepo,
		resolver,
		endpointRepo,
		deliverySvc,
		log.With().Str("component", "dispatcher").Logger(),
	)

	// Background loops
	schedulerDone := make(chan struct{})
	if cfg.Scheduler.Enabled {
		scheduler := service.NewScheduler(
			service.SchedulerConfig{
				Mode:                   service.DispatchMode(cfg.Scheduler.Mode),
				DispatchInterval:       cfg.Scheduler.DispatchInterval,
				RetryInterval:          cfg.Scheduler.RetryInterval,
				RetryLimit:             cfg.Scheduler.RetryLimit,
				DeadLetterInterval:     cfg.Scheduler.DeadLetterInterval,
				DeadLetterBatchSize:    cfg.Scheduler.DeadLetterBatchSize,
				CleanupInterval:        cfg.Scheduler.CleanupInterval,
				CircuitCleanupInterval: cfg.Scheduler.CircuitCleanupInterval,
			},
			dispatcher,
			deliverySvc,
			dlq,
			breaker,
			log.With().Str("component", "scheduler").Logger(),
		)
		go func() {
			defer close(schedulerDone)
			scheduler.Run(ctx)
		}()
		log.Info().Strs("jobs", scheduler.Jobs()).Msg("Scheduler started")
	} else {
		close(schedulerDone)
		log.Warn().Msg("Scheduler disabled; dispatch only runs on demand")
	}

	// Admin API
	deps := httpHandler.RouterDeps{
		Dispatcher:     dispatcher,
		DeliverySvc:    deliverySvc,
		CircuitBreaker: breaker,
		DeadLetters:    dlq,
		Resolver:       resolver,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool), redisStorage.NewHealthCheck(rdb)},
		DispatchDefaults: ports.DispatchOptions{
			Limit:                cfg.Dispatcher.Limit,
			BatchSize:            cfg.Dispatcher.BatchSize,
			MaxConcurrentBatches: cfg.Dispatcher.MaxConcurrentBatches,
		},
		DispatchMode:        cfg.Scheduler.Mode,
		RetryLimit:          cfg.Scheduler.RetryLimit,
		DeadLetterBatchSize: cfg.Scheduler.DeadLetterBatchSize,
		RateLimitStore:      redisStorage.NewRateLimitStore(rdb),
		RateLimitRules:      middleware.DefaultRateLimitRules(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		MetricsPath:         cfg.Metrics.Path,
		Mode:                cfg.Server.Mode,
		Logger:              log,
	}
	if telemetryProvider != nil {
		deps.MetricsHandler = telemetryProvider.Handler()
	}
	router := httpHandler.SetupRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Scheduler did not stop before the shutdown deadline")
	}
	detached.Wait()

	if telemetryProvider != nil {
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}

	log.Info().Msg("Dispatcher exited")
}
