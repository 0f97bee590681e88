package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dsakyc/internal/kyc/handler"
	"dsakyc/internal/kyc/lock"
	"dsakyc/internal/kyc/metrics"
	"dsakyc/internal/kyc/providers"
	"dsakyc/internal/kyc/providers/adapters"
	"dsakyc/internal/kyc/providers/bank"
	"dsakyc/internal/kyc/providers/okyc"
	"dsakyc/internal/kyc/providers/pan"
	"dsakyc/internal/kyc/providers/session"
	"dsakyc/internal/kyc/review"
	"dsakyc/internal/kyc/service"
	"dsakyc/internal/kyc/store"
	"dsakyc/internal/kyc/tracer"
	"dsakyc/internal/platform/config"
	"dsakyc/internal/platform/database"
	"dsakyc/internal/platform/health"
	"dsakyc/internal/platform/kafka/producer"
	"dsakyc/internal/platform/logger"
	"dsakyc/internal/platform/mongo"
	"dsakyc/internal/platform/redis"
	"dsakyc/pkg/platform/circuit"
	"dsakyc/pkg/platform/middleware/request"
	"dsakyc/pkg/platform/validation"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/kyc.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	log.Info("initializing dsakyc",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"store", cfg.Store.Backend,
		"lock", cfg.Lock.Backend,
	)

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	healthHandler := health.New(cfg.Server.Environment)
	kycMetrics := metrics.New()

	st, closeStore, err := buildStore(ctx, cfg.Store, healthHandler)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	locker, closeLock, err := buildLocker(ctx, cfg, log, healthHandler)
	if err != nil {
		return err
	}
	closers = append(closers, closeLock)

	publisher, closePublisher, err := buildPublisher(cfg.Kafka, log, healthHandler)
	if err != nil {
		return err
	}
	closers = append(closers, closePublisher)

	kycClient := newProviderClient(providers.KYCProviderID, cfg.Providers.KYC, cfg.Providers, kycMetrics, log)
	bankClient := newProviderClient(providers.BankProviderID, cfg.Providers.Bank, cfg.Providers, kycMetrics, log)

	svc := service.New(st, okyc.New(kycClient), pan.New(kycClient), bank.New(bankClient),
		service.WithLogger(log),
		service.WithLocker(locker),
		service.WithPublisher(publisher),
		service.WithMetrics(kycMetrics),
		service.WithTracer(tracer.NewOTel()),
		service.WithNameThreshold(cfg.Verification.NameMatchThreshold),
		service.WithOTPValidity(cfg.Verification.OTPValidity),
		service.WithIFSCPrecheck(cfg.Verification.IFSCPrecheck),
	)

	router := chi.NewRouter()
	router.Use(request.RequestID)
	router.Use(request.Recovery(log))
	router.Use(request.Logger(log))
	router.Use(request.LatencyMiddleware(request.NewMetrics()))
	router.Use(request.BodyLimit(validation.MaxBodySize))
	router.Use(request.ContentTypeJSON)

	healthHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log).Register(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Providers.RequestBudget() + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newProviderClient(providerID string, p config.Provider, cfg config.Providers, observer adapters.CallObserver, log *slog.Logger) *adapters.Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	sess := session.New(session.Config{
		ProviderID:    providerID,
		BaseURL:       p.BaseURL,
		APIKey:        p.APIKey,
		APISecret:     p.APISecret,
		Validity:      cfg.TokenValidity,
		RefreshBuffer: cfg.TokenRefreshBuffer,
		AuthTimeout:   cfg.AuthTimeout,
		HTTPClient:    httpClient,
	}, session.WithLogger(log))

	return adapters.NewClient(adapters.ClientConfig{
		ID:         providerID,
		BaseURL:    p.BaseURL,
		APIKey:     p.APIKey,
		Timeout:    cfg.Timeout,
		HTTPClient: httpClient,
		Session:    sess,
		Breaker:    circuit.New(providerID, circuit.WithFailureThreshold(cfg.BreakerFailureThreshold)),
		Observer:   observer,
		Logger:     log,
	})
}

func buildStore(ctx context.Context, cfg config.Store, hh *health.Handler) (service.Store, func(), error) {
	switch cfg.Backend {
	case config.StorePostgres:
		pool, err := database.New(ctx, database.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    database.DefaultConfig().MaxOpenConns,
			MaxIdleConns:    database.DefaultConfig().MaxIdleConns,
			ConnMaxLifetime: database.DefaultConfig().ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, pool.DB()); err != nil {
			_ = pool.Close()
			return nil, nil, err
		}
		hh.RegisterCheck("postgres", pool.Health)
		return store.NewPostgresStore(pool.DB()), func() { _ = pool.Close() }, nil
	case config.StoreMongo:
		client, err := mongo.New(ctx, mongo.Config{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err != nil {
			return nil, nil, err
		}
		st, err := store.NewMongoStore(ctx, client.Database())
		if err != nil {
			_ = client.Close(context.Background())
			return nil, nil, err
		}
		hh.RegisterCheck("mongo", client.Health)
		return st, func() { _ = client.Close(context.Background()) }, nil
	default:
		return store.NewInMemoryStore(), func() {}, nil
	}
}

func buildLocker(ctx context.Context, cfg config.Config, log *slog.Logger, hh *health.Handler) (lock.Locker, func(), error) {
	if cfg.Lock.Backend != config.LockRedis {
		return lock.NewLocalLocker(lock.DefaultWait), func() {}, nil
	}
	client, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	statsCtx, cancel := context.WithCancel(ctx)
	go client.ReportPoolStats(statsCtx, 15*time.Second)
	hh.RegisterCheck("redis", client.Health)

	locker := lock.NewRedisLocker(client.Client,
		lock.WithTTL(cfg.Lock.TTL),
		lock.WithWait(lock.DefaultWait),
		lock.WithLogger(log),
	)
	return locker, func() {
		cancel()
		_ = client.Close()
	}, nil
}

func buildPublisher(cfg config.Kafka, log *slog.Logger, hh *health.Handler) (review.Publisher, func(), error) {
	if cfg.Brokers == "" {
		log.Info("kafka not configured, manual review events go to the log")
		return review.NewLogPublisher(log), func() {}, nil
	}
	p, err := producer.New(producer.DefaultConfig(cfg.Brokers), log)
	if err != nil {
		return nil, nil, err
	}
	hh.RegisterCheck("kafka", p.Health)
	return review.NewKafkaPublisher(p, cfg.ReviewTopic), func() { _ = p.Close() }, nil
}
