// Package app собирает сервис киоска: хранилища, брокер, фоновые воркеры,
// gRPC и HTTP серверы, метрики и health checks.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthcheck "github.com/vladislavdragonenkov/concessions/internal/health"
	"github.com/vladislavdragonenkov/concessions/internal/httpapi"
	"github.com/vladislavdragonenkov/concessions/internal/metrics"
	"github.com/vladislavdragonenkov/concessions/internal/service/cart"
	grpcsvc "github.com/vladislavdragonenkov/concessions/internal/service/grpc"
	"github.com/vladislavdragonenkov/concessions/internal/service/idempotency"
	"github.com/vladislavdragonenkov/concessions/internal/service/outbox"
	"github.com/vladislavdragonenkov/concessions/internal/version"
	concessionsv1 "github.com/vladislavdragonenkov/concessions/proto/concessions/v1"
)

// Run запускает сервис и блокируется до отмены ctx или падения одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := log.WithField("component", "app")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	pubs, err := initPublishers(cfg, logger)
	if err != nil {
		return err
	}
	defer pubs.close(logger)

	cartMetrics := metrics.NewCartMetricsWithRegisterer(registry)
	carts, err := cart.NewService(deps.catalog, deps.cartRepo, deps.outboxRepo,
		cart.WithLogger(logger.WithField("layer", "cart")),
		cart.WithMetrics(cartMetrics),
	)
	if err != nil {
		return fmt.Errorf("create cart service: %w", err)
	}
	guard := idempotency.NewGuard(deps.idempotencyRepo,
		idempotency.WithTTL(cfg.IdempotencyTTL),
		idempotency.WithGuardLogger(logger.WithField("layer", "idempotency")),
	)

	outboxWorker := outbox.NewWorker(deps.outboxRepo, pubs.main,
		outbox.WithLogger(logger.WithField("worker", "outbox")),
		outbox.WithDLQPublisher(pubs.deadLetter),
		outbox.WithRegisterer(registry),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
	cleanupWorker := idempotency.NewCleanupWorker(deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("worker", "idempotency-cleanup")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
		idempotency.WithRegisterer(registry),
	)
	janitor := cart.NewJanitor(deps.cartRepo,
		cart.WithJanitorLogger(logger.WithField("worker", "cart-janitor")),
		cart.WithJanitorMetrics(cartMetrics),
		cart.WithIdleTTL(cfg.CartIdleTTL),
		cart.WithSweepInterval(cfg.CartSweepInterval),
	)

	healthHandler := newHealthHandler(deps, pubs, carts, cfg)

	grpcMetrics := promgrpc.NewServerMetrics()
	registry.MustRegister(grpcMetrics)
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	concessionsv1.RegisterConcessionsServiceServer(grpcServer,
		grpcsvc.NewConcessionsService(carts, guard, logger.WithField("layer", "grpc")))
	grpcMetrics.InitializeMetrics(grpcServer)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(concessionsv1.ServiceName, healthpb.HealthCheckResponse_SERVING)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	apiLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("listen http: %w", err)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	for _, run := range []func(context.Context){outboxWorker.Run, cleanupWorker.Run, janitor.Run} {
		workers.Add(1)
		go func(run func(context.Context)) {
			defer workers.Done()
			run(workerCtx)
		}(run)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, registry, healthHandler)

	apiSrv := &http.Server{
		Handler: httpapi.NewRouter(carts, guard,
			httpapi.WithLogger(logger.WithField("layer", "http")),
			httpapi.WithRateLimit(cfg.HTTPRateLimit, cfg.HTTPRateBurst),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		errCh <- grpcServer.Serve(grpcLis)
	}()
	go func() {
		logger.Infof("HTTP API слушает %s%s", apiLis.Addr(), "/api/v1")
		if err := apiSrv.Serve(apiLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		runErr = ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			runErr = err
		}
	}

	healthHandler.StartDraining()
	healthServer.Shutdown()
	stopGRPC(grpcServer, cfg.ShutdownTimeout, logger)
	shutdownHTTP(apiSrv, logger)

	stopWorkers()
	workers.Wait()
	flushOutbox(outboxWorker, cfg.ShutdownTimeout, logger)

	shutdownHTTP(metricsSrv, logger)
	return runErr
}

func newHealthHandler(deps *runtimeDependencies, pubs *publishers, carts *cart.Service, cfg Config) *healthcheck.Handler {
	h := healthcheck.NewHandler(version.Version())
	h.RegisterChecker("storage", deps.storageChecker)
	h.RegisterChecker("catalog", healthcheck.NewSimpleChecker("catalog", func(context.Context) error {
		if len(carts.Menu()) == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	}))
	if pubs.brokerChecker != nil {
		h.RegisterOptional("broker", pubs.brokerChecker)
	}
	h.RegisterOptional("outbox", healthcheck.NewOutboxBacklogChecker(deps.outboxRepo, cfg.OutboxMaxAge))
	return h
}

// stopGRPC дожидается завершения активных RPC, но не дольше timeout.
func stopGRPC(server *grpc.Server, timeout time.Duration, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}

// flushOutbox отправляет чеки, накопленные к моменту остановки.
func flushOutbox(worker *outbox.Worker, timeout time.Duration, logger *log.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result := worker.ProcessOnce(ctx)
	if result.Sent > 0 || result.Failed > 0 {
		logger.WithFields(log.Fields{
			"sent":   result.Sent,
			"failed": result.Failed,
		}).Info("outbox flushed on shutdown")
	}
}

// startMetricsServer запускает HTTP-сервер с /metrics и health endpoints.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, gatherer prometheus.Gatherer, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
