// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credit-risk-workers/internal/advisor"
	"credit-risk-workers/internal/api"
	"credit-risk-workers/internal/common/aws"
	"credit-risk-workers/internal/common/camunda"
	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/common/database"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/repository"
	"credit-risk-workers/internal/risk"
	"credit-risk-workers/pkg/registry"

	aar "credit-risk-workers/internal/workers/risk/assess-applicant-risk"
	gcf "credit-risk-workers/internal/workers/risk/generate-counterfactuals"
	rrd "credit-risk-workers/internal/workers/risk/record-risk-decision"
	rra "credit-risk-workers/internal/workers/risk/request-risk-advisory"
	saa "credit-risk-workers/internal/workers/risk/send-adverse-action-notice"
	sar "credit-risk-workers/internal/workers/risk/simulate-applicant-risk"

	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	engine, err := risk.NewEngine(cfg.Risk)
	if err != nil {
		zapLog.Fatal("risk configuration rejected", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Stores ---
	applicants := repository.NewApplicantStore(pg.DB, redis.Client,
		time.Duration(cfg.Cache.ApplicantTTL)*time.Second, log)
	assessments := repository.NewAssessmentStore(pg.DB)

	auditIndex := repository.NewAssessmentIndex(esClient.Client, cfg.Database.Elasticsearch.Index)
	if err := auditIndex.EnsureIndex(ctx); err != nil {
		// the record worker indexes best-effort, so a missing index is not fatal
		zapLog.Warn("audit index setup failed", zap.Error(err))
	}

	// --- External clients ---
	var adv rra.Advisor
	if cfg.APIs.Advisor.Enabled {
		adv = advisor.NewClient(cfg.APIs.Advisor)
		zapLog.Info("Risk advisor enabled", zap.String("baseUrl", cfg.APIs.Advisor.BaseURL))
	}

	var (
		sender    saa.Sender
		publisher rrd.EventPublisher
	)
	if cfg.Integrations.AWS.SES.Enabled || cfg.Integrations.AWS.SNS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if cfg.Integrations.AWS.SES.Enabled {
			sender = aws.NewSESClient(awsCfg, cfg.Integrations.AWS.SES.FromEmail)
		}
		if cfg.Integrations.AWS.SNS.Enabled {
			publisher = aws.NewSNSClient(awsCfg, cfg.Integrations.AWS.SNS.TopicARN)
		}
	}

	// --- Workers ---
	handlers := map[string]camunda.JobHandler{
		aar.TaskType: aar.NewHandler(aar.LoadConfig(config.GetWorkerConfig(cfg, aar.TaskType)), engine, applicants, obs, log),
		sar.TaskType: sar.NewHandler(sar.LoadConfig(config.GetWorkerConfig(cfg, sar.TaskType)), engine, applicants, obs, log),
		gcf.TaskType: gcf.NewHandler(gcf.LoadConfig(config.GetWorkerConfig(cfg, gcf.TaskType)), engine, applicants, obs, log),
		rra.TaskType: rra.NewHandler(rra.LoadConfig(config.GetWorkerConfig(cfg, rra.TaskType), cfg.APIs.Advisor), adv, obs, log),
		rrd.TaskType: rrd.NewHandler(rrd.LoadConfig(config.GetWorkerConfig(cfg, rrd.TaskType)), assessments, auditIndex, publisher, obs, log),
		saa.TaskType: saa.NewHandler(saa.LoadConfig(config.GetWorkerConfig(cfg, saa.TaskType)), sender, obs, log),
	}

	reg, err := registry.LoadWithOverrides(cfg.App.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry failed to load", zap.Error(err))
	}

	var workers []*camunda.Worker
	for _, taskType := range reg.TaskTypes() {
		handler, ok := handlers[taskType]
		if !ok {
			zapLog.Warn("activity has no handler in this build", zap.String("taskType", taskType))
			continue
		}
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			continue
		}
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log))
	}
	zapLog.Info("All workers registered", zap.Int("count", len(workers)))

	// --- HTTP API, health & metrics ---
	server := &http.Server{
		Addr: cfg.Server.Address,
		Handler: api.NewServer(api.Options{
			Engine:      engine,
			Profiles:    applicants,
			Assessments: assessments,
			Dependencies: map[string]database.Pinger{
				"postgres":      pg,
				"redis":         redis,
				"elasticsearch": esClient,
				"zeebe":         zeebe,
			},
			Logger:         log,
			RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
