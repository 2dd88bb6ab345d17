package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application
	applicationPort "github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/dreschagin/selfheal-core/internal/application/usecase"

	// Domain
	"github.com/dreschagin/selfheal-core/internal/domain/repository"
	"github.com/dreschagin/selfheal-core/internal/domain/service"

	// Core
	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/internal/scheduler"
	"github.com/dreschagin/selfheal-core/internal/sla"

	// Infrastructure
	redisCache "github.com/dreschagin/selfheal-core/internal/infrastructure/cache/redis"
	"github.com/dreschagin/selfheal-core/internal/infrastructure/collector"
	natsInfra "github.com/dreschagin/selfheal-core/internal/infrastructure/messaging/nats"
	wsInfra "github.com/dreschagin/selfheal-core/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/selfheal-core/internal/infrastructure/observability/cloudwatch"
	dynamodbRepo "github.com/dreschagin/selfheal-core/internal/infrastructure/persistence/dynamodb"
	"github.com/dreschagin/selfheal-core/internal/infrastructure/persistence/postgres"
	"github.com/dreschagin/selfheal-core/internal/infrastructure/remediation"
	s3storage "github.com/dreschagin/selfheal-core/internal/infrastructure/storage/s3"

	// Interfaces
	httpInterface "github.com/dreschagin/selfheal-core/internal/interfaces/http"
	"github.com/dreschagin/selfheal-core/internal/interfaces/http/handler"
	"github.com/dreschagin/selfheal-core/internal/interfaces/http/middleware"

	// Shared
	"github.com/dreschagin/selfheal-core/pkg/config"
	"github.com/dreschagin/selfheal-core/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info("Starting Self-Healing Monitoring Core")

	// 3. Подключаемся к БД (долговременный журнал сбоев)
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("Failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		log.Error("Failed to ping database", err)
		os.Exit(1)
	}
	log.Info("Database connected successfully")

	var faultRepository repository.FaultRepository = postgres.NewPostgresFaultRepository(db)

	// 4. CloudWatch Integration

	var metricsPublisher applicationPort.MetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		publisherImpl, initErr := cloudwatch.NewMetricsPublisher(context.Background(),
			cloudwatch.MetricsPublisherConfig{
				Namespace:       cfg.CloudWatch.MetricsNamespace,
				Region:          cfg.CloudWatch.Region,
				Endpoint:        cfg.CloudWatch.Endpoint,
				AccessKeyID:     cfg.CloudWatch.AccessKeyID,
				SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
				BufferSize:      cfg.CloudWatch.MetricsBufferSize,
				FlushInterval:   cfg.CloudWatch.MetricsFlushInterval,
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch metrics publisher", initErr)
			os.Exit(1)
		}
		metricsPublisher = publisherImpl
		log.Info("CloudWatch metrics publisher initialized")
	} else {
		log.Warn("CloudWatch metrics publishing is disabled")
	}

	var logsPublisher *cloudwatch.LogsPublisher
	if cfg.CloudWatch.LogsEnabled {
		publisherImpl, initErr := cloudwatch.NewLogsPublisher(context.Background(),
			cloudwatch.LogsPublisherConfig{
				LogGroupName:    cfg.CloudWatch.LogGroupName,
				LogStreamName:   cfg.CloudWatch.LogStreamName,
				Region:          cfg.CloudWatch.Region,
				Endpoint:        cfg.CloudWatch.Endpoint,
				AccessKeyID:     cfg.CloudWatch.AccessKeyID,
				SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
				BufferSize:      cfg.CloudWatch.LogsBufferSize,
				FlushInterval:   cfg.CloudWatch.LogsFlushInterval,
				AutoCreate:      true,
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch logs publisher", initErr)
			os.Exit(1)
		}
		logsPublisher = publisherImpl
		log.SetSink(logsPublisher)
		log.Info("CloudWatch logs publisher initialized")
	} else {
		log.Warn("CloudWatch logs publishing is disabled")
	}

	// 5. NATS Event Publisher
	var eventPublisher applicationPort.EventPublisher
	if cfg.NATS.Enabled {
		publisherImpl, initErr := natsInfra.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if initErr != nil {
			log.Warn("Failed to connect to NATS, continuing without event publishing", "error", initErr.Error())
		} else {
			eventPublisher = publisherImpl
			defer eventPublisher.Close()
			log.Info("NATS event publisher initialized", "url", cfg.NATS.URL)
		}
	} else {
		log.Warn("NATS event publishing is disabled")
	}

	// 6. Redis Cache
	var cache applicationPort.Cache
	if cfg.Redis.Enabled {
		cacheImpl, initErr := redisCache.NewRedisCache(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.DashboardTTL,
			cfg.Redis.PoolSize,
			cfg.Redis.MinIdleConns,
			cfg.Redis.DialTimeout,
			cfg.Redis.ReadTimeout,
			cfg.Redis.WriteTimeout,
		)
		if initErr != nil {
			log.Warn("Failed to connect to Redis, continuing without cache", "error", initErr.Error())
		} else {
			cache = cacheImpl
			defer cache.Close()
			log.Info("Redis cache initialized", "addr", cfg.Redis.Addr())
		}
	} else {
		log.Warn("Redis cache is disabled")
	}

	// 7. Ядро восстановления и SLA

	metricsCollector := collector.NewSystemMetricsCollector()
	hub := wsInfra.NewHub(log)

	var executor recovery.ActionExecutor
	if cfg.Recovery.RemediationEndpoint != "" {
		executorImpl, initErr := remediation.NewWebhookExecutor(
			cfg.Recovery.RemediationEndpoint,
			cfg.Recovery.RemediationAuthToken,
			cfg.Recovery.RemediationTimeout,
			log,
		)
		if initErr != nil {
			log.Error("Failed to initialize remediation executor", initErr)
			os.Exit(1)
		}
		executor = executorImpl
		log.Info("Webhook remediation executor initialized", "endpoint", cfg.Recovery.RemediationEndpoint)
	} else {
		executor = remediation.NewDryRunExecutor(log)
		log.Warn("REMEDIATION_ENDPOINT is not set, recovery actions run in dry-run mode")
	}

	// Колбэки оркестратора и evaluator'а связываются после сборки
	// application-слоя (циклическая зависимость через dispatcher)
	var notifyRecovery func(recovery.Event)
	var handleSLAEvent func(sla.Event)

	evaluator := sla.NewEvaluator(log, func(ev sla.Event) {
		if handleSLAEvent != nil {
			handleSLAEvent(ev)
		}
	})

	probe := remediation.NewMetricProbe(metricsCollector, evaluator, log)

	orchestrator := recovery.NewOrchestrator(log, executor, probe, nil, func(ev recovery.Event) {
		if notifyRecovery != nil {
			notifyRecovery(ev)
		}
	}, cfg.Recovery.MaxConcurrentRecoveries)
	orchestrator.SetEnabled(cfg.Recovery.Enabled)

	translator := service.NewFaultTranslator(orchestrator.Ledger())

	// 8. Application Layer (Use Cases)

	runtime := usecase.NewRuntimeConfig(usecase.RuntimeOptions{
		SLAEnabled:                cfg.SLA.Enabled,
		SLACheckInterval:          cfg.SLA.CheckInterval,
		FaultRecoveryEnabled:      cfg.Recovery.Enabled,
		MaxConcurrentRecoveries:   cfg.Recovery.MaxConcurrentRecoveries,
		RecoveryTimeout:           cfg.Recovery.RecoveryTimeout,
		AlertChannels:             cfg.Alerts.Channels,
		CriticalAlertChannels:     cfg.Alerts.CriticalChannels,
		DataRetentionDays:         cfg.SLA.DataRetentionDays,
		MetricsCollectionInterval: cfg.SLA.MetricsCollectionInterval,
	})

	statusUC := usecase.NewGetStatusUseCase(orchestrator, evaluator, hub)
	feed := usecase.NewEventFeed()
	dashboardUC := usecase.NewGetDashboardDataUseCase(statusUC, orchestrator, evaluator, feed, cache, log)
	dispatcher := usecase.NewDispatcher(eventPublisher, hub, feed, dashboardUC, runtime, cfg.NATS.SubjectPrefix, log)

	handleAnomalyUC := usecase.NewHandleAnomalyUseCase(translator, orchestrator, faultRepository, dispatcher, runtime, log)
	recordSampleUC := usecase.NewRecordSampleUseCase(evaluator, runtime, log)
	triggerScanUC := usecase.NewTriggerFaultDetectionUseCase(metricsCollector, recordSampleUC, log)
	faultQueryUC := usecase.NewFaultQueryUseCase(orchestrator)
	addStrategyUC := usecase.NewAddStrategyUseCase(orchestrator, log)
	addSLATargetUC := usecase.NewAddSLATargetUseCase(evaluator, log)
	complianceUC := usecase.NewGetSLAComplianceUseCase(evaluator)
	updateConfigUC := usecase.NewUpdateConfigUseCase(runtime, orchestrator, dispatcher, log)

	// Замыкаем колбэки на собранный dispatcher
	notifyRecovery = func(ev recovery.Event) {
		dispatcher.RecoveryEvent(context.Background(), ev)
	}
	handleSLAEvent = func(ev sla.Event) {
		ctx := context.Background()
		dispatcher.SLAEvent(ctx, ev)

		// Нарушение SLA превращается в канонический сбой; предупреждения — нет
		if ev.Type != sla.EventBreach {
			return
		}
		if _, _, err := handleAnomalyUC.Execute(ctx, service.Anomaly{
			MetricID:    ev.MetricID,
			Value:       ev.Value,
			Severity:    ev.Severity.String(),
			Description: ev.Message,
		}); err != nil {
			log.Error("Failed to handle SLA breach", err, "metric_id", ev.MetricID)
		}
	}

	// 9. Архив отчетов (S3 + DynamoDB)

	var reportStorage applicationPort.ReportStorage
	if cfg.Reports.S3Enabled {
		storageImpl, initErr := s3storage.NewReportStorage(context.Background(), s3storage.Config{
			Bucket:          cfg.Reports.Bucket,
			Region:          cfg.Reports.Region,
			Endpoint:        cfg.Reports.Endpoint,
			AccessKeyID:     cfg.Reports.AccessKeyID,
			SecretAccessKey: cfg.Reports.SecretAccessKey,
			UsePathStyle:    cfg.Reports.UsePathStyle,
		})
		if initErr != nil {
			log.Error("Failed to initialize report storage", initErr)
			os.Exit(1)
		}
		reportStorage = storageImpl
		log.Info("Report storage initialized", "bucket", cfg.Reports.Bucket)
	} else {
		log.Warn("S3 report archive is disabled, reports stay in-memory only")
	}

	var reportMetadataRepo applicationPort.ReportMetadataRepository
	if cfg.Reports.DynamoEnabled {
		repoImpl, initErr := dynamodbRepo.NewReportMetadataRepository(context.Background(), dynamodbRepo.Config{
			TableName:       cfg.Reports.DynamoTable,
			Region:          cfg.Reports.DynamoRegion,
			Endpoint:        cfg.Reports.DynamoEndpoint,
			AccessKeyID:     cfg.Reports.AccessKeyID,
			SecretAccessKey: cfg.Reports.SecretAccessKey,
		})
		if initErr != nil {
			log.Error("Failed to initialize report metadata repository", initErr)
			os.Exit(1)
		}
		reportMetadataRepo = repoImpl
		log.Info("Report metadata repository initialized", "table", cfg.Reports.DynamoTable)
	} else {
		log.Warn("DynamoDB report index is disabled, report listing unavailable")
	}

	generateReportUC := usecase.NewGenerateReportUseCase(orchestrator, evaluator, faultRepository, reportStorage, reportMetadataRepo, cache, log)
	listReportsUC := usecase.NewListReportsUseCase(reportMetadataRepo, cache)

	// 10. Interfaces Layer (HTTP)

	authConfig := middleware.AuthConfig{
		Enabled:     cfg.Security.AuthEnabled,
		BearerToken: cfg.Security.AuthToken,
	}

	router := httpInterface.NewRouter(
		handler.NewStatusAPIHandler(statusUC, dashboardUC, log),
		handler.NewFaultAPIHandler(faultQueryUC, handleAnomalyUC, triggerScanUC, log),
		handler.NewSLAAPIHandler(addSLATargetUC, complianceUC, recordSampleUC, log),
		handler.NewStrategyAPIHandler(addStrategyUC, log),
		handler.NewReportAPIHandler(generateReportUC, listReportsUC, 30*24*time.Hour, log),
		handler.NewConfigAPIHandler(runtime, updateConfigUC, log),
		handler.NewAuthAPIHandler(authConfig, log),
		handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, authConfig, log),
		cfg.Server,
		cfg.Security,
		log,
	)

	// 11. Фоновые процессы

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run()
	log.Info("WebSocket hub started")

	samplingRunner := scheduler.NewRunner("metrics-sampling", func(ctx context.Context) error {
		samples, err := metricsCollector.CollectAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to collect samples: %w", err)
		}

		data := make([]applicationPort.MetricDatum, 0, len(samples))
		for _, s := range samples {
			recordSampleUC.Execute(s.MetricID, s.Value, s.CollectedAt)
			data = append(data, applicationPort.MetricDatum{
				Name:      s.MetricID,
				Value:     s.Value,
				Timestamp: s.CollectedAt,
			})
		}

		if metricsPublisher != nil && len(data) > 0 {
			if err := metricsPublisher.PublishBatch(ctx, data); err != nil {
				log.Warn("Failed to export samples to CloudWatch", "error", err.Error())
			}
		}
		return nil
	}, cfg.SLA.MetricsCollectionInterval, log)
	go samplingRunner.Start(ctx)
	log.Info("Metrics sampling started", "interval", cfg.SLA.MetricsCollectionInterval.String())

	statusRunner := scheduler.NewRunner("status-broadcast", func(ctx context.Context) error {
		dispatcher.StatusUpdate(ctx, statusUC.Execute())
		return nil
	}, cfg.SLA.CheckInterval, log)
	go statusRunner.Start(ctx)

	retentionRunner := scheduler.NewRunner("retention-sweep", func(ctx context.Context) error {
		retentionDays := runtime.Snapshot().DataRetentionDays
		cutoff := time.Now().AddDate(0, 0, -retentionDays)

		purged := evaluator.PurgeOlderThan(cutoff)
		deleted, err := faultRepository.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete expired faults: %w", err)
		}

		if purged > 0 || deleted > 0 {
			log.Info("Retention sweep completed", "samples_purged", purged, "faults_deleted", deleted)
		}
		return nil
	}, time.Hour, log)
	go retentionRunner.Start(ctx)

	// 12. HTTP сервер

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	dispatcher.ServiceStarted(ctx)

	// 13. Graceful shutdown

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	dispatcher.ServiceStopped(context.Background())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if metricsPublisher != nil {
		log.Info("Flushing CloudWatch metrics buffer...")
		if err := metricsPublisher.Flush(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch metrics", err)
		}
	}

	if logsPublisher != nil {
		log.Info("Flushing CloudWatch logs buffer...")
		if err := logsPublisher.Flush(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch logs", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	log.Info("Server stopped gracefully")
}
