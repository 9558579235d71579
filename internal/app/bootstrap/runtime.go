package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/tradeforge/insight-mining-service/internal/adapters/cache"
	eventadapter "github.com/tradeforge/insight-mining-service/internal/adapters/events"
	grpcadapter "github.com/tradeforge/insight-mining-service/internal/adapters/grpc"
	httpadapter "github.com/tradeforge/insight-mining-service/internal/adapters/http"
	"github.com/tradeforge/insight-mining-service/internal/adapters/memory"
	"github.com/tradeforge/insight-mining-service/internal/adapters/postgres"
	"github.com/tradeforge/insight-mining-service/internal/adapters/security"
	"github.com/tradeforge/insight-mining-service/internal/application"
	"github.com/tradeforge/insight-mining-service/internal/ports"
	"google.golang.org/grpc"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	worker     *eventadapter.Worker
}

// NewRuntime wires storage, cache and broker adapters from config.
// Each backend falls back to its in-memory twin when unconfigured, which
// keeps local runs and CI self-contained.
func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	deps := application.Dependencies{
		Config: application.Config{
			ServiceName:           cfg.ServiceID,
			MinUsersPerExposure:   cfg.MinUsersPerExposure,
			MaxCandidateExposures: cfg.MaxCandidateExposures,
			ResultCacheTTL:        cfg.ResultCacheTTL,
			IdempotencyTTL:        cfg.IdempotencyTTL,
			EventDedupTTL:         cfg.EventDedupTTL,
		},
		Logger: logger,
	}

	if cfg.DatabaseURL != "" {
		db, dbErr := postgres.Connect(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
		if dbErr != nil {
			return nil, dbErr
		}
		if migrateErr := postgres.RunMigrations(ctx, db); migrateErr != nil {
			return nil, migrateErr
		}
		repos := postgres.NewRepositories(db)
		deps.Features = repos.Features
		deps.Exposures = repos.Exposures
		deps.Drivers = repos.Drivers
		deps.Combinations = repos.Combinations
		deps.SyncRuns = repos.SyncRuns
		deps.Idempotency = repos.Idempotency
		deps.EventDedup = repos.EventDedup
		logger.InfoContext(ctx, "postgres storage configured")
	} else {
		repos := memory.NewRepositories()
		deps.Features = repos.Features
		deps.Exposures = repos.Exposures
		deps.Drivers = repos.Drivers
		deps.Combinations = repos.Combinations
		deps.SyncRuns = repos.SyncRuns
		deps.Idempotency = repos.Idempotency
		deps.EventDedup = repos.EventDedup
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory storage")
	}

	if cfg.RedisURL != "" {
		client, redisErr := cacheadapter.Connect(ctx, cfg.RedisURL)
		if redisErr != nil {
			return nil, redisErr
		}
		deps.Cache = cacheadapter.NewRedisCache(client)
		logger.InfoContext(ctx, "redis cache configured")
	} else {
		deps.Cache = memory.NewCache()
		logger.WarnContext(ctx, "REDIS_URL not set, using in-memory cache")
	}

	service := application.NewService(deps)

	var verifier ports.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier = security.NewJWTVerifier(cfg.JWTSecret)
	}

	handler := httpadapter.NewHandler(service, verifier)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewInsightInternalServer())
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return nil, err
	}

	var consumer ports.EventConsumer
	var dlqPublisher ports.DLQPublisher
	if len(cfg.KafkaBrokers) > 0 {
		consumer = eventadapter.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, cfg.KafkaIngestTopic)
		dlqPublisher = eventadapter.NewKafkaDLQPublisher(cfg.KafkaBrokers, cfg.KafkaDLQTopic)
		logger.InfoContext(ctx, "kafka consumer configured", "topic", cfg.KafkaIngestTopic, "group", cfg.KafkaConsumerGroup)
	} else {
		consumer = eventadapter.NewMemoryConsumer()
		dlqPublisher = eventadapter.NewLoggingDLQPublisher()
		logger.WarnContext(ctx, "KAFKA_BROKERS not set, using in-memory consumer")
	}
	worker := eventadapter.NewWorker(logger, consumer, dlqPublisher, service, cfg.ConsumerPollInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		worker:     worker,
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		if err := r.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
