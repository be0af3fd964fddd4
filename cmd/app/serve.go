package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/waste3d/courseforge/config"
	"github.com/waste3d/courseforge/internal/application/session"
	"github.com/waste3d/courseforge/internal/application/usecase"
	"github.com/waste3d/courseforge/internal/infrastructure/cache"
	"github.com/waste3d/courseforge/internal/infrastructure/llm"
	"github.com/waste3d/courseforge/internal/infrastructure/logger"
	"github.com/waste3d/courseforge/internal/infrastructure/repository"
	"github.com/waste3d/courseforge/internal/infrastructure/security"
	"github.com/waste3d/courseforge/internal/middleware"
	"github.com/waste3d/courseforge/internal/observability"
	"github.com/waste3d/courseforge/internal/prompts"
	grpc_server "github.com/waste3d/courseforge/internal/transport/grpc"
	handlers "github.com/waste3d/courseforge/internal/transport/http"
)

const serviceName = "courseforge"

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Логгер и трейсинг
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: serviceName,
		Environment: cfg.LogMode,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSamplerRatio,
	})

	// 2. БД
	db, err := repository.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}

	// 3. Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()
	log.Info("connected", "db", cfg.DBDriver, "redis", cfg.RedisAddr)

	// 4. Модель и промпты
	llmCfg := llm.DefaultConfig()
	llmCfg.Endpoint = cfg.ModelURL
	llmCfg.Model = cfg.ModelName
	llmCfg.Timeout = cfg.ModelTimeout
	llmCfg.MaxRetries = cfg.ModelMaxRetries
	model := llm.NewOllamaClient(llmCfg, llm.NewLogObserver(log))
	if !model.Available(ctx) {
		log.Warn("model endpoint not reachable yet", "url", cfg.ModelURL, "model", cfg.ModelName)
	}

	catalogue, err := prompts.Load()
	if err != nil {
		return err
	}

	// 5. Use cases
	var sessions session.Store = session.NewMemoryStore()
	if cfg.SessionBackend == "redis" {
		sessions = cache.NewSessionStore(rdb, cfg.SessionTTL)
	}

	courses := repository.NewCourseRepository(db, rdb)
	lessons := repository.NewLessonRepository(db, rdb)
	exercises := repository.NewExerciseRepository(db)

	auth := usecase.NewAuthUseCase(
		repository.NewUserRepository(db),
		cache.NewAuthSessionCache(rdb, cfg.SessionTTL),
		security.NewPasswordHasher(bcrypt.DefaultCost),
		security.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL),
	)
	builder := usecase.NewBuildUseCase(sessions, courses, model, catalogue, usecase.NewIntentRouter(model, catalogue), log)
	tutor := usecase.NewTeachUseCase(lessons, model, catalogue, log)
	exerciser := usecase.NewExerciseUseCase(lessons, courses, exercises, model, catalogue, log)
	catalog := usecase.NewCatalogUseCase(courses, lessons, exercises)

	// 6. Транспорт
	router := handlers.NewRouter(handlers.RouterDeps{
		Chat:           handlers.NewChatHandler(builder, tutor),
		Courses:        handlers.NewCourseHandler(catalog),
		Exercises:      handlers.NewExerciseHandler(exerciser),
		Auth:           handlers.NewAuthHandler(auth, cfg.SessionTTL),
		Sessions:       middleware.NewSessionAuth(auth, cfg.SessionTTL, log),
		Limiter:        middleware.NewRateLimiter(rdb),
		Log:            log,
		AllowedOrigins: cfg.Origins(),
		ServiceName:    serviceName,
	})
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc_server.NewServer(grpc_server.NewHealthServer(probes(db, rdb, model), log))
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("gRPC health server listening", "port", cfg.GRPCPort)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		grpcServer.GracefulStop()
		err := httpServer.Shutdown(shutdownCtx)
		if otelErr := shutdownOTel(shutdownCtx); otelErr != nil {
			log.Warn("otel shutdown", "error", otelErr)
		}
		return err
	})

	return g.Wait()
}

func probes(db *gorm.DB, rdb *redis.Client, model llm.Client) map[string]grpc_server.Probe {
	return map[string]grpc_server.Probe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
		"model": func(ctx context.Context) error {
			if !model.Available(ctx) {
				return llm.ErrModelUnavailable
			}
			return nil
		},
	}
}
