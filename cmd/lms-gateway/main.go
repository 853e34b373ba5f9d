package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-portal/api/swagger"
	"github.com/noah-isme/lms-portal/internal/handler"
	internalmiddleware "github.com/noah-isme/lms-portal/internal/middleware"
	"github.com/noah-isme/lms-portal/internal/remote"
	"github.com/noah-isme/lms-portal/internal/repository"
	"github.com/noah-isme/lms-portal/internal/service"
	"github.com/noah-isme/lms-portal/pkg/cache"
	"github.com/noah-isme/lms-portal/pkg/config"
	"github.com/noah-isme/lms-portal/pkg/database"
	"github.com/noah-isme/lms-portal/pkg/jobs"
	"github.com/noah-isme/lms-portal/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-portal/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-portal/pkg/middleware/requestid"
)

// @title LMS Portal Gateway
// @version 1.0.0
// @description Role-scoped gateway in front of the LMS REST API.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	client := remote.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout,
		remote.WithPublicEndpoints(cfg.Upstream.PublicEndpoints),
		remote.WithRecorder(metrics),
		remote.WithLogger(logr),
	)

	var redisClient *redis.Client
	if cfg.Catalog.Enabled || cfg.InFlight.Backend == config.InFlightRedis {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		cancel()
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, falling back to in-process state", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	var catalog *service.CacheService
	if redisClient != nil && cfg.Catalog.Enabled {
		catalog = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Catalog.CacheTTL, logr, true)
	}

	var inflight service.InFlightGuard = service.NewMemoryInFlight()
	if redisClient != nil && cfg.InFlight.Backend == config.InFlightRedis {
		inflight = repository.NewRedisInFlight(redisClient, cfg.InFlight.TTL, logr)
	}

	audit := service.NewAuditService(nil, metrics, logr)
	if cfg.Audit.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			cancel()
			logr.Sugar().Fatalw("failed to connect database", "error", err)
		}
		defer db.Close() //nolint:errcheck

		repo := repository.NewAuditRepository(db)
		err = repo.EnsureSchema(ctx)
		cancel()
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare audit schema", "error", err)
		}
		writer := service.NewQueuedAuditRepository(repo, metrics, jobs.QueueConfig{
			Workers:    cfg.Audit.Workers,
			BufferSize: cfg.Audit.QueueSize,
			MaxRetries: 3,
			RetryDelay: 500 * time.Millisecond,
			Logger:     logr,
		})
		writer.Start(context.Background())
		defer writer.Stop()
		audit = service.NewAuditService(writer, metrics, logr)
	}

	sessions := service.NewSessionService(
		func(token string) service.LMSAPI { return client.As(token) },
		service.SessionConfig{
			TTL:             cfg.Session.TTL,
			MaxSessions:     cfg.Session.MaxSessions,
			RequireLecturer: cfg.Enrollment.RequireLecturer,
		},
		metrics, logr,
	)
	syncer := service.NewSyncService(catalog, logr)
	views := service.NewDashboardService(cfg.Enrollment.RequireLecturer)
	intents := service.NewIntentService(inflight, syncer, audit, metrics, validate, logr, service.WithSessionRevoker(sessions))
	registration := service.NewRegistrationService(client, audit, metrics, validate, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, internalmiddleware.Session(sessions), handler.Handlers{
		Session:  handler.NewSessionHandler(sessions),
		Auth:     handler.NewAuthHandler(registration),
		Admin:    handler.NewAdminHandler(syncer, views, intents, audit),
		Lecturer: handler.NewLecturerHandler(syncer, views, service.NewExportService()),
		Student:  handler.NewStudentHandler(syncer, views, intents),
		Metrics:  handler.NewMetricsHandler(metrics, client),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down", zap.Int("sessions", sessions.Len()))
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
