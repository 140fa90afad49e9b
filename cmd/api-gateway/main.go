package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/talent-pool-api/api/swagger"
	"github.com/noah-isme/talent-pool-api/internal/handler"
	internalmiddleware "github.com/noah-isme/talent-pool-api/internal/middleware"
	"github.com/noah-isme/talent-pool-api/internal/repository"
	"github.com/noah-isme/talent-pool-api/internal/service"
	"github.com/noah-isme/talent-pool-api/pkg/cache"
	"github.com/noah-isme/talent-pool-api/pkg/config"
	"github.com/noah-isme/talent-pool-api/pkg/database"
	"github.com/noah-isme/talent-pool-api/pkg/events"
	"github.com/noah-isme/talent-pool-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/talent-pool-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/talent-pool-api/pkg/middleware/requestid"
)

// @title Talent Pool API
// @version 1.0.0
// @description Candidate pool allocation and company access control
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type dbPinger struct{ db *sqlx.DB }

func (p dbPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	checks := map[string]handler.Pinger{"postgres": dbPinger{db: db}}

	var cacheRepo service.CacheRepository
	if cfg.Stats.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("stats cache disabled: redis unavailable", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, "talent-pool", logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["redis"] = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, cacheRepo != nil)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		kafkaPublisher, err := events.NewKafkaPublisher(events.Config{
			Brokers:        cfg.Events.Brokers,
			Topic:          cfg.Events.Topic,
			WriteTimeout:   cfg.Events.WriteTimeout,
			BreakerTimeout: cfg.Events.BreakerTimeout,
			Logger:         logr,
		})
		if err != nil {
			logr.Fatal("failed to init event publisher", zap.Error(err))
		}
		publisher = kafkaPublisher
	}
	defer publisher.Close() //nolint:errcheck
	eventSvc := service.NewEventService(publisher, cfg.Events, metrics, logr)
	// Workers outlive the signal context so queued events drain after the server stops.
	eventSvc.Start(context.WithoutCancel(ctx))

	validate := validator.New()
	tx := database.NewTxRunner(db)
	poolRepo := repository.NewPoolRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	grantRepo := repository.NewAccessGrantRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	poolSvc := service.NewPoolService(poolRepo, assignmentRepo, tx, cacheSvc, validate, logr)
	grantSvc := service.NewAccessGrantService(grantRepo, poolRepo, cacheSvc, eventSvc, metrics, validate, logr)
	assignmentSvc := service.NewAssignmentService(poolRepo, assignmentRepo, selectionRepo, grantSvc, tx, cacheSvc, eventSvc, metrics,
		service.AssignmentOptionsFromConfig(cfg.Pools), validate, logr)
	selectionSvc := service.NewSelectionService(assignmentRepo, selectionRepo, poolRepo, grantSvc, tx, cacheSvc, eventSvc, metrics, validate, logr)
	statsSvc := service.NewStatsService(statsRepo, poolRepo, grantSvc, cacheSvc, metrics, service.StatsOptions{
		TopSkills:         cfg.Stats.TopSkills,
		NearCapacityRatio: cfg.Pools.NearCapacityRatio,
		CacheTTL:          cfg.Stats.CacheTTL,
	}, logr)
	tokenSvc := service.NewTokenService(cfg.JWT)

	if cfg.Sweep.Enabled {
		sweeper := service.NewGrantSweeper(grantSvc, cfg.Sweep, logr)
		if err := sweeper.Start(ctx); err != nil {
			logr.Fatal("failed to start grant sweeper", zap.Error(err))
		}
		defer sweeper.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	ops := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), tokenSvc, handler.Handlers{
		Pools:       handler.NewPoolHandler(poolSvc),
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Grants:      handler.NewAccessGrantHandler(grantSvc),
		Selections:  handler.NewSelectionHandler(selectionSvc),
		Stats:       handler.NewStatsHandler(statsSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	eventSvc.Stop(shutdownCtx)
}
