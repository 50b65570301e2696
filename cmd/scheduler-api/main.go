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
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Class timetable generation and scheduling configuration
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, scheduler meta cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newRouter(cfg, logr, db, cacheRepo, redisClient != nil)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, cacheRepo *repository.CacheRepository, cacheAvailable bool) *gin.Engine {
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.MetaCacheTTL, logr, cfg.Cache.Enabled && cacheAvailable)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	configSvc := service.NewSchedulerConfigService(service.SchedulerStores{
		Teachers:        repository.NewTeacherRepository(db),
		Subjects:        repository.NewSubjectRepository(db),
		Classes:         repository.NewClassRepository(db),
		TeacherSubjects: repository.NewTeacherSubjectRepository(db),
		ClassSubjects:   repository.NewClassSubjectRepository(db),
		TeacherLimits:   repository.NewTeacherLimitRepository(db),
		Configs:         repository.NewScheduleConfigRepository(db),
	}, cacheSvc, validate, logr, service.SchedulerConfigOptions{
		ConfigName:   cfg.Scheduler.ConfigName,
		MetaCacheTTL: cfg.Scheduler.MetaCacheTTL,
	})

	entryRepo := repository.NewScheduleEntryRepository(db)
	generatorSvc := service.NewScheduleGeneratorService(configSvc, entryRepo, db, metricsSvc, validate, logr, service.ScheduleGeneratorConfig{
		Seed:            cfg.Scheduler.Seed,
		IDPrefix:        cfg.Scheduler.IDPrefix,
		IDWidth:         cfg.Scheduler.IDWidth,
		ValidateOnApply: cfg.Scheduler.ValidateOnApply,
	})
	scheduleSvc := service.NewScheduleService(entryRepo, configSvc, nil, nil, validate, logr)

	schedulerHandler := handler.NewSchedulerHandler(configSvc, generatorSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": db,
		"redis":    handler.PingerFunc(cacheRepo.Ping),
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, internalmiddleware.JWT(tokenSvc))
	admin := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	schedulerGroup := api.Group("/scheduler", internalmiddleware.FeatureGate(cfg.Scheduler.Enabled, "scheduler"))
	schedulerGroup.GET("/meta", schedulerHandler.Meta)
	schedulerGroup.GET("/config", schedulerHandler.GetConfig)
	schedulerGroup.PUT("/config", admin, schedulerHandler.PutConfig)
	schedulerGroup.PUT("/teacher-subjects/:teacherId", admin, schedulerHandler.PutTeacherSubjects)
	schedulerGroup.PUT("/class-subjects/:classId", admin, schedulerHandler.PutClassSubjects)
	schedulerGroup.PUT("/class-subjects-matrix", admin, schedulerHandler.PutClassSubjectsMatrix)
	schedulerGroup.PUT("/teacher-limit/:teacherId", admin, schedulerHandler.PutTeacherLimit)
	schedulerGroup.PUT("/teacher-limits-bulk", admin, schedulerHandler.PutTeacherLimitsBulk)
	schedulerGroup.POST("/readiness", admin, schedulerHandler.Readiness)
	schedulerGroup.POST("/generate", admin, schedulerHandler.Generate)
	schedulerGroup.POST("/apply", admin, internalmiddleware.Audit(logr, "schedule.apply"), schedulerHandler.Apply)
	schedulerGroup.POST("/reset", admin, internalmiddleware.Audit(logr, "schedule.reset"), schedulerHandler.Reset)

	api.GET("/schedules", scheduleHandler.List)
	api.GET("/schedules/export", scheduleHandler.Export)

	return r
}
