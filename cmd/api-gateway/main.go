package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/LiezGoo/scheduling-system-sub000/api/swagger"
	"github.com/LiezGoo/scheduling-system-sub000/internal/handler"
	"github.com/LiezGoo/scheduling-system-sub000/internal/middleware"
	"github.com/LiezGoo/scheduling-system-sub000/internal/repository"
	"github.com/LiezGoo/scheduling-system-sub000/internal/service"
	"github.com/LiezGoo/scheduling-system-sub000/pkg/cache"
	"github.com/LiezGoo/scheduling-system-sub000/pkg/config"
	"github.com/LiezGoo/scheduling-system-sub000/pkg/database"
	"github.com/LiezGoo/scheduling-system-sub000/pkg/logger"
	corsmiddleware "github.com/LiezGoo/scheduling-system-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/LiezGoo/scheduling-system-sub000/pkg/middleware/requestid"
)

// @title Class Scheduling API
// @version 1.0.0
// @description Evolutionary weekly timetable generation and validation
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	// Redis mirrors progress snapshots for cheap polling; the database
	// copy stays authoritative, so a missing Redis is not fatal.
	var progressCache *repository.ProgressCache
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, progress served from database only", "error", err)
	} else {
		defer redisClient.Close()
		progressCache = repository.NewProgressCache(redisClient, cfg.Generator.ProgressTTL)
	}

	subjectRepo := repository.NewSubjectRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	programRepo := repository.NewProgramRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	itemRepo := repository.NewScheduleItemRepository(db)

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	timetableSvc := service.NewTimetableService(
		subjectRepo,
		instructorRepo,
		roomRepo,
		programRepo,
		scheduleRepo,
		itemRepo,
		progressCache,
		db,
		metricsSvc,
		validate,
		logr,
		service.TimetableConfig{
			PopulationSize: cfg.Generator.PopulationSize,
			Generations:    cfg.Generator.Generations,
			MutationRate:   cfg.Generator.MutationRate,
			CrossoverRate:  cfg.Generator.CrossoverRate,
			EliteSize:      cfg.Generator.EliteSize,
			TournamentSize: cfg.Generator.TournamentSize,
			RetryBudget:    cfg.Generator.RetryBudget,
			WorkingDays:    cfg.Generator.WorkingDays,
			DayStart:       cfg.Generator.DayStart,
			DayEnd:         cfg.Generator.DayEnd,
			Workers:        cfg.Generator.Workers,
			QueueSize:      cfg.Generator.QueueSize,
		},
	)
	exportSvc := service.NewExportService(scheduleRepo, itemRepo, subjectRepo, instructorRepo, roomRepo, programRepo, nil, nil, logr)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timetableSvc.StartWorkers(ctx)
	defer timetableSvc.StopWorkers()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		timetables := api.Group("/timetables")
		timetables.POST("/generate", timetableHandler.Generate)
		timetables.GET("/:id", timetableHandler.Detail)
		timetables.GET("/:id/progress", timetableHandler.Progress)
		timetables.GET("/:id/validation", timetableHandler.Validation)
		timetables.GET("/:id/export", timetableHandler.Export)
		timetables.POST("/:id/status", timetableHandler.UpdateStatus)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		logr.Sugar().Infow("shutting down")
		_ = srv.Shutdown(context.Background())
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
