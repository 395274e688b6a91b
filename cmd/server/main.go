package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/cache"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/config"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/handlers"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/middleware"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/proctor"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/quiz"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories/postgres"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/services"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/utils"
	"github.com/JosefMarie/usafi-barista-app-sub003/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting barista learning service",
		"port", cfg.Port,
		"environment", cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Module{},
		&models.Slide{},
		&models.ModuleAssignment{},
		&models.ProgressRecord{},
		&models.Enrollment{},
		&models.StudentNote{},
		&models.CheatEvent{},
	); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("event publisher init failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	contentCache := cache.NewRedisCache(redisClient, logger)
	engine := quiz.NewEngine(quiz.Config{TickInterval: cfg.QuizTickInterval}, logger)
	cheatQueue := proctor.NewRedisQueue(redisClient, logger)

	serviceManager := services.NewServiceManager(services.Deps{
		Repo:         repo,
		Cache:        contentCache,
		Engine:       engine,
		Publisher:    publisher,
		CheatSink:    cheatQueue,
		Validator:    utils.NewValidator(),
		NoteDebounce: cfg.NoteDebounce,
		Logger:       logger,
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	recorder := proctor.NewRecorder(redisClient, repo.CheatEvent(), logger)
	go recorder.Run(workerCtx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	auth := middleware.NewAuthenticator(cfg, repo.User(), logger)
	handlerManager := handlers.NewHandlerManager(serviceManager, logger)
	handlerManager.SetupRoutes(router, auth)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	// Stop live quiz timers, flush buffered notes, then drain the recorder.
	engine.Shutdown()
	serviceManager.Note().Flush()
	stopWorkers()
	time.Sleep(500 * time.Millisecond)

	logger.Info("stopped")
}
