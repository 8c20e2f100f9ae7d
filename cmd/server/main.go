package main

import (
	"alcyxob/todo-app/internal/api" // Import API package
	"alcyxob/todo-app/internal/config"
	"alcyxob/todo-app/internal/logging"
	"alcyxob/todo-app/internal/repository"
	badgerrepo "alcyxob/todo-app/internal/repository/badger"
	"alcyxob/todo-app/internal/repository/dynamo"
	"alcyxob/todo-app/internal/repository/mongo"
	"alcyxob/todo-app/internal/service"
	"alcyxob/todo-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title Todo API
// @version 1.0
// @description API for managing to-do items and their image attachments.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	// --- Logging ---
	logger, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("FATAL: Could not set up logging: %v", err)
	}
	defer closeLog()
	logger.Info("starting todo server", "driver", cfg.Database.Driver, "address", cfg.Server.Address)
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	// --- Repository ---
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	todoRepo, closeRepo, err := openRepository(ctx, cfg.Database, logger)
	cancel()
	if err != nil {
		logger.Error("could not open repository", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	// --- Initialize Storage ---
	attachments, err := storage.NewS3Storage(context.Background(), cfg.S3, logger)
	if err != nil {
		logger.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}

	// --- Initialize Services ---
	todoService := service.NewTodoService(todoRepo, attachments, logger)

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(api.RequestLogger(logger), gin.Recovery())

	api.SetupRoutes(router, cfg.JWT, cfg.Events, todoService, attachments, logger)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// openRepository connects the configured driver and returns the repository
// with a function releasing its resources.
func openRepository(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (repository.TodoRepository, func(), error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := mongo.ConnectDB(ctx, cfg.URI)
		if err != nil {
			return nil, nil, err
		}
		appDB := client.Database(cfg.Name)
		if err := mongo.EnsureTodoIndexes(ctx, mongo.TodoCollection(appDB)); err != nil {
			logger.Warn("could not ensure todo indexes", "error", err)
		}
		closeFn := func() {
			if err := mongo.DisconnectDB(client); err != nil {
				logger.Error("failed to disconnect MongoDB", "error", err)
			}
		}
		return mongo.NewMongoTodoRepository(appDB), closeFn, nil

	case config.DriverDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		table := dynamo.TableConfig{TableName: cfg.Table, CreatedAtIndex: cfg.CreatedAtIndex}
		if cfg.CreateTable {
			if err := dynamo.EnsureTodoTable(ctx, client, table); err != nil {
				return nil, nil, err
			}
		}
		return dynamo.NewDynamoTodoRepository(client, table), func() {}, nil

	case config.DriverBadger:
		db, err := badgerrepo.Open(badgerrepo.Options{Path: cfg.Path})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close badger", "error", err)
			}
		}
		return badgerrepo.NewBadgerTodoRepository(db), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
