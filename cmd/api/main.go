package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Aman-Sigroha/WildWardenServer/internal/api"
	"github.com/Aman-Sigroha/WildWardenServer/internal/config"
	"github.com/Aman-Sigroha/WildWardenServer/internal/domain"
	"github.com/Aman-Sigroha/WildWardenServer/internal/events"
	applogger "github.com/Aman-Sigroha/WildWardenServer/internal/logger"
	persistence "github.com/Aman-Sigroha/WildWardenServer/internal/persistence/mongo"
	httptransport "github.com/Aman-Sigroha/WildWardenServer/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger, err := applogger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb disconnect failed", zap.Error(err))
		}
	}()

	if err := client.Ping(connectCtx, nil); err != nil {
		logger.Fatal("mongodb unreachable", zap.Error(err))
	}

	repo := persistence.NewRepository(client.Database(cfg.MongoDatabase))
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		logger.Fatal("failed to ensure indexes", zap.Error(err))
	}
	logger.Info("case store ready", zap.String("database", cfg.MongoDatabase))

	var sink domain.EventSink
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error("kafka producer close failed", zap.Error(err))
			}
		}()
		sink = events.NewPublisher(producer, logger)
		logger.Info("event publishing enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	service := domain.NewService(repo, sink)
	handler := api.NewHandler(service, repo, logger)

	router := mux.NewRouter()
	router.Use(api.LoggingMiddleware(logger))
	router.Use(api.MetricsMiddleware)
	handler.RegisterRoutes(router)

	// CORS wraps the router itself so preflight requests are answered even
	// when no route matches the OPTIONS method.
	root := api.CORSMiddleware(cfg.CORSAllowOrigin)(router)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, root)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("wildwarden server listening", zap.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
