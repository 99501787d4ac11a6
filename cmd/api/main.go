package main

import (
	"context"
	"log"

	"submission-disk/config"
	"submission-disk/internal/clamav"
	"submission-disk/internal/handler"
	"submission-disk/internal/pipeline"
	"submission-disk/internal/repository"
	"submission-disk/internal/server"
	"submission-disk/internal/services"
	"submission-disk/internal/storage"
	"submission-disk/pkg/broker"
	"submission-disk/pkg/database"
	"submission-disk/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	defer l.Logger.Sync()
	logger.SetGlobalLogger(l)

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	streams := broker.NewStreamBroker(redisClient, cfg.PipelineGroupID, cfg.PipelinePartitions, cfg.PipelinePoll, l)
	producer := pipeline.NewProducer(streams, l)

	repo := repository.NewSubmissionRepository(pool)
	store := storage.NewStore(cfg.StoragePath)
	svc := services.NewSubmissionService(repo, store, producer, l)

	deps := server.Dependencies{Pool: pool, Redis: redisClient}
	if cfg.VirusScanEnabled {
		deps.Clamd = clamav.New(cfg.VirusScanHost, cfg.VirusScanPort)
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handler.NewSubmissionHandler(svc), deps)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
