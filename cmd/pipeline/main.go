package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"submission-disk/config"
	"submission-disk/internal/clamav"
	"submission-disk/internal/pipeline"
	"submission-disk/internal/repository"
	"submission-disk/internal/validator"
	"submission-disk/pkg/broker"
	"submission-disk/pkg/database"
	"submission-disk/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == "release" {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	defer l.Logger.Sync()
	logger.SetGlobalLogger(l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

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

	scanner := clamav.New(cfg.VirusScanHost, cfg.VirusScanPort)
	orchestrator := validator.NewOrchestrator(l,
		validator.NewFileSizeValidator(cfg.MinFileSize, cfg.MaxFileSize),
		validator.NewFilenameValidator(),
		validator.NewDuplicateValidator(repo),
		validator.NewFileContentValidator(cfg.MaxZipEntries, cfg.MaxCompressionRatio),
		validator.NewVirusValidator(scanner, cfg.VirusScanEnabled),
	)
	orchestrator.LogValidators()

	err = pipeline.Start(ctx, streams,
		pipeline.NewValidationHandler(repo, producer, orchestrator, l),
		pipeline.NewStorageHandler(repo, producer, l),
		pipeline.NewProcessingHandler(repo, producer, l),
		pipeline.NewNotificationHandler(l),
	)
	if err != nil {
		log.Fatalf("Failed to start pipeline consumers: %v", err)
	}
	l.Infof("pipeline consumers running (group=%s partitions=%d)", cfg.PipelineGroupID, cfg.PipelinePartitions)

	<-ctx.Done()
	l.Infof("shutdown signal received, stopping consumers")
}
