package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"meritboard/internal/config"
	"meritboard/internal/database"
	"meritboard/internal/jobs"
	"meritboard/internal/logger"
	"meritboard/internal/repository"
	"meritboard/internal/service"
	"meritboard/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Log.Level, "worker")

	slog.Info("Starting checksum worker",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"queue_key", cfg.Worker.QueueKey,
	)

	if !cfg.Redis.Enabled {
		slog.Error("Redis is disabled; uploads are scanned inline and no worker is needed")
		os.Exit(1)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	store, err := storage.NewDiskStore(cfg.Storage.Root)
	if err != nil {
		slog.Error("Failed to initialize blob store", "error", err)
		os.Exit(1)
	}

	queue := jobs.NewQueue(&cfg.Redis, cfg.Worker.QueueKey)
	defer queue.Close()

	fileRepo := repository.NewFileRepository(db.DB)
	fileService := service.NewFileService(fileRepo, store, queue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Worker ready", "poll_interval", cfg.Worker.PollInterval)

	for {
		fileID, err := queue.Dequeue(ctx, cfg.Worker.PollInterval)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Error("Failed to dequeue job", "error", err)
			continue
		}
		if fileID == "" {
			// Poll timeout, check for shutdown and wait again.
			if ctx.Err() != nil {
				break
			}
			continue
		}

		slog.Info("Processing file", "file_id", fileID)
		if err := fileService.Process(fileID); err != nil {
			slog.Error("Failed to process file", "file_id", fileID, "error", err)
		}
	}

	slog.Info("Worker stopped")
}
