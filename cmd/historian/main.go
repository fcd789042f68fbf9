// cmd/historian/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/durak/internal/cache"
	"github.com/jason-s-yu/durak/internal/config"
	"github.com/jason-s-yu/durak/internal/database"
	"github.com/jason-s-yu/durak/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)
	if !cfg.RedisEnabled() {
		logger.Fatal("REDIS_ADDR is required for the historian")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("schema: %v", err)
	}

	hs := historian.New(rdb, pool, historian.Config{
		Queue:         cfg.QueueName,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger)

	logger.Infof("Historian consuming %s", cfg.QueueName)
	if err := hs.Run(ctx); err != nil {
		logger.Errorf("historian stopped: %v", err)
	}
	logger.Info("Historian shutdown complete.")
}
