// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/durak/internal/auth"
	"github.com/jason-s-yu/durak/internal/cache"
	"github.com/jason-s-yu/durak/internal/config"
	"github.com/jason-s-yu/durak/internal/database"
	"github.com/jason-s-yu/durak/internal/game"
	"github.com/jason-s-yu/durak/internal/handlers"
	"github.com/jason-s-yu/durak/internal/lobby"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// roomLockTTL bounds how long a crashed instance can hold a room.
const roomLockTTL = 10 * time.Second

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if err := auth.Init(cfg.TokenTTL); err != nil {
		logger.Fatalf("auth: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer closeStore()

	var opts []game.Option
	opts = append(opts, game.WithLogger(logger))
	if cfg.RedisEnabled() {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		opts = append(opts,
			game.WithLocker(cache.NewRedisLocker(rdb, roomLockTTL)),
			game.WithRecorder(cache.NewPublisher(rdb, cfg.QueueName)),
		)
	} else {
		opts = append(opts, game.WithLocker(game.NewLocalLocker()))
		logger.Info("REDIS_ADDR not set; using in-process room locks and no action log")
	}

	engine := game.NewEngine(store, opts...)
	rooms := game.NewRoomService(store, opts...)
	srv := handlers.NewServer(rooms, engine, lobby.NewHub(logger), logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(cfg.CORSOrigins()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Running on %s (store=%s)", httpServer.Addr, cfg.StoreDriver)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}

// openStore builds the configured RoomStore and returns a func releasing its resources.
func openStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (game.RoomStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return database.NewPostgresStore(pool), pool.Close, nil
	case config.StoreSQLite:
		s, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using sqlite store at %s", cfg.SQLitePath)
		return s, func() { _ = s.Close() }, nil
	default:
		logger.Warn("using in-memory store; rooms are lost on restart")
		return game.NewMemoryStore(), func() {}, nil
	}
}
