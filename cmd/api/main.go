package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidstream/accounts-api/internal/api"
	mongoinfra "github.com/vidstream/accounts-api/internal/infrastructure/db/mongo"
	redisinfra "github.com/vidstream/accounts-api/internal/infrastructure/db/redis"
	"github.com/vidstream/accounts-api/internal/infrastructure/storage"
	"github.com/vidstream/accounts-api/internal/pkg/config"
	"github.com/vidstream/accounts-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx := context.Background()

	client, db, err := mongoinfra.Connect(ctx, mongoinfra.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mongodb")
	}
	if err := mongoinfra.EnsureIndexes(ctx, db); err != nil {
		log.Warn().Err(err).Msg("ensure indexes failed")
	}

	rdb, err := redisinfra.Connect(ctx, redisinfra.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}

	mediaStore, err := storage.NewMediaStore(storage.Config{
		Endpoint:  cfg.Media.Endpoint,
		AccessKey: cfg.Media.AccessKey,
		SecretKey: cfg.Media.SecretKey,
		Bucket:    cfg.Media.Bucket,
		Region:    cfg.Media.Region,
		PublicURL: cfg.Media.PublicURL,
		UseSSL:    cfg.Media.UseSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init media store")
	}
	if err := mediaStore.EnsureBucket(ctx); err != nil {
		log.Warn().Err(err).Msg("ensure media bucket failed")
	}

	e := api.NewRouter(cfg, db, rdb, mediaStore, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("accounts api started")

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect failed")
	}
}
