package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tverdin/carrental/config"
	"github.com/tverdin/carrental/internal/cache"
	"github.com/tverdin/carrental/internal/email"
	"github.com/tverdin/carrental/internal/kafka"
	"github.com/tverdin/carrental/internal/logging"
	"github.com/tverdin/carrental/internal/repository"
	"github.com/tverdin/carrental/internal/service/cars"
	"github.com/tverdin/carrental/internal/storage"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}
	logger := logging.New("carrental-worker", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.CarsCacheTTLSeconds)*time.Second)
	images, err := storage.NewImageStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("init image store")
	}

	carRepo := repository.NewCarRepository(pool)
	carService := cars.NewCarService(carRepo, redisCache, images, logger)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	sender := email.NewSender(logger)

	go func() {
		if err := consumer.Consume(ctx, sender.Send); err != nil {
			logger.Warn().Err(err).Msg("consumer stopped")
		}
	}()

	sweep := time.NewTicker(time.Duration(cfg.Worker.AvailabilitySweepMinutes) * time.Minute)
	defer sweep.Stop()

	for {
		select {
		case <-sweep.C:
			if err := carService.RefreshAvailability(ctx); err != nil {
				logger.Warn().Err(err).Msg("availability sweep failed")
				continue
			}
			logger.Info().Msg("availability flags refreshed")
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return
		}
	}
}
