package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tverdin/carrental/api"
	"github.com/tverdin/carrental/config"
	"github.com/tverdin/carrental/internal/bootstrap"
	"github.com/tverdin/carrental/internal/cache"
	"github.com/tverdin/carrental/internal/kafka"
	"github.com/tverdin/carrental/internal/logging"
	"github.com/tverdin/carrental/internal/repository"
	"github.com/tverdin/carrental/internal/service/admin"
	"github.com/tverdin/carrental/internal/service/booking"
	"github.com/tverdin/carrental/internal/service/cars"
	"github.com/tverdin/carrental/internal/service/feedback"
	"github.com/tverdin/carrental/internal/service/users"
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
	logger := logging.New("carrental-api", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.CarsCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	images, err := storage.NewImageStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("init image store")
	}

	carRepo := repository.NewCarRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	userService := users.NewUserService(userRepo, redisCache, time.Duration(cfg.Auth.SessionTTLMinutes)*time.Minute)
	carService := cars.NewCarService(carRepo, redisCache, images, logger)
	bookingService := booking.NewBookingService(
		bookingRepo,
		carRepo,
		userRepo,
		paymentRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.LockTTLSeconds)*time.Second,
		logger,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLockRetries(cfg.Booking.LockRetries, time.Duration(cfg.Booking.LockRetryDelayMs)*time.Millisecond),
	)
	feedbackService := feedback.NewFeedbackService(feedbackRepo, userRepo)
	adminService := admin.NewAdminService(statsRepo)

	handlers := bootstrap.Handlers{
		Auth:     api.NewAuthHandler(userService),
		Cars:     api.NewCarHandler(carService),
		Bookings: api.NewBookingHandler(bookingService),
		Payments: api.NewPaymentHandler(bookingService),
		Feedback: api.NewFeedbackHandler(feedbackService),
		Admin:    api.NewAdminHandler(adminService, userService),
		Users:    userService,
	}

	if err := bootstrap.Run(ctx, cfg, handlers, logger); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
