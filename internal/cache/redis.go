package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tverdin/carrental/config"
	"github.com/tverdin/carrental/internal/domain"
)

// ErrSessionNotFound is returned when a session token is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

type RedisCache struct {
	client  *redis.Client
	carsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, carsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		carsTTL: carsTTL,
	}
}

func (c *RedisCache) GetCars(ctx context.Context) ([]domain.Car, error) {
	data, err := c.client.Get(ctx, carsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var cars []domain.Car
	if err := json.Unmarshal(data, &cars); err != nil {
		return nil, err
	}
	return cars, nil
}

func (c *RedisCache) SetCars(ctx context.Context, cars []domain.Car) error {
	payload, err := json.Marshal(cars)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, carsKey(), payload, c.carsTTL).Err()
}

func (c *RedisCache) InvalidateCars(ctx context.Context) error {
	return c.client.Del(ctx, carsKey()).Err()
}

// AcquireBookingLock takes a short-lived advisory lock that serializes booking
// creation per car, so the overlap check and insert run without a concurrent
// writer for the same car.
func (c *RedisCache) AcquireBookingLock(ctx context.Context, carID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, bookingLockKey(carID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseBookingLock(ctx context.Context, carID int64) error {
	return c.client.Del(ctx, bookingLockKey(carID)).Err()
}

func (c *RedisCache) SaveSession(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	return c.client.Set(ctx, sessionKey(token), userID, ttl).Err()
}

func (c *RedisCache) GetSession(ctx context.Context, token string) (int64, error) {
	val, err := c.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, ErrSessionNotFound
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (c *RedisCache) DeleteSession(ctx context.Context, token string) error {
	return c.client.Del(ctx, sessionKey(token)).Err()
}

func carsKey() string {
	return "cache:cars"
}

func bookingLockKey(carID int64) string {
	return fmt.Sprintf("lock:car:%d:booking", carID)
}

func sessionKey(token string) string {
	return "session:" + token
}
