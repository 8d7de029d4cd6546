package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mentorship/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	mentorSlotsKey = "mentor_slots:%d"
	rateLimitKey   = "booking_rate:%d"
)

// RedisCacheRepository caches mentor slot lists and counts booking attempts
// per student. Nothing here is authoritative.
type RedisCacheRepository struct {
	client  *redis.Client
	slotTTL time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisCacheRepository(client *redis.Client, slotTTL time.Duration) *RedisCacheRepository {
	return &RedisCacheRepository{
		client:  client,
		slotTTL: slotTTL,
	}
}

func (r *RedisCacheRepository) GetMentorSlots(ctx context.Context, mentorID int64) ([]string, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, fmt.Sprintf(mentorSlotsKey, mentorID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get mentor slots from redis: %w", err)
	}

	var slots []string
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal mentor slots: %w", err)
	}
	return slots, true, nil
}

func (r *RedisCacheRepository) SetMentorSlots(ctx context.Context, mentorID int64, slots []string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to marshal mentor slots: %w", err)
	}
	if err := r.client.Set(ctx, fmt.Sprintf(mentorSlotsKey, mentorID), data, r.slotTTL).Err(); err != nil {
		return fmt.Errorf("failed to set mentor slots in redis: %w", err)
	}
	return nil
}

func (r *RedisCacheRepository) InvalidateMentorSlots(ctx context.Context, mentorID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, fmt.Sprintf(mentorSlotsKey, mentorID)).Err(); err != nil {
		return fmt.Errorf("failed to delete mentor slots from redis: %w", err)
	}
	return nil
}

// CheckRateLimit uses a fixed window counter: INCR, and EXPIRE on the first hit.
func (r *RedisCacheRepository) CheckRateLimit(ctx context.Context, studentID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf(rateLimitKey, studentID)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
