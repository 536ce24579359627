package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/infrastructure/redis"
)

// RedisHoldRepository implements domain.HoldRepository using Redis. Holds are
// written with SET NX so the first guest through the availability check wins
// the key; expiry is left entirely to the Redis TTL.
type RedisHoldRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisHoldRepository creates a new hold repository.
func NewRedisHoldRepository(redisClient *redis.Client, logger *slog.Logger) *RedisHoldRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisHoldRepository{
		redis:  redisClient,
		logger: logger,
	}
}

// Place stores the hold if and only if no hold exists for the same key.
func (r *RedisHoldRepository) Place(ctx context.Context, hold *domain.Hold, ttl time.Duration) error {
	data, err := json.Marshal(hold)
	if err != nil {
		return fmt.Errorf("marshal hold: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Second
	}

	ok, err := r.redis.SetNX(ctx, hold.Key, string(data), ttl)
	if err != nil {
		return fmt.Errorf("store hold: %w", err)
	}
	if !ok {
		return &domain.OverlapError{Reason: "table is already held for the requested time"}
	}

	r.logger.Debug("hold placed",
		slog.String("hold_key", hold.Key),
		slog.Duration("ttl", ttl),
	)
	return nil
}

// Get retrieves a hold. A missing or expired hold reports domain.ErrNotFound.
func (r *RedisHoldRepository) Get(ctx context.Context, key string) (*domain.Hold, error) {
	data, err := r.redis.Get(ctx, key)
	if err != nil {
		if redis.IsMissing(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get hold: %w", err)
	}

	var hold domain.Hold
	if err := json.Unmarshal([]byte(data), &hold); err != nil {
		return nil, fmt.Errorf("unmarshal hold: %w", err)
	}
	return &hold, nil
}

// Release removes a hold. Releasing an absent hold is not an error.
func (r *RedisHoldRepository) Release(ctx context.Context, key string) error {
	if err := r.redis.Delete(ctx, key); err != nil {
		return fmt.Errorf("release hold: %w", err)
	}
	r.logger.Debug("hold released", slog.String("hold_key", key))
	return nil
}

// ListByRestaurant returns every live hold for a restaurant.
func (r *RedisHoldRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]*domain.Hold, error) {
	keys, err := r.redis.Keys(ctx, "hold:"+restaurantID+":*")
	if err != nil {
		return nil, fmt.Errorf("list holds: %w", err)
	}

	holds := make([]*domain.Hold, 0, len(keys))
	for _, key := range keys {
		hold, err := r.Get(ctx, key)
		if err != nil {
			// Expired between KEYS and GET.
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			r.logger.Error("failed to load hold", slog.String("key", key), slog.String("error", err.Error()))
			continue
		}
		holds = append(holds, hold)
	}
	return holds, nil
}
