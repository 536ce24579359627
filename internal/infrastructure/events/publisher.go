package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/infrastructure/redis"
	"github.com/yourorg/tablereserve/internal/reliability/circuitbreaker"
	"github.com/yourorg/tablereserve/internal/reliability/retry"
)

// Channel is the pub/sub channel domain events are delivered on.
const Channel = "tablereserve.events"

// RedisPublisher delivers domain events over redis pub/sub. A circuit breaker
// fronts the broker so a dead redis cannot stall the booking path, and each
// publish is retried with backoff before the failure is logged and dropped.
type RedisPublisher struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	retry   *retry.Config
	logger  *slog.Logger
}

// NewRedisPublisher builds a publisher on the shared redis client.
func NewRedisPublisher(client *redis.Client, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPublisher{
		client:  client,
		breaker: circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second),
		retry: &retry.Config{
			MaxAttempts:       3,
			InitialBackoff:    50 * time.Millisecond,
			MaxBackoff:        time.Second,
			BackoffMultiplier: 2.0,
		},
		logger: logger,
	}
}

// Publish implements domain.EventPublisher. Failures are logged, never
// returned to the point the mutation would roll back.
func (p *RedisPublisher) Publish(ctx context.Context, event domain.Event) error {
	if !p.breaker.AllowRequest() {
		p.logger.Warn("event dropped, publisher circuit open",
			slog.String("event_id", event.ID),
			slog.String("type", string(event.Type)),
		)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = retry.Do(ctx, p.retry, p.logger, "publish event", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.client.Publish(ctx, Channel, payload)
	})
	if err != nil {
		p.breaker.RecordFailure()
		p.logger.Error("failed to publish event",
			slog.String("event_id", event.ID),
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		return nil
	}
	p.breaker.RecordSuccess()
	return nil
}

// Fanout delivers every event to each wrapped publisher.
type Fanout struct {
	publishers []domain.EventPublisher
}

// NewFanout combines publishers.
func NewFanout(publishers ...domain.EventPublisher) *Fanout {
	return &Fanout{publishers: publishers}
}

// Publish implements domain.EventPublisher.
func (f *Fanout) Publish(ctx context.Context, event domain.Event) error {
	for _, p := range f.publishers {
		_ = p.Publish(ctx, event)
	}
	return nil
}
