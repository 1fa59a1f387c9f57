package event

import (
	"context"
	"fmt"
	"time"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultLedgerStream is the Redis stream that carries ledger movements
const DefaultLedgerStream = "ledger:events"

// RedisStreamHandler appends every event it receives to a capped Redis stream
// so reporting consumers can follow ledger movements
type RedisStreamHandler struct {
	client     redis.UniversalClient
	serializer *EventSerializer
	stream     string
	maxLen     int64
	logger     *zap.Logger
}

// NewRedisStreamHandler creates a handler writing to stream. An empty stream
// uses DefaultLedgerStream; maxLen <= 0 leaves the stream uncapped.
func NewRedisStreamHandler(client redis.UniversalClient, serializer *EventSerializer, stream string, maxLen int64, logger *zap.Logger) *RedisStreamHandler {
	if stream == "" {
		stream = DefaultLedgerStream
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStreamHandler{
		client:     client,
		serializer: serializer,
		stream:     stream,
		maxLen:     maxLen,
		logger:     logger.Named("events.stream"),
	}
}

// EventTypes subscribes to the serializer's registered types
func (h *RedisStreamHandler) EventTypes() []string {
	return h.serializer.RegisteredTypes()
}

// Handle XADDs the serialized event
func (h *RedisStreamHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", event.EventType(), err)
	}

	args := &redis.XAddArgs{
		Stream: h.stream,
		Values: map[string]interface{}{
			"event_id":       event.EventID().String(),
			"event_type":     event.EventType(),
			"aggregate_type": event.AggregateType(),
			"aggregate_id":   event.AggregateID().String(),
			"occurred_at":    event.OccurredAt().UTC().Format(time.RFC3339Nano),
			"payload":        string(payload),
		},
	}
	if h.maxLen > 0 {
		args.MaxLen = h.maxLen
		args.Approx = true
	}

	id, err := h.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("append %s to %s: %w", event.EventType(), h.stream, err)
	}

	h.logger.Debug("event appended to stream",
		zap.String("stream", h.stream),
		zap.String("entry_id", id),
		zap.String("event_type", event.EventType()),
	)
	return nil
}

var _ shared.EventHandler = (*RedisStreamHandler)(nil)
