package authz

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// InvalidationChannel carries cache invalidation events between process
// instances. The payload is a user ID, or "*" for a full flush.
const InvalidationChannel = "authz.invalidate"

const invalidateAllPayload = "*"

// Broadcaster publishes cache invalidations so horizontally scaled
// instances converge before their local TTL expires. A nil broadcaster
// or client degrades to local-only invalidation.
type Broadcaster struct {
	client *redis.Client
}

// NewBroadcaster constructs a Broadcaster.
func NewBroadcaster(client *redis.Client) *Broadcaster {
	return &Broadcaster{client: client}
}

// Invalidate publishes a single-user invalidation.
func (b *Broadcaster) Invalidate(ctx context.Context, userID int64) error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Publish(ctx, InvalidationChannel, strconv.FormatInt(userID, 10)).Err()
}

// InvalidateAll publishes a full-cache invalidation.
func (b *Broadcaster) InvalidateAll(ctx context.Context) error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Publish(ctx, InvalidationChannel, invalidateAllPayload).Err()
}

// ListenInvalidations applies published invalidations to the local cache
// until the context is cancelled. Malformed payloads are logged and
// skipped.
func ListenInvalidations(ctx context.Context, client *redis.Client, cache *PermissionCache, logger *slog.Logger) error {
	if client == nil || cache == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	sub := client.Subscribe(ctx, InvalidationChannel)
	defer func() {
		_ = sub.Close()
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if msg.Payload == invalidateAllPayload {
				cache.InvalidateAll()
				continue
			}
			userID, err := strconv.ParseInt(msg.Payload, 10, 64)
			if err != nil {
				logger.Warn("invalid invalidation payload", slog.String("payload", msg.Payload))
				continue
			}
			cache.Invalidate(userID)
		}
	}
}
