package authz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestBroadcastInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewPermissionCache(time.Hour)
	cache.Put(1, Grant{Code: "1"})
	cache.Put(2, Grant{Code: "2"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ListenInvalidations(ctx, client, cache, nil)
	}()

	b := NewBroadcaster(client)
	require.NoError(t, b.Invalidate(ctx, 1))

	require.Eventually(t, func() bool {
		_, ok := cache.Get(1)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	_, ok := cache.Get(2)
	require.True(t, ok)

	require.NoError(t, b.InvalidateAll(ctx))
	require.Eventually(t, func() bool {
		_, ok := cache.Get(2)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on cancellation")
	}
}

func TestNilBroadcasterIsNoop(t *testing.T) {
	var b *Broadcaster
	require.NoError(t, b.Invalidate(context.Background(), 1))
	require.NoError(t, b.InvalidateAll(context.Background()))
}
