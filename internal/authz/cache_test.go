package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheGetPut(t *testing.T) {
	c := NewPermissionCache(time.Minute)
	_, ok := c.Get(1)
	require.False(t, ok)

	grant := Grant{Code: "4", Permissions: []string{PermUsersRead}}
	c.Put(1, grant)
	got, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, grant, got)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewPermissionCache(5 * time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put(1, Grant{Code: "1"})

	c.now = func() time.Time { return base.Add(5*time.Minute - time.Second) }
	_, ok := c.Get(1)
	require.True(t, ok)

	// TTL runs from insertion, not from last access.
	c.now = func() time.Time { return base.Add(5*time.Minute + time.Second) }
	_, ok = c.Get(1)
	require.False(t, ok)
	require.Equal(t, 0, c.Len(), "expired entry must be evicted")
}

func TestCacheInvalidate(t *testing.T) {
	c := NewPermissionCache(time.Minute)
	c.Put(1, Grant{Code: "1"})
	c.Put(2, Grant{Code: "2"})

	c.Invalidate(1)
	_, ok := c.Get(1)
	require.False(t, ok)
	_, ok = c.Get(2)
	require.True(t, ok)

	c.InvalidateAll()
	_, ok = c.Get(2)
	require.False(t, ok)
}

func TestCacheDefaultTTL(t *testing.T) {
	c := NewPermissionCache(0)
	require.Equal(t, DefaultCacheTTL, c.ttl)
}
