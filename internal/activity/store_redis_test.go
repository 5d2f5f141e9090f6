// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/activity"
)

const presenceTTL = 2 * time.Minute

func newPresenceStore(t *testing.T) (*activity.RedisPresenceStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return activity.NewPresenceStore(client, presenceTTL), server, client
}

/*
TestPresence_MonotonicLastSeen ignores heartbeats that arrive out of order.
*/
func TestPresence_MonotonicLastSeen(t *testing.T) {
	store, _, _ := newPresenceStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	written, err := store.Touch(ctx, "u1", "/dashboard", t0)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = store.Touch(ctx, "u1", "/stale", t0.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, written)

	online, err := store.Online(ctx, t0)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "/dashboard", online[0].Page)
	assert.True(t, t0.Equal(online[0].LastSeenAt))

	written, err = store.Touch(ctx, "u1", "/reports", t0.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, written)

	online, err = store.Online(ctx, t0.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "/reports", online[0].Page)
}

/*
TestPresence_Window orders users and drops those outside the TTL.
*/
func TestPresence_Window(t *testing.T) {
	store, server, client := newPresenceStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	_, err := store.Touch(ctx, "u1", "/a", t0)
	require.NoError(t, err)
	_, err = store.Touch(ctx, "u2", "/b", t0.Add(30*time.Second))
	require.NoError(t, err)

	assert.Equal(t, presenceTTL, server.TTL("portal:presence:u1"))

	online, err := store.Online(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, online, 2)
	assert.Equal(t, "u2", online[0].UserID)
	assert.Equal(t, "u1", online[1].UserID)

	online, err = store.Online(ctx, t0.Add(presenceTTL+10*time.Second))
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "u2", online[0].UserID)
	assert.Equal(t, int64(1), client.ZCard(ctx, "portal:presence:index").Val(), "stale index members are pruned")
}

/*
TestPresence_ExpiredHash skips index members whose record already expired.
*/
func TestPresence_ExpiredHash(t *testing.T) {
	store, server, _ := newPresenceStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	_, err := store.Touch(ctx, "u1", "/a", t0)
	require.NoError(t, err)
	server.FastForward(presenceTTL + time.Second)

	online, err := store.Online(ctx, t0)
	require.NoError(t, err)
	assert.Empty(t, online)
}

/*
TestPresence_Remove forgets the user.
*/
func TestPresence_Remove(t *testing.T) {
	store, server, _ := newPresenceStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	_, err := store.Touch(ctx, "u1", "/a", t0)
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, "u1"))

	assert.False(t, server.Exists("portal:presence:u1"))
	online, err := store.Online(ctx, t0)
	require.NoError(t, err)
	assert.Empty(t, online)
}
