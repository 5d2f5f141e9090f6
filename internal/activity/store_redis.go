// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence keys. Each user has a hash; the sorted set indexes them by last heartbeat.
const (
	presenceKeyPrefix = "portal:presence:"
	presenceIndexKey  = "portal:presence:index"
)

// touchScript writes the heartbeat only when it is not older than the stored one.
//
// KEYS[1] user hash, KEYS[2] index. ARGV: seen (ms), page, ttl (ms), user id.
var touchScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'seen')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'seen', ARGV[1], 'page', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
redis.call('ZADD', KEYS[2], ARGV[1], ARGV[4])
return 1
`)

// RedisPresenceStore implements [PresenceStore] using Redis.
type RedisPresenceStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPresenceStore creates a new Redis-backed [PresenceStore]. Records expire after ttl.
func NewPresenceStore(client *redis.Client, ttl time.Duration) *RedisPresenceStore {
	return &RedisPresenceStore{client: client, ttl: ttl}
}

/*
Touch stores a heartbeat atomically.

Parameters:
  - context: context.Context
  - userID: string
  - page: string
  - seenAt: time.Time

Returns:
  - bool: False when a newer heartbeat was already stored
  - error: Connectivity failures
*/
func (store *RedisPresenceStore) Touch(context context.Context, userID, page string, seenAt time.Time) (bool, error) {
	keys := []string{presenceKeyPrefix + userID, presenceIndexKey}

	written, err := touchScript.Run(context, store.client, keys,
		seenAt.UnixMilli(), page, store.ttl.Milliseconds(), userID).Int()
	if err != nil {
		return false, fmt.Errorf("redis_presence_touch_failed: %w", err)
	}
	return written == 1, nil
}

/*
Online lists users seen within the TTL.

Description: Index members older than the window are pruned on the way.
A member whose hash already expired is skipped.

Returns:
  - []Presence: Most recent heartbeat first
  - error: Connectivity failures
*/
func (store *RedisPresenceStore) Online(context context.Context, now time.Time) ([]Presence, error) {
	cutoff := now.Add(-store.ttl).UnixMilli()

	if err := store.client.ZRemRangeByScore(context, presenceIndexKey, "-inf", "("+strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return nil, fmt.Errorf("redis_presence_prune_failed: %w", err)
	}

	userIDs, err := store.client.ZRevRangeByScore(context, presenceIndexKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis_presence_index_failed: %w", err)
	}
	if len(userIDs) == 0 {
		return []Presence{}, nil
	}

	pipeline := store.client.Pipeline()
	commands := make([]*redis.SliceCmd, len(userIDs))
	for i, userID := range userIDs {
		commands[i] = pipeline.HMGet(context, presenceKeyPrefix+userID, "seen", "page")
	}
	if _, err := pipeline.Exec(context); err != nil {
		return nil, fmt.Errorf("redis_presence_read_failed: %w", err)
	}

	online := make([]Presence, 0, len(userIDs))
	for i, command := range commands {
		values := command.Val()
		seen, ok := values[0].(string)
		if !ok {
			continue
		}
		millis, err := strconv.ParseInt(seen, 10, 64)
		if err != nil || millis < cutoff {
			continue
		}
		page, _ := values[1].(string)
		online = append(online, Presence{UserID: userIDs[i], Page: page, LastSeenAt: time.UnixMilli(millis).UTC()})
	}

	slices.SortStableFunc(online, func(a, b Presence) int { return b.LastSeenAt.Compare(a.LastSeenAt) })
	return online, nil
}

// Remove deletes the hash and index entry of userID.
func (store *RedisPresenceStore) Remove(context context.Context, userID string) error {
	pipeline := store.client.TxPipeline()
	pipeline.Del(context, presenceKeyPrefix+userID)
	pipeline.ZRem(context, presenceIndexKey, userID)
	if _, err := pipeline.Exec(context); err != nil {
		return fmt.Errorf("redis_presence_remove_failed: %w", err)
	}
	return nil
}
