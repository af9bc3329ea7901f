package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix     = "user:%d"
	PostKeyPrefix     = "post:%d"
	FeedPageKeyPrefix = "feed:page:%d:per:%d"
)

const (
	UserTTL = 5 * time.Minute
	PostTTL = 30 * time.Minute
	// Feed pages churn with every new post, so keep them short-lived.
	FeedTTL = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func FeedPageKey(page, perPage int) string {
	return fmt.Sprintf(FeedPageKeyPrefix, page, perPage)
}

// Aside implements the cache-aside pattern: return the cached value when
// present, otherwise load, store and return. A nil client or any Redis
// failure degrades to a plain load.
func Aside[T any](ctx context.Context, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if client != nil {
		raw, err := client.Get(ctx, key).Result()
		if err == nil {
			var cached T
			if unmarshalErr := json.Unmarshal([]byte(raw), &cached); unmarshalErr == nil {
				return cached, nil
			}
			// Corrupt entry; drop it and fall through to the loader.
			client.Del(ctx, key)
		} else if !errors.Is(err, redis.Nil) {
			var zero T
			loaded, loadErr := load()
			if loadErr != nil {
				return zero, loadErr
			}
			return loaded, nil
		}
	}

	loaded, err := load()
	if err != nil {
		var zero T
		return zero, err
	}

	if client != nil {
		if raw, marshalErr := json.Marshal(loaded); marshalErr == nil {
			client.Set(ctx, key, raw, ttl)
		}
	}
	return loaded, nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

// InvalidateFeed drops every cached feed page. Feed keys follow one
// pattern so a SCAN+DEL pass is enough.
func InvalidateFeed(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "feed:page:*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}
