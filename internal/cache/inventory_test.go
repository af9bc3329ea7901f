package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePost struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func setupCache(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
}

func TestAside_CachesLoaderResult(t *testing.T) {
	setupCache(t)
	ctx := context.Background()

	loads := 0
	load := func() (fakePost, error) {
		loads++
		return fakePost{ID: 7, Title: "cached once"}, nil
	}

	first, err := Aside(ctx, PostKey(7), PostTTL, load)
	require.NoError(t, err)
	assert.Equal(t, "cached once", first.Title)

	second, err := Aside(ctx, PostKey(7), PostTTL, load)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads, "second read should be served from cache")
}

func TestAside_LoaderErrorPropagates(t *testing.T) {
	setupCache(t)

	_, err := Aside(context.Background(), PostKey(1), PostTTL, func() (fakePost, error) {
		return fakePost{}, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
}

func TestAside_NilClientDegradesToLoad(t *testing.T) {
	SetClient(nil)

	got, err := Aside(context.Background(), PostKey(2), time.Minute, func() (fakePost, error) {
		return fakePost{ID: 2, Title: "direct"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", got.Title)
}

func TestInvalidateFeed(t *testing.T) {
	setupCache(t)
	ctx := context.Background()

	for page := 1; page <= 3; page++ {
		_, err := Aside(ctx, FeedPageKey(page, 20), FeedTTL, func() ([]fakePost, error) {
			return []fakePost{{ID: uint(page)}}, nil
		})
		require.NoError(t, err)
	}

	InvalidateFeed(ctx)

	loads := 0
	_, err := Aside(ctx, FeedPageKey(1, 20), FeedTTL, func() ([]fakePost, error) {
		loads++
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, loads, "invalidated page must be reloaded")
}
