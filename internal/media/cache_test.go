package media

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	calls atomic.Int32
	src   Source
	err   error
}

func (r *countingResolver) Resolve(_ context.Context, mediaID string) (Source, error) {
	r.calls.Add(1)
	if r.err != nil {
		return Source{}, r.err
	}
	src := r.src
	src.MediaID = mediaID
	return src, nil
}

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, newRedisCacheWithClient(client, nil)
}

func TestRedisCache_SetGet(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "abc")
	assert.False(t, ok)

	want := Source{MediaID: "abc", URL: "https://cdn/abc.mp4", Width: 1080, Duration: 12}
	cache.Set(ctx, want, time.Minute)
	assert.True(t, mr.Exists("manifest:abc"))

	got, ok := cache.Get(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, "abc")
	assert.False(t, ok, "entry expired")
}

func TestRedisCache_CorruptEntryIsMiss(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	require.NoError(t, mr.Set("manifest:bad", "{not json"))

	_, ok := cache.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestRedisCache_BackendDownIsMiss(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	mr.Close()

	cache.Set(context.Background(), Source{MediaID: "x", URL: "u"}, time.Minute)
	_, ok := cache.Get(context.Background(), "x")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, Source{MediaID: "a", URL: "u"}, time.Hour)
	c.Set(ctx, Source{MediaID: "b", URL: "v"}, -time.Second)

	got, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "u", got.URL)

	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
}

func TestCachedResolver(t *testing.T) {
	_, cache := setupMiniRedis(t)
	next := &countingResolver{src: Source{URL: "https://cdn/v.mp4"}}
	r := &CachedResolver{Next: next, Cache: cache, TTL: time.Minute}

	for i := 0; i < 3; i++ {
		src, err := r.Resolve(context.Background(), "vid")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/v.mp4", src.URL)
	}
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedResolver_FailuresNotCached(t *testing.T) {
	cache := NewMemoryCache(0)
	defer cache.Close()
	next := &countingResolver{err: ErrNoPlayableAsset}
	r := &CachedResolver{Next: next, Cache: cache, TTL: time.Minute}

	for i := 0; i < 2; i++ {
		_, err := r.Resolve(context.Background(), "vid")
		assert.True(t, errors.Is(err, ErrNoPlayableAsset))
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

type blockingResolver struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (r *blockingResolver) Resolve(_ context.Context, mediaID string) (Source, error) {
	if r.calls.Add(1) == 1 {
		close(r.entered)
	}
	<-r.release
	return Source{MediaID: mediaID, URL: "https://cdn/" + mediaID + ".mp4"}, nil
}

func TestCachedResolver_ConcurrentMissesShareFetch(t *testing.T) {
	cache := NewMemoryCache(0)
	defer cache.Close()
	next := &blockingResolver{entered: make(chan struct{}), release: make(chan struct{})}
	r := &CachedResolver{Next: next, Cache: cache, TTL: time.Minute}

	const n = 5
	var wg sync.WaitGroup
	urls := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src, err := r.Resolve(context.Background(), "vid")
			assert.NoError(t, err)
			urls[i] = src.URL
		}()
	}
	<-next.entered
	time.Sleep(20 * time.Millisecond)
	close(next.release)
	wg.Wait()

	assert.Equal(t, int32(1), next.calls.Load())
	for _, u := range urls {
		assert.Equal(t, "https://cdn/vid.mp4", u)
	}
}

func TestCachedResolver_CallerCancelDoesNotAbortSharedFetch(t *testing.T) {
	cache := NewMemoryCache(0)
	defer cache.Close()
	next := &blockingResolver{entered: make(chan struct{}), release: make(chan struct{})}
	r := &CachedResolver{Next: next, Cache: cache, TTL: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx, "vid")
		errc <- err
	}()
	<-next.entered
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(next.release)
	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "vid")
		return ok
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), next.calls.Load())
}
