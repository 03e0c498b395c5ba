package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/yoypulse/pkg/config"
)

// fakeStore runs the two scripts natively, keyed by their SHA.
type fakeStore struct {
	values  map[string]string
	expires map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, expires: map[string]int64{}}
}

func (f *fakeStore) EvalSha(_ context.Context, sha string, keys []string, args ...any) *redis.Cmd {
	k := keys[0]
	switch sha {
	case windowScript.Hash():
		n, _ := strconv.ParseInt(f.values[k], 10, 64)
		n++
		f.values[k] = strconv.FormatInt(n, 10)
		if n == 1 {
			f.expires[k] = args[0].(int64)
		}
		return redis.NewCmdResult(n, nil)
	case releaseScript.Hash():
		if v, ok := f.values[k]; ok && v == fmt.Sprint(args[0]) {
			delete(f.values, k)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, errors.New("unknown script"))
}

func (f *fakeStore) Eval(ctx context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return redis.NewCmdResult(nil, errors.New("eval not expected"))
}

func (f *fakeStore) EvalRO(ctx context.Context, s string, keys []string, args ...any) *redis.Cmd {
	return f.Eval(ctx, s, keys, args...)
}

func (f *fakeStore) EvalShaRO(ctx context.Context, sha string, keys []string, args ...any) *redis.Cmd {
	return f.EvalSha(ctx, sha, keys, args...)
}

func (f *fakeStore) ScriptExists(context.Context, ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (f *fakeStore) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func (f *fakeStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	f.values[key] = fmt.Sprint(value)
	f.expires[key] = ttl.Milliseconds()
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeStore) Close() error { return nil }

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	fake := newFakeStore()
	c := &Client{store: fake}

	for i, want := range []bool{true, true, false} {
		allowed, n, err := c.FixedWindowAllow(ctx, "narrative:ip:10.0.0.1", 2, 30*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "hit %d", i+1)
		assert.Equal(t, int64(i+1), n)
	}
	assert.Equal(t, int64(30000), fake.expires["yp:rate_limit:narrative:ip:10.0.0.1"])
	assert.Len(t, fake.expires, 1)

	_, _, err := c.FixedWindowAllow(ctx, "x", 1, 0)
	assert.Error(t, err)
}

func TestLockRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := &Client{store: newFakeStore()}
	key := c.LockKey("live_refresh")

	ok, err := c.AcquireLock(ctx, key, "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.AcquireLock(ctx, key, "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	released, err := c.ReleaseLock(ctx, key, "owner-b")
	require.NoError(t, err)
	assert.False(t, released, "non-owner must not release")

	released, err = c.ReleaseLock(ctx, key, "owner-a")
	require.NoError(t, err)
	assert.True(t, released)

	ok, _ = c.AcquireLock(ctx, key, "owner-b", time.Minute)
	assert.True(t, ok)
}

func TestBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeStore()
	c := &Client{store: fake}
	key := c.BoardKey("live_board")

	_, ok, err := c.GetBlob(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.PutBlob(ctx, key, []byte(`{"samples":[]}`), 30*time.Second))
	got, ok, err := c.GetBlob(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"samples":[]}`, string(got))
	assert.Equal(t, int64(30000), fake.expires[key])

	var nilClient *Client
	assert.ErrorIs(t, nilClient.PutBlob(ctx, key, nil, time.Second), ErrNotInitialized)
}

func TestKeys(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "yp:lock:live_refresh", c.LockKey("live_refresh"))
	assert.Equal(t, "yp:board:live_board", c.BoardKey("live_board"))
	assert.Equal(t, "yp:rate_limit:scope", c.RateLimitKey(" scope "))
	assert.Equal(t, "yp:rate_limit", c.RateLimitKey(""))
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7, DialTimeout: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}

func TestNilClientGuards(t *testing.T) {
	var c *Client
	assert.ErrorIs(t, c.Ping(context.Background()), ErrNotInitialized)
	_, _, err := c.FixedWindowAllow(context.Background(), "s", 1, time.Second)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.NoError(t, c.Close())
}
