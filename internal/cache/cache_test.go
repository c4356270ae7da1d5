package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facelyze-api/internal/model"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redisv9.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestHistoryCacheRoundTripAndDirty(t *testing.T) {
	srv, client := newTestRedis(t)
	c := NewHistoryCache(client, time.Minute, 5*time.Second)
	ctx := context.Background()

	_, hit, err := c.GetHistory(ctx, 7)
	require.NoError(t, err)
	assert.False(t, hit)

	summaries := []model.AnalysisSummary{{PublicID: "a", AestheticScore: 72}}
	require.NoError(t, c.SetHistory(ctx, 7, summaries))

	got, hit, err := c.GetHistory(ctx, 7)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "a", got[0].PublicID)

	require.NoError(t, c.MarkDirty(ctx, 7))
	dirty, err := c.IsDirty(ctx, 7)
	require.NoError(t, err)
	assert.True(t, dirty)

	srv.FastForward(6 * time.Second)
	dirty, err = c.IsDirty(ctx, 7)
	require.NoError(t, err)
	assert.False(t, dirty)

	require.NoError(t, c.DeleteHistory(ctx, 7))
	_, hit, err = c.GetHistory(ctx, 7)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPreviewStoreTakeOnce(t *testing.T) {
	srv, client := newTestRedis(t)
	store := NewPreviewStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "p1", []byte(`{"ok":true}`)))

	raw, ok, err := store.Take(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	_, ok, err = store.Take(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "p2", []byte("x")))
	srv.FastForward(2 * time.Minute)
	_, ok, err = store.Take(ctx, "p2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContentCache(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewContentCache(client, 0)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "advisory")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "advisory", []byte("body")))
	raw, ok, err := c.Get(ctx, "advisory")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "body", string(raw))
}
