package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client), mr
}

func TestCache_DashboardRoundTrip(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	t.Run("miss before any write", func(t *testing.T) {
		_, err := cache.GetDashboard(ctx)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("set then get", func(t *testing.T) {
		stats := &DashboardStats{GeneratedAt: time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)}
		stats.Tasks.Total = 12

		require.NoError(t, cache.SetDashboard(ctx, stats))

		got, err := cache.GetDashboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12, got.Tasks.Total)
		assert.True(t, got.GeneratedAt.Equal(stats.GeneratedAt))
	})

	t.Run("expires after its TTL", func(t *testing.T) {
		mr.FastForward(dashboardTTL + time.Second)

		_, err := cache.GetDashboard(ctx)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}

func TestCache_ExecutiveRoundTrip(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	report := &ExecutiveReport{GeneratedAt: time.Now().UTC()}
	report.Projects.Total = 4
	report.ProjectRollups = []ProjectRollup{{PublicID: "proj-11111-2222", Name: "Plant 4 Expansion"}}

	require.NoError(t, cache.SetExecutive(ctx, report))

	got, err := cache.GetExecutive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Projects.Total)
	require.Len(t, got.ProjectRollups, 1)
	assert.Equal(t, "proj-11111-2222", got.ProjectRollups[0].PublicID)
}

func TestCache_Invalidate(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetDashboard(ctx, &DashboardStats{}))
	require.NoError(t, cache.SetExecutive(ctx, &ExecutiveReport{}))

	require.NoError(t, cache.Invalidate(ctx))

	_, err := cache.GetDashboard(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.GetExecutive(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_PublishRefreshed(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = sub.Close() })

	pubsub := sub.Subscribe(ctx, eventsChannel)
	t.Cleanup(func() { _ = pubsub.Close() })
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	report := &ExecutiveReport{GeneratedAt: time.Now().UTC()}
	require.NoError(t, cache.PublishRefreshed(ctx, report))

	select {
	case msg := <-pubsub.Channel():
		assert.Contains(t, msg.Payload, "executive_refreshed")
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh event received")
	}
}
