package infrastructure

import (
	"context"
	"fmt"
	"testing"
	"time"

	"diadesorte/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func testDraw() *entities.Draw {
	return &entities.Draw{
		ContestNumber: 1001,
		DrawDate:      time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		Numbers:       []int{2, 5, 9, 14, 21, 26, 30},
		LuckyMonth:    "Março",
	}
}

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, time.June, 15, 20, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Minute)
	cache.now = func() time.Time { return now }

	draw, err := cache.GetLatestDraw(ctx)
	require.NoError(t, err)
	assert.Nil(t, draw)

	require.NoError(t, cache.SetLatestDraw(ctx, testDraw()))
	draw, err = cache.GetLatestDraw(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), draw.ContestNumber)

	now = now.Add(2 * time.Minute)
	draw, err = cache.GetLatestDraw(ctx)
	require.NoError(t, err)
	assert.Nil(t, draw, "expired entries are a miss")

	batch, err := cache.GetLastBatch(ctx)
	require.NoError(t, err)
	assert.Nil(t, batch)

	require.NoError(t, cache.SaveLastBatch(ctx, &entities.GenerationResult{BatchID: "b-1"}))
	batch, err = cache.GetLastBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b-1", batch.BatchID)
}

func TestRedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
			Labels:       map[string]string{"test": "diadesorte-redis", "cleanup": "auto"},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client, err := ConnectRedis(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisCache(client, time.Minute)

	draw, err := cache.GetLatestDraw(ctx)
	require.NoError(t, err)
	assert.Nil(t, draw)

	require.NoError(t, cache.SetLatestDraw(ctx, testDraw()))
	draw, err = cache.GetLatestDraw(ctx)
	require.NoError(t, err)
	require.NotNil(t, draw)
	assert.Equal(t, testDraw().Numbers, draw.Numbers)
	assert.True(t, testDraw().DrawDate.Equal(draw.DrawDate))

	ttl, err := client.TTL(ctx, latestDrawKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	batch := &entities.GenerationResult{
		BatchID:    "b-2",
		LuckyMonth: entities.LuckyMonth{Month: entities.Agosto, Method: "MODA_HISTORICA"},
		Tickets: []entities.Ticket{
			{Numbers: []int{2, 7, 11, 14, 22, 25, 29}, LuckyMonth: "Agosto", Strength: 84},
		},
	}
	require.NoError(t, cache.SaveLastBatch(ctx, batch))

	stored, err := cache.GetLastBatch(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, batch.BatchID, stored.BatchID)
	assert.Equal(t, batch.LuckyMonth, stored.LuckyMonth)
	assert.Equal(t, batch.Tickets[0].Numbers, stored.Tickets[0].Numbers)
}
