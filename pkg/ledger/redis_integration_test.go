//go:build integration

package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a real Redis container so the paint script runs on the
// same Lua engine production uses.
func setupRedis(t *testing.T) *Client {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewClientFromURL(fmt.Sprintf("redis://%s:%s", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedis_ConcurrentPaintsOnOneCell(t *testing.T) {
	client := setupRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := client.CreateCanvas(ctx, 10, 5)
	require.NoError(t, err)

	const painters = 16
	coins := make([]string, painters)
	for i := range coins {
		coins[i], err = client.Mint(ctx, fmt.Sprintf("0xp%02d", i), 5)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, painters)
	for i := 0; i < painters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.SubmitPaint(ctx, id, 42, uint32(i), coins[i])
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, ErrCellOwned)
	}
	assert.Equal(t, 1, winners)

	info, err := client.GetCanvas(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, info.TotalPainted)

	raw, err := client.ReadCanvasObject(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, raw, "data")
}

func TestRedis_CompletesCanvas(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	id, err := client.CreateCanvas(ctx, 2, 0)
	require.NoError(t, err)
	coin, err := client.Mint(ctx, "0xme", 1)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, client.SubmitPaint(ctx, id, i, 0xFFFFFF, coin))
	}

	info, err := client.GetCanvas(ctx, id)
	require.NoError(t, err)
	assert.True(t, info.IsCompleted)
	assert.ErrorIs(t, client.SubmitPaint(ctx, id, 0, 0, coin), ErrCanvasCompleted)
}
