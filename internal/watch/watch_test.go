package watch

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/daub/pkg/ledger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// setupLedger starts a miniredis-backed ledger with one 10x10 canvas and a
// funded painter.
func setupLedger(t *testing.T) (client *ledger.Client, canvasID, coin string) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client = ledger.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	canvasID, err = client.CreateCanvas(ctx, 10, 1)
	require.NoError(t, err)
	coin, err = client.Mint(ctx, "0xa", 1000)
	require.NoError(t, err)
	return client, canvasID, coin
}

func TestPollForCell(t *testing.T) {
	client, canvasID, coin := setupLedger(t)
	ctx := context.Background()

	t.Run("returns pixel when painted immediately", func(t *testing.T) {
		require.NoError(t, client.SubmitPaint(ctx, canvasID, 1, 0xFF0000, coin))

		p, err := PollForCell(ctx, client, canvasID, 1, 2*time.Second)
		require.NoError(t, err)
		require.NotNil(t, p)
		require.Equal(t, uint32(0xFF0000), p.Color)
		require.Equal(t, "0xa", p.Owner)
	})

	t.Run("returns pixel when painted after delay", func(t *testing.T) {
		go func() {
			time.Sleep(500 * time.Millisecond)
			client.SubmitPaint(context.Background(), canvasID, 2, 0x00FF00, coin)
		}()

		start := time.Now()
		p, err := PollForCell(ctx, client, canvasID, 2, 2*time.Second)
		elapsed := time.Since(start)

		require.NoError(t, err)
		require.Equal(t, uint32(0x00FF00), p.Color)
		require.GreaterOrEqual(t, elapsed, 500*time.Millisecond)
		require.Less(t, elapsed, 2*time.Second)
	})

	t.Run("returns error on timeout", func(t *testing.T) {
		start := time.Now()
		_, err := PollForCell(ctx, client, canvasID, 3, 500*time.Millisecond)
		elapsed := time.Since(start)

		require.Error(t, err)
		require.Contains(t, err.Error(), "timeout waiting for cell 3")
		require.GreaterOrEqual(t, elapsed, 500*time.Millisecond)
		require.Less(t, elapsed, 1*time.Second)
	})

	t.Run("returns error when context cancelled", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(100 * time.Millisecond)
			cancel()
		}()

		_, err := PollForCell(cancelCtx, client, canvasID, 4, 2*time.Second)
		require.Error(t, err)
		require.Equal(t, context.Canceled, err)
	})
}
