package ledger

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dyluth/daub/pkg/canvas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCanvasObject(t *testing.T) {
	ctx := context.Background()

	t.Run("missing canvas reads as notExists", func(t *testing.T) {
		client, _ := setupTestClient(t)

		raw, err := client.ReadCanvasObject(ctx, "missing")
		require.NoError(t, err)
		assert.Contains(t, raw, "error")

		_, err = canvas.Decode(canvas.NewGrid(100), raw)
		assert.ErrorIs(t, err, canvas.ErrDecode)
	})

	t.Run("empty canvas decodes to empty snapshot", func(t *testing.T) {
		client, _ := setupTestClient(t)
		canvasID, err := client.CreateCanvas(ctx, 100, 1000)
		require.NoError(t, err)

		raw, err := client.ReadCanvasObject(ctx, canvasID)
		require.NoError(t, err)

		snap, err := canvas.Decode(canvas.NewGrid(100), raw)
		require.NoError(t, err)
		assert.Equal(t, canvasID, snap.ID)
		assert.Zero(t, snap.TotalPainted)
		assert.Empty(t, snap.Cells)
		assert.Equal(t, "1000", snap.PixelPrice)
	})

	t.Run("painted cells survive the wire", func(t *testing.T) {
		client, mr := setupTestClient(t)
		canvasID, err := client.CreateCanvas(ctx, 10, 1)
		require.NoError(t, err)
		coinA, err := client.Mint(ctx, "0xa", 10)
		require.NoError(t, err)
		coinB, err := client.Mint(ctx, "0xb", 10)
		require.NoError(t, err)

		require.NoError(t, client.SubmitPaint(ctx, canvasID, 7, 0xFF0000, coinA))
		require.NoError(t, client.SubmitPaint(ctx, canvasID, 99, 0x00FF00, coinB))
		require.NoError(t, client.SubmitPaint(ctx, canvasID, 0, 0x0000FF, coinA))
		mr.HSet(PixelsKey(canvasID), "50", "{corrupt")

		raw, err := client.ReadCanvasObject(ctx, canvasID)
		require.NoError(t, err)

		// Through JSON, as a remote reader would see it.
		payload, err := json.Marshal(raw)
		require.NoError(t, err)
		snap, err := canvas.DecodeJSON(canvas.NewGrid(10), payload)
		require.NoError(t, err)

		assert.Equal(t, 3, snap.TotalPainted)
		assert.Equal(t, 1, snap.Anomalies)
		assert.Equal(t, map[string]int{"0xa": 2, "0xb": 1}, snap.Contributors)
		assert.Equal(t, canvas.Cell{
			Index:     7,
			Color:     0xFF0000,
			Owner:     "0xa",
			Timestamp: testNow.UnixMilli(),
			Status:    canvas.StatusConfirmed,
		}, snap.Cells[7])
		assert.Equal(t, "0xb", snap.Cells[99].Owner)
		assert.Len(t, snap.Cells, 3)
	})
}
