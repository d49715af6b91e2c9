package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/daub/pkg/ledger"
)

// PixelReader is the ledger read PollForCell needs.
type PixelReader interface {
	Pixels(ctx context.Context, canvasID string) (map[int]ledger.Pixel, map[string]string, error)
}

// PollForCell polls until the cell at index is painted on the ledger.
// Returns the painted pixel or an error if timeout occurs.
// Polls every 200ms for the specified timeout duration.
func PollForCell(ctx context.Context, client PixelReader, canvasID string, index int, timeout time.Duration) (*ledger.Pixel, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for cell %d after %v", index, timeout)

		case <-ticker.C:
			pixels, _, err := client.Pixels(ctx, canvasID)
			if err != nil {
				return nil, fmt.Errorf("failed to query cell %d: %w", index, err)
			}
			p, ok := pixels[index]
			if !ok {
				// Not painted yet, continue polling
				continue
			}
			return &p, nil
		}
	}
}
