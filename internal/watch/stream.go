package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/daub/pkg/canvas"
	"github.com/dyluth/daub/pkg/ledger"
)

// OutputFormat selects how StreamPaints writes events.
type OutputFormat string

const (
	// OutputFormatDefault is human-readable output with timestamps and emojis
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON is line-delimited JSON for programmatic processing
	OutputFormatJSON OutputFormat = "json"
)

// StreamPaints writes every paint event on canvasID to w until ctx is
// cancelled or the subscription ends.
func StreamPaints(ctx context.Context, events EventSource, canvasID string, format OutputFormat, w io.Writer) error {
	sub, err := events.SubscribePaintEvents(ctx, canvasID)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := writePaintEvent(w, event, format); err != nil {
				return err
			}

		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "⚠️  %v\n", err)
		}
	}
}

func writePaintEvent(w io.Writer, event *ledger.PaintEvent, format OutputFormat) error {
	if format == OutputFormatJSON {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal paint event: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprintln(w, formatPaintEvent(event))
	return err
}

// formatPaintEvent renders one event for the default output format.
func formatPaintEvent(event *ledger.PaintEvent) string {
	ts := time.UnixMilli(event.Timestamp).UTC().Format("15:04:05")
	color, err := canvas.DecodeColor(event.Color)
	if err != nil {
		color = fmt.Sprintf("%#x", event.Color)
	}
	return fmt.Sprintf("🎨 [%s] Painted: cell %d %s by=%s", ts, event.Index, color, event.Owner)
}
