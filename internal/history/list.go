package history

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dyluth/daub/internal/filter"
	"github.com/dyluth/daub/pkg/canvas"
	"github.com/dyluth/daub/pkg/ledger"
)

// OutputFormat specifies how to format the pixel list output.
type OutputFormat string

const (
	// OutputFormatDefault prints an aligned table
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL prints one JSON entry per line
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Source is the ledger read surface the history commands need.
type Source interface {
	GetCanvas(ctx context.Context, canvasID string) (*ledger.CanvasInfo, error)
	Pixels(ctx context.Context, canvasID string) (map[int]ledger.Pixel, map[string]string, error)
}

// Entry is one painted pixel as listed to the user.
type Entry struct {
	Index     int    `json:"index"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Color     string `json:"color"`
	Owner     string `json:"owner"`
	Timestamp int64  `json:"timestamp"`
}

// ListPixels writes the painted pixels of a canvas to w, oldest first.
// Entries that cannot be parsed are skipped with a warning on stderr.
func ListPixels(ctx context.Context, src Source, canvasID string, format OutputFormat, filters *filter.Criteria, now time.Time, w io.Writer) error {
	info, err := src.GetCanvas(ctx, canvasID)
	if err != nil {
		return fmt.Errorf("failed to read canvas: %w", err)
	}
	pixels, corrupt, err := src.Pixels(ctx, canvasID)
	if err != nil {
		return fmt.Errorf("failed to read pixels: %w", err)
	}
	for key, value := range corrupt {
		fmt.Fprintf(os.Stderr, "⚠️  Skipping malformed pixel: key=%s value=%q\n", key, value)
	}

	entries := buildEntries(canvas.NewGrid(info.Size), pixels, filters)

	switch format {
	case OutputFormatDefault:
		FormatTable(w, entries, canvasID, now)
	case OutputFormatJSONL:
		if err := FormatJSONL(w, entries); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}

func buildEntries(grid canvas.Grid, pixels map[int]ledger.Pixel, filters *filter.Criteria) []Entry {
	entries := make([]Entry, 0, len(pixels))
	for index, p := range pixels {
		if filters != nil && !filters.Matches(p) {
			continue
		}
		entry, err := newEntry(grid, index, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Skipping pixel %d: %v\n", index, err)
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp < entries[j].Timestamp
		}
		return entries[i].Index < entries[j].Index
	})
	return entries
}

func newEntry(grid canvas.Grid, index int, p ledger.Pixel) (Entry, error) {
	x, y, err := grid.IndexToCoord(index)
	if err != nil {
		return Entry{}, err
	}
	display, err := canvas.DecodeColor(p.Color)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Index:     index,
		X:         x,
		Y:         y,
		Color:     display,
		Owner:     p.Owner,
		Timestamp: p.Timestamp,
	}, nil
}
