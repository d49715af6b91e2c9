package ledger

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/dyluth/daub/pkg/canvas"
)

// ReadCanvasObject returns the whole canvas as a ledger object read.
//
// The layout nests every value under "fields" and encodes tables as lists of
// key/value entries, with u64 values as decimal strings:
//
//	{"data": {"objectId": ..., "content": {"type": ..., "fields": {
//		"pixels": {"fields": {"contents": [{"fields": {"key": "7",
//			"value": {"fields": {"color": "16711680", "owner": ..., "timestamp": ...}}}}]}},
//		"contributors": ..., "total_painted": "1", "is_completed": false,
//		"pixel_price": "1000"}}}}
//
// A missing canvas is not an error: the object carries
// {"error": {"code": "notExists"}} instead, as a real ledger does.
func (c *Client) ReadCanvasObject(ctx context.Context, canvasID string) (canvas.RawObject, error) {
	info, err := c.GetCanvas(ctx, canvasID)
	if errors.Is(err, ErrCanvasNotFound) {
		return canvas.RawObject{
			"error": map[string]any{"code": "notExists", "object_id": canvasID},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	pixels, corrupt, err := c.Pixels(ctx, canvasID)
	if err != nil {
		return nil, err
	}
	contributors, err := c.Contributors(ctx, canvasID)
	if err != nil {
		return nil, err
	}

	return canvas.RawObject{
		"data": map[string]any{
			"objectId": canvasID,
			"content": map[string]any{
				"dataType": "moveObject",
				"type":     CanvasType,
				"fields": map[string]any{
					"id":            map[string]any{"id": canvasID},
					"size":          strconv.Itoa(info.Size),
					"pixels":        pixelTable(pixels, corrupt),
					"contributors":  contributorTable(contributors),
					"total_painted": strconv.Itoa(info.TotalPainted),
					"is_completed":  info.IsCompleted,
					"pixel_price":   strconv.FormatInt(info.PixelPrice, 10),
				},
			},
		},
	}, nil
}

func pixelTable(pixels map[int]Pixel, corrupt map[string]string) map[string]any {
	indices := make([]int, 0, len(pixels))
	for index := range pixels {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	entries := make([]any, 0, len(pixels)+len(corrupt))
	for _, index := range indices {
		p := pixels[index]
		entries = append(entries, map[string]any{
			"type": PixelEntryType,
			"fields": map[string]any{
				"key": strconv.Itoa(index),
				"value": map[string]any{
					"type": PixelType,
					"fields": map[string]any{
						"color":     strconv.FormatUint(uint64(p.Color), 10),
						"owner":     p.Owner,
						"timestamp": strconv.FormatInt(p.Timestamp, 10),
					},
				},
			},
		})
	}

	// Unparseable stored values are passed through so readers can count them.
	keys := make([]string, 0, len(corrupt))
	for key := range corrupt {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entries = append(entries, map[string]any{
			"type":   PixelEntryType,
			"fields": map[string]any{"key": key, "value": corrupt[key]},
		})
	}

	return map[string]any{
		"type":   PixelTableType,
		"fields": map[string]any{"contents": entries},
	}
}

func contributorTable(counts map[string]int) map[string]any {
	owners := make([]string, 0, len(counts))
	for owner := range counts {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	entries := make([]any, 0, len(owners))
	for _, owner := range owners {
		entries = append(entries, map[string]any{
			"type": ContribEntryType,
			"fields": map[string]any{
				"key":   owner,
				"value": strconv.Itoa(counts[owner]),
			},
		})
	}
	return map[string]any{
		"type":   ContribType,
		"fields": map[string]any{"contents": entries},
	}
}
