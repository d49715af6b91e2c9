package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pixelEntry builds a pixel table entry in the ledger's wrapped encoding.
func pixelEntry(key any, color any, owner string, timestamp any) map[string]any {
	return map[string]any{
		"type": "0x2::vec_map::Entry<u64, 0x1::canvas::Pixel>",
		"fields": map[string]any{
			"key": key,
			"value": map[string]any{
				"type": "0x1::canvas::Pixel",
				"fields": map[string]any{
					"color":     color,
					"owner":     owner,
					"timestamp": timestamp,
				},
			},
		},
	}
}

func contributorEntry(owner string, count any) map[string]any {
	return map[string]any{
		"fields": map[string]any{"key": owner, "value": count},
	}
}

// canvasObject wraps canvas fields in a full object-read response.
func canvasObject(fields map[string]any) RawObject {
	return RawObject{
		"data": map[string]any{
			"objectId": "0xcanvas",
			"version":  "12",
			"content": map[string]any{
				"dataType": "moveObject",
				"type":     "0x1::canvas::Canvas",
				"fields":   fields,
			},
		},
	}
}

func table(entries ...any) map[string]any {
	return map[string]any{
		"type":   "0x2::vec_map::VecMap",
		"fields": map[string]any{"contents": entries},
	}
}

func TestDecodeScenarios(t *testing.T) {
	grid := NewGrid(100)

	t.Run("empty canvas object decodes to empty snapshot", func(t *testing.T) {
		snap, err := Decode(grid, canvasObject(map[string]any{"id": map[string]any{"id": "0xcanvas"}}))
		require.NoError(t, err)
		assert.Equal(t, 0, snap.TotalPainted)
		assert.Empty(t, snap.Cells)
		assert.Empty(t, snap.Contributors)
		assert.False(t, snap.IsCompleted)
		assert.Equal(t, "0", snap.PixelPrice)
		assert.Equal(t, "0xcanvas", snap.ID)
		assert.Zero(t, snap.Anomalies)
	})

	t.Run("single pixel entry", func(t *testing.T) {
		snap, err := Decode(grid, canvasObject(map[string]any{
			"pixels": table(pixelEntry("7", "16711680", "0xabc", "1000")),
		}))
		require.NoError(t, err)

		cell, ok := snap.Cell(7)
		require.True(t, ok)
		assert.Equal(t, Cell{
			Index:     7,
			Color:     0xFF0000,
			Owner:     "0xabc",
			Timestamp: 1000,
			Status:    StatusConfirmed,
		}, cell)
	})

	t.Run("flat entry without value wrapper", func(t *testing.T) {
		snap, err := Decode(grid, canvasObject(map[string]any{
			"pixels": table(map[string]any{
				"key": "7", "color": "16711680", "owner": "0xabc", "timestamp": "1000",
			}),
		}))
		require.NoError(t, err)
		cell, ok := snap.Cell(7)
		require.True(t, ok)
		assert.Equal(t, uint32(0xFF0000), cell.Color)
		assert.Equal(t, int64(1000), cell.Timestamp)
	})
}

func TestDecodeCounters(t *testing.T) {
	grid := NewGrid(100)

	snap, err := Decode(grid, canvasObject(map[string]any{
		"pixels": table(
			pixelEntry("1", "255", "0xa", "10"),
			pixelEntry(2.0, 65280.0, "0xb", 20.0),
		),
		"contributors":  table(contributorEntry("0xa", "1"), contributorEntry("0xb", 1.0)),
		"total_painted": "2",
		"is_completed":  false,
		"pixel_price":   "1000000",
		"unknown_field": map[string]any{"ignored": true},
	}))
	require.NoError(t, err)

	assert.Len(t, snap.Cells, 2)
	assert.Equal(t, uint32(0x00FF00), snap.Cells[2].Color)
	assert.Equal(t, 2, snap.TotalPainted)
	assert.False(t, snap.IsCompleted)
	assert.Equal(t, "1000000", snap.PixelPrice)
	assert.Equal(t, map[string]int{"0xa": 1, "0xb": 1}, snap.Contributors)
	assert.Zero(t, snap.Anomalies)

	t.Run("accepts string booleans and numeric prices", func(t *testing.T) {
		snap, err := Decode(grid, RawObject{"fields": map[string]any{
			"is_completed": "true",
			"pixel_price":  1000.0,
		}})
		require.NoError(t, err)
		assert.True(t, snap.IsCompleted)
		assert.Equal(t, "1000", snap.PixelPrice)
	})
}

func TestDecodeAnomalies(t *testing.T) {
	grid := NewGrid(10)

	snap, err := Decode(grid, canvasObject(map[string]any{
		"pixels": table(
			pixelEntry("3", "1", "0xa", "1"),
			pixelEntry("abc", "1", "0xa", "1"),      // non-numeric index
			pixelEntry("100", "1", "0xa", "1"),      // out of range for 10x10
			pixelEntry("-1", "1", "0xa", "1"),       // negative
			pixelEntry("4", "16777216", "0xa", "1"), // color wider than 24 bits
			pixelEntry("3", "2", "0xb", "2"),        // duplicate index
			"garbage",
			map[string]any{"fields": map[string]any{"value": "no key"}},
		),
	}))
	require.NoError(t, err)

	assert.Len(t, snap.Cells, 1)
	assert.Equal(t, "0xa", snap.Cells[3].Owner, "first entry wins on duplicate")
	assert.Equal(t, 7, snap.Anomalies)
}

func TestDecodeMissingObject(t *testing.T) {
	grid := NewGrid(100)

	cases := map[string]RawObject{
		"nil object":      nil,
		"empty object":    {},
		"ledger error":    {"error": map[string]any{"code": "notExists", "object_id": "0x1"}},
		"empty data":      {"data": map[string]any{}},
		"data no content": {"data": map[string]any{"objectId": "0x1"}},
		"null content":    {"data": map[string]any{"objectId": "0x1", "content": nil}},
		"empty content":   {"content": map[string]any{}},
		"unrelated noise": {"jsonrpc": "2.0"},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			snap, err := Decode(grid, raw)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Nil(t, snap)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	grid := NewGrid(100)

	t.Run("decodes wire payload", func(t *testing.T) {
		payload := []byte(`{
			"data": {
				"objectId": "0xfeed",
				"content": {
					"fields": {
						"pixels": {"fields": {"contents": [
							{"fields": {"key": "42", "value": {"fields": {"color": "255", "owner": "0xabc", "timestamp": "1700000000000"}}}}
						]}},
						"total_painted": "1",
						"pixel_price": "18446744073709551615"
					}
				}
			}
		}`)
		snap, err := DecodeJSON(grid, payload)
		require.NoError(t, err)
		assert.Equal(t, "0xfeed", snap.ID)
		assert.Equal(t, int64(1700000000000), snap.Cells[42].Timestamp)
		assert.Equal(t, "18446744073709551615", snap.PixelPrice)
	})

	t.Run("empty and malformed payloads fail", func(t *testing.T) {
		_, err := DecodeJSON(grid, []byte("  "))
		assert.ErrorIs(t, err, ErrDecode)
		_, err = DecodeJSON(grid, []byte("{not json"))
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("is deterministic", func(t *testing.T) {
		raw := canvasObject(map[string]any{
			"pixels": table(pixelEntry("1", "1", "0xa", "1"), pixelEntry("2", "2", "0xb", "2")),
		})
		a, err := Decode(grid, raw)
		require.NoError(t, err)
		b, err := Decode(grid, raw)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
