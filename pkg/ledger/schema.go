package ledger

import "fmt"

// Redis key pattern helpers
//
// Canvas keys are namespaced by canvas id so many canvases can share one
// Redis server. Coins are global to an identity and can pay for any canvas.
//
// Key pattern: daub:{canvas_id}:{entity}
// Channel pattern: daub:{canvas_id}:paint_events

// MetaKey returns the Redis key for a canvas's metadata hash.
// Pattern: daub:{canvas_id}:meta
func MetaKey(canvasID string) string {
	return fmt.Sprintf("daub:%s:meta", canvasID)
}

// PixelsKey returns the Redis key for a canvas's painted cells.
// Pattern: daub:{canvas_id}:pixels
func PixelsKey(canvasID string) string {
	return fmt.Sprintf("daub:%s:pixels", canvasID)
}

// ContributorsKey returns the Redis key for a canvas's contributor counts.
// Pattern: daub:{canvas_id}:contributors
func ContributorsKey(canvasID string) string {
	return fmt.Sprintf("daub:%s:contributors", canvasID)
}

// CoinsKey returns the Redis key for an identity's coin balances.
// Pattern: daub:coins:{identity}
func CoinsKey(identity string) string {
	return fmt.Sprintf("daub:coins:%s", identity)
}

// CoinOwnersKey returns the Redis key mapping coin ids to their owners.
func CoinOwnersKey() string {
	return "daub:coin_owners"
}

// PaintEventsChannel returns the Pub/Sub channel name for paint events.
// Pattern: daub:{canvas_id}:paint_events
func PaintEventsChannel(canvasID string) string {
	return fmt.Sprintf("daub:%s:paint_events", canvasID)
}
