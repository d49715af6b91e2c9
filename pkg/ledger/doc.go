// Package ledger is a development ledger for daub canvases backed by Redis.
//
// # Overview
//
// A canvas on the ledger is append-only: a cell is painted at most once, by
// whoever gets there first, and painting costs the canvas's pixel price paid
// from one of the painter's coins. The ledger is the authority; clients only
// ever see it through periodic reads of the whole canvas object and through
// paint events.
//
// Every paint is a single Lua script, so the range check, first-write-wins
// check, coin debit, pixel write, counter updates, completion flag and event
// publication succeed or fail together.
//
// # Usage Example
//
//	client, err := ledger.NewClientFromURL("redis://localhost:6379/0")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	canvasID, _ := client.CreateCanvas(ctx, 100, 1000)
//	coinID, _ := client.Mint(ctx, "0xabc", 1_000_000)
//	err = client.SubmitPaint(ctx, canvasID, 7, 0xFF0000, coinID)
//
// # Redis Schema
//
// Canvas metadata: daub:{canvas_id}:meta
// Painted cells: daub:{canvas_id}:pixels (index -> JSON pixel)
// Contributors: daub:{canvas_id}:contributors (identity -> count)
// Coins: daub:coins:{identity} (coin_id -> balance)
// Coin owners: daub:coin_owners (coin_id -> identity)
//
// Paint events: daub:{canvas_id}:paint_events
package ledger
