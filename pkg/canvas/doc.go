// Package canvas implements the pixel-state reconciliation engine for a shared
// canvas whose authoritative state lives on a slow remote ledger.
//
// # Overview
//
// Many independent clients paint cells of a fixed N×N grid. The ledger accepts
// one write per cell (first write wins), takes seconds to confirm, and may
// reject a write outright. This package keeps a local view of the grid that is
// always "confirmed-or-pending": writes show up the instant the user acts and
// are later confirmed or rolled back depending on what the ledger says.
//
// # Components
//
// Grid converts between linear cell indices and (x, y) coordinates, and
// between packed 24-bit ledger colors and "#rrggbb" display colors.
//
// Decode turns the ledger's nested table encoding (a RawObject) into an
// immutable Snapshot. It is the only place in the module that knows ledger
// field names.
//
// Store is the per-index state machine (Unpainted, Pending, Confirmed). It
// holds the confirmed layer from the last Snapshot and overlays in-flight
// PendingWrites on top of it.
//
// Controller sequences a single paint action end to end: pointer mapping,
// tool dispatch, optimistic apply, asynchronous submission through a Ledger,
// and the resulting Confirm or Revert.
//
// # Usage Example
//
//	grid := canvas.NewGrid(100)
//	store := canvas.NewStore(grid)
//	ctrl := canvas.NewController(grid, store, ledgerClient, canvas.ControllerOptions{
//		CanvasID: canvasID,
//		Identity: "0xabc",
//	})
//	defer ctrl.Close()
//
//	if _, err := ctrl.Load(ctx); err != nil {
//		log.Printf("canvas unavailable: %v", err)
//	}
//	ctrl.SetColor(0xFF0000)
//	if _, err := ctrl.Paint(ctx, 4242); err != nil {
//		// ErrCellOccupied, ErrNotReady, ...
//	}
//
// # Concurrency
//
// Store mutations are serialised behind a single mutex, so every transition is
// atomic with respect to every other. Submissions for distinct indices may be
// in flight at the same time; a second write to an index that is already
// Pending is rejected, never queued.
package canvas
