package history

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/daub/pkg/canvas"
)

// GetCell writes one cell's ledger state to w as indented JSON.
// Returns a *CellNotPaintedError when the cell is in range but unpainted.
func GetCell(ctx context.Context, src Source, canvasID string, index int, w io.Writer) error {
	info, err := src.GetCanvas(ctx, canvasID)
	if err != nil {
		return fmt.Errorf("failed to read canvas: %w", err)
	}
	grid := canvas.NewGrid(info.Size)
	if !grid.Contains(index) {
		return fmt.Errorf("cell %d: %w", index, canvas.ErrOutOfRange)
	}

	pixels, _, err := src.Pixels(ctx, canvasID)
	if err != nil {
		return fmt.Errorf("failed to read pixels: %w", err)
	}
	p, ok := pixels[index]
	if !ok {
		return &CellNotPaintedError{Index: index}
	}

	entry, err := newEntry(grid, index, p)
	if err != nil {
		return err
	}
	if err := FormatSingleJSON(w, entry); err != nil {
		return fmt.Errorf("failed to format cell: %w", err)
	}
	return nil
}

// CellNotPaintedError reports a lookup of an unpainted cell.
type CellNotPaintedError struct {
	Index int
}

func (e *CellNotPaintedError) Error() string {
	return fmt.Sprintf("cell %d has not been painted", e.Index)
}

// IsNotPainted returns true if the error is a CellNotPaintedError.
func IsNotPainted(err error) bool {
	_, ok := err.(*CellNotPaintedError)
	return ok
}
