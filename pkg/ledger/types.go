package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Ledger errors. Script failures are mapped onto these so callers can use
// errors.Is.
var (
	ErrCanvasNotFound    = errors.New("canvas not found")
	ErrCanvasCompleted   = errors.New("canvas is completed")
	ErrCellOwned         = errors.New("cell already painted")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoFunds           = errors.New("no coins with a positive balance")
	ErrCoinNotFound      = errors.New("coin not found")
	ErrOutOfRange        = errors.New("index out of range")
)

// Object type tags used in the canvas object encoding.
const (
	CanvasType       = "daub::canvas::Canvas"
	PixelType        = "daub::canvas::Pixel"
	PixelTableType   = "daub::vec_map::VecMap<u64, daub::canvas::Pixel>"
	PixelEntryType   = "daub::vec_map::Entry<u64, daub::canvas::Pixel>"
	ContribType      = "daub::vec_map::VecMap<address, u64>"
	ContribEntryType = "daub::vec_map::Entry<address, u64>"
)

// Pixel is the stored form of one painted cell.
type Pixel struct {
	Color     uint32 `json:"color"`     // Packed 24-bit RGB
	Owner     string `json:"owner"`     // Identity that paid for the cell
	Timestamp int64  `json:"timestamp"` // Paint time in milliseconds
}

// PaintEvent is published after every successful paint.
type PaintEvent struct {
	CanvasID  string `json:"canvas_id"`
	Index     int    `json:"index"`
	Color     uint32 `json:"color"`
	Owner     string `json:"owner"`
	Timestamp int64  `json:"timestamp"`
}

// CanvasInfo is the metadata of a canvas.
type CanvasInfo struct {
	ID           string `json:"id"`
	Size         int    `json:"size"`
	PixelPrice   int64  `json:"pixel_price"`
	TotalPainted int    `json:"total_painted"`
	IsCompleted  bool   `json:"is_completed"`
	CreatedAtMs  int64  `json:"created_at_ms"`
}

// Script error codes, returned by the paint script as error replies.
const (
	codeCanvasNotFound    = "CANVAS_NOT_FOUND"
	codeCanvasCompleted   = "CANVAS_COMPLETED"
	codeOutOfRange        = "OUT_OF_RANGE"
	codeCellOwned         = "CELL_OWNED"
	codeCoinNotFound      = "COIN_NOT_FOUND"
	codeInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// scriptError maps a paint script error reply onto a ledger sentinel.
// Errors that are not script rejections are returned unchanged.
func scriptError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for code, sentinel := range map[string]error{
		codeCanvasNotFound:    ErrCanvasNotFound,
		codeCanvasCompleted:   ErrCanvasCompleted,
		codeOutOfRange:        ErrOutOfRange,
		codeCellOwned:         ErrCellOwned,
		codeCoinNotFound:      ErrCoinNotFound,
		codeInsufficientFunds: ErrInsufficientFunds,
	} {
		if strings.Contains(msg, code) {
			return sentinel
		}
	}
	return fmt.Errorf("paint script failed: %w", err)
}
