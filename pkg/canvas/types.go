package canvas

import (
	"errors"
	"fmt"
	"time"
)

// Cell is one painted (or being-painted) unit of the grid.
// Unpainted cells are never represented as a Cell; they are simply absent.
type Cell struct {
	Index     int        `json:"index"`     // Linear index, 0 <= Index < N*N
	Color     uint32     `json:"color"`     // Packed 24-bit RGB value
	Owner     string     `json:"owner"`     // Identity of the painter
	Timestamp int64      `json:"timestamp"` // Ledger paint time in milliseconds (0 while pending)
	Status    CellStatus `json:"status"`    // Confirmed or Pending
}

// CellStatus describes where a cell's data came from.
type CellStatus string

const (
	// StatusConfirmed marks data decoded from the ledger or acknowledged by it
	StatusConfirmed CellStatus = "confirmed"

	// StatusPending marks an optimistic write whose submission has not resolved
	StatusPending CellStatus = "pending"

	// StatusReverting marks a write being rolled back. Reverts are a single
	// atomic store transition, so reads never observe this status.
	StatusReverting CellStatus = "reverting"
)

// Validate checks if the CellStatus is a valid enum value.
func (s CellStatus) Validate() error {
	switch s {
	case StatusConfirmed, StatusPending, StatusReverting:
		return nil
	default:
		return fmt.Errorf("unknown cell status: %q", s)
	}
}

// PendingWrite is an optimistic write that has been applied locally and
// submitted (or is about to be submitted) to the ledger.
type PendingWrite struct {
	Index       int       `json:"index"`
	Color       uint32    `json:"color"`
	Owner       string    `json:"owner"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Snapshot is one decoded, immutable read of the ledger's canvas object.
// A new Snapshot supersedes the previous one wholesale.
type Snapshot struct {
	ID           string         `json:"id"`            // Ledger object id (may be empty)
	Cells        map[int]Cell   `json:"cells"`         // index -> Confirmed cell
	TotalPainted int            `json:"total_painted"` // Ledger-side counter
	IsCompleted  bool           `json:"is_completed"`  // Set by the ledger once every cell is painted
	PixelPrice   string         `json:"pixel_price"`   // Decimal amount, kept as text to avoid precision loss
	Contributors map[string]int `json:"contributors"`  // identity -> painted cell count
	Anomalies    int            `json:"anomalies"`     // Pixel entries skipped while decoding
}

// Cell returns the snapshot's cell at index, if painted.
func (s *Snapshot) Cell(index int) (Cell, bool) {
	c, ok := s.Cells[index]
	return c, ok
}

// VisibleCell is what the display layer needs to draw one cell.
type VisibleCell struct {
	Color  string     `json:"color"`  // "#rrggbb", empty when unpainted
	Status CellStatus `json:"status"` // empty when unpainted
}

// Tool selects what a pointer event on the canvas does.
type Tool string

const (
	// ToolPaint paints the targeted cell with the active color
	ToolPaint Tool = "paint"

	// ToolEyedropper copies the targeted cell's color into the active color
	ToolEyedropper Tool = "eyedropper"
)

// Validate checks if the Tool is a valid enum value.
func (t Tool) Validate() error {
	switch t {
	case ToolPaint, ToolEyedropper:
		return nil
	default:
		return fmt.Errorf("unknown tool: %q", t)
	}
}

var (
	// ErrDecode is returned when the ledger object is absent or has no content.
	ErrDecode = errors.New("canvas object not found or empty")

	// ErrOutOfRange is returned for coordinates or indices outside the grid.
	ErrOutOfRange = errors.New("cell out of range")

	// ErrInvalidColor is returned for colors that do not fit in 24 bits or
	// cannot be parsed.
	ErrInvalidColor = errors.New("invalid color")

	// ErrAlreadyPainted is returned when an optimistic write targets a
	// Confirmed cell.
	ErrAlreadyPainted = errors.New("cell already painted")

	// ErrAlreadyPending is returned when an optimistic write targets a cell
	// that already has a write in flight.
	ErrAlreadyPending = errors.New("cell already has a pending write")

	// ErrCellOccupied is returned by the controller when the target cell is
	// Pending or Confirmed.
	ErrCellOccupied = errors.New("cell occupied")

	// ErrNotReady is returned when no identity or canvas is configured.
	ErrNotReady = errors.New("identity and canvas required")

	// ErrRateLimited is returned when submissions exceed the configured rate.
	ErrRateLimited = errors.New("too many paint requests")

	// ErrSnapshotUnavailable wraps any failure to read the ledger object.
	ErrSnapshotUnavailable = errors.New("canvas snapshot unavailable")

	// ErrClosed is returned by a controller after Close.
	ErrClosed = errors.New("controller closed")
)

// SubmitError reports a failed ledger submission for one cell.
// The optimistic write has already been reverted when this is observed.
type SubmitError struct {
	Index int
	Err   error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("failed to paint cell %d: %v", e.Index, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the user may try again. Submission failures always
// leave the cell unpainted locally, so retrying is always safe.
func (e *SubmitError) Retryable() bool {
	return true
}

// IsContention returns true if err is expected cell contention, which should
// be surfaced as "try another cell" rather than logged as a bug.
func IsContention(err error) bool {
	return errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrAlreadyPainted) ||
		errors.Is(err, ErrAlreadyPending)
}
