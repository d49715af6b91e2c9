package canvas

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultSize is the side length of the reference deployment's canvas.
const DefaultSize = 100

// DefaultCellSize is the on-screen size of one cell, in display pixels, at
// zoom 1.
const DefaultCellSize = 10

// MaxColor is the largest packed color value (24 bits).
const MaxColor = 0xFFFFFF

// Palette is the default set of display colors offered to painters.
var Palette = []string{
	"#000000", "#ffffff", "#ff0000", "#00ff00", "#0000ff",
	"#ffff00", "#ff00ff", "#00ffff", "#ffa500", "#800080",
	"#ffc0cb", "#a52a2a", "#808080", "#ffd700", "#4b0082",
}

// Grid describes an N×N canvas and converts between its coordinate systems.
// The zero value is not usable; construct with NewGrid.
type Grid struct {
	size int
}

// NewGrid returns a Grid with the given side length.
// Non-positive sizes fall back to DefaultSize.
func NewGrid(size int) Grid {
	if size <= 0 {
		size = DefaultSize
	}
	return Grid{size: size}
}

// Size returns the side length N.
func (g Grid) Size() int {
	return g.size
}

// Cells returns the number of cells, N².
func (g Grid) Cells() int {
	return g.size * g.size
}

// Contains reports whether index addresses a cell of this grid.
func (g Grid) Contains(index int) bool {
	return index >= 0 && index < g.Cells()
}

// IndexToCoord converts a linear index to (x, y).
func (g Grid) IndexToCoord(index int) (x, y int, err error) {
	if !g.Contains(index) {
		return 0, 0, fmt.Errorf("index %d: %w", index, ErrOutOfRange)
	}
	return index % g.size, index / g.size, nil
}

// CoordToIndex converts (x, y) to a linear index.
func (g Grid) CoordToIndex(x, y int) (int, error) {
	if x < 0 || x >= g.size || y < 0 || y >= g.size {
		return 0, fmt.Errorf("coordinate (%d, %d): %w", x, y, ErrOutOfRange)
	}
	return y*g.size + x, nil
}

// PointerToIndex maps a pointer position, relative to the canvas origin, to a
// cell index given the on-screen cell size and the current zoom factor.
func (g Grid) PointerToIndex(px, py, cellSize, zoom float64) (int, error) {
	scale := cellSize * zoom
	if scale <= 0 {
		return 0, fmt.Errorf("scale %v: %w", scale, ErrOutOfRange)
	}
	x := math.Floor(px / scale)
	y := math.Floor(py / scale)
	if x < 0 || y < 0 || x >= float64(g.size) || y >= float64(g.size) {
		return 0, fmt.Errorf("pointer (%v, %v): %w", px, py, ErrOutOfRange)
	}
	return g.CoordToIndex(int(x), int(y))
}

// DecodeColor converts a packed ledger color to "#rrggbb".
func DecodeColor(packed uint32) (string, error) {
	if packed > MaxColor {
		return "", fmt.Errorf("color %#x exceeds 24 bits: %w", packed, ErrInvalidColor)
	}
	return fmt.Sprintf("#%06x", packed), nil
}

// EncodeColor converts a display color to its packed ledger form.
// Accepts "#rrggbb", "rrggbb" and the short "#rgb" form, case-insensitive.
func EncodeColor(display string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(display), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, fmt.Errorf("color %q: %w", display, ErrInvalidColor)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", display, ErrInvalidColor)
	}
	return uint32(v), nil
}

// RGB splits a packed color into its channels.
func RGB(packed uint32) (r, g, b uint8) {
	return uint8(packed >> 16), uint8(packed >> 8), uint8(packed)
}
