// Package render draws a canvas in the terminal using 24-bit colors.
package render

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dyluth/daub/pkg/canvas"
	"github.com/fatih/color"
)

// Glyphs for each visible cell state. Each cell is two columns wide so the
// grid looks roughly square in a terminal.
const (
	GlyphConfirmed = "██"
	GlyphPending   = "▒▒"
	GlyphUnpainted = "··"
)

var faint = color.New(color.Faint)

// Options configures Canvas.
type Options struct {
	Legend bool // Print column and row numbers every 10 cells
}

// Canvas writes the merged view of cells on grid to w, one text row per grid
// row. Pending cells use GlyphPending in the pending color so they stand
// apart from confirmed ones.
func Canvas(w io.Writer, grid canvas.Grid, cells []canvas.Cell, opts Options) error {
	byIndex := make(map[int]canvas.Cell, len(cells))
	for _, c := range cells {
		byIndex[c.Index] = c
	}

	bw := bufio.NewWriter(w)
	size := grid.Size()

	if opts.Legend {
		fmt.Fprint(bw, "    ")
		for x := 0; x < size; x++ {
			if x%10 == 0 {
				fmt.Fprintf(bw, "%-2d", x/10%100)
			} else {
				fmt.Fprint(bw, "  ")
			}
		}
		fmt.Fprintln(bw)
	}

	for y := 0; y < size; y++ {
		if opts.Legend {
			if y%10 == 0 {
				fmt.Fprintf(bw, "%3d ", y)
			} else {
				fmt.Fprint(bw, "    ")
			}
		}
		for x := 0; x < size; x++ {
			index, err := grid.CoordToIndex(x, y)
			if err != nil {
				return err
			}
			cell, ok := byIndex[index]
			if !ok {
				faint.Fprint(bw, GlyphUnpainted)
				continue
			}
			writeCell(bw, cell)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

func writeCell(w io.Writer, cell canvas.Cell) {
	r, g, b := canvas.RGB(cell.Color)
	c := color.RGB(int(r), int(g), int(b))
	if cell.Status == canvas.StatusPending {
		c.Fprint(w, GlyphPending)
		return
	}
	c.Fprint(w, GlyphConfirmed)
}

// StatsLine summarises progress the way the info panel shows it.
func StatsLine(s canvas.Stats) string {
	return fmt.Sprintf("Painted %d/%d (%d%%) · Yours %d (%d%%)",
		s.Painted, s.Total, s.ProgressPct, s.Mine, s.ContributionPct)
}

// Swatch returns a two-column sample of a display color followed by its code,
// for palette listings.
func Swatch(display string) (string, error) {
	packed, err := canvas.EncodeColor(display)
	if err != nil {
		return "", err
	}
	r, g, b := canvas.RGB(packed)
	hex, err := canvas.DecodeColor(packed)
	if err != nil {
		return "", err
	}
	return color.RGB(int(r), int(g), int(b)).Sprint(GlyphConfirmed) + " " + hex, nil
}
