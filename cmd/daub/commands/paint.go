package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/daub/internal/printer"
	"github.com/dyluth/daub/internal/render"
	"github.com/dyluth/daub/internal/watch"
	"github.com/dyluth/daub/pkg/canvas"
	"github.com/dyluth/daub/pkg/ledger"
	"github.com/spf13/cobra"
)

var (
	paintColor   string
	paintWait    bool
	paintTimeout time.Duration
)

var paintCmd = &cobra.Command{
	Use:   "paint (INDEX | X Y)",
	Short: "Paint one cell",
	Long: `Paint one cell with --color and wait for the ledger's verdict.

The cell is shown as pending while the paint is in flight. If another
painter claimed it first, or the identity cannot pay, the paint is
reverted and the cell stays unpainted.

Examples:
  # Paint by coordinates
  daub paint 10 20 --color '#ff0000'

  # Paint by linear index and wait until a fresh read shows it
  daub paint 2010 --color 00f --wait`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPaint,
}

func init() {
	paintCmd.Flags().StringVar(&paintColor, "color", "#ff0000", "Color as #rrggbb or #rgb")
	paintCmd.Flags().BoolVar(&paintWait, "wait", false, "Wait until a fresh ledger read shows the cell")
	paintCmd.Flags().DurationVar(&paintTimeout, "wait-timeout", 30*time.Second, "How long --wait polls the ledger")
	rootCmd.AddCommand(paintCmd)
}

func runPaint(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireIdentity(cfg); err != nil {
		return err
	}

	client, err := connectLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := requireCanvas(ctx, client, cfg)
	if err != nil {
		return err
	}
	if info.IsCompleted {
		return printer.Error("canvas completed", "Every cell of this canvas has been painted.", nil)
	}

	results := make(chan canvas.PaintResult, 1)
	ctrl := newController(cfg, client, info, newLogger(), func(r canvas.PaintResult) { results <- r })
	defer ctrl.Close()

	if _, err := ctrl.Load(ctx); err != nil {
		return printer.Error("canvas unavailable", err.Error(), []string{"Retry in a moment"})
	}

	grid := canvas.NewGrid(info.Size)
	index, err := parseCell(grid, args)
	if err != nil {
		return printer.Error("invalid cell", err.Error(), []string{fmt.Sprintf("Cells run from 0 to %d, coordinates from 0 to %d", grid.Cells()-1, grid.Size()-1)})
	}
	if err := ctrl.SetColorHex(paintColor); err != nil {
		return printer.Error("invalid color", err.Error(), []string{"Use #rrggbb or #rgb, or see:\n  daub palette"})
	}

	pending, err := ctrl.Paint(ctx, index)
	if err != nil {
		return paintRejected(ctrl, index, err)
	}

	x, y, _ := grid.IndexToCoord(index)
	swatch, _ := render.Swatch(paintColor)
	printer.Pending("Painting cell %d (%d,%d) %s\n", index, x, y, swatch)

	var result canvas.PaintResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return printer.Error("interrupted", fmt.Sprintf("Cell %d was submitted; its outcome is unknown.", index), []string{fmt.Sprintf("Check it:\n  daub pixels %d", index)})
	}
	if result.Err != nil {
		return paintFailed(result)
	}
	printer.Success("Painted cell %d in %v\n", index, result.Elapsed.Round(time.Millisecond))

	if paintWait {
		pixel, err := watch.PollForCell(ctx, client, info.ID, index, paintTimeout)
		if err != nil {
			return printer.Error("cell not visible", err.Error(), nil)
		}
		if pixel.Owner != pending.Owner {
			printer.Warning("Ledger shows cell %d owned by %s\n", index, pixel.Owner)
		} else {
			printer.Success("Ledger shows cell %d at %s\n", index, time.UnixMilli(pixel.Timestamp).Format(time.RFC3339))
		}
	}
	return nil
}

// paintRejected explains a paint refused before submission.
func paintRejected(ctrl *canvas.Controller, index int, err error) error {
	switch {
	case errors.Is(err, canvas.ErrCellOccupied), errors.Is(err, canvas.ErrAlreadyPainted), errors.Is(err, canvas.ErrAlreadyPending):
		cell, _ := ctrl.Store().Get(index)
		display, _ := canvas.DecodeColor(cell.Color)
		return printer.ErrorWithContext(
			"cell already painted",
			fmt.Sprintf("Cell %d cannot be painted again.", index),
			map[string]string{"owner": cell.Owner, "color": display},
			[]string{"Find a free cell:\n  daub show"},
		)
	case errors.Is(err, canvas.ErrRateLimited):
		return printer.Error("rate limited", err.Error(), []string{"Wait a moment or raise controller.rate_limit"})
	default:
		return printer.Error("paint rejected", err.Error(), nil)
	}
}

// paintFailed explains a paint the ledger rejected; the cell was reverted.
func paintFailed(result canvas.PaintResult) error {
	err := result.Err
	switch {
	case errors.Is(err, ledger.ErrCellOwned), canvas.IsContention(err):
		return printer.Error(
			"cell taken",
			fmt.Sprintf("Another painter claimed cell %d first. Your paint was reverted.", result.Index),
			nil,
		)
	case errors.Is(err, ledger.ErrNoFunds), errors.Is(err, ledger.ErrInsufficientFunds):
		return printer.Error(
			"insufficient funds",
			fmt.Sprintf("The ledger rejected cell %d: %v", result.Index, err),
			[]string{"Mint a coin:\n  daub fund --amount 100000"},
		)
	case errors.Is(err, ledger.ErrCanvasCompleted):
		return printer.Error("canvas completed", "Every cell of this canvas has been painted.", nil)
	default:
		return printer.Error("paint failed", fmt.Sprintf("Cell %d was reverted: %v", result.Index, err), []string{"Retry the paint"})
	}
}
