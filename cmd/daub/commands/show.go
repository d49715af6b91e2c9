package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/daub/internal/printer"
	"github.com/dyluth/daub/internal/render"
	"github.com/dyluth/daub/pkg/canvas"
	"github.com/spf13/cobra"
)

var showLegend bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Draw the canvas in the terminal",
	Long: `Read the canvas from the ledger and draw it with 24-bit colors.

Unpainted cells are drawn as dots. The line below the canvas shows overall
progress and the current identity's share.`,
	RunE: runShow,
}

var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "List the default paint colors",
	RunE:  runPalette,
}

func init() {
	showCmd.Flags().BoolVar(&showLegend, "legend", false, "Number every tenth row and column")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(paletteCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
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

	ctrl := newController(cfg, client, info, newLogger(), nil)
	defer ctrl.Close()
	snap, err := ctrl.Load(ctx)
	if err != nil {
		return printer.Error("canvas unavailable", err.Error(), []string{"Retry in a moment"})
	}

	return drawCanvas(ctrl, snap)
}

// drawCanvas writes the controller's merged view and its summary line.
func drawCanvas(ctrl *canvas.Controller, snap *canvas.Snapshot) error {
	grid := ctrl.Store().Grid()
	if err := render.Canvas(printer.Writer(), grid, ctrl.Store().Cells(), render.Options{Legend: showLegend}); err != nil {
		return fmt.Errorf("failed to render canvas: %w", err)
	}

	printer.Println()
	printer.Println(render.StatsLine(ctrl.Stats()))
	if snap.PixelPrice != "" {
		printer.Info("Price per cell: %s\n", snap.PixelPrice)
	}
	if snap.Anomalies > 0 {
		printer.Warning("%d ledger entries could not be read\n", snap.Anomalies)
	}
	if snap.IsCompleted {
		printer.Success("Canvas completed\n")
	}
	return nil
}

func runPalette(cmd *cobra.Command, args []string) error {
	for i, display := range canvas.Palette {
		swatch, err := render.Swatch(display)
		if err != nil {
			return fmt.Errorf("palette color %d: %w", i, err)
		}
		printer.Info("%2d  %s\n", i+1, swatch)
	}
	return nil
}
