package commands

import (
	"context"
	"time"

	"github.com/dyluth/daub/internal/printer"
	"github.com/dyluth/daub/internal/render"
	"github.com/dyluth/daub/pkg/canvas"
	"github.com/spf13/cobra"
)

var pickCmd = &cobra.Command{
	Use:   "pick (INDEX | X Y)",
	Short: "Show a cell's color, owner and time (eyedropper)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
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
	if _, err := ctrl.Load(ctx); err != nil {
		return printer.Error("canvas unavailable", err.Error(), []string{"Retry in a moment"})
	}

	index, err := parseCell(canvas.NewGrid(info.Size), args)
	if err != nil {
		return printer.Error("invalid cell", err.Error(), nil)
	}

	packed, ok := ctrl.Pick(index)
	if !ok {
		printer.Info("Cell %d is unpainted\n", index)
		return nil
	}

	display, err := canvas.DecodeColor(packed)
	if err != nil {
		return printer.Error("invalid color on ledger", err.Error(), nil)
	}
	swatch, err := render.Swatch(display)
	if err != nil {
		return printer.Error("invalid color on ledger", err.Error(), nil)
	}

	cell, _ := ctrl.Store().Get(index)
	printer.Info("%s  cell %d\n", swatch, index)
	printer.Info("owner: %s\n", cell.Owner)
	if cell.Timestamp > 0 {
		printer.Info("painted: %s\n", time.UnixMilli(cell.Timestamp).Format(time.RFC3339))
	}
	printer.Info("\nPaint with it:\n  daub paint X Y --color '%s'\n", display)
	return nil
}
