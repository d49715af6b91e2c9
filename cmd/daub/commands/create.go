package commands

import (
	"context"

	"github.com/dyluth/daub/internal/printer"
	"github.com/spf13/cobra"
)

var (
	createSize  int
	createPrice int64
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an empty canvas on the ledger",
	Long: `Create an empty N×N canvas on the ledger and print its id.

Every cell costs --price, debited from the painter's coins when the paint
is confirmed. A price of 0 makes painting free.

Examples:
  # 100×100 canvas using the configured size
  daub create --price 1000

  # Small free canvas for testing
  daub create --size 16 --price 0`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().IntVar(&createSize, "size", 0, "Cells per side (default canvas.size from config)")
	createCmd.Flags().Int64Var(&createPrice, "price", 1000, "Price per painted cell")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	size := createSize
	if size == 0 {
		size = cfg.Canvas.Size
	}

	client, err := connectLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	id, err := client.CreateCanvas(ctx, size, createPrice)
	if err != nil {
		return printer.Error("failed to create canvas", err.Error(), nil)
	}

	printer.Success("Created canvas %s (%d×%d, %d per cell)\n", id, size, size, createPrice)
	printer.Info("\nSelect it for later commands:\n  export DAUB_CANVAS_ID=%s\n", id)
	return nil
}
