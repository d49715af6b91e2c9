package commands

import (
	"fmt"

	"github.com/dyluth/daub/internal/printer"
	"github.com/dyluth/daub/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit    bool
	initRedisURL string
	initSize     int
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a daub.yml in the current directory",
	Long: `Create a daub.yml configuration file in the current directory.

The global --identity and --canvas flags are written into the file when given.

Use --force to overwrite an existing daub.yml.`,
	RunE: runInit,
}

func init() {
	// Note: Cannot use -f shorthand because it conflicts with global --config flag
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing daub.yml")
	initCmd.Flags().StringVar(&initRedisURL, "redis-url", "", "Ledger Redis URL (default redis://localhost:6379/0)")
	initCmd.Flags().IntVar(&initSize, "size", 0, "Canvas side length for new canvases (default 100)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting("."); err != nil {
			return printer.Error("already initialized", err.Error(), nil)
		}
	}

	path, err := scaffold.Initialize(".", scaffold.Values{
		Identity: identityFlag,
		RedisURL: initRedisURL,
		CanvasID: canvasFlag,
		Size:     initSize,
	}, forceInit)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess(path)
	return nil
}
