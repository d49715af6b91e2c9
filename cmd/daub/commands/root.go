package commands

import (
	"fmt"

	"github.com/dyluth/daub/internal/config"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// Global flags
var (
	configPath   string
	canvasFlag   string
	identityFlag string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "daub",
	Short: "daub - collaborative pixel canvas on a shared ledger",
	Long: `daub paints on a shared N×N canvas whose state lives on a slow ledger.

Paints show up locally at once as pending cells and settle when the ledger
confirms or rejects them. Every cell can be painted exactly once; the first
confirmed write wins.

Configuration is read from daub.yml (see 'daub init') and can be
overridden with DAUB_REDIS_URL, DAUB_CANVAS_ID and DAUB_IDENTITY.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", config.DefaultPath, "Path to daub.yml")
	rootCmd.PersistentFlags().StringVarP(&canvasFlag, "canvas", "c", "", "Canvas id or unique prefix (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&identityFlag, "identity", "i", "", "Painter identity (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log controller events to stderr")
}
