package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/daub/internal/devledger"
	"github.com/dyluth/daub/internal/printer"
	"github.com/spf13/cobra"
)

var (
	ledgerName  string
	ledgerImage string
	ledgerPort  int
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Run a local development ledger in Docker",
	Long: `Manage local development ledgers.

A development ledger is a Redis container labelled for daub. Its data lives
only as long as the container: 'daub ledger down' discards every canvas
and coin on it.`,
}

var ledgerUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Start a development ledger",
	RunE:  runLedgerUp,
}

var ledgerDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove a development ledger",
	RunE:  runLedgerDown,
}

var ledgerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List development ledgers",
	RunE:  runLedgerStatus,
}

func init() {
	ledgerCmd.PersistentFlags().StringVarP(&ledgerName, "name", "n", devledger.DefaultName, "Ledger name")
	ledgerUpCmd.Flags().StringVar(&ledgerImage, "image", devledger.DefaultImage, "Redis image")
	ledgerUpCmd.Flags().IntVar(&ledgerPort, "port", 0, "Host port (default first free port from 6379)")

	ledgerCmd.AddCommand(ledgerUpCmd, ledgerDownCmd, ledgerStatusCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func runLedgerUp(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := devledger.ValidateName(ledgerName); err != nil {
		return printer.Error("invalid ledger name", err.Error(), nil)
	}

	cli, err := devledger.NewDockerClient(ctx)
	if err != nil {
		return printer.Error("Docker unavailable", err.Error(), nil)
	}
	defer cli.Close()

	printer.Step("Starting ledger '%s' (%s)...\n", ledgerName, ledgerImage)
	info, err := devledger.Up(ctx, cli, devledger.UpOptions{
		Name:  ledgerName,
		Image: ledgerImage,
		Port:  ledgerPort,
	})
	if err != nil {
		return printer.Error(
			"failed to start ledger",
			err.Error(),
			[]string{
				"Check existing ledgers:\n  daub ledger status",
				fmt.Sprintf("Remove a stale one:\n  daub ledger down --name %s", ledgerName),
			},
		)
	}

	printer.Success("Ledger '%s' running on port %d\n", info.Name, info.Port)
	printer.Info("\nUse it:\n  export DAUB_REDIS_URL=%s\n", info.RedisURL)
	return nil
}

func runLedgerDown(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := devledger.NewDockerClient(ctx)
	if err != nil {
		return printer.Error("Docker unavailable", err.Error(), nil)
	}
	defer cli.Close()

	if err := devledger.Down(ctx, cli, ledgerName); err != nil {
		return printer.Error("failed to remove ledger", err.Error(), []string{"List ledgers:\n  daub ledger status"})
	}
	printer.Success("Removed ledger '%s'\n", ledgerName)
	return nil
}

func runLedgerStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := devledger.NewDockerClient(ctx)
	if err != nil {
		return printer.Error("Docker unavailable", err.Error(), nil)
	}
	defer cli.Close()

	infos, err := devledger.List(ctx, cli)
	if err != nil {
		return printer.Error("failed to list ledgers", err.Error(), nil)
	}
	if len(infos) == 0 {
		printer.Info("No development ledgers found\n\nStart one:\n  daub ledger up\n")
		return nil
	}

	printer.Info("%-16s %-8s %-6s %-10s %s\n", "NAME", "STATUS", "PORT", "AGE", "URL")
	for _, info := range infos {
		printer.Info("%-16s %-8s %-6d %-10s %s\n",
			info.Name, info.Status, info.Port, time.Since(info.Created).Round(time.Second), info.RedisURL)
	}
	return nil
}
