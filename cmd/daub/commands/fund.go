package commands

import (
	"context"
	"sort"

	"github.com/dyluth/daub/internal/printer"
	"github.com/spf13/cobra"
)

var fundAmount int64

var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Mint a coin for the current identity",
	Long: `Mint a new coin worth --amount for the current identity.

This is the development ledger's faucet. Paints are paid from the
identity's coins, lowest coin id first.`,
	RunE: runFund,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the current identity's coins",
	RunE:  runBalance,
}

func init() {
	fundCmd.Flags().Int64Var(&fundAmount, "amount", 100000, "Coin value to mint")
	rootCmd.AddCommand(fundCmd)
	rootCmd.AddCommand(balanceCmd)
}

func runFund(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	coinID, err := client.Mint(ctx, cfg.Identity, fundAmount)
	if err != nil {
		return printer.Error("failed to mint coin", err.Error(), []string{"Use a positive --amount"})
	}
	balance, err := client.Balance(ctx, cfg.Identity)
	if err != nil {
		return printer.Error("failed to read balance", err.Error(), nil)
	}

	printer.Success("Minted coin %s worth %d for %s\n", coinID, fundAmount, cfg.Identity)
	printer.Info("Balance: %d\n", balance)
	return nil
}

func runBalance(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	coins, err := client.Coins(ctx, cfg.Identity)
	if err != nil {
		return printer.Error("failed to read coins", err.Error(), nil)
	}
	if len(coins) == 0 {
		printer.Warning("%s has no coins\n", cfg.Identity)
		printer.Info("\nMint some:\n  daub fund --amount 100000\n")
		return nil
	}

	ids := make([]string, 0, len(coins))
	for id := range coins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var total int64
	printer.Info("Coins for %s:\n\n", cfg.Identity)
	for _, id := range ids {
		printer.Info("  %s  %d\n", id, coins[id])
		total += coins[id]
	}
	printer.Info("\nTotal: %d\n", total)
	return nil
}
