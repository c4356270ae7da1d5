package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"facelyze-api/internal/app"
	"facelyze-api/internal/bootstrap"
	"facelyze-api/internal/platform/database"
	"facelyze-api/internal/repository"
)

var (
	grantUser      string
	grantAmount    int
	grantReference string
)

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Credit tokens to a user",
	Long: `Credits tokens to a user by username. The reference is recorded in the
ledger, so running the same grant twice credits once.

Example:
  facelyze-api grant --user ana --amount 20 --reference support-1042`,
	RunE: runGrant,
}

func init() {
	grantCmd.Flags().StringVar(&grantUser, "user", "", "username to credit")
	grantCmd.Flags().IntVar(&grantAmount, "amount", 0, "tokens to add")
	grantCmd.Flags().StringVar(&grantReference, "reference", "", "unique reference for this grant")
	_ = grantCmd.MarkFlagRequired("user")
	_ = grantCmd.MarkFlagRequired("amount")
	_ = grantCmd.MarkFlagRequired("reference")
}

func runGrant(cmd *cobra.Command, args []string) error {
	db, err := bootstrap.OpenDatabase(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	wallet := app.NewWalletService(repository.NewUserRepository(db), repository.NewTokenLedgerRepository(db), nil)
	balance, err := wallet.AdminGrant(app.GrantInput{
		Username:  grantUser,
		Amount:    grantAmount,
		Reference: grantReference,
	})
	if err != nil {
		if errors.Is(err, app.ErrReferenceUsed) {
			logger.Warn("grant already applied", zap.String("reference", grantReference))
			return nil
		}
		return err
	}

	logger.Info("tokens granted", zap.String("user", grantUser), zap.Int("amount", grantAmount), zap.Int("balance", balance.Tokens))
	fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d tokens\n", grantUser, balance.Tokens)
	return nil
}
