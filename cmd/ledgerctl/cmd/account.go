package cmd

import (
	"context"

	"github.com/spf13/cobra"

	grpc_adapter "github.com/JoeShih716/go-double-entry-ledger/internal/app/core/adapter/in/grpc"
)

var openAccountFlags struct {
	id        string
	name      string
	direction string
}

var openAccountCmd = &cobra.Command{
	Use:   "open-account",
	Short: "Open a new account with zero balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger := ledgerClient()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		resp, err := ledger.OpenAccount(ctx, &grpc_adapter.OpenAccountRequest{
			ID:        openAccountFlags.id,
			Name:      openAccountFlags.name,
			Direction: openAccountFlags.direction,
		})
		if err != nil {
			return describeError(err)
		}
		return printJSON(resp.Account)
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts [id]",
	Short: "List all accounts, or show one account",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger := ledgerClient()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		req := &grpc_adapter.GetAccountsRequest{}
		if len(args) == 1 {
			req.ID = args[0]
		}
		resp, err := ledger.GetAccounts(ctx, req)
		if err != nil {
			return describeError(err)
		}
		return printJSON(resp.Accounts)
	},
}

func init() {
	openAccountCmd.Flags().StringVar(&openAccountFlags.id, "id", "", "account id (generated when empty)")
	openAccountCmd.Flags().StringVar(&openAccountFlags.name, "name", "", "account name")
	openAccountCmd.Flags().StringVar(&openAccountFlags.direction, "direction", "", "normal balance side: debit or credit")
	_ = openAccountCmd.MarkFlagRequired("name")
	_ = openAccountCmd.MarkFlagRequired("direction")
}
