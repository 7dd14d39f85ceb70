package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	grpc_adapter "github.com/JoeShih716/go-double-entry-ledger/internal/app/core/adapter/in/grpc"
)

var postFlags struct {
	id      string
	name    string
	entries []string
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a balanced transaction",
	Long: `post 送出一筆交易，每個 --entry 格式為 direction:amount:account_id，依出現順序套用。

Example:
  ledgerctl post --name sale --entry debit:150.25:<cash-id> --entry credit:150.25:<revenue-id>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := parseEntries(postFlags.entries)
		if err != nil {
			return err
		}
		ledger := ledgerClient()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		resp, err := ledger.PostTransaction(ctx, &grpc_adapter.PostTransactionRequest{
			ID:      postFlags.id,
			Name:    postFlags.name,
			Entries: entries,
		})
		if err != nil {
			return describeError(err)
		}
		return printJSON(resp.Transaction)
	},
}

var transactionCmd = &cobra.Command{
	Use:   "transaction <id>",
	Short: "Show a posted transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger := ledgerClient()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		resp, err := ledger.GetTransaction(ctx, &grpc_adapter.GetTransactionRequest{ID: args[0]})
		if err != nil {
			return describeError(err)
		}
		return printJSON(resp.Transaction)
	},
}

func init() {
	postCmd.Flags().StringVar(&postFlags.id, "id", "", "transaction id (generated when empty; reuse to retry idempotently)")
	postCmd.Flags().StringVar(&postFlags.name, "name", "", "transaction name")
	postCmd.Flags().StringArrayVar(&postFlags.entries, "entry", nil, "entry as direction:amount:account_id (repeatable)")
	_ = postCmd.MarkFlagRequired("name")
	_ = postCmd.MarkFlagRequired("entry")
}

// parseEntries 解析 direction:amount:account_id
func parseEntries(raw []string) ([]grpc_adapter.Entry, error) {
	entries := make([]grpc_adapter.Entry, 0, len(raw))
	for _, s := range raw {
		parts := strings.SplitN(s, ":", 3)
		if len(parts) != 3 || parts[2] == "" {
			return nil, fmt.Errorf("invalid entry %q: want direction:amount:account_id", s)
		}
		amount, err := decimal.NewFromString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid amount in entry %q: %w", s, err)
		}
		entries = append(entries, grpc_adapter.Entry{
			Direction: strings.ToLower(parts[0]),
			Amount:    amount,
			AccountID: parts[2],
		})
	}
	return entries, nil
}
