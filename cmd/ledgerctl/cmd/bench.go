package cmd

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	grpc_adapter "github.com/JoeShih716/go-double-entry-ledger/internal/app/core/adapter/in/grpc"
)

var benchFlags struct {
	total         int
	concurrency   int
	amount        string
	debitAccount  string
	creditAccount string
	deadline      time.Duration
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load test PostTransaction with concurrent postings",
	Long: `bench 以固定併發數送出大量交易並回報 TPS。

沒有指定帳戶時會先開一個借方帳戶與一個貸方帳戶，每筆交易借記前者、貸記後者，
兩邊都是增加餘額，不會觸發餘額不足。`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchFlags.total, "total", 100000, "number of postings")
	benchCmd.Flags().IntVar(&benchFlags.concurrency, "concurrency", 100, "concurrent in-flight postings")
	benchCmd.Flags().StringVar(&benchFlags.amount, "amount", "1", "amount per posting")
	benchCmd.Flags().StringVar(&benchFlags.debitAccount, "debit-account", "", "account debited by each posting")
	benchCmd.Flags().StringVar(&benchFlags.creditAccount, "credit-account", "", "account credited by each posting")
	benchCmd.Flags().DurationVar(&benchFlags.deadline, "deadline", 120*time.Second, "overall deadline")
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchFlags.total <= 0 || benchFlags.concurrency <= 0 {
		return fmt.Errorf("total and concurrency must be positive")
	}
	amount, err := decimal.NewFromString(benchFlags.amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), benchFlags.deadline)
	defer cancel()

	// 服務未就緒就不開始壓測
	if err := client.CheckHealth(ctx, grpc_adapter.ServiceName); err != nil {
		return err
	}
	ledger := ledgerClient()

	debitID, creditID, err := benchAccounts(ctx, ledger)
	if err != nil {
		return err
	}

	var (
		wg     sync.WaitGroup
		failed atomic.Int64
	)
	sem := make(chan struct{}, benchFlags.concurrency)
	startTime := time.Now()

	for i := 0; i < benchFlags.total; i++ {
		sem <- struct{}{}
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := ledger.PostTransaction(ctx, &grpc_adapter.PostTransactionRequest{
				ID:   uuid.NewString(),
				Name: "bench",
				Entries: []grpc_adapter.Entry{
					{Direction: "debit", Amount: amount, AccountID: debitID},
					{Direction: "credit", Amount: amount, AccountID: creditID},
				},
			})
			if err != nil {
				failed.Add(1)
				if idx%10000 == 0 {
					log.Warn("posting failed", zap.Int("index", idx), zap.Error(describeError(err)))
				}
			}
		}(i)
	}
	wg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("Completed %d requests in %v (failed: %d)\n", benchFlags.total, elapsed, failed.Load())
	fmt.Printf("TPS: %.2f\n", float64(benchFlags.total)/elapsed.Seconds())
	return nil
}

// benchAccounts 沿用指定帳戶，否則各開一個
func benchAccounts(ctx context.Context, ledger grpc_adapter.LedgerServiceClient) (string, string, error) {
	debitID, creditID := benchFlags.debitAccount, benchFlags.creditAccount
	if debitID == "" {
		resp, err := ledger.OpenAccount(ctx, &grpc_adapter.OpenAccountRequest{Name: "bench-debit", Direction: "debit"})
		if err != nil {
			return "", "", describeError(err)
		}
		debitID = resp.Account.ID
	}
	if creditID == "" {
		resp, err := ledger.OpenAccount(ctx, &grpc_adapter.OpenAccountRequest{Name: "bench-credit", Direction: "credit"})
		if err != nil {
			return "", "", describeError(err)
		}
		creditID = resp.Account.ID
	}
	return debitID, creditID, nil
}
