// Package cmd 提供 ledgerctl 的子命令，透過 gRPC 呼叫帳本服務
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	grpc_adapter "github.com/JoeShih716/go-double-entry-ledger/internal/app/core/adapter/in/grpc"
	grpcpkg "github.com/JoeShih716/go-double-entry-ledger/pkg/grpc"
	"github.com/JoeShih716/go-double-entry-ledger/pkg/logger"
)

var (
	target   string
	timeout  time.Duration
	logLevel string

	log    *zap.Logger
	client *grpcpkg.Client
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Command line client for the ledger gRPC service",
	Long: `ledgerctl 透過 gRPC 操作帳本服務。

Example:
  ledgerctl open-account --name Cash --direction debit
  ledgerctl post --name sale --entry debit:100:<cash-id> --entry credit:100:<revenue-id>
  ledgerctl accounts
  ledgerctl health
  ledgerctl bench --total 100000 --concurrency 200`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logger.New("debug", logLevel)
		if err != nil {
			return err
		}
		client, err = grpcpkg.NewClient(target, grpcpkg.WithInterceptor(loggingInterceptor))
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if client != nil {
			return client.Close()
		}
		return nil
	},
}

// Execute 執行 root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&target, "addr", envOrDefault("LEDGER_GRPC_TARGET", "localhost:50051"), "ledger gRPC address")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "per request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(openAccountCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(transactionCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(healthCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the ledger service is SERVING",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		if err := client.CheckHealth(ctx, grpc_adapter.ServiceName); err != nil {
			return err
		}
		fmt.Println("SERVING")
		return nil
	},
}

func ledgerClient() grpc_adapter.LedgerServiceClient {
	return grpc_adapter.NewLedgerServiceClient(client.Conn())
}

func loggingInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	start := time.Now()
	err := invoker(ctx, method, req, reply, cc, opts...)
	log.Debug("grpc call",
		zap.String("method", method),
		zap.String("code", status.Code(err).String()),
		zap.Duration("cost", time.Since(start)),
	)
	return err
}

// printJSON 以縮排 JSON 輸出結果
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describeError 附上伺服端回傳的錯誤代碼
func describeError(err error) error {
	if info, ok := grpc_adapter.ErrorInfoOf(err); ok {
		if id := info.Metadata["account_id"]; id != "" {
			return fmt.Errorf("%s (account %s): %s", info.Reason, id, status.Convert(err).Message())
		}
		return fmt.Errorf("%s: %s", info.Reason, status.Convert(err).Message())
	}
	return err
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
