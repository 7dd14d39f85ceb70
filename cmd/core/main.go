package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	grpc_adapter "github.com/JoeShih716/go-double-entry-ledger/internal/app/core/adapter/in/grpc"
	http_adapter "github.com/JoeShih716/go-double-entry-ledger/internal/app/core/adapter/in/http"
	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-double-entry-ledger/pkg/config"
	"github.com/JoeShih716/go-double-entry-ledger/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "core",
	Short: "Double-entry ledger server (gRPC + HTTP)",
	Long: `core 啟動帳本服務，同時提供 gRPC (ledger.v1.LedgerService) 與 REST API。

Ledger Store 由設定檔的 store.driver 決定:
  memory     記憶體 + Mutex (可搭配 WAL)
  sequencer  記憶體 + 單一 goroutine 序列化 (可搭配 WAL)
  mysql / postgres / sqlite  關聯式資料庫`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "config/config.yaml", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// 1. 載入設定
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Server.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. 初始化 Ledger Store
	// store 的生命週期比 server 長：server 停止後 sequencer 才 drain 並關閉
	storeCtx, cancelStore := context.WithCancel(context.Background())
	store, closeStore, err := buildStore(storeCtx, cfg, log)
	if err != nil {
		cancelStore()
		return fmt.Errorf("init ledger store: %w", err)
	}
	defer func() {
		cancelStore()
		closeStore()
	}()

	// 3. 初始化 UseCase
	core := usecase.NewCoreUseCase(store, log)

	// 4. 初始化 Driving Adapters
	grpcServer, healthServer := grpc_adapter.NewServer(core, log)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}
	httpServer := http_adapter.NewServer(log, cfg.Server.HTTPAddr, cfg.Server.Mode, http_adapter.NewLedgerHandler(core))

	errCh := make(chan error, 2)
	go func() {
		log.Info("grpc server started", zap.String("addr", cfg.Server.GRPCAddr))
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.Run()
	}()

	// 5. Graceful Shutdown
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down server...")
	case serveErr = <-errCh:
		log.Error("server stopped unexpectedly", zap.Error(serveErr))
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	log.Info("server exited")
	if serveErr != nil && !errors.Is(serveErr, net.ErrClosed) {
		return serveErr
	}
	return nil
}
