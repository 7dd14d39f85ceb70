package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/adapter/out/gormdb"
	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-double-entry-ledger/pkg/config"
	"github.com/JoeShih716/go-double-entry-ledger/pkg/database"
	"github.com/JoeShih716/go-double-entry-ledger/pkg/wal"
)

// buildStore 依設定建立 Ledger Store
// 回傳的 cleanup 會等 ctx 結束後的收尾完成才釋放資源 (sequencer drain、WAL、DB 連線)
func buildStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (usecase.LedgerStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreMemory, config.StoreSequencer:
		return buildMemoryStore(ctx, cfg, log)
	case config.StoreMySQL, config.StorePostgres, config.StoreSQLite:
		client, err := database.NewClient(cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		store := gormdb.NewStore(client)
		if err := store.AutoMigrate(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("ledger store ready", zap.String("driver", cfg.Store.Driver))
		return store, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func buildMemoryStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (usecase.LedgerStore, func(), error) {
	var w *wal.WAL
	closeWAL := func() {}
	if cfg.Store.WALPath != "" {
		var err error
		w, err = wal.NewWAL(cfg.Store.WALPath)
		if err != nil {
			return nil, nil, err
		}
		closeWAL = func() { _ = w.Close() }
	}

	if cfg.Store.Driver == config.StoreSequencer {
		store, err := memory.NewSequencerStore(w, cfg.Store.QueueSize)
		if err != nil {
			closeWAL()
			return nil, nil, fmt.Errorf("recover from wal: %w", err)
		}
		store.Start(ctx)
		log.Info("ledger store ready", zap.String("driver", cfg.Store.Driver), zap.String("wal", cfg.Store.WALPath))
		return store, func() {
			<-store.Done()
			closeWAL()
		}, nil
	}

	store, err := memory.NewMutexStore(w)
	if err != nil {
		closeWAL()
		return nil, nil, fmt.Errorf("recover from wal: %w", err)
	}
	log.Info("ledger store ready", zap.String("driver", cfg.Store.Driver), zap.String("wal", cfg.Store.WALPath))
	return store, closeWAL, nil
}
