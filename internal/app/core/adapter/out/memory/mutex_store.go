package memory

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-double-entry-ledger/pkg/wal"
)

// MutexStore 是一個使用 Mutex 序列化過帳的記憶體帳本
//
// 結構:
//
//	state: 已提交狀態 (查詢與開戶直接走這裡)
//	writeMu: 同一時間只允許一個 Atomic 執行
type MutexStore struct {
	*state
	writeMu sync.Mutex
}

// NewMutexStore 建立一個新的 MutexStore 實例
//
// 參數:
//
//	w: Write-Ahead Log 實例，nil 表示不落地
//
// 回傳:
//
//	*MutexStore: MutexStore 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewMutexStore(w *wal.WAL) (*MutexStore, error) {
	st, err := newState(w)
	if err != nil {
		return nil, err
	}
	return &MutexStore{state: st}, nil
}

// Atomic 持有寫鎖執行 fn，成功才提交
func (m *MutexStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx usecase.LedgerTx) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newStagedTx(m.state)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

var _ usecase.LedgerStore = (*MutexStore)(nil)
