package usecase

import (
	"context"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
)

// LedgerStore 是帳本的持久化介面
//
// 一筆過帳需要的讀寫都在 Atomic 裡完成：fn 回傳 nil 時所有寫入一起生效，
// 回傳錯誤 (或 ctx 被取消) 時完全不生效，其他操作看不到中間狀態。
// 實作必須保證同一帳戶上的兩筆 Atomic 不會都讀到舊餘額再各自寫回 (lost update)。
type LedgerStore interface {
	// Atomic 在儲存層的序列化邊界內執行 fn
	Atomic(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
	// CreateAccount 新增帳戶，ID 重複回傳 domain.ErrAccountAlreadyExists
	CreateAccount(ctx context.Context, account *domain.Account) error
	// FindAccountByID 查詢單一帳戶，不存在回傳 domain.ErrAccountNotFound
	FindAccountByID(ctx context.Context, id string) (*domain.Account, error)
	// FindAllAccounts 依建立順序列出所有帳戶
	FindAllAccounts(ctx context.Context) ([]*domain.Account, error)
	// FindTransactionByID 查詢已過帳交易，不存在回傳 domain.ErrTransactionNotFound
	FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
}

// LedgerTx 是 Atomic 內可用的操作
type LedgerTx interface {
	// FindAccountsByIDs 回傳存在的帳戶；不存在的 ID 直接略過，不是錯誤
	FindAccountsByIDs(ctx context.Context, ids []string) ([]*domain.Account, error)
	// FindTransactionByID 冪等檢查用
	FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	// CreateTransaction 寫入交易主檔 (不含分錄)
	CreateTransaction(ctx context.Context, tran *domain.Transaction) error
	// CreateEntries 寫入分錄並回傳儲存後的分錄
	CreateEntries(ctx context.Context, transactionID string, entries []domain.Entry) ([]domain.Entry, error)
	// ReplaceAccountBalances 覆寫指定帳戶的餘額，未列出的帳戶不受影響
	ReplaceAccountBalances(ctx context.Context, accounts []*domain.Account) error
}
