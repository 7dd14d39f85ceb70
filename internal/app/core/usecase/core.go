package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層，給 gRPC / HTTP adapter 共用
type CoreUseCase struct {
	poster *TransactionPoster
	opener *AccountOpener
	query  *AccountQuery
}

// NewCoreUseCase 以同一個 LedgerStore 組出所有 use case
func NewCoreUseCase(store LedgerStore, logger *zap.Logger, opts ...PosterOption) *CoreUseCase {
	return &CoreUseCase{
		poster: NewTransactionPoster(store, logger, opts...),
		opener: NewAccountOpener(store, logger),
		query:  NewAccountQuery(store),
	}
}

// PostTransaction 處理交易
func (c *CoreUseCase) PostTransaction(ctx context.Context, req PostTransactionRequest) (*domain.Transaction, error) {
	return c.poster.Post(ctx, req)
}

// OpenAccount 開戶
func (c *CoreUseCase) OpenAccount(ctx context.Context, req OpenAccountRequest) (*domain.Account, error) {
	return c.opener.Open(ctx, req)
}

// GetAccounts 查詢帳戶
func (c *CoreUseCase) GetAccounts(ctx context.Context, id string) ([]*domain.Account, error) {
	return c.query.GetAccounts(ctx, id)
}

// GetTransaction 查詢交易
func (c *CoreUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return c.query.GetTransaction(ctx, id)
}
