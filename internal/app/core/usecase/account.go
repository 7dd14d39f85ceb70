package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
)

// OpenAccountRequest 開戶請求
type OpenAccountRequest struct {
	ID        string
	Name      string
	Direction domain.Direction
}

// AccountOpener 開戶，餘額固定從 0 開始
type AccountOpener struct {
	store  LedgerStore
	logger *zap.Logger
	newID  func() string
}

func NewAccountOpener(store LedgerStore, logger *zap.Logger) *AccountOpener {
	return &AccountOpener{
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Open 建立帳戶
func (o *AccountOpener) Open(ctx context.Context, req OpenAccountRequest) (*domain.Account, error) {
	if !req.Direction.IsValid() {
		return nil, domain.ErrInvalidDirection
	}
	id := req.ID
	if id == "" {
		id = o.newID()
	}

	account := domain.NewAccount(id, req.Name, req.Direction)
	if err := o.store.CreateAccount(ctx, account); err != nil {
		return nil, domain.StoreFailure(err)
	}
	o.logger.Info("account opened", zap.String("account_id", id), zap.String("direction", req.Direction.String()))
	return account.Clone(), nil
}

// AccountQuery 查詢帳戶
type AccountQuery struct {
	store LedgerStore
}

func NewAccountQuery(store LedgerStore) *AccountQuery {
	return &AccountQuery{store: store}
}

// GetAccounts id 為空時列出全部；否則回傳該帳戶 (不存在時為空切片，不是錯誤)
func (q *AccountQuery) GetAccounts(ctx context.Context, id string) ([]*domain.Account, error) {
	if id == "" {
		accounts, err := q.store.FindAllAccounts(ctx)
		if err != nil {
			return nil, domain.StoreFailure(err)
		}
		return accounts, nil
	}

	account, err := q.store.FindAccountByID(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return []*domain.Account{}, nil
	}
	if err != nil {
		return nil, domain.StoreFailure(err)
	}
	return []*domain.Account{account}, nil
}

// GetTransaction 查詢已過帳交易
func (q *AccountQuery) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	tran, err := q.store.FindTransactionByID(ctx, id)
	if err != nil {
		return nil, domain.StoreFailure(err)
	}
	return tran, nil
}
