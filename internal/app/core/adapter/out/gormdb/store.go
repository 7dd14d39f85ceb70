package gormdb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-double-entry-ledger/pkg/database"
)

// Store 以關聯式資料庫實作的 LedgerStore
//
// 一次過帳對應一個 DB transaction；帳戶以 SELECT ... FOR UPDATE 依 ID 排序加鎖，
// 寫回餘額時再用 version 做一次樂觀鎖檢查。
type Store struct {
	db *gorm.DB
}

func NewStore(client *database.Client) *Store {
	return &Store{
		db: client.DB(),
	}
}

// AutoMigrate 建立 / 更新資料表
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&sqlAccount{}, &sqlTransaction{}, &sqlEntry{})
}

// Atomic fn 回傳錯誤時整個 DB transaction rollback
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx usecase.LedgerTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &ledgerTx{db: tx})
	})
}

// CreateAccount 新增帳戶
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&sqlAccount{}).Where("id = ?", account.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrAccountAlreadyExists
	}

	err := db.Create(fromDomainAccount(account)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 併發開同一個 ID，由唯一鍵擋下
		return domain.ErrAccountAlreadyExists
	}
	return err
}

// FindAccountByID 查詢單一帳戶
func (s *Store) FindAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	var row sqlAccount
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// FindAllAccounts 依建立順序列出所有帳戶
func (s *Store) FindAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	var rows []sqlAccount
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Account, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// FindTransactionByID 查詢交易與其分錄
func (s *Store) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return findTransaction(s.db.WithContext(ctx), id)
}

func findTransaction(db *gorm.DB, id string) (*domain.Transaction, error) {
	var row sqlTransaction
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	var entries []sqlEntry
	if err := db.Where("transaction_id = ?", id).Order("seq").Find(&entries).Error; err != nil {
		return nil, err
	}
	tran := &domain.Transaction{
		ID:       row.ID,
		Name:     row.Name,
		PostedAt: row.PostedAt.UTC(),
		Entries:  make([]domain.Entry, 0, len(entries)),
	}
	for i := range entries {
		tran.Entries = append(tran.Entries, entries[i].toDomain())
	}
	return tran, nil
}

// ledgerTx 綁定在單一 DB transaction 上
type ledgerTx struct {
	db *gorm.DB
}

// FindAccountsByIDs 悲觀鎖：依 ID 排序鎖住涉及的帳戶 (sqlite 會忽略 FOR UPDATE，靠單一寫入者序列化)
func (t *ledgerTx) FindAccountsByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	if len(ids) == 0 {
		return []*domain.Account{}, nil
	}
	var rows []sqlAccount
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Account, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (t *ledgerTx) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return findTransaction(t.db, id)
}

func (t *ledgerTx) CreateTransaction(ctx context.Context, tran *domain.Transaction) error {
	row := &sqlTransaction{
		ID:       tran.ID,
		Name:     tran.Name,
		PostedAt: tran.PostedAt.UTC(),
	}
	err := t.db.Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrTransactionAlreadyExists
	}
	return err
}

func (t *ledgerTx) CreateEntries(ctx context.Context, transactionID string, entries []domain.Entry) ([]domain.Entry, error) {
	if len(entries) == 0 {
		return []domain.Entry{}, nil
	}
	rows := make([]sqlEntry, 0, len(entries))
	stored := make([]domain.Entry, 0, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		rows = append(rows, sqlEntry{
			ID:            e.ID,
			TransactionID: transactionID,
			AccountID:     e.AccountID,
			Direction:     string(e.Direction),
			Amount:        e.Amount,
			Seq:           i,
		})
		stored = append(stored, e)
	}
	err := t.db.Create(&rows).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, domain.ErrEntryAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ReplaceAccountBalances 以讀取時的 version 為條件寫回
// RowsAffected == 0 代表帳戶不存在或已被其他交易修改
func (t *ledgerTx) ReplaceAccountBalances(ctx context.Context, accounts []*domain.Account) error {
	for _, acc := range accounts {
		result := t.db.Model(&sqlAccount{}).
			Where("id = ? AND version = ?", acc.ID, acc.Version).
			Updates(map[string]any{
				"balance": acc.Balance,
				"version": gorm.Expr("version + ?", 1),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.NewAccountError(acc.ID, domain.ErrConcurrentUpdate)
		}
	}
	return nil
}

var (
	_ usecase.LedgerStore = (*Store)(nil)
	_ usecase.LedgerTx    = (*ledgerTx)(nil)
)
