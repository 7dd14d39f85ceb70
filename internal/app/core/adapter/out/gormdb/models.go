package gormdb

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
)

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID        string          `gorm:"primaryKey;size:64"`
	Name      string          `gorm:"size:255;not null"`
	Direction string          `gorm:"size:8;not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Version   int64           `gorm:"not null;default:0"` // 樂觀鎖
	CreatedAt int64           `gorm:"autoCreateTime:nano;index"`
	UpdatedAt int64           `gorm:"autoUpdateTime:milli"`
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// sqlTransaction 對應資料庫的 transactions 表
type sqlTransaction struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:255;not null"`
	PostedAt  time.Time `gorm:"not null"`
	CreatedAt int64     `gorm:"autoCreateTime:milli"`
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

// sqlEntry 對應資料庫的 entries 表
// Seq 保留分錄在交易中的順序
type sqlEntry struct {
	ID            string          `gorm:"primaryKey;size:64"`
	TransactionID string          `gorm:"size:64;not null;index"`
	AccountID     string          `gorm:"size:64;not null;index"`
	Direction     string          `gorm:"size:8;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Seq           int             `gorm:"not null"`
}

func (*sqlEntry) TableName() string {
	return "entries"
}

func fromDomainAccount(a *domain.Account) *sqlAccount {
	return &sqlAccount{
		ID:        a.ID,
		Name:      a.Name,
		Direction: string(a.Direction),
		Balance:   a.Balance,
		Version:   a.Version,
	}
}

func (a *sqlAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:        a.ID,
		Name:      a.Name,
		Direction: domain.Direction(a.Direction),
		Balance:   a.Balance,
		Version:   a.Version,
	}
}

func (e *sqlEntry) toDomain() domain.Entry {
	return domain.Entry{
		ID:        e.ID,
		Direction: domain.Direction(e.Direction),
		Amount:    e.Amount,
		AccountID: e.AccountID,
	}
}
