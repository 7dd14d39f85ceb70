package http

import (
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
)

// CreateAccountReq 開戶請求
type CreateAccountReq struct {
	ID        string `json:"id" binding:"omitempty,uuid"`
	Name      string `json:"name" binding:"required"`
	Direction string `json:"direction" binding:"required,oneof=debit credit"`
}

// EntryReq 分錄，amount 可以是數字或字串
type EntryReq struct {
	ID        string          `json:"id" binding:"omitempty,uuid"`
	Direction string          `json:"direction" binding:"required,oneof=debit credit"`
	Amount    decimal.Decimal `json:"amount"`
	AccountID string          `json:"account_id" binding:"required,uuid"`
}

// CreateTransactionReq 過帳請求
type CreateTransactionReq struct {
	ID      string     `json:"id" binding:"omitempty,uuid"`
	Name    string     `json:"name" binding:"required"`
	Entries []EntryReq `json:"entries" binding:"required,min=1,dive"`
}

// ErrorResp 錯誤回應
type ErrorResp struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	AccountID string `json:"account_id,omitempty"`
}

func (r *CreateTransactionReq) toDomainEntries() []domain.Entry {
	entries := make([]domain.Entry, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = domain.Entry{
			ID:        e.ID,
			Direction: domain.Direction(e.Direction),
			Amount:    e.Amount,
			AccountID: e.AccountID,
		}
	}
	return entries
}
