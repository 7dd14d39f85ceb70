package grpc

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
)

// 以下為 ledger.v1.LedgerService 的訊息，透過 JSON codec 傳輸
// 金額一律以字串表示的十進位數 (例如 "150.25")

type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Direction string          `json:"direction"`
	Balance   decimal.Decimal `json:"balance"`
}

type Entry struct {
	ID        string          `json:"id,omitempty"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	AccountID string          `json:"account_id"`
}

type Transaction struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Entries  []Entry   `json:"entries"`
	PostedAt time.Time `json:"posted_at"`
}

type OpenAccountRequest struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
}

type OpenAccountResponse struct {
	Account Account `json:"account"`
}

type PostTransactionRequest struct {
	ID      string  `json:"id,omitempty"`
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

type PostTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

// GetAccountsRequest ID 為空時列出全部帳戶
type GetAccountsRequest struct {
	ID string `json:"id,omitempty"`
}

type GetAccountsResponse struct {
	Accounts []Account `json:"accounts"`
}

type GetTransactionRequest struct {
	ID string `json:"id"`
}

type GetTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

func toAccount(a *domain.Account) Account {
	return Account{
		ID:        a.ID,
		Name:      a.Name,
		Direction: a.Direction.String(),
		Balance:   a.Balance,
	}
}

func toTransaction(t *domain.Transaction) Transaction {
	entries := make([]Entry, 0, len(t.Entries))
	for _, e := range t.Entries {
		entries = append(entries, Entry{
			ID:        e.ID,
			Direction: e.Direction.String(),
			Amount:    e.Amount,
			AccountID: e.AccountID,
		})
	}
	return Transaction{
		ID:       t.ID,
		Name:     t.Name,
		Entries:  entries,
		PostedAt: t.PostedAt,
	}
}

func toDomainEntries(entries []Entry) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.Entry{
			ID:        e.ID,
			Direction: domain.Direction(e.Direction),
			Amount:    e.Amount,
			AccountID: e.AccountID,
		})
	}
	return out
}
