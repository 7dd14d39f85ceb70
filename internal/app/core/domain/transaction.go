package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Entry 分錄，交易的一條腿 (leg)
// 建立後不可變，只屬於一筆 Transaction
type Entry struct {
	ID        string          `json:"id"`
	Direction Direction       `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	AccountID string          `json:"account_id"`
}

// Transaction 交易
// 過帳後不可變；Entries 的順序即為套用順序
type Transaction struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Entries  []Entry   `json:"entries"`
	PostedAt time.Time `json:"posted_at"`
}

// SumEntries 分別加總借方與貸方金額
func SumEntries(entries []Entry) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Direction {
		case DirectionDebit:
			debit = debit.Add(e.Amount)
		case DirectionCredit:
			credit = credit.Add(e.Amount)
		}
	}
	return debit, credit
}

// AccountIDs 回傳交易涉及的帳號 ID (去重、排序)
// 排序後的順序同時也是加鎖順序，避免死鎖
func AccountIDs(entries []Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.AccountID]; ok {
			continue
		}
		seen[e.AccountID] = struct{}{}
		ids = append(ids, e.AccountID)
	}
	sort.Strings(ids)
	return ids
}

// Matches 判斷重送的請求是否與已過帳的交易相同
// 名稱、分錄數量、每筆分錄的方向、金額與帳戶都要一致；請求沒帶分錄 ID 時不比對 ID
func (t *Transaction) Matches(name string, entries []Entry) bool {
	if t.Name != name || len(t.Entries) != len(entries) {
		return false
	}
	for i, e := range entries {
		stored := t.Entries[i]
		if e.ID != "" && e.ID != stored.ID {
			return false
		}
		if e.Direction != stored.Direction || e.AccountID != stored.AccountID || !e.Amount.Equal(stored.Amount) {
			return false
		}
	}
	return true
}
