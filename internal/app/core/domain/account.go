package domain

import "github.com/shopspring/decimal"

// Account 帳戶
//
// Direction 在建立後不可變更；Balance 只會在過帳 (posting) 時由 TransactionPoster 修改。
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Direction Direction       `json:"direction"`
	Balance   decimal.Decimal `json:"balance"`
	// Version 樂觀鎖版本號，每次餘額被覆寫 +1
	Version int64 `json:"-"`
}

// NewAccount 建立餘額為 0 的帳戶
func NewAccount(id, name string, direction Direction) *Account {
	return &Account{
		ID:        id,
		Name:      name,
		Direction: direction,
		Balance:   decimal.Zero,
	}
}

// Clone 回傳值拷貝，避免呼叫端改到 store 內部狀態
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}

// Apply 將一筆分錄套用到帳戶餘額
//
// 方向與帳戶正常方向相同 -> 增加；相反 (contra-posting) -> 減少，
// 減少前先以「套用前」的餘額檢查是否足夠。
func (a *Account) Apply(direction Direction, amount decimal.Decimal) error {
	if !direction.IsValid() {
		return ErrInvalidDirection
	}
	if direction == a.Direction {
		return a.increase(amount)
	}
	return a.decrease(amount)
}

// increase 增加餘額
func (a *Account) increase(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}

	a.Balance = a.Balance.Add(amount)
	return nil
}

// decrease 減少餘額
func (a *Account) decrease(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}

	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}

	a.Balance = a.Balance.Sub(amount)
	return nil
}
