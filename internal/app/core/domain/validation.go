package domain

// AmountScale 金額允許的最大小數位數，與資料庫欄位 decimal(20,4) 一致
const AmountScale = 4

// ValidateEntries 過帳前的純記憶體檢查，任何一項失敗都不會碰到 Ledger Store
//
// 檢查順序:
//
//	0. 每筆分錄方向合法、金額 > 0 且小數不超過 AmountScale 位
//	1. 至少一筆借方與一筆貸方 (ErrMissingDirection)
//	2. 借方合計 == 貸方合計 (ErrUnbalanced)
//	3. 同一帳戶不可出現兩次相同方向 (ErrDuplicateDirectionForAccount)
//
// 1 先於 2：全借方的交易要回報缺少方向，而不是不平衡。
func ValidateEntries(entries []Entry) error {
	for _, e := range entries {
		if !e.Direction.IsValid() {
			return ErrInvalidDirection
		}
		if !e.Amount.IsPositive() {
			return ErrAmountMustBePositive
		}
		// 1.50000 這種尾數為 0 的寫法仍然合法
		if !e.Amount.Equal(e.Amount.Truncate(AmountScale)) {
			return ErrAmountScale
		}
	}

	if err := validateParticipation(entries); err != nil {
		return err
	}
	if err := validateBalance(entries); err != nil {
		return err
	}
	return validateConsistency(entries)
}

func validateParticipation(entries []Entry) error {
	var hasDebit, hasCredit bool
	for _, e := range entries {
		switch e.Direction {
		case DirectionDebit:
			hasDebit = true
		case DirectionCredit:
			hasCredit = true
		}
	}
	if !hasDebit || !hasCredit {
		return ErrMissingDirection
	}
	return nil
}

func validateBalance(entries []Entry) error {
	debit, credit := SumEntries(entries)
	if !debit.Equal(credit) {
		return ErrUnbalanced
	}
	return nil
}

// validateConsistency 依帳戶分組，回報第一個 (依分錄順序) 重複方向的帳戶
func validateConsistency(entries []Entry) error {
	type key struct {
		accountID string
		direction Direction
	}
	seen := make(map[key]struct{}, len(entries))
	for _, e := range entries {
		k := key{e.AccountID, e.Direction}
		if _, ok := seen[k]; ok {
			return NewAccountError(e.AccountID, ErrDuplicateDirectionForAccount)
		}
		seen[k] = struct{}{}
	}
	return nil
}
