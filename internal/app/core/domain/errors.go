package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnbalanced 借貸不平衡
	ErrUnbalanced = errors.New("transaction not balanced")

	// ErrMissingDirection 交易缺少借方或貸方
	ErrMissingDirection = errors.New("transaction must include at least one debit and one credit entry")

	// ErrDuplicateDirectionForAccount 同一帳戶在同一筆交易中出現兩次相同方向
	ErrDuplicateDirectionForAccount = errors.New("account has multiple entries with the same direction")

	// ErrAmountMustBePositive 金額必須為正數
	ErrAmountMustBePositive = errors.New("amount must be positive")

	// ErrAmountScale 金額小數位數超過 AmountScale
	ErrAmountScale = errors.New("amount has too many decimal places")
	// ErrInvalidDirection 方向必須是 debit 或 credit
	ErrInvalidDirection = errors.New("direction must be debit or credit")

	// ErrInsufficientBalance 餘額不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound 找不到交易
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAccountAlreadyExists 帳戶已存在
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrTransactionAlreadyExists 交易已存在
	ErrTransactionAlreadyExists = errors.New("transaction already exists")

	// ErrEntryAlreadyExists 分錄已存在
	ErrEntryAlreadyExists = errors.New("entry already exists")

	// ErrStoreFailure Ledger Store 無法提交
	ErrStoreFailure = errors.New("ledger store failure")

	// ErrConcurrentUpdate 樂觀鎖衝突，帳戶已被其他交易修改
	ErrConcurrentUpdate = errors.New("account modified by a concurrent posting")

	// ErrWALWriteFailed 寫入 WAL 失敗
	ErrWALWriteFailed = errors.New("wal write failed")
)

// Kind 錯誤分類，由傳輸層自行對應 HTTP / gRPC 狀態碼
type Kind uint8

const (
	KindUnknown Kind = iota
	// 請求內容不合法，修正後重送
	KindValidation
	// 參照的資源不存在
	KindNotFound
	// ID 重複
	KindConflict
	// 儲存層失敗，可重試
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

type classification struct {
	kind   Kind
	reason string
}

// 順序重要：ErrStoreFailure 包裝其他錯誤時以 StoreFailure 為準
var classifications = []struct {
	err error
	classification
}{
	{ErrStoreFailure, classification{KindInternal, "STORE_FAILURE"}},
	{ErrUnbalanced, classification{KindValidation, "UNBALANCED"}},
	{ErrMissingDirection, classification{KindValidation, "MISSING_DIRECTION"}},
	{ErrDuplicateDirectionForAccount, classification{KindValidation, "DUPLICATE_DIRECTION_FOR_ACCOUNT"}},
	{ErrAmountMustBePositive, classification{KindValidation, "AMOUNT_MUST_BE_POSITIVE"}},
	{ErrAmountScale, classification{KindValidation, "AMOUNT_SCALE_EXCEEDED"}},
	{ErrInvalidDirection, classification{KindValidation, "INVALID_DIRECTION"}},
	{ErrInsufficientBalance, classification{KindValidation, "INSUFFICIENT_BALANCE"}},
	{ErrAccountNotFound, classification{KindNotFound, "ACCOUNT_NOT_FOUND"}},
	{ErrTransactionNotFound, classification{KindNotFound, "TRANSACTION_NOT_FOUND"}},
	{ErrAccountAlreadyExists, classification{KindConflict, "ACCOUNT_ALREADY_EXISTS"}},
	{ErrTransactionAlreadyExists, classification{KindConflict, "TRANSACTION_ALREADY_EXISTS"}},
	{ErrEntryAlreadyExists, classification{KindConflict, "ENTRY_ALREADY_EXISTS"}},
}

func classify(err error) (classification, bool) {
	for _, c := range classifications {
		if errors.Is(err, c.err) {
			return c.classification, true
		}
	}
	return classification{}, false
}

// KindOf 取得錯誤分類；非領域錯誤一律視為 KindInternal
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if c, ok := classify(err); ok {
		return c.kind
	}
	return KindInternal
}

// Reason 取得穩定的錯誤代碼 (給 API 回應使用)
func Reason(err error) string {
	if c, ok := classify(err); ok {
		return c.reason
	}
	return "INTERNAL"
}

// IsDomainError 是否為已分類的領域錯誤
func IsDomainError(err error) bool {
	_, ok := classify(err)
	return ok
}

// AccountError 帶有出錯帳號的錯誤
type AccountError struct {
	AccountID string
	Err       error
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("account %s: %v", e.AccountID, e.Err)
}

func (e *AccountError) Unwrap() error {
	return e.Err
}

// NewAccountError 包裝錯誤並附上帳號
func NewAccountError(accountID string, err error) error {
	return &AccountError{AccountID: accountID, Err: err}
}

// AccountIDOf 取出錯誤中帶的帳號 (若有)
func AccountIDOf(err error) (string, bool) {
	var accErr *AccountError
	if errors.As(err, &accErr) {
		return accErr.AccountID, true
	}
	return "", false
}

// StoreFailure 將儲存層錯誤包成 ErrStoreFailure；已分類的領域錯誤原樣回傳
func StoreFailure(err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}
