package domain

// Direction 借貸方向，也是帳戶的正常餘額方向 (normal balance side)
type Direction string

const (
	// 借方
	DirectionDebit Direction = "debit"
	// 貸方
	DirectionCredit Direction = "credit"
)

// IsValid 檢查方向是否合法
func (d Direction) IsValid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

func (d Direction) String() string {
	return string(d)
}
