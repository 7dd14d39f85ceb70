package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-double-entry-ledger/pkg/wal"
)

// WAL 紀錄種類
const (
	recordKindAccount = "account"
	recordKindPosting = "posting"
)

// walRecord 一次 commit 對應一筆 WAL 紀錄
// posting 紀錄寫的是套用後的絕對餘額，重播時不需要重新驗證
type walRecord struct {
	Kind        string              `json:"kind"`
	Account     *domain.Account     `json:"account,omitempty"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
	Balances    []balanceRecord     `json:"balances,omitempty"`
}

type balanceRecord struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
}

// state 兩種記憶體 store 共用的已提交狀態
//
// 結構:
//
//	accounts: 帳戶資料 Map
//	accountOrder: 帳戶建立順序 (列表用)
//	transactions: 已過帳交易 (含分錄)
//	entryIDs: 所有分錄 ID
//	wal: Write-Ahead Log 實例，可為 nil (純記憶體)
type state struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	accountOrder []string
	transactions map[string]*domain.Transaction
	entryIDs     map[string]struct{}
	wal          *wal.WAL
}

// newState 建立狀態並從 WAL 恢復
func newState(w *wal.WAL) (*state, error) {
	s := &state{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
		entryIDs:     make(map[string]struct{}),
		wal:          w,
	}
	if err := s.recoverFromWAL(); err != nil {
		return nil, err
	}
	return s, nil
}

// recoverFromWAL 從 WAL 檔案恢復帳本狀態
// 只有建構時呼叫，無需 Lock (單執行緒)
func (s *state) recoverFromWAL() error {
	if s.wal == nil {
		return nil
	}
	return s.wal.ReadAll(func(jsonRaw []byte) error {
		var rec walRecord
		if err := json.Unmarshal(jsonRaw, &rec); err != nil {
			return fmt.Errorf("decode wal record: %w", err)
		}
		return s.applyRecord(&rec)
	})
}

// applyRecord 將一筆紀錄套用到記憶體 (不寫入 WAL)
func (s *state) applyRecord(rec *walRecord) error {
	switch rec.Kind {
	case recordKindAccount:
		if rec.Account == nil {
			return fmt.Errorf("wal account record without account")
		}
		acc := rec.Account.Clone()
		s.accounts[acc.ID] = acc
		s.accountOrder = append(s.accountOrder, acc.ID)
	case recordKindPosting:
		if rec.Transaction != nil {
			tran := cloneTransaction(rec.Transaction)
			s.transactions[tran.ID] = tran
			for _, e := range tran.Entries {
				s.entryIDs[e.ID] = struct{}{}
			}
		}
		for _, b := range rec.Balances {
			acc, ok := s.accounts[b.AccountID]
			if !ok {
				return fmt.Errorf("wal balance for unknown account %s", b.AccountID)
			}
			next := acc.Clone()
			next.Balance = b.Balance
			next.Version = b.Version
			s.accounts[b.AccountID] = next
		}
	default:
		return fmt.Errorf("unknown wal record kind %q", rec.Kind)
	}
	return nil
}

// appendWAL 寫入並刷入硬碟，必須持有寫鎖
func (s *state) appendWAL(rec *walRecord) error {
	if s.wal == nil {
		return nil
	}
	if err := s.wal.Write(rec); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWALWriteFailed, err)
	}
	return nil
}

// CreateAccount 新增帳戶
func (s *state) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; ok {
		return domain.ErrAccountAlreadyExists
	}

	rec := &walRecord{Kind: recordKindAccount, Account: account}
	if err := s.appendWAL(rec); err != nil {
		return err
	}
	return s.applyRecord(rec)
}

// FindAccountByID 查詢單一帳戶
func (s *state) FindAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return acc.Clone(), nil
}

// FindAllAccounts 依建立順序列出所有帳戶
func (s *state) FindAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Account, 0, len(s.accountOrder))
	for _, id := range s.accountOrder {
		out = append(out, s.accounts[id].Clone())
	}
	return out, nil
}

// FindTransactionByID 查詢已過帳交易
func (s *state) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tran, ok := s.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return cloneTransaction(tran), nil
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	cp := *t
	cp.Entries = make([]domain.Entry, len(t.Entries))
	copy(cp.Entries, t.Entries)
	return &cp
}
