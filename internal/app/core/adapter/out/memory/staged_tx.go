package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/usecase"
)

// stagedTx 暫存一次 Atomic 內的寫入，commit 前其他人看不到
// 讀取會先看暫存，再看已提交狀態
type stagedTx struct {
	st       *state
	tran     *domain.Transaction
	balances map[string]*domain.Account
	order    []string
}

func newStagedTx(st *state) *stagedTx {
	return &stagedTx{
		st:       st,
		balances: make(map[string]*domain.Account),
	}
}

// FindAccountsByIDs 回傳存在的帳戶快照
func (t *stagedTx) FindAccountsByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	t.st.mu.RLock()
	defer t.st.mu.RUnlock()

	out := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if acc, ok := t.balances[id]; ok {
			out = append(out, acc.Clone())
			continue
		}
		if acc, ok := t.st.accounts[id]; ok {
			out = append(out, acc.Clone())
		}
	}
	return out, nil
}

func (t *stagedTx) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if t.tran != nil && t.tran.ID == id {
		return cloneTransaction(t.tran), nil
	}
	return t.st.FindTransactionByID(ctx, id)
}

func (t *stagedTx) CreateTransaction(ctx context.Context, tran *domain.Transaction) error {
	if t.tran != nil {
		return domain.ErrTransactionAlreadyExists
	}

	t.st.mu.RLock()
	_, exists := t.st.transactions[tran.ID]
	t.st.mu.RUnlock()
	if exists {
		return domain.ErrTransactionAlreadyExists
	}

	t.tran = cloneTransaction(tran)
	return nil
}

// CreateEntries 分錄 ID 未帶時由 store 產生
func (t *stagedTx) CreateEntries(ctx context.Context, transactionID string, entries []domain.Entry) ([]domain.Entry, error) {
	if t.tran == nil || t.tran.ID != transactionID {
		return nil, domain.ErrTransactionNotFound
	}

	t.st.mu.RLock()
	defer t.st.mu.RUnlock()

	seen := make(map[string]struct{}, len(t.tran.Entries)+len(entries))
	for _, e := range t.tran.Entries {
		seen[e.ID] = struct{}{}
	}
	stored := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if _, ok := t.st.entryIDs[e.ID]; ok {
			return nil, domain.ErrEntryAlreadyExists
		}
		if _, ok := seen[e.ID]; ok {
			return nil, domain.ErrEntryAlreadyExists
		}
		seen[e.ID] = struct{}{}
		stored = append(stored, e)
	}

	t.tran.Entries = append(t.tran.Entries, stored...)
	out := make([]domain.Entry, len(stored))
	copy(out, stored)
	return out, nil
}

func (t *stagedTx) ReplaceAccountBalances(ctx context.Context, accounts []*domain.Account) error {
	t.st.mu.RLock()
	defer t.st.mu.RUnlock()

	for _, acc := range accounts {
		if _, ok := t.st.accounts[acc.ID]; !ok {
			return domain.NewAccountError(acc.ID, domain.ErrAccountNotFound)
		}
		if _, ok := t.balances[acc.ID]; !ok {
			t.order = append(t.order, acc.ID)
		}
		t.balances[acc.ID] = acc.Clone()
	}
	return nil
}

// commit 先寫 WAL 再改記憶體
// 呼叫端必須保證同一時間只有一個 stagedTx 在 commit (寫入序列化)
func (t *stagedTx) commit(ctx context.Context) error {
	if t.tran == nil && len(t.order) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.st.mu.Lock()
	defer t.st.mu.Unlock()

	rec := &walRecord{Kind: recordKindPosting}
	if t.tran != nil {
		if _, ok := t.st.transactions[t.tran.ID]; ok {
			return domain.ErrTransactionAlreadyExists
		}
		rec.Transaction = t.tran
	}
	for _, id := range t.order {
		current := t.st.accounts[id]
		rec.Balances = append(rec.Balances, balanceRecord{
			AccountID: id,
			Balance:   t.balances[id].Balance,
			Version:   current.Version + 1,
		})
	}

	if err := t.st.appendWAL(rec); err != nil {
		return err
	}
	return t.st.applyRecord(rec)
}

var _ usecase.LedgerTx = (*stagedTx)(nil)
