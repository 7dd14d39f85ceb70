package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
)

// PostTransactionRequest 過帳請求，ID 可不帶 (由系統產生)
type PostTransactionRequest struct {
	ID      string
	Name    string
	Entries []domain.Entry
}

// TransactionPoster 過帳引擎
type TransactionPoster struct {
	store  LedgerStore
	logger *zap.Logger
	newID  func() string
	now    func() time.Time
}

// PosterOption 設定 TransactionPoster
type PosterOption func(*TransactionPoster)

// WithIDGenerator 替換交易 ID 產生器
func WithIDGenerator(fn func() string) PosterOption {
	return func(p *TransactionPoster) {
		p.newID = fn
	}
}

// WithClock 替換時間來源
func WithClock(fn func() time.Time) PosterOption {
	return func(p *TransactionPoster) {
		p.now = fn
	}
}

func NewTransactionPoster(store LedgerStore, logger *zap.Logger, opts ...PosterOption) *TransactionPoster {
	p := &TransactionPoster{
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Post 驗證並過帳一筆交易
//
// 參數:
//
//	ctx: 上下文
//	req: 過帳請求
//
// 回傳:
//
//	*domain.Transaction: 已過帳的交易 (含最終 ID)
//	error: 驗證失敗或儲存層錯誤；回傳錯誤時帳本沒有任何變動
func (p *TransactionPoster) Post(ctx context.Context, req PostTransactionRequest) (*domain.Transaction, error) {
	// 1. 純記憶體驗證，失敗不碰 store
	if err := domain.ValidateEntries(req.Entries); err != nil {
		p.logger.Debug("posting rejected", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = p.newID()
	}
	entries := make([]domain.Entry, len(req.Entries))
	copy(entries, req.Entries)

	var (
		posted   *domain.Transaction
		replayed bool
	)
	err := p.store.Atomic(ctx, func(ctx context.Context, tx LedgerTx) error {
		// 2. 冪等：相同 ID、相同內容已過帳則直接回傳原交易；內容不同視為 ID 衝突
		existing, err := tx.FindTransactionByID(ctx, id)
		if err == nil {
			if !existing.Matches(req.Name, entries) {
				return domain.ErrTransactionAlreadyExists
			}
			posted, replayed = existing, true
			return nil
		}
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return err
		}

		// 3. 取得帳戶並依序套用分錄
		accounts, err := tx.FindAccountsByIDs(ctx, domain.AccountIDs(entries))
		if err != nil {
			return err
		}
		touched, err := applyEntries(accounts, entries)
		if err != nil {
			return err
		}

		// 4. 寫入：交易、餘額、分錄
		tran := &domain.Transaction{
			ID:       id,
			Name:     req.Name,
			PostedAt: p.now().UTC(),
		}
		if err := tx.CreateTransaction(ctx, tran); err != nil {
			return err
		}
		if err := tx.ReplaceAccountBalances(ctx, touched); err != nil {
			return err
		}
		stored, err := tx.CreateEntries(ctx, id, entries)
		if err != nil {
			return err
		}
		tran.Entries = stored
		posted = tran
		return nil
	})
	if errors.Is(err, domain.ErrTransactionAlreadyExists) {
		// 同 ID 併發重送時，輸掉寫入的一方會撞到重複鍵：重讀並比對內容
		if existing, findErr := p.store.FindTransactionByID(ctx, id); findErr == nil && existing.Matches(req.Name, entries) {
			posted, replayed, err = existing, true, nil
		}
	}
	if err != nil {
		err = domain.StoreFailure(err)
		if domain.KindOf(err) == domain.KindInternal {
			p.logger.Error("posting failed", zap.String("transaction_id", id), zap.Error(err))
		} else {
			p.logger.Debug("posting rejected", zap.String("transaction_id", id), zap.Error(err))
		}
		return nil, err
	}

	if replayed {
		p.logger.Info("posting replayed", zap.String("transaction_id", id))
	} else {
		p.logger.Info("posting committed", zap.String("transaction_id", id), zap.Int("entries", len(posted.Entries)))
	}
	return posted, nil
}

// applyEntries 在帳戶快照上依分錄順序套用金額
//
// 同一帳戶被多筆分錄碰到時累積效果，只回傳一次。
// 餘額不足是以「該筆分錄套用前」的餘額判斷，所以分錄順序會影響結果：
// 先貸後借同一個借方帳戶，若貸方那筆先扣到負數就會失敗，即使最終淨額為正。
func applyEntries(accounts []*domain.Account, entries []domain.Entry) ([]*domain.Account, error) {
	resolved := make(map[string]*domain.Account, len(accounts))
	for _, acc := range accounts {
		resolved[acc.ID] = acc
	}
	for _, id := range domain.AccountIDs(entries) {
		if _, ok := resolved[id]; !ok {
			return nil, domain.NewAccountError(id, domain.ErrAccountNotFound)
		}
	}

	working := make(map[string]*domain.Account, len(resolved))
	touched := make([]*domain.Account, 0, len(resolved))
	for _, e := range entries {
		acc, ok := working[e.AccountID]
		if !ok {
			acc = resolved[e.AccountID].Clone()
			working[e.AccountID] = acc
			touched = append(touched, acc)
		}
		if err := acc.Apply(e.Direction, e.Amount); err != nil {
			return nil, domain.NewAccountError(acc.ID, err)
		}
	}
	return touched, nil
}
