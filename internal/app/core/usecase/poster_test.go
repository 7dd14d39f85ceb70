package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/usecase"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(dir domain.Direction, amount, accountID string) domain.Entry {
	return domain.Entry{Direction: dir, Amount: dec(amount), AccountID: accountID}
}

// ledgerFixture 帳戶: A (debit), B (credit), C (debit), equity (credit)
type ledgerFixture struct {
	store *memory.MutexStore
	core  *usecase.CoreUseCase
}

func newFixture(t *testing.T, opts ...usecase.PosterOption) *ledgerFixture {
	t.Helper()
	store, err := memory.NewMutexStore(nil)
	require.NoError(t, err)
	f := &ledgerFixture{store: store, core: usecase.NewCoreUseCase(store, zap.NewNop(), opts...)}

	for _, req := range []usecase.OpenAccountRequest{
		{ID: "A", Name: "Cash", Direction: domain.DirectionDebit},
		{ID: "B", Name: "Revenue", Direction: domain.DirectionCredit},
		{ID: "C", Name: "Expense", Direction: domain.DirectionDebit},
		{ID: "equity", Name: "Equity", Direction: domain.DirectionCredit},
	} {
		_, err := f.core.OpenAccount(context.Background(), req)
		require.NoError(t, err)
	}
	return f
}

// fund 從 equity 撥款到借方帳戶
func (f *ledgerFixture) fund(t *testing.T, accountID, amount string) {
	t.Helper()
	_, err := f.core.PostTransaction(context.Background(), usecase.PostTransactionRequest{
		Name: "funding",
		Entries: []domain.Entry{
			entry(domain.DirectionDebit, amount, accountID),
			entry(domain.DirectionCredit, amount, "equity"),
		},
	})
	require.NoError(t, err)
}

func (f *ledgerFixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	acc, err := f.store.FindAccountByID(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance
}

func (f *ledgerFixture) snapshot(t *testing.T) []*domain.Account {
	t.Helper()
	accounts, err := f.core.GetAccounts(context.Background(), "")
	require.NoError(t, err)
	return accounts
}

func TestPostCommitsBalances(t *testing.T) {
	postedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("UTC+8", 8*3600))
	f := newFixture(t,
		usecase.WithIDGenerator(func() string { return "generated" }),
		usecase.WithClock(func() time.Time { return postedAt }),
	)
	f.fund(t, "A", "100")

	tran, err := f.core.PostTransaction(context.Background(), usecase.PostTransactionRequest{
		Name: "sale",
		Entries: []domain.Entry{
			entry(domain.DirectionDebit, "50", "A"),
			entry(domain.DirectionCredit, "50", "B"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "generated", tran.ID)
	assert.Equal(t, "sale", tran.Name)
	assert.Equal(t, time.UTC, tran.PostedAt.Location())
	assert.True(t, postedAt.Equal(tran.PostedAt))
	require.Len(t, tran.Entries, 2)
	assert.NotEmpty(t, tran.Entries[0].ID)

	assert.True(t, dec("150").Equal(f.balance(t, "A")))
	assert.True(t, dec("50").Equal(f.balance(t, "B")))

	stored, err := f.core.GetTransaction(context.Background(), "generated")
	require.NoError(t, err)
	debit, credit := domain.SumEntries(stored.Entries)
	assert.True(t, debit.Equal(credit))
	assert.Equal(t, tran.Entries, stored.Entries)
}

func TestPostValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		entries   []domain.Entry
		wantErr   error
		accountID string
	}{
		{
			name:    "unbalanced",
			entries: []domain.Entry{entry(domain.DirectionDebit, "50", "A"), entry(domain.DirectionCredit, "30", "B")},
			wantErr: domain.ErrUnbalanced,
		},
		{
			name:    "missing credit",
			entries: []domain.Entry{entry(domain.DirectionDebit, "50", "A"), entry(domain.DirectionDebit, "50", "B")},
			wantErr: domain.ErrMissingDirection,
		},
		{
			name:    "empty",
			entries: nil,
			wantErr: domain.ErrMissingDirection,
		},
		{
			name: "duplicate direction",
			entries: []domain.Entry{
				entry(domain.DirectionDebit, "30", "A"),
				entry(domain.DirectionDebit, "20", "A"),
				entry(domain.DirectionCredit, "50", "B"),
			},
			wantErr:   domain.ErrDuplicateDirectionForAccount,
			accountID: "A",
		},
		{
			name:    "zero amount",
			entries: []domain.Entry{entry(domain.DirectionDebit, "0", "A"), entry(domain.DirectionCredit, "0", "B")},
			wantErr: domain.ErrAmountMustBePositive,
		},
		{
			name:    "five decimal places",
			entries: []domain.Entry{entry(domain.DirectionDebit, "0.00001", "A"), entry(domain.DirectionCredit, "0.00001", "B")},
			wantErr: domain.ErrAmountScale,
		},
		{
			name:    "bad direction",
			entries: []domain.Entry{{Direction: "up", Amount: dec("1"), AccountID: "A"}},
			wantErr: domain.ErrInvalidDirection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &countingStore{}
			poster := usecase.NewTransactionPoster(store, zap.NewNop())

			_, err := poster.Post(context.Background(), usecase.PostTransactionRequest{Name: "x", Entries: tt.entries})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			if tt.accountID != "" {
				id, ok := domain.AccountIDOf(err)
				require.True(t, ok)
				assert.Equal(t, tt.accountID, id)
			}
			// 驗證失敗不得碰到 store
			assert.Zero(t, store.calls)
		})
	}
}

func TestPostInsufficientBalanceLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "A", "30")
	before := f.snapshot(t)

	_, err := f.core.PostTransaction(context.Background(), usecase.PostTransactionRequest{
		ID:   "t-over",
		Name: "overdraw",
		Entries: []domain.Entry{
			entry(domain.DirectionCredit, "50", "A"),
			entry(domain.DirectionDebit, "50", "C"),
		},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	id, ok := domain.AccountIDOf(err)
	require.True(t, ok)
	assert.Equal(t, "A", id)

	assert.Equal(t, before, f.snapshot(t))
	_, err = f.core.GetTransaction(context.Background(), "t-over")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestPostUnknownAccount(t *testing.T) {
	f := newFixture(t)
	before := f.snapshot(t)

	_, err := f.core.PostTransaction(context.Background(), usecase.PostTransactionRequest{
		ID:   "t-ghost",
		Name: "ghost",
		Entries: []domain.Entry{
			entry(domain.DirectionDebit, "5", "A"),
			entry(domain.DirectionCredit, "5", "ghost"),
		},
	})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	id, _ := domain.AccountIDOf(err)
	assert.Equal(t, "ghost", id)

	assert.Equal(t, before, f.snapshot(t))
	_, err = f.core.GetTransaction(context.Background(), "t-ghost")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

// 餘額檢查依分錄順序逐筆進行，淨額為正也可能失敗
func TestPostOverdraftIsOrderSensitive(t *testing.T) {
	f := newFixture(t)

	_, err := f.core.PostTransaction(context.Background(), usecase.PostTransactionRequest{
		Name: "credit first",
		Entries: []domain.Entry{
			entry(domain.DirectionCredit, "10", "A"),
			entry(domain.DirectionDebit, "10", "A"),
		},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = f.core.PostTransaction(context.Background(), usecase.PostTransactionRequest{
		Name: "debit first",
		Entries: []domain.Entry{
			entry(domain.DirectionDebit, "10", "A"),
			entry(domain.DirectionCredit, "10", "A"),
		},
	})
	require.NoError(t, err)
	assert.True(t, f.balance(t, "A").IsZero())
}

func TestPostDecimalPrecision(t *testing.T) {
	f := newFixture(t)
	for _, amount := range []string{"0.1", "0.2"} {
		_, err := f.core.PostTransaction(context.Background(), usecase.PostTransactionRequest{
			Name: "cents",
			Entries: []domain.Entry{
				entry(domain.DirectionDebit, amount, "A"),
				entry(domain.DirectionCredit, amount, "B"),
			},
		})
		require.NoError(t, err)
	}
	assert.Equal(t, "0.3", f.balance(t, "A").String())
	assert.Equal(t, "0.3", f.balance(t, "B").String())
}

func TestPostIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	req := usecase.PostTransactionRequest{
		ID:   "t-1",
		Name: "sale",
		Entries: []domain.Entry{
			entry(domain.DirectionDebit, "20", "A"),
			entry(domain.DirectionCredit, "20", "B"),
		},
	}

	first, err := f.core.PostTransaction(context.Background(), req)
	require.NoError(t, err)
	second, err := f.core.PostTransaction(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	assert.True(t, dec("20").Equal(f.balance(t, "A")))
	assert.True(t, dec("20").Equal(f.balance(t, "B")))
}

func TestPostReplayWithDifferentPayloadConflicts(t *testing.T) {
	f := newFixture(t)
	req := usecase.PostTransactionRequest{
		ID:   "t-1",
		Name: "sale",
		Entries: []domain.Entry{
			entry(domain.DirectionDebit, "20", "A"),
			entry(domain.DirectionCredit, "20", "B"),
		},
	}
	_, err := f.core.PostTransaction(context.Background(), req)
	require.NoError(t, err)

	req.Entries = []domain.Entry{
		entry(domain.DirectionDebit, "35", "A"),
		entry(domain.DirectionCredit, "35", "B"),
	}
	_, err = f.core.PostTransaction(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrTransactionAlreadyExists)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.True(t, dec("20").Equal(f.balance(t, "A")))

	req.Name = "other"
	req.Entries[0].Amount, req.Entries[1].Amount = dec("20"), dec("20")
	_, err = f.core.PostTransaction(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrTransactionAlreadyExists)
}

func TestPostReplayAfterLosingInsertRace(t *testing.T) {
	store, err := memory.NewMutexStore(nil)
	require.NoError(t, err)
	// 交易內讀不到既有交易，模擬兩個同 ID 請求同時通過冪等檢查
	stale := &staleReadStore{MutexStore: store}
	core := usecase.NewCoreUseCase(stale, zap.NewNop())
	ctx := context.Background()
	for _, req := range []usecase.OpenAccountRequest{
		{ID: "A", Name: "Cash", Direction: domain.DirectionDebit},
		{ID: "B", Name: "Revenue", Direction: domain.DirectionCredit},
	} {
		_, err := core.OpenAccount(ctx, req)
		require.NoError(t, err)
	}

	req := usecase.PostTransactionRequest{
		ID:      "t-1",
		Name:    "sale",
		Entries: []domain.Entry{entry(domain.DirectionDebit, "20", "A"), entry(domain.DirectionCredit, "20", "B")},
	}
	first, err := core.PostTransaction(ctx, req)
	require.NoError(t, err)
	second, err := core.PostTransaction(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.Entries, second.Entries)

	acc, err := store.FindAccountByID(ctx, "A")
	require.NoError(t, err)
	assert.True(t, dec("20").Equal(acc.Balance))

	req.Name = "other"
	_, err = core.PostTransaction(ctx, req)
	assert.ErrorIs(t, err, domain.ErrTransactionAlreadyExists)
}

func TestConcurrentPostingsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "A", "100")

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.core.PostTransaction(context.Background(), usecase.PostTransactionRequest{
				Name: "spend",
				Entries: []domain.Entry{
					entry(domain.DirectionCredit, "30", "A"),
					entry(domain.DirectionDebit, "30", "C"),
				},
			})
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.True(t, dec("10").Equal(f.balance(t, "A")))
	assert.True(t, dec("90").Equal(f.balance(t, "C")))
}

func TestSequencerStoreSerializesPostings(t *testing.T) {
	store, err := memory.NewSequencerStore(nil, 8)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	store.Start(ctx)
	defer func() {
		cancel()
		<-store.Done()
	}()

	core := usecase.NewCoreUseCase(store, zap.NewNop())
	for _, req := range []usecase.OpenAccountRequest{
		{ID: "A", Name: "Cash", Direction: domain.DirectionDebit},
		{ID: "equity", Name: "Equity", Direction: domain.DirectionCredit},
		{ID: "C", Name: "Expense", Direction: domain.DirectionDebit},
	} {
		_, err := core.OpenAccount(context.Background(), req)
		require.NoError(t, err)
	}
	_, err = core.PostTransaction(context.Background(), usecase.PostTransactionRequest{
		Name:    "funding",
		Entries: []domain.Entry{entry(domain.DirectionDebit, "50", "A"), entry(domain.DirectionCredit, "50", "equity")},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = core.PostTransaction(context.Background(), usecase.PostTransactionRequest{
				Name:    "spend",
				Entries: []domain.Entry{entry(domain.DirectionCredit, "20", "A"), entry(domain.DirectionDebit, "20", "C")},
			})
		}()
	}
	wg.Wait()

	accounts, err := core.GetAccounts(context.Background(), "A")
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(accounts[0].Balance))
}

func TestPostWrapsStoreFailure(t *testing.T) {
	f := newFixture(t)
	diskFull := errors.New("disk full")
	poster := usecase.NewTransactionPoster(&failingEntriesStore{MutexStore: f.store, err: diskFull}, zap.NewNop())

	_, err := poster.Post(context.Background(), usecase.PostTransactionRequest{
		ID:      "t-fail",
		Name:    "sale",
		Entries: []domain.Entry{entry(domain.DirectionDebit, "5", "A"), entry(domain.DirectionCredit, "5", "B")},
	})
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.Equal(t, "STORE_FAILURE", domain.Reason(err))

	// 寫到一半失敗，整筆 rollback
	assert.True(t, f.balance(t, "A").IsZero())
	_, err = f.core.GetTransaction(context.Background(), "t-fail")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestPostCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.core.PostTransaction(ctx, usecase.PostTransactionRequest{
		Name:    "sale",
		Entries: []domain.Entry{entry(domain.DirectionDebit, "5", "A"), entry(domain.DirectionCredit, "5", "B")},
	})
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, f.balance(t, "A").IsZero())
}

// countingStore 記錄是否被呼叫
type countingStore struct {
	calls int
}

func (s *countingStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx usecase.LedgerTx) error) error {
	s.calls++
	return errors.New("unexpected call")
}

func (s *countingStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	s.calls++
	return errors.New("unexpected call")
}

func (s *countingStore) FindAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	s.calls++
	return nil, errors.New("unexpected call")
}

func (s *countingStore) FindAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	s.calls++
	return nil, errors.New("unexpected call")
}

func (s *countingStore) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	s.calls++
	return nil, errors.New("unexpected call")
}

// failingEntriesStore 在寫入分錄時失敗
type failingEntriesStore struct {
	*memory.MutexStore
	err error
}

func (s *failingEntriesStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx usecase.LedgerTx) error) error {
	return s.MutexStore.Atomic(ctx, func(ctx context.Context, tx usecase.LedgerTx) error {
		return fn(ctx, &failingEntriesTx{LedgerTx: tx, err: s.err})
	})
}

type failingEntriesTx struct {
	usecase.LedgerTx
	err error
}

func (t *failingEntriesTx) CreateEntries(ctx context.Context, transactionID string, entries []domain.Entry) ([]domain.Entry, error) {
	return nil, t.err
}

// staleReadStore 的交易內 FindTransactionByID 一律回傳找不到
type staleReadStore struct {
	*memory.MutexStore
}

func (s *staleReadStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx usecase.LedgerTx) error) error {
	return s.MutexStore.Atomic(ctx, func(ctx context.Context, tx usecase.LedgerTx) error {
		return fn(ctx, &staleReadTx{LedgerTx: tx})
	})
}

type staleReadTx struct {
	usecase.LedgerTx
}

func (t *staleReadTx) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return nil, domain.ErrTransactionNotFound
}
