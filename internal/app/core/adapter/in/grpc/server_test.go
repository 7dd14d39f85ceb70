package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/usecase"
)

func newTestConn(t *testing.T) *grpc.ClientConn {
	t.Helper()

	store, err := memory.NewMutexStore(nil)
	require.NoError(t, err)
	core := usecase.NewCoreUseCase(store, zap.NewNop())

	lis := bufconn.Listen(1 << 20)
	srv, _ := NewServer(core, zap.NewNop())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedgerServiceFlow(t *testing.T) {
	ctx := context.Background()
	client := NewLedgerServiceClient(newTestConn(t))

	bank, err := client.OpenAccount(ctx, &OpenAccountRequest{Name: "Bank", Direction: "debit"})
	require.NoError(t, err)
	assert.NotEmpty(t, bank.Account.ID)
	assert.True(t, bank.Account.Balance.IsZero())

	revenue, err := client.OpenAccount(ctx, &OpenAccountRequest{ID: "revenue", Name: "Revenue", Direction: "credit"})
	require.NoError(t, err)
	assert.Equal(t, "revenue", revenue.Account.ID)

	posted, err := client.PostTransaction(ctx, &PostTransactionRequest{
		ID:   "t1",
		Name: "sale",
		Entries: []Entry{
			{Direction: "debit", Amount: dec("150"), AccountID: bank.Account.ID},
			{Direction: "credit", Amount: dec("150"), AccountID: "revenue"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", posted.Transaction.ID)
	require.Len(t, posted.Transaction.Entries, 2)
	assert.NotEmpty(t, posted.Transaction.Entries[0].ID)
	assert.False(t, posted.Transaction.PostedAt.IsZero())

	accounts, err := client.GetAccounts(ctx, &GetAccountsRequest{})
	require.NoError(t, err)
	require.Len(t, accounts.Accounts, 2)
	assert.True(t, dec("150").Equal(accounts.Accounts[0].Balance))
	assert.True(t, dec("150").Equal(accounts.Accounts[1].Balance))

	single, err := client.GetAccounts(ctx, &GetAccountsRequest{ID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, single.Accounts)

	tran, err := client.GetTransaction(ctx, &GetTransactionRequest{ID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "sale", tran.Transaction.Name)
	assert.Equal(t, "revenue", tran.Transaction.Entries[1].AccountID)
}

func TestLedgerServiceErrors(t *testing.T) {
	ctx := context.Background()
	client := NewLedgerServiceClient(newTestConn(t))

	_, err := client.OpenAccount(ctx, &OpenAccountRequest{ID: "cash", Name: "Cash", Direction: "debit"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		call      func() error
		code      codes.Code
		reason    string
		accountID string
	}{
		{
			name: "invalid direction",
			call: func() error {
				_, err := client.OpenAccount(ctx, &OpenAccountRequest{Name: "x", Direction: "sideways"})
				return err
			},
			code:   codes.InvalidArgument,
			reason: "INVALID_DIRECTION",
		},
		{
			name: "duplicate account",
			call: func() error {
				_, err := client.OpenAccount(ctx, &OpenAccountRequest{ID: "cash", Name: "Cash", Direction: "debit"})
				return err
			},
			code:   codes.AlreadyExists,
			reason: "ACCOUNT_ALREADY_EXISTS",
		},
		{
			name: "unbalanced",
			call: func() error {
				_, err := client.PostTransaction(ctx, &PostTransactionRequest{Name: "x", Entries: []Entry{
					{Direction: "debit", Amount: dec("10"), AccountID: "cash"},
					{Direction: "credit", Amount: dec("5"), AccountID: "cash"},
				}})
				return err
			},
			code:   codes.InvalidArgument,
			reason: "UNBALANCED",
		},
		{
			name: "unknown account",
			call: func() error {
				_, err := client.PostTransaction(ctx, &PostTransactionRequest{Name: "x", Entries: []Entry{
					{Direction: "debit", Amount: dec("10"), AccountID: "cash"},
					{Direction: "credit", Amount: dec("10"), AccountID: "ghost"},
				}})
				return err
			},
			code:      codes.NotFound,
			reason:    "ACCOUNT_NOT_FOUND",
			accountID: "ghost",
		},
		{
			name: "transaction not found",
			call: func() error {
				_, err := client.GetTransaction(ctx, &GetTransactionRequest{ID: "nope"})
				return err
			},
			code:   codes.NotFound,
			reason: "TRANSACTION_NOT_FOUND",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))

			info, ok := ErrorInfoOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.reason, info.Reason)
			assert.Equal(t, ErrorDomain, info.Domain)
			if tt.accountID != "" {
				assert.Equal(t, tt.accountID, info.Metadata["account_id"])
			}
		})
	}
}

func TestLedgerServiceInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	client := NewLedgerServiceClient(newTestConn(t))

	for _, req := range []*OpenAccountRequest{
		{ID: "cash", Name: "Cash", Direction: "debit"},
		{ID: "expense", Name: "Expense", Direction: "debit"},
	} {
		_, err := client.OpenAccount(ctx, req)
		require.NoError(t, err)
	}

	_, err := client.PostTransaction(ctx, &PostTransactionRequest{Name: "spend", Entries: []Entry{
		{Direction: "debit", Amount: dec("10"), AccountID: "expense"},
		{Direction: "credit", Amount: dec("10"), AccountID: "cash"},
	}})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	info, ok := ErrorInfoOf(err)
	require.True(t, ok)
	assert.Equal(t, "INSUFFICIENT_BALANCE", info.Reason)
	assert.Equal(t, "cash", info.Metadata["account_id"])
}

func TestMissingNameRejected(t *testing.T) {
	client := NewLedgerServiceClient(newTestConn(t))
	_, err := client.PostTransaction(context.Background(), &PostTransactionRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealthService(t *testing.T) {
	resp, err := healthpb.NewHealthClient(newTestConn(t)).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestServerRegistersServices(t *testing.T) {
	srv, _ := NewServer(nil, zap.NewNop())
	defer srv.Stop()

	info := srv.GetServiceInfo()
	assert.Contains(t, info, ServiceName)
	assert.Contains(t, info, "grpc.health.v1.Health")
	assert.Contains(t, info, "grpc.reflection.v1.ServerReflection")
}
