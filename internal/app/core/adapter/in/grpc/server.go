package grpc

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/usecase"
)

// GrpcServer 是 LedgerService 的 driving adapter
type GrpcServer struct {
	core *usecase.CoreUseCase
}

func NewGrpcServer(core *usecase.CoreUseCase) *GrpcServer {
	return &GrpcServer{
		core: core,
	}
}

// NewServer 建立 gRPC server：掛上 log / recovery 攔截器，註冊 LedgerService、health 與 reflection 服務
//
// 參數:
//
//	core: 業務邏輯層
//	logger: 請求 log
//	opts: 額外的 grpc.ServerOption
//
// 回傳:
//
//	*grpc.Server: 尚未 Serve 的 server
//	*health.Server: 供關機時切換為 NOT_SERVING
func NewServer(core *usecase.CoreUseCase, logger *zap.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(RecoveryInterceptor(logger), LoggingInterceptor(logger)),
	}, opts...)
	s := grpc.NewServer(opts...)

	RegisterLedgerServiceServer(s, NewGrpcServer(core))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)

	reflection.Register(s) // 方便 grpcurl list 查看服務
	return s, healthServer
}

func (s *GrpcServer) OpenAccount(ctx context.Context, req *OpenAccountRequest) (*OpenAccountResponse, error) {
	if req.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	account, err := s.core.OpenAccount(ctx, usecase.OpenAccountRequest{
		ID:        req.ID,
		Name:      req.Name,
		Direction: domain.Direction(req.Direction),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &OpenAccountResponse{Account: toAccount(account)}, nil
}

func (s *GrpcServer) PostTransaction(ctx context.Context, req *PostTransactionRequest) (*PostTransactionResponse, error) {
	if req.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	tran, err := s.core.PostTransaction(ctx, usecase.PostTransactionRequest{
		ID:      req.ID,
		Name:    req.Name,
		Entries: toDomainEntries(req.Entries),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &PostTransactionResponse{Transaction: toTransaction(tran)}, nil
}

func (s *GrpcServer) GetAccounts(ctx context.Context, req *GetAccountsRequest) (*GetAccountsResponse, error) {
	accounts, err := s.core.GetAccounts(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]Account, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, toAccount(acc))
	}
	return &GetAccountsResponse{Accounts: out}, nil
}

func (s *GrpcServer) GetTransaction(ctx context.Context, req *GetTransactionRequest) (*GetTransactionResponse, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	tran, err := s.core.GetTransaction(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetTransactionResponse{Transaction: toTransaction(tran)}, nil
}

var _ LedgerServiceServer = (*GrpcServer)(nil)
