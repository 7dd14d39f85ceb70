package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// Client 通往帳本服務的單一 gRPC 連線
// 預設不加密、帶 keepalive，訊息一律走 JSON codec
type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

type clientOptions struct {
	interceptors []grpc.UnaryClientInterceptor
	dialOpts     []grpc.DialOption
}

// ClientOption 設定 Client
type ClientOption func(*clientOptions)

// WithInterceptor 加上 UnaryClientInterceptor (logging 等)
func WithInterceptor(interceptor grpc.UnaryClientInterceptor) ClientOption {
	return func(o *clientOptions) {
		o.interceptors = append(o.interceptors, interceptor)
	}
}

// WithDialOptions 附加額外的 DialOption，例如測試用的 bufconn dialer
func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(o *clientOptions) {
		o.dialOpts = append(o.dialOpts, opts...)
	}
}

// NewClient 建立連線
//
// 參數:
//
//	target: 伺服器地址 (e.g., "localhost:50051")
//	opts: 可選設定
//
// 回傳:
//
//	*Client: 連線是 lazy 的，第一次呼叫時才真正建立
//	error: 目標地址不合法
func NewClient(target string, opts ...ClientOption) (*Client, error) {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second, // 若無活動，每 10 秒發送一次 Ping
			Timeout:             time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
	if len(o.interceptors) > 0 {
		dialOpts = append(dialOpts, grpc.WithChainUnaryInterceptor(o.interceptors...))
	}
	dialOpts = append(dialOpts, o.dialOpts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for target %s: %w", target, err)
	}
	return &Client{
		conn:   conn,
		health: healthpb.NewHealthClient(conn),
	}, nil
}

// Conn 回傳底層連線，給服務的 client stub 使用
func (c *Client) Conn() *grpc.ClientConn {
	return c.conn
}

// CheckHealth 透過 grpc.health.v1 確認服務為 SERVING
// 伺服器關機中 (NOT_SERVING) 或連不上都回傳錯誤
func (c *Client) CheckHealth(ctx context.Context, service string) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("health check %s: %w", service, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("service %s is %s", service, resp.GetStatus())
	}
	return nil
}

// Close 關閉連線
func (c *Client) Close() error {
	return c.conn.Close()
}
