package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server 封裝 HTTP 服務
type Server struct {
	engine *gin.Engine
	logger *zap.Logger
	addr   string
	server *http.Server
}

// NewServer 初始化 HTTP Server
//
// 參數:
//
//	logger: 請求 log
//	addr: 監聽地址 (例如 ":8080")
//	mode: gin 模式，"release" 時關閉 debug 輸出
//	handler: Ledger REST handler
func NewServer(logger *zap.Logger, addr, mode string, handler *LedgerHandler) *Server {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	handler.RegisterRoutes(r)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	return &Server{
		engine: r,
		logger: logger,
		addr:   addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler 回傳 http.Handler (測試用)
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 啟動服務，Shutdown 後回傳 nil
func (s *Server) Run() error {
	s.logger.Info("http server started", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 優雅停機
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// requestLogger 以 zap 記錄每個請求
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			logger.Error("http request", fields...)
			return
		}
		logger.Info("http request", fields...)
	}
}
