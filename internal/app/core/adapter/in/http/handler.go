package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/usecase"
)

// LedgerHandler REST API
type LedgerHandler struct {
	core *usecase.CoreUseCase
}

func NewLedgerHandler(core *usecase.CoreUseCase) *LedgerHandler {
	return &LedgerHandler{core: core}
}

// RegisterRoutes 註冊路由
func (h *LedgerHandler) RegisterRoutes(r gin.IRouter) {
	accounts := r.Group("/accounts")
	{
		accounts.POST("", h.CreateAccount)
		accounts.GET("", h.GetAccounts)
		accounts.GET("/:id", h.GetAccount)
	}

	transactions := r.Group("/transactions")
	{
		transactions.POST("", h.CreateTransaction)
		transactions.GET("/:id", h.GetTransaction)
	}
}

// CreateAccount 開戶
// POST /accounts
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, err := h.core.OpenAccount(c.Request.Context(), usecase.OpenAccountRequest{
		ID:        req.ID,
		Name:      req.Name,
		Direction: domain.Direction(req.Direction),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// GetAccounts 列出所有帳戶
// GET /accounts
func (h *LedgerHandler) GetAccounts(c *gin.Context) {
	accounts, err := h.core.GetAccounts(c.Request.Context(), "")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// GetAccount 查詢單一帳戶，回傳陣列 (找不到為空陣列)
// GET /accounts/:id
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	accounts, err := h.core.GetAccounts(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// CreateTransaction 過帳
// POST /transactions
func (h *LedgerHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tran, err := h.core.PostTransaction(c.Request.Context(), usecase.PostTransactionRequest{
		ID:      req.ID,
		Name:    req.Name,
		Entries: req.toDomainEntries(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tran)
}

// GetTransaction 查詢交易
// GET /transactions/:id
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	tran, err := h.core.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tran)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResp{
		Error: "invalid request: " + err.Error(),
		Code:  "INVALID_REQUEST",
	})
}

// writeError 依錯誤分類決定 HTTP 狀態碼
func writeError(c *gin.Context, err error) {
	resp := ErrorResp{
		Error: err.Error(),
		Code:  domain.Reason(err),
	}
	if id, ok := domain.AccountIDOf(err); ok {
		resp.AccountID = id
	}

	status := statusOf(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, resp)
}

func statusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
