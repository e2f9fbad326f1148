package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pfm-backend/internal/service"
)

// PlaidHandler expone el vinculo bancario y las metricas derivadas.
type PlaidHandler struct {
	logger   *zap.Logger
	bank     *service.BankService
	spending *service.SpendingService
	insights *service.InsightsService
}

func NewPlaidHandler(logger *zap.Logger, bank *service.BankService, spending *service.SpendingService, insights *service.InsightsService) *PlaidHandler {
	return &PlaidHandler{logger: logger, bank: bank, spending: spending, insights: insights}
}

// CreateLinkToken maneja POST /api/plaid/create_link_token.
func (h *PlaidHandler) CreateLinkToken(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	token, err := h.bank.CreateLinkToken(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err, "Could not create link token")
		return
	}
	c.JSON(http.StatusOK, token)
}

// ExchangePublicToken maneja POST /api/plaid/exchange_public_token.
func (h *PlaidHandler) ExchangePublicToken(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		PublicToken string `json:"public_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "public_token is required")
		return
	}
	if err := h.bank.ExchangePublicToken(c.Request.Context(), user.ID, req.PublicToken); err != nil {
		respondError(c, h.logger, err, "Could not link bank account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bank account linked successfully"})
}

// Transactions maneja GET /api/plaid/transactions.
func (h *PlaidHandler) Transactions(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	txs, err := h.bank.Transactions(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err, "Could not fetch transactions")
		return
	}
	c.JSON(http.StatusOK, txs)
}

// Accounts maneja GET /api/plaid/accounts.
func (h *PlaidHandler) Accounts(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	accounts, err := h.bank.Accounts(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err, "Could not fetch accounts")
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// Summary maneja GET /api/plaid/summary.
func (h *PlaidHandler) Summary(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	spending, err := h.spending.CurrentSpending(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err, "Could not compute spending summary")
		return
	}
	c.JSON(http.StatusOK, spending)
}

// MonthlySummary maneja GET /api/plaid/monthly-summary.
func (h *PlaidHandler) MonthlySummary(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	months, err := h.insights.MonthlySummary(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err, "Could not compute monthly summary")
		return
	}
	c.JSON(http.StatusOK, months)
}

// NetWorth maneja GET /api/plaid/net-worth.
func (h *PlaidHandler) NetWorth(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	nw, err := h.insights.NetWorth(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err, "Could not compute net worth")
		return
	}
	c.JSON(http.StatusOK, nw)
}

// HealthScore maneja GET /api/plaid/health-score.
func (h *PlaidHandler) HealthScore(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	score, err := h.insights.HealthScore(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err, "Could not compute health score")
		return
	}
	c.JSON(http.StatusOK, score)
}
