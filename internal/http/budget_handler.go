package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pfm-backend/internal/service"
)

type BudgetHandler struct {
	logger  *zap.Logger
	budgets *service.BudgetService
}

func NewBudgetHandler(logger *zap.Logger, budgets *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{logger: logger, budgets: budgets}
}

// List maneja GET /api/budgets.
func (h *BudgetHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	budgets, err := h.budgets.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err, "Could not load budgets")
		return
	}
	c.JSON(http.StatusOK, budgets)
}

// Set maneja POST /api/budgets.
func (h *BudgetHandler) Set(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Category string          `json:"category"`
		Limit    decimal.Decimal `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please provide a category and a positive limit")
		return
	}
	budgets, err := h.budgets.Set(c.Request.Context(), user.ID, req.Category, req.Limit)
	if err != nil {
		respondError(c, h.logger, err, "Could not save budget")
		return
	}
	c.JSON(http.StatusOK, budgets)
}

// Status maneja GET /api/budgets/status.
func (h *BudgetHandler) Status(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	status, err := h.budgets.Status(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err, "Could not compute budget status")
		return
	}
	c.JSON(http.StatusOK, status)
}
