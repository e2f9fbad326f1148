package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pfm-backend/internal/service"
)

// RecordHandler expone el CRUD de facturas, metas y movimientos manuales.
type RecordHandler struct {
	logger       *zap.Logger
	bills        *service.BillService
	goals        *service.GoalService
	transactions *service.TransactionService
}

func NewRecordHandler(logger *zap.Logger, bills *service.BillService, goals *service.GoalService, transactions *service.TransactionService) *RecordHandler {
	return &RecordHandler{logger: logger, bills: bills, goals: goals, transactions: transactions}
}

// ListBills maneja GET /api/bills.
func (h *RecordHandler) ListBills(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	bills, err := h.bills.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err, "Could not load bills")
		return
	}
	c.JSON(http.StatusOK, bills)
}

// CreateBill maneja POST /api/bills.
func (h *RecordHandler) CreateBill(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Name        string          `json:"name"`
		Amount      decimal.Decimal `json:"amount"`
		DueDate     string          `json:"dueDate"`
		IsRecurring bool            `json:"isRecurring"`
		Category    string          `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please add all fields")
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		badRequest(c, "Please add all fields")
		return
	}
	bill, err := h.bills.Create(c.Request.Context(), user.ID, service.BillInput{
		Name:        req.Name,
		Amount:      req.Amount,
		DueDate:     due,
		IsRecurring: req.IsRecurring,
		Category:    req.Category,
	})
	if err != nil {
		respondError(c, h.logger, err, "Could not save bill")
		return
	}
	c.JSON(http.StatusCreated, bill)
}

// ListGoals maneja GET /api/goals.
func (h *RecordHandler) ListGoals(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	goals, err := h.goals.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err, "Could not load goals")
		return
	}
	c.JSON(http.StatusOK, goals)
}

// CreateGoal maneja POST /api/goals.
func (h *RecordHandler) CreateGoal(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		Deadline      string          `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please add a name and a target amount")
		return
	}
	deadline, err := parseOptionalDate(req.Deadline)
	if err != nil {
		badRequest(c, "Invalid deadline")
		return
	}
	goal, err := h.goals.Create(c.Request.Context(), user.ID, service.GoalInput{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      deadline,
	})
	if err != nil {
		respondError(c, h.logger, err, "Could not save goal")
		return
	}
	c.JSON(http.StatusCreated, goal)
}

// UpdateGoal maneja PUT /api/goals/:id.
func (h *RecordHandler) UpdateGoal(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Name          *string          `json:"name"`
		TargetAmount  *decimal.Decimal `json:"targetAmount"`
		CurrentAmount *decimal.Decimal `json:"currentAmount"`
		Deadline      string           `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	deadline, err := parseOptionalDate(req.Deadline)
	if err != nil {
		badRequest(c, "Invalid deadline")
		return
	}
	goal, err := h.goals.Update(c.Request.Context(), user.ID, c.Param("id"), service.GoalUpdate{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      deadline,
	})
	if err != nil {
		respondError(c, h.logger, err, "Could not update goal")
		return
	}
	c.JSON(http.StatusOK, goal)
}

// ListTransactions maneja GET /api/transactions.
func (h *RecordHandler) ListTransactions(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	txs, err := h.transactions.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err, "Could not load transactions")
		return
	}
	c.JSON(http.StatusOK, txs)
}

// CreateTransaction maneja POST /api/transactions.
func (h *RecordHandler) CreateTransaction(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Name     string          `json:"name"`
		Amount   decimal.Decimal `json:"amount"`
		Category string          `json:"category"`
		Type     string          `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please add all fields")
		return
	}
	tx, err := h.transactions.Create(c.Request.Context(), user.ID, service.TransactionInput{
		Name:     req.Name,
		Amount:   req.Amount,
		Category: req.Category,
		Type:     req.Type,
	})
	if err != nil {
		respondError(c, h.logger, err, "Could not save transaction")
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// ExportTransactions maneja GET /api/transactions/export. Se abre desde el navegador, por eso acepta ?token=.
func (h *RecordHandler) ExportTransactions(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.transactions.ExportCSV(c.Request.Context(), user.ID, &buf); err != nil {
		respondError(c, h.logger, err, "Could not export transactions")
		return
	}
	filename := fmt.Sprintf("transactions-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
