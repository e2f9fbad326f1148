package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"

	// UncategorizedCategory se usa cuando un movimiento no trae categoria.
	UncategorizedCategory = "UNCATEGORIZED"

	DefaultBillCategory = "Utilities"
)

// Bill es una obligacion programada del usuario.
type Bill struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"dueDate"`
	IsRecurring bool            `json:"isRecurring"`
	Category    string          `json:"category"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Goal es una meta de ahorro.
type Goal struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Transaction es un movimiento cargado a mano. El signo lo da Type, no Amount.
type Transaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (t Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// Spending mapea categoria -> total gastado.
type Spending map[string]decimal.Decimal

// Spent devuelve el total de la categoria o cero.
func (s Spending) Spent(category string) decimal.Decimal {
	if v, ok := s[category]; ok {
		return v
	}
	return decimal.Zero
}
