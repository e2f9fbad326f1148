package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/plaid"
)

// AggregateSpending suma el gasto por categoria. De Plaid cuentan solo montos positivos
// (salidas de dinero); de los manuales, solo los de tipo expense.
func AggregateSpending(external []plaid.Transaction, manual []domain.Transaction) domain.Spending {
	out := make(domain.Spending)
	for _, t := range external {
		if !t.Amount.IsPositive() {
			continue
		}
		add(out, t.PrimaryCategory(), t.Amount)
	}
	for _, t := range manual {
		if !t.IsExpense() {
			continue
		}
		add(out, t.Category, t.Amount)
	}
	return out
}

func add(s domain.Spending, category string, amount decimal.Decimal) {
	category = strings.TrimSpace(category)
	if category == "" {
		category = domain.UncategorizedCategory
	}
	s[category] = s.Spent(category).Add(amount)
}

// overThreshold es spent/limit >= 0.90 sin division. Un limite no positivo nunca alerta.
func overThreshold(spent, limit decimal.Decimal) bool {
	if !limit.IsPositive() {
		return false
	}
	return spent.Mul(decimal.NewFromInt(10)).GreaterThanOrEqual(limit.Mul(decimal.NewFromInt(9)))
}

// percentOf devuelve spent/limit*100 redondeado a entero; cero si el limite no es positivo.
func percentOf(spent, limit decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return spent.Mul(decimal.NewFromInt(100)).Div(limit).Round(0)
}
