package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/plaid"
)

func newTestInsights(bank *mockBank, txRepo *mockTransactionRepo, goals *mockGoalRepo) *InsightsService {
	spending := NewSpendingService(nil, bank, txRepo)
	return NewInsightsService(spending, NewBankService(nil, bank, newMockUserRepo()), goals)
}

func TestInsights_HealthScoreEmptyUser(t *testing.T) {
	svc := newTestInsights(&mockBank{}, &mockTransactionRepo{}, newMockGoalRepo())
	score, err := svc.HealthScore(context.Background(), domain.User{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(40), score.BudgetScore)
	assert.Equal(t, int64(0), score.SavingsScore)
	assert.Equal(t, int64(30), score.GoalScore)
	assert.Equal(t, int64(70), score.Score)
}

func TestInsights_HealthScore(t *testing.T) {
	txRepo := &mockTransactionRepo{txs: []domain.Transaction{
		manualTx("u1", 1000, "SALARY", domain.TransactionTypeIncome),
		manualTx("u1", 150, "FOOD", domain.TransactionTypeExpense),
		manualTx("u1", 350, "RENT", domain.TransactionTypeExpense),
	}}
	goals := newMockGoalRepo()
	goals.goals["g1"] = domain.Goal{ID: "g1", UserID: "u1", TargetAmount: decimal.NewFromInt(100), CurrentAmount: decimal.NewFromInt(50)}
	goals.goals["g2"] = domain.Goal{ID: "g2", UserID: "u1", TargetAmount: decimal.NewFromInt(100), CurrentAmount: decimal.NewFromInt(300)}
	user := domain.User{ID: "u1", Budgets: []domain.Budget{
		{Category: "FOOD", Limit: decimal.NewFromInt(100)},
		{Category: "RENT", Limit: decimal.NewFromInt(400)},
	}}

	svc := newTestInsights(&mockBank{}, txRepo, goals)
	score, err := svc.HealthScore(context.Background(), user)
	require.NoError(t, err)
	// 1 de 2 presupuestos ok, ahorro 50%, metas 75%.
	assert.Equal(t, int64(20), score.BudgetScore)
	assert.Equal(t, int64(15), score.SavingsScore)
	assert.Equal(t, int64(23), score.GoalScore)
	assert.Equal(t, int64(58), score.Score)
}

func TestInsights_MonthlySummary(t *testing.T) {
	bank := &mockBank{transactions: map[string][]plaid.Transaction{
		"access": {
			{TransactionID: "a", Amount: decimal.NewFromInt(30), Date: "2024-04-20"},
			{TransactionID: "b", Amount: decimal.NewFromInt(-200), Date: "2024-05-01"},
		},
	}}
	txRepo := &mockTransactionRepo{txs: []domain.Transaction{
		manualTx("u1", 10, "FOOD", domain.TransactionTypeExpense),
	}}
	svc := newTestInsights(bank, txRepo, newMockGoalRepo())

	got, err := svc.MonthlySummary(context.Background(), domain.User{ID: "u1", PlaidAccessToken: "access"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-04", got[0].Month)
	assert.True(t, got[0].Expense.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "2024-05", got[1].Month)
	assert.True(t, got[1].Income.Equal(decimal.NewFromInt(200)))
	assert.True(t, got[1].Expense.Equal(decimal.NewFromInt(10)))
}

func TestInsights_NetWorth(t *testing.T) {
	dec := func(v int64) *decimal.Decimal { d := decimal.NewFromInt(v); return &d }
	bank := &mockBank{accounts: []plaid.Account{
		{AccountID: "1", Type: "depository", Balances: plaid.Balances{Current: dec(1000)}},
		{AccountID: "2", Type: "investment", Balances: plaid.Balances{Available: dec(500)}},
		{AccountID: "3", Type: "credit", Balances: plaid.Balances{Current: dec(300)}},
		{AccountID: "4", Type: "loan", Balances: plaid.Balances{Current: dec(200)}},
	}}
	svc := newTestInsights(bank, &mockTransactionRepo{}, newMockGoalRepo())

	got, err := svc.NetWorth(context.Background(), domain.User{ID: "u1", PlaidAccessToken: "access"})
	require.NoError(t, err)
	assert.True(t, got.Assets.Equal(decimal.NewFromInt(1500)))
	assert.True(t, got.Liabilities.Equal(decimal.NewFromInt(500)))
	assert.True(t, got.NetWorth.Equal(decimal.NewFromInt(1000)))

	empty, err := svc.NetWorth(context.Background(), domain.User{ID: "u1"})
	require.NoError(t, err)
	assert.True(t, empty.NetWorth.IsZero())
}
