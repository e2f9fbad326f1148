package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/plaid"
	"pfm-backend/internal/repository"
)

const (
	budgetPoints  = 40
	savingsPoints = 30
	goalPoints    = 30
)

// InsightsService calcula metricas derivadas: salud financiera, resumen mensual y patrimonio.
type InsightsService struct {
	spending *SpendingService
	bank     *BankService
	goals    repository.GoalRepository
}

func NewInsightsService(spending *SpendingService, bank *BankService, goals repository.GoalRepository) *InsightsService {
	return &InsightsService{spending: spending, bank: bank, goals: goals}
}

type HealthScore struct {
	Score        int64 `json:"score"`
	BudgetScore  int64 `json:"budgetScore"`
	SavingsScore int64 `json:"savingsScore"`
	GoalScore    int64 `json:"goalScore"`
}

type MonthSummary struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type NetWorth struct {
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	NetWorth    decimal.Decimal `json:"netWorth"`
}

func (s *InsightsService) HealthScore(ctx context.Context, user domain.User) (HealthScore, error) {
	external, manual, err := s.spending.Sources(ctx, user)
	if err != nil {
		return HealthScore{}, err
	}
	spending := AggregateSpending(external, manual)
	goals, err := s.goals.ListByUser(ctx, user.ID)
	if err != nil {
		return HealthScore{}, err
	}

	budget := budgetAdherence(user.Budgets, spending).Mul(decimal.NewFromInt(budgetPoints))
	savings := savingsRate(external, manual, spending).Mul(decimal.NewFromInt(savingsPoints))
	goal := goalProgress(goals).Mul(decimal.NewFromInt(goalPoints))

	out := HealthScore{
		BudgetScore:  budget.Round(0).IntPart(),
		SavingsScore: savings.Round(0).IntPart(),
		GoalScore:    goal.Round(0).IntPart(),
	}
	out.Score = budget.Add(savings).Add(goal).Round(0).IntPart()
	return out, nil
}

// budgetAdherence es la fraccion de presupuestos dentro del limite; 1 sin presupuestos.
func budgetAdherence(budgets []domain.Budget, spending domain.Spending) decimal.Decimal {
	if len(budgets) == 0 {
		return decimal.NewFromInt(1)
	}
	under := 0
	for _, b := range budgets {
		if spending.Spent(b.Category).LessThanOrEqual(b.Limit) {
			under++
		}
	}
	return decimal.NewFromInt(int64(under)).Div(decimal.NewFromInt(int64(len(budgets))))
}

// savingsRate es (ingresos - gasto) / ingresos acotado a [0, 1].
func savingsRate(external []plaid.Transaction, manual []domain.Transaction, spending domain.Spending) decimal.Decimal {
	income := decimal.Zero
	for _, t := range external {
		if t.Amount.IsNegative() {
			income = income.Add(t.Amount.Neg())
		}
	}
	for _, t := range manual {
		if t.Type == domain.TransactionTypeIncome {
			income = income.Add(t.Amount)
		}
	}
	if !income.IsPositive() {
		return decimal.Zero
	}
	spent := decimal.Zero
	for _, v := range spending {
		spent = spent.Add(v)
	}
	rate := income.Sub(spent).Div(income)
	return clamp01(rate)
}

// goalProgress es el promedio de min(actual/objetivo, 1); 1 sin metas.
func goalProgress(goals []domain.Goal) decimal.Decimal {
	if len(goals) == 0 {
		return decimal.NewFromInt(1)
	}
	total := decimal.Zero
	for _, g := range goals {
		if !g.TargetAmount.IsPositive() {
			total = total.Add(decimal.NewFromInt(1))
			continue
		}
		total = total.Add(clamp01(g.CurrentAmount.Div(g.TargetAmount)))
	}
	return total.Div(decimal.NewFromInt(int64(len(goals))))
}

func clamp01(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return d
}

// MonthlySummary agrupa ingresos y gastos por YYYY-MM, en orden ascendente.
func (s *InsightsService) MonthlySummary(ctx context.Context, user domain.User) ([]MonthSummary, error) {
	external, manual, err := s.spending.Sources(ctx, user)
	if err != nil {
		return nil, err
	}
	months := make(map[string]*MonthSummary)
	get := func(key string) *MonthSummary {
		m, ok := months[key]
		if !ok {
			m = &MonthSummary{Month: key, Income: decimal.Zero, Expense: decimal.Zero}
			months[key] = m
		}
		return m
	}
	for _, t := range external {
		if len(t.Date) < 7 {
			continue
		}
		m := get(t.Date[:7])
		if t.Amount.IsPositive() {
			m.Expense = m.Expense.Add(t.Amount)
		} else {
			m.Income = m.Income.Add(t.Amount.Neg())
		}
	}
	for _, t := range manual {
		m := get(t.CreatedAt.UTC().Format("2006-01"))
		switch t.Type {
		case domain.TransactionTypeExpense:
			m.Expense = m.Expense.Add(t.Amount)
		case domain.TransactionTypeIncome:
			m.Income = m.Income.Add(t.Amount)
		}
	}

	out := make([]MonthSummary, 0, len(months))
	for _, m := range months {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// NetWorth resta saldos de credito y prestamos a los del resto de las cuentas.
func (s *InsightsService) NetWorth(ctx context.Context, user domain.User) (NetWorth, error) {
	accounts, err := s.bank.Accounts(ctx, user)
	if err != nil {
		return NetWorth{}, err
	}
	out := NetWorth{Assets: decimal.Zero, Liabilities: decimal.Zero}
	for _, a := range accounts {
		balance := accountBalance(a)
		if a.IsLiability() {
			out.Liabilities = out.Liabilities.Add(balance)
		} else {
			out.Assets = out.Assets.Add(balance)
		}
	}
	out.NetWorth = out.Assets.Sub(out.Liabilities)
	return out, nil
}

func accountBalance(a plaid.Account) decimal.Decimal {
	if a.Balances.Current != nil {
		return *a.Balances.Current
	}
	if a.Balances.Available != nil {
		return *a.Balances.Available
	}
	return decimal.Zero
}
