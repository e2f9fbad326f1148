package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/repository"
)

type BudgetService struct {
	users    repository.UserRepository
	spending SpendingSource
}

func NewBudgetService(users repository.UserRepository, spending SpendingSource) *BudgetService {
	return &BudgetService{users: users, spending: spending}
}

// BudgetStatus es el estado de un presupuesto contra el gasto actual.
type BudgetStatus struct {
	Category   string          `json:"category"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Percentage decimal.Decimal `json:"percentage"`
	Alert      bool            `json:"alert"`
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]domain.Budget, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Budgets == nil {
		return []domain.Budget{}, nil
	}
	return user.Budgets, nil
}

// Set crea o reemplaza el limite de una categoria y devuelve la lista completa.
func (s *BudgetService) Set(ctx context.Context, userID, category string, limit decimal.Decimal) ([]domain.Budget, error) {
	category = strings.TrimSpace(category)
	if category == "" || !limit.IsPositive() {
		return nil, validationError("Please provide a category and a positive limit")
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.SetBudget(category, limit)
	if err := s.users.UpdateBudgets(ctx, user.ID, user.Budgets); err != nil {
		return nil, err
	}
	return user.Budgets, nil
}

func (s *BudgetService) Status(ctx context.Context, user domain.User) ([]BudgetStatus, error) {
	spending, err := s.spending.CurrentSpending(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]BudgetStatus, 0, len(user.Budgets))
	for _, b := range user.Budgets {
		spent := spending.Spent(b.Category)
		out = append(out, BudgetStatus{
			Category:   b.Category,
			Limit:      b.Limit,
			Spent:      spent,
			Percentage: percentOf(spent, b.Limit),
			Alert:      overThreshold(spent, b.Limit),
		})
	}
	return out, nil
}

func (s *BudgetService) getUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}
