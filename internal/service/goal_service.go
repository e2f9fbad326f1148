package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/repository"
)

// GoalService administra las metas de ahorro.
type GoalService struct {
	goals repository.GoalRepository
}

func NewGoalService(goals repository.GoalRepository) *GoalService {
	return &GoalService{goals: goals}
}

type GoalInput struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      *time.Time
}

// GoalUpdate aplica solo los campos no nulos.
type GoalUpdate struct {
	Name          *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	Deadline      *time.Time
}

func (s *GoalService) List(ctx context.Context, userID string) ([]domain.Goal, error) {
	goals, err := s.goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	return goals, nil
}

func (s *GoalService) Create(ctx context.Context, userID string, input GoalInput) (domain.Goal, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || !input.TargetAmount.IsPositive() {
		return domain.Goal{}, validationError("Please add a name and a target amount")
	}
	if input.CurrentAmount.IsNegative() {
		return domain.Goal{}, validationError("Current amount cannot be negative")
	}
	now := time.Now().UTC()
	goal := domain.Goal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          name,
		TargetAmount:  input.TargetAmount,
		CurrentAmount: input.CurrentAmount,
		Deadline:      input.Deadline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return domain.Goal{}, err
	}
	return goal, nil
}

// Update modifica una meta del usuario. Una meta ajena devuelve ErrForbidden.
func (s *GoalService) Update(ctx context.Context, userID, goalID string, update GoalUpdate) (domain.Goal, error) {
	goal, err := s.goals.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Goal{}, ErrNotFound
		}
		return domain.Goal{}, err
	}
	if goal.UserID != userID {
		return domain.Goal{}, ErrForbidden
	}
	if update.Name != nil {
		if name := strings.TrimSpace(*update.Name); name != "" {
			goal.Name = name
		}
	}
	if update.TargetAmount != nil {
		if !update.TargetAmount.IsPositive() {
			return domain.Goal{}, validationError("Target amount must be positive")
		}
		goal.TargetAmount = *update.TargetAmount
	}
	if update.CurrentAmount != nil {
		if update.CurrentAmount.IsNegative() {
			return domain.Goal{}, validationError("Current amount cannot be negative")
		}
		goal.CurrentAmount = *update.CurrentAmount
	}
	if update.Deadline != nil {
		goal.Deadline = update.Deadline
	}
	goal.UpdatedAt = time.Now().UTC()
	if err := s.goals.Update(ctx, goal); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Goal{}, ErrNotFound
		}
		return domain.Goal{}, err
	}
	return goal, nil
}
