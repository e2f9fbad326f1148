package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/repository"
)

type BillService struct {
	bills repository.BillRepository
}

func NewBillService(bills repository.BillRepository) *BillService {
	return &BillService{bills: bills}
}

type BillInput struct {
	Name        string
	Amount      decimal.Decimal
	DueDate     time.Time
	IsRecurring bool
	Category    string
}

func (s *BillService) List(ctx context.Context, userID string) ([]domain.Bill, error) {
	bills, err := s.bills.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bills == nil {
		bills = []domain.Bill{}
	}
	return bills, nil
}

func (s *BillService) Create(ctx context.Context, userID string, input BillInput) (domain.Bill, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || !input.Amount.IsPositive() || input.DueDate.IsZero() {
		return domain.Bill{}, validationError("Please add all fields")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = domain.DefaultBillCategory
	}
	now := time.Now().UTC()
	bill := domain.Bill{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Amount:      input.Amount,
		DueDate:     input.DueDate.UTC(),
		IsRecurring: input.IsRecurring,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.bills.Create(ctx, bill); err != nil {
		return domain.Bill{}, err
	}
	return bill, nil
}
