package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/repository"
)

type TransactionService struct {
	transactions repository.TransactionRepository
}

func NewTransactionService(transactions repository.TransactionRepository) *TransactionService {
	return &TransactionService{transactions: transactions}
}

type TransactionInput struct {
	Name     string
	Amount   decimal.Decimal
	Category string
	Type     string
}

func (s *TransactionService) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	txs, err := s.transactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

func (s *TransactionService) Create(ctx context.Context, userID string, input TransactionInput) (domain.Transaction, error) {
	name := strings.TrimSpace(input.Name)
	txType := strings.ToLower(strings.TrimSpace(input.Type))
	if name == "" || !input.Amount.IsPositive() {
		return domain.Transaction{}, validationError("Please add all fields")
	}
	if txType != domain.TransactionTypeIncome && txType != domain.TransactionTypeExpense {
		return domain.Transaction{}, validationError("Type must be income or expense")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = domain.UncategorizedCategory
	}
	tx := domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Amount:    input.Amount,
		Category:  category,
		Type:      txType,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// ExportCSV escribe los movimientos del usuario con encabezado.
func (s *TransactionService) ExportCSV(ctx context.Context, userID string, w io.Writer) error {
	txs, err := s.transactions.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "name", "category", "type", "amount"}); err != nil {
		return err
	}
	for _, t := range txs {
		record := []string{
			t.CreatedAt.UTC().Format("2006-01-02"),
			t.Name,
			t.Category,
			t.Type,
			t.Amount.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
