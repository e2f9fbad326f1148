package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/plaid"
	"pfm-backend/internal/repository"
)

// BankClient es la frontera tipada con el agregador bancario.
type BankClient interface {
	CreateLinkToken(ctx context.Context, userID string) (plaid.LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (plaid.ItemAccess, error)
	SyncTransactions(ctx context.Context, accessToken string) ([]plaid.Transaction, error)
	GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error)
}

// SpendingSource calcula el gasto actual de un usuario.
type SpendingSource interface {
	CurrentSpending(ctx context.Context, user domain.User) (domain.Spending, error)
}

// SpendingService junta los movimientos del banco y los manuales de un usuario.
type SpendingService struct {
	logger       *zap.Logger
	bank         BankClient
	transactions repository.TransactionRepository
}

func NewSpendingService(logger *zap.Logger, bank BankClient, transactions repository.TransactionRepository) *SpendingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpendingService{logger: logger, bank: bank, transactions: transactions}
}

func (s *SpendingService) CurrentSpending(ctx context.Context, user domain.User) (domain.Spending, error) {
	external, manual, err := s.Sources(ctx, user)
	if err != nil {
		return nil, err
	}
	return AggregateSpending(external, manual), nil
}

// Sources devuelve los movimientos crudos. Sin banco vinculado, la parte externa es vacia.
func (s *SpendingService) Sources(ctx context.Context, user domain.User) ([]plaid.Transaction, []domain.Transaction, error) {
	var external []plaid.Transaction
	if user.HasLinkedBank() && s.bank != nil {
		txs, err := s.bank.SyncTransactions(ctx, user.PlaidAccessToken)
		if err != nil {
			s.logger.Warn("plaid transactions sync failed", zap.String("user_id", user.ID), zap.Error(err))
			return nil, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		external = txs
	}
	var manual []domain.Transaction
	if s.transactions != nil {
		txs, err := s.transactions.ListByUser(ctx, user.ID)
		if err != nil {
			return nil, nil, err
		}
		manual = txs
	}
	return external, manual, nil
}
