package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/plaid"
	"pfm-backend/internal/repository"
)

// BankService expone el vinculo con Plaid y los datos crudos del banco.
type BankService struct {
	logger *zap.Logger
	bank   BankClient
	users  repository.UserRepository
}

func NewBankService(logger *zap.Logger, bank BankClient, users repository.UserRepository) *BankService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BankService{logger: logger, bank: bank, users: users}
}

func (s *BankService) CreateLinkToken(ctx context.Context, userID string) (plaid.LinkToken, error) {
	token, err := s.bank.CreateLinkToken(ctx, userID)
	if err != nil {
		return plaid.LinkToken{}, s.upstream("create link token", userID, err)
	}
	return token, nil
}

// ExchangePublicToken canjea el public token y persiste access token e item id.
func (s *BankService) ExchangePublicToken(ctx context.Context, userID, publicToken string) error {
	publicToken = strings.TrimSpace(publicToken)
	if publicToken == "" {
		return validationError("public_token is required")
	}
	access, err := s.bank.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return s.upstream("exchange public token", userID, err)
	}
	if err := s.users.SetPlaidCredentials(ctx, userID, access.AccessToken, access.ItemID); err != nil {
		return err
	}
	s.logger.Info("bank linked", zap.String("user_id", userID), zap.String("item_id", access.ItemID))
	return nil
}

func (s *BankService) Transactions(ctx context.Context, user domain.User) ([]plaid.Transaction, error) {
	if !user.HasLinkedBank() {
		return []plaid.Transaction{}, nil
	}
	txs, err := s.bank.SyncTransactions(ctx, user.PlaidAccessToken)
	if err != nil {
		return nil, s.upstream("sync transactions", user.ID, err)
	}
	if txs == nil {
		txs = []plaid.Transaction{}
	}
	return txs, nil
}

func (s *BankService) Accounts(ctx context.Context, user domain.User) ([]plaid.Account, error) {
	if !user.HasLinkedBank() {
		return []plaid.Account{}, nil
	}
	accounts, err := s.bank.GetAccounts(ctx, user.PlaidAccessToken)
	if err != nil {
		return nil, s.upstream("get accounts", user.ID, err)
	}
	if accounts == nil {
		accounts = []plaid.Account{}
	}
	return accounts, nil
}

func (s *BankService) upstream(op, userID string, err error) error {
	s.logger.Error("plaid call failed", zap.String("op", op), zap.String("user_id", userID), zap.Error(err))
	if errors.Is(err, plaid.ErrNotConfigured) {
		return fmt.Errorf("%w: bank aggregation not configured", ErrUpstream)
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
