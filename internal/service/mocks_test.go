package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/email"
	"pfm-backend/internal/plaid"
	"pfm-backend/internal/repository"
)

type mockUserRepo struct {
	mu           sync.Mutex
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	listErr      error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	id, ok := m.usersByEmail[email]
	m.mu.Unlock()
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) List(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.User, 0, len(m.usersByID))
	for _, u := range m.usersByID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockUserRepo) update(id string, fn func(*domain.User) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := fn(&user); err != nil {
		return err
	}
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id, name string, prefs domain.NotificationPreferences) error {
	return m.update(id, func(u *domain.User) error {
		u.Name = name
		u.Preferences = prefs
		return nil
	})
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return m.update(id, func(u *domain.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (m *mockUserRepo) UpdateBudgets(_ context.Context, id string, budgets []domain.Budget) error {
	return m.update(id, func(u *domain.User) error {
		u.Budgets = append([]domain.Budget(nil), budgets...)
		return nil
	})
}

func (m *mockUserRepo) SetPlaidCredentials(_ context.Context, id, accessToken, itemID string) error {
	return m.update(id, func(u *domain.User) error {
		u.PlaidAccessToken = accessToken
		u.PlaidItemID = itemID
		return nil
	})
}

func (m *mockUserRepo) SetTwoFactorSecret(_ context.Context, id string, secret domain.TwoFactorSecret) error {
	return m.update(id, func(u *domain.User) error {
		u.TwoFactorSecret = &secret
		u.IsTwoFactorEnabled = false
		return nil
	})
}

func (m *mockUserRepo) EnableTwoFactor(_ context.Context, id string) error {
	return m.update(id, func(u *domain.User) error {
		if u.TwoFactorSecret == nil {
			return pgx.ErrNoRows
		}
		u.IsTwoFactorEnabled = true
		return nil
	})
}

func (m *mockUserRepo) DisableTwoFactor(_ context.Context, id string) error {
	return m.update(id, func(u *domain.User) error {
		u.TwoFactorSecret = nil
		u.IsTwoFactorEnabled = false
		return nil
	})
}

func (m *mockUserRepo) put(user domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
}

type mockBillRepo struct {
	bills   []domain.Bill
	listErr map[string]error
}

func (m *mockBillRepo) Create(_ context.Context, bill domain.Bill) error {
	m.bills = append(m.bills, bill)
	return nil
}

func (m *mockBillRepo) ListByUser(_ context.Context, userID string) ([]domain.Bill, error) {
	var out []domain.Bill
	for _, b := range m.bills {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBillRepo) ListDueBetween(_ context.Context, userID string, from, to time.Time) ([]domain.Bill, error) {
	if err := m.listErr[userID]; err != nil {
		return nil, err
	}
	var out []domain.Bill
	for _, b := range m.bills {
		if b.UserID == userID && !b.DueDate.Before(from) && !b.DueDate.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type mockGoalRepo struct {
	goals map[string]domain.Goal
}

func newMockGoalRepo() *mockGoalRepo {
	return &mockGoalRepo{goals: make(map[string]domain.Goal)}
}

func (m *mockGoalRepo) Create(_ context.Context, goal domain.Goal) error {
	m.goals[goal.ID] = goal
	return nil
}

func (m *mockGoalRepo) GetByID(_ context.Context, id string) (domain.Goal, error) {
	g, ok := m.goals[id]
	if !ok {
		return domain.Goal{}, pgx.ErrNoRows
	}
	return g, nil
}

func (m *mockGoalRepo) ListByUser(_ context.Context, userID string) ([]domain.Goal, error) {
	var out []domain.Goal
	for _, g := range m.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockGoalRepo) Update(_ context.Context, goal domain.Goal) error {
	if _, ok := m.goals[goal.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.goals[goal.ID] = goal
	return nil
}

type mockTransactionRepo struct {
	txs []domain.Transaction
}

func (m *mockTransactionRepo) Create(_ context.Context, tx domain.Transaction) error {
	m.txs = append(m.txs, tx)
	return nil
}

func (m *mockTransactionRepo) ListByUser(_ context.Context, userID string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, t := range m.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockBank struct {
	linkToken    plaid.LinkToken
	access       plaid.ItemAccess
	transactions map[string][]plaid.Transaction
	accounts     []plaid.Account
	err          error
}

func (m *mockBank) CreateLinkToken(_ context.Context, _ string) (plaid.LinkToken, error) {
	return m.linkToken, m.err
}

func (m *mockBank) ExchangePublicToken(_ context.Context, _ string) (plaid.ItemAccess, error) {
	return m.access, m.err
}

func (m *mockBank) SyncTransactions(_ context.Context, accessToken string) ([]plaid.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.transactions[accessToken], nil
}

func (m *mockBank) GetAccounts(_ context.Context, _ string) ([]plaid.Account, error) {
	return m.accounts, m.err
}

type recordingSender struct {
	mu      sync.Mutex
	sent    []email.Message
	failFor map[string]bool
}

func (r *recordingSender) Send(_ context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[msg.To] {
		return errors.New("smtp unavailable")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) messages() []email.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]email.Message(nil), r.sent...)
}

func plaidTx(id string, amount int64, category string) plaid.Transaction {
	t := plaid.Transaction{TransactionID: id, Amount: decimal.NewFromInt(amount), Date: "2024-05-10"}
	if category != "" {
		t.Category = &plaid.PersonalFinanceCategory{Primary: category}
	}
	return t
}

func manualTx(userID string, amount int64, category, txType string) domain.Transaction {
	return domain.Transaction{
		ID:        userID + category + txType,
		UserID:    userID,
		Name:      category,
		Amount:    decimal.NewFromInt(amount),
		Category:  category,
		Type:      txType,
		CreatedAt: time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC),
	}
}

func plaidAccess(accessToken, itemID string) plaid.ItemAccess {
	return plaid.ItemAccess{AccessToken: accessToken, ItemID: itemID}
}
