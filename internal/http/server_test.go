package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/email"
	"pfm-backend/internal/llm"
	"pfm-backend/internal/plaid"
	"pfm-backend/internal/repository"
	"pfm-backend/internal/service"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) List(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.usersByID {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepo) update(id string, fn func(*domain.User)) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(&user)
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id, name string, prefs domain.NotificationPreferences) error {
	return m.update(id, func(u *domain.User) { u.Name = name; u.Preferences = prefs })
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return m.update(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (m *mockUserRepo) UpdateBudgets(_ context.Context, id string, budgets []domain.Budget) error {
	return m.update(id, func(u *domain.User) { u.Budgets = budgets })
}

func (m *mockUserRepo) SetPlaidCredentials(_ context.Context, id, accessToken, itemID string) error {
	return m.update(id, func(u *domain.User) { u.PlaidAccessToken = accessToken; u.PlaidItemID = itemID })
}

func (m *mockUserRepo) SetTwoFactorSecret(_ context.Context, id string, secret domain.TwoFactorSecret) error {
	return m.update(id, func(u *domain.User) { u.TwoFactorSecret = &secret; u.IsTwoFactorEnabled = false })
}

func (m *mockUserRepo) EnableTwoFactor(_ context.Context, id string) error {
	return m.update(id, func(u *domain.User) { u.IsTwoFactorEnabled = u.TwoFactorSecret != nil })
}

func (m *mockUserRepo) DisableTwoFactor(_ context.Context, id string) error {
	return m.update(id, func(u *domain.User) { u.TwoFactorSecret = nil; u.IsTwoFactorEnabled = false })
}

type mockBillRepo struct{ bills []domain.Bill }

func (m *mockBillRepo) Create(_ context.Context, b domain.Bill) error {
	m.bills = append(m.bills, b)
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
	var out []domain.Bill
	for _, b := range m.bills {
		if b.UserID == userID && !b.DueDate.Before(from) && !b.DueDate.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type mockGoalRepo struct{ goals map[string]domain.Goal }

func (m *mockGoalRepo) Create(_ context.Context, g domain.Goal) error {
	m.goals[g.ID] = g
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
	return out, nil
}

func (m *mockGoalRepo) Update(_ context.Context, g domain.Goal) error {
	m.goals[g.ID] = g
	return nil
}

type mockTransactionRepo struct{ txs []domain.Transaction }

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

type stubBank struct{}

func (stubBank) CreateLinkToken(context.Context, string) (plaid.LinkToken, error) {
	return plaid.LinkToken{LinkToken: "link-sandbox-1"}, nil
}

func (stubBank) ExchangePublicToken(context.Context, string) (plaid.ItemAccess, error) {
	return plaid.ItemAccess{AccessToken: "access-1", ItemID: "item-1"}, nil
}

func (stubBank) SyncTransactions(context.Context, string) ([]plaid.Transaction, error) {
	return nil, nil
}

func (stubBank) GetAccounts(context.Context, string) ([]plaid.Account, error) {
	return nil, nil
}

type recordingSender struct{ count int }

func (r *recordingSender) Send(context.Context, email.Message) error {
	r.count++
	return nil
}

type testServer struct {
	router *gin.Engine
	users  *mockUserRepo
	goals  *mockGoalRepo
	tokens *service.JWTService
	llm    llm.LLMClient
}

func newTestServer(t *testing.T, llmClient llm.LLMClient) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	users := newMockUserRepo()
	bills := &mockBillRepo{}
	goals := &mockGoalRepo{goals: make(map[string]domain.Goal)}
	txs := &mockTransactionRepo{}
	tokens := service.NewJWTService("secret")

	userSvc := service.NewUserService(logger, users, tokens, bcrypt.MinCost)
	tfaSvc := service.NewTwoFactorService(logger, users, tokens, nil)
	spending := service.NewSpendingService(logger, stubBank{}, txs)
	bank := service.NewBankService(logger, stubBank{}, users)
	insights := service.NewInsightsService(spending, bank, goals)
	advisor := service.NewAdvisorService(logger, llmClient, goals, bills, spending)
	notifier := service.NewNotificationService(logger, users, bills, spending, &recordingSender{}, nil, time.UTC, 1)

	router := NewRouter(logger, []string{"http://localhost:3000"}, JWTAuthMiddleware(logger, tokens, userSvc), nil, Handlers{
		Users:         NewUserHandler(logger, userSvc, tfaSvc),
		Budgets:       NewBudgetHandler(logger, service.NewBudgetService(users, spending)),
		Records:       NewRecordHandler(logger, service.NewBillService(bills), service.NewGoalService(goals), service.NewTransactionService(txs)),
		Plaid:         NewPlaidHandler(logger, bank, spending, insights),
		Advisor:       NewAdvisorHandler(logger, advisor),
		Notifications: NewNotificationHandler(logger, notifier),
	})
	return &testServer{router: router, users: users, goals: goals, tokens: tokens, llm: llmClient}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// register crea un usuario y devuelve su id y token de sesion.
func (s *testServer) register(t *testing.T, email string) (string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"name": "Test", "email": email, "password": "pw",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var profile domain.Profile
	decode(t, rec, &profile)
	return profile.ID, profile.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	return body.Message
}

var errTest = errors.New("upstream quota exceeded")
