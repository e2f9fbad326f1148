package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pfm-backend/internal/domain"
)

var kolkata = mustLocation("Asia/Kolkata")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 5*3600+1800)
	}
	return loc
}

type panickingSpending struct {
	panicFor string
	inner    SpendingSource
}

func (p panickingSpending) CurrentSpending(ctx context.Context, user domain.User) (domain.Spending, error) {
	if user.ID == p.panicFor {
		panic("boom")
	}
	return p.inner.CurrentSpending(ctx, user)
}

type notificationFixture struct {
	users  *mockUserRepo
	bills  *mockBillRepo
	txs    *mockTransactionRepo
	sender *recordingSender
	clock  *testclock.Clock
}

func newNotificationFixture() *notificationFixture {
	return &notificationFixture{
		users:  newMockUserRepo(),
		bills:  &mockBillRepo{listErr: map[string]error{}},
		txs:    &mockTransactionRepo{},
		sender: &recordingSender{failFor: map[string]bool{}},
		clock:  testclock.NewClock(time.Date(2024, 5, 10, 9, 0, 0, 0, kolkata)),
	}
}

func (f *notificationFixture) service(spending SpendingSource) *NotificationService {
	if spending == nil {
		spending = NewSpendingService(nil, nil, f.txs)
	}
	return NewNotificationService(zap.NewNop(), f.users, f.bills, spending, f.sender, f.clock, kolkata, 2)
}

func budgetUser(id, category string, limit int64) domain.User {
	return domain.User{
		ID:          id,
		Name:        "User " + id,
		Email:       id + "@example.com",
		Budgets:     []domain.Budget{{Category: category, Limit: decimal.NewFromInt(limit)}},
		Preferences: domain.DefaultNotificationPreferences(),
	}
}

func TestNotification_BudgetAlertEndToEnd(t *testing.T) {
	f := newNotificationFixture()
	user := budgetUser("u1", "FOOD_AND_DRINK", 100)
	f.users.put(user)
	f.txs.txs = append(f.txs.txs, manualTx("u1", 95, "FOOD_AND_DRINK", domain.TransactionTypeExpense))

	n, err := f.service(nil).CheckBudgetAlerts(context.Background(), user)
	if err != nil {
		t.Fatalf("check budget alerts: %v", err)
	}
	msgs := f.sender.messages()
	if n != 1 || len(msgs) != 1 {
		t.Fatalf("expected exactly one alert, got n=%d msgs=%d", n, len(msgs))
	}
	msg := msgs[0]
	if msg.To != "u1@example.com" || msg.Subject != "Budget Alert: FOOD_AND_DRINK" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !strings.Contains(msg.Text, "$95.00 of your $100 budget for FOOD_AND_DRINK (95%)") {
		t.Fatalf("unexpected body: %q", msg.Text)
	}
}

func TestNotification_BudgetBelowThreshold(t *testing.T) {
	f := newNotificationFixture()
	user := budgetUser("u1", "FOOD_AND_DRINK", 100)
	f.txs.txs = append(f.txs.txs, manualTx("u1", 89, "FOOD_AND_DRINK", domain.TransactionTypeExpense))

	n, err := f.service(nil).CheckBudgetAlerts(context.Background(), user)
	if err != nil || n != 0 || len(f.sender.messages()) != 0 {
		t.Fatalf("expected no alert, got n=%d err=%v", n, err)
	}
}

func TestNotification_BillReminderWindow(t *testing.T) {
	f := newNotificationFixture()
	user := budgetUser("u1", "FOOD", 100)
	tomorrow := time.Date(2024, 5, 11, 0, 0, 0, 0, kolkata)
	f.bills.bills = []domain.Bill{
		{ID: "b1", UserID: "u1", Name: "Rent", Amount: decimal.NewFromInt(1200), DueDate: tomorrow},
		{ID: "b2", UserID: "u1", Name: "Power", Amount: decimal.RequireFromString("45.5"), DueDate: tomorrow.Add(24*time.Hour - time.Second)},
		{ID: "b3", UserID: "u1", Name: "Today", Amount: decimal.NewFromInt(1), DueDate: tomorrow.Add(-time.Minute)},
		{ID: "b4", UserID: "u1", Name: "Later", Amount: decimal.NewFromInt(1), DueDate: tomorrow.Add(24 * time.Hour)},
		{ID: "b5", UserID: "u2", Name: "Other", Amount: decimal.NewFromInt(1), DueDate: tomorrow},
	}

	n, err := f.service(nil).CheckBillReminders(context.Background(), user)
	if err != nil {
		t.Fatalf("check bills: %v", err)
	}
	msgs := f.sender.messages()
	if n != 2 || len(msgs) != 2 {
		t.Fatalf("expected 2 reminders, got n=%d msgs=%d", n, len(msgs))
	}
	if msgs[0].Subject != "Upcoming Bill Reminder: Rent" || msgs[1].Subject != "Upcoming Bill Reminder: Power" {
		t.Fatalf("unexpected subjects: %q %q", msgs[0].Subject, msgs[1].Subject)
	}
	if !strings.Contains(msgs[1].Text, "(Amount: $45.50) is due tomorrow, 11 May 2024") {
		t.Fatalf("unexpected body: %q", msgs[1].Text)
	}
}

func TestNotification_RespectsPreferences(t *testing.T) {
	f := newNotificationFixture()
	user := budgetUser("u1", "FOOD", 100)
	user.Preferences = domain.NotificationPreferences{}
	f.users.put(user)
	f.txs.txs = append(f.txs.txs, manualTx("u1", 500, "FOOD", domain.TransactionTypeExpense))
	f.bills.bills = []domain.Bill{{ID: "b1", UserID: "u1", Name: "Rent", DueDate: time.Date(2024, 5, 11, 8, 0, 0, 0, kolkata)}}

	report, err := f.service(nil).RunChecks(context.Background())
	if err != nil {
		t.Fatalf("run checks: %v", err)
	}
	if report.Users != 1 || len(f.sender.messages()) != 0 {
		t.Fatalf("expected no emails, got report=%+v", report)
	}
}

func TestNotification_FailureIsolation(t *testing.T) {
	f := newNotificationFixture()
	for _, id := range []string{"a", "b", "c", "d"} {
		f.users.put(budgetUser(id, "FOOD", 100))
		f.txs.txs = append(f.txs.txs, manualTx(id, 95, "FOOD", domain.TransactionTypeExpense))
	}
	f.bills.listErr["a"] = errors.New("db timeout")
	f.sender.failFor["b@example.com"] = true

	svc := f.service(panickingSpending{panicFor: "c", inner: NewSpendingService(nil, nil, f.txs)})
	report, err := svc.RunChecks(context.Background())
	if err != nil {
		t.Fatalf("run checks: %v", err)
	}
	if report.Users != 4 || report.Failures != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	// a: bills fallan pero el presupuesto igual se avisa. d: sin problemas.
	got := map[string]int{}
	for _, m := range f.sender.messages() {
		got[m.To]++
	}
	if got["a@example.com"] != 1 || got["d@example.com"] != 1 || got["b@example.com"] != 0 || got["c@example.com"] != 0 {
		t.Fatalf("unexpected deliveries: %v", got)
	}
	if report.BudgetAlerts != 2 {
		t.Fatalf("expected 2 budget alerts, got %+v", report)
	}
}

func TestNotification_NoDedupAcrossRuns(t *testing.T) {
	f := newNotificationFixture()
	f.users.put(budgetUser("u1", "FOOD", 100))
	f.txs.txs = append(f.txs.txs, manualTx("u1", 100, "FOOD", domain.TransactionTypeExpense))
	svc := f.service(nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.RunChecks(context.Background()); err != nil {
			t.Fatalf("run checks: %v", err)
		}
	}
	if n := len(f.sender.messages()); n != 2 {
		t.Fatalf("expected the alert to repeat on every run, got %d", n)
	}
}

func TestNotification_ListUsersError(t *testing.T) {
	f := newNotificationFixture()
	f.users.listErr = errors.New("db down")
	if _, err := f.service(nil).RunChecks(context.Background()); err == nil {
		t.Fatalf("expected error when users cannot be listed")
	}
}

func TestTomorrowWindow(t *testing.T) {
	now := time.Date(2024, 5, 10, 23, 30, 0, 0, time.UTC) // 11 May 05:00 en Kolkata
	from, to := tomorrowWindow(now, kolkata)
	if !from.Equal(time.Date(2024, 5, 12, 0, 0, 0, 0, kolkata)) {
		t.Fatalf("unexpected start %s", from)
	}
	if !to.Equal(time.Date(2024, 5, 12, 23, 59, 59, int(999*time.Millisecond), kolkata)) {
		t.Fatalf("unexpected end %s", to)
	}
}
