package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pfm-backend/internal/domain"
)

func TestGoalService_CreateAndUpdate(t *testing.T) {
	repo := newMockGoalRepo()
	svc := NewGoalService(repo)
	ctx := context.Background()

	var verr *ValidationError
	if _, err := svc.Create(ctx, "u1", GoalInput{Name: "Trip"}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error without target, got %v", err)
	}

	goal, err := svc.Create(ctx, "u1", GoalInput{Name: "Trip", TargetAmount: decimal.NewFromInt(1000)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	current := decimal.NewFromInt(250)
	updated, err := svc.Update(ctx, "u1", goal.ID, GoalUpdate{CurrentAmount: &current})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.CurrentAmount.Equal(current) || updated.Name != "Trip" {
		t.Fatalf("unexpected goal: %+v", updated)
	}

	if _, err := svc.Update(ctx, "u2", goal.ID, GoalUpdate{CurrentAmount: &current}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other user, got %v", err)
	}
	if _, err := svc.Update(ctx, "u1", "missing", GoalUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBillService_Create(t *testing.T) {
	repo := &mockBillRepo{}
	svc := NewBillService(repo)
	ctx := context.Background()

	bill, err := svc.Create(ctx, "u1", BillInput{Name: "Internet", Amount: decimal.NewFromInt(40), DueDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if bill.Category != domain.DefaultBillCategory {
		t.Fatalf("expected default category, got %q", bill.Category)
	}
	var verr *ValidationError
	if _, err := svc.Create(ctx, "u1", BillInput{Name: "No date", Amount: decimal.NewFromInt(1)}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	bills, _ := svc.List(ctx, "u1")
	if len(bills) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(bills))
	}
}

func TestTransactionService_CreateAndExport(t *testing.T) {
	repo := &mockTransactionRepo{}
	svc := NewTransactionService(repo)
	ctx := context.Background()

	var verr *ValidationError
	if _, err := svc.Create(ctx, "u1", TransactionInput{Name: "x", Amount: decimal.NewFromInt(1), Type: "transfer"}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for bad type, got %v", err)
	}
	tx, err := svc.Create(ctx, "u1", TransactionInput{Name: "Lunch, downtown", Amount: decimal.RequireFromString("12.5"), Type: "Expense"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Type != domain.TransactionTypeExpense || tx.Category != domain.UncategorizedCategory {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, "u1", &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "date,name,category,type,amount" {
		t.Fatalf("unexpected csv: %q", buf.String())
	}
	if !strings.HasSuffix(lines[1], `,"Lunch, downtown",UNCATEGORIZED,expense,12.50`) {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestBankService(t *testing.T) {
	users := newMockUserRepo()
	users.put(domain.User{ID: "u1", Email: "a@example.com"})
	bank := &mockBank{access: plaidAccess("access-1", "item-1")}
	svc := NewBankService(nil, bank, users)
	ctx := context.Background()

	if err := svc.ExchangePublicToken(ctx, "u1", "public-sandbox"); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	stored, _ := users.GetByID(ctx, "u1")
	if stored.PlaidAccessToken != "access-1" || stored.PlaidItemID != "item-1" {
		t.Fatalf("expected credentials persisted, got %+v", stored)
	}

	txs, err := svc.Transactions(ctx, domain.User{ID: "u2"})
	if err != nil || txs == nil || len(txs) != 0 {
		t.Fatalf("expected empty list for unlinked user, got %v err=%v", txs, err)
	}

	bank.err = errors.New("plaid 500")
	if _, err := svc.Accounts(ctx, stored); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
