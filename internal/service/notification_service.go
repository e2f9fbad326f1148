package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/email"
	"pfm-backend/internal/repository"
)

// NotificationService recorre los usuarios y envia recordatorios de facturas y alertas de presupuesto.
// No deduplica: cada corrida vuelve a enviar lo que corresponda.
type NotificationService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	bills    repository.BillRepository
	spending SpendingSource
	sender   email.Sender
	clock    clock.Clock
	loc      *time.Location
	workers  int
}

// RunReport resume una corrida.
type RunReport struct {
	Users         int `json:"users"`
	BillReminders int `json:"billReminders"`
	BudgetAlerts  int `json:"budgetAlerts"`
	Failures      int `json:"failures"`
}

func NewNotificationService(
	logger *zap.Logger,
	users repository.UserRepository,
	bills repository.BillRepository,
	spending SpendingSource,
	sender email.Sender,
	clk clock.Clock,
	loc *time.Location,
	workers int,
) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.WallClock
	}
	if loc == nil {
		loc = time.UTC
	}
	if workers <= 0 {
		workers = 1
	}
	return &NotificationService{
		logger:   logger,
		users:    users,
		bills:    bills,
		spending: spending,
		sender:   sender,
		clock:    clk,
		loc:      loc,
		workers:  workers,
	}
}

// RunChecks procesa cada usuario en forma aislada: el fallo de uno no frena al resto.
// Solo devuelve error si no pudo listar usuarios.
func (s *NotificationService) RunChecks(ctx context.Context) (RunReport, error) {
	s.logger.Info("running daily notification checks")
	users, err := s.users.List(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("list users: %w", err)
	}

	var (
		mu     sync.Mutex
		report = RunReport{Users: len(users)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, u := range users {
		g.Go(func() error {
			bills, budgets, err := s.processUser(gctx, u)
			mu.Lock()
			report.BillReminders += bills
			report.BudgetAlerts += budgets
			if err != nil {
				report.Failures++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("daily checks complete",
		zap.Int("users", report.Users),
		zap.Int("bill_reminders", report.BillReminders),
		zap.Int("budget_alerts", report.BudgetAlerts),
		zap.Int("failures", report.Failures),
	)
	return report, nil
}

func (s *NotificationService) processUser(ctx context.Context, user domain.User) (bills, budgets int, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notification check panicked", zap.String("user_id", user.ID), zap.Any("panic", r))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	var errs []error
	if user.Preferences.SendBillAlerts {
		n, billErr := s.CheckBillReminders(ctx, user)
		bills = n
		if billErr != nil {
			s.logger.Error("bill reminder check failed", zap.String("user_id", user.ID), zap.Error(billErr))
			errs = append(errs, billErr)
		}
	}
	if user.Preferences.SendBudgetAlerts {
		n, budgetErr := s.CheckBudgetAlerts(ctx, user)
		budgets = n
		if budgetErr != nil {
			s.logger.Error("budget alert check failed", zap.String("user_id", user.ID), zap.Error(budgetErr))
			errs = append(errs, budgetErr)
		}
	}
	return bills, budgets, errors.Join(errs...)
}

// CheckBillReminders avisa de cada factura que vence manana (dia completo en la zona configurada).
func (s *NotificationService) CheckBillReminders(ctx context.Context, user domain.User) (int, error) {
	from, to := tomorrowWindow(s.clock.Now(), s.loc)
	bills, err := s.bills.ListDueBetween(ctx, user.ID, from, to)
	if err != nil {
		return 0, err
	}
	sent := 0
	var errs []error
	for _, bill := range bills {
		s.logger.Info("sending bill reminder", zap.String("user_id", user.ID), zap.String("bill", bill.Name))
		if err := s.sender.Send(ctx, billReminderMessage(user, bill, s.loc)); err != nil {
			errs = append(errs, fmt.Errorf("bill %s: %w", bill.ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// CheckBudgetAlerts avisa de cada presupuesto con gasto >= 90% del limite.
func (s *NotificationService) CheckBudgetAlerts(ctx context.Context, user domain.User) (int, error) {
	if len(user.Budgets) == 0 {
		return 0, nil
	}
	spending, err := s.spending.CurrentSpending(ctx, user)
	if err != nil {
		return 0, err
	}
	sent := 0
	var errs []error
	for _, budget := range user.Budgets {
		spent := spending.Spent(budget.Category)
		if !overThreshold(spent, budget.Limit) {
			continue
		}
		s.logger.Info("sending budget alert", zap.String("user_id", user.ID), zap.String("category", budget.Category))
		if err := s.sender.Send(ctx, budgetAlertMessage(user, budget, spent)); err != nil {
			errs = append(errs, fmt.Errorf("budget %s: %w", budget.Category, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// tomorrowWindow devuelve [00:00:00, 23:59:59.999] del dia siguiente a now en loc.
func tomorrowWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

func billReminderMessage(user domain.User, bill domain.Bill, loc *time.Location) email.Message {
	due := bill.DueDate.In(loc).Format("02 Jan 2006")
	amount := bill.Amount.StringFixed(2)
	return email.Message{
		To:      user.Email,
		Subject: "Upcoming Bill Reminder: " + bill.Name,
		Text: fmt.Sprintf("Hi %s,\n\nThis is a reminder that your bill for %s (Amount: $%s) is due tomorrow, %s.\n\n- PFM Dashboard",
			user.Name, bill.Name, amount, due),
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>This is a reminder that your bill for <b>%s</b> (Amount: <b>$%s</b>) is due tomorrow, %s.</p><p>- PFM Dashboard</p>",
			user.Name, bill.Name, amount, due),
	}
}

func budgetAlertMessage(user domain.User, budget domain.Budget, spent decimal.Decimal) email.Message {
	pct := percentOf(spent, budget.Limit).String()
	return email.Message{
		To:      user.Email,
		Subject: "Budget Alert: " + budget.Category,
		Text: fmt.Sprintf("Hi %s,\n\nYou have spent $%s of your $%s budget for %s (%s%%).\n\n- PFM Dashboard",
			user.Name, spent.StringFixed(2), budget.Limit.String(), budget.Category, pct),
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>You have spent <b>$%s</b> of your <b>$%s</b> budget for %s (<b>%s%%</b>).</p><p>- PFM Dashboard</p>",
			user.Name, spent.StringFixed(2), budget.Limit.String(), budget.Category, pct),
	}
}
