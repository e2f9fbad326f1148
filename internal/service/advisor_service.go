package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pfm-backend/internal/domain"
	"pfm-backend/internal/llm"
	"pfm-backend/internal/repository"
)

// AdvisorService arma el perfil financiero del usuario y consulta al LLM.
type AdvisorService struct {
	logger   *zap.Logger
	llm      llm.LLMClient
	goals    repository.GoalRepository
	bills    repository.BillRepository
	spending SpendingSource
}

func NewAdvisorService(logger *zap.Logger, client llm.LLMClient, goals repository.GoalRepository, bills repository.BillRepository, spending SpendingSource) *AdvisorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = llm.NewDisabledClient()
	}
	return &AdvisorService{logger: logger, llm: client, goals: goals, bills: bills, spending: spending}
}

func (s *AdvisorService) Ask(ctx context.Context, user domain.User, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", validationError("Please ask a question.")
	}
	goals, err := s.goals.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	bills, err := s.bills.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	spending, err := s.spending.CurrentSpending(ctx, user)
	if err != nil {
		return "", err
	}

	prompt, err := buildAdvisorPrompt(user, goals, bills, spending, question)
	if err != nil {
		return "", err
	}
	answer, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return "", ErrAdvisorUnavailable
		}
		s.logger.Error("advisor generate failed", zap.String("user_id", user.ID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return answer, nil
}

func buildAdvisorPrompt(user domain.User, goals []domain.Goal, bills []domain.Bill, spending domain.Spending, question string) (string, error) {
	budgets := user.Budgets
	if budgets == nil {
		budgets = []domain.Budget{}
	}
	sections := []struct {
		label string
		value any
	}{
		{"Budgets", budgets},
		{"Savings Goals", goals},
		{"Upcoming Bills", bills},
		{"Recent Spending Summary", spending},
	}

	var b strings.Builder
	b.WriteString("You are \"Veritas\", a professional and friendly AI financial advisor for a Personal Finance Management app.\n")
	b.WriteString("Analyze the user's financial profile below and answer their question directly in 2-3 short sentences.\n")
	b.WriteString("Do not just repeat the data; give actionable insights.\n\n")
	b.WriteString("USER'S FINANCIAL PROFILE:\n")
	fmt.Fprintf(&b, "User Name: %s\n", user.Name)
	for _, sec := range sections {
		raw, err := json.Marshal(sec.value)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s: %s\n", sec.label, raw)
	}
	fmt.Fprintf(&b, "\nUSER'S QUESTION:\n%q\n", question)
	return b.String(), nil
}
