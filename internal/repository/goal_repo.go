package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pfm-backend/internal/domain"
)

type GoalRepository interface {
	Create(ctx context.Context, goal domain.Goal) error
	GetByID(ctx context.Context, id string) (domain.Goal, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Goal, error)
	Update(ctx context.Context, goal domain.Goal) error
}

type PgGoalRepository struct {
	pool *pgxpool.Pool
}

func NewPgGoalRepository(pool *pgxpool.Pool) *PgGoalRepository {
	return &PgGoalRepository{pool: pool}
}

const goalColumns = `id, user_id, name, target_amount, current_amount, deadline, created_at, updated_at`

func (r *PgGoalRepository) Create(ctx context.Context, goal domain.Goal) error {
	const query = `
		INSERT INTO goals (id, user_id, name, target_amount, current_amount, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.Deadline,
		goal.CreatedAt,
	)
	return err
}

func (r *PgGoalRepository) GetByID(ctx context.Context, id string) (domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`
	return scanGoal(r.pool.QueryRow(ctx, query, id))
}

func (r *PgGoalRepository) ListByUser(ctx context.Context, userID string) ([]domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Goal, error) {
		return scanGoal(row)
	})
}

func (r *PgGoalRepository) Update(ctx context.Context, goal domain.Goal) error {
	const query = `
		UPDATE goals
		SET name = $2, target_amount = $3, current_amount = $4, deadline = $5, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		goal.ID,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.Deadline,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanGoal(row pgx.Row) (domain.Goal, error) {
	var g domain.Goal
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.Name,
		&g.TargetAmount,
		&g.CurrentAmount,
		&g.Deadline,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	return g, err
}
