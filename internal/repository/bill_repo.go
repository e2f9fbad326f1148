package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pfm-backend/internal/domain"
)

type BillRepository interface {
	Create(ctx context.Context, bill domain.Bill) error
	ListByUser(ctx context.Context, userID string) ([]domain.Bill, error)
	// ListDueBetween devuelve las facturas con vencimiento en [from, to].
	ListDueBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Bill, error)
}

type PgBillRepository struct {
	pool *pgxpool.Pool
}

func NewPgBillRepository(pool *pgxpool.Pool) *PgBillRepository {
	return &PgBillRepository{pool: pool}
}

func (r *PgBillRepository) Create(ctx context.Context, bill domain.Bill) error {
	const query = `
		INSERT INTO bills (id, user_id, name, amount, due_date, is_recurring, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		bill.ID,
		bill.UserID,
		bill.Name,
		bill.Amount,
		bill.DueDate,
		bill.IsRecurring,
		bill.Category,
		bill.CreatedAt,
	)
	return err
}

func (r *PgBillRepository) ListByUser(ctx context.Context, userID string) ([]domain.Bill, error) {
	const query = `
		SELECT id, user_id, name, amount, due_date, is_recurring, category, created_at, updated_at
		FROM bills
		WHERE user_id = $1
		ORDER BY due_date ASC
	`
	return r.query(ctx, query, userID)
}

func (r *PgBillRepository) ListDueBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Bill, error) {
	const query = `
		SELECT id, user_id, name, amount, due_date, is_recurring, category, created_at, updated_at
		FROM bills
		WHERE user_id = $1 AND due_date >= $2 AND due_date <= $3
		ORDER BY due_date ASC
	`
	return r.query(ctx, query, userID, from, to)
}

func (r *PgBillRepository) query(ctx context.Context, query string, args ...any) ([]domain.Bill, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Bill, error) {
		var b domain.Bill
		err := row.Scan(
			&b.ID,
			&b.UserID,
			&b.Name,
			&b.Amount,
			&b.DueDate,
			&b.IsRecurring,
			&b.Category,
			&b.CreatedAt,
			&b.UpdatedAt,
		)
		return b, err
	})
}
