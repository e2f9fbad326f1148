package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pfm-backend/internal/domain"
)

// TransactionRepository persiste los movimientos cargados a mano.
type TransactionRepository interface {
	Create(ctx context.Context, tx domain.Transaction) error
	ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
}

type PgTransactionRepository struct {
	pool *pgxpool.Pool
}

func NewPgTransactionRepository(pool *pgxpool.Pool) *PgTransactionRepository {
	return &PgTransactionRepository{pool: pool}
}

func (r *PgTransactionRepository) Create(ctx context.Context, tx domain.Transaction) error {
	const query = `
		INSERT INTO transactions (id, user_id, name, amount, category, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Name,
		tx.Amount,
		tx.Category,
		tx.Type,
		tx.CreatedAt,
	)
	return err
}

func (r *PgTransactionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	const query = `
		SELECT id, user_id, name, amount, category, type, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		var t domain.Transaction
		err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Amount, &t.Category, &t.Type, &t.CreatedAt)
		return t, err
	})
}
