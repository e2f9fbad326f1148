package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pfm-backend/internal/domain"
)

// ErrDuplicateEmail se devuelve cuando el indice unico de email rechaza el insert.
var ErrDuplicateEmail = errors.New("email already registered")

const uniqueViolation = "23505"

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id, name string, prefs domain.NotificationPreferences) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateBudgets(ctx context.Context, id string, budgets []domain.Budget) error
	SetPlaidCredentials(ctx context.Context, id, accessToken, itemID string) error
	SetTwoFactorSecret(ctx context.Context, id string, secret domain.TwoFactorSecret) error
	EnableTwoFactor(ctx context.Context, id string) error
	DisableTwoFactor(ctx context.Context, id string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `
	id, name, email, password_hash,
	COALESCE(plaid_access_token, ''), COALESCE(plaid_item_id, ''),
	budgets, send_bill_alerts, send_budget_alerts,
	two_factor_base32, two_factor_otpauth, two_factor_enabled,
	created_at, updated_at
`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, name, email, password_hash, budgets, send_bill_alerts, send_budget_alerts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	budgets := user.Budgets
	if budgets == nil {
		budgets = []domain.Budget{}
	}
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		budgets,
		user.Preferences.SendBillAlerts,
		user.Preferences.SendBudgetAlerts,
		user.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PgUserRepository) UpdateProfile(ctx context.Context, id, name string, prefs domain.NotificationPreferences) error {
	const query = `
		UPDATE users
		SET name = $2, send_bill_alerts = $3, send_budget_alerts = $4, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, name, prefs.SendBillAlerts, prefs.SendBudgetAlerts)
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PgUserRepository) UpdateBudgets(ctx context.Context, id string, budgets []domain.Budget) error {
	const query = `UPDATE users SET budgets = $2, updated_at = now() WHERE id = $1`
	if budgets == nil {
		budgets = []domain.Budget{}
	}
	return r.execOne(ctx, query, id, budgets)
}

func (r *PgUserRepository) SetPlaidCredentials(ctx context.Context, id, accessToken, itemID string) error {
	const query = `
		UPDATE users SET plaid_access_token = $2, plaid_item_id = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, accessToken, itemID)
}

// SetTwoFactorSecret guarda un secreto pendiente de verificacion; siempre deja 2FA desactivado.
func (r *PgUserRepository) SetTwoFactorSecret(ctx context.Context, id string, secret domain.TwoFactorSecret) error {
	const query = `
		UPDATE users
		SET two_factor_base32 = $2, two_factor_otpauth = $3, two_factor_enabled = FALSE, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, secret.Base32, secret.OTPAuthURL)
}

func (r *PgUserRepository) EnableTwoFactor(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET two_factor_enabled = TRUE, updated_at = now()
		WHERE id = $1 AND two_factor_base32 IS NOT NULL
	`
	return r.execOne(ctx, query, id)
}

// DisableTwoFactor borra secreto y flag en un solo UPDATE.
func (r *PgUserRepository) DisableTwoFactor(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET two_factor_base32 = NULL, two_factor_otpauth = NULL, two_factor_enabled = FALSE, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id)
}

func (r *PgUserRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u       domain.User
		base32  *string
		otpauth *string
	)
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.PlaidAccessToken,
		&u.PlaidItemID,
		&u.Budgets,
		&u.Preferences.SendBillAlerts,
		&u.Preferences.SendBudgetAlerts,
		&base32,
		&otpauth,
		&u.IsTwoFactorEnabled,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if base32 != nil {
		u.TwoFactorSecret = &domain.TwoFactorSecret{Base32: *base32}
		if otpauth != nil {
			u.TwoFactorSecret.OTPAuthURL = *otpauth
		}
	}
	return u, nil
}
