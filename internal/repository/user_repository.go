package repository

import (
	"context"
	"errors"
	"time"

	"github.com/evently/evently/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, req *domain.SignupRequest, passwordHash, otpCode string, otpExpiresAt time.Time) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	MarkVerified(ctx context.Context, email, otpCode string) (bool, error)
	SetOTP(ctx context.Context, email, otpCode string, otpExpiresAt time.Time) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	ListEmails(ctx context.Context) ([]string, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, role, email, password_hash, full_name, phone, is_verified, otp_code, otp_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Role, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone,
		&u.IsVerified, &u.OTPCode, &u.OTPExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, req *domain.SignupRequest, passwordHash, otpCode string, otpExpiresAt time.Time) (*domain.User, error) {
	const q = `
		INSERT INTO users (role, email, password_hash, full_name, phone, is_verified, otp_code, otp_expires_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, $7)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, req.Role, req.Email, passwordHash, req.FullName, req.Phone, otpCode, otpExpiresAt))
	if err != nil {
		// The unique constraint is the source of truth for duplicate emails;
		// the pre-check in the service can race against a concurrent insert.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrEmailInUse
		}
		return nil, err
	}

	return u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// MarkVerified flips the verification flag and clears the OTP columns in a
// single statement guarded by the submitted code. A second submission of the
// same code matches no row, which makes consumption single-use.
func (r *userRepository) MarkVerified(ctx context.Context, email, otpCode string) (bool, error) {
	const q = `
		UPDATE users
		SET is_verified = true, otp_code = NULL, otp_expires_at = NULL, updated_at = now()
		WHERE email = $1 AND otp_code = $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, email, otpCode)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}

func (r *userRepository) SetOTP(ctx context.Context, email, otpCode string, otpExpiresAt time.Time) error {
	const q = `
		UPDATE users
		SET otp_code = $2, otp_expires_at = $3, updated_at = now()
		WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, email, otpCode, otpExpiresAt)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = now() WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, email, passwordHash)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *userRepository) ListEmails(ctx context.Context) ([]string, error) {
	const q = `SELECT email FROM users WHERE is_verified = true ORDER BY id`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}
