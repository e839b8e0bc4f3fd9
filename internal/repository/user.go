package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
)

const userColumns = `
id::text, name, email, password_hash, is_account_verified,
verify_otp_hash, verify_otp_expire_at, verify_otp_attempts,
reset_otp_hash, reset_otp_expire_at, reset_otp_attempts,
reset_authorized_until, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAccountVerified,
		&u.VerifyOTPHash, &u.VerifyOTPExpireAt, &u.VerifyOTPAttempts,
		&u.ResetOTPHash, &u.ResetOTPExpireAt, &u.ResetOTPAttempts,
		&u.ResetAuthorizedUntil, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u, assigning its id and timestamps.
func (r *Repository) CreateUser(ctx context.Context, u *model.User) error {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	const q = `
INSERT INTO users (id, name, email, password_hash, is_account_verified, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.db.Exec(ctx, q, u.UserID, u.Name, u.Email, u.PasswordHash, u.IsAccountVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user by id: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all users, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdateUser(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	const q = `
UPDATE users SET
	name = $2, email = $3, password_hash = $4, is_account_verified = $5,
	verify_otp_hash = $6, verify_otp_expire_at = $7, verify_otp_attempts = $8,
	reset_otp_hash = $9, reset_otp_expire_at = $10, reset_otp_attempts = $11,
	reset_authorized_until = $12, updated_at = $13
WHERE id = $1
`
	tag, err := r.db.Exec(ctx, q,
		u.UserID, u.Name, u.Email, u.PasswordHash, u.IsAccountVerified,
		u.VerifyOTPHash, u.VerifyOTPExpireAt, u.VerifyOTPAttempts,
		u.ResetOTPHash, u.ResetOTPExpireAt, u.ResetOTPAttempts,
		u.ResetAuthorizedUntil, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// The counter and the discard happen in one statement so concurrent guesses
// cannot overwrite each other's count.
var otpFailureQueries = map[model.OTPPurpose]string{
	model.OTPVerify: `
UPDATE users SET
	verify_otp_attempts = verify_otp_attempts + 1,
	verify_otp_hash = CASE WHEN verify_otp_attempts + 1 >= $2 THEN '' ELSE verify_otp_hash END,
	verify_otp_expire_at = CASE WHEN verify_otp_attempts + 1 >= $2 THEN NULL ELSE verify_otp_expire_at END,
	updated_at = now()
WHERE id = $1
RETURNING verify_otp_attempts`,
	model.OTPReset: `
UPDATE users SET
	reset_otp_attempts = reset_otp_attempts + 1,
	reset_otp_hash = CASE WHEN reset_otp_attempts + 1 >= $2 THEN '' ELSE reset_otp_hash END,
	reset_otp_expire_at = CASE WHEN reset_otp_attempts + 1 >= $2 THEN NULL ELSE reset_otp_expire_at END,
	updated_at = now()
WHERE id = $1
RETURNING reset_otp_attempts`,
}

func (r *Repository) RecordOTPFailure(ctx context.Context, userID string, purpose model.OTPPurpose, limit int) (int, error) {
	q, ok := otpFailureQueries[purpose]
	if !ok {
		return 0, fmt.Errorf("unknown otp purpose %q", purpose)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return 0, ErrNotFound
	}
	var attempts int
	if err := r.db.QueryRow(ctx, q, userID, limit).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("record otp failure: %w", err)
	}
	return attempts, nil
}
