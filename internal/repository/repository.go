package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrDuplicateInterview = errors.New("interview already exists")
	// ErrConcurrentUpdate means an interview kept changing underneath an
	// update until the retries ran out.
	ErrConcurrentUpdate = errors.New("interview modified concurrently")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// UpdateUser saves every mutable field of u and bumps updated_at.
	UpdateUser(ctx context.Context, u *model.User) error
	// RecordOTPFailure counts a wrong guess at the pending code for purpose
	// and returns the new count. Once the count reaches limit the code is
	// discarded.
	RecordOTPFailure(ctx context.Context, userID string, purpose model.OTPPurpose, limit int) (int, error)
}

type InterviewStore interface {
	CreateInterview(ctx context.Context, iv *model.Interview) error
	GetInterviewByID(ctx context.Context, id string) (*model.Interview, error)
	ListInterviewByUser(ctx context.Context, userID string, limit, offset int) ([]model.Interview, int, error)
	// UpdateInterview loads the interview, lets fn change its responses,
	// score and feedback, and saves the result atomically. An error from fn
	// aborts the update and is returned as is.
	UpdateInterview(ctx context.Context, id string, fn func(*model.Interview) error) (*model.Interview, error)
}

// Store is everything the handlers persist.
type Store interface {
	UserStore
	InterviewStore
	Ping(ctx context.Context) error
}

// Repository is the PostgreSQL store.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *Repository) execTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// isUniqueViolation reports a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
