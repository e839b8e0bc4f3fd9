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

const interviewColumns = `
id::text, user_id::text, mode, role, language, experience, job_description,
round, difficulty, duration, responses, score, feedback, version,
created_at, updated_at`

func scanInterview(row pgx.Row) (*model.Interview, error) {
	var iv model.Interview
	err := row.Scan(
		&iv.InterviewID, &iv.UserID, &iv.Mode, &iv.Role, &iv.Language, &iv.Experience, &iv.JobDescription,
		&iv.Round, &iv.Difficulty, &iv.Duration, &iv.Responses, &iv.Score, &iv.Feedback, &iv.Version,
		&iv.CreatedAt, &iv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

func responsesOrEmpty(rs []model.MockResponse) []model.MockResponse {
	if rs == nil {
		return []model.MockResponse{}
	}
	return rs
}

// CreateInterview inserts iv. A client supplied id that already exists
// yields ErrDuplicateInterview.
func (r *Repository) CreateInterview(ctx context.Context, iv *model.Interview) error {
	if iv.InterviewID == "" {
		iv.InterviewID = uuid.NewString()
	}
	now := time.Now().UTC()
	iv.CreatedAt, iv.UpdatedAt = now, now
	iv.Responses = responsesOrEmpty(iv.Responses)

	const q = `
INSERT INTO interviews (
	id, user_id, mode, role, language, experience, job_description,
	round, difficulty, duration, responses, score, feedback, version,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`
	_, err := r.db.Exec(ctx, q,
		iv.InterviewID, iv.UserID, iv.Mode, iv.Role, iv.Language, iv.Experience, iv.JobDescription,
		iv.Round, iv.Difficulty, iv.Duration, iv.Responses, iv.Score, iv.Feedback, iv.Version,
		iv.CreatedAt, iv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateInterview
		}
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

func (r *Repository) GetInterviewByID(ctx context.Context, id string) (*model.Interview, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	iv, err := scanInterview(r.db.QueryRow(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan interview: %w", err)
	}
	return iv, nil
}

func (r *Repository) ListInterviewByUser(ctx context.Context, userID string, limit, offset int) ([]model.Interview, int, error) {
	var total int
	const countQ = `SELECT COUNT(1) FROM interviews WHERE user_id = $1`
	if err := r.db.QueryRow(ctx, countQ, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count interview: %w", err)
	}

	q := `SELECT ` + interviewColumns + ` FROM interviews WHERE user_id = $1
ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query interview: %w", err)
	}
	defer rows.Close()

	out := make([]model.Interview, 0, limit)
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan interview row: %w", err)
		}
		out = append(out, *iv)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, total, nil
}

// UpdateInterview locks the row for the duration of fn.
func (r *Repository) UpdateInterview(ctx context.Context, id string, fn func(*model.Interview) error) (*model.Interview, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var updated *model.Interview
	err := r.execTx(ctx, func(tx pgx.Tx) error {
		iv, err := scanInterview(tx.QueryRow(ctx,
			`SELECT `+interviewColumns+` FROM interviews WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock interview: %w", err)
		}

		if err := fn(iv); err != nil {
			return err
		}
		iv.Version++
		iv.UpdatedAt = time.Now().UTC()
		iv.Responses = responsesOrEmpty(iv.Responses)

		const q = `
UPDATE interviews
SET responses = $2, score = $3, feedback = $4, version = $5, updated_at = $6
WHERE id = $1
`
		if _, err := tx.Exec(ctx, q, iv.InterviewID, iv.Responses, iv.Score, iv.Feedback, iv.Version, iv.UpdatedAt); err != nil {
			return fmt.Errorf("update interview: %w", err)
		}
		updated = iv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
