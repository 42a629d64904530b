package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lifesaving-resources/instructor-api/internal/models"
)

// SubmissionRepository persists unrecognized form submissions. Every intake
// failure gets its own row keyed by a fresh ID, so concurrent webhook
// deliveries never overwrite each other.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create records an unrecognized submission.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.UnrecognizedSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.ReceivedAt.IsZero() {
		submission.ReceivedAt = time.Now().UTC()
	}
	if submission.Status == "" {
		submission.Status = models.SubmissionPending
	}
	const query = `INSERT INTO unrecognized_submissions (id, form_id, entry_id, course_type, email, status, received_at, dismissed_at)
        VALUES (:id, :form_id, :entry_id, :course_type, :email, :status, :received_at, :dismissed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create unrecognized submission: %w", err)
	}
	return nil
}

// List returns submissions newest first, optionally filtered by status.
func (r *SubmissionRepository) List(ctx context.Context, status models.SubmissionStatus) ([]models.UnrecognizedSubmission, error) {
	query := `SELECT id, form_id, entry_id, course_type, email, status, received_at, dismissed_at FROM unrecognized_submissions`
	var args []interface{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY received_at DESC"

	var submissions []models.UnrecognizedSubmission
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, fmt.Errorf("list unrecognized submissions: %w", err)
	}
	return submissions, nil
}

// Dismiss marks a pending submission as dismissed.
func (r *SubmissionRepository) Dismiss(ctx context.Context, id string, dismissedAt time.Time) error {
	const query = `UPDATE unrecognized_submissions SET status = $2, dismissed_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, models.SubmissionDismissed, dismissedAt, models.SubmissionPending)
	if err != nil {
		return fmt.Errorf("dismiss unrecognized submission: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a submission permanently.
func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM unrecognized_submissions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete unrecognized submission: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
