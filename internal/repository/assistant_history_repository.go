package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lifesaving-resources/instructor-api/internal/models"
)

// AssistantHistoryRepository persists the append-only assistant ledger.
type AssistantHistoryRepository struct {
	db *sqlx.DB
}

// NewAssistantHistoryRepository constructs an AssistantHistoryRepository.
func NewAssistantHistoryRepository(db *sqlx.DB) *AssistantHistoryRepository {
	return &AssistantHistoryRepository{db: db}
}

// Create appends an assistant occurrence.
func (r *AssistantHistoryRepository) Create(ctx context.Context, entry *models.AssistantHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assistant_history (id, instructor_id, lead_instructor_id, course_date, course_type, location, created_at)
        VALUES (:id, :instructor_id, :lead_instructor_id, :course_date, :course_type, :location, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create assistant entry: %w", err)
	}
	return nil
}

// ListByAssistant returns entries where the instructor assisted, newest
// first, optionally limited to one discipline.
func (r *AssistantHistoryRepository) ListByAssistant(ctx context.Context, instructorID string, discipline models.Discipline) ([]models.AssistantHistoryEntry, error) {
	query := `SELECT id, instructor_id, lead_instructor_id, course_date, course_type, location, created_at FROM assistant_history WHERE instructor_id = $1`
	args := []interface{}{instructorID}
	if discipline != "" {
		query += " AND course_type = $2"
		args = append(args, discipline)
	}
	query += " ORDER BY course_date DESC, created_at DESC"

	var entries []models.AssistantHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list assistant entries: %w", err)
	}
	return entries, nil
}

// ListByLead returns entries where the instructor led a course that had an
// assistant, newest first.
func (r *AssistantHistoryRepository) ListByLead(ctx context.Context, leadInstructorID string) ([]models.AssistantHistoryEntry, error) {
	const query = `SELECT id, instructor_id, lead_instructor_id, course_date, course_type, location, created_at FROM assistant_history WHERE lead_instructor_id = $1 ORDER BY course_date DESC, created_at DESC`
	var entries []models.AssistantHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, leadInstructorID); err != nil {
		return nil, fmt.Errorf("list lead assistant entries: %w", err)
	}
	return entries, nil
}
