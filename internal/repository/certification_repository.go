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

// CertificationRepository persists original certifications, recertification
// events and the per-discipline certification tags.
type CertificationRepository struct {
	db *sqlx.DB
}

// NewCertificationRepository constructs a CertificationRepository.
func NewCertificationRepository(db *sqlx.DB) *CertificationRepository {
	return &CertificationRepository{db: db}
}

// Find returns the original certification for an instructor and discipline,
// or sql.ErrNoRows when none was recorded.
func (r *CertificationRepository) Find(ctx context.Context, instructorID string, discipline models.Discipline) (*models.Certification, error) {
	const query = `SELECT instructor_id, discipline, original_date, training_location FROM instructor_certifications WHERE instructor_id = $1 AND discipline = $2 LIMIT 1`
	var cert models.Certification
	if err := r.db.GetContext(ctx, &cert, query, instructorID, discipline); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find certification: %w", err)
	}
	return &cert, nil
}

// Upsert writes the original certification, replacing any prior record for
// the instructor and discipline.
func (r *CertificationRepository) Upsert(ctx context.Context, cert *models.Certification) error {
	const query = `INSERT INTO instructor_certifications (instructor_id, discipline, original_date, training_location)
        VALUES (:instructor_id, :discipline, :original_date, :training_location)
        ON CONFLICT (instructor_id, discipline) DO UPDATE SET original_date = EXCLUDED.original_date, training_location = EXCLUDED.training_location`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		return fmt.Errorf("upsert certification: %w", err)
	}
	return nil
}

// ListEvents returns the recertification events for an instructor and
// discipline ordered by event date descending.
func (r *CertificationRepository) ListEvents(ctx context.Context, instructorID string, discipline models.Discipline) ([]models.RecertificationEvent, error) {
	const query = `SELECT id, instructor_id, discipline, event_date, expiration, notes, created_at FROM recertification_events WHERE instructor_id = $1 AND discipline = $2 ORDER BY event_date DESC, created_at DESC`
	var events []models.RecertificationEvent
	if err := r.db.SelectContext(ctx, &events, query, instructorID, discipline); err != nil {
		return nil, fmt.Errorf("list recertification events: %w", err)
	}
	return events, nil
}

// AddEvent inserts a recertification event.
func (r *CertificationRepository) AddEvent(ctx context.Context, event *models.RecertificationEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO recertification_events (id, instructor_id, discipline, event_date, expiration, notes, created_at)
        VALUES (:id, :instructor_id, :discipline, :event_date, :expiration, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("add recertification event: %w", err)
	}
	return nil
}

// DeleteEvent removes a recertification event by ID.
func (r *CertificationRepository) DeleteEvent(ctx context.Context, id string) error {
	const query = `DELETE FROM recertification_events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete recertification event: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// EnsureTag set-adds a discipline tag for the instructor. Re-tagging an
// already tagged discipline is a no-op.
func (r *CertificationRepository) EnsureTag(ctx context.Context, instructorID string, discipline models.Discipline) error {
	const query = `INSERT INTO instructor_certification_tags (instructor_id, discipline, created_at) VALUES ($1, $2, $3) ON CONFLICT (instructor_id, discipline) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, instructorID, discipline, time.Now().UTC()); err != nil {
		return fmt.Errorf("ensure certification tag: %w", err)
	}
	return nil
}

// Tags returns the disciplines tagged for the instructor.
func (r *CertificationRepository) Tags(ctx context.Context, instructorID string) ([]models.Discipline, error) {
	const query = `SELECT discipline FROM instructor_certification_tags WHERE instructor_id = $1 ORDER BY discipline`
	var tags []models.Discipline
	if err := r.db.SelectContext(ctx, &tags, query, instructorID); err != nil {
		return nil, fmt.Errorf("list certification tags: %w", err)
	}
	return tags, nil
}
