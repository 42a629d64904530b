package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lifesaving-resources/instructor-api/internal/models"
)

// ImportLogRepository records CSV import run summaries.
type ImportLogRepository struct {
	db *sqlx.DB
}

// NewImportLogRepository constructs an ImportLogRepository.
func NewImportLogRepository(db *sqlx.DB) *ImportLogRepository {
	return &ImportLogRepository{db: db}
}

// Create inserts an import run summary.
func (r *ImportLogRepository) Create(ctx context.Context, log *models.ImportLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO import_logs (id, imported, skipped, errors, error_messages, created_at)
        VALUES (:id, :imported, :skipped, :errors, :error_messages, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create import log: %w", err)
	}
	return nil
}

// ListRecent returns the most recent import runs.
func (r *ImportLogRepository) ListRecent(ctx context.Context, limit int) ([]models.ImportLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT id, imported, skipped, errors, error_messages, created_at FROM import_logs ORDER BY created_at DESC LIMIT %d`, limit)
	var logs []models.ImportLog
	if err := r.db.SelectContext(ctx, &logs, query); err != nil {
		return nil, fmt.Errorf("list import logs: %w", err)
	}
	return logs, nil
}
