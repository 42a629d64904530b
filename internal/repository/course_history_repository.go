package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lifesaving-resources/instructor-api/internal/models"
)

// CourseHistoryRepository persists the append-only course ledger.
type CourseHistoryRepository struct {
	db *sqlx.DB
}

// NewCourseHistoryRepository constructs a CourseHistoryRepository.
func NewCourseHistoryRepository(db *sqlx.DB) *CourseHistoryRepository {
	return &CourseHistoryRepository{db: db}
}

// Create appends a course occurrence. Duplicate submissions produce duplicate
// rows; the ledger records what was delivered, not what was distinct.
func (r *CourseHistoryRepository) Create(ctx context.Context, entry *models.CourseHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_history (id, instructor_id, course_type, course_date, location, hours, participants_data, form_id, form_entry_id, assistant_id, created_at)
        VALUES (:id, :instructor_id, :course_type, :course_date, :location, :hours, :participants_data, :form_id, :form_entry_id, :assistant_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create course entry: %w", err)
	}
	return nil
}

// ListByInstructor returns an instructor's courses newest first, optionally
// limited to one discipline.
func (r *CourseHistoryRepository) ListByInstructor(ctx context.Context, instructorID string, discipline models.Discipline) ([]models.CourseHistoryEntry, error) {
	query := `SELECT id, instructor_id, course_type, course_date, location, hours, participants_data, form_id, form_entry_id, assistant_id, created_at FROM course_history WHERE instructor_id = $1`
	args := []interface{}{instructorID}
	if discipline != "" {
		query += " AND course_type = $2"
		args = append(args, discipline)
	}
	query += " ORDER BY course_date DESC, created_at DESC"

	var entries []models.CourseHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return entries, nil
}

// CountSince counts an instructor's courses on or after the cutoff date,
// optionally limited to one discipline.
func (r *CourseHistoryRepository) CountSince(ctx context.Context, instructorID string, discipline models.Discipline, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM course_history WHERE instructor_id = $1 AND course_date >= $2`
	args := []interface{}{instructorID, since}
	if discipline != "" {
		query += " AND course_type = $3"
		args = append(args, discipline)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}

// ListForReport returns courses inside the window joined with the lead
// instructor's identity and the assistant's name when one was resolved.
func (r *CourseHistoryRepository) ListForReport(ctx context.Context, filter models.StatsFilter) ([]models.CourseReportRow, error) {
	query := `SELECT ch.id AS course_id, ch.instructor_id,
        CONCAT(i.first_name, ' ', i.last_name) AS instructor_name,
        i.state, ch.course_type, ch.course_date, ch.location, ch.hours, ch.participants_data, ch.assistant_id,
        CASE WHEN a.id IS NULL THEN NULL ELSE CONCAT(a.first_name, ' ', a.last_name) END AS assistant_name
        FROM course_history ch
        JOIN instructors i ON i.id = ch.instructor_id
        LEFT JOIN instructors a ON a.id = ch.assistant_id
        WHERE ch.course_date >= $1 AND ch.course_date <= $2`
	args := []interface{}{filter.StartDate, filter.EndDate}
	if filter.Discipline != "" {
		query += fmt.Sprintf(" AND ch.course_type = $%d", len(args)+1)
		args = append(args, filter.Discipline)
	}
	query += " ORDER BY ch.course_date ASC"

	var rows []models.CourseReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list report courses: %w", err)
	}
	return rows, nil
}
