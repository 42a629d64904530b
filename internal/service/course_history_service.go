package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
)

type courseHistoryRepository interface {
	Create(ctx context.Context, entry *models.CourseHistoryEntry) error
	ListByInstructor(ctx context.Context, instructorID string, discipline models.Discipline) ([]models.CourseHistoryEntry, error)
	CountSince(ctx context.Context, instructorID string, discipline models.Discipline, since time.Time) (int, error)
}

type courseInstructorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

type courseTagRepository interface {
	EnsureTag(ctx context.Context, instructorID string, discipline models.Discipline) error
}

// RecordCourseRequest holds payload for manually recording a course.
type RecordCourseRequest struct {
	CourseType   string         `json:"course_type" validate:"required"`
	CourseDate   time.Time      `json:"course_date" validate:"required"`
	Location     string         `json:"location"`
	Hours        int            `json:"hours" validate:"gte=0"`
	Participants map[string]int `json:"participants"`
	AssistantID  *string        `json:"assistant_id"`
}

// CourseHistoryService manages the append-only course ledger.
type CourseHistoryService struct {
	repo        courseHistoryRepository
	instructors courseInstructorRepository
	tags        courseTagRepository
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewCourseHistoryService constructs the course history service.
func NewCourseHistoryService(repo courseHistoryRepository, instructors courseInstructorRepository, tags courseTagRepository, validate *validator.Validate, logger *zap.Logger) *CourseHistoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseHistoryService{
		repo:        repo,
		instructors: instructors,
		tags:        tags,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Record appends a course occurrence for an instructor and set-adds the
// matching discipline tag to the instructor's certification record.
func (s *CourseHistoryService) Record(ctx context.Context, instructorID string, req RecordCourseRequest) (*models.CourseHistoryEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	discipline, err := models.ParseDiscipline(req.CourseType)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown discipline")
	}
	if _, err := s.instructors.FindByID(ctx, instructorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	entry := &models.CourseHistoryEntry{
		InstructorID: instructorID,
		CourseType:   discipline,
		CourseDate:   req.CourseDate,
		Location:     req.Location,
		Hours:        req.Hours,
		Participants: models.ParticipantCounts(req.Participants),
		AssistantID:  req.AssistantID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record course")
	}
	if err := s.tags.EnsureTag(ctx, instructorID, discipline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to tag certification")
	}

	s.logger.Info("course_recorded",
		zap.String("instructor_id", instructorID),
		zap.String("course_type", string(discipline)),
		zap.Time("course_date", req.CourseDate),
	)
	return entry, nil
}

// ListByInstructor returns an instructor's courses newest first. An empty
// discipline returns courses for both disciplines.
func (s *CourseHistoryService) ListByInstructor(ctx context.Context, instructorID string, discipline models.Discipline) ([]models.CourseHistoryEntry, error) {
	if discipline != "" && !discipline.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown discipline")
	}
	entries, err := s.repo.ListByInstructor(ctx, instructorID, discipline)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if entries == nil {
		entries = []models.CourseHistoryEntry{}
	}
	return entries, nil
}

// CountRecent counts an instructor's courses within the trailing number of
// years, bounded at the day level.
func (s *CourseHistoryService) CountRecent(ctx context.Context, instructorID string, discipline models.Discipline, years int) (int, error) {
	if discipline != "" && !discipline.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation, "unknown discipline")
	}
	if years <= 0 {
		years = 3
	}
	today := s.now()
	since := time.Date(today.Year()-years, today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	count, err := s.repo.CountSince(ctx, instructorID, discipline, since)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	return count, nil
}
