package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
)

type assistantHistoryRepository interface {
	Create(ctx context.Context, entry *models.AssistantHistoryEntry) error
	ListByAssistant(ctx context.Context, instructorID string, discipline models.Discipline) ([]models.AssistantHistoryEntry, error)
	ListByLead(ctx context.Context, leadInstructorID string) ([]models.AssistantHistoryEntry, error)
}

// AssistantHistoryService manages the append-only assistant ledger.
type AssistantHistoryService struct {
	repo   assistantHistoryRepository
	logger *zap.Logger
}

// NewAssistantHistoryService constructs the assistant history service.
func NewAssistantHistoryService(repo assistantHistoryRepository, logger *zap.Logger) *AssistantHistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantHistoryService{repo: repo, logger: logger}
}

// Record appends an assistant occurrence.
func (s *AssistantHistoryService) Record(ctx context.Context, entry *models.AssistantHistoryEntry) error {
	if !entry.CourseType.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown discipline")
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record assistant entry")
	}
	s.logger.Info("assistant_recorded",
		zap.String("instructor_id", entry.InstructorID),
		zap.String("lead_instructor_id", entry.LeadInstructorID),
		zap.String("course_type", string(entry.CourseType)),
	)
	return nil
}

// ListAsAssistant returns the courses an instructor assisted, newest first.
func (s *AssistantHistoryService) ListAsAssistant(ctx context.Context, instructorID string, discipline models.Discipline) ([]models.AssistantHistoryEntry, error) {
	if discipline != "" && !discipline.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown discipline")
	}
	entries, err := s.repo.ListByAssistant(ctx, instructorID, discipline)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assistant entries")
	}
	if entries == nil {
		entries = []models.AssistantHistoryEntry{}
	}
	return entries, nil
}

// ListAsLead returns the assisted courses an instructor led, newest first.
func (s *AssistantHistoryService) ListAsLead(ctx context.Context, leadInstructorID string) ([]models.AssistantHistoryEntry, error) {
	entries, err := s.repo.ListByLead(ctx, leadInstructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assistant entries")
	}
	if entries == nil {
		entries = []models.AssistantHistoryEntry{}
	}
	return entries, nil
}
