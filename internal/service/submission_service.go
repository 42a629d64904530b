package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lifesaving-resources/instructor-api/internal/forms"
	"github.com/lifesaving-resources/instructor-api/internal/models"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
	"github.com/lifesaving-resources/instructor-api/pkg/mailer"
)

type submissionRepository interface {
	Create(ctx context.Context, submission *models.UnrecognizedSubmission) error
	List(ctx context.Context, status models.SubmissionStatus) ([]models.UnrecognizedSubmission, error)
	Dismiss(ctx context.Context, id string, dismissedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type submissionInstructorRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Instructor, error)
}

type submissionCourseRepository interface {
	Create(ctx context.Context, entry *models.CourseHistoryEntry) error
}

type submissionAssistantRepository interface {
	Create(ctx context.Context, entry *models.AssistantHistoryEntry) error
}

type submissionTagRepository interface {
	EnsureTag(ctx context.Context, instructorID string, discipline models.Discipline) error
}

// ProcessResult reports what one webhook delivery produced.
type ProcessResult struct {
	Recognized        bool                       `json:"recognized"`
	Course            *models.CourseHistoryEntry `json:"course,omitempty"`
	AssistantRecorded bool                       `json:"assistant_recorded"`
	SubmissionID      string                     `json:"submission_id,omitempty"`
}

// SubmissionNotifier describes where unrecognized-submission notices go.
type SubmissionNotifier struct {
	AdminEmail string
	EntryURL   string
}

// SubmissionService turns raw form entries into ledger records. Processing is
// intentionally not idempotent: the form vendor retries deliveries rarely and
// the review queue surfaces anything odd, so a replayed entry simply appends
// again.
type SubmissionService struct {
	submissions submissionRepository
	instructors submissionInstructorRepository
	courses     submissionCourseRepository
	assistants  submissionAssistantRepository
	tags        submissionTagRepository
	mapping     forms.Mapping
	mail        mailer.Mailer
	notifier    SubmissionNotifier
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(
	submissions submissionRepository,
	instructors submissionInstructorRepository,
	courses submissionCourseRepository,
	assistants submissionAssistantRepository,
	tags submissionTagRepository,
	mapping forms.Mapping,
	mail mailer.Mailer,
	notifier SubmissionNotifier,
	logger *zap.Logger,
) *SubmissionService {
	if mapping == nil {
		mapping = forms.Defaults()
	}
	if mail == nil {
		mail = mailer.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		submissions: submissions,
		instructors: instructors,
		courses:     courses,
		assistants:  assistants,
		tags:        tags,
		mapping:     mapping,
		mail:        mail,
		notifier:    notifier,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Process ingests one course-completion form entry.
//
// A submission whose email matches a known instructor produces a course
// ledger entry and, when the assistant email resolves to a different known
// instructor, an assistant ledger entry. An unresolvable assistant is dropped
// without failing the course, and a malformed field degrades to a default
// rather than aborting the submission. A submission whose lead email is
// missing or matches nobody is queued for review and the administrator is
// notified; no ledger rows are written.
func (s *SubmissionService) Process(ctx context.Context, entry forms.RawEntry) (*ProcessResult, error) {
	discipline, err := s.disciplineForForm(entry.FormID)
	if err != nil {
		return nil, err
	}
	fieldMap := s.mapping[discipline]

	email := entry.Field(fieldMap.Email)
	if email == "" {
		return s.queueUnrecognized(ctx, entry, discipline, email)
	}

	instructor, err := s.instructors.FindByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return s.queueUnrecognized(ctx, entry, discipline, email)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve instructor")
	}

	courseDate, err := parseCourseDate(entry.Field(fieldMap.CourseDate))
	if err != nil {
		// An unreadable date falls back to the received date; the entry id on
		// the ledger row lets an administrator correct it later.
		received := s.now()
		courseDate = time.Date(received.Year(), received.Month(), received.Day(), 0, 0, 0, 0, time.UTC)
		s.logger.Warn("course_date_unreadable",
			zap.Int64("form_id", entry.FormID),
			zap.Int64("entry_id", entry.EntryID),
			zap.String("raw_date", entry.Field(fieldMap.CourseDate)),
		)
	}

	participants := models.ParticipantCounts{}
	for level, fieldID := range fieldMap.Participants {
		participants[level] = entry.IntField(fieldID)
	}

	formID := entry.FormID
	entryID := entry.EntryID
	course := &models.CourseHistoryEntry{
		InstructorID: instructor.ID,
		CourseType:   discipline,
		CourseDate:   courseDate,
		Location:     entry.Field(fieldMap.Location),
		Hours:        entry.IntField(fieldMap.Hours),
		Participants: participants,
		FormID:       &formID,
		FormEntryID:  &entryID,
	}

	assistant := s.resolveAssistant(ctx, entry, fieldMap, instructor.ID)
	if assistant != nil {
		course.AssistantID = &assistant.ID
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record course")
	}

	result := &ProcessResult{Recognized: true, Course: course}

	if assistant != nil {
		assistEntry := &models.AssistantHistoryEntry{
			InstructorID:     assistant.ID,
			LeadInstructorID: instructor.ID,
			CourseDate:       courseDate,
			CourseType:       discipline,
			Location:         course.Location,
		}
		if err := s.assistants.Create(ctx, assistEntry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record assistant")
		}
		result.AssistantRecorded = true
	}

	if err := s.tags.EnsureTag(ctx, instructor.ID, discipline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to tag certification")
	}

	s.logger.Info("submission_processed",
		zap.Int64("form_id", entry.FormID),
		zap.Int64("entry_id", entry.EntryID),
		zap.String("instructor_id", instructor.ID),
		zap.Bool("assistant_recorded", result.AssistantRecorded),
	)
	return result, nil
}

// ListUnrecognized returns queued submissions, optionally filtered by status.
func (s *SubmissionService) ListUnrecognized(ctx context.Context, status models.SubmissionStatus) ([]models.UnrecognizedSubmission, error) {
	if status != "" && status != models.SubmissionPending && status != models.SubmissionDismissed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown submission status")
	}
	submissions, err := s.submissions.List(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	if submissions == nil {
		submissions = []models.UnrecognizedSubmission{}
	}
	return submissions, nil
}

// Dismiss marks a pending submission as reviewed and dismissed.
func (s *SubmissionService) Dismiss(ctx context.Context, id string) error {
	if err := s.submissions.Dismiss(ctx, id, s.now()); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "pending submission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dismiss submission")
	}
	return nil
}

// Delete removes a queued submission permanently.
func (s *SubmissionService) Delete(ctx context.Context, id string) error {
	if err := s.submissions.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete submission")
	}
	return nil
}

func (s *SubmissionService) disciplineForForm(formID int64) (models.Discipline, error) {
	for discipline, fm := range s.mapping {
		if fm.FormID == formID {
			return discipline, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown form id %d", formID))
}

func (s *SubmissionService) queueUnrecognized(ctx context.Context, entry forms.RawEntry, discipline models.Discipline, email string) (*ProcessResult, error) {
	submission := &models.UnrecognizedSubmission{
		FormID:     entry.FormID,
		EntryID:    entry.EntryID,
		CourseType: discipline,
		Email:      email,
		Status:     models.SubmissionPending,
		ReceivedAt: s.now(),
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue submission")
	}

	s.notifyUnrecognized(ctx, submission)

	s.logger.Warn("submission_unrecognized",
		zap.Int64("form_id", entry.FormID),
		zap.Int64("entry_id", entry.EntryID),
		zap.String("email", email),
	)
	return &ProcessResult{Recognized: false, SubmissionID: submission.ID}, nil
}

// notifyUnrecognized emails the administrator. Delivery failures are logged
// and swallowed; the submission is already queued for review.
func (s *SubmissionService) notifyUnrecognized(ctx context.Context, submission *models.UnrecognizedSubmission) {
	if s.notifier.AdminEmail == "" {
		return
	}
	body := fmt.Sprintf(
		"<p>A %s course completion form was submitted by <strong>%s</strong>, which matches no registered instructor.</p><p>Form %d, entry %d.</p>",
		submission.CourseType.Label(), submission.Email, submission.FormID, submission.EntryID,
	)
	if s.notifier.EntryURL != "" {
		body += fmt.Sprintf(`<p><a href="%s%d">View the original entry</a></p>`, s.notifier.EntryURL, submission.EntryID)
	}
	msg := mailer.Message{
		To:      []string{s.notifier.AdminEmail},
		Subject: "Unrecognized course completion submission",
		HTML:    body,
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Error("submission_notification_failed", zap.String("submission_id", submission.ID), zap.Error(err))
	}
}

// resolveAssistant looks up the assistant by email. Any failure to resolve is
// dropped silently; the course still counts.
func (s *SubmissionService) resolveAssistant(ctx context.Context, entry forms.RawEntry, fieldMap forms.FieldMap, leadID string) *models.Instructor {
	email := entry.Field(fieldMap.AssistantEmail)
	if email == "" {
		return nil
	}
	assistant, err := s.instructors.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Debug("assistant_unresolved", zap.String("email", email), zap.Error(err))
		return nil
	}
	if assistant.ID == leadID {
		return nil
	}
	return assistant
}

var courseDateLayouts = []string{"2006-01-02", "01/02/2006", time.RFC3339}

func parseCourseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty course date")
	}
	for _, layout := range courseDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable course date %q", raw)
}
