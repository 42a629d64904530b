package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	"github.com/lifesaving-resources/instructor-api/pkg/config"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
)

type certificationRepository interface {
	Find(ctx context.Context, instructorID string, discipline models.Discipline) (*models.Certification, error)
	Upsert(ctx context.Context, cert *models.Certification) error
	ListEvents(ctx context.Context, instructorID string, discipline models.Discipline) ([]models.RecertificationEvent, error)
	AddEvent(ctx context.Context, event *models.RecertificationEvent) error
	DeleteEvent(ctx context.Context, id string) error
	EnsureTag(ctx context.Context, instructorID string, discipline models.Discipline) error
	Tags(ctx context.Context, instructorID string) ([]models.Discipline, error)
}

type certificationInstructorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

// SetCertificationRequest holds payload for writing an original certification.
type SetCertificationRequest struct {
	Discipline       string     `json:"discipline" validate:"required"`
	OriginalDate     *time.Time `json:"original_date"`
	TrainingLocation *string    `json:"training_location"`
}

// AddRecertificationRequest holds payload for recording a renewal.
type AddRecertificationRequest struct {
	Discipline string     `json:"discipline" validate:"required"`
	EventDate  time.Time  `json:"event_date" validate:"required"`
	Expiration *time.Time `json:"expiration"`
	Notes      *string    `json:"notes"`
}

// CertificationDetail bundles the stored record, its renewals and the derived
// status for one discipline.
type CertificationDetail struct {
	Certification *models.Certification         `json:"certification,omitempty"`
	Events        []models.RecertificationEvent `json:"events"`
	Status        models.CertificationStatus    `json:"status"`
}

// CertificationService derives certification validity and manages the
// underlying authorization records.
type CertificationService struct {
	repo        certificationRepository
	instructors certificationInstructorRepository
	periods     config.CertificationConfig
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewCertificationService constructs the certification service.
func NewCertificationService(repo certificationRepository, instructors certificationInstructorRepository, periods config.CertificationConfig, validate *validator.Validate, logger *zap.Logger) *CertificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificationService{
		repo:        repo,
		instructors: instructors,
		periods:     periods,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Status derives the certification status for one instructor and discipline.
//
// The validity window always runs through December 31: the expiration is the
// last day of the year reached by adding the discipline's period to the year
// of the most recent authorization date. A renewal recorded with an explicit
// expiration overrides the computed one when that renewal is the most recent
// authorization. An instructor with no authorization dates at all is not
// certified and carries no expiration.
func (s *CertificationService) Status(ctx context.Context, instructorID string, discipline models.Discipline) (*models.CertificationStatus, error) {
	if !discipline.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown discipline")
	}

	cert, err := s.repo.Find(ctx, instructorID, discipline)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certification")
	}

	events, err := s.repo.ListEvents(ctx, instructorID, discipline)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recertification events")
	}

	status := models.CertificationStatus{Discipline: discipline}

	var latest time.Time
	var haveDates bool
	if cert != nil && cert.OriginalDate != nil {
		latest = *cert.OriginalDate
		haveDates = true
	}
	var latestEvent *models.RecertificationEvent
	for i := range events {
		e := events[i]
		if latestEvent == nil || e.EventDate.After(latestEvent.EventDate) {
			latestEvent = &events[i]
		}
		if !haveDates || e.EventDate.After(latest) {
			latest = e.EventDate
			haveDates = true
		}
	}

	if !haveDates {
		return &status, nil
	}

	var expiration time.Time
	if latestEvent != nil && latestEvent.Expiration != nil && !latestEvent.EventDate.Before(latest) {
		expiration = *latestEvent.Expiration
	} else {
		period := s.periods.PeriodYears(string(discipline))
		expiration = time.Date(latest.Year()+period, time.December, 31, 0, 0, 0, 0, time.UTC)
	}

	status.Expiration = &expiration

	today := s.now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	status.Active = !today.After(expiration)

	return &status, nil
}

// StatusAll derives statuses for every discipline the instructor is tagged
// with, falling back to both disciplines when no tags exist yet.
func (s *CertificationService) StatusAll(ctx context.Context, instructorID string) ([]models.CertificationStatus, error) {
	disciplines, err := s.repo.Tags(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certification tags")
	}
	if len(disciplines) == 0 {
		disciplines = []models.Discipline{models.DisciplineIce, models.DisciplineWater}
	}

	statuses := make([]models.CertificationStatus, 0, len(disciplines))
	for _, d := range disciplines {
		status, err := s.Status(ctx, instructorID, d)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
	}
	return statuses, nil
}

// Detail returns the stored certification, its renewals and the derived
// status for one discipline.
func (s *CertificationService) Detail(ctx context.Context, instructorID string, discipline models.Discipline) (*CertificationDetail, error) {
	if _, err := s.instructors.FindByID(ctx, instructorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	status, err := s.Status(ctx, instructorID, discipline)
	if err != nil {
		return nil, err
	}

	detail := &CertificationDetail{Status: *status}

	cert, err := s.repo.Find(ctx, instructorID, discipline)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certification")
	}
	detail.Certification = cert

	events, err := s.repo.ListEvents(ctx, instructorID, discipline)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recertification events")
	}
	if events == nil {
		events = []models.RecertificationEvent{}
	}
	detail.Events = events

	return detail, nil
}

// SetOriginal writes the original certification for an instructor.
func (s *CertificationService) SetOriginal(ctx context.Context, instructorID string, req SetCertificationRequest) (*models.Certification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certification payload")
	}
	discipline, err := models.ParseDiscipline(req.Discipline)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown discipline")
	}
	if _, err := s.instructors.FindByID(ctx, instructorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	cert := &models.Certification{
		InstructorID:     instructorID,
		Discipline:       discipline,
		OriginalDate:     req.OriginalDate,
		TrainingLocation: req.TrainingLocation,
	}
	if err := s.repo.Upsert(ctx, cert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save certification")
	}
	if err := s.repo.EnsureTag(ctx, instructorID, discipline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to tag certification")
	}

	s.logger.Info("certification_saved",
		zap.String("instructor_id", instructorID),
		zap.String("discipline", string(discipline)),
	)
	return cert, nil
}

// AddRecertification records a renewal event.
func (s *CertificationService) AddRecertification(ctx context.Context, instructorID string, req AddRecertificationRequest) (*models.RecertificationEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recertification payload")
	}
	discipline, err := models.ParseDiscipline(req.Discipline)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown discipline")
	}
	if _, err := s.instructors.FindByID(ctx, instructorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	event := &models.RecertificationEvent{
		InstructorID: instructorID,
		Discipline:   discipline,
		EventDate:    req.EventDate,
		Expiration:   req.Expiration,
		Notes:        req.Notes,
	}
	if err := s.repo.AddEvent(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record recertification")
	}
	if err := s.repo.EnsureTag(ctx, instructorID, discipline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to tag certification")
	}

	s.logger.Info("recertification_recorded",
		zap.String("instructor_id", instructorID),
		zap.String("discipline", string(discipline)),
		zap.Time("event_date", req.EventDate),
	)
	return event, nil
}

// DeleteRecertification removes a renewal event.
func (s *CertificationService) DeleteRecertification(ctx context.Context, id string) error {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "recertification event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete recertification")
	}
	return nil
}
