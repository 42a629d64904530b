package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
)

// Roster CSV layout. Each row carries one instructor, their certification,
// up to four renewal dates and up to four taught courses.
const (
	importColumns = 39

	colFirstName    = 0
	colLastName     = 1
	colEmail        = 2
	colState        = 3
	colDiscipline   = 4
	colOriginalDate = 5
	colLocation     = 6

	colFirstRecert = 7
	recertSlots    = 4

	colFirstCourse  = 11
	courseSlots     = 4
	courseGroupSize = 7

	// offsets inside one course group
	courseOffDate           = 0
	courseOffAssistantName  = 1
	courseOffAssistantEmail = 2
	courseOffAwareness      = 3
	courseOffOperations     = 4
	courseOffTechnician     = 5
	courseOffSurf           = 6
)

type importInstructorRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
}

type importCertificationRepository interface {
	Upsert(ctx context.Context, cert *models.Certification) error
	AddEvent(ctx context.Context, event *models.RecertificationEvent) error
	EnsureTag(ctx context.Context, instructorID string, discipline models.Discipline) error
}

type importCourseRepository interface {
	Create(ctx context.Context, entry *models.CourseHistoryEntry) error
}

type importAssistantRepository interface {
	Create(ctx context.Context, entry *models.AssistantHistoryEntry) error
}

type importLogRepository interface {
	Create(ctx context.Context, log *models.ImportLog) error
	ListRecent(ctx context.Context, limit int) ([]models.ImportLog, error)
}

// ImportService loads legacy roster CSV files. A bad row never aborts the
// batch; it is counted and the importer moves on.
type ImportService struct {
	instructors    importInstructorRepository
	certifications importCertificationRepository
	courses        importCourseRepository
	assistants     importAssistantRepository
	logs           importLogRepository
	logger         *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(
	instructors importInstructorRepository,
	certifications importCertificationRepository,
	courses importCourseRepository,
	assistants importAssistantRepository,
	logs importLogRepository,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		instructors:    instructors,
		certifications: certifications,
		courses:        courses,
		assistants:     assistants,
		logs:           logs,
		logger:         logger,
	}
}

// ImportRoster reads the CSV stream and loads every parseable row. The
// returned log is also persisted.
func (s *ImportService) ImportRoster(ctx context.Context, r io.Reader) (*models.ImportLog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	log := &models.ImportLog{ErrorMessages: models.ImportMessages{}}
	rowNum := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			log.Errors++
			log.ErrorMessages = append(log.ErrorMessages, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		if rowNum == 1 && looksLikeHeader(row) {
			continue
		}

		if err := s.importRow(ctx, row); err != nil {
			if err == errRowSkipped {
				log.Skipped++
				continue
			}
			log.Errors++
			log.ErrorMessages = append(log.ErrorMessages, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		log.Imported++
	}

	if err := s.logs.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save import log")
	}

	s.logger.Info("roster_imported",
		zap.Int("imported", log.Imported),
		zap.Int("skipped", log.Skipped),
		zap.Int("errors", log.Errors),
	)
	return log, nil
}

// History returns recent import runs.
func (s *ImportService) History(ctx context.Context, limit int) ([]models.ImportLog, error) {
	logs, err := s.logs.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list import logs")
	}
	if logs == nil {
		logs = []models.ImportLog{}
	}
	return logs, nil
}

var errRowSkipped = fmt.Errorf("row skipped")

func (s *ImportService) importRow(ctx context.Context, row []string) error {
	if len(row) < importColumns {
		return fmt.Errorf("expected %d columns, got %d", importColumns, len(row))
	}

	email := strings.ToLower(strings.TrimSpace(row[colEmail]))
	if email == "" {
		return fmt.Errorf("missing email")
	}

	discipline, err := models.ParseDiscipline(strings.ToLower(strings.TrimSpace(row[colDiscipline])))
	if err != nil {
		return fmt.Errorf("unknown discipline %q", row[colDiscipline])
	}

	if _, err := s.instructors.FindByEmail(ctx, email); err == nil {
		return errRowSkipped
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("resolve instructor: %w", err)
	}

	instructor := &models.Instructor{
		FirstName: strings.TrimSpace(row[colFirstName]),
		LastName:  strings.TrimSpace(row[colLastName]),
		Email:     email,
		Active:    true,
	}
	if state := strings.TrimSpace(row[colState]); state != "" {
		instructor.State = &state
	}
	if instructor.FirstName == "" || instructor.LastName == "" {
		return fmt.Errorf("missing instructor name")
	}
	if err := s.instructors.Create(ctx, instructor); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}

	cert := &models.Certification{InstructorID: instructor.ID, Discipline: discipline}
	if raw := strings.TrimSpace(row[colOriginalDate]); raw != "" {
		date, err := parseCourseDate(raw)
		if err != nil {
			return fmt.Errorf("original date: %w", err)
		}
		cert.OriginalDate = &date
	}
	if location := strings.TrimSpace(row[colLocation]); location != "" {
		cert.TrainingLocation = &location
	}
	if err := s.certifications.Upsert(ctx, cert); err != nil {
		return fmt.Errorf("save certification: %w", err)
	}
	if err := s.certifications.EnsureTag(ctx, instructor.ID, discipline); err != nil {
		return fmt.Errorf("tag certification: %w", err)
	}

	for i := 0; i < recertSlots; i++ {
		raw := strings.TrimSpace(row[colFirstRecert+i])
		if raw == "" {
			continue
		}
		date, err := parseCourseDate(raw)
		if err != nil {
			return fmt.Errorf("recertification date %d: %w", i+1, err)
		}
		event := &models.RecertificationEvent{
			InstructorID: instructor.ID,
			Discipline:   discipline,
			EventDate:    date,
		}
		if err := s.certifications.AddEvent(ctx, event); err != nil {
			return fmt.Errorf("save recertification: %w", err)
		}
	}

	for g := 0; g < courseSlots; g++ {
		base := colFirstCourse + g*courseGroupSize
		if err := s.importCourseGroup(ctx, instructor, discipline, row, base); err != nil {
			return fmt.Errorf("course %d: %w", g+1, err)
		}
	}

	return nil
}

func (s *ImportService) importCourseGroup(ctx context.Context, instructor *models.Instructor, discipline models.Discipline, row []string, base int) error {
	raw := strings.TrimSpace(row[base+courseOffDate])
	if raw == "" {
		return nil
	}
	date, err := parseCourseDate(raw)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	participants := models.ParticipantCounts{
		models.LevelAwareness:  importCount(row[base+courseOffAwareness]),
		models.LevelOperations: importCount(row[base+courseOffOperations]),
		models.LevelTechnician: importCount(row[base+courseOffTechnician]),
	}
	if surf := importCount(row[base+courseOffSurf]); surf > 0 {
		participants[models.LevelSurfSwiftwater] = surf
	}

	course := &models.CourseHistoryEntry{
		InstructorID: instructor.ID,
		CourseType:   discipline,
		CourseDate:   date,
		Participants: participants,
	}

	var assistant *models.Instructor
	if email := strings.ToLower(strings.TrimSpace(row[base+courseOffAssistantEmail])); email != "" {
		found, err := s.instructors.FindByEmail(ctx, email)
		if err == nil && found.ID != instructor.ID {
			assistant = found
			course.AssistantID = &found.ID
		}
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	if assistant != nil {
		entry := &models.AssistantHistoryEntry{
			InstructorID:     assistant.ID,
			LeadInstructorID: instructor.ID,
			CourseDate:       date,
			CourseType:       discipline,
		}
		if err := s.assistants.Create(ctx, entry); err != nil {
			return fmt.Errorf("save assistant: %w", err)
		}
	}
	return nil
}

func importCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func looksLikeHeader(row []string) bool {
	if len(row) <= colEmail {
		return true
	}
	return !strings.Contains(row[colEmail], "@")
}
