package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifesaving-resources/instructor-api/internal/forms"
	"github.com/lifesaving-resources/instructor-api/internal/models"
	"github.com/lifesaving-resources/instructor-api/internal/service"
)

type intakeSubmissionRepo struct {
	created []models.UnrecognizedSubmission
}

func (s *intakeSubmissionRepo) Create(ctx context.Context, submission *models.UnrecognizedSubmission) error {
	if submission.ID == "" {
		submission.ID = "sub-1"
	}
	s.created = append(s.created, *submission)
	return nil
}

func (s *intakeSubmissionRepo) List(ctx context.Context, status models.SubmissionStatus) ([]models.UnrecognizedSubmission, error) {
	return s.created, nil
}

func (s *intakeSubmissionRepo) Dismiss(ctx context.Context, id string, dismissedAt time.Time) error {
	return sql.ErrNoRows
}

func (s *intakeSubmissionRepo) Delete(ctx context.Context, id string) error {
	return sql.ErrNoRows
}

type intakeInstructorRepo struct {
	byEmail map[string]*models.Instructor
}

func (s intakeInstructorRepo) FindByEmail(ctx context.Context, email string) (*models.Instructor, error) {
	if instructor, ok := s.byEmail[email]; ok {
		return instructor, nil
	}
	return nil, sql.ErrNoRows
}

type intakeCourseRepo struct {
	created int
}

func (s *intakeCourseRepo) Create(ctx context.Context, entry *models.CourseHistoryEntry) error {
	s.created++
	return nil
}

type intakeAssistantRepo struct{}

func (intakeAssistantRepo) Create(ctx context.Context, entry *models.AssistantHistoryEntry) error {
	return nil
}

type intakeTagRepo struct{}

func (intakeTagRepo) EnsureTag(ctx context.Context, instructorID string, discipline models.Discipline) error {
	return nil
}

func intakeRouter(t *testing.T, instructors map[string]*models.Instructor) (*gin.Engine, *intakeCourseRepo, *intakeSubmissionRepo) {
	t.Helper()
	submissions := &intakeSubmissionRepo{}
	courses := &intakeCourseRepo{}
	svc := service.NewSubmissionService(
		submissions,
		intakeInstructorRepo{byEmail: instructors},
		courses,
		intakeAssistantRepo{},
		intakeTagRepo{},
		forms.Defaults(),
		nil,
		service.SubmissionNotifier{},
		nil,
	)
	h := NewSubmissionHandler(svc, nil, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/forms", h.Intake)
	router.GET("/submissions/unrecognized", h.ListUnrecognized)
	return router, courses, submissions
}

func TestIntakeRecognizedSubmission(t *testing.T) {
	lead := &models.Instructor{ID: "lead", Email: "lead@example.com", Active: true}
	router, courses, submissions := intakeRouter(t, map[string]*models.Instructor{"lead@example.com": lead})

	body := `{"form_id":3,"entry_id":42,"fields":{"8":"lead@example.com","12":"2024-02-10","13":"Concord, NH","40":"8","15":"10"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/forms", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recognized":true`)
	assert.Equal(t, 1, courses.created)
	assert.Empty(t, submissions.created)
}

func TestIntakeUnrecognizedSubmission(t *testing.T) {
	router, courses, submissions := intakeRouter(t, nil)

	body := `{"form_id":1,"entry_id":7,"fields":{"8":"ghost@example.com","12":"2024-07-04"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/forms", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recognized":false`)
	assert.Equal(t, 0, courses.created)
	require.Len(t, submissions.created, 1)
	assert.Equal(t, models.DisciplineWater, submissions.created[0].CourseType)
}

func TestIntakeUnknownForm(t *testing.T) {
	router, _, _ := intakeRouter(t, nil)

	body := `{"form_id":99,"entry_id":1,"fields":{"8":"a@b.com"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/forms", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIntakeMalformedBody(t *testing.T) {
	router, _, _ := intakeRouter(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/forms", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
