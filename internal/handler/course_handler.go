package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	"github.com/lifesaving-resources/instructor-api/internal/service"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
	"github.com/lifesaving-resources/instructor-api/pkg/response"
)

type reportInvalidator interface {
	Invalidate(ctx context.Context)
}

// CourseHandler exposes course and assistant ledger endpoints.
type CourseHandler struct {
	courses    *service.CourseHistoryService
	assistants *service.AssistantHistoryService
	reports    reportInvalidator
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseHistoryService, assistants *service.AssistantHistoryService, reports reportInvalidator) *CourseHandler {
	return &CourseHandler{courses: courses, assistants: assistants, reports: reports}
}

// Record appends a course occurrence for an instructor.
func (h *CourseHandler) Record(c *gin.Context) {
	var req service.RecordCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.courses.Record(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.reports != nil {
		h.reports.Invalidate(c.Request.Context())
	}
	response.Created(c, entry)
}

// List returns an instructor's courses newest first.
func (h *CourseHandler) List(c *gin.Context) {
	discipline, ok := disciplineQuery(c)
	if !ok {
		return
	}
	entries, err := h.courses.ListByInstructor(c.Request.Context(), c.Param("id"), discipline)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// CountRecent counts courses within the trailing window.
func (h *CourseHandler) CountRecent(c *gin.Context) {
	discipline, ok := disciplineQuery(c)
	if !ok {
		return
	}
	years := 3
	if raw := c.Query("years"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid years"))
			return
		}
		years = parsed
	}
	count, err := h.courses.CountRecent(c.Request.Context(), c.Param("id"), discipline, years)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": count, "years": years}, nil)
}

// ListAssists returns the courses the instructor assisted.
func (h *CourseHandler) ListAssists(c *gin.Context) {
	discipline, ok := disciplineQuery(c)
	if !ok {
		return
	}
	entries, err := h.assistants.ListAsAssistant(c.Request.Context(), c.Param("id"), discipline)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ListLedAssists returns the assisted courses the instructor led.
func (h *CourseHandler) ListLedAssists(c *gin.Context) {
	entries, err := h.assistants.ListAsLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func disciplineQuery(c *gin.Context) (models.Discipline, bool) {
	raw := c.Query("discipline")
	if raw == "" {
		return "", true
	}
	discipline, err := models.ParseDiscipline(raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown discipline"))
		return "", false
	}
	return discipline, true
}
