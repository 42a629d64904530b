package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifesaving-resources/instructor-api/internal/forms"
	"github.com/lifesaving-resources/instructor-api/internal/models"
	"github.com/lifesaving-resources/instructor-api/internal/service"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
	"github.com/lifesaving-resources/instructor-api/pkg/response"
)

type submissionMetrics interface {
	CountSubmission(outcome string)
}

// SubmissionHandler exposes the form intake webhook and the review queue.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	reports     reportInvalidator
	metrics     submissionMetrics
}

// NewSubmissionHandler constructs SubmissionHandler.
func NewSubmissionHandler(submissions *service.SubmissionService, reports reportInvalidator, metrics submissionMetrics) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, reports: reports, metrics: metrics}
}

// Intake receives one form entry from the form vendor webhook.
func (h *SubmissionHandler) Intake(c *gin.Context) {
	var entry forms.RawEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		h.countOutcome("rejected")
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.submissions.Process(c.Request.Context(), entry)
	if err != nil {
		h.countOutcome("rejected")
		response.Error(c, err)
		return
	}

	if result.Recognized {
		h.countOutcome("recognized")
		h.invalidate(c.Request.Context())
	} else {
		h.countOutcome("unrecognized")
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListUnrecognized returns the review queue.
func (h *SubmissionHandler) ListUnrecognized(c *gin.Context) {
	status := models.SubmissionStatus(c.DefaultQuery("status", string(models.SubmissionPending)))
	if c.Query("status") == "all" {
		status = ""
	}
	submissions, err := h.submissions.ListUnrecognized(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// Dismiss marks a pending submission as reviewed.
func (h *SubmissionHandler) Dismiss(c *gin.Context) {
	if err := h.submissions.Dismiss(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete removes a queued submission.
func (h *SubmissionHandler) Delete(c *gin.Context) {
	if err := h.submissions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *SubmissionHandler) countOutcome(outcome string) {
	if h.metrics != nil {
		h.metrics.CountSubmission(outcome)
	}
}

func (h *SubmissionHandler) invalidate(ctx context.Context) {
	if h.reports != nil {
		h.reports.Invalidate(ctx)
	}
}
