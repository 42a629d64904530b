package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	"github.com/lifesaving-resources/instructor-api/internal/service"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
	"github.com/lifesaving-resources/instructor-api/pkg/response"
)

// CertificationHandler exposes certification endpoints.
type CertificationHandler struct {
	certifications *service.CertificationService
}

// NewCertificationHandler constructs CertificationHandler.
func NewCertificationHandler(certifications *service.CertificationService) *CertificationHandler {
	return &CertificationHandler{certifications: certifications}
}

// Status returns the derived statuses for an instructor.
func (h *CertificationHandler) Status(c *gin.Context) {
	statuses, err := h.certifications.StatusAll(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// Detail returns the stored certification, renewals and derived status for
// one discipline.
func (h *CertificationHandler) Detail(c *gin.Context) {
	discipline, err := models.ParseDiscipline(c.Param("discipline"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown discipline"))
		return
	}
	detail, err := h.certifications.Detail(c.Request.Context(), c.Param("id"), discipline)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// SetOriginal writes the original certification.
func (h *CertificationHandler) SetOriginal(c *gin.Context) {
	var req service.SetCertificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cert, err := h.certifications.SetOriginal(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cert, nil)
}

// AddRecertification records a renewal.
func (h *CertificationHandler) AddRecertification(c *gin.Context) {
	var req service.AddRecertificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.certifications.AddRecertification(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// DeleteRecertification removes a renewal event.
func (h *CertificationHandler) DeleteRecertification(c *gin.Context) {
	if err := h.certifications.DeleteRecertification(c.Request.Context(), c.Param("eventId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
