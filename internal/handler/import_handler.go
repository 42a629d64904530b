package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lifesaving-resources/instructor-api/internal/service"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
	"github.com/lifesaving-resources/instructor-api/pkg/response"
)

// ImportHandler exposes the roster CSV import endpoints.
type ImportHandler struct {
	imports *service.ImportService
	reports reportInvalidator
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports *service.ImportService, reports reportInvalidator) *ImportHandler {
	return &ImportHandler{imports: imports, reports: reports}
}

// Roster accepts a multipart CSV upload and imports it.
func (h *ImportHandler) Roster(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing file upload"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file upload"))
		return
	}
	defer file.Close()

	log, err := h.imports.ImportRoster(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.reports != nil {
		h.reports.Invalidate(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// History lists recent import runs.
func (h *ImportHandler) History(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	logs, err := h.imports.History(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
