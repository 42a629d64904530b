package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	"github.com/lifesaving-resources/instructor-api/internal/service"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
	"github.com/lifesaving-resources/instructor-api/pkg/response"
)

// ReportHandler exposes statistics and export endpoints.
type ReportHandler struct {
	reports *service.ReportingService
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportingService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Statistics returns the aggregated report for the window.
func (h *ReportHandler) Statistics(c *gin.Context) {
	filter, ok := parseStatsFilter(c)
	if !ok {
		return
	}
	report, err := h.reports.Statistics(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export renders the report as a downloadable CSV or PDF.
func (h *ReportHandler) Export(c *gin.Context) {
	filter, ok := parseStatsFilter(c)
	if !ok {
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, filename, err := h.exports.StatisticsCSV(c.Request.Context(), filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, "text/csv", filename, payload)
	case "pdf":
		payload, filename, err := h.exports.StatisticsPDF(c.Request.Context(), filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, "application/pdf", filename, payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown export format"))
	}
}

// parseStatsFilter reads the report window from the query. The window
// defaults to the trailing year ending today.
func parseStatsFilter(c *gin.Context) (models.StatsFilter, bool) {
	var filter models.StatsFilter

	now := time.Now().UTC()
	filter.EndDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	filter.StartDate = filter.EndDate.AddDate(-1, 0, 0)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid start date"))
			return filter, false
		}
		filter.StartDate = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid end date"))
			return filter, false
		}
		filter.EndDate = parsed
	}
	if raw := c.Query("discipline"); raw != "" {
		discipline, err := models.ParseDiscipline(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown discipline"))
			return filter, false
		}
		filter.Discipline = discipline
	}
	return filter, true
}
