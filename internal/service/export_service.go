package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
	"github.com/lifesaving-resources/instructor-api/pkg/export"
)

type statsProvider interface {
	Statistics(ctx context.Context, filter models.StatsFilter) (*models.StatsReport, error)
}

type csvRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ExportService renders statistics reports as downloadable documents.
type ExportService struct {
	stats  statsProvider
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(stats statsProvider, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{stats: stats, csv: csv, pdf: pdf, logger: logger}
}

// StatisticsCSV renders the report for the window as CSV.
func (s *ExportService) StatisticsCSV(ctx context.Context, filter models.StatsFilter) ([]byte, string, error) {
	report, err := s.stats.Statistics(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(buildReportDocument(report))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, exportFilename(report, "csv"), nil
}

// StatisticsPDF renders the report for the window as PDF.
func (s *ExportService) StatisticsPDF(ctx context.Context, filter models.StatsFilter) ([]byte, string, error) {
	report, err := s.stats.Statistics(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.pdf.Render(buildReportDocument(report))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, exportFilename(report, "pdf"), nil
}

func exportFilename(report *models.StatsReport, ext string) string {
	return fmt.Sprintf("course-statistics_%s_%s.%s",
		report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02"), ext)
}

// buildReportDocument lays the report out as sections shared by the CSV and
// PDF renderers.
func buildReportDocument(report *models.StatsReport) export.Document {
	scope := "All Disciplines"
	if report.Discipline != "" {
		scope = models.Discipline(report.Discipline).Label()
	}

	doc := export.Document{
		Title: "Course Activity Report",
		Subtitle: fmt.Sprintf("%s through %s, %s",
			report.StartDate.Format("January 2, 2006"), report.EndDate.Format("January 2, 2006"), scope),
	}

	doc.Sections = append(doc.Sections, export.Section{
		Title:   "Summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Courses", strconv.Itoa(report.TotalCourses)},
			{"Ice Rescue Courses", strconv.Itoa(report.IceCourses)},
			{"Water Rescue Courses", strconv.Itoa(report.WaterCourses)},
			{"Total Students", strconv.Itoa(report.TotalStudent)},
			{"Total Hours", strconv.Itoa(report.TotalHours)},
			{"Average Class Size", fmt.Sprintf("%.1f", report.AvgClassSize)},
		},
	})

	doc.Sections = append(doc.Sections, export.Section{
		Title:   "Students by Level",
		Headers: []string{"Level", "Students"},
		Rows: [][]string{
			{"Awareness", strconv.Itoa(report.Students.Level(models.LevelAwareness))},
			{"Operations", strconv.Itoa(report.Students.Level(models.LevelOperations))},
			{"Technician", strconv.Itoa(report.Students.Level(models.LevelTechnician))},
			{"Surf/Swiftwater", strconv.Itoa(report.Students.Level(models.LevelSurfSwiftwater))},
		},
	})

	instructorRows := make([][]string, 0, len(report.Instructors))
	for _, act := range report.Instructors {
		instructorRows = append(instructorRows, []string{
			act.InstructorName,
			act.Discipline.Label(),
			strconv.Itoa(act.CoursesTaught),
			strconv.Itoa(act.StudentsTrained),
			act.LastCourse.Format("2006-01-02"),
		})
	}
	doc.Sections = append(doc.Sections, export.Section{
		Title:   "Instructor Activity",
		Headers: []string{"Instructor", "Discipline", "Courses", "Students", "Last Course"},
		Rows:    instructorRows,
	})

	stateRows := make([][]string, 0, len(report.Geographic))
	for _, state := range report.Geographic {
		stateRows = append(stateRows, []string{
			state.State,
			strconv.Itoa(state.Instructors),
			strconv.Itoa(state.Courses),
			strconv.Itoa(state.Students),
		})
	}
	doc.Sections = append(doc.Sections, export.Section{
		Title:   "Geographic Distribution",
		Headers: []string{"State", "Instructors", "Courses", "Students"},
		Rows:    stateRows,
	})

	monthRows := make([][]string, 0, len(report.Monthly))
	for _, month := range report.Monthly {
		monthRows = append(monthRows, []string{
			month.Month,
			strconv.Itoa(month.Courses),
			strconv.Itoa(month.Students),
		})
	}
	doc.Sections = append(doc.Sections, export.Section{
		Title:   "Monthly Activity",
		Headers: []string{"Month", "Courses", "Students"},
		Rows:    monthRows,
	})

	assistantRows := [][]string{
		{"Distinct Assistants", strconv.Itoa(report.Assistants.TotalAssistants)},
		{"Courses With Assistants", strconv.Itoa(report.Assistants.CoursesWithAssistants)},
	}
	doc.Sections = append(doc.Sections, export.Section{
		Title:   "Assistant Summary",
		Headers: []string{"Metric", "Value"},
		Rows:    assistantRows,
	})

	topRows := make([][]string, 0, len(report.Assistants.TopAssistants))
	for _, ta := range report.Assistants.TopAssistants {
		topRows = append(topRows, []string{ta.AssistantName, strconv.Itoa(ta.AssistCount)})
	}
	doc.Sections = append(doc.Sections, export.Section{
		Title:   "Top Assistants",
		Headers: []string{"Assistant", "Courses Assisted"},
		Rows:    topRows,
	})

	return doc
}
