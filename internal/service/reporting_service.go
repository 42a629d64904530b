package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
)

type reportCourseRepository interface {
	ListForReport(ctx context.Context, filter models.StatsFilter) ([]models.CourseReportRow, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const statsCachePrefix = "stats:"

// ReportingService aggregates the course ledger into program statistics. The
// whole report is computed from one pass over the window's rows.
type ReportingService struct {
	courses  reportCourseRepository
	cache    reportCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewReportingService constructs the reporting service. A nil cache disables
// caching entirely.
func NewReportingService(courses reportCourseRepository, cache reportCache, cacheTTL time.Duration, logger *zap.Logger) *ReportingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportingService{courses: courses, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Statistics computes the report for the window. Discipline is empty for all
// disciplines.
func (s *ReportingService) Statistics(ctx context.Context, filter models.StatsFilter) (*models.StatsReport, error) {
	if filter.Discipline != "" && !filter.Discipline.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown discipline")
	}
	if filter.EndDate.Before(filter.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}

	cacheKey := fmt.Sprintf("%s%s:%s:%s", statsCachePrefix,
		filter.StartDate.Format("2006-01-02"), filter.EndDate.Format("2006-01-02"), filter.Discipline)

	if s.cache != nil {
		var cached models.StatsReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("stats_cache_read_failed", zap.Error(err))
		}
	}

	rows, err := s.courses.ListForReport(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report rows")
	}

	report := s.aggregate(filter, rows)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("stats_cache_write_failed", zap.Error(err))
		}
	}
	return report, nil
}

// Invalidate drops every cached report. Called after ledger writes.
func (s *ReportingService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, statsCachePrefix+"*"); err != nil {
		s.logger.Warn("stats_cache_invalidate_failed", zap.Error(err))
	}
}

func (s *ReportingService) aggregate(filter models.StatsFilter, rows []models.CourseReportRow) *models.StatsReport {
	report := &models.StatsReport{
		StartDate:  filter.StartDate,
		EndDate:    filter.EndDate,
		Discipline: string(filter.Discipline),
		Students:   models.ParticipantCounts{},
	}

	type instructorKey struct {
		id         string
		discipline models.Discipline
	}
	activity := map[instructorKey]*models.InstructorActivity{}

	type stateAgg struct {
		instructors map[string]struct{}
		courses     int
		students    int
	}
	states := map[string]*stateAgg{}

	months := map[string]*models.MonthActivity{}

	assistants := map[string]*models.TopAssistant{}
	coursesWithAssistants := 0

	for _, row := range rows {
		students := row.Participants.Total()

		report.TotalCourses++
		switch row.CourseType {
		case models.DisciplineIce:
			report.IceCourses++
		case models.DisciplineWater:
			report.WaterCourses++
		}
		for level, n := range row.Participants {
			report.Students[level] += n
		}
		report.TotalStudent += students
		report.TotalHours += row.Hours

		key := instructorKey{id: row.InstructorID, discipline: row.CourseType}
		act, ok := activity[key]
		if !ok {
			act = &models.InstructorActivity{
				InstructorID:   row.InstructorID,
				InstructorName: row.InstructorName,
				Discipline:     row.CourseType,
			}
			activity[key] = act
		}
		act.CoursesTaught++
		act.StudentsTrained += students
		if row.CourseDate.After(act.LastCourse) {
			act.LastCourse = row.CourseDate
		}

		// Instructors without a state are left out of the geographic rollup;
		// their courses still count everywhere else.
		if row.State != nil && *row.State != "" {
			sa, ok := states[*row.State]
			if !ok {
				sa = &stateAgg{instructors: map[string]struct{}{}}
				states[*row.State] = sa
			}
			sa.instructors[row.InstructorID] = struct{}{}
			sa.courses++
			sa.students += students
		}

		month := row.CourseDate.Format("2006-01")
		ma, ok := months[month]
		if !ok {
			ma = &models.MonthActivity{Month: month}
			months[month] = ma
		}
		ma.Courses++
		ma.Students += students

		if row.AssistantID != nil {
			coursesWithAssistants++
			ta, ok := assistants[*row.AssistantID]
			if !ok {
				name := ""
				if row.AssistantName != nil {
					name = *row.AssistantName
				}
				ta = &models.TopAssistant{InstructorID: *row.AssistantID, AssistantName: name}
				assistants[*row.AssistantID] = ta
			}
			ta.AssistCount++
		}
	}

	if report.TotalCourses > 0 {
		report.AvgClassSize = float64(report.TotalStudent) / float64(report.TotalCourses)
	}

	report.Instructors = make([]models.InstructorActivity, 0, len(activity))
	for _, act := range activity {
		report.Instructors = append(report.Instructors, *act)
	}
	sort.Slice(report.Instructors, func(i, j int) bool {
		a, b := report.Instructors[i], report.Instructors[j]
		if a.CoursesTaught != b.CoursesTaught {
			return a.CoursesTaught > b.CoursesTaught
		}
		if a.InstructorName != b.InstructorName {
			return a.InstructorName < b.InstructorName
		}
		return a.Discipline < b.Discipline
	})

	report.Geographic = make([]models.StateActivity, 0, len(states))
	for state, sa := range states {
		report.Geographic = append(report.Geographic, models.StateActivity{
			State:       state,
			Instructors: len(sa.instructors),
			Courses:     sa.courses,
			Students:    sa.students,
		})
	}
	sort.Slice(report.Geographic, func(i, j int) bool {
		a, b := report.Geographic[i], report.Geographic[j]
		if a.Courses != b.Courses {
			return a.Courses > b.Courses
		}
		return a.State < b.State
	})

	report.Monthly = make([]models.MonthActivity, 0, len(months))
	for _, ma := range months {
		report.Monthly = append(report.Monthly, *ma)
	}
	sort.Slice(report.Monthly, func(i, j int) bool {
		return report.Monthly[i].Month < report.Monthly[j].Month
	})

	top := make([]models.TopAssistant, 0, len(assistants))
	for _, ta := range assistants {
		top = append(top, *ta)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].AssistCount != top[j].AssistCount {
			return top[i].AssistCount > top[j].AssistCount
		}
		return top[i].AssistantName < top[j].AssistantName
	})
	if len(top) > 5 {
		top = top[:5]
	}
	report.Assistants = models.AssistantSummary{
		TotalAssistants:       len(assistants),
		CoursesWithAssistants: coursesWithAssistants,
		TopAssistants:         top,
	}

	return report
}
