package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifesaving-resources/instructor-api/internal/models"
	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
)

type reportCourseRepoStub struct {
	rows       []models.CourseReportRow
	lastFilter models.StatsFilter
	calls      int
}

func (s *reportCourseRepoStub) ListForReport(ctx context.Context, filter models.StatsFilter) ([]models.CourseReportRow, error) {
	s.lastFilter = filter
	s.calls++
	return s.rows, nil
}

type reportCacheStub struct {
	stored map[string][]byte
	hit    *models.StatsReport
	sets   int
}

func (s *reportCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	if s.hit != nil {
		*dest.(*models.StatsReport) = *s.hit
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (s *reportCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.sets++
	return nil
}

func (s *reportCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.stored = nil
	return nil
}

func strPtr(v string) *string { return &v }

func reportWindow() models.StatsFilter {
	return models.StatsFilter{
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 12, 31),
	}
}

func sampleRows() []models.CourseReportRow {
	return []models.CourseReportRow{
		{
			CourseID: "c1", InstructorID: "i1", InstructorName: "Jane Doe", State: strPtr("NH"),
			CourseType: models.DisciplineIce, CourseDate: date(2024, 1, 15), Hours: 8,
			Participants: models.ParticipantCounts{models.LevelAwareness: 10, models.LevelTechnician: 5},
			AssistantID:  strPtr("i3"), AssistantName: strPtr("Sam Park"),
		},
		{
			CourseID: "c2", InstructorID: "i1", InstructorName: "Jane Doe", State: strPtr("NH"),
			CourseType: models.DisciplineIce, CourseDate: date(2024, 2, 20), Hours: 8,
			Participants: models.ParticipantCounts{models.LevelOperations: 6},
		},
		{
			CourseID: "c3", InstructorID: "i2", InstructorName: "Bob Hill", State: strPtr("ME"),
			CourseType: models.DisciplineWater, CourseDate: date(2024, 2, 5), Hours: 6,
			Participants: models.ParticipantCounts{models.LevelAwareness: 4, models.LevelSurfSwiftwater: 3},
			AssistantID:  strPtr("i3"), AssistantName: strPtr("Sam Park"),
		},
	}
}

func TestStatisticsAggregates(t *testing.T) {
	repo := &reportCourseRepoStub{rows: sampleRows()}
	svc := NewReportingService(repo, nil, 0, nil)

	report, err := svc.Statistics(context.Background(), reportWindow())
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalCourses)
	assert.Equal(t, 2, report.IceCourses)
	assert.Equal(t, 1, report.WaterCourses)
	assert.Equal(t, report.TotalCourses, report.IceCourses+report.WaterCourses)

	assert.Equal(t, 14, report.Students.Level(models.LevelAwareness))
	assert.Equal(t, 6, report.Students.Level(models.LevelOperations))
	assert.Equal(t, 5, report.Students.Level(models.LevelTechnician))
	assert.Equal(t, 3, report.Students.Level(models.LevelSurfSwiftwater))
	assert.Equal(t, 28, report.TotalStudent)
	assert.Equal(t, 22, report.TotalHours)
	assert.InDelta(t, 28.0/3.0, report.AvgClassSize, 0.001)
}

func TestStatisticsInstructorActivity(t *testing.T) {
	repo := &reportCourseRepoStub{rows: sampleRows()}
	svc := NewReportingService(repo, nil, 0, nil)

	report, err := svc.Statistics(context.Background(), reportWindow())
	require.NoError(t, err)

	require.Len(t, report.Instructors, 2)
	top := report.Instructors[0]
	assert.Equal(t, "Jane Doe", top.InstructorName)
	assert.Equal(t, 2, top.CoursesTaught)
	assert.Equal(t, 21, top.StudentsTrained)
	assert.Equal(t, date(2024, 2, 20), top.LastCourse)
}

func TestStatisticsGeographicAndMonthly(t *testing.T) {
	repo := &reportCourseRepoStub{rows: sampleRows()}
	svc := NewReportingService(repo, nil, 0, nil)

	report, err := svc.Statistics(context.Background(), reportWindow())
	require.NoError(t, err)

	require.Len(t, report.Geographic, 2)
	assert.Equal(t, "NH", report.Geographic[0].State)
	assert.Equal(t, 2, report.Geographic[0].Courses)
	assert.Equal(t, 1, report.Geographic[0].Instructors)

	require.Len(t, report.Monthly, 2)
	assert.Equal(t, "2024-01", report.Monthly[0].Month)
	assert.Equal(t, "2024-02", report.Monthly[1].Month)
	assert.Equal(t, 2, report.Monthly[1].Courses)
}

func TestStatisticsGeographicExcludesStatelessInstructors(t *testing.T) {
	rows := []models.CourseReportRow{
		{
			CourseID: "c1", InstructorID: "i1", InstructorName: "Jane Doe", State: nil,
			CourseType: models.DisciplineIce, CourseDate: date(2024, 3, 1), Hours: 8,
			Participants: models.ParticipantCounts{models.LevelAwareness: 9},
		},
		{
			CourseID: "c2", InstructorID: "i2", InstructorName: "Bob Hill", State: strPtr(""),
			CourseType: models.DisciplineWater, CourseDate: date(2024, 4, 1), Hours: 6,
			Participants: models.ParticipantCounts{models.LevelAwareness: 3},
		},
	}
	repo := &reportCourseRepoStub{rows: rows}
	svc := NewReportingService(repo, nil, 0, nil)

	report, err := svc.Statistics(context.Background(), reportWindow())
	require.NoError(t, err)

	assert.Empty(t, report.Geographic)
	assert.Equal(t, 2, report.TotalCourses)
	assert.Equal(t, 12, report.TotalStudent)
	assert.Len(t, report.Instructors, 2)
}

func TestStatisticsAssistantSummary(t *testing.T) {
	repo := &reportCourseRepoStub{rows: sampleRows()}
	svc := NewReportingService(repo, nil, 0, nil)

	report, err := svc.Statistics(context.Background(), reportWindow())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Assistants.TotalAssistants)
	assert.Equal(t, 2, report.Assistants.CoursesWithAssistants)
	require.Len(t, report.Assistants.TopAssistants, 1)
	assert.Equal(t, "Sam Park", report.Assistants.TopAssistants[0].AssistantName)
	assert.Equal(t, 2, report.Assistants.TopAssistants[0].AssistCount)
}

func TestStatisticsTopAssistantsCapped(t *testing.T) {
	rows := make([]models.CourseReportRow, 0, 7)
	for i := 0; i < 7; i++ {
		id := string(rune('a' + i))
		rows = append(rows, models.CourseReportRow{
			CourseID: id, InstructorID: "i1", InstructorName: "Jane Doe",
			CourseType: models.DisciplineIce, CourseDate: date(2024, 3, 1),
			Participants: models.ParticipantCounts{},
			AssistantID:  strPtr(id), AssistantName: strPtr("Assistant " + id),
		})
	}
	repo := &reportCourseRepoStub{rows: rows}
	svc := NewReportingService(repo, nil, 0, nil)

	report, err := svc.Statistics(context.Background(), reportWindow())
	require.NoError(t, err)
	assert.Equal(t, 7, report.Assistants.TotalAssistants)
	assert.Len(t, report.Assistants.TopAssistants, 5)
}

func TestStatisticsPassesDisciplineFilter(t *testing.T) {
	repo := &reportCourseRepoStub{}
	svc := NewReportingService(repo, nil, 0, nil)

	filter := reportWindow()
	filter.Discipline = models.DisciplineWater
	_, err := svc.Statistics(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, models.DisciplineWater, repo.lastFilter.Discipline)
}

func TestStatisticsInvalidWindow(t *testing.T) {
	svc := NewReportingService(&reportCourseRepoStub{}, nil, 0, nil)

	filter := models.StatsFilter{StartDate: date(2024, 12, 31), EndDate: date(2024, 1, 1)}
	_, err := svc.Statistics(context.Background(), filter)
	assert.Error(t, err)
}

func TestStatisticsServedFromCache(t *testing.T) {
	cached := &models.StatsReport{TotalCourses: 99}
	repo := &reportCourseRepoStub{rows: sampleRows()}
	cache := &reportCacheStub{hit: cached}
	svc := NewReportingService(repo, cache, time.Minute, nil)

	report, err := svc.Statistics(context.Background(), reportWindow())
	require.NoError(t, err)
	assert.Equal(t, 99, report.TotalCourses)
	assert.Equal(t, 0, repo.calls)
}

func TestStatisticsWritesCacheOnMiss(t *testing.T) {
	repo := &reportCourseRepoStub{rows: sampleRows()}
	cache := &reportCacheStub{}
	svc := NewReportingService(repo, cache, time.Minute, nil)

	_, err := svc.Statistics(context.Background(), reportWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)
}

func TestStatisticsEmptyWindow(t *testing.T) {
	svc := NewReportingService(&reportCourseRepoStub{}, nil, 0, nil)

	report, err := svc.Statistics(context.Background(), reportWindow())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalCourses)
	assert.Equal(t, 0.0, report.AvgClassSize)
	assert.Empty(t, report.Instructors)
}
