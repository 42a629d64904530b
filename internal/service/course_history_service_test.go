package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifesaving-resources/instructor-api/internal/models"
)

type courseHistoryRepoStub struct {
	entries        []models.CourseHistoryEntry
	lastDiscipline models.Discipline
	lastSince      time.Time
	count          int
}

func (s *courseHistoryRepoStub) Create(ctx context.Context, entry *models.CourseHistoryEntry) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *courseHistoryRepoStub) ListByInstructor(ctx context.Context, instructorID string, discipline models.Discipline) ([]models.CourseHistoryEntry, error) {
	s.lastDiscipline = discipline
	return s.entries, nil
}

func (s *courseHistoryRepoStub) CountSince(ctx context.Context, instructorID string, discipline models.Discipline, since time.Time) (int, error) {
	s.lastDiscipline = discipline
	s.lastSince = since
	return s.count, nil
}

type courseInstructorStub struct {
	missing bool
}

func (s courseInstructorStub) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	if s.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Instructor{ID: id, Active: true}, nil
}

func newCourseHistoryService(repo *courseHistoryRepoStub, today time.Time) (*CourseHistoryService, *tagRepoStub) {
	tags := &tagRepoStub{}
	svc := NewCourseHistoryService(repo, courseInstructorStub{}, tags, nil, nil)
	svc.now = func() time.Time { return today }
	return svc, tags
}

func TestRecordCourse(t *testing.T) {
	repo := &courseHistoryRepoStub{}
	svc, _ := newCourseHistoryService(repo, date(2024, 6, 1))

	entry, err := svc.Record(context.Background(), "1", RecordCourseRequest{
		CourseType:   "ice",
		CourseDate:   date(2024, 2, 10),
		Location:     "Concord, NH",
		Hours:        8,
		Participants: map[string]int{models.LevelAwareness: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DisciplineIce, entry.CourseType)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, 10, repo.entries[0].Participants.Level(models.LevelAwareness))
}

func TestRecordCourseTagsCertification(t *testing.T) {
	repo := &courseHistoryRepoStub{}
	svc, tags := newCourseHistoryService(repo, date(2024, 6, 1))

	_, err := svc.Record(context.Background(), "1", RecordCourseRequest{
		CourseType: "ice",
		CourseDate: date(2024, 2, 10),
	})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, []models.Discipline{models.DisciplineIce}, tags.tagged)
}

func TestRecordCourseUnknownDiscipline(t *testing.T) {
	repo := &courseHistoryRepoStub{}
	svc, _ := newCourseHistoryService(repo, date(2024, 6, 1))

	_, err := svc.Record(context.Background(), "1", RecordCourseRequest{
		CourseType: "scuba",
		CourseDate: date(2024, 2, 10),
	})
	assert.Error(t, err)
	assert.Empty(t, repo.entries)
}

func TestRecordCourseInstructorMissing(t *testing.T) {
	repo := &courseHistoryRepoStub{}
	svc := NewCourseHistoryService(repo, courseInstructorStub{missing: true}, &tagRepoStub{}, nil, nil)

	_, err := svc.Record(context.Background(), "ghost", RecordCourseRequest{
		CourseType: "ice",
		CourseDate: date(2024, 2, 10),
	})
	assert.Error(t, err)
}

func TestCountRecentWindowBoundedAtDayLevel(t *testing.T) {
	repo := &courseHistoryRepoStub{count: 4}
	svc, _ := newCourseHistoryService(repo, time.Date(2024, 6, 15, 13, 45, 12, 0, time.UTC))

	count, err := svc.CountRecent(context.Background(), "1", models.DisciplineIce, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, date(2021, 6, 15), repo.lastSince)
	assert.Equal(t, models.DisciplineIce, repo.lastDiscipline)
}

func TestCountRecentDefaultsToThreeYears(t *testing.T) {
	repo := &courseHistoryRepoStub{}
	svc, _ := newCourseHistoryService(repo, date(2024, 6, 15))

	_, err := svc.CountRecent(context.Background(), "1", "", 0)
	require.NoError(t, err)
	assert.Equal(t, date(2021, 6, 15), repo.lastSince)
	assert.Equal(t, models.Discipline(""), repo.lastDiscipline)
}

func TestListByInstructorPassesDiscipline(t *testing.T) {
	repo := &courseHistoryRepoStub{}
	svc, _ := newCourseHistoryService(repo, date(2024, 6, 1))

	_, err := svc.ListByInstructor(context.Background(), "1", models.DisciplineWater)
	require.NoError(t, err)
	assert.Equal(t, models.DisciplineWater, repo.lastDiscipline)

	_, err = svc.ListByInstructor(context.Background(), "1", models.Discipline("scuba"))
	assert.Error(t, err)
}
