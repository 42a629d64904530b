package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifesaving-resources/instructor-api/internal/forms"
	"github.com/lifesaving-resources/instructor-api/internal/models"
	"github.com/lifesaving-resources/instructor-api/pkg/mailer"
)

type submissionRepoStub struct {
	created []models.UnrecognizedSubmission
}

func (s *submissionRepoStub) Create(ctx context.Context, submission *models.UnrecognizedSubmission) error {
	if submission.ID == "" {
		submission.ID = "sub-1"
	}
	s.created = append(s.created, *submission)
	return nil
}

func (s *submissionRepoStub) List(ctx context.Context, status models.SubmissionStatus) ([]models.UnrecognizedSubmission, error) {
	return s.created, nil
}

func (s *submissionRepoStub) Dismiss(ctx context.Context, id string, dismissedAt time.Time) error {
	return sql.ErrNoRows
}

func (s *submissionRepoStub) Delete(ctx context.Context, id string) error {
	return sql.ErrNoRows
}

type instructorLookupStub struct {
	byEmail map[string]*models.Instructor
}

func (s instructorLookupStub) FindByEmail(ctx context.Context, email string) (*models.Instructor, error) {
	if instructor, ok := s.byEmail[email]; ok {
		return instructor, nil
	}
	return nil, sql.ErrNoRows
}

type courseRepoStub struct {
	created []models.CourseHistoryEntry
}

func (s *courseRepoStub) Create(ctx context.Context, entry *models.CourseHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = "course-1"
	}
	s.created = append(s.created, *entry)
	return nil
}

type assistantRepoStub struct {
	created []models.AssistantHistoryEntry
}

func (s *assistantRepoStub) Create(ctx context.Context, entry *models.AssistantHistoryEntry) error {
	s.created = append(s.created, *entry)
	return nil
}

type tagRepoStub struct {
	tagged []models.Discipline
}

func (s *tagRepoStub) EnsureTag(ctx context.Context, instructorID string, discipline models.Discipline) error {
	s.tagged = append(s.tagged, discipline)
	return nil
}

type mailerStub struct {
	sent []mailer.Message
}

func (s *mailerStub) Send(ctx context.Context, msg mailer.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

type submissionFixture struct {
	svc         *SubmissionService
	submissions *submissionRepoStub
	courses     *courseRepoStub
	assistants  *assistantRepoStub
	tags        *tagRepoStub
	mail        *mailerStub
}

func newSubmissionFixture(instructors map[string]*models.Instructor) *submissionFixture {
	f := &submissionFixture{
		submissions: &submissionRepoStub{},
		courses:     &courseRepoStub{},
		assistants:  &assistantRepoStub{},
		tags:        &tagRepoStub{},
		mail:        &mailerStub{},
	}
	f.svc = NewSubmissionService(
		f.submissions,
		instructorLookupStub{byEmail: instructors},
		f.courses,
		f.assistants,
		f.tags,
		forms.Defaults(),
		f.mail,
		SubmissionNotifier{AdminEmail: "admin@example.com", EntryURL: "https://forms.example/entry/"},
		nil,
	)
	return f
}

func iceEntry(fields map[string]string) forms.RawEntry {
	base := map[string]string{
		"8":  "lead@example.com",
		"12": "2024-02-10",
		"13": "Concord, NH",
		"40": "8",
		"15": "10",
		"16": "4",
		"17": "6",
	}
	for k, v := range fields {
		base[k] = v
	}
	return forms.RawEntry{FormID: forms.IceFormID, EntryID: 42, Fields: base}
}

func TestProcessRecognizedInstructor(t *testing.T) {
	lead := &models.Instructor{ID: "lead", Email: "lead@example.com", Active: true}
	f := newSubmissionFixture(map[string]*models.Instructor{"lead@example.com": lead})

	result, err := f.svc.Process(context.Background(), iceEntry(nil))
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	require.Len(t, f.courses.created, 1)

	course := f.courses.created[0]
	assert.Equal(t, "lead", course.InstructorID)
	assert.Equal(t, models.DisciplineIce, course.CourseType)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), course.CourseDate)
	assert.Equal(t, "Concord, NH", course.Location)
	assert.Equal(t, 8, course.Hours)
	assert.Equal(t, 10, course.Participants.Level(models.LevelAwareness))
	assert.Equal(t, 4, course.Participants.Level(models.LevelTechnician))
	assert.Equal(t, 6, course.Participants.Level(models.LevelOperations))
	require.NotNil(t, course.FormID)
	assert.Equal(t, forms.IceFormID, *course.FormID)

	require.Len(t, f.tags.tagged, 1)
	assert.Equal(t, models.DisciplineIce, f.tags.tagged[0])
	assert.Empty(t, f.submissions.created)
	assert.Empty(t, f.mail.sent)
}

func TestProcessUnknownEmailQueuesAndNotifies(t *testing.T) {
	f := newSubmissionFixture(nil)

	result, err := f.svc.Process(context.Background(), iceEntry(map[string]string{"8": "ghost@example.com"}))
	require.NoError(t, err)
	assert.False(t, result.Recognized)
	assert.NotEmpty(t, result.SubmissionID)

	assert.Empty(t, f.courses.created)
	assert.Empty(t, f.assistants.created)
	require.Len(t, f.submissions.created, 1)
	queued := f.submissions.created[0]
	assert.Equal(t, "ghost@example.com", queued.Email)
	assert.Equal(t, models.SubmissionPending, queued.Status)
	assert.Equal(t, models.DisciplineIce, queued.CourseType)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, []string{"admin@example.com"}, f.mail.sent[0].To)
}

func TestProcessWithKnownAssistant(t *testing.T) {
	lead := &models.Instructor{ID: "lead", Email: "lead@example.com", Active: true}
	helper := &models.Instructor{ID: "helper", Email: "helper@example.com", Active: true}
	f := newSubmissionFixture(map[string]*models.Instructor{
		"lead@example.com":   lead,
		"helper@example.com": helper,
	})

	result, err := f.svc.Process(context.Background(), iceEntry(map[string]string{"30": "helper@example.com"}))
	require.NoError(t, err)
	assert.True(t, result.AssistantRecorded)

	require.Len(t, f.courses.created, 1)
	require.NotNil(t, f.courses.created[0].AssistantID)
	assert.Equal(t, "helper", *f.courses.created[0].AssistantID)

	require.Len(t, f.assistants.created, 1)
	assist := f.assistants.created[0]
	assert.Equal(t, "helper", assist.InstructorID)
	assert.Equal(t, "lead", assist.LeadInstructorID)
	assert.Equal(t, models.DisciplineIce, assist.CourseType)
}

func TestProcessUnresolvableAssistantDropsSilently(t *testing.T) {
	lead := &models.Instructor{ID: "lead", Email: "lead@example.com", Active: true}
	f := newSubmissionFixture(map[string]*models.Instructor{"lead@example.com": lead})

	result, err := f.svc.Process(context.Background(), iceEntry(map[string]string{"30": "nobody@example.com"}))
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	assert.False(t, result.AssistantRecorded)
	require.Len(t, f.courses.created, 1)
	assert.Nil(t, f.courses.created[0].AssistantID)
	assert.Empty(t, f.assistants.created)
}

func TestProcessReplayedEntryAppendsAgain(t *testing.T) {
	lead := &models.Instructor{ID: "lead", Email: "lead@example.com", Active: true}
	f := newSubmissionFixture(map[string]*models.Instructor{"lead@example.com": lead})

	entry := iceEntry(nil)
	_, err := f.svc.Process(context.Background(), entry)
	require.NoError(t, err)
	_, err = f.svc.Process(context.Background(), entry)
	require.NoError(t, err)

	assert.Len(t, f.courses.created, 2)
}

func TestProcessWaterFormUsesWaterHoursField(t *testing.T) {
	lead := &models.Instructor{ID: "lead", Email: "lead@example.com", Active: true}
	f := newSubmissionFixture(map[string]*models.Instructor{"lead@example.com": lead})

	entry := forms.RawEntry{FormID: forms.WaterFormID, EntryID: 7, Fields: map[string]string{
		"8":  "lead@example.com",
		"12": "2024-07-04",
		"13": "Durham, NH",
		"39": "6",
		"15": "12",
	}}
	_, err := f.svc.Process(context.Background(), entry)
	require.NoError(t, err)

	require.Len(t, f.courses.created, 1)
	course := f.courses.created[0]
	assert.Equal(t, models.DisciplineWater, course.CourseType)
	assert.Equal(t, 6, course.Hours)
	assert.Equal(t, 12, course.Participants.Level(models.LevelAwareness))
}

func TestProcessUnknownFormID(t *testing.T) {
	f := newSubmissionFixture(nil)

	_, err := f.svc.Process(context.Background(), forms.RawEntry{FormID: 99, EntryID: 1, Fields: map[string]string{"8": "a@b.com"}})
	assert.Error(t, err)
	assert.Empty(t, f.submissions.created)
}

func TestProcessUnreadableCourseDateFallsBackToReceivedDate(t *testing.T) {
	lead := &models.Instructor{ID: "lead", Email: "lead@example.com", Active: true}
	f := newSubmissionFixture(map[string]*models.Instructor{"lead@example.com": lead})
	f.svc.now = func() time.Time { return time.Date(2024, 8, 1, 15, 30, 0, 0, time.UTC) }

	result, err := f.svc.Process(context.Background(), iceEntry(map[string]string{"12": "sometime last winter"}))
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	require.Len(t, f.courses.created, 1)
	assert.Equal(t, date(2024, 8, 1), f.courses.created[0].CourseDate)
}

func TestProcessMissingEmailQueuesForReview(t *testing.T) {
	lead := &models.Instructor{ID: "lead", Email: "lead@example.com", Active: true}
	f := newSubmissionFixture(map[string]*models.Instructor{"lead@example.com": lead})

	result, err := f.svc.Process(context.Background(), iceEntry(map[string]string{"8": ""}))
	require.NoError(t, err)
	assert.False(t, result.Recognized)
	assert.Empty(t, f.courses.created)
	require.Len(t, f.submissions.created, 1)
	assert.Equal(t, models.SubmissionPending, f.submissions.created[0].Status)
	require.Len(t, f.mail.sent, 1)
}
