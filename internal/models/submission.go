package models

import "time"

// SubmissionStatus tracks the review state of an unrecognized submission.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionDismissed SubmissionStatus = "dismissed"
)

// UnrecognizedSubmission is a course-completion submission whose claimed
// instructor email matched no known instructor. Each submission is its own
// row so concurrent intakes never clobber each other.
type UnrecognizedSubmission struct {
	ID          string           `db:"id" json:"id"`
	FormID      int64            `db:"form_id" json:"form_id"`
	EntryID     int64            `db:"entry_id" json:"entry_id"`
	CourseType  Discipline       `db:"course_type" json:"course_type"`
	Email       string           `db:"email" json:"email"`
	Status      SubmissionStatus `db:"status" json:"status"`
	ReceivedAt  time.Time        `db:"received_at" json:"received_at"`
	DismissedAt *time.Time       `db:"dismissed_at" json:"dismissed_at,omitempty"`
}
