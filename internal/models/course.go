package models

import "time"

// CourseHistoryEntry is one taught course. Entries are immutable once
// written; the course ledger is append-only.
type CourseHistoryEntry struct {
	ID           string            `db:"id" json:"id"`
	InstructorID string            `db:"instructor_id" json:"instructor_id"`
	CourseType   Discipline        `db:"course_type" json:"course_type"`
	CourseDate   time.Time         `db:"course_date" json:"course_date"`
	Location     string            `db:"location" json:"location"`
	Hours        int               `db:"hours" json:"hours"`
	Participants ParticipantCounts `db:"participants_data" json:"participants"`
	FormID       *int64            `db:"form_id" json:"form_id,omitempty"`
	FormEntryID  *int64            `db:"form_entry_id" json:"form_entry_id,omitempty"`
	AssistantID  *string           `db:"assistant_id" json:"assistant_id,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
}

// AssistantHistoryEntry links an assisting instructor to a lead instructor's
// course occurrence. Same append-only audit semantics as the course ledger.
type AssistantHistoryEntry struct {
	ID               string     `db:"id" json:"id"`
	InstructorID     string     `db:"instructor_id" json:"instructor_id"`
	LeadInstructorID string     `db:"lead_instructor_id" json:"lead_instructor_id"`
	CourseDate       time.Time  `db:"course_date" json:"course_date"`
	CourseType       Discipline `db:"course_type" json:"course_type"`
	Location         string     `db:"location" json:"location"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}
