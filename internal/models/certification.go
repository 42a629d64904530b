package models

import "time"

// Certification holds the original authorization for one instructor and
// discipline. Renewals live in recertification_events.
type Certification struct {
	InstructorID     string     `db:"instructor_id" json:"instructor_id"`
	Discipline       Discipline `db:"discipline" json:"discipline"`
	OriginalDate     *time.Time `db:"original_date" json:"original_date,omitempty"`
	TrainingLocation *string    `db:"training_location" json:"training_location,omitempty"`
}

// RecertificationEvent records a renewal. An explicit expiration, when set,
// overrides the computed one if this is the latest event.
type RecertificationEvent struct {
	ID           string     `db:"id" json:"id"`
	InstructorID string     `db:"instructor_id" json:"instructor_id"`
	Discipline   Discipline `db:"discipline" json:"discipline"`
	EventDate    time.Time  `db:"event_date" json:"event_date"`
	Expiration   *time.Time `db:"expiration" json:"expiration,omitempty"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// CertificationStatus is the derived validity of a certification.
// Expiration is nil when the instructor holds no authorization dates at all,
// which is distinct from holding an expired certification.
type CertificationStatus struct {
	Discipline Discipline `json:"discipline"`
	Active     bool       `json:"active"`
	Expiration *time.Time `json:"expiration,omitempty"`
}
