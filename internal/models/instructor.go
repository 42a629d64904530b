package models

import "time"

// Instructor represents an instructor record. Instructors are never hard
// deleted; deactivation flips the active flag.
type Instructor struct {
	ID         string    `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	MiddleName *string   `db:"middle_name" json:"middle_name,omitempty"`
	Email      string    `db:"email" json:"email"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Department *string   `db:"department" json:"department,omitempty"`
	Address    *string   `db:"address" json:"address,omitempty"`
	State      *string   `db:"state" json:"state,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FullName renders "First Last" for display and notifications.
func (i Instructor) FullName() string {
	return i.FirstName + " " + i.LastName
}

// InstructorFilter captures filtering options for listing instructors.
type InstructorFilter struct {
	Search    string
	State     string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
