package models

import "time"

// StatsFilter scopes a statistics run. Discipline is empty for all
// disciplines.
type StatsFilter struct {
	StartDate  time.Time
	EndDate    time.Time
	Discipline Discipline
}

// CourseReportRow is one course joined with the lead instructor's identity
// and, when present, the resolved assistant's name. The aggregator consumes
// these rows and never re-queries per course.
type CourseReportRow struct {
	CourseID       string            `db:"course_id"`
	InstructorID   string            `db:"instructor_id"`
	InstructorName string            `db:"instructor_name"`
	State          *string           `db:"state"`
	CourseType     Discipline        `db:"course_type"`
	CourseDate     time.Time         `db:"course_date"`
	Location       string            `db:"location"`
	Hours          int               `db:"hours"`
	Participants   ParticipantCounts `db:"participants_data"`
	AssistantID    *string           `db:"assistant_id"`
	AssistantName  *string           `db:"assistant_name"`
}

// InstructorActivity rolls up one lead instructor's teaching inside the
// report window.
type InstructorActivity struct {
	InstructorID    string     `json:"instructor_id"`
	InstructorName  string     `json:"instructor_name"`
	CoursesTaught   int        `json:"courses_taught"`
	StudentsTrained int        `json:"students_trained"`
	LastCourse      time.Time  `json:"last_course"`
	Discipline      Discipline `json:"discipline"`
}

// StateActivity aggregates activity by the lead instructor's state.
type StateActivity struct {
	State       string `json:"state"`
	Instructors int    `json:"instructors"`
	Courses     int    `json:"courses"`
	Students    int    `json:"students"`
}

// MonthActivity aggregates courses and students per calendar month (YYYY-MM).
type MonthActivity struct {
	Month    string `json:"month"`
	Courses  int    `json:"courses"`
	Students int    `json:"students"`
}

// TopAssistant is one row of the top-assistants leaderboard.
type TopAssistant struct {
	InstructorID  string `json:"instructor_id"`
	AssistantName string `json:"assistant_name"`
	AssistCount   int    `json:"assist_count"`
}

// AssistantSummary aggregates assistant usage inside the report window.
type AssistantSummary struct {
	TotalAssistants       int            `json:"total_assistants"`
	CoursesWithAssistants int            `json:"courses_with_assistants"`
	TopAssistants         []TopAssistant `json:"top_assistants"`
}

// StatsReport is the full aggregation result. It is rendering-agnostic: the
// interactive summary and the CSV/PDF exports all consume the same report.
type StatsReport struct {
	StartDate    time.Time            `json:"start_date"`
	EndDate      time.Time            `json:"end_date"`
	Discipline   string               `json:"discipline"`
	TotalCourses int                  `json:"total_courses"`
	IceCourses   int                  `json:"ice_courses"`
	WaterCourses int                  `json:"water_courses"`
	Students     ParticipantCounts    `json:"students"`
	TotalStudent int                  `json:"total_students"`
	TotalHours   int                  `json:"total_hours"`
	AvgClassSize float64              `json:"avg_class_size"`
	Instructors  []InstructorActivity `json:"instructor_activity"`
	Geographic   []StateActivity      `json:"geographic_distribution"`
	Monthly      []MonthActivity      `json:"monthly_activity"`
	Assistants   AssistantSummary     `json:"assistant_summary"`
}
