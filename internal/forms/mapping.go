// Package forms carries the mapping between external form field identifiers
// and their semantic meaning. The upstream form vendor assigns numeric field
// ids per form, and the ice and water forms use different schemas for the
// same concepts. The mapping is configuration loaded at startup, never
// inferred at runtime.
package forms

import (
	"strconv"
	"strings"

	"github.com/lifesaving-resources/instructor-api/internal/models"
)

// Form ids assigned by the external form vendor.
const (
	IceFormID   int64 = 3
	WaterFormID int64 = 1
)

// FieldMap names the external field id for each semantic field of a course
// completion form.
type FieldMap struct {
	FormID         int64
	Name           string
	Department     string
	Address        string
	Phone          string
	Email          string
	CourseDate     string
	Location       string
	AssistantFirst string
	AssistantLast  string
	AssistantEmail string
	Hours          string
	// Participant count fields keyed by skill level name.
	Participants map[string]string
}

// Mapping resolves a discipline to its field map.
type Mapping map[models.Discipline]FieldMap

// Defaults returns the production field-id mapping for both disciplines.
func Defaults() Mapping {
	return Mapping{
		models.DisciplineIce: {
			FormID:         IceFormID,
			Name:           "4",
			Department:     "5",
			Address:        "6",
			Phone:          "7",
			Email:          "8",
			CourseDate:     "12",
			Location:       "13",
			AssistantFirst: "28",
			AssistantLast:  "29",
			AssistantEmail: "30",
			Hours:          "40",
			Participants: map[string]string{
				models.LevelAwareness:  "15",
				models.LevelTechnician: "16",
				models.LevelOperations: "17",
			},
		},
		models.DisciplineWater: {
			FormID:         WaterFormID,
			Name:           "4",
			Department:     "5",
			Address:        "6",
			Phone:          "7",
			Email:          "8",
			CourseDate:     "12",
			Location:       "13",
			AssistantFirst: "28",
			AssistantLast:  "29",
			AssistantEmail: "30",
			Hours:          "39",
			Participants: map[string]string{
				models.LevelAwareness:  "15",
				models.LevelTechnician: "16",
				models.LevelOperations: "17",
			},
		},
	}
}

// RawEntry is one webhook delivery from the form vendor: the form and entry
// identifiers plus the raw field values keyed by field id.
type RawEntry struct {
	FormID  int64             `json:"form_id"`
	EntryID int64             `json:"entry_id"`
	Fields  map[string]string `json:"fields"`
}

// Field returns the trimmed raw value for a field id, or "" when absent.
func (e RawEntry) Field(id string) string {
	if e.Fields == nil {
		return ""
	}
	return strings.TrimSpace(e.Fields[id])
}

// IntField parses a field as a non-negative integer, defaulting to zero on
// missing or malformed values.
func (e RawEntry) IntField(id string) int {
	n, err := strconv.Atoi(e.Field(id))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
