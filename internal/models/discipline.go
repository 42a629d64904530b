package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Discipline identifies a rescue certification domain.
type Discipline string

const (
	DisciplineIce   Discipline = "ice"
	DisciplineWater Discipline = "water"
)

// Valid reports whether the discipline is one of the known values.
func (d Discipline) Valid() bool {
	return d == DisciplineIce || d == DisciplineWater
}

// Label returns the human-readable discipline name.
func (d Discipline) Label() string {
	switch d {
	case DisciplineIce:
		return "Ice Rescue"
	case DisciplineWater:
		return "Water Rescue"
	default:
		return string(d)
	}
}

// ParseDiscipline converts a raw string into a Discipline.
func ParseDiscipline(raw string) (Discipline, error) {
	d := Discipline(raw)
	if !d.Valid() {
		return "", fmt.Errorf("unknown discipline %q", raw)
	}
	return d, nil
}

// Participant skill levels. Surf/Swiftwater applies to water courses only.
const (
	LevelAwareness      = "awareness"
	LevelOperations     = "operations"
	LevelTechnician     = "technician"
	LevelSurfSwiftwater = "surf_swiftwater"
)

// ParticipantCounts maps skill level names to student counts. Missing levels
// count as zero during aggregation.
type ParticipantCounts map[string]int

// Total sums all level counts.
func (p ParticipantCounts) Total() int {
	total := 0
	for _, n := range p {
		total += n
	}
	return total
}

// Level returns the count for a level, defaulting to zero.
func (p ParticipantCounts) Level(name string) int {
	if p == nil {
		return 0
	}
	return p[name]
}

// Value implements driver.Valuer so counts persist as JSON.
func (p ParticipantCounts) Value() (driver.Value, error) {
	if p == nil {
		p = ParticipantCounts{}
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSON columns.
func (p *ParticipantCounts) Scan(src interface{}) error {
	if src == nil {
		*p = ParticipantCounts{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported participants_data type %T", src)
	}
	return json.Unmarshal(raw, p)
}
