package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ImportMessages is the list of per-row error details, stored as JSON.
type ImportMessages []string

// Value implements driver.Valuer.
func (m ImportMessages) Value() (driver.Value, error) {
	if m == nil {
		m = ImportMessages{}
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *ImportMessages) Scan(src interface{}) error {
	if src == nil {
		*m = ImportMessages{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported error_messages type %T", src)
	}
	return json.Unmarshal(raw, m)
}

// ImportLog summarizes one CSV import run. Batches never abort on a bad row;
// they count it and continue.
type ImportLog struct {
	ID            string         `db:"id" json:"id"`
	Imported      int            `db:"imported" json:"imported"`
	Skipped       int            `db:"skipped" json:"skipped"`
	Errors        int            `db:"errors" json:"errors"`
	ErrorMessages ImportMessages `db:"error_messages" json:"error_messages"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}
