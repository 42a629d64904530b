package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Section is one titled table inside an export document.
type Section struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Document is a multi-section export, rendered either as CSV or PDF.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
}

// CSVExporter renders a Document into CSV bytes. Sections are separated by
// blank lines, each preceded by its title on its own row.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the document.
func (e *CSVExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("csv requires at least one section")
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if doc.Title != "" {
		if err := writer.Write([]string{doc.Title}); err != nil {
			return nil, fmt.Errorf("write csv title: %w", err)
		}
	}
	if doc.Subtitle != "" {
		if err := writer.Write([]string{doc.Subtitle}); err != nil {
			return nil, fmt.Errorf("write csv subtitle: %w", err)
		}
	}

	for _, section := range doc.Sections {
		if err := writer.Write([]string{}); err != nil {
			return nil, fmt.Errorf("write csv separator: %w", err)
		}
		if section.Title != "" {
			if err := writer.Write([]string{section.Title}); err != nil {
				return nil, fmt.Errorf("write csv section title: %w", err)
			}
		}
		if len(section.Headers) > 0 {
			if err := writer.Write(section.Headers); err != nil {
				return nil, fmt.Errorf("write csv headers: %w", err)
			}
		}
		for _, row := range section.Rows {
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
