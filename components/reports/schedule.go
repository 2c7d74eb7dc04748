package reports

import (
	"fmt"
	"net/mail"
	"strings"
)

// Frequency controls how often a scheduled report is delivered.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ExportFormat names a document format an exporter can produce.
type ExportFormat string

const (
	FormatPDF  ExportFormat = "pdf"
	FormatXLSX ExportFormat = "xlsx"
	FormatJSON ExportFormat = "json"
	FormatPNG  ExportFormat = "png"
)

// Schedule describes report delivery. The canvas never reads or writes it.
type Schedule struct {
	Enabled    bool         `json:"enabled" yaml:"enabled"`
	Frequency  Frequency    `json:"frequency" yaml:"frequency"`
	Recipients []string     `json:"recipients" yaml:"recipients"`
	Format     ExportFormat `json:"format" yaml:"format"`
}

// Validate checks frequency, format and recipient addresses.
func (s Schedule) Validate() error {
	switch s.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("%w: unsupported frequency %q", ErrInvalidSchedule, s.Frequency)
	}
	switch s.Format {
	case FormatPDF, FormatXLSX, FormatJSON, FormatPNG:
	default:
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidSchedule, s.Format)
	}
	if s.Enabled && len(s.Recipients) == 0 {
		return fmt.Errorf("%w: enabled schedule needs at least one recipient", ErrInvalidSchedule)
	}
	for _, r := range s.Recipients {
		if _, err := mail.ParseAddress(strings.TrimSpace(r)); err != nil {
			return fmt.Errorf("%w: recipient %q: %v", ErrInvalidSchedule, r, err)
		}
	}
	return nil
}
