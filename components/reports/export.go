package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Artifact is a rendered export ready to be stored or streamed.
type Artifact struct {
	Name        string       `json:"name"`
	Format      ExportFormat `json:"format"`
	ContentType string       `json:"content_type"`
	Data        []byte       `json:"-"`
}

// Exporter renders a template into one document format.
type Exporter interface {
	Format() ExportFormat
	Export(ctx context.Context, tpl Template) (Artifact, error)
}

// ArtifactSink stores exported artifacts and returns where they landed.
type ArtifactSink interface {
	Put(ctx context.Context, artifact Artifact) (string, error)
}

// ExportDocument is the JSON export layout: elements plus page settings.
type ExportDocument struct {
	TemplateID   string       `json:"template_id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	PageSettings PageSettings `json:"page_settings"`
	Elements     []Element    `json:"elements"`
	Schedule     *Schedule    `json:"schedule,omitempty"`
	ExportedAt   time.Time    `json:"exported_at"`
}

// NewExportDocument snapshots tpl at the given time.
func NewExportDocument(tpl Template, at time.Time) ExportDocument {
	elements := cloneElements(tpl.Elements)
	if elements == nil {
		elements = []Element{}
	}
	return ExportDocument{
		TemplateID:   tpl.ID,
		Name:         tpl.Name,
		Description:  tpl.Description,
		PageSettings: tpl.PageSettings.Normalize(),
		Elements:     elements,
		Schedule:     cloneSchedule(tpl.Schedule),
		ExportedAt:   at.UTC(),
	}
}

// JSONExporter writes ExportDocument as indented JSON.
type JSONExporter struct {
	Now func() time.Time
}

// Format implements Exporter.
func (JSONExporter) Format() ExportFormat { return FormatJSON }

// Export implements Exporter.
func (e JSONExporter) Export(_ context.Context, tpl Template) (Artifact, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewExportDocument(tpl, now())); err != nil {
		return Artifact{}, fmt.Errorf("reports: encode json export %s: %w", tpl.ID, err)
	}
	return Artifact{
		Name:        artifactName(tpl, FormatJSON),
		Format:      FormatJSON,
		ContentType: "application/json",
		Data:        buf.Bytes(),
	}, nil
}

func artifactName(tpl Template, format ExportFormat) string {
	base := strings.TrimSpace(tpl.Name)
	if base == "" {
		base = tpl.ID
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, base)
	if base == "" {
		base = "report"
	}
	return base + "." + string(format)
}
