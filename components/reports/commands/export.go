package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	reports "github.com/goliatone/go-reports/components/reports"
)

// ExportTemplateInput selects the template and artifact format.
type ExportTemplateInput struct {
	TemplateID string               `json:"template_id"`
	Format     reports.ExportFormat `json:"format"`
}

type exportService interface {
	Export(ctx context.Context, templateID string, format reports.ExportFormat) (reports.ExportResult, error)
}

// ExportTemplateCommand renders a template to an artifact and hands it to the configured sink.
type ExportTemplateCommand struct {
	service   exportService
	telemetry Telemetry
	OnResult  func(reports.ExportResult)
}

// NewExportTemplateCommand creates the command.
func NewExportTemplateCommand(service exportService, telemetry Telemetry) *ExportTemplateCommand {
	return &ExportTemplateCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ExportTemplateInput] = (*ExportTemplateCommand)(nil)

// Execute exports the template.
func (c *ExportTemplateCommand) Execute(ctx context.Context, msg ExportTemplateInput) error {
	if c.service == nil {
		return errors.New("export command requires service")
	}
	result, err := c.service.Export(ctx, msg.TemplateID, msg.Format)
	if err != nil {
		return err
	}
	if c.OnResult != nil {
		c.OnResult(result)
	}
	c.telemetry.Record(ctx, "reports.command.template.export", map[string]any{
		"template_id": msg.TemplateID,
		"format":      string(msg.Format),
		"location":    result.Location,
	})
	return nil
}
