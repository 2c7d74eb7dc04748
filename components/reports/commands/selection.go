package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	reports "github.com/goliatone/go-reports/components/reports"
)

// SelectElementInput identifies the element a viewer focuses. An empty ElementID clears the selection.
type SelectElementInput struct {
	Viewer     reports.ViewerContext `json:"viewer"`
	TemplateID string                `json:"template_id"`
	ElementID  string                `json:"element_id"`
}

type selectionService interface {
	SelectElement(ctx context.Context, viewer reports.ViewerContext, templateID, elementID string) error
}

// SelectElementCommand stores per-viewer selection.
type SelectElementCommand struct {
	service   selectionService
	telemetry Telemetry
}

// NewSelectElementCommand creates the command.
func NewSelectElementCommand(service selectionService, telemetry Telemetry) *SelectElementCommand {
	return &SelectElementCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectElementInput] = (*SelectElementCommand)(nil)

// Execute stores the selection for the viewer.
func (c *SelectElementCommand) Execute(ctx context.Context, msg SelectElementInput) error {
	if c.service == nil {
		return errors.New("select command requires service")
	}
	if msg.Viewer.UserID == "" {
		return errors.New("select command requires viewer user id")
	}
	if err := c.service.SelectElement(ctx, msg.Viewer, msg.TemplateID, msg.ElementID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "reports.command.element.select", map[string]any{
		"user_id":     msg.Viewer.UserID,
		"template_id": msg.TemplateID,
		"element_id":  msg.ElementID,
	})
	return nil
}
