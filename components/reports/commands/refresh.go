package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	reports "github.com/goliatone/go-reports/components/reports"
)

// RefreshCanvasInput emits a change notification for a template.
type RefreshCanvasInput struct {
	Event reports.CanvasEvent
}

type refreshNotifier interface {
	NotifyCanvasChanged(ctx context.Context, event reports.CanvasEvent) error
}

// RefreshCanvasCommand triggers change hooks without mutating the template.
type RefreshCanvasCommand struct {
	service   refreshNotifier
	telemetry Telemetry
}

// NewRefreshCanvasCommand creates the command.
func NewRefreshCanvasCommand(service refreshNotifier, telemetry Telemetry) *RefreshCanvasCommand {
	return &RefreshCanvasCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshCanvasInput] = (*RefreshCanvasCommand)(nil)

// Execute notifies the service change hooks.
func (c *RefreshCanvasCommand) Execute(ctx context.Context, msg RefreshCanvasInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	if msg.Event.Reason == "" {
		msg.Event.Reason = reports.ReasonCanvasRefresh
	}
	if err := c.service.NotifyCanvasChanged(ctx, msg.Event); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "reports.command.canvas.refresh", map[string]any{
		"template_id": msg.Event.TemplateID,
		"element_id":  msg.Event.ElementID,
	})
	return nil
}
