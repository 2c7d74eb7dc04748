package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	reports "github.com/goliatone/go-reports/components/reports"
)

type elementService interface {
	AddElement(ctx context.Context, req reports.AddElementRequest) (reports.Element, error)
	UpdateElement(ctx context.Context, req reports.UpdateElementRequest) (reports.Element, error)
	DeleteElement(ctx context.Context, req reports.DeleteElementRequest) error
	DuplicateElement(ctx context.Context, req reports.DuplicateElementRequest) (reports.Element, error)
}

// AddElementCommand wraps Service.AddElement so transports can drop palette entries
// without linking directly against the service.
type AddElementCommand struct {
	service   elementService
	telemetry Telemetry
	// OnResult, when set, receives the placed element.
	OnResult func(reports.Element)
}

// NewAddElementCommand creates a command instance.
func NewAddElementCommand(service elementService, telemetry Telemetry) *AddElementCommand {
	return &AddElementCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[reports.AddElementRequest] = (*AddElementCommand)(nil)

// Execute delegates to the report service.
func (c *AddElementCommand) Execute(ctx context.Context, msg reports.AddElementRequest) error {
	if c.service == nil {
		return errors.New("add element command requires service")
	}
	el, err := c.service.AddElement(ctx, msg)
	if err != nil {
		return err
	}
	if c.OnResult != nil {
		c.OnResult(el)
	}
	c.telemetry.Record(ctx, "reports.command.element.add", map[string]any{
		"template_id": msg.TemplateID,
		"element_id":  el.ID,
		"kind":        string(el.Kind),
	})
	return nil
}

// UpdateElementCommand applies a partial element update.
type UpdateElementCommand struct {
	service   elementService
	telemetry Telemetry
	OnResult  func(reports.Element)
}

// NewUpdateElementCommand creates the command.
func NewUpdateElementCommand(service elementService, telemetry Telemetry) *UpdateElementCommand {
	return &UpdateElementCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[reports.UpdateElementRequest] = (*UpdateElementCommand)(nil)

// Execute patches the element.
func (c *UpdateElementCommand) Execute(ctx context.Context, msg reports.UpdateElementRequest) error {
	if c.service == nil {
		return errors.New("update element command requires service")
	}
	if msg.Patch.IsZero() {
		return errors.New("update element command requires at least one field")
	}
	el, err := c.service.UpdateElement(ctx, msg)
	if err != nil {
		return err
	}
	if c.OnResult != nil {
		c.OnResult(el)
	}
	c.telemetry.Record(ctx, "reports.command.element.update", map[string]any{
		"template_id": msg.TemplateID,
		"element_id":  msg.ElementID,
	})
	return nil
}

// DeleteElementCommand removes an element from a template.
type DeleteElementCommand struct {
	service   elementService
	telemetry Telemetry
}

// NewDeleteElementCommand creates the command.
func NewDeleteElementCommand(service elementService, telemetry Telemetry) *DeleteElementCommand {
	return &DeleteElementCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[reports.DeleteElementRequest] = (*DeleteElementCommand)(nil)

// Execute removes the element.
func (c *DeleteElementCommand) Execute(ctx context.Context, msg reports.DeleteElementRequest) error {
	if c.service == nil {
		return errors.New("delete element command requires service")
	}
	if err := c.service.DeleteElement(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "reports.command.element.delete", map[string]any{
		"template_id": msg.TemplateID,
		"element_id":  msg.ElementID,
	})
	return nil
}

// DuplicateElementCommand copies an element one cell down and right.
type DuplicateElementCommand struct {
	service   elementService
	telemetry Telemetry
	OnResult  func(reports.Element)
}

// NewDuplicateElementCommand creates the command.
func NewDuplicateElementCommand(service elementService, telemetry Telemetry) *DuplicateElementCommand {
	return &DuplicateElementCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[reports.DuplicateElementRequest] = (*DuplicateElementCommand)(nil)

// Execute duplicates the element.
func (c *DuplicateElementCommand) Execute(ctx context.Context, msg reports.DuplicateElementRequest) error {
	if c.service == nil {
		return errors.New("duplicate element command requires service")
	}
	el, err := c.service.DuplicateElement(ctx, msg)
	if err != nil {
		return err
	}
	if c.OnResult != nil {
		c.OnResult(el)
	}
	c.telemetry.Record(ctx, "reports.command.element.duplicate", map[string]any{
		"template_id": msg.TemplateID,
		"source_id":   msg.ElementID,
		"element_id":  el.ID,
	})
	return nil
}
