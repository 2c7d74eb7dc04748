package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	reports "github.com/goliatone/go-reports/components/reports"
)

type templateService interface {
	CreateTemplate(ctx context.Context, req reports.CreateTemplateRequest) (reports.Template, error)
	LoadTemplate(ctx context.Context, templateID string, source reports.Template) (reports.Template, error)
	UpdatePageSettings(ctx context.Context, templateID string, settings reports.PageSettings) (reports.Template, error)
	UpdateSchedule(ctx context.Context, templateID string, schedule *reports.Schedule) (reports.Template, error)
	Gallery() *reports.Gallery
}

// CreateTemplateCommand starts a new template, empty or from the gallery.
type CreateTemplateCommand struct {
	service   templateService
	telemetry Telemetry
	OnResult  func(reports.Template)
}

// NewCreateTemplateCommand creates the command.
func NewCreateTemplateCommand(service templateService, telemetry Telemetry) *CreateTemplateCommand {
	return &CreateTemplateCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[reports.CreateTemplateRequest] = (*CreateTemplateCommand)(nil)

// Execute creates the template.
func (c *CreateTemplateCommand) Execute(ctx context.Context, msg reports.CreateTemplateRequest) error {
	if c.service == nil {
		return errors.New("create template command requires service")
	}
	tpl, err := c.service.CreateTemplate(ctx, msg)
	if err != nil {
		return err
	}
	if c.OnResult != nil {
		c.OnResult(tpl)
	}
	c.telemetry.Record(ctx, "reports.command.template.create", map[string]any{
		"template_id": tpl.ID,
		"gallery_id":  msg.GalleryID,
	})
	return nil
}

// LoadTemplateInput replaces a template's content. GalleryID takes precedence over Source.
type LoadTemplateInput struct {
	TemplateID string            `json:"template_id"`
	GalleryID  string            `json:"gallery_id,omitempty"`
	Source     *reports.Template `json:"source,omitempty"`
}

// LoadTemplateCommand loads a gallery template or an explicit document into an existing template.
type LoadTemplateCommand struct {
	service   templateService
	telemetry Telemetry
}

// NewLoadTemplateCommand creates the command.
func NewLoadTemplateCommand(service templateService, telemetry Telemetry) *LoadTemplateCommand {
	return &LoadTemplateCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoadTemplateInput] = (*LoadTemplateCommand)(nil)

// Execute resolves the source and loads it.
func (c *LoadTemplateCommand) Execute(ctx context.Context, msg LoadTemplateInput) error {
	if c.service == nil {
		return errors.New("load template command requires service")
	}
	var source reports.Template
	switch {
	case msg.GalleryID != "":
		tpl, ok := c.service.Gallery().Get(msg.GalleryID)
		if !ok {
			return fmt.Errorf("%w: %s", reports.ErrTemplateNotFound, msg.GalleryID)
		}
		source = tpl
	case msg.Source != nil:
		source = *msg.Source
	default:
		return errors.New("load template command requires gallery id or source")
	}
	if _, err := c.service.LoadTemplate(ctx, msg.TemplateID, source); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "reports.command.template.load", map[string]any{
		"template_id": msg.TemplateID,
		"gallery_id":  msg.GalleryID,
	})
	return nil
}

// UpdatePageSettingsInput replaces the page settings of a template.
type UpdatePageSettingsInput struct {
	TemplateID   string               `json:"template_id"`
	PageSettings reports.PageSettings `json:"page_settings"`
}

// UpdatePageSettingsCommand changes paper size, orientation and margin.
type UpdatePageSettingsCommand struct {
	service   templateService
	telemetry Telemetry
}

// NewUpdatePageSettingsCommand creates the command.
func NewUpdatePageSettingsCommand(service templateService, telemetry Telemetry) *UpdatePageSettingsCommand {
	return &UpdatePageSettingsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdatePageSettingsInput] = (*UpdatePageSettingsCommand)(nil)

// Execute applies the page settings.
func (c *UpdatePageSettingsCommand) Execute(ctx context.Context, msg UpdatePageSettingsInput) error {
	if c.service == nil {
		return errors.New("page settings command requires service")
	}
	if _, err := c.service.UpdatePageSettings(ctx, msg.TemplateID, msg.PageSettings); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "reports.command.template.page_settings", map[string]any{
		"template_id": msg.TemplateID,
		"size":        string(msg.PageSettings.Size),
	})
	return nil
}

// UpdateScheduleInput sets or removes a delivery schedule.
type UpdateScheduleInput struct {
	TemplateID string            `json:"template_id"`
	Schedule   *reports.Schedule `json:"schedule,omitempty"`
}

// UpdateScheduleCommand stores the delivery schedule.
type UpdateScheduleCommand struct {
	service   templateService
	telemetry Telemetry
}

// NewUpdateScheduleCommand creates the command.
func NewUpdateScheduleCommand(service templateService, telemetry Telemetry) *UpdateScheduleCommand {
	return &UpdateScheduleCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateScheduleInput] = (*UpdateScheduleCommand)(nil)

// Execute applies the schedule.
func (c *UpdateScheduleCommand) Execute(ctx context.Context, msg UpdateScheduleInput) error {
	if c.service == nil {
		return errors.New("schedule command requires service")
	}
	if _, err := c.service.UpdateSchedule(ctx, msg.TemplateID, msg.Schedule); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "reports.command.template.schedule", map[string]any{
		"template_id": msg.TemplateID,
		"enabled":     msg.Schedule != nil && msg.Schedule.Enabled,
	})
	return nil
}
