package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	reports "github.com/goliatone/go-reports/components/reports"
)

// SeedGalleryInput controls bootstrap behavior.
type SeedGalleryInput struct {
	// Manifest is an optional palette pack applied before seeding.
	Manifest *reports.ManifestDocument
	// SeedTemplates stores one template per gallery entry.
	SeedTemplates bool
}

// SeedGalleryCommand registers manifest packs and optionally seeds stored templates.
type SeedGalleryCommand struct {
	service   *reports.Service
	telemetry Telemetry
}

// NewSeedGalleryCommand wires dependencies.
func NewSeedGalleryCommand(service *reports.Service, telemetry Telemetry) *SeedGalleryCommand {
	return &SeedGalleryCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedGalleryInput] = (*SeedGalleryCommand)(nil)

// Execute runs the bootstrap pipeline.
func (c *SeedGalleryCommand) Execute(ctx context.Context, msg SeedGalleryInput) error {
	if c.service == nil {
		return errors.New("seed command requires service")
	}
	if msg.Manifest != nil {
		if err := reports.RegisterManifest(c.service, msg.Manifest); err != nil {
			return err
		}
	}
	seeded := 0
	if msg.SeedTemplates {
		created, err := reports.SeedGallery(ctx, c.service)
		seeded = len(created)
		if err != nil {
			return err
		}
	}
	c.telemetry.Record(ctx, "reports.seed", map[string]any{
		"manifest": msg.Manifest != nil,
		"seeded":   seeded,
	})
	return nil
}
