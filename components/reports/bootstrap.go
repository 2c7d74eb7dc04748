package reports

import (
	"context"
	"errors"
	"fmt"
)

// SeedGallery creates one stored template per gallery entry and returns the created templates.
// Failures do not stop the remaining entries; they are joined into the returned error.
func SeedGallery(ctx context.Context, service *Service) ([]Template, error) {
	if service == nil {
		return nil, errors.New("reports: service is required to seed the gallery")
	}
	var (
		created []Template
		seedErr error
	)
	for _, entry := range service.Gallery().List() {
		tpl, err := service.CreateTemplate(ctx, CreateTemplateRequest{GalleryID: entry.ID})
		if err != nil {
			seedErr = errors.Join(seedErr, fmt.Errorf("seed %s: %w", entry.ID, err))
			continue
		}
		created = append(created, tpl)
	}
	return created, seedErr
}

// RegisterManifest loads a manifest document into the service palette and gallery.
func RegisterManifest(service *Service, doc *ManifestDocument) error {
	if service == nil {
		return errors.New("reports: service is required to register a manifest")
	}
	if palette, ok := service.Palette().(*Palette); ok {
		if err := palette.LoadManifestDocument(doc); err != nil {
			return err
		}
	} else if doc != nil {
		for _, item := range doc.Entries {
			if err := service.Palette().Register(item.Entry); err != nil {
				return fmt.Errorf("reports: register palette entry %s: %w", item.Entry.Kind, err)
			}
		}
	}
	if forgetter, ok := service.opts.ConfigValidator.(interface{ Forget(ElementKind) }); ok && doc != nil {
		for _, item := range doc.Entries {
			forgetter.Forget(item.Entry.Kind)
		}
	}
	return service.Gallery().LoadManifestDocument(doc)
}
