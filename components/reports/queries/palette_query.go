package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	reports "github.com/goliatone/go-reports/components/reports"
)

// PaletteItem is a palette entry resolved for a locale.
type PaletteItem struct {
	Kind         reports.ElementKind `json:"kind"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Category     string              `json:"category,omitempty"`
	DefaultSize  reports.Size        `json:"default_size"`
	DefaultTitle string              `json:"default_title,omitempty"`
}

// PaletteInput selects the locale used for names and descriptions.
type PaletteInput struct {
	Locale string
}

type paletteSource interface {
	Palette() reports.PaletteRegistry
}

// PaletteQuery lists palette entries in display order.
type PaletteQuery struct {
	service paletteSource
}

// NewPaletteQuery builds the query.
func NewPaletteQuery(service paletteSource) *PaletteQuery {
	return &PaletteQuery{service: service}
}

var _ gocommand.Querier[PaletteInput, []PaletteItem] = (*PaletteQuery)(nil)

// Query resolves the palette for the locale.
func (q *PaletteQuery) Query(_ context.Context, input PaletteInput) ([]PaletteItem, error) {
	entries := q.service.Palette().Entries()
	out := make([]PaletteItem, 0, len(entries))
	for _, entry := range entries {
		title := entry.DefaultTitle
		if title == "" {
			title = entry.Name
		}
		out = append(out, PaletteItem{
			Kind:         entry.Kind,
			Name:         entry.NameForLocale(input.Locale),
			Description:  entry.DescriptionForLocale(input.Locale),
			Category:     entry.Category,
			DefaultSize:  entry.DefaultSize,
			DefaultTitle: title,
		})
	}
	return out, nil
}

type gallerySource interface {
	Gallery() *reports.Gallery
}

// GalleryInput is intentionally empty.
type GalleryInput struct{}

// GalleryQuery lists the predefined templates.
type GalleryQuery struct {
	service gallerySource
}

// NewGalleryQuery builds the query.
func NewGalleryQuery(service gallerySource) *GalleryQuery {
	return &GalleryQuery{service: service}
}

var _ gocommand.Querier[GalleryInput, []reports.Template] = (*GalleryQuery)(nil)

// Query lists gallery templates sorted by name.
func (q *GalleryQuery) Query(context.Context, GalleryInput) ([]reports.Template, error) {
	return q.service.Gallery().List(), nil
}
