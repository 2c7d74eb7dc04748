package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	reports "github.com/goliatone/go-reports/components/reports"
)

// PreviewInput identifies the template to preview.
type PreviewInput struct {
	Viewer     reports.ViewerContext
	TemplateID string
}

type previewService interface {
	Page(ctx context.Context, viewer reports.ViewerContext, templateID string) (reports.PreviewPage, error)
}

// PreviewQuery builds positioned preview pages with provider data.
type PreviewQuery struct {
	service previewService
}

// NewPreviewQuery builds the query.
func NewPreviewQuery(service previewService) *PreviewQuery {
	return &PreviewQuery{service: service}
}

var _ gocommand.Querier[PreviewInput, reports.PreviewPage] = (*PreviewQuery)(nil)

// Query builds the preview page.
func (q *PreviewQuery) Query(ctx context.Context, input PreviewInput) (reports.PreviewPage, error) {
	return q.service.Page(ctx, input.Viewer, input.TemplateID)
}
