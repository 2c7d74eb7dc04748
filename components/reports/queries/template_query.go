package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	reports "github.com/goliatone/go-reports/components/reports"
)

type templateService interface {
	GetTemplate(ctx context.Context, id string) (reports.Template, error)
	ListTemplates(ctx context.Context) ([]reports.Template, error)
}

// TemplateInput identifies a stored template.
type TemplateInput struct {
	TemplateID string
}

// TemplateQuery loads a single template.
type TemplateQuery struct {
	service templateService
}

// NewTemplateQuery builds the query.
func NewTemplateQuery(service templateService) *TemplateQuery {
	return &TemplateQuery{service: service}
}

var _ gocommand.Querier[TemplateInput, reports.Template] = (*TemplateQuery)(nil)

// Query returns the template.
func (q *TemplateQuery) Query(ctx context.Context, input TemplateInput) (reports.Template, error) {
	return q.service.GetTemplate(ctx, input.TemplateID)
}

// TemplateListInput is intentionally empty; filtering happens in the store.
type TemplateListInput struct{}

// TemplateListQuery lists stored templates.
type TemplateListQuery struct {
	service templateService
}

// NewTemplateListQuery builds the query.
func NewTemplateListQuery(service templateService) *TemplateListQuery {
	return &TemplateListQuery{service: service}
}

var _ gocommand.Querier[TemplateListInput, []reports.Template] = (*TemplateListQuery)(nil)

// Query lists templates.
func (q *TemplateListQuery) Query(ctx context.Context, _ TemplateListInput) ([]reports.Template, error) {
	return q.service.ListTemplates(ctx)
}
