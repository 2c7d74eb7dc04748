package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	reports "github.com/goliatone/go-reports/components/reports"
)

// SelectionInput identifies the viewer and template.
type SelectionInput struct {
	Viewer     reports.ViewerContext
	TemplateID string
}

// SelectionResult carries the selected element, if any.
type SelectionResult struct {
	Selected bool             `json:"selected"`
	Element  *reports.Element `json:"element,omitempty"`
}

type selectionService interface {
	Selection(ctx context.Context, viewer reports.ViewerContext, templateID string) (reports.Element, bool, error)
}

// SelectionQuery resolves the viewer's selected element.
type SelectionQuery struct {
	service selectionService
}

// NewSelectionQuery builds the query.
func NewSelectionQuery(service selectionService) *SelectionQuery {
	return &SelectionQuery{service: service}
}

var _ gocommand.Querier[SelectionInput, SelectionResult] = (*SelectionQuery)(nil)

// Query returns the selection.
func (q *SelectionQuery) Query(ctx context.Context, input SelectionInput) (SelectionResult, error) {
	el, ok, err := q.service.Selection(ctx, input.Viewer, input.TemplateID)
	if err != nil || !ok {
		return SelectionResult{}, err
	}
	return SelectionResult{Selected: true, Element: &el}, nil
}
