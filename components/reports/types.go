package reports

import (
	"context"
	"fmt"
	"time"
)

// TemplateStore persists full report template documents keyed by id.
// Implementations ensure thread safety; partial updates are not supported.
type TemplateStore interface {
	Create(ctx context.Context, tpl Template) (Template, error)
	Get(ctx context.Context, id string) (Template, error)
	Update(ctx context.Context, tpl Template) (Template, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Template, error)
}

// PaletteRegistry stores the element kinds users can drop onto a canvas.
type PaletteRegistry interface {
	Register(entry PaletteEntry) error
	Entry(kind ElementKind) (PaletteEntry, bool)
	Entries() []PaletteEntry
}

// SelectionStore keeps the selected element per viewer and template.
type SelectionStore interface {
	Selection(ctx context.Context, viewer ViewerContext, templateID string) (string, error)
	SaveSelection(ctx context.Context, viewer ViewerContext, templateID, elementID string) error
}

// ChangeHook notifies transports (REST/WebSocket) about canvas changes.
type ChangeHook interface {
	CanvasChanged(ctx context.Context, event CanvasEvent) error
}

// ElementKind enumerates the element types a report canvas can hold.
type ElementKind string

const (
	KindChart  ElementKind = "chart"
	KindTable  ElementKind = "table"
	KindMetric ElementKind = "metric"
	KindText   ElementKind = "text"
	KindFilter ElementKind = "filter"
	KindSpacer ElementKind = "spacer"
)

var knownKinds = map[ElementKind]struct{}{
	KindChart:  {},
	KindTable:  {},
	KindMetric: {},
	KindText:   {},
	KindFilter: {},
	KindSpacer: {},
}

// Valid reports whether the kind is part of the element vocabulary.
func (k ElementKind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// ParseElementKind validates a raw kind string.
func ParseElementKind(raw string) (ElementKind, error) {
	kind := ElementKind(raw)
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
	return kind, nil
}

// Element is a single placed item on the report canvas.
type Element struct {
	ID       string         `json:"id" yaml:"id"`
	Kind     ElementKind    `json:"kind" yaml:"kind"`
	Title    string         `json:"title" yaml:"title"`
	Config   map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Position GridPosition   `json:"position" yaml:"position"`
	Size     Size           `json:"size" yaml:"size"`
}

// ElementPatch carries the fields of an element to replace. Nil fields are left untouched.
type ElementPatch struct {
	Title    *string        `json:"title,omitempty"`
	Config   map[string]any `json:"config,omitempty"`
	Position *GridPosition  `json:"position,omitempty"`
	Size     *Size          `json:"size,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p ElementPatch) IsZero() bool {
	return p.Title == nil && p.Config == nil && p.Position == nil && p.Size == nil
}

// Template is a report document: ordered elements plus page settings.
// Element order is paint order; later elements are drawn on top.
type Template struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Elements     []Element    `json:"elements" yaml:"elements"`
	PageSettings PageSettings `json:"page_settings" yaml:"page_settings"`
	Schedule     *Schedule    `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	CreatedAt    time.Time    `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt    time.Time    `json:"updated_at,omitempty" yaml:"-"`
}

// ViewerContext captures the active user/locale information for a builder session.
type ViewerContext struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
	Locale string   `json:"locale,omitempty"`
}

// CanvasEvent describes changes that transports might care about.
type CanvasEvent struct {
	TemplateID string   `json:"template_id"`
	ElementID  string   `json:"element_id,omitempty"`
	Reason     string   `json:"reason"`
	Element    *Element `json:"element,omitempty"`
}

const (
	ReasonTemplateCreate = "template.create"
	ReasonTemplateLoad   = "template.load"
	ReasonTemplateDelete = "template.delete"
	ReasonPageSettings   = "template.page_settings"
	ReasonSchedule       = "template.schedule"
	ReasonElementAdd     = "element.add"
	ReasonElementUpdate  = "element.update"
	ReasonElementDelete  = "element.delete"
	ReasonElementCopy    = "element.duplicate"
	ReasonElementSelect  = "element.select"
	ReasonCanvasRefresh  = "canvas.refresh"
)
