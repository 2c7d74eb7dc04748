package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-reports/pkg/activity"
)

// Options configures the report builder Service. Every collaborator is an interface so
// applications can swap storage, palette, transport hooks and exporters.
type Options struct {
	Store           TemplateStore
	Palette         PaletteRegistry
	Gallery         *Gallery
	Selections      SelectionStore
	ConfigValidator ConfigValidator
	ChangeHook      ChangeHook
	Telemetry       Telemetry
	IDs             IDGenerator
	Exporters       []Exporter
	Sink            ArtifactSink
	ActivityHooks   activity.Hooks
	ActivityConfig  activity.Config
	Clock           func() time.Time
}

// Service orchestrates report templates on top of a TemplateStore. Each mutation loads the
// template into a Canvas, applies the edit and writes the full document back.
type Service struct {
	opts      Options
	exporters map[ExportFormat]Exporter
	activity  *activity.Emitter

	locksMu sync.Mutex
	locks   map[string]*templateLock
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) *Service {
	if opts.Palette == nil {
		opts.Palette = NewPalette()
	}
	if opts.Gallery == nil {
		opts.Gallery = NewGallery()
	}
	if opts.Selections == nil {
		opts.Selections = NewInMemorySelectionStore()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	if opts.ChangeHook == nil {
		opts.ChangeHook = noopChangeHook{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	opts.IDs = normalizeIDGenerator(opts.IDs)
	if len(opts.Exporters) == 0 {
		opts.Exporters = []Exporter{JSONExporter{Now: opts.Clock}, XLSXExporter{}}
	}
	svc := &Service{
		opts:      opts,
		exporters: make(map[ExportFormat]Exporter, len(opts.Exporters)),
		activity:  activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
		locks:     map[string]*templateLock{},
	}
	for _, exp := range opts.Exporters {
		if exp != nil {
			svc.exporters[exp.Format()] = exp
		}
	}
	return svc
}

// Palette exposes the palette registry.
func (s *Service) Palette() PaletteRegistry { return s.opts.Palette }

// Gallery exposes the template gallery.
func (s *Service) Gallery() *Gallery { return s.opts.Gallery }

// CreateTemplateRequest captures the data required to start a new template.
type CreateTemplateRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	GalleryID    string        `json:"gallery_id,omitempty"`
	PageSettings *PageSettings `json:"page_settings,omitempty"`
	Schedule     *Schedule     `json:"schedule,omitempty"`
}

// CreateTemplate stores an empty template, or a deep copy of a gallery template with fresh ids.
func (s *Service) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (Template, error) {
	store, err := s.store()
	if err != nil {
		return Template{}, err
	}
	tpl := Template{
		ID:           s.opts.IDs.NewID(),
		Elements:     []Element{},
		PageSettings: DefaultPageSettings(),
	}
	if req.GalleryID != "" {
		tpl, err = s.opts.Gallery.Instantiate(req.GalleryID, s.opts.IDs)
		if err != nil {
			return Template{}, err
		}
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		tpl.Name = name
	}
	if tpl.Name == "" {
		tpl.Name = "Untitled report"
	}
	if req.Description != "" {
		tpl.Description = req.Description
	}
	if req.PageSettings != nil {
		tpl.PageSettings = req.PageSettings.Normalize()
	}
	if req.Schedule != nil {
		tpl.Schedule = cloneSchedule(req.Schedule)
	}
	if err := ValidateTemplate(tpl); err != nil {
		return Template{}, err
	}
	now := s.opts.Clock().UTC()
	tpl.CreatedAt, tpl.UpdatedAt = now, now
	created, err := store.Create(ctx, tpl)
	if err != nil {
		return Template{}, fmt.Errorf("reports: create template: %w", err)
	}
	payload := map[string]any{"template_id": created.ID, "gallery_id": req.GalleryID, "elements": len(created.Elements)}
	if err := s.notify(ctx, CanvasEvent{TemplateID: created.ID, Reason: ReasonTemplateCreate}, "report_template", created.ID, payload); err != nil {
		return created, err
	}
	return created, nil
}

// GetTemplate returns the stored template.
func (s *Service) GetTemplate(ctx context.Context, id string) (Template, error) {
	store, err := s.store()
	if err != nil {
		return Template{}, err
	}
	if id == "" {
		return Template{}, errMissingTemplateID
	}
	return store.Get(ctx, id)
}

// ListTemplates returns every stored template.
func (s *Service) ListTemplates(ctx context.Context) ([]Template, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.List(ctx)
}

// DeleteTemplate removes a template and forgets selections on it.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	if id == "" {
		return errMissingTemplateID
	}
	unlock := s.lock(id)
	defer unlock()
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	s.clearSelections(ctx, id)
	return s.notify(ctx, CanvasEvent{TemplateID: id, Reason: ReasonTemplateDelete}, "report_template", id, map[string]any{"template_id": id})
}

// UpdatePageSettings replaces the page settings of a template.
func (s *Service) UpdatePageSettings(ctx context.Context, templateID string, settings PageSettings) (Template, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return Template{}, err
	}
	tpl, err := s.mutate(ctx, templateID, func(_ *Canvas, tpl *Template) error {
		tpl.PageSettings = settings
		return nil
	})
	if err != nil {
		return Template{}, err
	}
	payload := map[string]any{"template_id": templateID, "size": string(settings.Size), "orientation": string(settings.Orientation)}
	return tpl, s.notify(ctx, CanvasEvent{TemplateID: templateID, Reason: ReasonPageSettings}, "report_template", templateID, payload)
}

// UpdateSchedule replaces the delivery schedule. A nil schedule removes it.
func (s *Service) UpdateSchedule(ctx context.Context, templateID string, schedule *Schedule) (Template, error) {
	if schedule != nil {
		if err := schedule.Validate(); err != nil {
			return Template{}, err
		}
	}
	tpl, err := s.mutate(ctx, templateID, func(_ *Canvas, tpl *Template) error {
		tpl.Schedule = cloneSchedule(schedule)
		return nil
	})
	if err != nil {
		return Template{}, err
	}
	payload := map[string]any{"template_id": templateID, "enabled": schedule != nil && schedule.Enabled}
	return tpl, s.notify(ctx, CanvasEvent{TemplateID: templateID, Reason: ReasonSchedule}, "report_template", templateID, payload)
}

// AddElementRequest captures a palette drop.
type AddElementRequest struct {
	TemplateID string         `json:"template_id"`
	Kind       ElementKind    `json:"kind"`
	Drop       PixelPoint     `json:"drop"`
	Title      string         `json:"title,omitempty"`
	Config     map[string]any `json:"config,omitempty"`
}

// AddElement drops a palette entry on the template. Config overrides are merged over the
// entry defaults and validated against the entry schema.
func (s *Service) AddElement(ctx context.Context, req AddElementRequest) (Element, error) {
	if req.TemplateID == "" {
		return Element{}, errMissingTemplateID
	}
	entry, ok := s.opts.Palette.Entry(req.Kind)
	if !ok {
		if !req.Kind.Valid() {
			return Element{}, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
		}
		return Element{}, fmt.Errorf("%w: %s", ErrPaletteEntryNotFound, req.Kind)
	}
	entry.DefaultConfig = mergeConfig(entry.DefaultConfig, req.Config)
	if req.Title != "" {
		entry.DefaultTitle = req.Title
	}
	if err := s.opts.ConfigValidator.Validate(entry, entry.DefaultConfig); err != nil {
		return Element{}, err
	}
	var added Element
	_, err := s.mutate(ctx, req.TemplateID, func(c *Canvas, _ *Template) error {
		el, err := c.AddElement(entry, req.Drop)
		added = el
		return err
	})
	if err != nil {
		return Element{}, err
	}
	payload := map[string]any{
		"template_id": req.TemplateID,
		"element_id":  added.ID,
		"kind":        string(added.Kind),
		"x":           added.Position.X,
		"y":           added.Position.Y,
	}
	return added, s.notifyElement(ctx, req.TemplateID, ReasonElementAdd, added, payload)
}

// UpdateElementRequest carries a partial element update.
type UpdateElementRequest struct {
	TemplateID string       `json:"template_id"`
	ElementID  string       `json:"element_id"`
	Patch      ElementPatch `json:"patch"`
}

// UpdateElement replaces the patched fields of an element. Last write wins.
func (s *Service) UpdateElement(ctx context.Context, req UpdateElementRequest) (Element, error) {
	if req.TemplateID == "" {
		return Element{}, errMissingTemplateID
	}
	if req.ElementID == "" {
		return Element{}, errMissingElementID
	}
	var updated Element
	_, err := s.mutate(ctx, req.TemplateID, func(c *Canvas, _ *Template) error {
		if req.Patch.Config != nil {
			current, ok := c.Element(req.ElementID)
			if !ok {
				return fmt.Errorf("%w: %s", ErrElementNotFound, req.ElementID)
			}
			if entry, ok := s.opts.Palette.Entry(current.Kind); ok {
				if err := s.opts.ConfigValidator.Validate(entry, req.Patch.Config); err != nil {
					return err
				}
			}
		}
		el, err := c.UpdateElement(req.ElementID, req.Patch)
		updated = el
		return err
	})
	if err != nil {
		return Element{}, err
	}
	payload := map[string]any{"template_id": req.TemplateID, "element_id": req.ElementID, "fields": patchFields(req.Patch)}
	return updated, s.notifyElement(ctx, req.TemplateID, ReasonElementUpdate, updated, payload)
}

// DeleteElementRequest identifies the element to remove. Viewer is optional; when set,
// that viewer's selection is cleared if it pointed at the element.
type DeleteElementRequest struct {
	TemplateID string        `json:"template_id"`
	ElementID  string        `json:"element_id"`
	Viewer     ViewerContext `json:"-"`
}

// DeleteElement removes an element. Missing elements return ErrElementNotFound and leave state untouched.
func (s *Service) DeleteElement(ctx context.Context, req DeleteElementRequest) error {
	if req.TemplateID == "" {
		return errMissingTemplateID
	}
	if req.ElementID == "" {
		return errMissingElementID
	}
	var removed Element
	_, err := s.mutate(ctx, req.TemplateID, func(c *Canvas, _ *Template) error {
		removed, _ = c.Element(req.ElementID)
		return c.DeleteElement(req.ElementID)
	})
	if err != nil {
		return err
	}
	if req.Viewer.UserID != "" {
		if current, err := s.opts.Selections.Selection(ctx, req.Viewer, req.TemplateID); err == nil && current == req.ElementID {
			_ = s.opts.Selections.SaveSelection(ctx, req.Viewer, req.TemplateID, "")
		}
	}
	payload := map[string]any{"template_id": req.TemplateID, "element_id": req.ElementID, "kind": string(removed.Kind)}
	event := CanvasEvent{TemplateID: req.TemplateID, ElementID: req.ElementID, Reason: ReasonElementDelete}
	return s.notify(ctx, event, "report_element", req.ElementID, payload)
}

// DuplicateElementRequest identifies the element to copy.
type DuplicateElementRequest struct {
	TemplateID string `json:"template_id"`
	ElementID  string `json:"element_id"`
}

// DuplicateElement copies an element one cell down and to the right.
func (s *Service) DuplicateElement(ctx context.Context, req DuplicateElementRequest) (Element, error) {
	if req.TemplateID == "" {
		return Element{}, errMissingTemplateID
	}
	if req.ElementID == "" {
		return Element{}, errMissingElementID
	}
	var dup Element
	_, err := s.mutate(ctx, req.TemplateID, func(c *Canvas, _ *Template) error {
		el, err := c.DuplicateElement(req.ElementID)
		dup = el
		return err
	})
	if err != nil {
		return Element{}, err
	}
	payload := map[string]any{"template_id": req.TemplateID, "element_id": dup.ID, "source_id": req.ElementID}
	return dup, s.notifyElement(ctx, req.TemplateID, ReasonElementCopy, dup, payload)
}

// SelectElement stores the viewer's selection. An empty elementID clears it.
func (s *Service) SelectElement(ctx context.Context, viewer ViewerContext, templateID, elementID string) error {
	if viewer.UserID == "" {
		return errors.New("reports: viewer context missing user id")
	}
	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	canvas := NewCanvas(tpl, CanvasOptions{IDs: s.opts.IDs})
	if err := canvas.Select(elementID); err != nil {
		return err
	}
	if err := s.opts.Selections.SaveSelection(ctx, viewer, templateID, elementID); err != nil {
		return err
	}
	event := CanvasEvent{TemplateID: templateID, ElementID: elementID, Reason: ReasonElementSelect}
	if err := s.opts.ChangeHook.CanvasChanged(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "reports.element.select", map[string]any{"template_id": templateID, "element_id": elementID, "viewer": viewer.UserID})
	return nil
}

// Selection returns the viewer's selected element. A selection pointing at a
// removed element reads as no selection.
func (s *Service) Selection(ctx context.Context, viewer ViewerContext, templateID string) (Element, bool, error) {
	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return Element{}, false, err
	}
	id, err := s.opts.Selections.Selection(ctx, viewer, templateID)
	if err != nil || id == "" {
		return Element{}, false, err
	}
	canvas := NewCanvas(tpl, CanvasOptions{IDs: s.opts.IDs})
	el, ok := canvas.Element(id)
	return el, ok, nil
}

// LoadTemplate replaces the content of templateID with a deep copy of source. The target keeps its id
// and creation time; every viewer selection on it is cleared.
func (s *Service) LoadTemplate(ctx context.Context, templateID string, source Template) (Template, error) {
	source.PageSettings = source.PageSettings.Normalize()
	if err := ValidateTemplate(source); err != nil {
		return Template{}, err
	}
	tpl, err := s.mutate(ctx, templateID, func(c *Canvas, tpl *Template) error {
		if err := c.LoadTemplate(source); err != nil {
			return err
		}
		loaded := c.Template()
		tpl.Name = loaded.Name
		tpl.Description = loaded.Description
		tpl.PageSettings = loaded.PageSettings
		tpl.Schedule = loaded.Schedule
		return nil
	})
	if err != nil {
		return Template{}, err
	}
	s.clearSelections(ctx, templateID)
	payload := map[string]any{"template_id": templateID, "source_id": source.ID, "elements": len(tpl.Elements)}
	return tpl, s.notify(ctx, CanvasEvent{TemplateID: templateID, Reason: ReasonTemplateLoad}, "report_template", templateID, payload)
}

// ExportResult is an exported artifact plus the sink location, if a sink is configured.
type ExportResult struct {
	Artifact Artifact `json:"artifact"`
	Location string   `json:"location,omitempty"`
}

// Export renders templateID with the exporter registered for format.
func (s *Service) Export(ctx context.Context, templateID string, format ExportFormat) (ExportResult, error) {
	exporter, ok := s.exporters[format]
	if !ok {
		return ExportResult{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return ExportResult{}, err
	}
	artifact, err := exporter.Export(ctx, tpl)
	if err != nil {
		return ExportResult{}, err
	}
	result := ExportResult{Artifact: artifact}
	if s.opts.Sink != nil {
		location, err := s.opts.Sink.Put(ctx, artifact)
		if err != nil {
			return ExportResult{}, fmt.Errorf("reports: store export %s: %w", artifact.Name, err)
		}
		result.Location = location
	}
	s.recordTelemetry(ctx, "reports.template.export", map[string]any{
		"template_id": templateID,
		"format":      string(format),
		"bytes":       len(artifact.Data),
		"location":    result.Location,
	})
	return result, nil
}

// ExportFormats lists the registered export formats.
func (s *Service) ExportFormats() []ExportFormat {
	out := make([]ExportFormat, 0, len(s.exporters))
	for format := range s.exporters {
		out = append(out, format)
	}
	return out
}

// NotifyCanvasChanged exposes change hook invocation for commands and transports.
func (s *Service) NotifyCanvasChanged(ctx context.Context, event CanvasEvent) error {
	if err := s.opts.ChangeHook.CanvasChanged(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "reports.canvas.event", map[string]any{
		"template_id": event.TemplateID,
		"element_id":  event.ElementID,
		"reason":      event.Reason,
	})
	return nil
}

func (s *Service) mutate(ctx context.Context, templateID string, fn func(c *Canvas, tpl *Template) error) (Template, error) {
	store, err := s.store()
	if err != nil {
		return Template{}, err
	}
	if templateID == "" {
		return Template{}, errMissingTemplateID
	}
	unlock := s.lock(templateID)
	defer unlock()

	tpl, err := store.Get(ctx, templateID)
	if err != nil {
		return Template{}, err
	}
	canvas := NewCanvas(tpl, CanvasOptions{IDs: s.opts.IDs})
	if err := fn(canvas, &tpl); err != nil {
		return Template{}, err
	}
	tpl.Elements = canvas.Elements()
	tpl.UpdatedAt = s.opts.Clock().UTC()
	updated, err := store.Update(ctx, tpl)
	if err != nil {
		return Template{}, fmt.Errorf("reports: update template %s: %w", templateID, err)
	}
	return updated, nil
}

type templateLock struct {
	mu   sync.Mutex
	refs int
}

// lock serializes read-modify-write cycles per template. An entry lives only
// while some caller holds or waits on it.
func (s *Service) lock(templateID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[templateID]
	if !ok {
		l = &templateLock{}
		s.locks[templateID] = l
	}
	l.refs++
	s.locksMu.Unlock()
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, templateID)
		}
		s.locksMu.Unlock()
	}
}

func (s *Service) store() (TemplateStore, error) {
	if s.opts.Store == nil {
		return nil, ErrMissingStore
	}
	return s.opts.Store, nil
}

func (s *Service) clearSelections(ctx context.Context, templateID string) {
	if clearer, ok := s.opts.Selections.(interface {
		ClearTemplate(ctx context.Context, templateID string)
	}); ok {
		clearer.ClearTemplate(ctx, templateID)
	}
}

func (s *Service) notifyElement(ctx context.Context, templateID, reason string, el Element, payload map[string]any) error {
	cp := cloneElement(el)
	event := CanvasEvent{TemplateID: templateID, ElementID: el.ID, Reason: reason, Element: &cp}
	return s.notify(ctx, event, "report_element", el.ID, payload)
}

// notify runs the change hook, telemetry and activity for a completed mutation.
func (s *Service) notify(ctx context.Context, event CanvasEvent, objectType, objectID string, payload map[string]any) error {
	if err := s.opts.ChangeHook.CanvasChanged(ctx, event); err != nil {
		return err
	}
	verb := "reports." + event.Reason
	s.recordTelemetry(ctx, verb, payload)
	s.emitActivity(ctx, verb, objectType, objectID, payload)
	return nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Service) emitActivity(ctx context.Context, verb, objectType, objectID string, metadata map[string]any) {
	if !s.activity.Enabled() {
		return
	}
	actor := ActivityFromContext(ctx)
	if err := s.activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    actor.ActorID,
		UserID:     actor.UserID,
		TenantID:   actor.TenantID,
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metadata,
	}); err != nil {
		s.recordTelemetry(ctx, "reports.activity.error", map[string]any{"verb": verb, "error": err.Error()})
	}
}

func mergeConfig(defaults, override map[string]any) map[string]any {
	if len(override) == 0 {
		return cloneConfig(defaults)
	}
	out := cloneConfig(defaults)
	if out == nil {
		out = make(map[string]any, len(override))
	}
	for k, v := range cloneConfig(override) {
		out[k] = v
	}
	return out
}

func patchFields(p ElementPatch) []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Config != nil {
		fields = append(fields, "config")
	}
	if p.Position != nil {
		fields = append(fields, "position")
	}
	if p.Size != nil {
		fields = append(fields, "size")
	}
	return fields
}
