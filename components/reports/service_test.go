package reports

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-reports/pkg/activity"
)

type collectingHook struct {
	events []CanvasEvent
	err    error
}

func (h *collectingHook) CanvasChanged(_ context.Context, event CanvasEvent) error {
	h.events = append(h.events, event)
	return h.err
}

var _ ChangeHook = (*collectingHook)(nil)

type testTelemetry struct {
	events []string
}

func (t *testTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	t.events = append(t.events, event)
}

type recordingSink struct {
	artifacts []Artifact
}

func (s *recordingSink) Put(_ context.Context, artifact Artifact) (string, error) {
	s.artifacts = append(s.artifacts, artifact)
	return "mem://" + artifact.Name, nil
}

var fixedNow = time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestService(t *testing.T, hook ChangeHook, telemetry Telemetry) *Service {
	t.Helper()
	return NewService(Options{
		Store:      NewInMemoryTemplateStore(),
		ChangeHook: hook,
		Telemetry:  telemetry,
		IDs:        &SequenceGenerator{Prefix: "id-"},
		Clock:      func() time.Time { return fixedNow },
	})
}

func mustCreate(t *testing.T, svc *Service, req CreateTemplateRequest) Template {
	t.Helper()
	tpl, err := svc.CreateTemplate(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateTemplate returned error: %v", err)
	}
	return tpl
}

func TestCreateTemplateEmpty(t *testing.T) {
	hook := &collectingHook{}
	svc := newTestService(t, hook, nil)
	tpl := mustCreate(t, svc, CreateTemplateRequest{Name: " Weekly "})
	if tpl.ID != "id-1" || tpl.Name != "Weekly" {
		t.Fatalf("unexpected template %+v", tpl)
	}
	if len(tpl.Elements) != 0 || tpl.PageSettings != DefaultPageSettings() {
		t.Fatalf("expected empty A4 template, got %+v", tpl)
	}
	if !tpl.CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected created_at from clock, got %v", tpl.CreatedAt)
	}
	if len(hook.events) != 1 || hook.events[0].Reason != ReasonTemplateCreate {
		t.Fatalf("expected create event, got %#v", hook.events)
	}
}

func TestCreateTemplateFromGallery(t *testing.T) {
	svc := newTestService(t, nil, nil)
	tpl := mustCreate(t, svc, CreateTemplateRequest{GalleryID: "gallery.executive_summary"})
	if tpl.Name != "Executive Summary" {
		t.Fatalf("expected gallery name, got %q", tpl.Name)
	}
	src, _ := svc.Gallery().Get("gallery.executive_summary")
	if len(tpl.Elements) != len(src.Elements) {
		t.Fatalf("expected %d elements, got %d", len(src.Elements), len(tpl.Elements))
	}
	for _, el := range tpl.Elements {
		if !strings.HasPrefix(el.ID, "id-") {
			t.Fatalf("expected fresh element id, got %s", el.ID)
		}
	}
	if _, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{GalleryID: "nope"}); !IsNotFound(err) {
		t.Fatalf("expected not found for unknown gallery id, got %v", err)
	}
}

func TestServiceRequiresStore(t *testing.T) {
	svc := NewService(Options{})
	if _, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{}); !errors.Is(err, ErrMissingStore) {
		t.Fatalf("expected ErrMissingStore, got %v", err)
	}
	if _, err := svc.AddElement(context.Background(), AddElementRequest{TemplateID: "x", Kind: KindText}); !errors.Is(err, ErrMissingStore) {
		t.Fatalf("expected ErrMissingStore, got %v", err)
	}
}

func TestAddElementPersistsAndNotifies(t *testing.T) {
	hook := &collectingHook{}
	telemetry := &testTelemetry{}
	svc := newTestService(t, hook, telemetry)
	tpl := mustCreate(t, svc, CreateTemplateRequest{Name: "Ops"})

	el, err := svc.AddElement(context.Background(), AddElementRequest{
		TemplateID: tpl.ID,
		Kind:       KindMetric,
		Drop:       PixelPoint{X: 130, Y: 85},
		Config:     map[string]any{"unit": "ms"},
	})
	if err != nil {
		t.Fatalf("AddElement returned error: %v", err)
	}
	if el.Position != (GridPosition{X: 2, Y: 1}) || el.Size != (Size{Width: 3, Height: 2}) {
		t.Fatalf("unexpected geometry %+v", el)
	}
	if el.Config["format"] != "number" || el.Config["unit"] != "ms" {
		t.Fatalf("expected defaults merged with override, got %v", el.Config)
	}
	stored, _ := svc.GetTemplate(context.Background(), tpl.ID)
	if len(stored.Elements) != 1 || stored.Elements[0].ID != el.ID {
		t.Fatalf("element not persisted: %#v", stored.Elements)
	}
	last := hook.events[len(hook.events)-1]
	if last.Reason != ReasonElementAdd || last.Element == nil || last.Element.ID != el.ID {
		t.Fatalf("unexpected event %#v", last)
	}
	if telemetry.events[len(telemetry.events)-1] != "reports.element.add" {
		t.Fatalf("unexpected telemetry %v", telemetry.events)
	}
}

func TestAddElementValidatesInput(t *testing.T) {
	svc := newTestService(t, nil, nil)
	tpl := mustCreate(t, svc, CreateTemplateRequest{})
	ctx := context.Background()
	if _, err := svc.AddElement(ctx, AddElementRequest{TemplateID: tpl.ID, Kind: "gauge"}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := svc.AddElement(ctx, AddElementRequest{TemplateID: tpl.ID, Kind: KindChart, Config: map[string]any{"type": "radar"}}); !IsValidation(err) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	if _, err := svc.AddElement(ctx, AddElementRequest{TemplateID: "missing", Kind: KindText}); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if _, err := svc.AddElement(ctx, AddElementRequest{Kind: KindText}); !IsValidation(err) {
		t.Fatalf("expected missing template id error, got %v", err)
	}
}

func TestAddElementPaletteEntryMissing(t *testing.T) {
	svc := NewService(Options{Store: NewInMemoryTemplateStore(), Palette: NewEmptyPalette()})
	tpl := mustCreate(t, svc, CreateTemplateRequest{})
	_, err := svc.AddElement(context.Background(), AddElementRequest{TemplateID: tpl.ID, Kind: KindText})
	if !errors.Is(err, ErrPaletteEntryNotFound) {
		t.Fatalf("expected ErrPaletteEntryNotFound, got %v", err)
	}
}

func TestUpdateDuplicateDeleteFlow(t *testing.T) {
	hook := &collectingHook{}
	svc := newTestService(t, hook, nil)
	ctx := context.Background()
	tpl := mustCreate(t, svc, CreateTemplateRequest{})
	el, _ := svc.AddElement(ctx, AddElementRequest{TemplateID: tpl.ID, Kind: KindMetric, Drop: PixelPoint{Y: 50}})

	resized, err := svc.UpdateElement(ctx, UpdateElementRequest{TemplateID: tpl.ID, ElementID: el.ID, Patch: ElementPatch{Size: &Size{Width: 6, Height: 4}}})
	if err != nil {
		t.Fatalf("UpdateElement returned error: %v", err)
	}
	if resized.Position != el.Position || resized.Size != (Size{Width: 6, Height: 4}) {
		t.Fatalf("unexpected resize result %+v", resized)
	}
	if _, err := svc.UpdateElement(ctx, UpdateElementRequest{TemplateID: tpl.ID, ElementID: el.ID, Patch: ElementPatch{Config: map[string]any{"format": "weird"}}}); !IsValidation(err) {
		t.Fatalf("expected config validation error, got %v", err)
	}

	dup, err := svc.DuplicateElement(ctx, DuplicateElementRequest{TemplateID: tpl.ID, ElementID: el.ID})
	if err != nil {
		t.Fatalf("DuplicateElement returned error: %v", err)
	}
	if dup.Position != (GridPosition{X: 1, Y: 2}) || dup.ID == el.ID {
		t.Fatalf("unexpected duplicate %+v", dup)
	}

	viewer := ViewerContext{UserID: "u1"}
	if err := svc.SelectElement(ctx, viewer, tpl.ID, el.ID); err != nil {
		t.Fatalf("SelectElement returned error: %v", err)
	}
	if err := svc.DeleteElement(ctx, DeleteElementRequest{TemplateID: tpl.ID, ElementID: el.ID, Viewer: viewer}); err != nil {
		t.Fatalf("DeleteElement returned error: %v", err)
	}
	if _, ok, _ := svc.Selection(ctx, viewer, tpl.ID); ok {
		t.Fatalf("expected selection cleared after delete")
	}

	before, _ := svc.GetTemplate(ctx, tpl.ID)
	if err := svc.DeleteElement(ctx, DeleteElementRequest{TemplateID: tpl.ID, ElementID: el.ID}); !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
	title := "x"
	if _, err := svc.UpdateElement(ctx, UpdateElementRequest{TemplateID: tpl.ID, ElementID: el.ID, Patch: ElementPatch{Title: &title}}); !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
	after, _ := svc.GetTemplate(ctx, tpl.ID)
	if len(before.Elements) != len(after.Elements) || len(after.Elements) != 1 {
		t.Fatalf("failed mutations changed state")
	}

	reasons := make([]string, 0, len(hook.events))
	for _, e := range hook.events {
		reasons = append(reasons, e.Reason)
	}
	want := []string{ReasonTemplateCreate, ReasonElementAdd, ReasonElementUpdate, ReasonElementCopy, ReasonElementSelect, ReasonElementDelete}
	if strings.Join(reasons, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected event sequence %v", reasons)
	}
}

func TestSelectionPerViewer(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	tpl := mustCreate(t, svc, CreateTemplateRequest{})
	a, _ := svc.AddElement(ctx, AddElementRequest{TemplateID: tpl.ID, Kind: KindText})
	b, _ := svc.AddElement(ctx, AddElementRequest{TemplateID: tpl.ID, Kind: KindText})

	alice := ViewerContext{UserID: "alice"}
	bob := ViewerContext{UserID: "bob"}
	_ = svc.SelectElement(ctx, alice, tpl.ID, a.ID)
	_ = svc.SelectElement(ctx, alice, tpl.ID, b.ID)
	_ = svc.SelectElement(ctx, bob, tpl.ID, a.ID)

	sel, ok, err := svc.Selection(ctx, alice, tpl.ID)
	if err != nil || !ok || sel.ID != b.ID {
		t.Fatalf("expected alice to have %s selected, got %+v ok=%v err=%v", b.ID, sel, ok, err)
	}
	sel, _, _ = svc.Selection(ctx, bob, tpl.ID)
	if sel.ID != a.ID {
		t.Fatalf("expected bob to keep %s, got %s", a.ID, sel.ID)
	}
	if err := svc.SelectElement(ctx, alice, tpl.ID, "missing"); !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
	if err := svc.SelectElement(ctx, ViewerContext{}, tpl.ID, a.ID); err == nil {
		t.Fatalf("expected error for anonymous viewer")
	}
}

func TestLoadTemplateReplacesContentAndClearsSelection(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	tpl := mustCreate(t, svc, CreateTemplateRequest{Name: "Draft"})
	el, _ := svc.AddElement(ctx, AddElementRequest{TemplateID: tpl.ID, Kind: KindChart})
	viewer := ViewerContext{UserID: "u"}
	_ = svc.SelectElement(ctx, viewer, tpl.ID, el.ID)

	source, _ := svc.Gallery().Get("gallery.kpi_scorecard")
	loaded, err := svc.LoadTemplate(ctx, tpl.ID, source)
	if err != nil {
		t.Fatalf("LoadTemplate returned error: %v", err)
	}
	if loaded.ID != tpl.ID || loaded.Name != source.Name || len(loaded.Elements) != len(source.Elements) {
		t.Fatalf("unexpected loaded template %+v", loaded)
	}
	if _, ok, _ := svc.Selection(ctx, viewer, tpl.ID); ok {
		t.Fatalf("expected selection cleared on load")
	}
	title := "Changed"
	if _, err := svc.UpdateElement(ctx, UpdateElementRequest{TemplateID: tpl.ID, ElementID: source.Elements[0].ID, Patch: ElementPatch{Title: &title}}); err != nil {
		t.Fatalf("UpdateElement returned error: %v", err)
	}
	again, _ := svc.Gallery().Get("gallery.kpi_scorecard")
	if again.Elements[0].Title != source.Elements[0].Title {
		t.Fatalf("edit leaked into gallery template")
	}
}

func TestUpdatePageSettingsAndSchedule(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	tpl := mustCreate(t, svc, CreateTemplateRequest{})
	updated, err := svc.UpdatePageSettings(ctx, tpl.ID, PageSettings{Size: PageLetter, Orientation: Landscape, Margin: 10})
	if err != nil {
		t.Fatalf("UpdatePageSettings returned error: %v", err)
	}
	if updated.PageSettings.Size != PageLetter {
		t.Fatalf("page settings not applied: %+v", updated.PageSettings)
	}
	if _, err := svc.UpdatePageSettings(ctx, tpl.ID, PageSettings{Size: "B5"}); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry, got %v", err)
	}
	sched := &Schedule{Enabled: true, Frequency: FrequencyWeekly, Format: FormatPDF, Recipients: []string{"a@example.com"}}
	updated, err = svc.UpdateSchedule(ctx, tpl.ID, sched)
	if err != nil {
		t.Fatalf("UpdateSchedule returned error: %v", err)
	}
	sched.Recipients[0] = "changed@example.com"
	if updated.Schedule == nil || updated.Schedule.Recipients[0] != "a@example.com" {
		t.Fatalf("schedule not copied: %+v", updated.Schedule)
	}
	if _, err := svc.UpdateSchedule(ctx, tpl.ID, &Schedule{Frequency: "hourly", Format: FormatPDF}); !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule, got %v", err)
	}
	updated, _ = svc.UpdateSchedule(ctx, tpl.ID, nil)
	if updated.Schedule != nil {
		t.Fatalf("expected schedule removed")
	}
}

func TestExportUsesRegisteredExporterAndSink(t *testing.T) {
	sink := &recordingSink{}
	svc := NewService(Options{Store: NewInMemoryTemplateStore(), Sink: sink, Clock: func() time.Time { return fixedNow }})
	ctx := context.Background()
	tpl := mustCreate(t, svc, CreateTemplateRequest{Name: "Board Pack", GalleryID: "gallery.sales_performance"})

	res, err := svc.Export(ctx, tpl.ID, FormatJSON)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if res.Location != "mem://board_pack.json" || len(sink.artifacts) != 1 {
		t.Fatalf("unexpected export result %+v", res)
	}
	if _, err := svc.Export(ctx, tpl.ID, FormatXLSX); err != nil {
		t.Fatalf("xlsx export returned error: %v", err)
	}
	if _, err := svc.Export(ctx, tpl.ID, FormatPDF); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDeleteTemplate(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	tpl := mustCreate(t, svc, CreateTemplateRequest{})
	if err := svc.DeleteTemplate(ctx, tpl.ID); err != nil {
		t.Fatalf("DeleteTemplate returned error: %v", err)
	}
	if _, err := svc.GetTemplate(ctx, tpl.ID); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.DeleteTemplate(ctx, tpl.ID); !IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestTemplateLocksReleasedAfterUse(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	for range 5 {
		tpl := mustCreate(t, svc, CreateTemplateRequest{})
		if _, err := svc.AddElement(ctx, AddElementRequest{TemplateID: tpl.ID, Kind: KindText}); err != nil {
			t.Fatalf("AddElement returned error: %v", err)
		}
		if err := svc.DeleteTemplate(ctx, tpl.ID); err != nil {
			t.Fatalf("DeleteTemplate returned error: %v", err)
		}
	}
	svc.locksMu.Lock()
	held := len(svc.locks)
	svc.locksMu.Unlock()
	if held != 0 {
		t.Fatalf("expected no lock entries after deletes, got %d", held)
	}
}

func TestAddElementHugeDropStoresValidTemplate(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	tpl := mustCreate(t, svc, CreateTemplateRequest{})
	if _, err := svc.AddElement(ctx, AddElementRequest{TemplateID: tpl.ID, Kind: KindMetric, Drop: PixelPoint{X: 1e300, Y: 130}}); err != nil {
		t.Fatalf("AddElement returned error: %v", err)
	}
	stored, err := svc.GetTemplate(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate returned error: %v", err)
	}
	if err := ValidateTemplate(stored); err != nil {
		t.Fatalf("stored template fails validation: %v", err)
	}
	if _, err := svc.LoadTemplate(ctx, tpl.ID, stored); err != nil {
		t.Fatalf("reloading stored template returned error: %v", err)
	}
}

func TestChangeHookErrorIsReturned(t *testing.T) {
	hook := &collectingHook{err: errors.New("transport down")}
	svc := newTestService(t, hook, nil)
	if _, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{}); err == nil {
		t.Fatalf("expected hook error to surface")
	}
}

func TestSeedGalleryCreatesEveryTemplate(t *testing.T) {
	svc := newTestService(t, nil, nil)
	created, err := SeedGallery(context.Background(), svc)
	if err != nil {
		t.Fatalf("SeedGallery returned error: %v", err)
	}
	list, _ := svc.ListTemplates(context.Background())
	if len(created) != len(galleryTemplates) || len(list) != len(galleryTemplates) {
		t.Fatalf("expected %d seeded templates, got %d/%d", len(galleryTemplates), len(created), len(list))
	}
	if _, err := SeedGallery(context.Background(), nil); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestRegisterManifestExtendsPaletteAndGallery(t *testing.T) {
	svc := newTestService(t, nil, nil)
	doc, err := DecodeManifest(strings.NewReader(samplePack))
	if err != nil {
		t.Fatalf("DecodeManifest returned error: %v", err)
	}
	if err := RegisterManifest(svc, doc); err != nil {
		t.Fatalf("RegisterManifest returned error: %v", err)
	}
	entry, _ := svc.Palette().Entry(KindMetric)
	if entry.Name != "Finance KPI" {
		t.Fatalf("expected manifest entry, got %q", entry.Name)
	}
	if _, ok := svc.Gallery().Get("finance-overview"); !ok {
		t.Fatalf("expected manifest template in gallery")
	}
}

func TestActivityEmittedWithActor(t *testing.T) {
	capture := &activity.CaptureHook{}
	svc := NewService(Options{
		Store:          NewInMemoryTemplateStore(),
		IDs:            &SequenceGenerator{Prefix: "id-"},
		ActivityHooks:  activity.Hooks{capture},
		ActivityConfig: activity.Config{Enabled: true},
	})
	ctx := ContextWithActivity(context.Background(), ActivityContext{ActorID: "actor-1", TenantID: "tenant-1"})
	tpl := mustCreate(t, svc, CreateTemplateRequest{})
	if _, err := svc.AddElement(ctx, AddElementRequest{TemplateID: tpl.ID, Kind: KindText}); err != nil {
		t.Fatalf("AddElement returned error: %v", err)
	}
	if len(capture.Events) != 2 {
		t.Fatalf("expected 2 activity events, got %d", len(capture.Events))
	}
	evt := capture.Events[1]
	if evt.Verb != "reports.element.add" || evt.ObjectType != "report_element" || evt.ActorID != "actor-1" {
		t.Fatalf("unexpected activity event %+v", evt)
	}
	if evt.Channel != activity.DefaultChannel {
		t.Fatalf("expected default channel, got %q", evt.Channel)
	}
}
