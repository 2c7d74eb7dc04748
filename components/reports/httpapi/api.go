package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-reports/components/reports"
	"github.com/goliatone/go-reports/components/reports/commands"
)

// Executor is the service surface the HTTP API needs. *reports.Service satisfies it.
type Executor interface {
	CreateTemplate(ctx context.Context, req reports.CreateTemplateRequest) (reports.Template, error)
	GetTemplate(ctx context.Context, id string) (reports.Template, error)
	ListTemplates(ctx context.Context) ([]reports.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
	UpdatePageSettings(ctx context.Context, templateID string, settings reports.PageSettings) (reports.Template, error)
	UpdateSchedule(ctx context.Context, templateID string, schedule *reports.Schedule) (reports.Template, error)
	AddElement(ctx context.Context, req reports.AddElementRequest) (reports.Element, error)
	UpdateElement(ctx context.Context, req reports.UpdateElementRequest) (reports.Element, error)
	DuplicateElement(ctx context.Context, req reports.DuplicateElementRequest) (reports.Element, error)
	Selection(ctx context.Context, viewer reports.ViewerContext, templateID string) (reports.Element, bool, error)
	Export(ctx context.Context, templateID string, format reports.ExportFormat) (reports.ExportResult, error)
	Palette() reports.PaletteRegistry
	Gallery() *reports.Gallery
}

var _ Executor = (*reports.Service)(nil)

// ViewerResolver extracts the viewer from a request.
type ViewerResolver func(*http.Request) reports.ViewerContext

// Handlers exposes HTTP endpoints backed by the service and shared commands.
type Handlers struct {
	Service Executor
	Delete  gocommand.Commander[reports.DeleteElementRequest]
	Select  gocommand.Commander[commands.SelectElementInput]
	Load    gocommand.Commander[commands.LoadTemplateInput]
	Refresh gocommand.Commander[commands.RefreshCanvasInput]
	Viewer  ViewerResolver
	Logger  *zerolog.Logger
}

// NewHandlers wires handlers around a service, building the commands from it.
func NewHandlers(service *reports.Service, telemetry commands.Telemetry) *Handlers {
	return &Handlers{
		Service: service,
		Delete:  commands.NewDeleteElementCommand(service, telemetry),
		Select:  commands.NewSelectElementCommand(service, telemetry),
		Load:    commands.NewLoadTemplateCommand(service, telemetry),
		Refresh: commands.NewRefreshCanvasCommand(service, telemetry),
	}
}

// Mux mounts every handler under prefix on a ServeMux.
func (h *Handlers) Mux(prefix string) *http.ServeMux {
	prefix = strings.TrimRight(prefix, "/")
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"/palette", h.HandlePalette)
	mux.HandleFunc("GET "+prefix+"/gallery", h.HandleGallery)
	mux.HandleFunc("GET "+prefix+"/templates", h.HandleListTemplates)
	mux.HandleFunc("POST "+prefix+"/templates", h.HandleCreateTemplate)
	mux.HandleFunc("GET "+prefix+"/templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetTemplate(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE "+prefix+"/templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDeleteTemplate(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("PUT "+prefix+"/templates/{id}/page", func(w http.ResponseWriter, r *http.Request) {
		h.HandlePageSettings(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("PUT "+prefix+"/templates/{id}/schedule", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSchedule(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST "+prefix+"/templates/{id}/load", func(w http.ResponseWriter, r *http.Request) {
		h.HandleLoadTemplate(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET "+prefix+"/templates/{id}/export", func(w http.ResponseWriter, r *http.Request) {
		h.HandleExport(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST "+prefix+"/templates/{id}/elements", func(w http.ResponseWriter, r *http.Request) {
		h.HandleAddElement(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("PATCH "+prefix+"/templates/{id}/elements/{element}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleUpdateElement(w, r, r.PathValue("id"), r.PathValue("element"))
	})
	mux.HandleFunc("DELETE "+prefix+"/templates/{id}/elements/{element}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDeleteElement(w, r, r.PathValue("id"), r.PathValue("element"))
	})
	mux.HandleFunc("POST "+prefix+"/templates/{id}/elements/{element}/duplicate", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDuplicateElement(w, r, r.PathValue("id"), r.PathValue("element"))
	})
	mux.HandleFunc("GET "+prefix+"/templates/{id}/selection", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetSelection(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("PUT "+prefix+"/templates/{id}/selection", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSelect(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST "+prefix+"/templates/{id}/refresh", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRefresh(w, r, r.PathValue("id"))
	})
	return mux
}

func (h *Handlers) HandlePalette(w http.ResponseWriter, r *http.Request) {
	locale := h.viewer(r).Locale
	entries := h.Service.Palette().Entries()
	out := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		out = append(out, map[string]any{
			"kind":         entry.Kind,
			"name":         entry.NameForLocale(locale),
			"description":  entry.DescriptionForLocale(locale),
			"category":     entry.Category,
			"default_size": entry.DefaultSize,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) HandleGallery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Gallery().List())
}

func (h *Handlers) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListTemplates(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var payload reports.CreateTemplateRequest
	if !decode(w, r, &payload) {
		return
	}
	tpl, err := h.Service.CreateTemplate(r.Context(), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (h *Handlers) HandleGetTemplate(w http.ResponseWriter, r *http.Request, templateID string) {
	tpl, err := h.Service.GetTemplate(r.Context(), templateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *Handlers) HandleDeleteTemplate(w http.ResponseWriter, r *http.Request, templateID string) {
	if err := h.Service.DeleteTemplate(r.Context(), templateID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandlePageSettings(w http.ResponseWriter, r *http.Request, templateID string) {
	var payload reports.PageSettings
	if !decode(w, r, &payload) {
		return
	}
	tpl, err := h.Service.UpdatePageSettings(r.Context(), templateID, payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *Handlers) HandleSchedule(w http.ResponseWriter, r *http.Request, templateID string) {
	var payload *reports.Schedule
	if !decode(w, r, &payload) {
		return
	}
	tpl, err := h.Service.UpdateSchedule(r.Context(), templateID, payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *Handlers) HandleLoadTemplate(w http.ResponseWriter, r *http.Request, templateID string) {
	var payload commands.LoadTemplateInput
	if !decode(w, r, &payload) {
		return
	}
	payload.TemplateID = templateID
	if err := h.Load.Execute(r.Context(), payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.HandleGetTemplate(w, r, templateID)
}

func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request, templateID string) {
	format := reports.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = reports.FormatJSON
	}
	result, err := h.Service.Export(r.Context(), templateID, format)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if result.Location != "" {
		w.Header().Set("Location", result.Location)
	}
	w.Header().Set("Content-Type", result.Artifact.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Artifact.Name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifact.Data)
}

func (h *Handlers) HandleAddElement(w http.ResponseWriter, r *http.Request, templateID string) {
	var payload reports.AddElementRequest
	if !decode(w, r, &payload) {
		return
	}
	payload.TemplateID = templateID
	el, err := h.Service.AddElement(r.Context(), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, el)
}

func (h *Handlers) HandleUpdateElement(w http.ResponseWriter, r *http.Request, templateID, elementID string) {
	var patch reports.ElementPatch
	if !decode(w, r, &patch) {
		return
	}
	el, err := h.Service.UpdateElement(r.Context(), reports.UpdateElementRequest{TemplateID: templateID, ElementID: elementID, Patch: patch})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, el)
}

func (h *Handlers) HandleDeleteElement(w http.ResponseWriter, r *http.Request, templateID, elementID string) {
	input := reports.DeleteElementRequest{TemplateID: templateID, ElementID: elementID, Viewer: h.viewer(r)}
	if err := h.Delete.Execute(r.Context(), input); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleDuplicateElement(w http.ResponseWriter, r *http.Request, templateID, elementID string) {
	el, err := h.Service.DuplicateElement(r.Context(), reports.DuplicateElementRequest{TemplateID: templateID, ElementID: elementID})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, el)
}

func (h *Handlers) HandleGetSelection(w http.ResponseWriter, r *http.Request, templateID string) {
	el, ok, err := h.Service.Selection(r.Context(), h.viewer(r), templateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"selected": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": true, "element": el})
}

func (h *Handlers) HandleSelect(w http.ResponseWriter, r *http.Request, templateID string) {
	var payload struct {
		ElementID string `json:"element_id"`
	}
	if !decode(w, r, &payload) {
		return
	}
	input := commands.SelectElementInput{Viewer: h.viewer(r), TemplateID: templateID, ElementID: payload.ElementID}
	if input.Viewer.UserID == "" {
		http.Error(w, "viewer is required", http.StatusUnauthorized)
		return
	}
	if err := h.Select.Execute(r.Context(), input); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request, templateID string) {
	var payload commands.RefreshCanvasInput
	if r.ContentLength != 0 && !decode(w, r, &payload) {
		return
	}
	payload.Event.TemplateID = templateID
	if err := h.Refresh.Execute(r.Context(), payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) viewer(r *http.Request) reports.ViewerContext {
	if h.Viewer != nil {
		return h.Viewer(r)
	}
	return HeaderViewer(r)
}

// HeaderViewer reads the viewer from X-User-ID and Accept-Language.
func HeaderViewer(r *http.Request) reports.ViewerContext {
	viewer := reports.ViewerContext{UserID: strings.TrimSpace(r.Header.Get("X-User-ID"))}
	if locale := r.URL.Query().Get("locale"); locale != "" {
		viewer.Locale = strings.ToLower(locale)
	} else if header := r.Header.Get("Accept-Language"); header != "" {
		token, _, _ := strings.Cut(header, ",")
		token, _, _ = strings.Cut(token, ";")
		viewer.Locale = strings.ToLower(strings.TrimSpace(token))
	}
	return viewer
}

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case reports.IsNotFound(err):
		return http.StatusNotFound
	case reports.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, reports.ErrMissingStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps err to a status and logs server-side failures.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger(r).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Msg("reports api request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// logger prefers the request logger and falls back to Handlers.Logger.
func (h *Handlers) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	if h.Logger != nil {
		return h.Logger
	}
	return zerolog.Ctx(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
