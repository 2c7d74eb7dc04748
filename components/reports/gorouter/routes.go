package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-reports/components/reports"
	"github.com/goliatone/go-reports/components/reports/commands"
	"github.com/goliatone/go-reports/components/reports/httpapi"
)

// ViewerResolver converts a router.Context into a reports.ViewerContext.
type ViewerResolver func(router.Context) reports.ViewerContext

// Config wires go-router with the report builder API, preview and live events.
type Config[T any] struct {
	Router         router.Router[T]
	API            Service
	Preview        *reports.PreviewController
	Broadcast      *reports.BroadcastHook
	Telemetry      commands.Telemetry
	Logger         *zerolog.Logger
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for report endpoints.
type RouteConfig struct {
	Palette    string
	Gallery    string
	Templates  string
	TemplateID string
	Page       string
	Schedule   string
	Load       string
	Export     string
	Elements   string
	ElementID  string
	Duplicate  string
	Selection  string
	Preview    string
	WebSocket  string
}

// Register mounts report routes (JSON API, HTML preview, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/reports"
	}
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}

	rs := responder{logger: cfg.Logger}
	group := cfg.Router.Group(base)
	registerAPI(group, cfg.API, resolver, cfg.Telemetry, rs, routes)

	if cfg.Preview != nil {
		group.Get(routes.Preview, router.WrapHandler(func(ctx router.Context) error {
			var buf bytes.Buffer
			if err := cfg.Preview.Render(ctx.Context(), resolver(ctx), ctx.Param("id"), &buf); err != nil {
				return rs.fail(ctx, err)
			}
			ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
			return ctx.Send(buf.Bytes())
		}))
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerAPI[T any](r router.Router[T], api Service, resolver ViewerResolver, telemetry commands.Telemetry, rs responder, routes RouteConfig) {
	deleteCmd := commands.NewDeleteElementCommand(api, telemetry)
	selectCmd := commands.NewSelectElementCommand(api, telemetry)
	loadCmd := commands.NewLoadTemplateCommand(api, telemetry)

	r.Get(routes.Palette, router.WrapHandler(func(ctx router.Context) error {
		locale := resolver(ctx).Locale
		entries := api.Palette().Entries()
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
		return ctx.JSON(http.StatusOK, out)
	}))

	r.Get(routes.Gallery, router.WrapHandler(func(ctx router.Context) error {
		return ctx.JSON(http.StatusOK, api.Gallery().List())
	}))

	r.Get(routes.Templates, router.WrapHandler(func(ctx router.Context) error {
		list, err := api.ListTemplates(ctx.Context())
		if err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusOK, list)
	}))

	r.Post(routes.Templates, router.WrapHandler(func(ctx router.Context) error {
		var payload reports.CreateTemplateRequest
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return rs.status(ctx, http.StatusBadRequest, err)
		}
		tpl, err := api.CreateTemplate(ctx.Context(), payload)
		if err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, tpl)
	}))

	r.Get(routes.TemplateID, router.WrapHandler(func(ctx router.Context) error {
		tpl, err := api.GetTemplate(ctx.Context(), ctx.Param("id"))
		if err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusOK, tpl)
	}))

	r.Delete(routes.TemplateID, router.WrapHandler(func(ctx router.Context) error {
		if err := api.DeleteTemplate(ctx.Context(), ctx.Param("id")); err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	}))

	r.Post(routes.Page, router.WrapHandler(func(ctx router.Context) error {
		var payload reports.PageSettings
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return rs.status(ctx, http.StatusBadRequest, err)
		}
		tpl, err := api.UpdatePageSettings(ctx.Context(), ctx.Param("id"), payload)
		if err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusOK, tpl)
	}))

	r.Post(routes.Schedule, router.WrapHandler(func(ctx router.Context) error {
		var payload *reports.Schedule
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return rs.status(ctx, http.StatusBadRequest, err)
		}
		tpl, err := api.UpdateSchedule(ctx.Context(), ctx.Param("id"), payload)
		if err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusOK, tpl)
	}))

	r.Post(routes.Load, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.LoadTemplateInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return rs.status(ctx, http.StatusBadRequest, err)
		}
		payload.TemplateID = ctx.Param("id")
		if err := loadCmd.Execute(ctx.Context(), payload); err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "loaded"})
	}))

	r.Get(routes.Export, router.WrapHandler(func(ctx router.Context) error {
		format := reports.ExportFormat(ctx.Query("format"))
		if format == "" {
			format = reports.FormatJSON
		}
		result, err := api.Export(ctx.Context(), ctx.Param("id"), format)
		if err != nil {
			return rs.fail(ctx, err)
		}
		if result.Location != "" {
			ctx.SetHeader("Location", result.Location)
		}
		ctx.SetHeader("Content-Type", result.Artifact.ContentType)
		ctx.SetHeader("Content-Disposition", `attachment; filename="`+result.Artifact.Name+`"`)
		return ctx.Send(result.Artifact.Data)
	}))

	r.Post(routes.Elements, router.WrapHandler(func(ctx router.Context) error {
		var payload reports.AddElementRequest
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return rs.status(ctx, http.StatusBadRequest, err)
		}
		payload.TemplateID = ctx.Param("id")
		el, err := api.AddElement(ctx.Context(), payload)
		if err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, el)
	}))

	r.Post(routes.ElementID, router.WrapHandler(func(ctx router.Context) error {
		var patch reports.ElementPatch
		if err := json.Unmarshal(ctx.Body(), &patch); err != nil {
			return rs.status(ctx, http.StatusBadRequest, err)
		}
		el, err := api.UpdateElement(ctx.Context(), reports.UpdateElementRequest{
			TemplateID: ctx.Param("id"),
			ElementID:  ctx.Param("element"),
			Patch:      patch,
		})
		if err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusOK, el)
	}))

	r.Delete(routes.ElementID, router.WrapHandler(func(ctx router.Context) error {
		input := reports.DeleteElementRequest{
			TemplateID: ctx.Param("id"),
			ElementID:  ctx.Param("element"),
			Viewer:     resolver(ctx),
		}
		if err := deleteCmd.Execute(ctx.Context(), input); err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "removed"})
	}))

	r.Post(routes.Duplicate, router.WrapHandler(func(ctx router.Context) error {
		el, err := api.DuplicateElement(ctx.Context(), reports.DuplicateElementRequest{
			TemplateID: ctx.Param("id"),
			ElementID:  ctx.Param("element"),
		})
		if err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, el)
	}))

	r.Get(routes.Selection, router.WrapHandler(func(ctx router.Context) error {
		el, ok, err := api.Selection(ctx.Context(), resolver(ctx), ctx.Param("id"))
		if err != nil {
			return rs.fail(ctx, err)
		}
		if !ok {
			return ctx.JSON(http.StatusOK, map[string]any{"selected": false})
		}
		return ctx.JSON(http.StatusOK, map[string]any{"selected": true, "element": el})
	}))

	r.Post(routes.Selection, router.WrapHandler(func(ctx router.Context) error {
		var payload struct {
			ElementID string `json:"element_id"`
		}
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return rs.status(ctx, http.StatusBadRequest, err)
		}
		input := commands.SelectElementInput{Viewer: resolver(ctx), TemplateID: ctx.Param("id"), ElementID: payload.ElementID}
		if input.Viewer.UserID == "" {
			return rs.status(ctx, http.StatusUnauthorized, errors.New("viewer is required"))
		}
		if err := selectCmd.Execute(ctx.Context(), input); err != nil {
			return rs.fail(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "selected"})
	}))
}

// Service is the report service surface mounted by Register. *reports.Service satisfies it.
type Service interface {
	httpapi.Executor
	DeleteElement(ctx context.Context, req reports.DeleteElementRequest) error
	SelectElement(ctx context.Context, viewer reports.ViewerContext, templateID, elementID string) error
	LoadTemplate(ctx context.Context, templateID string, source reports.Template) (reports.Template, error)
}

var _ Service = (*reports.Service)(nil)

func registerWebSocket[T any](r router.Router[T], hook *reports.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe("")
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultViewerResolver(ctx router.Context) reports.ViewerContext {
	var viewer reports.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	} else if v := strings.TrimSpace(ctx.Header("X-User-ID")); v != "" {
		viewer.UserID = v
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		token, _, _ := strings.Cut(header, ",")
		token, _, _ = strings.Cut(token, ";")
		return strings.ToLower(strings.TrimSpace(token))
	}
	return ""
}

// responder writes JSON errors and logs server-side failures.
type responder struct {
	logger *zerolog.Logger
}

func (rs responder) fail(ctx router.Context, err error) error {
	return rs.status(ctx, httpapi.StatusFor(err), err)
}

func (rs responder) status(ctx router.Context, status int, err error) error {
	if status >= http.StatusInternalServerError {
		rs.loggerFor(ctx).Error().Err(err).Int("status", status).Msg("reports route failed")
	}
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

// loggerFor prefers the request logger and falls back to Config.Logger.
func (rs responder) loggerFor(ctx router.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	if rs.logger != nil {
		return rs.logger
	}
	return zerolog.Ctx(ctx.Context())
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Palette == "" {
		routes.Palette = "/palette"
	}
	if routes.Gallery == "" {
		routes.Gallery = "/gallery"
	}
	if routes.Templates == "" {
		routes.Templates = "/templates"
	}
	if routes.TemplateID == "" {
		routes.TemplateID = "/templates/:id"
	}
	if routes.Page == "" {
		routes.Page = "/templates/:id/page"
	}
	if routes.Schedule == "" {
		routes.Schedule = "/templates/:id/schedule"
	}
	if routes.Load == "" {
		routes.Load = "/templates/:id/load"
	}
	if routes.Export == "" {
		routes.Export = "/templates/:id/export"
	}
	if routes.Elements == "" {
		routes.Elements = "/templates/:id/elements"
	}
	if routes.ElementID == "" {
		routes.ElementID = "/templates/:id/elements/:element"
	}
	if routes.Duplicate == "" {
		routes.Duplicate = "/templates/:id/elements/:element/duplicate"
	}
	if routes.Selection == "" {
		routes.Selection = "/templates/:id/selection"
	}
	if routes.Preview == "" {
		routes.Preview = "/templates/:id/preview"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
