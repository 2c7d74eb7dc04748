package goadmin

import (
	"context"
	"errors"

	"github.com/goliatone/go-reports/components/reports"
	activitypkg "github.com/goliatone/go-reports/pkg/activity"
	reportspkg "github.com/goliatone/go-reports/pkg/reports"
)

// MenuBuilder ensures report builder entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures report builder link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config wires the report service and feature flags into an admin shell.
// When Service is nil and Store is set, a service is built from Store and the activity settings.
type Config struct {
	EnableReports   bool
	SeedGallery     bool
	MenuCode        string
	MenuBuilder     MenuBuilder
	Service         *reportspkg.Service
	Store           reports.TemplateStore
	DefaultMenuItem MenuItem
	ActivityHooks   activitypkg.Hooks
	ActivityConfig  activitypkg.Config
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg Config
}

// New creates an Admin helper that can seed report menus.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableReports && cfg.Service == nil {
		if cfg.Store == nil {
			return nil, errors.New("goadmin: report service or store is required when enabled")
		}
		cfg.Service = reportspkg.NewService(reportspkg.Options{
			Store:          cfg.Store,
			ActivityHooks:  cfg.ActivityHooks,
			ActivityConfig: cfg.ActivityConfig,
		})
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if cfg.DefaultMenuItem.Label == "" {
		cfg.DefaultMenuItem.Label = "Reports"
	}
	if cfg.DefaultMenuItem.Route == "" {
		cfg.DefaultMenuItem.Route = "admin.reports"
	}
	if cfg.DefaultMenuItem.Icon == "" {
		cfg.DefaultMenuItem.Icon = "file-text"
	}
	return &Admin{cfg: cfg}, nil
}

// Reports exposes the configured report service when enabled.
func (a *Admin) Reports() *reportspkg.Service {
	if !a.cfg.EnableReports {
		return nil
	}
	return a.cfg.Service
}

// Bootstrap seeds menu entries and, when requested, the gallery templates.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableReports {
		return nil
	}
	if a.cfg.MenuBuilder != nil {
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, a.cfg.DefaultMenuItem); err != nil {
			return err
		}
	}
	if a.cfg.SeedGallery {
		existing, err := a.cfg.Service.ListTemplates(ctx)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			if _, err := reports.SeedGallery(ctx, a.cfg.Service); err != nil {
				return err
			}
		}
	}
	return nil
}
