package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-reports/components/reports"
	"github.com/goliatone/go-reports/components/reports/commands"
	"github.com/goliatone/go-reports/components/reports/exportsink"
	"github.com/goliatone/go-reports/components/reports/sqlstore"
	"github.com/goliatone/go-reports/pkg/analytics"
)

// app bundles the collaborators shared by every subcommand.
type app struct {
	service   *reports.Service
	broadcast *reports.BroadcastHook
	preview   *reports.PreviewController
	telemetry *reports.ZerologTelemetry
	closers   []func() error
}

func newApp(ctx context.Context, cfg ServerConfig, logger zerolog.Logger) (*app, error) {
	a := &app{
		broadcast: reports.NewBroadcastHook(),
		telemetry: reports.NewZerologTelemetry(logger),
	}
	charts := reports.NewChartCache(time.Minute)
	opts := reports.Options{
		ChangeHook: reports.ChangeHooks{a.broadcast, charts},
		Telemetry:  a.telemetry,
	}

	switch cfg.Store.Driver {
	case storeSQLite:
		store, err := sqlstore.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("reportctl: open store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		opts.Store = store
		opts.Selections = store
	default:
		opts.Store = reports.NewInMemoryTemplateStore()
	}

	sink, err := newSink(ctx, cfg.Export)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	opts.Sink = sink

	a.service = reports.NewService(opts)

	provider, err := newDataProvider(cfg.Analytics)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	renderer, err := reports.NewTemplateRenderer()
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("reportctl: preview renderer: %w", err)
	}
	a.preview = reports.NewPreviewController(reports.PreviewOptions{
		Templates: a.service,
		Provider:  provider,
		Charts:    reports.NewEChartsRenderer(reports.WithChartCache(charts)),
		Renderer:  renderer,
	})

	if err := a.bootstrap(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// bootstrap applies the configured manifest and seeds gallery templates into an empty store.
func (a *app) bootstrap(ctx context.Context, cfg ServerConfig) error {
	input := commands.SeedGalleryInput{}
	if cfg.Manifest != "" {
		doc, err := reports.ReadManifest(cfg.Manifest)
		if err != nil {
			return err
		}
		input.Manifest = doc
	}
	if cfg.SeedGallery {
		existing, err := a.service.ListTemplates(ctx)
		if err != nil {
			return err
		}
		input.SeedTemplates = len(existing) == 0
	}
	if input.Manifest == nil && !input.SeedTemplates {
		return nil
	}
	return commands.NewSeedGalleryCommand(a.service, a.telemetry).Execute(ctx, input)
}

// Close releases stores opened by newApp.
func (a *app) Close() error {
	var errs error
	for _, closer := range a.closers {
		errs = errors.Join(errs, closer())
	}
	a.closers = nil
	return errs
}

func newSink(ctx context.Context, cfg ExportConfig) (reports.ArtifactSink, error) {
	if cfg.Bucket != "" {
		sink, err := exportsink.NewS3Sink(ctx, cfg.Bucket, cfg.Prefix, cfg.Profile)
		if err != nil {
			return nil, fmt.Errorf("reportctl: s3 sink: %w", err)
		}
		return sink, nil
	}
	if cfg.Dir != "" {
		return &exportsink.FileSink{Dir: cfg.Dir}, nil
	}
	return nil, nil
}

func newDataProvider(cfg AnalyticsConfig) (reports.DataProvider, error) {
	if cfg.BaseURL == "" {
		return reports.NewMockDataProvider(nil), nil
	}
	client, err := analytics.NewHTTPClient(analytics.HTTPConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("reportctl: analytics client: %w", err)
	}
	return analytics.NewProvider(client), nil
}
