package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-reports/components/reports"
)

func testRuntime(t *testing.T, cfg ServerConfig) *runtime {
	t.Helper()
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = storeMemory
	}
	return &runtime{ctx: context.Background(), cfg: cfg, logger: zerolog.Nop()}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":9876", cfg.Addr)
	assert.Equal(t, "/reports", cfg.BasePath)
	assert.Equal(t, storeMemory, cfg.Store.Driver)
	assert.True(t, cfg.SeedGallery)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reportctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":8080"
seed_gallery: false
store:
  driver: sqlite
  path: /var/lib/reports/reports.db
export:
  bucket: reports-artifacts
  prefix: weekly
analytics:
  base_url: https://bi.example.com
log:
  format: console
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.False(t, cfg.SeedGallery)
	assert.Equal(t, StoreConfig{Driver: storeSQLite, Path: "/var/lib/reports/reports.db"}, cfg.Store)
	assert.Equal(t, "reports-artifacts", cfg.Export.Bucket)
	assert.Equal(t, "weekly", cfg.Export.Prefix)
	assert.Equal(t, "https://bi.example.com", cfg.Analytics.BaseURL)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reportctl.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store":{"driver":"postgres"}}`), 0o600))
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "unknown store driver")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	logger.Warn().Str("template_id", "tpl-1").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"template_id":"tpl-1"`)

	_, err = newLogger(LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}

func TestScaffoldWritesManifestAndStub(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "palette", "manifest.yaml")
	stub := filepath.Join(dir, "providers", "revenue_tile_provider.go")
	var out bytes.Buffer

	cmd := &scaffoldCmd{
		Kind:         "metric",
		Name:         "Revenue Tile",
		Description:  "Headline revenue figure.",
		Category:     "finance",
		ManifestPath: manifest,
		ProviderOut:  stub,
		Tag:          []string{"finance"},
		out:          &out,
	}
	require.NoError(t, cmd.Run(nil))

	doc, err := reports.ReadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	entry := doc.Entries[0]
	assert.Equal(t, reports.KindMetric, entry.Entry.Kind)
	assert.Equal(t, "Revenue Tile", entry.Entry.Name)
	assert.Equal(t, reports.Size{Width: 3, Height: 2}, entry.Entry.DefaultSize)
	assert.Equal(t, []string{"finance"}, entry.Tags)

	source, err := os.ReadFile(stub)
	require.NoError(t, err)
	assert.Contains(t, string(source), "package providers")
	assert.Contains(t, string(source), "type RevenueTileProvider struct{}")
	assert.Contains(t, out.String(), "generated")

	err = cmd.Run(nil)
	assert.ErrorContains(t, err, "already defines metric")

	cmd.Overwrite = true
	cmd.SkipProvider = true
	cmd.Name = "Revenue"
	require.NoError(t, cmd.Run(nil))
	doc, err = reports.ReadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "Revenue", doc.Entries[0].Entry.Name)
}

func TestGalleryList(t *testing.T) {
	var out bytes.Buffer
	cmd := &galleryListCmd{out: &out}
	require.NoError(t, cmd.Run(testRuntime(t, ServerConfig{})))
	for _, tpl := range reports.NewGallery().List() {
		assert.Contains(t, out.String(), tpl.ID)
	}

	out.Reset()
	cmd.JSON = true
	require.NoError(t, cmd.Run(testRuntime(t, ServerConfig{})))
	var templates []reports.Template
	require.NoError(t, json.Unmarshal(out.Bytes(), &templates))
	assert.Len(t, templates, len(reports.NewGallery().List()))
}

func TestExportGalleryTemplateToDir(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	cmd := &exportCmd{Gallery: "gallery.kpi_scorecard", Format: "xlsx", Out: dir, out: &out}
	require.NoError(t, cmd.Run(testRuntime(t, ServerConfig{})))

	matches, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, out.String(), "file://")
}

func TestExportTemplateFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "weekly.json")
	tpl := reports.Template{
		Name:         "Weekly Ops",
		PageSettings: reports.DefaultPageSettings(),
		Elements: []reports.Element{
			{ID: "t", Kind: reports.KindText, Title: "Notes", Size: reports.Size{Width: 4, Height: 1}},
		},
	}
	data, err := json.Marshal(tpl)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(source, data, 0o600))

	var out bytes.Buffer
	cmd := &exportCmd{File: source, Format: "json", Out: filepath.Join(dir, "out"), out: &out}
	require.NoError(t, cmd.Run(testRuntime(t, ServerConfig{})))

	artifact, err := os.ReadFile(filepath.Join(dir, "out", "weekly_ops.json"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(artifact), `"Notes"`))

	assert.Error(t, (&exportCmd{Format: "json"}).Run(testRuntime(t, ServerConfig{})))
}

func TestAppSeedsSQLiteStoreOnce(t *testing.T) {
	cfg := ServerConfig{
		SeedGallery: true,
		Store:       StoreConfig{Driver: storeSQLite, Path: filepath.Join(t.TempDir(), "reports.db")},
	}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		a, err := newApp(ctx, cfg, zerolog.Nop())
		require.NoError(t, err)
		list, err := a.service.ListTemplates(ctx)
		require.NoError(t, err)
		assert.Len(t, list, len(reports.NewGallery().List()))
		require.NoError(t, a.Close())
	}
}
