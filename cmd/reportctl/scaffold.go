package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ettle/strcase"

	"github.com/goliatone/go-reports/components/reports"
)

type scaffoldCmd struct {
	Kind         string   `required:"" enum:"chart,table,metric,text,filter,spacer" help:"Element kind the entry describes."`
	Name         string   `required:"" help:"Display name shown in the palette."`
	Description  string   `required:"" help:"One-line description used in manifests."`
	Category     string   `default:"custom" help:"Palette category."`
	Title        string   `help:"Default title for new elements (defaults to the name)."`
	Width        int      `default:"0" help:"Default width in grid cells (0 keeps the kind default)."`
	Height       int      `default:"0" help:"Default height in grid cells (0 keeps the kind default)."`
	ManifestPath string   `required:"" type:"path" help:"Path to the palette manifest YAML file to update."`
	SchemaPath   string   `type:"path" help:"Optional JSON schema file for the element configuration."`
	Tag          []string `help:"Optional tags to include in the manifest (use multiple --tag flags)."`
	Maintainer   []string `help:"Maintainers to record in the manifest."`
	DocsURL      string   `help:"Link to provider documentation."`
	Package      string   `default:"github.com/goliatone/go-reports/components/reports/providers" help:"Go package where the data provider lives."`
	ProviderOut  string   `help:"File path for the generated provider stub (defaults to components/reports/providers/<name>_provider.go)."`
	Overwrite    bool     `help:"Overwrite an existing provider stub or manifest entry."`
	SkipProvider bool     `name:"skip-provider" help:"Skip provider stub generation."`

	out io.Writer
}

func (cmd *scaffoldCmd) Run(_ *runtime) error {
	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("reportctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	schema, err := cmd.loadSchema()
	if err != nil {
		return err
	}

	providerType := strcase.ToPascal(cmd.Name) + "Provider"
	size := reports.Size{Width: cmd.Width, Height: cmd.Height}
	if builtin, ok := reports.NewPalette().Entry(reports.ElementKind(cmd.Kind)); ok {
		if size.Width <= 0 {
			size.Width = builtin.DefaultSize.Width
		}
		if size.Height <= 0 {
			size.Height = builtin.DefaultSize.Height
		}
	}
	entry := reports.ManifestEntry{
		Entry: reports.PaletteEntry{
			Kind:         reports.ElementKind(cmd.Kind),
			Name:         cmd.Name,
			Description:  cmd.Description,
			Category:     cmd.Category,
			DefaultTitle: cmd.Title,
			DefaultSize:  size,
			Schema:       schema,
		},
		Source: reports.ManifestSource{
			Name:    cmd.Name + " Provider",
			Summary: cmd.Description,
			Package: cmd.Package,
			DocsURL: cmd.DocsURL,
		},
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}
	if err := upsertEntry(doc, entry, cmd.Overwrite); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}

	if cmd.SkipProvider {
		fmt.Fprintf(out, "✓ Added %s to %s\n", cmd.Kind, manifestPath)
		return nil
	}
	providerPath := cmd.ProviderOut
	if providerPath == "" {
		providerPath = filepath.Join("components", "reports", "providers", strcase.ToSnake(cmd.Name)+"_provider.go")
	}
	if err := writeProviderStub(providerPath, providerType, cmd.Kind, cmd.Overwrite); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Added %s to %s and generated %s\n", cmd.Kind, manifestPath, providerPath)
	return nil
}

func (cmd *scaffoldCmd) loadSchema() (map[string]any, error) {
	if cmd.SchemaPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(cmd.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("reportctl: read schema file: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("reportctl: parse schema JSON: %w", err)
	}
	return schema, nil
}

func upsertEntry(doc *reports.ManifestDocument, entry reports.ManifestEntry, overwrite bool) error {
	replaced := false
	for idx := range doc.Entries {
		if doc.Entries[idx].Entry.Kind != entry.Entry.Kind {
			continue
		}
		if !overwrite {
			return fmt.Errorf("reportctl: manifest already defines %s (use --overwrite to replace)", entry.Entry.Kind)
		}
		doc.Entries[idx] = entry
		replaced = true
		break
	}
	if !replaced {
		doc.Entries = append(doc.Entries, entry)
	}
	sort.Slice(doc.Entries, func(i, j int) bool {
		return doc.Entries[i].Entry.Kind < doc.Entries[j].Entry.Kind
	})
	return nil
}

func loadOrInitManifest(path string) (*reports.ManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &reports.ManifestDocument{
				Version: reports.ManifestVersion,
				Entries: []reports.ManifestEntry{},
				Path:    path,
			}, nil
		}
		return nil, fmt.Errorf("reportctl: stat manifest: %w", err)
	}
	return reports.ReadManifest(path)
}

func writeManifest(path string, doc *reports.ManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("reportctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("reportctl: create manifest %s: %w", path, err)
	}
	defer file.Close()
	return reports.EncodeManifest(file, doc)
}

func writeProviderStub(path, providerType, kind string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("reportctl: provider stub %s already exists (use --overwrite or --provider-out)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("reportctl: mkdir provider dir: %w", err)
	}
	pkg := strings.ReplaceAll(filepath.Base(filepath.Dir(path)), "-", "_")
	content := fmt.Sprintf(`package %s

import (
	"context"

	"github.com/goliatone/go-reports/components/reports"
)

// %s supplies preview data for %s elements.
type %s struct{}

// New%s builds the provider.
func New%s() reports.DataProvider {
	return &%s{}
}

// Fetch returns the element payload. Replace with a real data source.
func (p *%s) Fetch(ctx context.Context, meta reports.ElementContext) (reports.ElementData, error) {
	return reports.ElementData{
		"title": meta.Element.Title,
	}, nil
}
`, pkg, providerType, kind, providerType, providerType, providerType, providerType, providerType)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("reportctl: write provider stub: %w", err)
	}
	return nil
}
