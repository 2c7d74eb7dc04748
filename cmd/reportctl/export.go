package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-reports/components/reports"
	"github.com/goliatone/go-reports/components/reports/commands"
)

type exportCmd struct {
	Gallery string `xor:"source" help:"Gallery template id to export (see 'gallery list')."`
	File    string `xor:"source" type:"existingfile" help:"Template document (JSON or YAML) to export."`
	Format  string `default:"json" enum:"json,xlsx" help:"Artifact format."`
	Out     string `type:"path" help:"Directory for the artifact (overrides config export.dir)."`
	Bucket  string `help:"Upload to this S3 bucket instead of a directory."`
	Prefix  string `help:"S3 key prefix."`
	Profile string `help:"AWS shared config profile."`

	out io.Writer
}

func (cmd *exportCmd) Run(rt *runtime) error {
	if cmd.Gallery == "" && cmd.File == "" {
		return errors.New("reportctl: one of --gallery or --file is required")
	}
	cfg := rt.cfg
	cfg.Store = StoreConfig{Driver: storeMemory}
	cfg.SeedGallery = false
	if cmd.Out != "" {
		cfg.Export.Dir = cmd.Out
	}
	if cmd.Bucket != "" {
		cfg.Export.Bucket = cmd.Bucket
		cfg.Export.Prefix = cmd.Prefix
		cfg.Export.Profile = cmd.Profile
	}

	a, err := newApp(rt.ctx, cfg, rt.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := rt.ctx
	var tpl reports.Template
	if cmd.Gallery != "" {
		tpl, err = a.service.CreateTemplate(ctx, reports.CreateTemplateRequest{GalleryID: cmd.Gallery})
		if err != nil {
			return err
		}
	} else {
		source, err := readTemplateFile(cmd.File)
		if err != nil {
			return err
		}
		tpl, err = a.service.CreateTemplate(ctx, reports.CreateTemplateRequest{Name: source.Name})
		if err != nil {
			return err
		}
		load := commands.NewLoadTemplateCommand(a.service, a.telemetry)
		if err := load.Execute(ctx, commands.LoadTemplateInput{TemplateID: tpl.ID, Source: &source}); err != nil {
			return err
		}
	}

	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	export := commands.NewExportTemplateCommand(a.service, a.telemetry)
	export.OnResult = func(result reports.ExportResult) {
		location := result.Location
		if location == "" {
			location = "(not stored)"
		}
		fmt.Fprintf(out, "✓ Exported %s (%d bytes) to %s\n", result.Artifact.Name, len(result.Artifact.Data), location)
	}
	return export.Execute(ctx, commands.ExportTemplateInput{
		TemplateID: tpl.ID,
		Format:     reports.ExportFormat(cmd.Format),
	})
}

func readTemplateFile(path string) (reports.Template, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return reports.Template{}, fmt.Errorf("reportctl: read template: %w", err)
	}
	var tpl reports.Template
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &tpl)
	default:
		err = json.Unmarshal(data, &tpl)
	}
	if err != nil {
		return reports.Template{}, fmt.Errorf("reportctl: decode template %s: %w", path, err)
	}
	return tpl, nil
}
