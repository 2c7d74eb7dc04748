package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
)

type cli struct {
	Config    string `type:"path" env:"REPORTCTL_CONFIG" help:"Optional YAML/TOML/JSON config file."`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)."`
	LogFormat string `name:"log-format" help:"Log output format (json or console)."`

	Serve   serveCmd   `cmd:"" help:"Serve the report builder API, HTML preview and live canvas events."`
	Palette paletteCmd `cmd:"" help:"Manage palette manifests."`
	Gallery galleryCmd `cmd:"" help:"Inspect gallery templates."`
	Export  exportCmd  `cmd:"" help:"Export a gallery or file template to JSON or XLSX."`
}

type paletteCmd struct {
	Scaffold scaffoldCmd `cmd:"" help:"Add a palette entry to a manifest and generate a data provider stub."`
}

type galleryCmd struct {
	List galleryListCmd `cmd:"" help:"List gallery templates, including manifest packs."`
}

// runtime carries process-wide state resolved after flag parsing.
type runtime struct {
	ctx    context.Context
	cfg    ServerConfig
	logger zerolog.Logger
}

func main() {
	var root cli
	kctx := kong.Parse(&root,
		kong.Description("Report builder utility: serve the canvas API, scaffold palette entries, export templates."),
		kong.UsageOnError(),
	)
	rt, err := root.runtime(context.Background())
	kctx.FatalIfErrorf(err)
	err = kctx.Run(rt)
	kctx.FatalIfErrorf(err)
}

func (c *cli) runtime(ctx context.Context) (*runtime, error) {
	cfg, err := LoadConfig(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &runtime{
		ctx:    logger.WithContext(ctx),
		cfg:    cfg,
		logger: logger,
	}, nil
}
