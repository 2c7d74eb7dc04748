package main

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-reports/components/reports/gorouter"
)

type serveCmd struct {
	Addr     string `help:"Listen address (overrides config addr)."`
	BasePath string `name:"base-path" help:"Route prefix (overrides config base_path)."`
	SQLite   string `name:"sqlite" type:"path" help:"Persist templates in this SQLite file instead of memory."`
}

func (cmd *serveCmd) Run(rt *runtime) error {
	cfg := rt.cfg
	if cmd.Addr != "" {
		cfg.Addr = cmd.Addr
	}
	if cmd.BasePath != "" {
		cfg.BasePath = cmd.BasePath
	}
	if cmd.SQLite != "" {
		cfg.Store = StoreConfig{Driver: storeSQLite, Path: cmd.SQLite}
	}

	a, err := newApp(rt.ctx, cfg, rt.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    server.Router(),
		API:       a.service,
		Preview:   a.preview,
		Broadcast: a.broadcast,
		Telemetry: a.telemetry,
		Logger:    &rt.logger,
		BasePath:  cfg.BasePath,
	}); err != nil {
		return fmt.Errorf("reportctl: register routes: %w", err)
	}

	rt.logger.Info().
		Str("addr", cfg.Addr).
		Str("base_path", cfg.BasePath).
		Str("store", cfg.Store.Driver).
		Msg("report builder listening")
	return server.Serve(cfg.Addr)
}
