package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type galleryListCmd struct {
	JSON bool `help:"Print templates as JSON."`

	out io.Writer
}

func (cmd *galleryListCmd) Run(rt *runtime) error {
	cfg := rt.cfg
	cfg.Store = StoreConfig{Driver: storeMemory}
	cfg.SeedGallery = false
	cfg.Export = ExportConfig{}
	a, err := newApp(rt.ctx, cfg, rt.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	templates := a.service.Gallery().List()
	if cmd.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(templates)
	}
	for _, tpl := range templates {
		fmt.Fprintf(out, "%-28s %-24s %d elements  %s\n", tpl.ID, tpl.Name, len(tpl.Elements), tpl.Description)
	}
	return nil
}
