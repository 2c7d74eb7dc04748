package reports

import (
	"fmt"
	"sort"
	"sync"
)

// PaletteEntry describes an element kind a user can drag onto the canvas.
type PaletteEntry struct {
	Kind                 ElementKind       `json:"kind" yaml:"kind"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	Category             string            `json:"category,omitempty" yaml:"category,omitempty"`
	DefaultTitle         string            `json:"default_title,omitempty" yaml:"default_title,omitempty"`
	DefaultConfig        map[string]any    `json:"default_config,omitempty" yaml:"default_config,omitempty"`
	DefaultSize          Size              `json:"default_size" yaml:"default_size"`
	Schema               map[string]any    `json:"schema,omitempty" yaml:"schema,omitempty"`
}

func (e PaletteEntry) defaultSize() Size {
	size := e.DefaultSize
	if size.Width < 1 {
		size.Width = 1
	}
	if size.Height < 1 {
		size.Height = 1
	}
	return size
}

func (e PaletteEntry) defaultTitle() string {
	if e.DefaultTitle != "" {
		return e.DefaultTitle
	}
	return e.Name
}

// PaletteHook lets packages extend palettes during init().
type PaletteHook func(p *Palette) error

var (
	paletteHookMu sync.Mutex
	paletteHooks  []PaletteHook
)

// RegisterPaletteHook registers a hook executed against every new palette.
func RegisterPaletteHook(h PaletteHook) {
	paletteHookMu.Lock()
	defer paletteHookMu.Unlock()
	paletteHooks = append(paletteHooks, h)
}

// Palette implements PaletteRegistry with hook and manifest support.
type Palette struct {
	mu      sync.RWMutex
	entries map[ElementKind]PaletteEntry
	meta    map[ElementKind]ManifestSource
}

// NewPalette builds a palette seeded with the default entries and applies global hooks.
func NewPalette() *Palette {
	p := NewEmptyPalette()
	for _, entry := range DefaultPaletteEntries() {
		_ = p.Register(entry)
	}
	_ = p.ApplyHooks()
	return p
}

// NewEmptyPalette builds a palette with no entries and no hooks applied.
func NewEmptyPalette() *Palette {
	return &Palette{
		entries: map[ElementKind]PaletteEntry{},
		meta:    map[ElementKind]ManifestSource{},
	}
}

// ApplyHooks executes registered palette hooks.
func (p *Palette) ApplyHooks() error {
	paletteHookMu.Lock()
	defer paletteHookMu.Unlock()
	for _, hook := range paletteHooks {
		if err := hook(p); err != nil {
			return err
		}
	}
	return nil
}

// Register stores or replaces the entry for its kind.
func (p *Palette) Register(entry PaletteEntry) error {
	if !entry.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, entry.Kind)
	}
	if entry.Name == "" {
		return fmt.Errorf("reports: palette entry %s name is required", entry.Kind)
	}
	if err := entry.defaultSize().Validate(); err != nil {
		return err
	}
	entry.NameLocalized = normalizeLocaleMap(entry.NameLocalized)
	entry.DescriptionLocalized = normalizeLocaleMap(entry.DescriptionLocalized)
	entry.DefaultSize = entry.defaultSize()
	entry.DefaultConfig = cloneConfig(entry.DefaultConfig)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[entry.Kind] = entry
	return nil
}

// Entry fetches a copy of the entry for kind.
func (p *Palette) Entry(kind ElementKind) (PaletteEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[kind]
	if !ok {
		return PaletteEntry{}, false
	}
	entry.DefaultConfig = cloneConfig(entry.DefaultConfig)
	return entry, true
}

// Entries returns every registered entry sorted by kind.
func (p *Palette) Entries() []PaletteEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PaletteEntry, 0, len(p.entries))
	for _, entry := range p.entries {
		entry.DefaultConfig = cloneConfig(entry.DefaultConfig)
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Source returns manifest metadata recorded for kind, if any.
func (p *Palette) Source(kind ElementKind) (ManifestSource, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	meta, ok := p.meta[kind]
	return meta, ok
}

func (p *Palette) recordSource(kind ElementKind, meta ManifestSource) {
	if meta.isZero() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meta[kind] = meta
}
