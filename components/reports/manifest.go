package reports

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// ManifestDocument is a YAML/JSON pack of palette entries and gallery templates.
type ManifestDocument struct {
	Version   string          `json:"version" yaml:"version"`
	Name      string          `json:"name,omitempty" yaml:"name,omitempty"`
	Package   string          `json:"package,omitempty" yaml:"package,omitempty"`
	Homepage  string          `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Entries   []ManifestEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
	Templates []Template      `json:"templates,omitempty" yaml:"templates,omitempty"`
	Path      string          `json:"-" yaml:"-"`
}

// ManifestEntry wraps a palette entry with discovery metadata.
type ManifestEntry struct {
	Entry       PaletteEntry   `json:"entry" yaml:"entry"`
	Source      ManifestSource `json:"source,omitempty" yaml:"source,omitempty"`
	Maintainers []string       `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ManifestSource records where a palette entry came from.
type ManifestSource struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
	DocsURL string `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
}

func (s ManifestSource) isZero() bool {
	return s == ManifestSource{}
}

// LoadManifestFile reads a manifest from disk and registers its entries.
func (p *Palette) LoadManifestFile(path string) (*ManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := p.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers palette entries and their source metadata.
func (p *Palette) LoadManifestDocument(doc *ManifestDocument) error {
	if doc == nil {
		return errors.New("reports: manifest document is nil")
	}
	for _, item := range doc.Entries {
		if err := p.Register(item.Entry); err != nil {
			return fmt.Errorf("reports: register palette entry %s from %s: %w", item.Entry.Kind, doc.Path, err)
		}
		p.recordSource(item.Entry.Kind, item.Source)
	}
	return nil
}

// ReadManifest loads a manifest file without registering it.
func ReadManifest(path string) (*ManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reports: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("reports: decode manifest %s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader. Unknown fields are rejected.
func DecodeManifest(r io.Reader) (*ManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc ManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("reports: manifest is empty")
		}
		return nil, fmt.Errorf("reports: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// EncodeManifest writes doc as YAML with two-space indentation.
func EncodeManifest(w io.Writer, doc *ManifestDocument) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("reports: encode manifest: %w", err)
	}
	return enc.Close()
}

// Validate checks version, entry kinds, duplicates and template geometry.
func (doc *ManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("reports: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[ElementKind]struct{}, len(doc.Entries))
	for idx, item := range doc.Entries {
		if !item.Entry.Kind.Valid() {
			return fmt.Errorf("reports: manifest entry at index %d: %w: %q", idx, ErrUnknownKind, item.Entry.Kind)
		}
		if item.Entry.Name == "" {
			return fmt.Errorf("reports: manifest entry %s missing name", item.Entry.Kind)
		}
		if _, dup := seen[item.Entry.Kind]; dup {
			return fmt.Errorf("reports: manifest duplicates entry %s", item.Entry.Kind)
		}
		seen[item.Entry.Kind] = struct{}{}
	}
	tplIDs := make(map[string]struct{}, len(doc.Templates))
	for _, tpl := range doc.Templates {
		if tpl.ID == "" {
			return fmt.Errorf("reports: manifest template %q missing id", tpl.Name)
		}
		if _, dup := tplIDs[tpl.ID]; dup {
			return fmt.Errorf("reports: manifest duplicates template %s", tpl.ID)
		}
		tplIDs[tpl.ID] = struct{}{}
		if err := ValidateTemplate(tpl); err != nil {
			return fmt.Errorf("reports: manifest template %s: %w", tpl.ID, err)
		}
	}
	return nil
}
