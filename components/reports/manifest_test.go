package reports

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePack = `
version: "1"
name: finance-pack
entries:
  - entry:
      kind: metric
      name: Finance KPI
      name_localized:
        ES: KPI financiero
      default_title: Cash
      default_size:
        width: 4
        height: 2
      default_config:
        format: currency
    source:
      name: Finance Team
      package: github.com/example/finance
templates:
  - id: finance-overview
    name: Finance Overview
    elements:
      - id: cash
        kind: metric
        title: Cash
        position: {x: 0, y: 0}
        size: {width: 4, height: 2}
`

func TestDecodeManifest(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(samplePack))
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	require.Len(t, doc.Templates, 1)

	entry := doc.Entries[0].Entry
	assert.Equal(t, KindMetric, entry.Kind)
	assert.Equal(t, Size{Width: 4, Height: 2}, entry.DefaultSize)
	assert.Equal(t, "currency", entry.DefaultConfig["format"])
	assert.Equal(t, "Finance Team", doc.Entries[0].Source.Name)
	assert.Equal(t, "cash", doc.Templates[0].Elements[0].ID)
}

func TestDecodeManifestRejectsUnknownFields(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("version: \"1\"\nwidgets: []\n"))
	require.Error(t, err)
}

func TestDecodeManifestRejectsBadEntries(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("entries:\n  - entry:\n      kind: gauge\n      name: Gauge\n"))
	require.ErrorIs(t, err, ErrUnknownKind)

	_, err = DecodeManifest(strings.NewReader(""))
	require.Error(t, err)

	_, err = DecodeManifest(strings.NewReader("version: \"2\"\n"))
	require.Error(t, err)
}

func TestPaletteLoadManifestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePack), 0o600))

	palette := NewPalette()
	doc, err := palette.LoadManifestFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)

	entry, ok := palette.Entry(KindMetric)
	require.True(t, ok)
	assert.Equal(t, "Finance KPI", entry.Name)
	assert.Equal(t, "KPI financiero", entry.NameForLocale("es"))

	source, ok := palette.Source(KindMetric)
	require.True(t, ok)
	assert.Equal(t, "github.com/example/finance", source.Package)
}

func TestEncodeManifestRoundTripsEntries(t *testing.T) {
	doc := &ManifestDocument{Version: ManifestVersion, Name: "defaults"}
	for _, entry := range DefaultPaletteEntries() {
		doc.Entries = append(doc.Entries, ManifestEntry{Entry: entry})
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeManifest(&buf, doc))

	decoded, err := DecodeManifest(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Entries, len(doc.Entries))
	assert.Equal(t, doc.Entries[0].Entry.DefaultSize, decoded.Entries[0].Entry.DefaultSize)
}
