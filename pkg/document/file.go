package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/aizine/pkg/errors"
	"github.com/matzehuels/aizine/pkg/geom"
)

// FileVersion is the schema version written by [Doc.Save].
const FileVersion = 1

// Default page size in points (A4 portrait).
const (
	DefaultPageWidth  = 595.28
	DefaultPageHeight = 841.89
)

// File is the native document schema. It is also the snapshot handed to
// exporters.
type File struct {
	Version    int          `json:"version" yaml:"version" toml:"version"`
	Name       string       `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	PageWidth  float64      `json:"page_width" yaml:"page_width" toml:"page_width"`
	PageHeight float64      `json:"page_height" yaml:"page_height" toml:"page_height"`
	Masters    []MasterFile `json:"masters,omitempty" yaml:"masters,omitempty" toml:"masters,omitempty"`
	Pages      []PageFile   `json:"pages" yaml:"pages" toml:"pages"`
}

// MasterFile is a master page: items and text frames stamped onto pages
// the master is applied to.
type MasterFile struct {
	Name  string     `json:"name" yaml:"name" toml:"name"`
	Items []ItemFile `json:"items,omitempty" yaml:"items,omitempty" toml:"items,omitempty"`
	Texts []TextFile `json:"texts,omitempty" yaml:"texts,omitempty" toml:"texts,omitempty"`
}

type PageFile struct {
	Master string     `json:"master,omitempty" yaml:"master,omitempty" toml:"master,omitempty"`
	Items  []ItemFile `json:"items,omitempty" yaml:"items,omitempty" toml:"items,omitempty"`
	Texts  []TextFile `json:"texts,omitempty" yaml:"texts,omitempty" toml:"texts,omitempty"`
}

type ItemFile struct {
	ID      string       `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Kind    string       `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Bounds  []float64    `json:"bounds" yaml:"bounds,flow" toml:"bounds"`
	Label   string       `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Fill    string       `json:"fill,omitempty" yaml:"fill,omitempty" toml:"fill,omitempty"`
	Points  [][]float64  `json:"points,omitempty" yaml:"points,omitempty,flow" toml:"points,omitempty"`
	Graphic *GraphicFile `json:"graphic,omitempty" yaml:"graphic,omitempty" toml:"graphic,omitempty"`
}

type GraphicFile struct {
	Path    string    `json:"path" yaml:"path" toml:"path"`
	Width   int       `json:"width" yaml:"width" toml:"width"`
	Height  int       `json:"height" yaml:"height" toml:"height"`
	Content []float64 `json:"content" yaml:"content,flow" toml:"content"`
}

type TextFile struct {
	ID       string    `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Bounds   []float64 `json:"bounds" yaml:"bounds,flow" toml:"bounds"`
	Label    string    `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Contents string    `json:"contents,omitempty" yaml:"contents,omitempty" toml:"contents,omitempty"`
	Font     string    `json:"font,omitempty" yaml:"font,omitempty" toml:"font,omitempty"`
	FontSize float64   `json:"font_size,omitempty" yaml:"font_size,omitempty" toml:"font_size,omitempty"`
	Align    string    `json:"align,omitempty" yaml:"align,omitempty" toml:"align,omitempty"`
	Color    string    `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
}

// =============================================================================
// Encoding
// =============================================================================

// ReadFile decodes a native document file, choosing the codec by extension.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "template not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read template %s", path)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".toml":
		err = toml.Unmarshal(data, &f)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported document format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "parse %s", path)
	}
	return &f, nil
}

// WriteFile encodes f to path, choosing the codec by extension.
func WriteFile(path string, f *File) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(f, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(f)
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(f)
		data = buf.Bytes()
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported document format %q", ext)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

// =============================================================================
// Conversion
// =============================================================================

func (f ItemFile) item(page int) (Item, error) {
	b, err := geom.FromSlice(f.Bounds)
	if err != nil {
		return Item{}, err
	}
	kind, err := ParseShapeKind(f.Kind)
	if err != nil {
		return Item{}, err
	}
	it := Item{ID: ItemID(f.ID), Page: page, Kind: kind, Bounds: b, Label: NormalizeLabel(f.Label), Fill: f.Fill}
	for _, p := range f.Points {
		if len(p) != 2 {
			return Item{}, fmt.Errorf("point needs 2 values, got %d", len(p))
		}
		it.Points = append(it.Points, geom.Point{X: p[0], Y: p[1]})
	}
	if g := f.Graphic; g != nil {
		content, err := geom.FromSlice(g.Content)
		if err != nil {
			content = b
		}
		it.Graphic = &Graphic{Path: g.Path, Width: g.Width, Height: g.Height, Content: content}
	}
	return it, nil
}

func itemFile(it Item) ItemFile {
	f := ItemFile{
		ID:     string(it.ID),
		Kind:   string(it.Kind),
		Bounds: it.Bounds.Slice(),
		Label:  it.Label,
		Fill:   it.Fill,
	}
	for _, p := range it.Points {
		f.Points = append(f.Points, []float64{p.X, p.Y})
	}
	if g := it.Graphic; g != nil {
		f.Graphic = &GraphicFile{Path: g.Path, Width: g.Width, Height: g.Height, Content: g.Content.Slice()}
	}
	return f
}

func (f TextFile) frame(page int) (TextFrame, error) {
	b, err := geom.FromSlice(f.Bounds)
	if err != nil {
		return TextFrame{}, err
	}
	return TextFrame{
		ID:       ItemID(f.ID),
		Page:     page,
		Bounds:   b,
		Label:    NormalizeLabel(f.Label),
		Contents: f.Contents,
		Font:     f.Font,
		FontSize: f.FontSize,
		Align:    f.Align,
		Color:    f.Color,
	}, nil
}

func textFile(t TextFrame) TextFile {
	return TextFile{
		ID:       string(t.ID),
		Bounds:   t.Bounds.Slice(),
		Label:    t.Label,
		Contents: t.Contents,
		Font:     t.Font,
		FontSize: t.FontSize,
		Align:    t.Align,
		Color:    t.Color,
	}
}
