package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/aizine/pkg/errors"
	"github.com/matzehuels/aizine/pkg/geom"
)

// Format identifies the encoding of a plan file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the decoder from a file extension. Unknown
// extensions are treated as JSON, the format the plan builder writes.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

type rawPlan struct {
	Meta       rawMeta           `json:"meta" yaml:"meta" toml:"meta"`
	Placements []rawPlacement    `json:"placements" yaml:"placements" toml:"placements"`
	Texts      map[string]string `json:"texts" yaml:"texts" toml:"texts"`
}

type rawMeta struct {
	Template    string `json:"template" yaml:"template" toml:"template"`
	OutputDir   string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	Pages       *int   `json:"pages" yaml:"pages" toml:"pages"`
	JobID       string `json:"job_id" yaml:"job_id" toml:"job_id"`
	Theme       string `json:"theme" yaml:"theme" toml:"theme"`
	Category    string `json:"category" yaml:"category" toml:"category"`
	ClientName  string `json:"client_name" yaml:"client_name" toml:"client_name"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at" toml:"generated_at"`
}

type rawPlacement struct {
	Label       string `json:"label" yaml:"label" toml:"label"`
	Photo       string `json:"photo" yaml:"photo" toml:"photo"`
	Filename    string `json:"filename" yaml:"filename" toml:"filename"`
	Orientation string `json:"orientation" yaml:"orientation" toml:"orientation"`
	Fit         string `json:"fit" yaml:"fit" toml:"fit"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads and validates the plan at path. Relative paths inside the plan
// are resolved against the plan's directory.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "plan not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read plan %s", path)
	}

	p, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, err
	}
	p.Source = path
	p.resolve(filepath.Dir(path))
	return p, nil
}

// Read decodes and validates a plan from r.
func Read(r io.Reader, format Format) (*Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read plan")
	}
	return Decode(data, format)
}

// Decode parses plan bytes in the given format and validates them.
func Decode(data []byte, format Format) (*Plan, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var raw rawPlan
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "parse %s plan", format)
	}
	return raw.validate()
}

func (raw rawPlan) validate() (*Plan, error) {
	m := raw.Meta
	if m.Template == "" {
		return nil, errors.New(errors.ErrCodeInvalidPlan, "meta.template is required")
	}
	if err := errors.ValidateFilePath(m.Template); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "meta.template")
	}
	if m.OutputDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidPlan, "meta.output_dir is required")
	}
	if err := errors.ValidateFilePath(m.OutputDir); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "meta.output_dir")
	}

	p := &Plan{
		Template:    errors.NormalizePath(m.Template),
		OutputDir:   errors.NormalizePath(m.OutputDir),
		JobID:       m.JobID,
		Theme:       m.Theme,
		Category:    m.Category,
		ClientName:  m.ClientName,
		GeneratedAt: m.GeneratedAt,
		Placements:  make([]Placement, 0, len(raw.Placements)),
		Texts:       make(map[string]string, len(raw.Texts)),
	}
	if m.Pages != nil {
		if *m.Pages < 0 {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "meta.pages must not be negative, got %d", *m.Pages)
		}
		p.Pages = *m.Pages
	}

	for i, rp := range raw.Placements {
		pl, err := rp.validate()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "placements[%d]", i)
		}
		p.Placements = append(p.Placements, pl)
	}

	for k, v := range raw.Texts {
		label := norm.NFC.String(k)
		if err := errors.ValidateLabel(label); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "texts")
		}
		if label == "" {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "texts: empty label")
		}
		if _, dup := p.Texts[label]; dup {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "texts: label %q appears twice", label)
		}
		p.Texts[label] = norm.NFC.String(v)
	}

	return p, nil
}

func (rp rawPlacement) validate() (Placement, error) {
	if err := errors.ValidateFilePath(rp.Photo); err != nil {
		return Placement{}, fmt.Errorf("photo: %w", err)
	}
	label := norm.NFC.String(rp.Label)
	if err := errors.ValidateLabel(label); err != nil {
		return Placement{}, err
	}
	orientation, err := geom.ParseOrientation(rp.Orientation)
	if err != nil {
		return Placement{}, err
	}
	fit, err := ParseFitMode(rp.Fit)
	if err != nil {
		return Placement{}, err
	}
	return Placement{
		Photo:       errors.NormalizePath(rp.Photo),
		Label:       label,
		Orientation: orientation,
		Fit:         fit,
		DisplayName: rp.Filename,
	}, nil
}

// ParseFitMode converts a plan fit value. "proportional" and "fit" are the
// layout-application spellings of contain; the empty string means fill.
func ParseFitMode(s string) (FitMode, error) {
	switch s {
	case "", "fill":
		return FitFill, nil
	case "contain", "proportional", "fit":
		return FitContain, nil
	}
	return "", fmt.Errorf("invalid fit %q (must be fill, proportional or contain)", s)
}

func (p *Plan) resolve(dir string) {
	abs := func(path string) string {
		if path == "" || filepath.IsAbs(path) || isWindowsAbs(path) {
			return path
		}
		return filepath.Join(dir, path)
	}
	p.Template = abs(p.Template)
	p.OutputDir = abs(p.OutputDir)
	for i := range p.Placements {
		p.Placements[i].Photo = abs(p.Placements[i].Photo)
	}
}

// isWindowsAbs recognizes drive-letter paths on any host.
func isWindowsAbs(path string) bool {
	return len(path) >= 3 && path[1] == ':' && path[2] == '/' &&
		((path[0] >= 'A' && path[0] <= 'Z') || (path[0] >= 'a' && path[0] <= 'z'))
}
