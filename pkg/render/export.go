package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/aizine/pkg/document"
)

// DefaultPreviewWidth is the thumbnail width in pixels.
const DefaultPreviewWidth = 800

// Exporter renders document snapshots to files. It implements
// [document.Exporter].
type Exporter struct {
	Converter    Converter
	Logger       *log.Logger
	PreviewWidth int
}

var _ document.Exporter = (*Exporter)(nil)

// NewExporter returns an exporter using rsvg-convert.
func NewExporter(logger *log.Logger) *Exporter {
	return &Exporter{Converter: RSVG{}, Logger: logger, PreviewWidth: DefaultPreviewWidth}
}

// Export writes f to path in the requested format. An unknown preset name
// falls back to the first preset and is logged.
func (e *Exporter) Export(f *document.File, path string, format document.Format, presetName string) error {
	logger := e.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	conv := e.Converter
	if conv == nil {
		conv = RSVG{}
	}

	preset, ok := LookupPreset(presetName)
	if !ok {
		preset = Presets[0]
		if presetName != "" {
			logger.Warn("unknown export preset, using fallback", "requested", presetName, "preset", preset.Name)
		}
	}
	opts := []SVGOption{WithPreset(preset), withImages(make(map[string]string))}

	var data []byte
	var err error
	switch format {
	case document.FormatSVG:
		data, err = RenderPage(f, 0, opts...)
	case document.FormatPDF:
		pages := make([][]byte, len(f.Pages))
		for i := range f.Pages {
			if pages[i], err = RenderPage(f, i, opts...); err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}
		}
		data, err = conv.PDF(pages)
	case document.FormatPNG:
		data, err = e.png(f, conv, preset, opts)
	case document.FormatJPEG:
		data, err = e.preview(f, conv, preset, opts)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	logger.Debug("exported", "path", path, "format", format, "preset", preset.Name, "bytes", len(data))
	return nil
}

func (e *Exporter) png(f *document.File, conv Converter, preset Preset, opts []SVGOption) ([]byte, error) {
	svg, err := RenderPage(f, 0, opts...)
	if err != nil {
		return nil, err
	}
	return conv.PNG(svg, preset.Scale)
}

// preview rasterizes the first page and scales it down to a JPEG thumbnail.
func (e *Exporter) preview(f *document.File, conv Converter, preset Preset, opts []SVGOption) ([]byte, error) {
	data, err := e.png(f, conv, preset, opts)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}

	width := e.PreviewWidth
	if width <= 0 {
		width = DefaultPreviewWidth
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
