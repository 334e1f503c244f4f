package render

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const rsvgBinary = "rsvg-convert"

// Converter turns rendered SVG pages into other formats.
type Converter interface {
	PDF(pages [][]byte) ([]byte, error)
	PNG(svg []byte, scale float64) ([]byte, error)
}

// RSVG converts with the rsvg-convert command line tool.
type RSVG struct{}

func (RSVG) PDF(pages [][]byte) ([]byte, error)            { return ToPDF(pages) }
func (RSVG) PNG(svg []byte, scale float64) ([]byte, error) { return ToPNG(svg, scale) }

// ToPDF converts SVG pages to a single PDF with one page per SVG.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(pages [][]byte) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf export needs at least one page")
	}
	if len(pages) == 1 {
		return rsvgConvert(pages[0], "pdf")
	}

	dir, err := os.MkdirTemp("", "aizine-pages-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	args := []string{"-f", "pdf"}
	for i, svg := range pages {
		path := filepath.Join(dir, fmt.Sprintf("page-%04d.svg", i+1))
		if err := os.WriteFile(path, svg, 0o644); err != nil {
			return nil, err
		}
		args = append(args, path)
	}
	return runRSVG("pdf", nil, args...)
}

// ToPNG converts SVG bytes to PNG using rsvg-convert with the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// rsvgConvert pipes one SVG document through rsvg-convert.
func rsvgConvert(svg []byte, format string, extraArgs ...string) ([]byte, error) {
	args := append([]string{"-f", format}, extraArgs...)
	return runRSVG(format, bytes.NewReader(svg), args...)
}

func runRSVG(format string, stdin *bytes.Reader, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(rsvgBinary); err != nil {
		return nil, fmt.Errorf("%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	cmd := exec.Command(rsvgBinary, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	return out.Bytes(), nil
}

// Available reports whether rsvg-convert is on PATH.
func Available() bool {
	_, err := exec.LookPath(rsvgBinary)
	return err == nil
}
