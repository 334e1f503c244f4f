package render

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/geom"
)

const (
	defaultFont      = "Helvetica"
	defaultFontSize  = 12.0
	defaultTextColor = "#000000"
	lineHeightRatio  = 1.2
	charWidthRatio   = 0.5
	placeholderFill  = "#d9d9d9"
	frameStroke      = "#00a2ff"
)

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	preset Preset
	images map[string]string
	clipN  int
}

// WithPreset selects the export preset (default HighQualityPrint).
func WithPreset(p Preset) SVGOption { return func(r *svgRenderer) { r.preset = p } }

// withImages shares embedded image data between pages of one export.
func withImages(m map[string]string) SVGOption { return func(r *svgRenderer) { r.images = m } }

// RenderPage draws one page of f as SVG.
func RenderPage(f *document.File, page int, opts ...SVGOption) ([]byte, error) {
	if page < 0 || page >= len(f.Pages) {
		return nil, fmt.Errorf("page %d out of range (document has %d)", page, len(f.Pages))
	}
	r := svgRenderer{preset: HighQualityPrint}
	for _, opt := range opts {
		opt(&r)
	}
	if r.images == nil {
		r.images = make(map[string]string)
	}

	w, h := pageSize(f)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.2fpt" height="%.2fpt">`+"\n",
		w, h, w, h)
	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%.2f" height="%.2f" fill="#ffffff"/>`+"\n", w, h)

	p := f.Pages[page]
	for _, it := range p.Items {
		if err := r.renderItem(&buf, it); err != nil {
			return nil, err
		}
	}
	for _, t := range p.Texts {
		if err := renderText(&buf, t); err != nil {
			return nil, err
		}
	}
	if r.preset.ShowFrames {
		renderFrames(&buf, p)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func pageSize(f *document.File) (float64, float64) {
	w, h := f.PageWidth, f.PageHeight
	if w <= 0 || h <= 0 {
		w, h = document.DefaultPageWidth, document.DefaultPageHeight
	}
	return w, h
}

func (r *svgRenderer) renderItem(buf *bytes.Buffer, it document.ItemFile) error {
	b, err := geom.FromSlice(it.Bounds)
	if err != nil {
		return fmt.Errorf("item %s: %w", it.ID, err)
	}
	shape := shapeElement(it, b)

	if it.Fill != "" {
		fmt.Fprintf(buf, "  %s fill=\"%s\"/>\n", shape, EscapeXML(it.Fill))
	}
	g := it.Graphic
	if g == nil {
		return nil
	}

	href, ok := r.images[g.Path]
	if !ok {
		href, err = dataURI(g.Path)
		if err != nil {
			href = ""
		}
		r.images[g.Path] = href
	}
	if href == "" {
		fmt.Fprintf(buf, "  %s fill=\"%s\"/>\n", shape, placeholderFill)
		return nil
	}

	content, err := geom.FromSlice(g.Content)
	if err != nil {
		content = b
	}
	r.clipN++
	fmt.Fprintf(buf, "  <clipPath id=\"clip-%d\">%s/></clipPath>\n", r.clipN, shape)
	fmt.Fprintf(buf, "  <image x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" preserveAspectRatio=\"none\" clip-path=\"url(#clip-%d)\" xlink:href=\"%s\"/>\n",
		content.Left, content.Top, content.Width(), content.Height(), r.clipN, href)
	return nil
}

// shapeElement returns an unterminated SVG element outlining the item, so
// callers can append attributes before closing it.
func shapeElement(it document.ItemFile, b geom.Bounds) string {
	switch document.ShapeKind(it.Kind) {
	case document.Oval:
		c := b.Center()
		return fmt.Sprintf(`<ellipse cx="%.2f" cy="%.2f" rx="%.2f" ry="%.2f"`, c.X, c.Y, b.Width()/2, b.Height()/2)
	case document.Polygon:
		if len(it.Points) >= 3 {
			pts := make([]string, 0, len(it.Points))
			for _, p := range it.Points {
				if len(p) == 2 {
					pts = append(pts, fmt.Sprintf("%.2f,%.2f", p[0], p[1]))
				}
			}
			return fmt.Sprintf(`<polygon points="%s"`, strings.Join(pts, " "))
		}
	}
	return fmt.Sprintf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"`, b.Left, b.Top, b.Width(), b.Height())
}

func renderText(buf *bytes.Buffer, t document.TextFile) error {
	if t.Contents == "" {
		return nil
	}
	b, err := geom.FromSlice(t.Bounds)
	if err != nil {
		return fmt.Errorf("text %s: %w", t.ID, err)
	}

	size := t.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	font := t.Font
	if font == "" {
		font = defaultFont
	}
	color := t.Color
	if color == "" {
		color = defaultTextColor
	}

	x, anchor := b.Left, "start"
	switch t.Align {
	case "center":
		x, anchor = b.Center().X, "middle"
	case "right":
		x, anchor = b.Right, "end"
	}

	fmt.Fprintf(buf, `  <text font-family="%s" font-size="%.2f" fill="%s" text-anchor="%s">`,
		EscapeXML(font), size, EscapeXML(color), anchor)
	for i, line := range WrapText(t.Contents, b.Width(), size) {
		y := b.Top + size + float64(i)*size*lineHeightRatio
		fmt.Fprintf(buf, `<tspan x="%.2f" y="%.2f">%s</tspan>`, x, y, EscapeXML(line))
	}
	buf.WriteString("</text>\n")
	return nil
}

func renderFrames(buf *bytes.Buffer, p document.PageFile) {
	outline := func(bounds []float64, label string, dash string) {
		b, err := geom.FromSlice(bounds)
		if err != nil {
			return
		}
		fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-width="0.75" stroke-dasharray="%s"/>`+"\n",
			b.Left, b.Top, b.Width(), b.Height(), frameStroke, dash)
		if label != "" {
			fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-family="%s" font-size="7" fill="%s">%s</text>`+"\n",
				b.Left+2, b.Top+9, defaultFont, frameStroke, EscapeXML(label))
		}
	}
	for _, it := range p.Items {
		outline(it.Bounds, it.Label, "4 2")
	}
	for _, t := range p.Texts {
		outline(t.Bounds, t.Label, "1 2")
	}
}

// WrapText breaks s into lines that fit width at the given font size,
// estimating glyph width from the size. Explicit newlines are kept.
func WrapText(s string, width, size float64) []string {
	maxChars := int(width / (size * charWidthRatio))
	if maxChars < 1 {
		maxChars = 1
	}

	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len([]rune(line))+1+len([]rune(w)) > maxChars {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
	}
	return lines
}

func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// dataURI embeds an image file. JPEG and PNG are embedded as-is; other
// formats are re-encoded as PNG, which every SVG renderer accepts.
func dataURI(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return fileURI(path, "image/jpeg")
	case ".png":
		return fileURI(path, "image/png")
	}

	img, err := imaging.Open(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func fileURI(path, mime string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
