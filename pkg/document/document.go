// Package document models the layout document the composition engine works
// on: ordered pages holding image-capable items and text frames, master pages
// applied to new pages, and the persistence and export surface.
//
// The engine talks to documents only through the [Document] interface.
// [Doc] is the in-memory implementation used by the CLI; it loads and saves
// the native file schema ([File]) as JSON, YAML or TOML and delegates
// rendering to an [Exporter].
//
// Page indices are zero-based throughout.
package document

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/aizine/pkg/geom"
)

// ItemID identifies an item or text frame within one document.
type ItemID string

// NormalizeLabel returns label in Unicode NFC. Template labels are stored
// in this form so they compare equal to plan labels.
func NormalizeLabel(label string) string { return norm.NFC.String(label) }

// ShapeKind is the geometric kind of a page item.
type ShapeKind string

const (
	Rectangle ShapeKind = "rectangle"
	Polygon   ShapeKind = "polygon"
	Oval      ShapeKind = "oval"
	Other     ShapeKind = "other"
)

// ParseShapeKind converts a schema string into a ShapeKind.
// The empty string maps to Rectangle.
func ParseShapeKind(s string) (ShapeKind, error) {
	switch k := ShapeKind(s); k {
	case Rectangle, Polygon, Oval, Other:
		return k, nil
	case "":
		return Rectangle, nil
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

// ImageCapable reports whether items of this kind can hold a photograph
// during geometric matching.
func (k ShapeKind) ImageCapable() bool {
	return k == Rectangle || k == Polygon || k == Oval
}

// FitOption is one fitting step applied to placed content.
type FitOption string

const (
	// FillProportionally scales content to cover the frame, cropping overflow.
	FillProportionally FitOption = "fill_proportionally"
	// Proportionally scales content to fit inside the frame.
	Proportionally FitOption = "proportionally"
	// CenterContent centers content within the frame without scaling.
	CenterContent FitOption = "center_content"
)

// Format is an export output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatJPEG Format = "jpg" // preview thumbnail of the first page
)

// Graphic is placed image content. Width and Height are the source pixel
// dimensions; Content is where the content sits on the page after fitting,
// which may extend past the frame.
type Graphic struct {
	Path    string
	Width   int
	Height  int
	Content geom.Bounds
}

// Item is an image-capable (or decorative) page item.
type Item struct {
	ID      ItemID
	Page    int
	Kind    ShapeKind
	Bounds  geom.Bounds
	Label   string
	Fill    string
	Points  []geom.Point // outline for polygons, empty otherwise
	Graphic *Graphic
}

// TextFrame is a frame holding text contents.
type TextFrame struct {
	ID       ItemID
	Page     int
	Bounds   geom.Bounds
	Label    string
	Contents string
	Font     string
	FontSize float64
	Align    string
	Color    string
}

// Document is the layout document collaborator.
//
// Implementations need not be safe for concurrent use; one composition run
// owns its document exclusively.
type Document interface {
	Name() string
	PageCount() int
	AddPage() error
	RemovePage(index int) error
	MasterPages() []string
	ApplyMaster(page int, master string) error

	// PageItems returns the items on one page in document order.
	PageItems(page int) ([]Item, error)
	// Rectangles returns every rectangle in the document, page by page.
	Rectangles() []Item
	// AllPageItems returns every item of any kind, page by page.
	AllPageItems() []Item
	TextFrames() []TextFrame

	SetContents(id ItemID, text string) error
	Place(id ItemID, path string) error
	Fit(id ItemID, opt FitOption) error

	Save(path string) error
	Export(path string, format Format, preset string) error
	Close() error
}
