package compose

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/geom"
)

func box(top, left, bottom, right float64) geom.Bounds {
	return geom.Bounds{Top: top, Left: left, Bottom: bottom, Right: right}
}

func rect(label string, b geom.Bounds) document.Item {
	return document.Item{Kind: document.Rectangle, Label: label, Bounds: b}
}

// newDoc builds an in-memory document with one page per entry.
func newDoc(t *testing.T, pages ...[]document.Item) *document.Doc {
	t.Helper()
	d := document.New("test", document.WithExporter(stubExporter{}))
	for i := 1; i < len(pages); i++ {
		if err := d.AddPage(); err != nil {
			t.Fatal(err)
		}
	}
	for i, items := range pages {
		for _, it := range items {
			if _, err := d.AddItem(i, it); err != nil {
				t.Fatal(err)
			}
		}
	}
	return d
}

func writePhoto(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return path
}

// stubExporter writes a marker file instead of rendering.
type stubExporter struct{}

func (stubExporter) Export(f *document.File, path string, format document.Format, _ string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(string(format)), 0o644)
}

// faultyDoc injects failures into an in-memory document.
type faultyDoc struct {
	*document.Doc

	addLimit  int // AddPage fails once the document has this many pages; 0 disables
	removeErr error
	masterErr error
	placeErr  map[document.ItemID]error
	saveErr   error
	exportErr error
	closeErr  error
	closed    bool
}

func (d *faultyDoc) AddPage() error {
	if d.addLimit > 0 && d.PageCount() >= d.addLimit {
		return os.ErrPermission
	}
	return d.Doc.AddPage()
}

func (d *faultyDoc) RemovePage(i int) error {
	if d.removeErr != nil {
		return d.removeErr
	}
	return d.Doc.RemovePage(i)
}

func (d *faultyDoc) ApplyMaster(i int, name string) error {
	if d.masterErr != nil {
		return d.masterErr
	}
	return d.Doc.ApplyMaster(i, name)
}

func (d *faultyDoc) Place(id document.ItemID, path string) error {
	if err := d.placeErr[id]; err != nil {
		return err
	}
	return d.Doc.Place(id, path)
}

func (d *faultyDoc) Save(path string) error {
	if d.saveErr != nil {
		return d.saveErr
	}
	return d.Doc.Save(path)
}

func (d *faultyDoc) Export(path string, f document.Format, preset string) error {
	if d.exportErr != nil {
		return d.exportErr
	}
	return d.Doc.Export(path, f, preset)
}

func (d *faultyDoc) Close() error {
	d.closed = true
	if d.closeErr != nil {
		return d.closeErr
	}
	return d.Doc.Close()
}
