package document

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/aizine/pkg/errors"
	"github.com/matzehuels/aizine/pkg/imageinfo"
)

// Prober reports the pixel dimensions of an image file.
type Prober interface {
	Dimensions(path string) (width, height int, err error)
}

// Exporter renders a document snapshot to an output file.
type Exporter interface {
	Export(f *File, path string, format Format, preset string) error
}

// Option configures a [Doc].
type Option func(*Doc)

// WithProber sets the image dimension probe used by Place.
func WithProber(p Prober) Option {
	return func(d *Doc) {
		if p != nil {
			d.prober = p
		}
	}
}

// WithExporter sets the renderer used by Export.
func WithExporter(e Exporter) Option {
	return func(d *Doc) { d.exporter = e }
}

type master struct {
	name  string
	items []Item
	texts []TextFrame
}

type page struct {
	master string
	items  []Item
	texts  []TextFrame
}

// Doc is an in-memory layout document.
type Doc struct {
	name          string
	width, height float64
	masters       []master
	pages         []*page
	seq           int
	ids           map[ItemID]bool
	closed        bool

	prober   Prober
	exporter Exporter
}

var _ Document = (*Doc)(nil)

// New creates an empty document with one blank page.
func New(name string, opts ...Option) *Doc {
	d := &Doc{
		name:   name,
		width:  DefaultPageWidth,
		height: DefaultPageHeight,
		pages:  []*page{{}},
		ids:    make(map[ItemID]bool),
		prober: imageinfo.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open loads a native document file (.json, .yaml, .yml or .toml).
func Open(path string, opts ...Option) (*Doc, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := f.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return FromFile(name, f, opts...)
}

// FromFile builds a document from a decoded schema. Items without an ID are
// assigned one; duplicate IDs are rejected.
func FromFile(name string, f *File, opts ...Option) (*Doc, error) {
	d := New(name, opts...)
	d.pages = nil
	if f.PageWidth > 0 {
		d.width = f.PageWidth
	}
	if f.PageHeight > 0 {
		d.height = f.PageHeight
	}

	// Explicit IDs are reserved first so generated ones never collide.
	for _, pf := range f.Pages {
		for _, itf := range pf.Items {
			if itf.ID == "" {
				continue
			}
			if d.ids[ItemID(itf.ID)] {
				return nil, errors.New(errors.ErrCodeInvalidTemplate, "duplicate item id %q", itf.ID)
			}
			d.ids[ItemID(itf.ID)] = true
		}
		for _, tf := range pf.Texts {
			if tf.ID == "" {
				continue
			}
			if d.ids[ItemID(tf.ID)] {
				return nil, errors.New(errors.ErrCodeInvalidTemplate, "duplicate item id %q", tf.ID)
			}
			d.ids[ItemID(tf.ID)] = true
		}
	}

	for mi, mf := range f.Masters {
		if mf.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidTemplate, "masters[%d]: name is required", mi)
		}
		m := master{name: mf.Name}
		for j, itf := range mf.Items {
			it, err := itf.item(-1)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "master %q item %d", mf.Name, j)
			}
			m.items = append(m.items, it)
		}
		for j, tf := range mf.Texts {
			t, err := tf.frame(-1)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "master %q text %d", mf.Name, j)
			}
			m.texts = append(m.texts, t)
		}
		d.masters = append(d.masters, m)
	}

	for pi, pf := range f.Pages {
		p := &page{master: pf.Master}
		for j, itf := range pf.Items {
			it, err := itf.item(pi)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "page %d item %d", pi+1, j)
			}
			if it.ID == "" {
				it.ID = d.nextID()
			}
			p.items = append(p.items, it)
		}
		for j, tf := range pf.Texts {
			t, err := tf.frame(pi)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "page %d text %d", pi+1, j)
			}
			if t.ID == "" {
				t.ID = d.nextID()
			}
			p.texts = append(p.texts, t)
		}
		d.pages = append(d.pages, p)
	}
	if len(d.pages) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "document %q has no pages", name)
	}
	return d, nil
}

// File returns a snapshot of the document in the native schema.
func (d *Doc) File() *File {
	f := &File{Version: FileVersion, Name: d.name, PageWidth: d.width, PageHeight: d.height}
	for _, m := range d.masters {
		mf := MasterFile{Name: m.name}
		for _, it := range m.items {
			mf.Items = append(mf.Items, itemFile(it))
		}
		for _, t := range m.texts {
			mf.Texts = append(mf.Texts, textFile(t))
		}
		f.Masters = append(f.Masters, mf)
	}
	for _, p := range d.pages {
		pf := PageFile{Master: p.master}
		for _, it := range p.items {
			pf.Items = append(pf.Items, itemFile(it))
		}
		for _, t := range p.texts {
			pf.Texts = append(pf.Texts, textFile(t))
		}
		f.Pages = append(f.Pages, pf)
	}
	return f
}

func (d *Doc) Name() string   { return d.name }
func (d *Doc) PageCount() int { return len(d.pages) }

// PageSize returns the page width and height in points.
func (d *Doc) PageSize() (float64, float64) { return d.width, d.height }

// AddPage appends a blank page.
func (d *Doc) AddPage() error {
	if d.closed {
		return errClosed
	}
	d.pages = append(d.pages, &page{})
	return nil
}

// RemovePage deletes the page at index. The last remaining page cannot be
// removed.
func (d *Doc) RemovePage(index int) error {
	if d.closed {
		return errClosed
	}
	if err := d.checkPage(index); err != nil {
		return err
	}
	if len(d.pages) == 1 {
		return errors.New(errors.ErrCodeInvalidInput, "cannot remove the only page")
	}
	d.pages = slices.Delete(d.pages, index, index+1)
	for i := index; i < len(d.pages); i++ {
		d.renumber(i)
	}
	return nil
}

func (d *Doc) renumber(i int) {
	p := d.pages[i]
	for j := range p.items {
		p.items[j].Page = i
	}
	for j := range p.texts {
		p.texts[j].Page = i
	}
}

// MasterPages returns the master names in document order.
func (d *Doc) MasterPages() []string {
	names := make([]string, len(d.masters))
	for i, m := range d.masters {
		names[i] = m.name
	}
	return names
}

// ApplyMaster assigns a master to a page and stamps the master's items and
// text frames onto it. Stamped items carry no label.
func (d *Doc) ApplyMaster(index int, name string) error {
	if d.closed {
		return errClosed
	}
	if err := d.checkPage(index); err != nil {
		return err
	}
	i := slices.IndexFunc(d.masters, func(m master) bool { return m.name == name })
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "master %q not found", name)
	}
	m, p := d.masters[i], d.pages[index]
	p.master = name
	for _, it := range m.items {
		it.ID, it.Page, it.Label = d.nextID(), index, ""
		it.Points = slices.Clone(it.Points)
		it.Graphic = nil
		p.items = append(p.items, it)
	}
	for _, t := range m.texts {
		t.ID, t.Page, t.Label = d.nextID(), index, ""
		p.texts = append(p.texts, t)
	}
	return nil
}

func (d *Doc) PageItems(index int) ([]Item, error) {
	if err := d.checkPage(index); err != nil {
		return nil, err
	}
	return slices.Clone(d.pages[index].items), nil
}

func (d *Doc) Rectangles() []Item {
	var out []Item
	for _, p := range d.pages {
		for _, it := range p.items {
			if it.Kind == Rectangle {
				out = append(out, it)
			}
		}
	}
	return out
}

func (d *Doc) AllPageItems() []Item {
	var out []Item
	for _, p := range d.pages {
		out = append(out, p.items...)
	}
	return out
}

func (d *Doc) TextFrames() []TextFrame {
	var out []TextFrame
	for _, p := range d.pages {
		out = append(out, p.texts...)
	}
	return out
}

// SetContents replaces the contents of a text frame.
func (d *Doc) SetContents(id ItemID, text string) error {
	if d.closed {
		return errClosed
	}
	t := d.text(id)
	if t == nil {
		return errors.New(errors.ErrCodeNotFound, "text frame %s not found", id)
	}
	t.Contents = text
	return nil
}

// Place puts the image at path into an item. The content starts at the
// frame's top-left corner at its native size (one pixel per point) until
// fitted.
func (d *Doc) Place(id ItemID, path string) error {
	if d.closed {
		return errClosed
	}
	it := d.item(id)
	if it == nil {
		return errors.New(errors.ErrCodeNotFound, "item %s not found", id)
	}
	if _, err := os.Stat(path); err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s", path)
	}
	w, h, err := d.prober.Dimensions(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read image %s", path)
	}
	it.Graphic = &Graphic{
		Path:    path,
		Width:   w,
		Height:  h,
		Content: it.Bounds.Sized(float64(w), float64(h)),
	}
	return nil
}

// Fit applies one fitting step to the content placed in an item.
func (d *Doc) Fit(id ItemID, opt FitOption) error {
	if d.closed {
		return errClosed
	}
	it := d.item(id)
	if it == nil {
		return errors.New(errors.ErrCodeNotFound, "item %s not found", id)
	}
	if it.Graphic == nil {
		return errors.New(errors.ErrCodeInvalidInput, "item %s has no content to fit", id)
	}
	content, err := fit(it.Bounds, it.Graphic.Content, opt)
	if err != nil {
		return err
	}
	it.Graphic.Content = content
	return nil
}

// Save writes the document in the native schema, choosing the codec by
// extension.
func (d *Doc) Save(path string) error {
	if d.closed {
		return errClosed
	}
	return WriteFile(path, d.File())
}

// Export renders the document through the configured exporter.
func (d *Doc) Export(path string, format Format, preset string) error {
	if d.closed {
		return errClosed
	}
	if d.exporter == nil {
		return errors.New(errors.ErrCodeUnsupported, "no exporter configured for %s", format)
	}
	if err := d.exporter.Export(d.File(), path, format, preset); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "export %s", path)
	}
	return nil
}

// Close releases the document. Closing twice is an error.
func (d *Doc) Close() error {
	if d.closed {
		return errClosed
	}
	d.closed = true
	return nil
}

var errClosed = errors.New(errors.ErrCodeInvalidInput, "document is closed")

func (d *Doc) checkPage(index int) error {
	if index < 0 || index >= len(d.pages) {
		return errors.New(errors.ErrCodeInvalidInput, "page %d out of range (document has %d)", index, len(d.pages))
	}
	return nil
}

func (d *Doc) item(id ItemID) *Item {
	for _, p := range d.pages {
		for i := range p.items {
			if p.items[i].ID == id {
				return &p.items[i]
			}
		}
	}
	return nil
}

func (d *Doc) text(id ItemID) *TextFrame {
	for _, p := range d.pages {
		for i := range p.texts {
			if p.texts[i].ID == id {
				return &p.texts[i]
			}
		}
	}
	return nil
}

func (d *Doc) nextID() ItemID {
	for {
		d.seq++
		id := ItemID(fmt.Sprintf("u%x", d.seq))
		if !d.ids[id] {
			d.ids[id] = true
			return id
		}
	}
}

// AddItem appends an item to a page and returns its ID. It is used by
// template importers and tests to build documents programmatically.
func (d *Doc) AddItem(index int, it Item) (ItemID, error) {
	if err := d.checkPage(index); err != nil {
		return "", err
	}
	if it.Kind == "" {
		it.Kind = Rectangle
	}
	it.Label = NormalizeLabel(it.Label)
	if it.ID == "" || d.ids[it.ID] {
		it.ID = d.nextID()
	}
	d.ids[it.ID] = true
	it.Page = index
	d.pages[index].items = append(d.pages[index].items, it)
	return it.ID, nil
}

// AddText appends a text frame to a page and returns its ID.
func (d *Doc) AddText(index int, t TextFrame) (ItemID, error) {
	if err := d.checkPage(index); err != nil {
		return "", err
	}
	t.Label = NormalizeLabel(t.Label)
	if t.ID == "" || d.ids[t.ID] {
		t.ID = d.nextID()
	}
	d.ids[t.ID] = true
	t.Page = index
	d.pages[index].texts = append(d.pages[index].texts, t)
	return t.ID, nil
}

// AddMaster registers a master page built from page-relative items.
func (d *Doc) AddMaster(name string, items []Item, texts []TextFrame) {
	d.masters = append(d.masters, master{name: name, items: items, texts: texts})
}

// SetPageSize overrides the page dimensions in points.
func (d *Doc) SetPageSize(width, height float64) {
	if width > 0 && height > 0 {
		d.width, d.height = width, height
	}
}
