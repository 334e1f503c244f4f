// Package idml imports InDesign Markup Language packages as document
// templates.
//
// An IDML file is a zip archive. designmap.xml lists the spreads and master
// spreads in order; each spread holds pages and the page items laid over
// them. Items are positioned in spread coordinates through a chain of
// ItemTransform matrices, and this package flattens them into page-relative
// bounds. Only what the composition engine needs is read: pages, rectangles,
// ovals, polygons, graphic lines, text frames with their story text, and
// script labels.
//
// Import is read-only. Saving always goes through the native schema.
package idml

import (
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/geom"
)

// node is a generic XML element that keeps children in document order.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *node) child(name string) *node {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

// Read imports the IDML package at path.
func Read(filename string) (*document.File, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening IDML archive: %w", err)
	}
	defer zr.Close()
	return read(&zr.Reader, strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
}

// ReadFrom imports an IDML package from r.
func ReadFrom(r io.ReaderAt, size int64, name string) (*document.File, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening IDML archive: %w", err)
	}
	return read(zr, name)
}

type pkg struct {
	files   map[string]*zip.File
	stories map[string]string
}

func read(zr *zip.Reader, name string) (*document.File, error) {
	p := &pkg{files: make(map[string]*zip.File), stories: make(map[string]string)}
	for _, f := range zr.File {
		p.files[f.Name] = f
	}

	spreads, masters, err := p.order()
	if err != nil {
		return nil, err
	}
	if len(spreads) == 0 {
		return nil, fmt.Errorf("no spreads found in IDML package")
	}

	out := &document.File{Version: document.FileVersion, Name: name}

	masterBySelf := make(map[string]string)
	for _, src := range masters {
		root, err := p.parse(src)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", src, err)
		}
		for _, ms := range findAll(root, "MasterSpread") {
			mf := document.MasterFile{Name: masterName(ms)}
			for _, pg := range p.spread(ms) {
				mf.Items = append(mf.Items, pg.items...)
				mf.Texts = append(mf.Texts, pg.texts...)
			}
			masterBySelf[ms.attr("Self")] = mf.Name
			out.Masters = append(out.Masters, mf)
		}
	}

	for _, src := range spreads {
		root, err := p.parse(src)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", src, err)
		}
		for _, sp := range findAll(root, "Spread") {
			for _, pg := range p.spread(sp) {
				if out.PageWidth == 0 {
					out.PageWidth, out.PageHeight = pg.bounds.Width(), pg.bounds.Height()
				}
				out.Pages = append(out.Pages, document.PageFile{
					Master: masterBySelf[pg.master],
					Items:  pg.items,
					Texts:  pg.texts,
				})
			}
		}
	}
	if len(out.Pages) == 0 {
		return nil, fmt.Errorf("no pages found in IDML package")
	}
	return out, nil
}

// order returns spread and master spread sources in designmap order,
// falling back to sorted archive names when designmap.xml is absent.
func (p *pkg) order() (spreads, masters []string, err error) {
	if _, ok := p.files["designmap.xml"]; ok {
		root, err := p.parse("designmap.xml")
		if err != nil {
			return nil, nil, fmt.Errorf("parsing designmap.xml: %w", err)
		}
		for _, c := range root.Children {
			switch c.XMLName.Local {
			case "Spread":
				spreads = append(spreads, c.attr("src"))
			case "MasterSpread":
				masters = append(masters, c.attr("src"))
			}
		}
		return spreads, masters, nil
	}

	for name := range p.files {
		switch {
		case strings.HasPrefix(name, "Spreads/") && strings.HasSuffix(name, ".xml"):
			spreads = append(spreads, name)
		case strings.HasPrefix(name, "MasterSpreads/") && strings.HasSuffix(name, ".xml"):
			masters = append(masters, name)
		}
	}
	sort.Strings(spreads)
	sort.Strings(masters)
	return spreads, masters, nil
}

func (p *pkg) parse(name string) (*node, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var root node
	if err := xml.NewDecoder(rc).Decode(&root); err != nil {
		return nil, err
	}
	return &root, nil
}

// story returns the plain text of a story, with Br elements as newlines.
func (p *pkg) story(self string) string {
	if self == "" {
		return ""
	}
	if s, ok := p.stories[self]; ok {
		return s
	}
	var b strings.Builder
	if root, err := p.parse("Stories/Story_" + self + ".xml"); err == nil {
		var walk func(n *node)
		walk = func(n *node) {
			switch n.XMLName.Local {
			case "Content":
				b.WriteString(n.Text)
				return
			case "Br":
				b.WriteByte('\n')
				return
			}
			for i := range n.Children {
				walk(&n.Children[i])
			}
		}
		walk(root)
	}
	s := strings.TrimRight(b.String(), "\n")
	p.stories[self] = s
	return s
}

// findAll returns the elements named local that carry a Self id. Package
// wrappers such as idPkg:Spread share the local name but have no Self.
func findAll(n *node, local string) []*node {
	if n == nil {
		return nil
	}
	if n.XMLName.Local == local && n.attr("Self") != "" {
		return []*node{n}
	}
	var out []*node
	for i := range n.Children {
		out = append(out, findAll(&n.Children[i], local)...)
	}
	return out
}

func descendants(n *node, local string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == local {
			out = append(out, c)
		}
		out = append(out, descendants(c, local)...)
	}
	return out
}

func masterName(ms *node) string {
	if prefix, base := ms.attr("NamePrefix"), ms.attr("BaseName"); prefix != "" || base != "" {
		return strings.Trim(prefix+"-"+base, "-")
	}
	if name := ms.attr("Name"); name != "" {
		return name
	}
	return ms.attr("Self")
}

// =============================================================================
// Spread flattening
// =============================================================================

type pageOut struct {
	bounds geom.Bounds // spread coordinates
	master string
	items  []document.ItemFile
	texts  []document.TextFile
}

type placed struct {
	el     *node
	points []geom.Point // spread coordinates
}

func (p *pkg) spread(sp *node) []*pageOut {
	base := parseMatrix(sp.attr("ItemTransform"))

	var pages []*pageOut
	var items []placed
	var walk func(n *node, m matrix)
	walk = func(n *node, m matrix) {
		for i := range n.Children {
			c := &n.Children[i]
			cm := parseMatrix(c.attr("ItemTransform")).then(m)
			switch c.XMLName.Local {
			case "Page":
				gb, err := parseBounds(c.attr("GeometricBounds"))
				if err != nil {
					continue
				}
				pages = append(pages, &pageOut{
					bounds: geom.BoundsOf(cm.apply(corners(gb))),
					master: c.attr("AppliedMaster"),
				})
			case "Rectangle", "Oval", "Polygon", "GraphicLine", "TextFrame":
				if pts := outline(c); len(pts) > 0 {
					items = append(items, placed{el: c, points: cm.apply(pts)})
				}
			case "Group":
				walk(c, cm)
			}
		}
	}
	walk(sp, base)

	if len(pages) == 0 {
		return nil
	}
	for _, it := range items {
		pg := owner(pages, geom.BoundsOf(it.points).Center())
		origin := geom.Point{X: pg.bounds.Left, Y: pg.bounds.Top}
		rel := make([]geom.Point, len(it.points))
		for i, pt := range it.points {
			rel[i] = geom.Point{X: pt.X - origin.X, Y: pt.Y - origin.Y}
		}
		b := geom.BoundsOf(rel)
		label := scriptLabel(it.el)

		if it.el.XMLName.Local == "TextFrame" {
			pg.texts = append(pg.texts, document.TextFile{
				Bounds:   b.Slice(),
				Label:    label,
				Contents: p.story(it.el.attr("ParentStory")),
			})
			continue
		}

		f := document.ItemFile{Kind: string(kindOf(it.el.XMLName.Local)), Bounds: b.Slice(), Label: label}
		if f.Kind == string(document.Polygon) {
			for _, pt := range rel {
				f.Points = append(f.Points, []float64{pt.X, pt.Y})
			}
		}
		pg.items = append(pg.items, f)
	}
	return pages
}

func kindOf(local string) document.ShapeKind {
	switch local {
	case "Rectangle":
		return document.Rectangle
	case "Oval":
		return document.Oval
	case "Polygon":
		return document.Polygon
	}
	return document.Other
}

// owner returns the page containing pt, else the page whose horizontal
// center is nearest.
func owner(pages []*pageOut, pt geom.Point) *pageOut {
	best, bestDist := pages[0], -1.0
	for _, pg := range pages {
		b := pg.bounds
		if pt.X >= b.Left && pt.X <= b.Right && pt.Y >= b.Top && pt.Y <= b.Bottom {
			return pg
		}
		d := pt.X - b.Center().X
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = pg, d
		}
	}
	return best
}

func scriptLabel(n *node) string {
	props := n.child("Properties")
	if props == nil {
		return ""
	}
	lbl := props.child("Label")
	if lbl == nil {
		return ""
	}
	for i := range lbl.Children {
		kv := &lbl.Children[i]
		if kv.XMLName.Local == "KeyValuePair" && kv.attr("Key") == "Label" {
			return document.NormalizeLabel(kv.attr("Value"))
		}
	}
	return ""
}

// outline returns an item's anchor points in its own coordinate space,
// from its path geometry or, failing that, its GeometricBounds attribute.
func outline(n *node) []geom.Point {
	var pts []geom.Point
	for _, pp := range descendants(n.child("Properties"), "PathPointType") {
		if xy := strings.Fields(pp.attr("Anchor")); len(xy) == 2 {
			x, errX := strconv.ParseFloat(xy[0], 64)
			y, errY := strconv.ParseFloat(xy[1], 64)
			if errX == nil && errY == nil {
				pts = append(pts, geom.Point{X: x, Y: y})
			}
		}
	}
	if len(pts) > 0 {
		return pts
	}
	if gb, err := parseBounds(n.attr("GeometricBounds")); err == nil {
		return corners(gb)
	}
	return nil
}

func parseBounds(s string) (geom.Bounds, error) {
	fields := strings.Fields(s)
	v := make([]float64, 0, 4)
	for _, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geom.Bounds{}, err
		}
		v = append(v, x)
	}
	return geom.FromSlice(v)
}

func corners(b geom.Bounds) []geom.Point {
	return []geom.Point{
		{X: b.Left, Y: b.Top}, {X: b.Right, Y: b.Top},
		{X: b.Right, Y: b.Bottom}, {X: b.Left, Y: b.Bottom},
	}
}

// =============================================================================
// Transforms
// =============================================================================

// matrix is an IDML affine transform "a b c d tx ty":
// x' = a*x + c*y + tx, y' = b*x + d*y + ty.
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func parseMatrix(s string) matrix {
	fields := strings.Fields(s)
	if len(fields) != 6 {
		return identity
	}
	var m matrix
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return identity
		}
		m[i] = v
	}
	return m
}

// then returns the transform applying m first and outer second.
func (m matrix) then(outer matrix) matrix {
	return matrix{
		m[0]*outer[0] + m[1]*outer[2],
		m[0]*outer[1] + m[1]*outer[3],
		m[2]*outer[0] + m[3]*outer[2],
		m[2]*outer[1] + m[3]*outer[3],
		m[4]*outer[0] + m[5]*outer[2] + outer[4],
		m[4]*outer[1] + m[5]*outer[3] + outer[5],
	}
}

func (m matrix) apply(pts []geom.Point) []geom.Point {
	out := make([]geom.Point, len(pts))
	for i, p := range pts {
		out[i] = geom.Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
	}
	return out
}
